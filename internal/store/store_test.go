package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calpoint/pkg/proof"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "calpoint.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadHandles(t *testing.T) {
	s := openTestStore(t)

	handles := []proof.ProofHandle{
		{URI: "http://node-1.example.com", Hash: "aa11", HashIDNode: "id-1", GroupID: "g-1"},
		{URI: "http://node-2.example.com", Hash: "aa11", HashIDNode: "id-2", GroupID: "g-1"},
		{URI: "http://node-1.example.com", Hash: "bb22", HashIDNode: "id-3", GroupID: "g-2"},
	}
	require.NoError(t, s.SaveHandles(handles))

	got, err := s.HandlesByHash("aa11")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, handles[0], got[0])
	assert.Equal(t, handles[1], got[1])

	got, err = s.HandlesByHash("none")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveHandlesIdempotentPerHashID(t *testing.T) {
	s := openTestStore(t)

	h := proof.ProofHandle{URI: "http://n.example.com", Hash: "aa11", HashIDNode: "id-1", GroupID: "g-1"}
	require.NoError(t, s.SaveHandles([]proof.ProofHandle{h}))
	require.NoError(t, s.SaveHandles([]proof.ProofHandle{h}))

	got, err := s.HandlesByHash("aa11")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSaveAndLoadReceipts(t *testing.T) {
	s := openTestStore(t)

	verifiedAt := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	records := []proof.FlatProofAnchor{
		{
			Hash: "aa11", HashIDNode: "id-1", Branch: "cal_anchor_branch",
			Type: proof.AnchorCal, AnchorID: "985635", ExpectedValue: "v1",
			URI:      "http://trusted.example.com/calendar/985635/hash",
			Verified: true, VerifiedAt: &verifiedAt,
		},
		{
			Hash: "aa11", HashIDNode: "id-1",
			Type: proof.AnchorBtc, AnchorID: "503275", ExpectedValue: "v2",
			URI:      "http://trusted.example.com/calendar/btc/503275/hash",
			Verified: false, VerifiedAt: nil,
		},
	}
	require.NoError(t, s.SaveReceipts(records))

	got, err := s.ReceiptsByHash("aa11")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got[0].Verified)
	require.NotNil(t, got[0].VerifiedAt)
	assert.True(t, got[0].VerifiedAt.Equal(verifiedAt))

	assert.False(t, got[1].Verified)
	assert.Nil(t, got[1].VerifiedAt)
}
