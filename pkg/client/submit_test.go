package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calpoint/pkg/proof"
)

const testHash = "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"

func newSubmitNode(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/hashes":
			var req struct {
				Hashes []string `json:"hashes"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			resp := map[string]any{"hashes": []map[string]string{}}
			var entries []map[string]string
			for i, h := range req.Hashes {
				entries = append(entries, map[string]string{
					"hash_id_node": "id-" + string(rune('a'+i)),
					"hash":         h,
				})
			}
			resp["hashes"] = entries
			json.NewEncoder(w).Encode(resp)

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/proofs/"):
			id := strings.TrimPrefix(r.URL.Path, "/proofs/")
			if id == "missing" {
				json.NewEncoder(w).Encode([]map[string]any{{"hash_id_node": id, "proof": nil}})
				return
			}
			json.NewEncoder(w).Encode([]map[string]any{{"hash_id_node": id, "proof": "eyJmYWtlIjoicHJvb2YifQ=="}})

		default:
			http.NotFound(w, r)
		}
	}))
}

func TestSubmitHashes(t *testing.T) {
	node := newSubmitNode(t)
	defer node.Close()

	c := newTestClient(t)
	handles, err := c.SubmitHashes(context.Background(), []string{testHash}, []string{node.URL})
	require.NoError(t, err)
	require.Len(t, handles, 1)

	h := handles[0]
	assert.Equal(t, node.URL, h.URI)
	assert.Equal(t, testHash, h.Hash)
	assert.Equal(t, "id-a", h.HashIDNode)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`), h.GroupID)
}

func TestSubmitHashesSharesGroupIDPerNode(t *testing.T) {
	node := newSubmitNode(t)
	defer node.Close()

	second := testHash[:62] + "ff"
	c := newTestClient(t)
	handles, err := c.SubmitHashes(context.Background(), []string{testHash, second}, []string{node.URL})
	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.Equal(t, handles[0].GroupID, handles[1].GroupID)
}

func TestSubmitHashesValidation(t *testing.T) {
	c := newTestClient(t)

	t.Run("empty", func(t *testing.T) {
		_, err := c.SubmitHashes(context.Background(), nil, nil)
		assert.ErrorIs(t, err, proof.ErrInvalidArgument)
	})

	t.Run("bad hex", func(t *testing.T) {
		_, err := c.SubmitHashes(context.Background(), []string{"zzzz", "abc"}, nil)
		require.ErrorIs(t, err, proof.ErrInvalidArgument)
		// Both offenders joined into one message.
		assert.Contains(t, err.Error(), "zzzz")
		assert.Contains(t, err.Error(), "abc")
	})

	t.Run("bad node uri", func(t *testing.T) {
		_, err := c.SubmitHashes(context.Background(), []string{testHash}, []string{"ftp://nope"})
		assert.ErrorIs(t, err, ErrInvalidURI)
	})
}

func TestGetProofs(t *testing.T) {
	node := newSubmitNode(t)
	defer node.Close()

	c := newTestClient(t)
	handles := []proof.ProofHandle{
		{URI: node.URL, Hash: testHash, HashIDNode: "id-a", GroupID: "g"},
		{URI: node.URL, Hash: testHash, HashIDNode: "missing", GroupID: "g"},
	}

	got, err := c.GetProofs(context.Background(), handles)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "id-a", got[0].HashIDNode)
	assert.Equal(t, "eyJmYWtlIjoicHJvb2YifQ==", got[0].Proof)

	// Missing proofs degrade to a nil payload, not an error.
	assert.Equal(t, "missing", got[1].HashIDNode)
	assert.Nil(t, got[1].Proof)
}

func TestGetProofsValidation(t *testing.T) {
	c := newTestClient(t)

	_, err := c.GetProofs(context.Background(), nil)
	assert.ErrorIs(t, err, proof.ErrInvalidArgument)

	_, err = c.GetProofs(context.Background(), []proof.ProofHandle{{URI: "nope", HashIDNode: "x"}})
	assert.ErrorIs(t, err, ErrInvalidURI)
}
