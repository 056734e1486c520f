// Package proof defines the canonical in-memory form of a calpoint proof
// and the operations that reduce it to per-anchor verification records.
//
// A proof is a branching Merkle-path tree: each branch groups zero or more
// anchors (claims that a digest is published in an external ledger) and zero
// or more child branches. Flattening walks that tree and produces one
// independent record per anchor, carrying full provenance.
package proof

import "time"

// Anchor type tags. The set is open; these are the values currently issued
// by the network.
const (
	AnchorCal  = "cal"  // calendar
	AnchorBtc  = "btc"  // bitcoin
	AnchorEth  = "eth"  // ethereum
	AnchorTCal = "tcal" // calendar testnet
	AnchorTBtc = "tbtc" // bitcoin testnet
)

// BtcAnchorBranchLabel marks the branch carrying a bitcoin transaction
// anchor inside a proof tree.
const BtcAnchorBranchLabel = "btc_anchor_branch"

// TypeTag is the discriminator value identifying an already-decoded proof
// object in heterogeneous input.
const TypeTag = "Chainpoint"

// Proof is the canonical decoded form of a timestamp proof.
type Proof struct {
	// Hash is the original content digest, hex encoded.
	Hash string `json:"hash"`

	// Identifiers assigned at submission time.
	HashIDNode string `json:"hash_id_node"`
	HashIDCore string `json:"hash_id_core"`

	// Submission timestamps, ISO-8601.
	HashSubmittedNodeAt string `json:"hash_submitted_node_at"`
	HashSubmittedCoreAt string `json:"hash_submitted_core_at"`

	// Branches are the top-level Merkle path segments, in aggregation
	// order. Order is preserved for deterministic output.
	Branches []Branch `json:"branches"`
}

// Branch is one node of the proof's Merkle-path tree.
type Branch struct {
	// Label names the branch (e.g. "cal_anchor_branch"); empty for
	// unlabeled top-level branches.
	Label string `json:"label,omitempty"`

	// RawBtcTx carries the raw bitcoin transaction payload on branches
	// labelled BtcAnchorBranchLabel, hex encoded.
	RawBtcTx string `json:"raw_btc_tx,omitempty"`

	Anchors  []Anchor `json:"anchors,omitempty"`
	Branches []Branch `json:"branches,omitempty"`
}

// Anchor is a single verifiable claim: a digest published at a specific
// location in an external ledger.
type Anchor struct {
	Type string `json:"type"`

	// AnchorID is the external reference, e.g. a block height or a
	// calendar transaction id.
	AnchorID string `json:"anchor_id"`

	// URIs are candidate retrieval endpoints for the authoritative value.
	// Only the first is consulted by current verification logic.
	URIs []string `json:"uris,omitempty"`

	// ExpectedValue is the Merkle root (or equivalent digest) this proof
	// claims is anchored, hex encoded.
	ExpectedValue string `json:"expected_value"`
}

// FlatProofAnchor is one verification obligation produced by flattening:
// the owning proof's identity fields plus one anchor's fields plus the
// immediate parent branch label. Records are independently owned; the
// verifier fills Verified and VerifiedAt after comparison.
type FlatProofAnchor struct {
	Hash                string `json:"hash"`
	HashIDNode          string `json:"hash_id_node"`
	HashIDCore          string `json:"hash_id_core"`
	HashSubmittedNodeAt string `json:"hash_submitted_node_at"`
	HashSubmittedCoreAt string `json:"hash_submitted_core_at"`

	// Branch is the label of the anchor's immediate parent branch; empty
	// for anchors under an unlabeled branch.
	Branch string `json:"branch,omitempty"`

	URI           string `json:"uri"`
	Type          string `json:"type"`
	AnchorID      string `json:"anchor_id"`
	ExpectedValue string `json:"expected_value"`

	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at"`
}

// BtcRecord is the best-effort result of extracting a proof's bitcoin
// anchor branch. Only HashIDNode is always populated; callers must check
// the optional fields rather than rely on errors.
type BtcRecord struct {
	HashIDNode    string `json:"hash_id_node"`
	RawBtcTx      string `json:"raw_btc_tx,omitempty"`
	ExpectedValue string `json:"expected_value,omitempty"`
	AnchorID      string `json:"anchor_id,omitempty"`
}

// ProofHandle correlates a submitted hash with the node that accepted it.
// Returned by submission, consumed by proof retrieval.
type ProofHandle struct {
	URI        string `json:"uri"`
	Hash       string `json:"hash"`
	HashIDNode string `json:"hash_id_node"`
	GroupID    string `json:"group_id"`
}
