package proof

import "fmt"

// Flatten walks each parsed proof's branch tree depth-first in pre-order
// and produces one FlatProofAnchor per anchor leaf. A branch's own anchors
// appear strictly before any descendant branch's anchors; sibling branches
// keep their listed order; records from distinct proofs keep input order.
//
// A proof with no branches contributes nothing. The traversal uses an
// explicit work stack, so tree depth is not bounded by the goroutine stack.
func Flatten(parsed []*Proof) ([]FlatProofAnchor, error) {
	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w: parsed proofs must be a non-empty sequence", ErrInvalidArgument)
	}

	var out []FlatProofAnchor
	for i, p := range parsed {
		if p == nil {
			return nil, fmt.Errorf("%w: proof at index %d is nil", ErrMalformedProof, i)
		}
		recs, err := flattenBranches(p)
		if err != nil {
			return nil, fmt.Errorf("proof at index %d: %w", i, err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

// frame is one pending branch on the traversal work stack.
type frame struct {
	branch *Branch
}

func flattenBranches(p *Proof) ([]FlatProofAnchor, error) {
	var out []FlatProofAnchor

	// Seed the stack with the top-level branches reversed so they pop in
	// listed order. Children are pushed the same way, which yields
	// pre-order: a branch's anchors, then its subtree, then its sibling.
	stack := make([]frame, 0, len(p.Branches))
	for i := len(p.Branches) - 1; i >= 0; i-- {
		stack = append(stack, frame{branch: &p.Branches[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b := f.branch

		for j := range b.Anchors {
			a := &b.Anchors[j]
			if len(a.URIs) == 0 {
				return nil, fmt.Errorf("%w: anchor %q in branch %q has no uris",
					ErrMalformedProof, a.Type, b.Label)
			}
			out = append(out, FlatProofAnchor{
				Hash:                p.Hash,
				HashIDNode:          p.HashIDNode,
				HashIDCore:          p.HashIDCore,
				HashSubmittedNodeAt: p.HashSubmittedNodeAt,
				HashSubmittedCoreAt: p.HashSubmittedCoreAt,
				Branch:              b.Label,
				URI:                 a.URIs[0],
				Type:                a.Type,
				AnchorID:            a.AnchorID,
				ExpectedValue:       a.ExpectedValue,
			})
		}

		for i := len(b.Branches) - 1; i >= 0; i-- {
			stack = append(stack, frame{branch: &b.Branches[i]})
		}
	}

	return out, nil
}

// FlattenBtcBranches extracts each proof's bitcoin anchor branch. For every
// proof it scans the immediate child branches for a nested branch labelled
// BtcAnchorBranchLabel and copies its raw transaction and its btc anchor's
// expected value and anchor id.
//
// Unlike Flatten this never fails: a proof without a bitcoin branch still
// yields a record carrying only its HashIDNode. Bitcoin anchoring is
// best-effort per proof, so callers check field presence, not errors.
func FlattenBtcBranches(parsed []*Proof) []BtcRecord {
	out := make([]BtcRecord, 0, len(parsed))
	for _, p := range parsed {
		if p == nil {
			continue
		}
		rec := BtcRecord{HashIDNode: p.HashIDNode}
		if btc := findBtcBranch(p.Branches); btc != nil {
			rec.RawBtcTx = btc.RawBtcTx
			for i := range btc.Anchors {
				if btc.Anchors[i].Type == AnchorBtc {
					rec.ExpectedValue = btc.Anchors[i].ExpectedValue
					rec.AnchorID = btc.Anchors[i].AnchorID
					break
				}
			}
		}
		out = append(out, rec)
	}
	return out
}

// findBtcBranch looks one level below the given branches for a child
// labelled BtcAnchorBranchLabel.
func findBtcBranch(branches []Branch) *Branch {
	for i := range branches {
		for j := range branches[i].Branches {
			if branches[i].Branches[j].Label == BtcAnchorBranchLabel {
				return &branches[i].Branches[j]
			}
		}
	}
	return nil
}
