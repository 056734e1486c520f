package client

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"calpoint/pkg/proof"
)

// hexHashPattern matches the digests the network accepts: 20 to 64 bytes,
// hex encoded.
var hexHashPattern = regexp.MustCompile(`^([a-fA-F0-9]{2}){20,64}$`)

// submitResponse is a node's answer to a hash submission.
type submitResponse struct {
	Hashes []struct {
		HashIDNode string `json:"hash_id_node"`
		Hash       string `json:"hash"`
	} `json:"hashes"`
}

// SubmitHashes posts the given content hashes to each node and returns
// one ProofHandle per accepted hash per node. Handles from the same node
// submission share a group id.
//
// When nodeURIs is empty, the configured NodeURIs are used, falling back
// to discovery. Submission is all-or-nothing: a failing node fails the
// call.
func (c *Client) SubmitHashes(ctx context.Context, hashes, nodeURIs []string) ([]proof.ProofHandle, error) {
	if len(hashes) == 0 {
		return nil, fmt.Errorf("%w: hashes must be a non-empty sequence", proof.ErrInvalidArgument)
	}
	var badHashes []string
	for _, h := range hashes {
		if !hexHashPattern.MatchString(h) {
			badHashes = append(badHashes, h)
		}
	}
	if len(badHashes) > 0 {
		return nil, fmt.Errorf("%w: hashes are not valid hex digests: %s",
			proof.ErrInvalidArgument, strings.Join(badHashes, ", "))
	}

	nodes, err := c.submissionNodes(ctx, nodeURIs)
	if err != nil {
		return nil, err
	}

	var handles []proof.ProofHandle
	for _, node := range nodes {
		groupID, err := newGroupID()
		if err != nil {
			return nil, err
		}

		var resp submitResponse
		if err := c.transport.PostJSON(ctx, node+"/hashes", map[string][]string{"hashes": hashes}, &resp); err != nil {
			return nil, fmt.Errorf("submit to %s: %w", node, err)
		}

		for _, h := range resp.Hashes {
			handles = append(handles, proof.ProofHandle{
				URI:        node,
				Hash:       h.Hash,
				HashIDNode: h.HashIDNode,
				GroupID:    groupID,
			})
		}
	}

	if c.store != nil {
		if err := c.store.SaveHandles(handles); err != nil {
			c.logger.Warn("failed to persist proof handles", "error", err)
		}
	}

	return handles, nil
}

// HandleProof pairs a submission handle with its retrieved proof payload.
// Proof is nil when the node no longer holds one (retention window).
type HandleProof struct {
	HashIDNode string `json:"hash_id_node"`
	Proof      any    `json:"proof"`
}

// proofResponse is a node's answer to a proof retrieval.
type proofResponse []struct {
	HashIDNode string `json:"hash_id_node"`
	Proof      any    `json:"proof"`
}

// GetProofs retrieves the proof for each handle from the node that issued
// it. Lookups fan out with bounded concurrency; results keep handle order.
// A handle whose proof is not yet (or no longer) available yields a nil
// Proof, not an error.
func (c *Client) GetProofs(ctx context.Context, handles []proof.ProofHandle) ([]HandleProof, error) {
	if len(handles) == 0 {
		return nil, fmt.Errorf("%w: handles must be a non-empty sequence", proof.ErrInvalidArgument)
	}
	var badURIs []string
	for _, h := range handles {
		if !validEndpointURI(h.URI) {
			badURIs = append(badURIs, h.URI)
		}
	}
	if len(badURIs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURI, strings.Join(badURIs, ", "))
	}

	out := make([]HandleProof, len(handles))
	fanOut(ctx, len(handles), c.cfg.MaxConcurrent, func(ctx context.Context, i int) {
		h := handles[i]
		out[i] = HandleProof{HashIDNode: h.HashIDNode}

		var resp proofResponse
		uri := strings.TrimSuffix(h.URI, "/") + "/proofs/" + h.HashIDNode
		if err := c.transport.GetJSON(ctx, uri, &resp); err != nil {
			c.logger.Debug("proof retrieval failed", "hash_id_node", h.HashIDNode, "error", err)
			return
		}
		for _, entry := range resp {
			if entry.HashIDNode == h.HashIDNode {
				out[i].Proof = entry.Proof
				return
			}
		}
	})

	return out, nil
}

// submissionNodes resolves the target nodes for a submission.
func (c *Client) submissionNodes(ctx context.Context, nodeURIs []string) ([]string, error) {
	nodes := nodeURIs
	if len(nodes) == 0 {
		nodes = c.cfg.NodeURIs
	}
	if len(nodes) == 0 {
		discovered, err := c.discovery.Nodes(ctx, 3)
		if err != nil {
			return nil, err
		}
		nodes = discovered
	}

	var badURIs []string
	cleaned := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if !validEndpointURI(n) {
			badURIs = append(badURIs, n)
			continue
		}
		cleaned = append(cleaned, strings.TrimSuffix(n, "/"))
	}
	if len(badURIs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURI, strings.Join(badURIs, ", "))
	}
	return cleaned, nil
}

// newGroupID generates a random correlation id for one node submission.
func newGroupID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("client: generate group id: %w", err)
	}
	// RFC 4122 version 4 layout.
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	id := hex.EncodeToString(b[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", id[0:8], id[8:12], id[12:16], id[16:20], id[20:32]), nil
}
