package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"strings"

	"calpoint/pkg/codec"
	"calpoint/pkg/proof"
)

// Evaluate runs the pure proof pipeline: normalize, decode each proof,
// flatten. No network access and no side effects; identical input yields
// identical output.
func Evaluate(proofs []any) ([]proof.FlatProofAnchor, error) {
	normalized, err := proof.Normalize(proofs)
	if err != nil {
		return nil, err
	}

	parsed := make([]*proof.Proof, 0, len(normalized))
	for i, raw := range normalized {
		p, err := codec.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("proof at index %d: %w", i, err)
		}
		parsed = append(parsed, p)
	}

	return proof.Flatten(parsed)
}

// Evaluate is the method form of the package-level Evaluate; the pipeline
// needs nothing from the client.
func (c *Client) Evaluate(proofs []any) ([]proof.FlatProofAnchor, error) {
	return Evaluate(proofs)
}

// Verify evaluates the given proofs and checks every flattened record
// against authoritative values served by one trusted endpoint.
//
// When trustedURI is empty, one node is chosen at random from the
// configured NodeURIs, falling back to discovery.
// Every record's URI is rewritten onto the trusted endpoint (keeping the
// record's original path), so verification never queries an endpoint the
// proof itself suggested. Identical records are collapsed before the
// lookups; one GET is issued per distinct rewritten URI with bounded
// concurrency. A record verifies when its expected value matches a value
// the trusted endpoint returned for its URI.
//
// Individual lookup failures degrade to unverified records; a batch that
// produces no usable values at all fails with ErrNoHashesFound.
func (c *Client) Verify(ctx context.Context, proofs []any, trustedURI string) ([]proof.FlatProofAnchor, error) {
	records, err := Evaluate(proofs)
	if err != nil {
		return nil, err
	}

	endpoint, err := c.resolveTrustedEndpoint(ctx, trustedURI)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("verifying against trusted endpoint", "endpoint", endpoint, "records", len(records))

	records, err = rewriteToEndpoint(records, endpoint)
	if err != nil {
		return nil, err
	}
	records = dedupeRecords(records)

	uris := distinctURIs(records)
	values := make([][]string, len(uris))
	fanOut(ctx, len(uris), c.cfg.MaxConcurrent, func(ctx context.Context, i int) {
		body, err := c.transport.Get(ctx, uris[i])
		if err != nil {
			// A failed lookup leaves that record unverified; only a
			// fully empty batch is fatal.
			c.logger.Warn("trusted value lookup failed", "uri", uris[i], "error", err)
			return
		}
		values[i] = parseValues(body)
	})

	total := 0
	valuesByURI := make(map[string][]string, len(uris))
	for i, uri := range uris {
		valuesByURI[uri] = values[i]
		total += len(values[i])
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: trusted endpoint %s returned no values", ErrNoHashesFound, endpoint)
	}

	now := c.now()
	for i := range records {
		if containsValue(valuesByURI[records[i].URI], records[i].ExpectedValue) {
			records[i].Verified = true
			t := now
			records[i].VerifiedAt = &t
		} else {
			records[i].Verified = false
			records[i].VerifiedAt = nil
		}
	}

	if c.store != nil {
		if err := c.store.SaveReceipts(records); err != nil {
			c.logger.Warn("failed to persist verification receipts", "error", err)
		}
	}

	return records, nil
}

// resolveTrustedEndpoint validates the caller-supplied endpoint or picks
// one discovered node. The choice is held for this call only.
func (c *Client) resolveTrustedEndpoint(ctx context.Context, trustedURI string) (string, error) {
	if trustedURI != "" {
		if !validEndpointURI(trustedURI) {
			return "", fmt.Errorf("%w: %s", ErrInvalidURI, trustedURI)
		}
		return strings.TrimSuffix(trustedURI, "/"), nil
	}

	if len(c.cfg.NodeURIs) > 0 {
		pick := c.cfg.NodeURIs[rand.Intn(len(c.cfg.NodeURIs))]
		if !validEndpointURI(pick) {
			return "", fmt.Errorf("%w: %s", ErrInvalidURI, pick)
		}
		return strings.TrimSuffix(pick, "/"), nil
	}

	nodes, err := c.discovery.Nodes(ctx, 1)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(nodes[0], "/"), nil
}

// rewriteToEndpoint points every record at the trusted endpoint, keeping
// each record's original path component.
func rewriteToEndpoint(records []proof.FlatProofAnchor, endpoint string) ([]proof.FlatProofAnchor, error) {
	out := make([]proof.FlatProofAnchor, len(records))
	for i, rec := range records {
		u, err := url.Parse(rec.URI)
		if err != nil {
			return nil, fmt.Errorf("%w: anchor uri %q: %v", proof.ErrMalformedProof, rec.URI, err)
		}
		rec.URI = endpoint + u.Path
		out[i] = rec
	}
	return out, nil
}

// dedupeRecords collapses records identical in all fields, preserving
// first-seen order. Multiple anchors can share one lookup path.
func dedupeRecords(records []proof.FlatProofAnchor) []proof.FlatProofAnchor {
	seen := make(map[proof.FlatProofAnchor]struct{}, len(records))
	out := records[:0]
	for _, rec := range records {
		if _, ok := seen[rec]; ok {
			continue
		}
		seen[rec] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// distinctURIs returns the unique record URIs in first-seen order.
func distinctURIs(records []proof.FlatProofAnchor) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for _, rec := range records {
		if _, ok := seen[rec.URI]; ok {
			continue
		}
		seen[rec.URI] = struct{}{}
		out = append(out, rec.URI)
	}
	return out
}

// parseValues extracts anchor values from a trusted endpoint response.
// Endpoints answer with a JSON array of hex strings, a JSON object with a
// "hash" field, a bare JSON string, or plain text.
func parseValues(body []byte) []string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}

	var arr []string
	if err := json.Unmarshal(body, &arr); err == nil {
		return nonEmpty(arr)
	}
	var obj struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(body, &obj); err == nil && obj.Hash != "" {
		return []string{obj.Hash}
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return nonEmpty([]string{s})
	}
	return []string{trimmed}
}

func nonEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsValue(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
