// Package client is the public entry point of the calpoint library. It
// composes the proof pipeline (normalize, decode, flatten) with hash
// submission, proof retrieval, and trust-minimized verification against a
// single deliberately chosen endpoint.
package client

import (
	"errors"
	"log/slog"
	"net/url"
	"time"

	"calpoint/internal/discovery"
	"calpoint/internal/store"
	"calpoint/internal/transport"
)

// Verification and submission errors.
var (
	// ErrInvalidURI reports a caller-supplied endpoint that fails URI
	// validation.
	ErrInvalidURI = errors.New("client: invalid uri")

	// ErrNoHashesFound reports a verification whose trusted retrieval
	// batch produced nothing usable. Distinct from per-record mismatch.
	ErrNoHashesFound = errors.New("client: no hashes found")
)

// DefaultMaxConcurrent bounds in-flight requests within one fan-out batch.
const DefaultMaxConcurrent = 25

// Config carries all client collaborators and tunables explicitly; there
// is no package-level state.
type Config struct {
	// SeedDomain overrides the DNS TXT domain used for core discovery.
	SeedDomain string

	// NodeURIs pins submission to fixed nodes instead of discovery.
	NodeURIs []string

	// Timeout bounds each individual network request.
	Timeout time.Duration

	// MaxConcurrent caps in-flight requests per fan-out batch.
	MaxConcurrent int

	// Resolver overrides DNS lookups (tests).
	Resolver discovery.Resolver

	// Store, when set, persists submission handles and verification
	// receipts.
	Store *store.Store

	Logger *slog.Logger
}

// Client submits hashes, retrieves proofs, and verifies them.
type Client struct {
	cfg       Config
	transport *transport.Client
	discovery *discovery.Service
	store     *store.Store
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a client from an explicit configuration.
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	tc := transport.New(cfg.Timeout, logger)
	return &Client{
		cfg:       cfg,
		transport: tc,
		discovery: discovery.New(cfg.SeedDomain, cfg.Resolver, tc, logger),
		store:     cfg.Store,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// validEndpointURI reports whether s is an absolute http(s) URI with a
// host and no path, i.e. a bare endpoint.
func validEndpointURI(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}
	return u.Path == "" || u.Path == "/"
}
