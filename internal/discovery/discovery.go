// Package discovery locates core and node endpoints. Cores are published
// as DNS TXT records under a seed domain; nodes are listed by any core
// over HTTP. Both services are treated as opaque: discovery returns
// endpoint URIs and nothing else.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/url"
	"strings"

	"calpoint/internal/transport"
)

// DefaultSeedDomain is the TXT record domain listing core IPs.
const DefaultSeedDomain = "seed.calpoint.org"

// ErrNoEndpoints reports that discovery produced no usable endpoint.
var ErrNoEndpoints = errors.New("discovery: no endpoints available")

// Resolver performs DNS TXT lookups. Satisfied by *net.Resolver; swapped
// for a stub in tests.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// Service discovers core and node endpoints.
type Service struct {
	seedDomain string
	resolver   Resolver
	transport  *transport.Client
	logger     *slog.Logger
}

// New creates a discovery service. Empty seedDomain falls back to
// DefaultSeedDomain; nil resolver falls back to net.DefaultResolver.
func New(seedDomain string, resolver Resolver, tc *transport.Client, logger *slog.Logger) *Service {
	if seedDomain == "" {
		seedDomain = DefaultSeedDomain
	}
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		seedDomain: seedDomain,
		resolver:   resolver,
		transport:  tc,
		logger:     logger,
	}
}

// Cores returns up to max core URIs from the seed domain's TXT records,
// shuffled so repeated calls spread load.
func (s *Service) Cores(ctx context.Context, max int) ([]string, error) {
	records, err := s.resolver.LookupTXT(ctx, s.seedDomain)
	if err != nil {
		return nil, fmt.Errorf("discovery: lookup %s: %w", s.seedDomain, err)
	}

	var uris []string
	for _, rec := range records {
		for _, field := range strings.Fields(rec) {
			if u := coreURI(field); u != "" {
				uris = append(uris, u)
			}
		}
	}
	if len(uris) == 0 {
		return nil, fmt.Errorf("%w: no core records under %s", ErrNoEndpoints, s.seedDomain)
	}

	rand.Shuffle(len(uris), func(i, j int) { uris[i], uris[j] = uris[j], uris[i] })
	if max > 0 && len(uris) > max {
		uris = uris[:max]
	}
	return uris, nil
}

// nodeListing is the core's node discovery response.
type nodeListing struct {
	PublicURI string `json:"public_uri"`
}

// Nodes returns up to max node URIs, asking each discovered core in turn
// until one answers.
func (s *Service) Nodes(ctx context.Context, max int) ([]string, error) {
	cores, err := s.Cores(ctx, 0)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, core := range cores {
		var listing []nodeListing
		if err := s.transport.GetJSON(ctx, core+"/nodes/random", &listing); err != nil {
			s.logger.Debug("node listing failed", "core", core, "error", err)
			lastErr = err
			continue
		}

		var uris []string
		for _, n := range listing {
			if isHTTPURI(n.PublicURI) {
				uris = append(uris, n.PublicURI)
			}
		}
		if len(uris) == 0 {
			continue
		}
		if max > 0 && len(uris) > max {
			uris = uris[:max]
		}
		return uris, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: all cores failed, last error: %v", ErrNoEndpoints, lastErr)
	}
	return nil, fmt.Errorf("%w: cores returned no usable nodes", ErrNoEndpoints)
}

// coreURI converts a TXT record field to a core base URI. Records carry
// either bare IPs or full URIs.
func coreURI(field string) string {
	if isHTTPURI(field) {
		return strings.TrimSuffix(field, "/")
	}
	if ip := net.ParseIP(field); ip != nil {
		return "http://" + field
	}
	return ""
}

// isHTTPURI reports whether s is an absolute http(s) URI with a host.
func isHTTPURI(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
