package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// Pool hands out proxy endpoints in round-robin order.
// It is created once per run and shared by every fetch, including the
// concurrent fetches of the retry pass.
//
// Design decision: The cursor is guarded by a mutex rather than an atomic
// counter because Add may grow the list while fetches are running (the
// embedded Tor endpoint arrives after startup), and the modulo must be taken
// against the length seen under the same lock.
type Pool struct {
	mu        sync.Mutex
	endpoints []*url.URL
	cursor    int
}

// NewPool parses and validates every endpoint. An empty list yields a pool
// whose Next always returns nil, meaning "connect directly".
func NewPool(endpoints []string) (*Pool, error) {
	p := &Pool{}
	for _, raw := range endpoints {
		if err := p.Add(raw); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Add validates raw and appends it to the rotation.
func (p *Pool) Add(raw string) error {
	u, err := ParseEndpoint(raw)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.endpoints = append(p.endpoints, u)
	return nil
}

// Next returns the endpoint under the cursor and advances the cursor.
// It returns nil when the pool is empty.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.endpoints) == 0 {
		return nil
	}
	u := p.endpoints[p.cursor%len(p.endpoints)]
	p.cursor = (p.cursor + 1) % len(p.endpoints)
	return u
}

// Len returns the number of endpoints in the rotation.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.endpoints)
}

// Endpoints returns the endpoints with passwords redacted, for display.
func (p *Pool) Endpoints() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.endpoints))
	for i, u := range p.endpoints {
		out[i] = u.Redacted()
	}
	return out
}

// Check runs the package-level Check on every endpoint and joins the
// failures. An empty pool always passes.
func (p *Pool) Check(ctx context.Context) error {
	p.mu.Lock()
	endpoints := append([]*url.URL(nil), p.endpoints...)
	p.mu.Unlock()

	var errs []error
	for _, u := range endpoints {
		if err := Check(ctx, u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ParseEndpoint parses a proxy endpoint of the form
// scheme://[user:pass@]host:port. A bare "host:port" is accepted as http.
func ParseEndpoint(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidEndpoint
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	if !isValidHostPort(u.Host) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, u.Redacted())
	}
	if u.Path != "" && u.Path != "/" {
		return nil, fmt.Errorf("%w: unexpected path in %q", ErrInvalidEndpoint, u.Redacted())
	}
	u.Path = ""

	return u, nil
}

// isValidHostPort checks that address is "host:port" with a non-empty host
// and a port between 1 and 65535.
func isValidHostPort(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}
