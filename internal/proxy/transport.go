package proxy

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/proxy"
)

// checkTimeout is the timeout for checking if a proxy accepts connections.
// We use a short timeout here because this is just a connectivity check,
// not an actual request through the proxy.
const checkTimeout = 2 * time.Second

// dialTimeout bounds the TCP connect to a target or to a proxy.
const dialTimeout = 10 * time.Second

// Transports builds and caches one http.Transport per proxy endpoint plus
// one for direct connections, so keep-alive connections are reused across
// fetches that land on the same proxy.
//
// Design decision: We keep the transports here, next to the endpoint parsing,
// rather than in the fetcher, because SOCKS endpoints need a custom dialer
// while HTTP endpoints only need Transport.Proxy, and the fetcher should not
// care which one it got.
type Transports struct {
	mu       sync.Mutex
	insecure bool
	byKey    map[string]*http.Transport
}

// NewTransports creates an empty transport cache. insecure disables TLS
// certificate verification on every transport it builds.
func NewTransports(insecure bool) *Transports {
	return &Transports{
		insecure: insecure,
		byKey:    make(map[string]*http.Transport),
	}
}

// For returns the transport for the given endpoint; nil means direct.
func (t *Transports) For(endpoint *url.URL) (*http.Transport, error) {
	key := ""
	if endpoint != nil {
		key = endpoint.String()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if tr, ok := t.byKey[key]; ok {
		return tr, nil
	}
	tr, err := NewTransport(endpoint, t.insecure)
	if err != nil {
		return nil, err
	}
	t.byKey[key] = tr
	return tr, nil
}

// CloseIdleConnections closes idle connections on every cached transport.
func (t *Transports) CloseIdleConnections() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tr := range t.byKey {
		tr.CloseIdleConnections()
	}
}

// NewTransport creates an http.Transport that routes through endpoint.
// HTTP and HTTPS proxies are set with http.ProxyURL and apply to both http
// and https targets; SOCKS5 proxies replace the dialer. A nil endpoint
// yields a direct transport.
func NewTransport(endpoint *url.URL, insecure bool) (*http.Transport, error) {
	base := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}

	transport := &http.Transport{
		DialContext: base.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: insecure, //nolint:gosec // Configurable policy, see Config.InsecureSkipVerify
		},
		TLSHandshakeTimeout: dialTimeout,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	if endpoint == nil {
		return transport, nil
	}

	switch endpoint.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(endpoint)
	case "socks5", "socks5h":
		d, err := proxy.FromURL(endpoint, base)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer for %s: %w", endpoint.Redacted(), err)
		}
		transport.DialContext = contextDialer(d)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, endpoint.Scheme)
	}

	return transport, nil
}

// contextDialer adapts a proxy.Dialer to the DialContext signature.
// The SOCKS5 dialer from x/net implements proxy.ContextDialer; for any other
// dialer we dial in a goroutine and stop waiting when the context ends. The
// underlying connection attempt may then continue briefly, which is the
// known limitation of that fallback.
func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		resultCh := make(chan dialResult, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			resultCh <- dialResult{conn, err}
		}()

		select {
		case result := <-resultCh:
			return result.conn, result.err
		case <-ctx.Done():
			go func() {
				if r := <-resultCh; r.conn != nil {
					_ = r.conn.Close() //nolint:errcheck // Abandoned connection
				}
			}()
			return nil, ctx.Err()
		}
	}
}

// Check checks that the proxy accepts TCP connections.
// It does not speak the proxy protocol; a listening port is enough to
// catch typos and dead endpoints before a crawl starts.
func Check(ctx context.Context, endpoint *url.URL) error {
	if endpoint == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", endpoint.Host)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s: timeout", ErrProxyUnreachable, endpoint.Redacted())
		}
		return fmt.Errorf("%w: %s: %w", ErrProxyUnreachable, endpoint.Redacted(), err)
	}
	return conn.Close()
}
