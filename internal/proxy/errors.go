package proxy

import "errors"

// Proxy configuration errors.
//
// Design decision: We define specific sentinel errors rather than wrapping
// all errors generically, so the CLI can tell a typo in a proxy list apart
// from a proxy that is merely down.
var (
	// ErrInvalidEndpoint is returned when a proxy string cannot be parsed or
	// lacks a host or a valid port. Expected form is scheme://[user:pass@]host:port.
	ErrInvalidEndpoint = errors.New("invalid proxy endpoint: expected scheme://[user:pass@]host:port")

	// ErrUnsupportedScheme is returned for schemes other than http, https,
	// socks5 and socks5h.
	ErrUnsupportedScheme = errors.New("unsupported proxy scheme: use http, https, socks5 or socks5h")

	// ErrProxyUnreachable is returned by Check when no TCP connection to the
	// proxy could be established.
	ErrProxyUnreachable = errors.New("proxy unreachable")
)
