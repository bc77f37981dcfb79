package tor

import "errors"

// Embedded daemon errors.
var (
	// ErrNotRunning is returned when the daemon's endpoint is requested
	// before Start succeeded or after Stop.
	ErrNotRunning = errors.New("embedded Tor daemon is not running")

	// ErrNoSocksAddr is returned when the daemon started but did not report
	// a SOCKS listener.
	ErrNoSocksAddr = errors.New("embedded Tor daemon reported no SOCKS address")
)
