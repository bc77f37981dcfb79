package tor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/tornago"
)

// DefaultStartupTimeout is the bootstrap limit used when none is configured.
const DefaultStartupTimeout = 3 * time.Minute

// EndpointAdder receives the daemon's proxy endpoint.
// *proxy.Pool satisfies it.
type EndpointAdder interface {
	Add(raw string) error
}

// EmbeddedTor manages an embedded Tor daemon using tornago.
//
// Design decision: We bind both listeners to ":0" and read the chosen
// addresses back because:
//  1. Several contactscan runs can share a machine without port clashes
//  2. A system Tor already on 9050 is left alone
//
// Note: Starting the embedded Tor daemon takes 1-3 minutes as it needs to
// download directory information and build initial circuits.
type EmbeddedTor struct {
	mu sync.Mutex

	// process is the running Tor daemon process.
	process *tornago.TorProcess

	// socksAddr is the SOCKS5 listener address (set after successful startup).
	socksAddr string

	// controlAddr is the control port address (set after successful startup).
	controlAddr string

	// startupTimeout is the maximum time to wait for Tor to bootstrap.
	startupTimeout time.Duration
}

// EmbeddedTorOption configures an EmbeddedTor instance.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
// Non-positive values keep the default.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		if timeout > 0 {
			e.startupTimeout = timeout
		}
	}
}

// NewEmbeddedTor creates a new embedded Tor manager.
// Call Start to launch the daemon.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{
		startupTimeout: DefaultStartupTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Start launches the daemon and blocks until it has bootstrapped, the
// startup timeout passes, or ctx is cancelled.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	type started struct {
		process *tornago.TorProcess
		err     error
	}
	done := make(chan started, 1)
	go func() {
		p, err := tornago.StartTorDaemon(launchCfg)
		done <- started{process: p, err: err}
	}()

	var s started
	select {
	case s = <-done:
	case <-ctx.Done():
		go func() {
			if r := <-done; r.process != nil {
				_ = r.process.Stop() //nolint:errcheck // Abandoned daemon
			}
		}()
		return ctx.Err()
	}
	if s.err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", s.err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.process = s.process
	e.socksAddr = s.process.SocksAddr()
	e.controlAddr = s.process.ControlAddr()

	return nil
}

// Stop shuts the daemon down. It is safe to call on an unstarted instance
// and more than once.
func (e *EmbeddedTor) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.process == nil {
		return nil
	}

	err := e.process.Stop()
	e.process = nil
	e.socksAddr = ""
	e.controlAddr = ""
	return err
}

// SocksAddr returns the "host:port" of the SOCKS5 listener, or "" when the
// daemon is not running.
func (e *EmbeddedTor) SocksAddr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.socksAddr
}

// ControlAddr returns the control port address, or "" when the daemon is
// not running.
func (e *EmbeddedTor) ControlAddr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.controlAddr
}

// IsRunning reports whether the daemon is running.
func (e *EmbeddedTor) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.process != nil
}

// ProxyURL returns the daemon's listener as a proxy endpoint.
func (e *EmbeddedTor) ProxyURL() (string, error) {
	if !e.IsRunning() {
		return "", ErrNotRunning
	}
	return socksEndpoint(e.SocksAddr())
}

// Register adds the daemon's endpoint to pool.
func (e *EmbeddedTor) Register(pool EndpointAdder) error {
	endpoint, err := e.ProxyURL()
	if err != nil {
		return err
	}
	if err := pool.Add(endpoint); err != nil {
		return fmt.Errorf("failed to register Tor endpoint: %w", err)
	}
	return nil
}

// socksEndpoint converts a listener address into a socks5h URL so that
// hostnames are resolved by Tor rather than locally.
// tornago may report a wildcard host for ":0" listeners; those are
// rewritten to loopback.
func socksEndpoint(addr string) (string, error) {
	if addr == "" {
		return "", ErrNoSocksAddr
	}
	switch {
	case strings.HasPrefix(addr, ":"):
		addr = "127.0.0.1" + addr
	case strings.HasPrefix(addr, "0.0.0.0:"):
		addr = "127.0.0.1" + strings.TrimPrefix(addr, "0.0.0.0")
	case strings.HasPrefix(addr, "[::]:"):
		addr = "[::1]" + strings.TrimPrefix(addr, "[::]")
	}
	return "socks5h://" + addr, nil
}
