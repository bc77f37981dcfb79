package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/nao1215/contactscan/internal/metrics"
	"github.com/nao1215/contactscan/internal/proxy"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Default values used when the corresponding option is not given.
const (
	// DefaultTimeout is the per-attempt request timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// maxRedirects stops redirect loops while allowing normal redirect chains.
	maxRedirects = 10
)

// SiteHeaders returns extra request headers for a host, typically a cookie
// and custom headers from the per-site configuration. It may return nil.
type SiteHeaders func(host string) http.Header

// Fetcher performs resilient HTTP GETs: bounded retries with backoff,
// round-robin proxies, and a randomized User-Agent per request.
// A Fetcher is safe for concurrent use.
type Fetcher struct {
	pool        *proxy.Pool
	transports  *proxy.Transports
	timeout     time.Duration
	maxBodySize int64
	siteHeaders SiteHeaders
	limiters    *hostLimiters
	recorder    *metrics.Recorder
	logger      *slog.Logger

	// sleep and jitter are replaced in tests to observe backoff without waiting.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(limit time.Duration) time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithProxyPool routes requests through the pool's endpoints in rotation.
func WithProxyPool(p *proxy.Pool) Option {
	return func(f *Fetcher) {
		f.pool = p
	}
}

// WithInsecureSkipVerify sets the TLS verification policy.
// Passing true accepts any server certificate.
func WithInsecureSkipVerify(insecure bool) Option {
	return func(f *Fetcher) {
		f.transports = proxy.NewTransports(insecure)
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxBodySize limits the number of body bytes read per response.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithCrawlDelay enforces a minimum interval between requests to the same
// host. Zero disables the limiter.
func WithCrawlDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.limiters = newHostLimiters(d)
	}
}

// WithSiteHeaders sets the per-host header provider.
func WithSiteHeaders(h SiteHeaders) Option {
	return func(f *Fetcher) {
		f.siteHeaders = h
	}
}

// WithMetrics records attempts, backoffs and outcomes on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(f *Fetcher) {
		f.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Fetcher. Without options it connects directly, skips TLS
// verification and applies no politeness delay.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		transports:  proxy.NewTransports(true),
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		limiters:    newHostLimiters(0),
		logger:      slog.Default(),
		sleep:       sleepContext,
		jitter:      randomJitter,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.pool == nil {
		f.pool = &proxy.Pool{}
	}
	return f
}

// CloseIdleConnections closes the idle keep-alive connections of every
// transport the fetcher has used.
func (f *Fetcher) CloseIdleConnections() {
	f.transports.CloseIdleConnections()
}

// Fetch GETs rawURL with up to retries attempts (at least one).
//
//   - HTTP 200 returns success immediately.
//   - HTTP 429 sleeps baseDelay*attempt*2 before the next attempt.
//   - Any other status or a transport error sleeps
//     baseDelay*2^(attempt-1) plus jitter before the next attempt.
//
// No sleep follows the final attempt. Cancelling ctx ends the fetch with a
// failure. Fetch never returns an error value; see Outcome.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, retries int, baseDelay time.Duration) Outcome {
	if retries < 1 {
		retries = 1
	}
	if baseDelay < 0 {
		baseDelay = 0
	}

	var out Outcome
	for attempt := 1; attempt <= retries; attempt++ {
		out.Attempts = attempt

		res, err := f.attempt(ctx, rawURL)
		f.recorder.ObserveAttempt(res.StatusCode)
		if err == nil {
			res.Attempts = attempt
			f.recorder.ObserveFetch(true)
			return res
		}
		out.StatusCode = res.StatusCode
		out.Err = err

		if ctx.Err() != nil {
			break
		}
		if attempt == retries {
			break
		}

		var delay time.Duration
		reason := "error"
		if res.StatusCode == http.StatusTooManyRequests {
			delay = rateLimitDelay(baseDelay, attempt)
			reason = "rate_limited"
		} else {
			delay = errorDelay(baseDelay, attempt, f.jitter)
		}

		f.logger.Debug("fetch attempt failed, backing off",
			"url", rawURL,
			"attempt", attempt,
			"status", res.StatusCode,
			"delay", delay,
			"error", err,
		)
		f.recorder.ObserveBackoff(reason, delay)

		if err := f.sleep(ctx, delay); err != nil {
			out.Err = err
			break
		}
	}

	f.recorder.ObserveFetch(false)
	if out.Err == nil {
		out.Err = ErrRetriesExhausted
	} else if !errors.Is(out.Err, context.Canceled) && !errors.Is(out.Err, context.DeadlineExceeded) {
		out.Err = fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, out.Attempts, out.Err)
	}
	f.logger.Debug("fetch failed", "url", rawURL, "attempts", out.Attempts, "error", out.Err)
	return out
}

// attempt performs a single GET. It returns a successful Outcome or the
// status (0 for transport errors) together with an error.
func (f *Fetcher) attempt(ctx context.Context, rawURL string) (Outcome, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Outcome{}, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	if err := f.limiters.wait(ctx, u.Host); err != nil {
		return Outcome{}, err
	}

	endpoint := f.pool.Next()
	transport, err := f.transports.For(endpoint)
	if err != nil {
		return Outcome{}, err
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   f.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Outcome{}, err
	}
	f.setHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return Outcome{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024)) //nolint:errcheck // Drain for connection reuse
		return Outcome{StatusCode: resp.StatusCode}, statusError(resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := readBody(resp.Body, contentType, f.maxBodySize)
	if err != nil {
		return Outcome{StatusCode: resp.StatusCode}, fmt.Errorf("failed to read body: %w", err)
	}

	return Outcome{
		OK:          true,
		Body:        body,
		FinalURL:    resp.Request.URL.String(),
		ContentType: contentType,
		StatusCode:  resp.StatusCode,
	}, nil
}

// setHeaders applies the client identity and any per-site headers.
func (f *Fetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgents[randomIndex(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	if f.siteHeaders == nil {
		return
	}
	for k, vs := range f.siteHeaders(req.URL.Hostname()) {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}

// readBody reads at most limit bytes and decodes them to UTF-8 using the
// Content-Type charset, a <meta> declaration, or content sniffing.
// Bytes that cannot be decoded are returned as they are.
func readBody(r io.Reader, contentType string, limit int64) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return "", err
	}

	enc, _, _ := charset.DetermineEncoding(raw, contentType)
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw), nil
	}
	return string(decoded), nil
}

// hostLimiters holds one token bucket per host.
type hostLimiters struct {
	mu    sync.Mutex
	every time.Duration
	m     map[string]*rate.Limiter
}

func newHostLimiters(every time.Duration) *hostLimiters {
	return &hostLimiters{every: every, m: make(map[string]*rate.Limiter)}
}

// wait blocks until a request to host is allowed. It is a no-op when no
// delay is configured.
func (h *hostLimiters) wait(ctx context.Context, host string) error {
	if h == nil || h.every <= 0 {
		return nil
	}

	h.mu.Lock()
	l, ok := h.m[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(h.every), 1)
		h.m[host] = l
	}
	h.mu.Unlock()

	return l.Wait(ctx)
}
