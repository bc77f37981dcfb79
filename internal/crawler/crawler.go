package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/contactscan/internal/extract"
	"github.com/nao1215/contactscan/internal/fetcher"
	"github.com/nao1215/contactscan/internal/metrics"
	"github.com/nao1215/contactscan/internal/model"
)

// Defaults used when the corresponding option is not given.
const (
	DefaultRetries   = 3
	DefaultBaseDelay = 2 * time.Second
)

// PageFetcher fetches one URL with bounded retries.
// *fetcher.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, retries int, baseDelay time.Duration) fetcher.Outcome
}

// CompletionStore records which sites are done.
// *session.Store implements it.
type CompletionStore interface {
	IsCompleted(rawURL string) bool
	MarkCompleted(ctx context.Context, rawURL string) error
	MarkFailed(ctx context.Context, rawURLs ...string) error
}

// IgnoreRules returns glob patterns for paths that must not be crawled on host.
type IgnoreRules func(host string) []string

// Crawler harvests contact details from websites, one site per Crawl call.
//
// A Crawler is safe for concurrent use: each Crawl owns its own traversal
// state, and only the failed-URL set is shared between calls.
//
// Design decision: We keep the failed set on the Crawler rather than in
// each session because the retry pass needs the union over every site
// crawled by the run, including sites crawled concurrently.
type Crawler struct {
	fetcher     PageFetcher
	store       CompletionStore
	extractor   *extract.Extractor
	prioritizer *Prioritizer
	ignore      IgnoreRules
	recorder    *metrics.Recorder
	logger      *slog.Logger
	retries     int
	baseDelay   time.Duration

	mu     sync.Mutex
	failed map[string]struct{}
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithStore enables the completion guard and completion marking.
func WithStore(s CompletionStore) Option {
	return func(c *Crawler) {
		c.store = s
	}
}

// WithExtractor sets the content extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(c *Crawler) {
		if e != nil {
			c.extractor = e
		}
	}
}

// WithPrioritizer sets the link prioritizer.
func WithPrioritizer(p *Prioritizer) Option {
	return func(c *Crawler) {
		if p != nil {
			c.prioritizer = p
		}
	}
}

// WithIgnoreRules sets per-host path patterns to skip.
func WithIgnoreRules(r IgnoreRules) Option {
	return func(c *Crawler) {
		c.ignore = r
	}
}

// WithRetries sets the attempts per page and the base backoff delay.
func WithRetries(retries int, baseDelay time.Duration) Option {
	return func(c *Crawler) {
		if retries > 0 {
			c.retries = retries
		}
		if baseDelay >= 0 {
			c.baseDelay = baseDelay
		}
	}
}

// WithMetrics records pages, contacts and sessions on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Crawler) {
		c.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Crawler that fetches pages through f.
func New(f PageFetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:     f,
		extractor:   extract.New(),
		prioritizer: NewPrioritizer(),
		logger:      slog.Default(),
		retries:     DefaultRetries,
		baseDelay:   DefaultBaseDelay,
		failed:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result describes one finished crawl session.
type Result struct {
	// Root is the normalized root URL that was crawled.
	Root string

	// Bundle holds the harvested contacts.
	Bundle model.ContactBundle

	// Emails holds every harvested address with category and confidence,
	// in the same order as Bundle.Emails.
	Emails []model.Email

	// RootFetched reports whether the root page itself was retrieved.
	RootFetched bool

	// Skipped reports that the root was already completed and nothing ran.
	Skipped bool

	// Interrupted reports that the context expired before the traversal
	// finished. The bundle is partial and the site is recorded as failed.
	Interrupted bool

	// PagesVisited counts pages fetched successfully.
	PagesVisited int

	// FailedPages lists pages whose fetch failed, in traversal order.
	FailedPages []string
}

// Crawl harvests contacts from the site at root, fetching at most maxPages
// levels deep. It never fails: an unreachable site yields an empty bundle and
// its URL lands in the failed set.
func (c *Crawler) Crawl(ctx context.Context, root string, maxPages int) model.ContactBundle {
	return c.Run(ctx, root, maxPages).Bundle
}

// Run is Crawl with the full session result.
//
// The traversal is depth-first: the root is fetched first, then the best
// three links of each page, highest score first, each explored completely
// before its next sibling. Children of a page at depth d are queued only
// while d+1 < maxPages, so maxPages of 0 or 1 fetches the root alone.
func (c *Crawler) Run(ctx context.Context, root string, maxPages int) Result {
	rootURL := NormalizeRoot(root)
	res := Result{Root: rootURL, Bundle: model.NewContactBundle(), Emails: []model.Email{}}
	logger := c.logger.With("root", rootURL)

	if c.store != nil && (c.store.IsCompleted(root) || c.store.IsCompleted(rootURL)) {
		logger.Debug("site already completed, skipping")
		res.Skipped = true
		c.recorder.ObserveSession("skipped")
		return res
	}

	u, err := url.Parse(rootURL)
	if err != nil || !isHTTPURL(u) {
		logger.Warn("invalid root url", "url", root)
		res.FailedPages = append(res.FailedPages, root)
		c.recordFailed(root)
		c.finish(ctx, logger, &res, root)
		return res
	}

	s := newSession(rootURL, maxPages)
	for {
		item, ok := s.pop()
		if !ok {
			break
		}
		if ctx.Err() != nil {
			logger.Debug("crawl interrupted", "error", ctx.Err())
			break
		}
		if s.isVisited(item.url) {
			continue
		}
		s.markVisited(item.url)

		fetched := c.visit(ctx, logger, s, item)
		if item.depth == 0 {
			res.RootFetched = fetched
		}
	}
	// A fetch cut short by ctx shows up as a failed page, so the context is
	// checked once more after the frontier drains.
	s.state = stateDone
	if ctx.Err() != nil {
		s.state = stateInterrupted
	}

	res.Interrupted = s.state == stateInterrupted
	res.Bundle = s.bundle
	res.Emails = s.emails
	res.PagesVisited = s.pagesVisited
	res.FailedPages = s.failedPages

	c.finish(ctx, logger.With("state", s.state.String()), &res, rootURL)
	return res
}

// finish persists the outcome of a session.
func (c *Crawler) finish(ctx context.Context, logger *slog.Logger, res *Result, root string) {
	// Persist even when ctx expired; the work is already done.
	ctx = context.WithoutCancel(ctx)

	if res.Interrupted {
		c.recorder.ObserveSession("interrupted")
		c.recordFailed(root)
		if c.store != nil {
			if err := c.store.MarkFailed(ctx, root); err != nil {
				logger.Error("failed to persist interrupted site", "error", err)
			}
		}
		logger.Warn("crawl interrupted, site left for retry",
			"pages", res.PagesVisited,
			"emails", len(res.Bundle.Emails),
		)
		return
	}

	if res.RootFetched {
		c.recorder.ObserveSession("completed")
		if c.store != nil {
			if err := c.store.MarkCompleted(ctx, root); err != nil {
				logger.Error("failed to persist completed site", "error", err)
			}
		}
		logger.Info("crawl finished",
			"pages", res.PagesVisited,
			"emails", len(res.Bundle.Emails),
			"social", len(res.Bundle.Social),
		)
		return
	}

	c.recorder.ObserveSession("root_failed")
	if c.store != nil {
		if err := c.store.MarkFailed(ctx, root); err != nil {
			logger.Error("failed to persist failed site", "error", err)
		}
	}
	logger.Warn("root page could not be fetched", "failed_pages", len(res.FailedPages))
}

// visit processes one page and reports whether it was fetched.
// A panic while handling the page is recovered and abandons only this page
// and the links it would have queued.
func (c *Crawler) visit(ctx context.Context, logger *slog.Logger, s *session, item frontierItem) (fetched bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing page",
				"url", item.url,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			c.recorder.ObservePage("panic")
		}
	}()

	out := c.fetcher.Fetch(ctx, item.url, c.retries, c.baseDelay)
	if !out.OK {
		logger.Debug("page fetch failed", "url", item.url, "depth", item.depth, "error", out.Err)
		s.failedPages = append(s.failedPages, item.url)
		c.recordFailed(item.url)
		c.recorder.ObservePage("failed")
		return false
	}
	fetched = true
	s.pagesVisited++
	c.forgetFailed(item.url)
	c.recorder.ObservePage("fetched")

	pageURL := item.url
	if out.FinalURL != "" {
		pageURL = out.FinalURL
		s.markVisited(pageURL)
	}

	c.harvest(s, out.Body, pageURL)

	if item.depth+1 >= s.maxPages {
		return fetched
	}

	links := c.links(out.Body, pageURL, out.ContentType)
	next := c.prioritizer.Select(s.root, links, s.isVisited)
	logger.Debug("page processed", "url", pageURL, "depth", item.depth, "links", len(links), "queued", len(next))

	// Push in reverse so the best link is popped first.
	for _, l := range slices.Backward(next) {
		s.push(frontierItem{url: l.URL, depth: item.depth + 1})
	}
	return fetched
}

// harvest merges the page's contacts into the session bundle.
func (c *Crawler) harvest(s *session, body, pageURL string) {
	page := c.extractor.Extract(body, pageURL)

	added := 0
	for _, e := range page.Emails {
		if s.bundle.AddEmail(e.Address) {
			s.emails = append(s.emails, e)
			added++
		}
	}
	s.bundle.MergeSocial(page.Social)

	platforms := make([]string, 0, len(page.Social))
	for p := range page.Social {
		platforms = append(platforms, p.String())
	}
	c.recorder.ObserveContacts(added, platforms)
}

// links returns the page's anchors that are not excluded by ignore rules.
func (c *Crawler) links(body, pageURL, contentType string) []Link {
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "html") {
		return nil
	}

	parser, err := NewParser(pageURL)
	if err != nil {
		return nil
	}
	parsed, err := parser.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	out := make([]Link, 0, len(parsed.Anchors))
	for _, a := range parsed.Anchors {
		if c.ignore != nil {
			u, err := url.Parse(a.URL)
			if err != nil || ignored(c.ignore(u.Hostname()), u) {
				continue
			}
		}
		out = append(out, Link(a))
	}
	return out
}

// Failed returns every URL whose fetch failed and has not succeeded since,
// sorted.
func (c *Crawler) Failed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.failed))
	for u := range c.failed {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

func (c *Crawler) recordFailed(rawURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed[rawURL] = struct{}{}
}

func (c *Crawler) forgetFailed(rawURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.failed, rawURL)
}
