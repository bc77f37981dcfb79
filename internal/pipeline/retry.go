package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/contactscan/internal/config"
	"github.com/nao1215/contactscan/internal/crawler"
	"github.com/nao1215/contactscan/internal/metrics"
	"github.com/nao1215/contactscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// RetryCoordinator re-crawls failed sites concurrently with bounded
// parallelism and a per-site deadline.
//
// Design decision: We use a plain errgroup.Group instead of
// errgroup.WithContext because one site failing must never cancel the
// others. Tasks report failure through the returned map, not the group.
type RetryCoordinator struct {
	crawler     SiteCrawler
	workers     int
	taskTimeout time.Duration
	maxPages    int
	recorder    *metrics.Recorder
	logger      *slog.Logger
}

// RetryOption configures a RetryCoordinator.
type RetryOption func(*RetryCoordinator)

// WithWorkers sets how many sites are re-crawled at once. Default is 3.
func WithWorkers(n int) RetryOption {
	return func(rc *RetryCoordinator) {
		if n > 0 {
			rc.workers = n
		}
	}
}

// WithTaskTimeout sets the deadline of each site re-crawl. Default is 30s.
func WithTaskTimeout(d time.Duration) RetryOption {
	return func(rc *RetryCoordinator) {
		if d > 0 {
			rc.taskTimeout = d
		}
	}
}

// WithRetryMaxPages sets the page budget of each re-crawl. Default is 3.
func WithRetryMaxPages(n int) RetryOption {
	return func(rc *RetryCoordinator) {
		if n >= 0 {
			rc.maxPages = n
		}
	}
}

// WithRetryMetrics sets the recorder for task outcomes.
func WithRetryMetrics(r *metrics.Recorder) RetryOption {
	return func(rc *RetryCoordinator) {
		rc.recorder = r
	}
}

// WithRetryLogger sets a custom logger for the retry pass.
func WithRetryLogger(logger *slog.Logger) RetryOption {
	return func(rc *RetryCoordinator) {
		rc.logger = logger
	}
}

// NewRetryCoordinator creates a coordinator that re-crawls sites with c.
func NewRetryCoordinator(c SiteCrawler, opts ...RetryOption) *RetryCoordinator {
	rc := &RetryCoordinator{
		crawler:     c,
		workers:     config.DefaultRetryWorkers,
		taskTimeout: config.DefaultRetryTimeout,
		maxPages:    config.DefaultRetryMaxPages,
	}

	for _, opt := range opts {
		opt(rc)
	}

	if rc.logger == nil {
		rc.logger = slog.Default()
	}

	return rc
}

// RetryAll re-crawls each distinct URL once and returns the bundles of the
// sites whose root page was fetched within the deadline. Sites that time
// out, panic or stay unreachable are logged and left out of the map.
//
// Duplicates and blanks are dropped and sites are dispatched in sorted
// order, so runs over the same input schedule the same way.
func (rc *RetryCoordinator) RetryAll(ctx context.Context, urls []string) map[string]model.ContactBundle {
	recovered := make(map[string]model.ContactBundle)
	sites := uniqueSites(urls)
	if len(sites) == 0 {
		return recovered
	}

	rc.logger.Info("retrying failed sites",
		"sites", len(sites),
		"workers", rc.workers,
		"timeout", rc.taskTimeout,
	)
	startTime := time.Now()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(rc.workers)

	for _, site := range sites {
		g.Go(func() error {
			bundle, ok := rc.retry(ctx, site)
			if ok {
				mu.Lock()
				recovered[site] = bundle
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors

	rc.logger.Info("retry pass complete",
		"sites", len(sites),
		"recovered", len(recovered),
		"elapsed", time.Since(startTime),
	)

	return recovered
}

// retry runs one site re-crawl under its own deadline.
func (rc *RetryCoordinator) retry(ctx context.Context, site string) (bundle model.ContactBundle, ok bool) {
	logger := rc.logger.With("site", site)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("retry task panicked",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			rc.recorder.ObserveRetryTask("panic")
			bundle, ok = model.ContactBundle{}, false
		}
	}()

	taskCtx, cancel := context.WithTimeout(ctx, rc.taskTimeout)
	defer cancel()

	res := rc.crawler.Run(taskCtx, site, rc.maxPages)

	// The crawler decides whether the deadline cut the session short; a site
	// it finished and marked completed counts as recovered even if the
	// deadline passed right after.
	switch {
	case res.Interrupted && errors.Is(taskCtx.Err(), context.DeadlineExceeded):
		logger.Warn("retry timed out", "timeout", rc.taskTimeout, "pages", res.PagesVisited)
		rc.recorder.ObserveRetryTask("timeout")
		return model.ContactBundle{}, false
	case res.Interrupted:
		logger.Warn("retry interrupted", "error", taskCtx.Err())
		rc.recorder.ObserveRetryTask("failed")
		return model.ContactBundle{}, false
	case !res.RootFetched:
		logger.Warn("retry failed", "skipped", res.Skipped)
		rc.recorder.ObserveRetryTask("failed")
		return model.ContactBundle{}, false
	}

	logger.Debug("retry recovered site",
		"emails", len(res.Bundle.Emails),
		"social", len(res.Bundle.Social),
	)
	rc.recorder.ObserveRetryTask("recovered")
	return res.Bundle, true
}

// uniqueSites returns the distinct non-blank URLs in sorted order.
func uniqueSites(urls []string) []string {
	set := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u != "" {
			set[u] = struct{}{}
		}
	}
	sites := make([]string, 0, len(set))
	for u := range set {
		sites = append(sites, u)
	}
	slices.Sort(sites)
	return sites
}

// MergeRecovered folds recovered bundles into the records whose Website
// matches a recovered URL and returns how many records changed. Empty
// bundles are ignored.
//
// URLs are compared in normalized form, so "acme.com" matches a record
// with website "https://acme.com/". When several recovered URLs normalize
// to the same site their bundles are combined in sorted URL order first,
// which makes the result independent of map iteration order.
func MergeRecovered(records []model.Business, recovered map[string]model.ContactBundle) int {
	if len(records) == 0 || len(recovered) == 0 {
		return 0
	}

	keys := make([]string, 0, len(recovered))
	for k := range recovered {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	bySite := make(map[string]model.ContactBundle, len(keys))
	for _, k := range keys {
		bundle := recovered[k]
		if bundle.Empty() {
			continue
		}
		site := crawler.NormalizeRoot(k)
		combined, ok := bySite[site]
		if !ok {
			combined = model.NewContactBundle()
		}
		combined.Merge(bundle)
		bySite[site] = combined
	}
	if len(bySite) == 0 {
		return 0
	}

	merged := 0
	for i := range records {
		if !records[i].HasWebsite() {
			continue
		}
		bundle, ok := bySite[crawler.NormalizeRoot(records[i].Website)]
		if !ok {
			continue
		}
		records[i].MergeRecovered(bundle)
		merged++
	}
	return merged
}
