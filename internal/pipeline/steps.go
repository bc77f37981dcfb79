package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/nao1215/contactscan/internal/config"
	"github.com/nao1215/contactscan/internal/crawler"
	"github.com/nao1215/contactscan/internal/model"
)

// SiteCrawler runs one crawl session. *crawler.Crawler implements it.
type SiteCrawler interface {
	Run(ctx context.Context, root string, maxPages int) crawler.Result
}

// WebsiteStep settles listings that have no website to crawl.
type WebsiteStep struct{}

// NewWebsiteStep creates the website presence check.
func NewWebsiteStep() *WebsiteStep {
	return &WebsiteStep{}
}

// Name returns the step name.
func (s *WebsiteStep) Name() string {
	return "website"
}

// Do marks the record StatusNoWebsite and stops the pipeline when the
// website field is blank.
func (s *WebsiteStep) Do(_ context.Context, b *model.Business) error {
	if b.HasWebsite() {
		return nil
	}
	b.SetStatus(model.StatusNoWebsite)
	return ErrSkipRemaining
}

// LowQualityStep scores websites hosted on site-builder domains without
// crawling them.
//
// Design decision: We compare the registrable host rather than searching
// the whole URL for the domain, so "https://acme.com/wordpress.com-review"
// is still crawled while "https://acme.wixsite.com/shop" is not.
type LowQualityStep struct {
	domains []string
	logger  *slog.Logger
}

// LowQualityStepOption configures a LowQualityStep.
type LowQualityStepOption func(*LowQualityStep)

// WithLowQualityLogger sets a custom logger for the low-quality step.
func WithLowQualityLogger(logger *slog.Logger) LowQualityStepOption {
	return func(s *LowQualityStep) {
		s.logger = logger
	}
}

// NewLowQualityStep creates the site-builder check. An empty domains list
// falls back to config.DefaultLowQualityDomains.
func NewLowQualityStep(domains []string, opts ...LowQualityStepOption) *LowQualityStep {
	if len(domains) == 0 {
		domains = config.DefaultLowQualityDomains
	}
	s := &LowQualityStep{
		domains: make([]string, 0, len(domains)),
		logger:  slog.Default(),
	}
	for _, d := range domains {
		d = strings.ToLower(strings.Trim(strings.TrimSpace(d), "."))
		if d != "" {
			s.domains = append(s.domains, d)
		}
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *LowQualityStep) Name() string {
	return "low_quality"
}

// Do marks the record StatusLowQuality and stops the pipeline when the
// website is hosted on one of the configured domains.
func (s *LowQualityStep) Do(_ context.Context, b *model.Business) error {
	if !s.Matches(b.Website) {
		return nil
	}
	s.logger.Debug("low-quality website, not crawling", "website", b.Website)
	b.SetStatus(model.StatusLowQuality)
	return ErrSkipRemaining
}

// Matches reports whether website is hosted on a configured domain.
func (s *LowQualityStep) Matches(website string) bool {
	website = strings.TrimSpace(website)
	if website == "" {
		return false
	}

	u, err := url.Parse(crawler.NormalizeRoot(website))
	if err != nil || u.Hostname() == "" {
		lower := strings.ToLower(website)
		for _, d := range s.domains {
			if strings.Contains(lower, d) {
				return true
			}
		}
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, d := range s.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// CrawlStep harvests contacts from the record's website and sets the
// enrichment status from the result.
type CrawlStep struct {
	crawler SiteCrawler

	// maxPages is the page budget used when no site override applies.
	maxPages int

	// siteMaxPages returns a per-host page budget; zero means none.
	siteMaxPages func(host string) int

	// previous looks up an earlier run's result for a website whose crawl
	// the session store reports as completed.
	previous func(website string) (model.Business, bool)

	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMaxPages sets the page budget of each crawl.
func WithCrawlMaxPages(maxPages int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxPages = maxPages
	}
}

// WithCrawlSiteMaxPages sets a per-host page budget lookup. A lookup
// returning zero keeps the global budget.
func WithCrawlSiteMaxPages(fn func(host string) int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.siteMaxPages = fn
	}
}

// WithCrawlPrevious sets the lookup used to reuse earlier results for
// websites that a previous run already completed.
func WithCrawlPrevious(fn func(website string) (model.Business, bool)) CrawlStepOption {
	return func(s *CrawlStep) {
		s.previous = fn
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step backed by c.
func NewCrawlStep(c SiteCrawler, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		crawler:  c,
		maxPages: config.DefaultMaxPages,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do crawls the website.
//
// The status follows the crawl outcome:
//   - root page unreachable or crawl interrupted: StatusWebsiteError, and the
//     site is left for the retry pass
//   - contacts found: StatusDataExtracted
//   - nothing found: StatusNoContactInfo
//
// A site the session store already completed is not crawled again; its
// earlier result is copied when one is known.
func (s *CrawlStep) Do(ctx context.Context, b *model.Business) error {
	res := s.crawler.Run(ctx, b.Website, s.budget(b.Website))

	switch {
	case res.Skipped:
		if s.previous != nil {
			if prev, ok := s.previous(b.Website); ok {
				b.Emails = append([]string{}, prev.Emails...)
				b.SocialMedia = prev.Clone().SocialMedia
				b.Status = prev.Status
				b.ConfidenceScore = prev.ConfidenceScore
				s.logger.Debug("reused earlier result", "website", b.Website, "status", string(b.Status))
				return nil
			}
		}
		b.ApplyContacts(res.Bundle)
	case !res.RootFetched, res.Interrupted:
		b.ApplyContacts(res.Bundle)
		b.SetStatus(model.StatusWebsiteError)
	default:
		b.ApplyContacts(res.Bundle)
	}

	s.logger.Debug("website processed",
		"website", b.Website,
		"status", string(b.Status),
		"emails", len(b.Emails),
		"social", len(b.SocialMedia),
		"pages", res.PagesVisited,
	)
	return nil
}

// budget returns the page budget for website.
func (s *CrawlStep) budget(website string) int {
	if s.siteMaxPages == nil {
		return s.maxPages
	}
	u, err := url.Parse(crawler.NormalizeRoot(website))
	if err != nil {
		return s.maxPages
	}
	if n := s.siteMaxPages(u.Hostname()); n > 0 {
		return n
	}
	return s.maxPages
}

// DistanceStep fills DistanceKM from the record's coordinates.
type DistanceStep struct {
	reference model.Coordinates
}

// NewDistanceStep creates a distance step measuring from reference.
func NewDistanceStep(reference model.Coordinates) *DistanceStep {
	return &DistanceStep{reference: reference}
}

// Name returns the step name.
func (s *DistanceStep) Name() string {
	return "distance"
}

// Do sets DistanceKM when the record has known coordinates.
func (s *DistanceStep) Do(_ context.Context, b *model.Business) error {
	if b.Coordinates == nil || b.Coordinates.IsZero() {
		return nil
	}
	d := s.reference.DistanceKM(*b.Coordinates)
	b.DistanceKM = &d
	return nil
}

// PreviousResults indexes records by normalized website for
// WithCrawlPrevious. Later records win.
func PreviousResults(records []model.Business) func(website string) (model.Business, bool) {
	index := make(map[string]model.Business, len(records))
	for _, r := range records {
		if r.HasWebsite() {
			index[crawler.NormalizeRoot(r.Website)] = r
		}
	}
	return func(website string) (model.Business, bool) {
		b, ok := index[crawler.NormalizeRoot(website)]
		return b, ok
	}
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// MaxPages is the page budget of each crawl.
	MaxPages int

	// SiteMaxPages returns a per-host page budget override.
	SiteMaxPages func(host string) int

	// LowQualityDomains are the site-builder domains scored without crawling.
	LowQualityDomains []string

	// Reference enables the distance step when non-nil.
	Reference *model.Coordinates

	// Previous looks up earlier results of completed sites.
	Previous func(website string) (model.Business, bool)
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineMaxPages sets the page budget of each crawl.
func WithPipelineMaxPages(maxPages int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxPages = maxPages
	}
}

// WithPipelineSiteMaxPages sets the per-host page budget lookup.
func WithPipelineSiteMaxPages(fn func(host string) int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SiteMaxPages = fn
	}
}

// WithPipelineLowQualityDomains sets the site-builder domain list.
func WithPipelineLowQualityDomains(domains []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.LowQualityDomains = domains
	}
}

// WithPipelineReference enables distance calculation from ref.
func WithPipelineReference(ref model.Coordinates) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Reference = &ref
	}
}

// WithPipelinePrevious sets the lookup of earlier results.
func WithPipelinePrevious(fn func(website string) (model.Business, bool)) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Previous = fn
	}
}

// DefaultPipeline creates the standard enrichment pipeline.
//
// Design decision: The distance step runs first because it depends only on
// the listing, and the website and low-quality checks end the pipeline
// early for records that are not crawled.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineMaxPages, etc).
func DefaultPipeline(c SiteCrawler, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		MaxPages:          config.DefaultMaxPages,
		LowQualityDomains: config.DefaultLowQualityDomains,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	crawlOpts := []CrawlStepOption{
		WithCrawlMaxPages(cfg.MaxPages),
		WithCrawlLogger(p.logger),
	}
	if cfg.SiteMaxPages != nil {
		crawlOpts = append(crawlOpts, WithCrawlSiteMaxPages(cfg.SiteMaxPages))
	}
	if cfg.Previous != nil {
		crawlOpts = append(crawlOpts, WithCrawlPrevious(cfg.Previous))
	}

	if cfg.Reference != nil {
		p.AddStep(NewDistanceStep(*cfg.Reference))
	}
	p.AddSteps(
		NewWebsiteStep(),
		NewLowQualityStep(cfg.LowQualityDomains, WithLowQualityLogger(p.logger)),
		NewCrawlStep(c, crawlOpts...),
	)

	return p
}
