package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nao1215/contactscan/internal/config"
	"github.com/nao1215/contactscan/internal/crawler"
	"github.com/nao1215/contactscan/internal/database"
	"github.com/nao1215/contactscan/internal/extract"
	"github.com/nao1215/contactscan/internal/fetcher"
	"github.com/nao1215/contactscan/internal/metrics"
	"github.com/nao1215/contactscan/internal/model"
	"github.com/nao1215/contactscan/internal/pipeline"
	"github.com/nao1215/contactscan/internal/proxy"
	"github.com/nao1215/contactscan/internal/session"
	"github.com/nao1215/contactscan/internal/tor"
	"github.com/spf13/cobra"
)

// app holds the collaborators of one command run.
//
// Design decision: Commands build an app in two stages. newApp opens the
// session store (cheap, always needed); connect builds the network stack
// (proxy pool, optional Tor daemon, fetcher, crawler) only once the
// command knows it has work to do, so "nothing to retry" never waits for
// Tor to bootstrap.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	out      io.Writer
	recorder *metrics.Recorder
	store    *session.Store
	pool     *proxy.Pool
	tor      *tor.EmbeddedTor
	fetcher  *fetcher.Fetcher
	crawler  *crawler.Crawler
}

// newApp sets up logging and metrics and opens the session store.
func newApp(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*app, error) {
	logger, err := newLogger(cmd, cfg.Verbose)
	if err != nil {
		return nil, err
	}
	logger = logger.With("run_id", uuid.NewString())

	backend, err := openBackend(cfg.SessionPath, true)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		out:      cmd.OutOrStdout(),
		recorder: metrics.New(),
		store:    session.Open(ctx, backend, logger),
	}
	logger.Debug("session opened", "path", cfg.SessionPath)
	return a, nil
}

// openBackend returns the session backend for path: a JSON file when the
// path ends in ".json", SQLite otherwise.
func openBackend(path string, create bool) (session.Backend, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return session.NewFileBackend(path), nil
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = create
	db, err := database.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	return db, nil
}

// connect builds the proxy pool and checks that its endpoints accept
// connections, starts Tor when requested, and creates the fetcher and
// crawler.
func (a *app) connect(ctx context.Context) error {
	pool, err := proxy.NewPool(a.cfg.Proxies)
	if err != nil {
		return fmt.Errorf("invalid proxy configuration: %w", err)
	}
	if err := pool.Check(ctx); err != nil {
		return fmt.Errorf("proxy check failed: %w", err)
	}
	a.pool = pool

	if a.cfg.UseTor {
		if err := a.startTor(ctx); err != nil {
			return err
		}
	}
	if pool.Len() > 0 {
		a.logger.Info("proxy rotation enabled", "endpoints", pool.Endpoints())
	}

	a.fetcher = fetcher.New(
		fetcher.WithProxyPool(pool),
		fetcher.WithInsecureSkipVerify(a.cfg.InsecureSkipVerify),
		fetcher.WithTimeout(a.cfg.Timeout),
		fetcher.WithMaxBodySize(a.cfg.MaxBodySize),
		fetcher.WithCrawlDelay(a.cfg.CrawlDelay),
		fetcher.WithSiteHeaders(a.siteHeaders),
		fetcher.WithMetrics(a.recorder),
		fetcher.WithLogger(a.logger),
	)

	a.crawler = crawler.New(a.fetcher,
		crawler.WithStore(a.store),
		crawler.WithExtractor(extract.New(extract.WithExtraBlacklist(a.cfg.EmailBlacklist...))),
		crawler.WithIgnoreRules(a.ignorePatterns),
		crawler.WithRetries(a.cfg.Retries, a.cfg.BaseDelay),
		crawler.WithMetrics(a.recorder),
		crawler.WithLogger(a.logger),
	)
	return nil
}

// startTor launches the embedded Tor daemon and adds it to the proxy pool.
func (a *app) startTor(ctx context.Context) error {
	fmt.Fprintln(a.out, "Starting embedded Tor daemon...")
	fmt.Fprintf(a.out, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	t := tor.NewEmbeddedTor(tor.WithStartupTimeout(a.cfg.TorStartupTimeout))
	if err := t.Start(ctx); err != nil {
		return fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	a.tor = t

	if err := t.Register(a.pool); err != nil {
		return err
	}

	a.logger.Info("embedded Tor daemon started",
		"socksAddr", t.SocksAddr(),
		"controlAddr", t.ControlAddr(),
	)
	fmt.Fprintf(a.out, "Embedded Tor daemon started (SOCKS proxy: %s)\n\n", t.SocksAddr())
	return nil
}

// siteHeaders returns the configured cookie and headers for host.
func (a *app) siteHeaders(host string) http.Header {
	sc := a.cfg.SiteConfigFor(host)
	if sc.Cookie == "" && len(sc.Headers) == 0 {
		return nil
	}

	h := make(http.Header, len(sc.Headers)+1)
	for k, v := range sc.Headers {
		h.Set(k, v)
	}
	if sc.Cookie != "" {
		h.Set("Cookie", sc.Cookie)
	}
	return h
}

// ignorePatterns returns the configured path patterns to skip on host.
func (a *app) ignorePatterns(host string) []string {
	return a.cfg.SiteConfigFor(host).IgnorePatterns
}

// siteMaxPages returns the configured page budget for host, 0 when unset.
func (a *app) siteMaxPages(host string) int {
	return a.cfg.SiteConfigFor(host).MaxPages
}

// pipelineFactory returns a constructor for the per-record enrichment
// pipeline. Earlier session results are indexed once and shared.
func (a *app) pipelineFactory() func() *pipeline.Pipeline {
	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineMaxPages(a.cfg.MaxPages),
		pipeline.WithPipelineSiteMaxPages(a.siteMaxPages),
		pipeline.WithPipelineLowQualityDomains(a.cfg.LowQualityDomains),
		pipeline.WithPipelinePrevious(pipeline.PreviousResults(a.store.Snapshot().Results)),
	}
	if ref := a.cfg.Reference; ref != nil {
		configOpts = append(configOpts, pipeline.WithPipelineReference(model.Coordinates{Lat: ref.Lat, Lng: ref.Lng}))
	}
	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(a.logger),
		pipeline.WithContinueOnError(true),
	}

	return func() *pipeline.Pipeline {
		return pipeline.DefaultPipeline(a.crawler, pipelineOpts, configOpts...)
	}
}

// newRetryCoordinator creates the coordinator for the retry pass.
func (a *app) newRetryCoordinator() *pipeline.RetryCoordinator {
	return pipeline.NewRetryCoordinator(a.crawler,
		pipeline.WithWorkers(a.cfg.RetryWorkers),
		pipeline.WithTaskTimeout(a.cfg.RetryTimeout),
		pipeline.WithRetryMaxPages(a.cfg.RetryMaxPages),
		pipeline.WithRetryMetrics(a.recorder),
		pipeline.WithRetryLogger(a.logger),
	)
}

// Close stops the Tor daemon, drops idle connections, closes the session
// store and writes the metrics file. Every step runs even when an earlier one fails.
func (a *app) Close() error {
	var errs []error

	if a.tor != nil {
		a.logger.Info("stopping embedded Tor daemon")
		if err := a.tor.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop embedded Tor: %w", err))
		}
	}

	if a.fetcher != nil {
		a.fetcher.CloseIdleConnections()
	}

	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close session store: %w", err))
	}

	if err := a.recorder.WriteTextfile(a.cfg.MetricsFile); err != nil {
		errs = append(errs, fmt.Errorf("failed to write metrics file: %w", err))
	}

	return errors.Join(errs...)
}
