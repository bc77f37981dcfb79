package main

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/contactscan/internal/crawler"
	"github.com/nao1215/contactscan/internal/model"
	"github.com/nao1215/contactscan/internal/pipeline"
	"github.com/nao1215/contactscan/internal/report"
	"github.com/nao1215/contactscan/internal/session"
)

// enrich runs the primary pass over records, retries the sites that
// failed, saves the results to the session and writes the reports.
//
// A cancelled run still saves and reports the records finished so far;
// the cancellation error is returned afterwards.
func (a *app) enrich(ctx context.Context, records []model.Business) error {
	if len(records) == 0 {
		fmt.Fprintln(a.out, "No businesses to process.")
		return nil
	}
	if err := a.connect(ctx); err != nil {
		return err
	}

	startTime := time.Now()
	fmt.Fprintf(a.out, "Enriching %d businesses...\n\n", len(records))

	bp := pipeline.NewBatchProcessor(a.pipelineFactory(),
		pipeline.WithBatchLogger(a.logger),
	)

	results := make([]model.Business, 0, len(records))
	byIndex := make([]*model.Business, len(records))
	batchErr := bp.ProcessBatchWithCallback(ctx, records, func(b model.Business, index int) {
		byIndex[index] = &b
		fmt.Fprintf(a.out, "[%d/%d] %s: %s\n", index+1, len(records), b.Name, b.Status)
	})
	for _, b := range byIndex {
		if b != nil {
			results = append(results, *b)
		}
	}

	if batchErr == nil && !a.cfg.SkipRetry {
		a.retryFailed(ctx, results)
	}

	elapsed := time.Since(startTime)
	fmt.Fprintf(a.out, "\nEnrichment completed in %s\n", elapsed.Round(time.Millisecond))

	if err := a.finish(ctx, results, elapsed); err != nil {
		return err
	}
	return batchErr
}

// retryFailed re-crawls the URLs that failed during the primary pass and
// folds recovered contacts into results.
func (a *app) retryFailed(ctx context.Context, results []model.Business) {
	failed := a.crawler.Failed()
	if len(failed) == 0 {
		return
	}

	fmt.Fprintf(a.out, "\nRetrying %d failed URLs...\n", len(failed))
	recovered := a.newRetryCoordinator().RetryAll(ctx, failed)
	merged := pipeline.MergeRecovered(results, recovered)
	fmt.Fprintf(a.out, "Recovered %d URLs, updated %d businesses\n", len(recovered), merged)
}

// retry re-crawls urls and records the outcome of each recovered site.
// Sites with an earlier session result have that result updated; others
// get a new record named after the host.
func (a *app) retry(ctx context.Context, urls []string) error {
	if err := a.connect(ctx); err != nil {
		return err
	}

	startTime := time.Now()
	fmt.Fprintf(a.out, "Retrying %d sites (workers: %d)...\n", len(urls), a.cfg.RetryWorkers)

	recovered := a.newRetryCoordinator().RetryAll(ctx, urls)
	records := recoveredRecords(recovered, pipeline.PreviousResults(a.store.Snapshot().Results), time.Now())
	pipeline.MergeRecovered(records, recovered)

	elapsed := time.Since(startTime)
	fmt.Fprintf(a.out, "Recovered %d of %d sites in %s\n", len(recovered), len(urls), elapsed.Round(time.Millisecond))

	if err := a.finish(ctx, records, elapsed); err != nil {
		return err
	}
	return ctx.Err()
}

// finish saves results to the session and writes the report and exports.
func (a *app) finish(ctx context.Context, results []model.Business, elapsed time.Duration) error {
	if len(results) > 0 {
		// Save even when ctx was cancelled; the work is already done.
		if err := a.store.Save(context.WithoutCancel(ctx), session.Update{Results: results}); err != nil {
			a.logger.Error("failed to save results to session", "error", err)
		}
	}

	summary := report.Summarize(results, elapsed)
	if err := writeReport(a.out, a.cfg, results, summary); err != nil {
		return err
	}

	paths, err := writeExports(a.cfg, results)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(a.out, "Exported %d records to %s\n", len(results), p)
	}
	return nil
}

// recoveredRecords returns one record per recovered site, in sorted URL
// order: a copy of the earlier result when previous knows the site, a new
// record otherwise. Sites that answered without contact details are marked
// as crawled with nothing found.
func recoveredRecords(
	recovered map[string]model.ContactBundle,
	previous func(website string) (model.Business, bool),
	now time.Time,
) []model.Business {
	sites := make([]string, 0, len(recovered))
	for site := range recovered {
		sites = append(sites, site)
	}
	slices.Sort(sites)

	seen := make(map[string]struct{}, len(sites))
	records := make([]model.Business, 0, len(sites))
	for _, site := range sites {
		key := crawler.NormalizeRoot(site)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		b, ok := previous(site)
		if ok {
			b = b.Clone()
		} else {
			b = model.Business{Name: hostName(site), Website: site}
			b.SetStatus(model.StatusWebsiteError)
		}
		if b.Status == model.StatusWebsiteError && recovered[site].Empty() {
			b.ApplyContacts(recovered[site])
		}
		b.ScrapedAt = now
		records = append(records, b)
	}
	return records
}

// recordsFromURLs turns command line URLs into records named after their host.
func recordsFromURLs(urls []string) []model.Business {
	records := make([]model.Business, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		records = append(records, model.Business{Name: hostName(u), Website: u})
	}
	return records
}

// hostName returns the host of rawURL without a leading "www.", or rawURL
// itself when it has no host.
func hostName(rawURL string) string {
	u, err := url.Parse(crawler.NormalizeRoot(rawURL))
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
