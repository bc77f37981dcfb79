// Package metrics exposes Prometheus collectors for the contact harvester.
//
// The CLI is a one-shot process, so instead of serving /metrics the collected
// values are dumped in the Prometheus text format when a run ends (see
// WriteTextfile), ready for the node_exporter textfile collector.
//
// Every method is safe to call on a nil *Recorder, which turns metrics off
// without nil checks at the call sites.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns a private registry and the collectors registered on it.
//
// Design decision: We use a private registry rather than the global default
// registerer so that tests (and several crawlers in one process) never
// collide on duplicate registration.
type Recorder struct {
	registry *prometheus.Registry

	fetchAttempts  *prometheus.CounterVec
	fetchOutcomes  *prometheus.CounterVec
	backoffSeconds *prometheus.HistogramVec
	pages          *prometheus.CounterVec
	emailsFound    prometheus.Counter
	socialFound    *prometheus.CounterVec
	sessions       *prometheus.CounterVec
	retryTasks     *prometheus.CounterVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		fetchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactscan_fetch_attempts_total",
				Help: "Total number of HTTP attempts, labeled by status code class.",
			},
			[]string{"code"},
		),
		fetchOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactscan_fetch_outcomes_total",
				Help: "Total number of fetches after retries, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		backoffSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contactscan_fetch_backoff_seconds",
				Help:    "Histogram of backoff sleeps between attempts, labeled by reason.",
				Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"reason"},
		),
		pages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactscan_pages_total",
				Help: "Total number of pages processed by crawl sessions, labeled by status.",
			},
			[]string{"status"},
		),
		emailsFound: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "contactscan_emails_found_total",
				Help: "Total number of distinct validated emails added to site bundles.",
			},
		),
		socialFound: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactscan_social_links_found_total",
				Help: "Total number of social profile links found, labeled by platform.",
			},
			[]string{"platform"},
		),
		sessions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactscan_sessions_total",
				Help: "Total number of crawl sessions, labeled by result.",
			},
			[]string{"result"},
		),
		retryTasks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactscan_retry_tasks_total",
				Help: "Total number of retry-pass tasks, labeled by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveAttempt counts one HTTP attempt. A zero status means a transport error.
func (r *Recorder) ObserveAttempt(status int) {
	if r == nil {
		return
	}
	r.fetchAttempts.WithLabelValues(codeClass(status)).Inc()
}

// ObserveFetch counts a finished fetch as "ok" or "failed".
func (r *Recorder) ObserveFetch(ok bool) {
	if r == nil {
		return
	}
	r.fetchOutcomes.WithLabelValues(okLabel(ok)).Inc()
}

// ObserveBackoff records a backoff sleep. reason is "rate_limited" or "error".
func (r *Recorder) ObserveBackoff(reason string, d time.Duration) {
	if r == nil {
		return
	}
	r.backoffSeconds.WithLabelValues(reason).Observe(d.Seconds())
}

// ObservePage counts a page processed by a crawl session.
// status is one of "fetched", "failed" or "panic".
func (r *Recorder) ObservePage(status string) {
	if r == nil {
		return
	}
	r.pages.WithLabelValues(status).Inc()
}

// ObserveContacts counts newly found emails and social links.
func (r *Recorder) ObserveContacts(newEmails int, platforms []string) {
	if r == nil {
		return
	}
	r.emailsFound.Add(float64(newEmails))
	for _, p := range platforms {
		r.socialFound.WithLabelValues(p).Inc()
	}
}

// ObserveSession counts a finished crawl session.
// result is one of "completed", "skipped", "interrupted" or "root_failed".
func (r *Recorder) ObserveSession(result string) {
	if r == nil {
		return
	}
	r.sessions.WithLabelValues(result).Inc()
}

// ObserveRetryTask counts a retry-pass task.
// outcome is one of "recovered", "failed", "timeout" or "panic".
func (r *Recorder) ObserveRetryTask(outcome string) {
	if r == nil {
		return
	}
	r.retryTasks.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes every collected metric to path in the Prometheus
// text exposition format. The file is written atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// codeClass collapses an HTTP status into a low-cardinality label.
func codeClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status == 429:
		return "429"
	case status >= 100 && status < 600:
		return strconv.Itoa(status/100) + "xx"
	default:
		return "other"
	}
}

func okLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
