package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/nao1215/contactscan/internal/model"
)

// TopCount is how many records the summary ranks by confidence.
const TopCount = 5

// Summary holds the aggregate statistics of an enrichment run.
type Summary struct {
	// GeneratedAt is when the summary was computed.
	GeneratedAt time.Time `json:"generated_at"`

	// RuntimeSeconds is the wall-clock duration of the run.
	RuntimeSeconds float64 `json:"runtime_seconds"`

	// Total is the number of records.
	Total int `json:"total"`

	// WithEmails and WithSocial count records carrying at least one
	// email address or social link.
	WithEmails int `json:"with_emails"`
	WithSocial int `json:"with_social"`

	// TotalEmails and TotalSocial count every address and link.
	TotalEmails int `json:"total_emails"`
	TotalSocial int `json:"total_social"`

	// WebsitesProcessed counts records whose website was crawled,
	// successfully or not.
	WebsitesProcessed int `json:"websites_processed"`

	// AverageConfidence is the mean record confidence, zero when empty.
	AverageConfidence float64 `json:"average_confidence"`

	// StatusCounts counts records per enrichment status.
	StatusCounts map[model.Status]int `json:"status_counts"`

	// Top holds up to TopCount records with the highest confidence.
	// Ties keep input order.
	Top []model.Business `json:"top"`
}

// Summarize computes the statistics of records.
func Summarize(records []model.Business, runtime time.Duration) *Summary {
	s := &Summary{
		GeneratedAt:    time.Now(),
		RuntimeSeconds: runtime.Seconds(),
		Total:          len(records),
		StatusCounts:   make(map[model.Status]int),
		Top:            []model.Business{},
	}
	if len(records) == 0 {
		return s
	}

	var confidence float64
	for _, r := range records {
		if len(r.Emails) > 0 {
			s.WithEmails++
		}
		if len(r.SocialMedia) > 0 {
			s.WithSocial++
		}
		s.TotalEmails += len(r.Emails)
		s.TotalSocial += len(r.SocialMedia)
		confidence += r.ConfidenceScore
		s.StatusCounts[r.Status]++

		switch r.Status {
		case model.StatusDataExtracted, model.StatusNoContactInfo,
			model.StatusWebsiteError, model.StatusRetrySuccessful:
			s.WebsitesProcessed++
		}
	}
	s.AverageConfidence = confidence / float64(len(records))

	ranked := slices.Clone(records)
	slices.SortStableFunc(ranked, func(a, b model.Business) int {
		return cmp.Compare(b.ConfidenceScore, a.ConfidenceScore)
	})
	s.Top = ranked[:min(TopCount, len(ranked))]

	return s
}

// Percent returns n as a percentage of Total, or zero for an empty run.
func (s *Summary) Percent(n int) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(n) / float64(s.Total) * 100
}

// statusOrder lists statuses in report order.
var statusOrder = []model.Status{
	model.StatusDataExtracted,
	model.StatusRetrySuccessful,
	model.StatusNoContactInfo,
	model.StatusWebsiteError,
	model.StatusLowQuality,
	model.StatusNoWebsite,
	model.StatusPending,
}

// statusLabel returns a printable name for s.
func statusLabel(s model.Status) string {
	if s == model.StatusPending {
		return "Pending"
	}
	return string(s)
}
