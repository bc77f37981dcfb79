package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/contactscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// summary is used instead of computing one from the records.
	summary *Summary

	// verbose lists every record, not only the top ones.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithSummary attaches precomputed statistics, e.g. ones that include the
// run time.
func WithSummary(s *Summary) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.summary = s
	}
}

// WithVerbose enables listing every record.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary and, when verbose, every record.
func (w *SimpleWriter) Write(records []model.Business) (int, error) {
	summary := w.summary
	if summary == nil {
		summary = Summarize(records, 0)
	}

	var sb strings.Builder
	w.writeHeader(&sb)
	w.writeSummary(&sb, summary)
	w.writeTop(&sb, summary)
	if w.verbose {
		w.writeRecords(&sb, records)
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs only the statistics.
func (w *SimpleWriter) WriteSummary(s *Summary) (int, error) {
	var sb strings.Builder
	w.writeHeader(&sb)
	w.writeSummary(&sb, s)
	w.writeTop(&sb, s)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the report title.
func (w *SimpleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      CONTACT HARVEST SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

// section writes a titled divider.
func (w *SimpleWriter) section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeSummary writes the statistics block.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, s *Summary) {
	fmt.Fprintf(sb, "Total Businesses Scraped:     %d\n", s.Total)
	fmt.Fprintf(sb, "Businesses with Emails:       %d (%.1f%%)\n", s.WithEmails, s.Percent(s.WithEmails))
	fmt.Fprintf(sb, "Businesses with Social Media: %d (%.1f%%)\n", s.WithSocial, s.Percent(s.WithSocial))
	fmt.Fprintf(sb, "Total Emails Found:           %d\n", s.TotalEmails)
	fmt.Fprintf(sb, "Total Social Media Profiles:  %d\n", s.TotalSocial)
	fmt.Fprintf(sb, "Average Confidence Score:     %.2f\n", s.AverageConfidence)
	fmt.Fprintf(sb, "Websites Processed:           %d\n", s.WebsitesProcessed)
	if s.RuntimeSeconds > 0 {
		fmt.Fprintf(sb, "Runtime:                      %.2f seconds\n", s.RuntimeSeconds)
	}
	sb.WriteString("\n")

	if s.Total == 0 {
		return
	}
	w.section(sb, "STATUS")
	for _, status := range statusOrder {
		if n := s.StatusCounts[status]; n > 0 {
			fmt.Fprintf(sb, "  %-24s %d\n", statusLabel(status)+":", n)
		}
	}
	sb.WriteString("\n")
}

// writeTop writes the highest-confidence records.
func (w *SimpleWriter) writeTop(sb *strings.Builder, s *Summary) {
	if len(s.Top) == 0 {
		return
	}

	w.section(sb, fmt.Sprintf("TOP %d BUSINESSES BY CONFIDENCE", len(s.Top)))
	for i, b := range s.Top {
		fmt.Fprintf(sb, "%d. %s (Score: %.2f)\n", i+1, b.Name, b.ConfidenceScore)
		if len(b.Emails) > 0 {
			fmt.Fprintf(sb, "   Emails:  %s\n", emailPreview(b.Emails))
		}
		if b.Website != "" {
			fmt.Fprintf(sb, "   Website: %s\n", b.Website)
		}
	}
	sb.WriteString("\n")
}

// writeRecords lists every record.
func (w *SimpleWriter) writeRecords(sb *strings.Builder, records []model.Business) {
	w.section(sb, "BUSINESSES")
	if len(records) == 0 {
		sb.WriteString("  No businesses\n\n")
		return
	}

	for _, b := range records {
		fmt.Fprintf(sb, "  * %s [%s, %.2f]\n", b.Name, statusLabel(b.Status), b.ConfidenceScore)
		if b.Website != "" {
			fmt.Fprintf(sb, "    Website: %s\n", b.Website)
		}
		if len(b.Emails) > 0 {
			fmt.Fprintf(sb, "    Emails:  %s\n", strings.Join(b.Emails, ", "))
		}
		if social := platformList(b.SocialMedia); social != "" {
			fmt.Fprintf(sb, "    Social:  %s\n", social)
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by contactscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
