package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/contactscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and mermaid charts
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// summary is used instead of computing one from the records.
	summary *Summary
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownSummary attaches precomputed statistics, e.g. ones that
// include the run time.
func WithMarkdownSummary(s *Summary) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.summary = s
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary followed by a table of all records.
func (w *MarkdownWriter) Write(records []model.Business) (int, error) {
	summary := w.summary
	if summary == nil {
		summary = Summarize(records, 0)
	}

	md := markdown.NewMarkdown(w.output)
	w.writeHeader(md)
	w.writeSummary(md, summary)
	w.writeTop(md, summary)
	w.writeRecords(md, records)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs only the statistics in Markdown format.
func (w *MarkdownWriter) WriteSummary(s *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.writeHeader(md)
	w.writeSummary(md, s)
	w.writeTop(md, s)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown) {
	md.H1("Contact Harvest Report")
	md.PlainText("")
}

// writeSummary writes the statistics table, the status chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s *Summary) {
	md.H2("Summary")
	md.PlainText("")

	rows := [][]string{
		{"Total Businesses", strconv.Itoa(s.Total)},
		{"Businesses with Emails", fmt.Sprintf("%d (%.1f%%)", s.WithEmails, s.Percent(s.WithEmails))},
		{"Businesses with Social Media", fmt.Sprintf("%d (%.1f%%)", s.WithSocial, s.Percent(s.WithSocial))},
		{"Total Emails Found", strconv.Itoa(s.TotalEmails)},
		{"Total Social Media Profiles", strconv.Itoa(s.TotalSocial)},
		{"Average Confidence Score", fmt.Sprintf("%.2f", s.AverageConfidence)},
		{"Websites Processed", strconv.Itoa(s.WebsitesProcessed)},
	}
	if s.RuntimeSeconds > 0 {
		rows = append(rows, []string{"Runtime", fmt.Sprintf("%.2f seconds", s.RuntimeSeconds)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if s.Total > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart of the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Enrichment Status"),
		piechart.WithShowData(true),
	)

	for _, status := range statusOrder {
		if n := s.StatusCounts[status]; n > 0 {
			chart.LabelAndIntValue(statusLabel(status), uint64(n)) //nolint:gosec // counts are non-negative
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert describing the overall harvest.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *Summary) {
	switch {
	case s.Total == 0:
		md.Note("No businesses were processed.")
	case s.WithEmails == 0 && s.WithSocial == 0:
		md.Warningf("No contact information was found for any of the %d businesses.", s.Total)
	case s.StatusCounts[model.StatusWebsiteError] > 0:
		md.Importantf("%d websites could not be reached. Run `contactscan retry` to try them again.",
			s.StatusCounts[model.StatusWebsiteError])
	default:
		md.Tip("Every reachable website was processed.")
	}
	md.PlainText("")
}

// writeTop writes the highest-confidence records.
func (w *MarkdownWriter) writeTop(md *markdown.Markdown, s *Summary) {
	if len(s.Top) == 0 {
		return
	}

	md.H2(fmt.Sprintf("Top %d Businesses by Confidence", len(s.Top)))
	md.PlainText("")

	items := make([]string, len(s.Top))
	for i, b := range s.Top {
		item := fmt.Sprintf("**%s** (Score: %.2f)", b.Name, b.ConfidenceScore)
		if len(b.Emails) > 0 {
			item += " - " + emailPreview(b.Emails)
		}
		items[i] = item
	}
	md.OrderedList(items...)
	md.PlainText("")
}

// writeRecords writes one table row per record.
func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, records []model.Business) {
	md.H2("Businesses")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No businesses.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(records))
	for i, b := range records {
		rows[i] = []string{
			truncateString(b.Name, 40),
			orDash(truncateString(b.Website, 40)),
			statusLabel(b.Status),
			fmt.Sprintf("%.2f", b.ConfidenceScore),
			orDash(truncateString(strings.Join(b.Emails, ", "), 60)),
			orDash(platformList(b.SocialMedia)),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Name", "Website", "Status", "Confidence", "Emails", "Social"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [contactscan](https://github.com/nao1215/contactscan)*")
}

// platformList returns the platforms of links as sorted display names.
func platformList(links map[model.SocialPlatform]string) string {
	if len(links) == 0 {
		return ""
	}
	caser := cases.Title(language.English)
	names := make([]string, 0, len(links))
	for p := range links {
		names = append(names, caser.String(p.String()))
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

// emailPreview lists the first three addresses, noting when there are more.
func emailPreview(emails []string) string {
	if len(emails) <= 3 {
		return strings.Join(emails, ", ")
	}
	return strings.Join(emails[:3], ", ") + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
