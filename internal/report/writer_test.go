package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/contactscan/internal/database"
	"github.com/nao1215/contactscan/internal/model"
	"github.com/xuri/excelize/v2"
)

// createTestRecords creates records covering every enrichment outcome.
func createTestRecords() []model.Business {
	dist := 12.5
	return []model.Business{
		{
			Name:            "Acme Plumbing",
			Website:         "https://acme.com",
			Emails:          []string{"info@acme.com", "sales@acme.com"},
			SocialMedia:     map[model.SocialPlatform]string{model.SocialPlatformFacebook: "https://facebook.com/acme"},
			Rating:          4.5,
			ReviewCount:     120,
			Coordinates:     &model.Coordinates{Lat: 1.5, Lng: 2.5},
			Status:          model.StatusDataExtracted,
			ConfidenceScore: 0.8,
			ScrapedAt:       time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
			DistanceKM:      &dist,
		},
		{Name: "Beta Bakery", Website: "https://beta.com", Status: model.StatusNoContactInfo, ConfidenceScore: 0.4},
		{Name: "Gamma Garage", Website: "https://gamma.com", Status: model.StatusWebsiteError, ConfidenceScore: 0.1},
		{Name: "Delta Deli", Status: model.StatusNoWebsite},
		{Name: "Echo Eats", Website: "https://echo.wixsite.com", Status: model.StatusLowQuality, ConfidenceScore: 0.2},
		{
			Name:            "Foxtrot Florist",
			Website:         "https://foxtrot.com",
			Emails:          []string{"hello@foxtrot.com"},
			Status:          model.StatusRetrySuccessful,
			ConfidenceScore: 1.0,
		},
	}
}

// TestSummarize tests the run statistics.
func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Summarize(createTestRecords(), 1500*time.Millisecond)

	if s.Total != 6 || s.WithEmails != 2 || s.WithSocial != 1 || s.TotalEmails != 3 || s.TotalSocial != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.WebsitesProcessed != 4 {
		t.Errorf("websites processed = %d, want 4", s.WebsitesProcessed)
	}
	if math.Abs(s.AverageConfidence-2.5/6) > 1e-9 {
		t.Errorf("average confidence = %v", s.AverageConfidence)
	}
	if s.RuntimeSeconds != 1.5 {
		t.Errorf("runtime = %v", s.RuntimeSeconds)
	}
	if s.StatusCounts[model.StatusNoWebsite] != 1 || s.StatusCounts[model.StatusDataExtracted] != 1 {
		t.Errorf("status counts = %v", s.StatusCounts)
	}

	wantTop := []string{"Foxtrot Florist", "Acme Plumbing", "Beta Bakery", "Echo Eats", "Gamma Garage"}
	if len(s.Top) != len(wantTop) {
		t.Fatalf("top = %d records, want %d", len(s.Top), len(wantTop))
	}
	for i, name := range wantTop {
		if s.Top[i].Name != name {
			t.Errorf("top[%d] = %q, want %q", i, s.Top[i].Name, name)
		}
	}

	t.Run("ties keep input order", func(t *testing.T) {
		t.Parallel()

		s := Summarize([]model.Business{
			{Name: "first", ConfidenceScore: 0.4},
			{Name: "second", ConfidenceScore: 0.4},
		}, 0)
		if s.Top[0].Name != "first" || s.Top[1].Name != "second" {
			t.Errorf("top = %v", s.Top)
		}
	})

	t.Run("empty run", func(t *testing.T) {
		t.Parallel()

		s := Summarize(nil, 0)
		if s.Total != 0 || s.AverageConfidence != 0 || s.Percent(3) != 0 || len(s.Top) != 0 {
			t.Errorf("empty summary = %+v", s)
		}
	})
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary and top businesses", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestRecords()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"CONTACT HARVEST SUMMARY",
			"Businesses with Emails:       2 (33.3%)",
			"1. Foxtrot Florist (Score: 1.00)",
			"Emails:  info@acme.com, sales@acme.com",
			"Website error:",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
		if strings.Contains(output, "BUSINESSES\n") {
			t.Error("record list must only appear in verbose mode")
		}
	})

	t.Run("verbose lists every record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestRecords()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "* Delta Deli [No website, 0.00]") {
			t.Errorf("verbose output missing record:\n%s", output)
		}
		if !strings.Contains(output, "Social:  Facebook") {
			t.Errorf("verbose output missing platforms:\n%s", output)
		}
	})

	t.Run("summary with runtime", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		s := Summarize(createTestRecords(), 2*time.Second)
		if _, err := NewSimpleWriter(&buf).WriteSummary(s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Runtime:                      2.00 seconds") {
			t.Errorf("missing runtime:\n%s", buf.String())
		}
	})
}

// TestJSONWriter tests JSON output.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes records array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestRecords()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 6 {
			t.Fatalf("got %d records", len(decoded))
		}
		if decoded[0]["status"] != "Data extracted" || decoded[0]["name"] != "Acme Plumbing" {
			t.Errorf("unexpected record encoding: %v", decoded[0])
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})

	t.Run("nil records encode as empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(buf.String()) != "[]" {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("full writer wraps metadata", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewFullJSONWriter(&buf, "v1.2.3", nil).Write(createTestRecords()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded JSONReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Version != "v1.2.3" || decoded.Summary == nil || decoded.Summary.Total != 6 || len(decoded.Results) != 6 {
			t.Errorf("decoded = %+v", decoded)
		}
	})
}

// TestCSVWriter tests CSV export.
func TestCSVWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewCSVWriter(&buf).Write(createTestRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 6 {
		t.Errorf("wrote %d rows, want 6", n)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 7 || strings.Join(rows[0], ",") != strings.Join(recordColumns, ",") {
		t.Fatalf("header = %v, rows = %d", rows[0], len(rows))
	}

	acme := rows[1]
	want := map[int]string{
		4:  "info@acme.com, sales@acme.com",
		5:  `{"facebook":"https://facebook.com/acme"}`,
		6:  "4.5",
		11: `{"lat":1.5,"lng":2.5}`,
		13: "0.80",
		14: "2026-03-04T05:06:07Z",
		15: "12.50",
	}
	for col, v := range want {
		if acme[col] != v {
			t.Errorf("column %s = %q, want %q", recordColumns[col], acme[col], v)
		}
	}
	if delta := rows[4]; delta[3] != "" || delta[5] != "" || delta[11] != "" {
		t.Errorf("empty optional values must be blank: %v", delta)
	}
}

// TestExcelWriter tests the workbook export.
func TestExcelWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewExcelWriter(&buf).Write(createTestRecords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("invalid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(RecordsSheet)
	if err != nil {
		t.Fatalf("missing %s sheet: %v", RecordsSheet, err)
	}
	if len(rows) != 7 || rows[0][0] != "name" || rows[1][0] != "Acme Plumbing" {
		t.Errorf("records sheet = %v", rows)
	}

	summary, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("missing %s sheet: %v", SummarySheet, err)
	}
	if len(summary) < 2 || summary[1][0] != "Total Businesses" || summary[1][1] != "6" {
		t.Errorf("summary sheet = %v", summary)
	}
}

// TestMarkdownWriter tests Markdown output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes full report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRecords()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Contact Harvest Report",
			"## Summary",
			"```mermaid",
			"Enrichment Status",
			"## Top 5 Businesses by Confidence",
			"## Businesses",
			"Facebook",
			"contactscan retry",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("empty run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Contains(output, "mermaid") {
			t.Error("empty run must not draw a chart")
		}
		if !strings.Contains(output, "No businesses") {
			t.Errorf("output = %s", output)
		}
	})
}

// TestSQLiteWriter tests the database export.
func TestSQLiteWriter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "export.db")
	w := NewSQLiteWriter(path)

	for range 2 {
		n, err := w.Write(createTestRecords())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 6 {
			t.Errorf("inserted %d rows, want 6", n)
		}
	}

	db, err := database.Open(path, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	got, err := db.ListBusinesses(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 12 {
		t.Errorf("rows accumulate across exports: got %d, want 12", len(got))
	}
}

// failingWriter always fails.
type failingWriter struct{ calls int }

func (f *failingWriter) Write([]model.Business) (int, error) {
	f.calls++
	return 0, errors.New("disk full")
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	m := NewMultiWriter(NewJSONWriter(&a))
	m.Add(NewCSVWriter(&b))
	if m.Len() != 2 {
		t.Fatalf("len = %d", m.Len())
	}
	if _, err := m.Write(createTestRecords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("every writer must receive the records")
	}

	failing := &failingWriter{}
	after := &failingWriter{}
	if _, err := NewMultiWriter(failing, after).Write(nil); err == nil {
		t.Error("expected error")
	}
	if after.calls != 0 {
		t.Error("writers after a failure must not run")
	}
}

// TestTruncateString tests rune-safe truncation.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "exactly10!", max: 10, want: "exactly10!"},
		{in: "much longer text", max: 10, want: "much lo..."},
		{in: "café au lait", max: 6, want: "caf..."},
		{in: "abcdef", max: 2, want: "ab"},
	}

	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
