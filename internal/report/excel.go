package report

import (
	"fmt"
	"io"

	"github.com/nao1215/contactscan/internal/model"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the Excel export.
const (
	RecordsSheet = "Business Data"
	SummarySheet = "Summary"
)

// ExcelWriter outputs an .xlsx workbook with the records on one sheet and
// the run statistics on another.
//
// Design decision: We build the workbook in memory and stream it with
// WriteTo so the writer accepts any io.Writer like the text formats do.
type ExcelWriter struct {
	baseWriter
}

// NewExcelWriter creates an ExcelWriter that outputs to the given writer.
func NewExcelWriter(output io.Writer) *ExcelWriter {
	return &ExcelWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs a workbook holding the records and their summary.
func (w *ExcelWriter) Write(records []model.Business) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), RecordsSheet); err != nil {
		return 0, err
	}
	if err := writeRecordsSheet(f, records); err != nil {
		return 0, fmt.Errorf("failed to write %s sheet: %w", RecordsSheet, err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return 0, err
	}
	if err := writeSummarySheet(f, Summarize(records, 0)); err != nil {
		return 0, fmt.Errorf("failed to write %s sheet: %w", SummarySheet, err)
	}

	n, err := f.WriteTo(w.output)
	return int(n), err
}

// WriteSummary outputs a workbook holding only the statistics.
func (w *ExcelWriter) WriteSummary(s *Summary) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return 0, err
	}
	if err := writeSummarySheet(f, s); err != nil {
		return 0, err
	}

	n, err := f.WriteTo(w.output)
	return int(n), err
}

// headerStyle returns the bold grey style used for header rows.
func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"CCCCCC"}, Pattern: 1},
	})
}

func writeRecordsSheet(f *excelize.File, records []model.Business) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	header := recordColumns
	if err := f.SetSheetRow(RecordsSheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(recordColumns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(RecordsSheet, "A1", last, style); err != nil {
		return err
	}

	for i, b := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := recordRow(b)
		if err := f.SetSheetRow(RecordsSheet, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(recordColumns))
	if err != nil {
		return err
	}
	return f.SetColWidth(RecordsSheet, "A", lastCol, 20)
}

func writeSummarySheet(f *excelize.File, s *Summary) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	rows := [][]any{
		{"Metric", "Value"},
		{"Total Businesses", s.Total},
		{"Businesses with Emails", s.WithEmails},
		{"Businesses with Social Media", s.WithSocial},
		{"Total Emails Found", s.TotalEmails},
		{"Total Social Media Profiles", s.TotalSocial},
		{"Average Confidence Score", s.AverageConfidence},
		{"Websites Processed", s.WebsitesProcessed},
	}
	for _, status := range statusOrder {
		if n := s.StatusCounts[status]; n > 0 {
			rows = append(rows, []any{"Status: " + statusLabel(status), n})
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", style); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "A", "A", 32)
}
