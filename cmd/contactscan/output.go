package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/contactscan/internal/config"
	"github.com/nao1215/contactscan/internal/model"
	"github.com/nao1215/contactscan/internal/report"
)

// createFile creates (or truncates) path with owner-only permissions,
// creating parent directories as needed. Results contain personal contact
// data, so they should only be readable by the owner.
func createFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// writeReport outputs the records in the requested format, to the report
// file when one is configured and to w otherwise.
func writeReport(w io.Writer, cfg *config.Config, records []model.Business, summary *report.Summary) (err error) {
	output := w
	if cfg.ReportFile != "" {
		f, ferr := createFile(cfg.ReportFile)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), summary, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output, report.WithMarkdownSummary(summary))
	default:
		writer = report.NewSimpleWriter(output,
			report.WithSummary(summary),
			report.WithVerbose(cfg.Verbose),
		)
	}

	if _, err := writer.Write(records); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// writeExports writes the CSV, Excel and SQLite exports that were
// requested and returns the paths written.
func writeExports(cfg *config.Config, records []model.Business) (paths []string, err error) {
	mw := report.NewMultiWriter()
	var files []*os.File
	defer func() {
		for _, f := range files {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}()

	if cfg.CSVFile != "" {
		f, err := createFile(cfg.CSVFile)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		mw.Add(report.NewCSVWriter(f))
		paths = append(paths, cfg.CSVFile)
	}

	if cfg.ExcelFile != "" {
		f, err := createFile(cfg.ExcelFile)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		mw.Add(report.NewExcelWriter(f))
		paths = append(paths, cfg.ExcelFile)
	}

	if cfg.SQLiteFile != "" {
		mw.Add(report.NewSQLiteWriter(cfg.SQLiteFile))
		paths = append(paths, cfg.SQLiteFile)
	}

	if mw.Len() == 0 {
		return nil, nil
	}
	if _, err := mw.Write(records); err != nil {
		return nil, fmt.Errorf("failed to export results: %w", err)
	}
	return paths, nil
}
