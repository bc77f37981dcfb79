package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/contactscan/internal/model"
)

// JSONWriter outputs records in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. The record type already carries json tags shared with the session file
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the records as a JSON array.
func (w *JSONWriter) Write(records []model.Business) (int, error) {
	if records == nil {
		records = []model.Business{}
	}
	return w.writeJSON(records)
}

// WriteSummary outputs the statistics as a JSON object.
func (w *JSONWriter) WriteSummary(s *Summary) (int, error) {
	return w.writeJSON(s)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport is the records plus run metadata.
//
// Design decision: We wrap the records rather than adding fields to
// Business because this allows us to add output-specific fields without
// polluting the core data structure.
type JSONReport struct {
	// Version is the contactscan version that generated this report.
	Version string `json:"version"`

	// Summary is the run statistics.
	Summary *Summary `json:"summary"`

	// Results are the enriched records.
	Results []model.Business `json:"results"`
}

// FullJSONWriter outputs records with the metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the contactscan version string.
	version string

	// summary is attached to every report written.
	summary *Summary
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
// A nil summary is computed from the records when writing.
func NewFullJSONWriter(output io.Writer, version string, summary *Summary, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
		summary:    summary,
	}
}

// Write outputs the records wrapped with metadata.
func (w *FullJSONWriter) Write(records []model.Business) (int, error) {
	summary := w.summary
	if summary == nil {
		summary = Summarize(records, 0)
	}
	if records == nil {
		records = []model.Business{}
	}

	return w.writeJSON(&JSONReport{
		Version: w.version,
		Summary: summary,
		Results: records,
	})
}
