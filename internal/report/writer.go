package report

import (
	"io"

	"github.com/nao1215/contactscan/internal/model"
)

// Writer defines the interface for result output.
// Implementations write enriched records in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or a database
// with the same API.
type Writer interface {
	// Write outputs the records to the configured destination.
	// Returns the number of bytes (or rows) written and any error encountered.
	Write(records []model.Business) (int, error)
}

// SummaryWriter outputs the run statistics on their own.
// This is useful for a quick look without the full record list.
type SummaryWriter interface {
	WriteSummary(s *Summary) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
// This is useful for exporting to several formats in one run.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write records, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Add appends a writer.
func (m *MultiWriter) Add(w Writer) {
	m.writers = append(m.writers, w)
}

// Len returns the number of writers.
func (m *MultiWriter) Len() int {
	return len(m.writers)
}

// Write outputs the records to all configured Writers.
// Returns the total written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(records []model.Business) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(records)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
