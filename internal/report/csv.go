package report

import (
	"encoding/csv"
	"io"

	"github.com/nao1215/contactscan/internal/model"
)

// CSVWriter outputs one row per record with a header row.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the header and the records. It returns the number of data
// rows written.
func (w *CSVWriter) Write(records []model.Business) (int, error) {
	cw := csv.NewWriter(w.output)

	if err := cw.Write(recordColumns); err != nil {
		return 0, err
	}
	for i, b := range records {
		if err := cw.Write(recordRow(b)); err != nil {
			return i, err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	return len(records), nil
}
