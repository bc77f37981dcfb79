package report

import (
	"context"
	"fmt"

	"github.com/nao1215/contactscan/internal/database"
	"github.com/nao1215/contactscan/internal/model"
)

// SQLiteWriter exports records into the businesses table of a SQLite
// database. Rows accumulate across runs, each stamped with its export time.
type SQLiteWriter struct {
	path string
}

// NewSQLiteWriter creates a writer exporting to the database at path.
// The file is created if it does not exist.
func NewSQLiteWriter(path string) *SQLiteWriter {
	return &SQLiteWriter{path: path}
}

// Write exports the records and returns the number of rows inserted.
func (w *SQLiteWriter) Write(records []model.Business) (int, error) {
	return w.WriteContext(context.Background(), records)
}

// WriteContext is Write with a caller-supplied context.
func (w *SQLiteWriter) WriteContext(ctx context.Context, records []model.Business) (n int, err error) {
	db, err := database.Open(w.path, database.DefaultOptions())
	if err != nil {
		return 0, fmt.Errorf("failed to open export database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return db.SaveBusinesses(ctx, records)
}
