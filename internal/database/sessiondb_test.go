package database

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/contactscan/internal/model"
	"github.com/nao1215/contactscan/internal/session"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *SessionDB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "session.db"), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbPath := filepath.Join(t.TempDir(), "newdir", "subdir", "session.db")
		db, err := Open(dbPath, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != dbPath {
			t.Errorf("expected path %q, got %q", dbPath, db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing.db"), Options{CreateIfNotExists: false})
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Errorf("expected ErrDatabaseNotFound, got %v", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dbPath := filepath.Join(t.TempDir(), "session.db")
		db, err := Open(dbPath, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		_ = db.Close()

		db, err = Open(dbPath, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

// TestSessionDBLoadEmpty tests that a fresh database has no record.
func TestSessionDBLoadEmpty(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	rec, err := db.Load(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record, got %+v", rec)
	}
}

// TestSessionDBRoundTrip tests whole-record save and load.
func TestSessionDBRoundTrip(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := t.Context()

	rec := session.NewRecord()
	rec.Completed = []string{"https://b.com/", "https://a.com/"}
	rec.Failed = []string{"https://down.net/"}
	rec.Results = []model.Business{
		{Name: "Acme", Website: "https://a.com/", Emails: []string{"info@a.com"}, Status: model.StatusDataExtracted},
	}

	if err := db.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Version != session.SchemaVersion {
		t.Errorf("expected version %d, got %d", session.SchemaVersion, got.Version)
	}
	if !slices.Equal(got.Completed, rec.Completed) {
		t.Errorf("completed order not preserved: %v", got.Completed)
	}
	if !slices.Equal(got.Failed, rec.Failed) {
		t.Errorf("unexpected failed %v", got.Failed)
	}
	if len(got.Results) != 1 || got.Results[0].Name != "Acme" || got.Results[0].Emails[0] != "info@a.com" {
		t.Errorf("unexpected results %+v", got.Results)
	}

	// A second save replaces the record rather than duplicating rows.
	rec.Completed = append(rec.Completed, "https://c.com/")
	if err := db.Save(ctx, rec); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err = db.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Completed) != 3 || len(got.Results) != 1 {
		t.Errorf("expected rewritten record, got %+v", got)
	}
}

// TestSessionDBAsBackend tests the additive store round trip on SQLite.
func TestSessionDBAsBackend(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "session.db")
	open := func() *session.Store {
		db, err := Open(dbPath, DefaultOptions())
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		return session.Open(t.Context(), db, nil)
	}

	s := open()
	if err := s.Save(t.Context(), session.Update{Completed: []string{"a"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = s.Close()

	s = open()
	if !s.IsCompleted("a") {
		t.Fatal("expected a after reopen")
	}
	if err := s.Save(t.Context(), session.Update{Completed: []string{"b"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = s.Close()

	s = open()
	defer s.Close()
	if !s.IsCompleted("a") || !s.IsCompleted("b") {
		t.Error("expected a and b to be completed")
	}
}

// TestBusinesses tests the export table.
func TestBusinesses(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := t.Context()

	dist := 12.5
	scraped := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	records := []model.Business{
		{
			Name:            "Acme Bakery",
			Address:         "1 Main St",
			Phone:           "+1 555 0100",
			Website:         "https://acme.com/",
			Emails:          []string{"info@acme.com", "sales@acme.com"},
			SocialMedia:     map[model.SocialPlatform]string{model.SocialPlatformInstagram: "https://instagram.com/acme"},
			Rating:          4.5,
			ReviewCount:     120,
			Category:        "Bakery",
			Coordinates:     &model.Coordinates{Lat: 48.85, Lng: 2.35},
			Status:          model.StatusDataExtracted,
			ConfidenceScore: 0.8,
			ScrapedAt:       scraped,
			DistanceKM:      &dist,
		},
		{Name: "No Site Cafe", Status: model.StatusNoWebsite},
	}

	n, err := db.SaveBusinesses(ctx, records)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}

	got, err := db.ListBusinesses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 businesses, got %d", len(got))
	}

	first := got[0]
	if first.Name != "Acme Bakery" || first.ReviewCount != 120 || first.Status != model.StatusDataExtracted {
		t.Errorf("unexpected first record %+v", first)
	}
	if !slices.Equal(first.Emails, records[0].Emails) {
		t.Errorf("unexpected emails %v", first.Emails)
	}
	if first.SocialMedia[model.SocialPlatformInstagram] != "https://instagram.com/acme" {
		t.Errorf("unexpected social %v", first.SocialMedia)
	}
	if first.Coordinates == nil || first.Coordinates.Lat != 48.85 {
		t.Errorf("unexpected coordinates %v", first.Coordinates)
	}
	if first.DistanceKM == nil || *first.DistanceKM != 12.5 {
		t.Errorf("unexpected distance %v", first.DistanceKM)
	}
	if !first.ScrapedAt.Equal(scraped) {
		t.Errorf("expected %v, got %v", scraped, first.ScrapedAt)
	}

	second := got[1]
	if second.Coordinates != nil || second.DistanceKM != nil || len(second.Emails) != 0 {
		t.Errorf("expected empty optional fields, got %+v", second)
	}
	if !second.ScrapedAt.IsZero() {
		t.Errorf("expected zero time, got %v", second.ScrapedAt)
	}
}

// TestParseTimestamp tests the timestamp fallbacks.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		zero bool
	}{
		{"2024-05-01T10:30:00Z", false},
		{"2024-05-01 10:30:00", false},
		{"2024-05-01 10:30:00.123", false},
		{"", true},
		{"yesterday", true},
	}
	for _, tt := range tests {
		if got := parseTimestamp(tt.in); got.IsZero() != tt.zero {
			t.Errorf("parseTimestamp(%q) = %v", tt.in, got)
		}
	}
}
