package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/contactscan/internal/model"
)

// failingBackend fails every call.
type failingBackend struct {
	loadErr error
	saveErr error
	saves   int
}

func (f *failingBackend) Load(context.Context) (*Record, error) { return nil, f.loadErr }
func (f *failingBackend) Save(context.Context, *Record) error {
	f.saves++
	return f.saveErr
}
func (f *failingBackend) Close() error { return nil }

// TestStoreAdditiveRoundTrip tests that saves accumulate across reopenings.
func TestStoreAdditiveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")

	s := Open(t.Context(), NewFileBackend(path), nil)
	if err := s.Save(t.Context(), Update{Completed: []string{"a"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened := Open(t.Context(), NewFileBackend(path), nil)
	if !reopened.IsCompleted("a") {
		t.Fatal("expected a to be completed after reload")
	}

	if err := reopened.Save(t.Context(), Update{Completed: []string{"b"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	final := Open(t.Context(), NewFileBackend(path), nil)
	for _, u := range []string{"a", "b"} {
		if !final.IsCompleted(u) {
			t.Errorf("expected %q to be completed", u)
		}
	}
	if final.IsCompleted("c") {
		t.Error("c was never saved")
	}
}

// TestStoreLoadOrDefault tests that a missing store yields an empty record.
func TestStoreLoadOrDefault(t *testing.T) {
	t.Parallel()

	s := Open(t.Context(), NewFileBackend(filepath.Join(t.TempDir(), "missing", "session.json")), nil)
	rec := s.Snapshot()

	if rec.Version != SchemaVersion {
		t.Errorf("expected version %d, got %d", SchemaVersion, rec.Version)
	}
	if len(rec.Completed) != 0 || len(rec.Failed) != 0 || len(rec.Results) != 0 {
		t.Errorf("expected empty record, got %+v", rec)
	}
}

// TestStoreMergeSemantics tests set union and list append.
func TestStoreMergeSemantics(t *testing.T) {
	t.Parallel()

	s := Open(t.Context(), nil, nil)
	ctx := t.Context()

	_ = s.Save(ctx, Update{Completed: []string{"a", "b"}, Failed: []string{"x"}, Results: []model.Business{{Name: "one"}}})
	_ = s.Save(ctx, Update{Completed: []string{"b", "c", ""}, Failed: []string{"x", "y"}, Results: []model.Business{{Name: "two"}}})

	rec := s.Snapshot()
	if !slices.Equal(rec.Completed, []string{"a", "b", "c"}) {
		t.Errorf("unexpected completed %v", rec.Completed)
	}
	if !slices.Equal(rec.Failed, []string{"x", "y"}) {
		t.Errorf("unexpected failed %v", rec.Failed)
	}
	if len(rec.Results) != 2 || rec.Results[0].Name != "one" || rec.Results[1].Name != "two" {
		t.Errorf("unexpected results %+v", rec.Results)
	}
}

// TestStoreFailedURLs tests that completed sites drop out of the retry list.
func TestStoreFailedURLs(t *testing.T) {
	t.Parallel()

	s := Open(t.Context(), nil, nil)
	_ = s.MarkFailed(t.Context(), "https://a.com/", "https://b.com/")
	_ = s.MarkCompleted(t.Context(), "https://a.com/")

	if got := s.FailedURLs(); !slices.Equal(got, []string{"https://b.com/"}) {
		t.Errorf("unexpected failed urls %v", got)
	}
	// Failed is additive: the entry stays in the record.
	if got := s.Snapshot().Failed; len(got) != 2 {
		t.Errorf("failed set must never shrink, got %v", got)
	}
}

// TestStoreSnapshotIsolation tests that snapshots are copies.
func TestStoreSnapshotIsolation(t *testing.T) {
	t.Parallel()

	s := Open(t.Context(), nil, nil)
	_ = s.MarkCompleted(t.Context(), "a")

	snap := s.Snapshot()
	snap.Completed[0] = "mutated"

	if !s.IsCompleted("a") || s.Snapshot().Completed[0] != "a" {
		t.Error("mutating a snapshot changed the store")
	}
}

// TestStoreBackendErrors tests that load errors are tolerated and save errors reported.
func TestStoreBackendErrors(t *testing.T) {
	t.Parallel()

	b := &failingBackend{loadErr: errors.New("locked"), saveErr: errors.New("disk full")}
	s := Open(t.Context(), b, nil)

	err := s.MarkCompleted(t.Context(), "a")
	if err == nil || !errors.Is(err, b.saveErr) {
		t.Errorf("expected wrapped save error, got %v", err)
	}
	if !s.IsCompleted("a") {
		t.Error("in-memory merge must survive a persistence error")
	}
}

// TestStoreConcurrentSaves tests that concurrent saves lose no updates.
func TestStoreConcurrentSaves(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	s := Open(t.Context(), NewFileBackend(path), nil)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u := fmt.Sprintf("https://site%d.com/", i)
			if err := s.MarkCompleted(t.Context(), u); err != nil {
				t.Errorf("save %d: %v", i, err)
			}
			_ = s.IsCompleted(u)
		}()
	}
	wg.Wait()

	reloaded := Open(t.Context(), NewFileBackend(path), nil)
	if got := len(reloaded.Snapshot().Completed); got != 50 {
		t.Errorf("expected 50 completed sites on disk, got %d", got)
	}
}

// TestFileBackend tests the on-disk format and permissions.
func TestFileBackend(t *testing.T) {
	t.Parallel()

	t.Run("writes versioned json with 0600", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "session.json")
		b := NewFileBackend(path)
		rec := NewRecord()
		rec.Completed = []string{"https://acme.com/"}

		if err := b.Save(t.Context(), rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected 0600, got %o", perm)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		for _, key := range []string{`"version": 1`, `"completed"`, `"failed"`, `"results"`} {
			if !strings.Contains(string(data), key) {
				t.Errorf("expected %s in %s", key, data)
			}
		}

		entries, _ := os.ReadDir(filepath.Dir(path))
		if len(entries) != 1 {
			t.Errorf("expected no temporary files left, got %d entries", len(entries))
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "session.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatal(err)
		}

		_, err := NewFileBackend(path).Load(t.Context())
		if !errors.Is(err, ErrCorruptRecord) {
			t.Errorf("expected ErrCorruptRecord, got %v", err)
		}

		s := Open(t.Context(), NewFileBackend(path), nil)
		if len(s.Snapshot().Completed) != 0 {
			t.Error("corrupt store must load as empty")
		}
	})

	t.Run("newer version is ignored", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "session.json")
		doc := `{"version": 99, "completed": ["https://acme.com/"]}`
		if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
			t.Fatal(err)
		}

		s := Open(t.Context(), NewFileBackend(path), nil)
		if s.IsCompleted("https://acme.com/") {
			t.Error("records from a newer schema must not be trusted")
		}
	})

	t.Run("legacy record without version", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "session.json")
		doc := `{"completed": ["https://acme.com/", "https://acme.com/"]}`
		if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
			t.Fatal(err)
		}

		rec := Open(t.Context(), NewFileBackend(path), nil).Snapshot()
		if rec.Version != SchemaVersion || !slices.Equal(rec.Completed, []string{"https://acme.com/"}) {
			t.Errorf("unexpected record %+v", rec)
		}
		if rec.Failed == nil || rec.Results == nil {
			t.Error("nil fields must be normalized")
		}
	})
}
