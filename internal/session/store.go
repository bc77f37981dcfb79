package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Backend loads and saves whole records.
type Backend interface {
	// Load returns the stored record, or (nil, nil) when none exists yet.
	Load(ctx context.Context) (*Record, error)

	// Save replaces the stored record with r.
	Save(ctx context.Context, r *Record) error

	// Close releases backend resources.
	Close() error
}

// Store is the in-memory session record plus its backend.
//
// Reads (IsCompleted, Snapshot, FailedURLs) take a read lock and may run
// concurrently. Save is serialized: one merge-and-persist at a time, so two
// sessions finishing together cannot lose each other's update.
type Store struct {
	backend Backend
	logger  *slog.Logger

	// saveMu serializes Save so records reach the backend in merge order.
	saveMu sync.Mutex

	mu        sync.RWMutex
	record    *Record
	completed map[string]struct{}
}

// Open loads the record from backend. A nil backend keeps the session in
// memory only. Load errors are logged and produce an empty record.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		backend:   backend,
		logger:    logger,
		record:    NewRecord(),
		completed: make(map[string]struct{}),
	}

	if backend != nil {
		rec, err := backend.Load(ctx)
		switch {
		case err != nil:
			logger.Warn("failed to load session, starting empty", "error", err)
		case rec != nil:
			if err := rec.normalize(); err != nil {
				logger.Warn("ignoring incompatible session record", "version", rec.Version, "error", err)
			} else {
				s.record = rec
			}
		}
	}

	for _, u := range s.record.Completed {
		s.completed[u] = struct{}{}
	}
	logger.Debug("session loaded",
		"completed", len(s.record.Completed),
		"failed", len(s.record.Failed),
		"results", len(s.record.Results),
	)
	return s
}

// Save merges u into the record and persists the full record.
// The in-memory merge is kept even when persisting fails.
func (s *Store) Save(ctx context.Context, u Update) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.record.apply(u)
	for _, c := range u.Completed {
		if c != "" {
			s.completed[c] = struct{}{}
		}
	}
	snapshot := s.record.Clone()
	s.mu.Unlock()

	if s.backend == nil {
		return nil
	}
	if err := s.backend.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// MarkCompleted records rawURL as completed and persists the record.
func (s *Store) MarkCompleted(ctx context.Context, rawURL string) error {
	return s.Save(ctx, Update{Completed: []string{rawURL}})
}

// MarkFailed records rawURLs as failed and persists the record.
func (s *Store) MarkFailed(ctx context.Context, rawURLs ...string) error {
	return s.Save(ctx, Update{Failed: rawURLs})
}

// IsCompleted reports whether rawURL is in the completed set.
func (s *Store) IsCompleted(rawURL string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.completed[rawURL]
	return ok
}

// Snapshot returns a copy of the current record.
func (s *Store) Snapshot() *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Clone()
}

// FailedURLs returns failed root URLs that have not been completed since,
// in the order they first failed.
func (s *Store) FailedURLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.record.Failed))
	for _, u := range s.record.Failed {
		if _, done := s.completed[u]; !done {
			out = append(out, u)
		}
	}
	return slices.Clip(out)
}

// Close closes the backend.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
