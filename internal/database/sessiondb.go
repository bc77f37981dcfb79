package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/contactscan/internal/model"
	"github.com/nao1215/contactscan/internal/session"
)

// ErrDatabaseNotFound is returned by Open when the file is missing and
// CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("database not found")

// SessionDB is a SQLite file holding the session record and exported
// business records.
//
// Design decision: The session record is rewritten wholesale inside one
// transaction on every save, matching the whole-record contract of
// session.Backend. Row counts stay small (one row per site), and a
// transaction keeps readers from ever seeing a half-written record.
type SessionDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures SessionDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a SessionDB at dbPath.
// If CreateIfNotExists is true, the parent directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, ErrDatabaseNotFound is returned.
func Open(dbPath string, opts Options) (*SessionDB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s (use CreateIfNotExists option to create)", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite takes the open mode in the DSN: rw refuses to
	// create a missing file, rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SessionDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Path returns the database file location.
func (sdb *SessionDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *SessionDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *SessionDB) createTables(ctx context.Context) error {
	schema := `
	-- Single-row table holding the session record schema version
	CREATE TABLE IF NOT EXISTS schema_version (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER NOT NULL
	);

	-- Root URLs crawled successfully, in completion order
	CREATE TABLE IF NOT EXISTS completed_urls (
		url TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	);

	-- Root URLs whose crawl failed, in failure order
	CREATE TABLE IF NOT EXISTS failed_urls (
		url TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	);

	-- Business records saved into the session
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		website TEXT,
		record_json TEXT NOT NULL
	);

	-- Exported business records
	CREATE TABLE IF NOT EXISTS businesses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		address TEXT,
		phone TEXT,
		website TEXT,
		emails TEXT,
		social_media TEXT,
		rating REAL,
		review_count INTEGER,
		business_hours TEXT,
		price_range TEXT,
		category TEXT,
		coordinates TEXT,
		status TEXT,
		confidence_score REAL,
		scraped_at TEXT,
		distance_km REAL,
		exported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_businesses_website ON businesses(website);
	CREATE INDEX IF NOT EXISTS idx_businesses_status ON businesses(status);
	`

	_, err := sdb.db.ExecContext(ctx, schema)
	return err
}

// Load returns the stored session record, or nil when nothing was saved yet.
func (sdb *SessionDB) Load(ctx context.Context) (*session.Record, error) {
	var version int
	err := sdb.db.QueryRowContext(ctx, "SELECT version FROM schema_version WHERE id = 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}

	rec := &session.Record{Version: version}
	if rec.Completed, err = sdb.loadURLs(ctx, "completed_urls"); err != nil {
		return nil, err
	}
	if rec.Failed, err = sdb.loadURLs(ctx, "failed_urls"); err != nil {
		return nil, err
	}
	if rec.Results, err = sdb.loadResults(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

// loadURLs reads one of the URL tables in insertion order.
// table is one of the fixed table names above, never user input.
func (sdb *SessionDB) loadURLs(ctx context.Context, table string) ([]string, error) {
	rows, err := sdb.db.QueryContext(ctx, "SELECT url FROM "+table+" ORDER BY position") //nolint:gosec // Fixed table name
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	urls := make([]string, 0)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

func (sdb *SessionDB) loadResults(ctx context.Context) ([]model.Business, error) {
	rows, err := sdb.db.QueryContext(ctx, "SELECT record_json FROM results ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := make([]model.Business, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		var b model.Business
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("failed to decode result: %w", err)
		}
		results = append(results, b)
	}
	return results, rows.Err()
}

// Save replaces the stored session record with r in one transaction.
func (sdb *SessionDB) Save(ctx context.Context, r *session.Record) (err error) {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		"DELETE FROM completed_urls",
		"DELETE FROM failed_urls",
		"DELETE FROM results",
	} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear session tables: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO schema_version (id, version) VALUES (1, ?)
	ON CONFLICT(id) DO UPDATE SET version = excluded.version
	`, r.Version)
	if err != nil {
		return fmt.Errorf("failed to write schema version: %w", err)
	}

	if err = insertURLs(ctx, tx, "completed_urls", r.Completed); err != nil {
		return err
	}
	if err = insertURLs(ctx, tx, "failed_urls", r.Failed); err != nil {
		return err
	}

	for _, b := range r.Results {
		raw, mErr := json.Marshal(b)
		if mErr != nil {
			err = fmt.Errorf("failed to encode result: %w", mErr)
			return err
		}
		if _, err = tx.ExecContext(ctx, "INSERT INTO results (website, record_json) VALUES (?, ?)", b.Website, string(raw)); err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

func insertURLs(ctx context.Context, tx *sql.Tx, table string, urls []string) error {
	query := "INSERT OR IGNORE INTO " + table + " (url, position) VALUES (?, ?)" //nolint:gosec // Fixed table name
	for i, u := range urls {
		if _, err := tx.ExecContext(ctx, query, u, i); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}
