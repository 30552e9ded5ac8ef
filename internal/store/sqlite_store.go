// SQLite store implementation.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore is the SQLite-backed data store.
// Thread-safe; a single store is shared by the pipeline and the lookup client.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

var _ Storer = (*SQLiteStore)(nil)

// schema defines all tables for the persistent knowledge layer.
const schema = `
-- Pilots: cross-run affiliation memory, keyed by normalized pilot name.
-- No ship column on purpose; ships go stale between sessions.
CREATE TABLE IF NOT EXISTS pilots (
    pilot TEXT PRIMARY KEY,
    corp TEXT,
    alliance TEXT,
    first_seen INTEGER NOT NULL,
    last_seen INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pilots_corp ON pilots(corp);

-- Affiliations: corp ticker -> alliance ticker, split by evidence source.
CREATE TABLE IF NOT EXISTS affiliations (
    source TEXT NOT NULL,
    corp TEXT NOT NULL,
    alliance TEXT NOT NULL,
    first_seen INTEGER NOT NULL,
    last_seen INTEGER NOT NULL,
    PRIMARY KEY (source, corp)
);

-- LookupCache: memoized external API answers, negatives included.
CREATE TABLE IF NOT EXISTS lookup_cache (
    kind TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL DEFAULT '',
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (kind, key)
);

-- Runs: one row per pipeline invocation.
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    log_folder TEXT,
    files INTEGER DEFAULT 0,
    events INTEGER DEFAULT 0,
    fights INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// Pilots
// =============================================================================

// LoadPilots returns every remembered pilot.
func (s *SQLiteStore) LoadPilots() ([]*PilotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT pilot, corp, alliance, first_seen, last_seen FROM pilots
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PilotRecord
	for rows.Next() {
		var rec PilotRecord
		var corp, alliance sql.NullString
		if err := rows.Scan(&rec.Pilot, &corp, &alliance, &rec.FirstSeen, &rec.LastSeen); err != nil {
			return nil, err
		}
		rec.Corp = corp.String
		rec.Alliance = alliance.String
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// SavePilots upserts pilot records. Empty incoming fields never blank out
// stored values, and last_seen only moves forward.
func (s *SQLiteStore) SavePilots(records []*PilotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO pilots (pilot, corp, alliance, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(pilot) DO UPDATE SET
			corp = CASE WHEN excluded.corp != '' THEN excluded.corp ELSE pilots.corp END,
			alliance = CASE WHEN excluded.alliance != '' THEN excluded.alliance ELSE pilots.alliance END,
			first_seen = MIN(pilots.first_seen, excluded.first_seen),
			last_seen = MAX(pilots.last_seen, excluded.last_seen)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.Pilot == "" {
			continue
		}
		if _, err := stmt.Exec(rec.Pilot, rec.Corp, rec.Alliance, rec.FirstSeen, rec.LastSeen); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountPilots returns the number of remembered pilots.
func (s *SQLiteStore) CountPilots() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM pilots`).Scan(&n)
	return n, err
}

// =============================================================================
// Affiliations
// =============================================================================

// LoadAffiliations returns all corp->alliance records for one source.
func (s *SQLiteStore) LoadAffiliations(source AffiliationSource) ([]*AffiliationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT source, corp, alliance, first_seen, last_seen
		FROM affiliations WHERE source = ?
	`, string(source))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AffiliationRecord
	for rows.Next() {
		var rec AffiliationRecord
		if err := rows.Scan(&rec.Source, &rec.Corp, &rec.Alliance, &rec.FirstSeen, &rec.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// SaveAffiliations upserts records under one source. Last observation wins
// on the alliance column, matching the in-memory database semantics.
func (s *SQLiteStore) SaveAffiliations(source AffiliationSource, records []*AffiliationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO affiliations (source, corp, alliance, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source, corp) DO UPDATE SET
			alliance = CASE WHEN excluded.last_seen >= affiliations.last_seen
				THEN excluded.alliance ELSE affiliations.alliance END,
			first_seen = MIN(affiliations.first_seen, excluded.first_seen),
			last_seen = MAX(affiliations.last_seen, excluded.last_seen)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.Corp == "" || rec.Alliance == "" {
			continue
		}
		if _, err := stmt.Exec(string(source), rec.Corp, rec.Alliance, rec.FirstSeen, rec.LastSeen); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// Lookup cache
// =============================================================================

// LoadCache returns every cached answer of one kind.
func (s *SQLiteStore) LoadCache(kind string) ([]*CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT kind, key, value, updated_at FROM lookup_cache WHERE kind = ?
	`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CacheEntry
	for rows.Next() {
		var e CacheEntry
		if err := rows.Scan(&e.Kind, &e.Key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// SaveCache upserts cache entries, negatives included.
func (s *SQLiteStore) SaveCache(entries []*CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO lookup_cache (kind, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.Kind == "" || e.Key == "" {
			continue
		}
		if _, err := stmt.Exec(e.Kind, e.Key, e.Value, e.UpdatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// Runs
// =============================================================================

// RecordRun inserts one run row.
func (s *SQLiteStore) RecordRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO runs (id, started_at, finished_at, log_folder, files, events, fights)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.FinishedAt, run.LogFolder, run.Files, run.Events, run.Fights)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, log_folder, files, events, fights
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		var r Run
		var folder sql.NullString
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &folder, &r.Files, &r.Events, &r.Fights); err != nil {
			return nil, err
		}
		r.LogFolder = folder.String
		out = append(out, &r)
	}
	return out, rows.Err()
}
