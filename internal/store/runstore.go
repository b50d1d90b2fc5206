// Package store persists rendered run documents to disk, keeps a
// SQLite index of sealed runs, and holds the latest RunResult in
// memory for the query endpoint.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"futurecast/internal/logging"
	"futurecast/internal/scenario"

	_ "github.com/mattn/go-sqlite3"
)

// RunStore owns run persistence. The latest-run slot is replaced
// atomically on publish; readers never observe a half-built run.
type RunStore struct {
	docsDir string
	db      *sql.DB

	latestMu sync.RWMutex
	latest   *scenario.RunResult

	nameMu    sync.Mutex
	lastStamp string
	seq       int

	now func() time.Time // injectable for tests
}

// NewRunStore opens (or creates) the store. docsDir receives rendered
// documents; dbPath is the SQLite run index.
func NewRunStore(docsDir, dbPath string) (*RunStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewRunStore")
	defer timer.Stop()

	if err := os.MkdirAll(docsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create docs directory: %w", err)
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}

	s := &RunStore{
		docsDir: docsDir,
		db:      db,
		now:     time.Now,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("run store opened: docs=%s db=%s", docsDir, dbPath)
	return s, nil
}

func (s *RunStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id             TEXT PRIMARY KEY,
			topic          TEXT NOT NULL,
			started_at     TIMESTAMP NOT NULL,
			sealed_at      TIMESTAMP NOT NULL,
			scenario_count INTEGER NOT NULL,
			item_count     INTEGER NOT NULL,
			doc_path       TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_sealed_at ON runs(sealed_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate run index: %w", err)
	}
	return nil
}

// Persist writes the rendered document under a timestamp-derived name
// that is strictly monotonic within the process. Returns the file path.
func (s *RunStore) Persist(doc string) (string, error) {
	s.nameMu.Lock()
	stamp := s.now().UTC().Format("2006-01-02T15-04-05")
	if stamp == s.lastStamp {
		s.seq++
	} else {
		s.lastStamp = stamp
		s.seq = 0
	}
	name := fmt.Sprintf("futurecast_%s.md", stamp)
	if s.seq > 0 {
		name = fmt.Sprintf("futurecast_%s_%d.md", stamp, s.seq)
	}
	s.nameMu.Unlock()

	path := filepath.Join(s.docsDir, name)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		logging.StoreError("failed to write document %s: %v", path, err)
		return "", fmt.Errorf("failed to write document: %w", err)
	}

	logging.Store("document persisted: %s (%d bytes)", path, len(doc))
	return path, nil
}

// Record inserts a sealed run into the run index.
func (s *RunStore) Record(r *scenario.RunResult, docPath string) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, topic, started_at, sealed_at, scenario_count, item_count, doc_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Topic, r.StartedAt, r.SealedAt, len(r.Scenarios), r.ItemCount(), docPath,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Publish atomically replaces the latest-run slot. Call only with a
// sealed run.
func (s *RunStore) Publish(r *scenario.RunResult) {
	s.latestMu.Lock()
	s.latest = r
	s.latestMu.Unlock()
	logging.Store("run published: id=%s scenarios=%d", r.ID, len(r.Scenarios))
}

// Latest returns the most recently published run, or nil before the
// first successful run.
func (s *RunStore) Latest() *scenario.RunResult {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	return s.latest
}

// Commit persists, records, and publishes a sealed run in that order.
// Publishing happens last so the query endpoint never serves a run
// whose document failed to persist.
func (s *RunStore) Commit(r *scenario.RunResult, doc string) (string, error) {
	path, err := s.Persist(doc)
	if err != nil {
		return "", err
	}
	if err := s.Record(r, path); err != nil {
		return "", err
	}
	s.Publish(r)
	return path, nil
}

// RunRecord is one row of the run index.
type RunRecord struct {
	ID            string    `json:"id"`
	Topic         string    `json:"topic"`
	StartedAt     time.Time `json:"startedAt"`
	SealedAt      time.Time `json:"sealedAt"`
	ScenarioCount int       `json:"scenarioCount"`
	ItemCount     int       `json:"itemCount"`
	DocPath       string    `json:"docPath"`
}

// Runs returns up to limit run index rows, most recent first.
func (s *RunStore) Runs(limit int) ([]RunRecord, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, topic, started_at, sealed_at, scenario_count, item_count, doc_path
		 FROM runs ORDER BY sealed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Topic, &r.StartedAt, &r.SealedAt, &r.ScenarioCount, &r.ItemCount, &r.DocPath); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the run index database.
func (s *RunStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// docName reports whether a file name looks like a persisted document.
// Used by maintenance tooling and tests.
func docName(name string) bool {
	return strings.HasPrefix(name, "futurecast_") && strings.HasSuffix(name, ".md")
}
