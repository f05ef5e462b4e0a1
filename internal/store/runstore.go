package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cohort/internal/logging"
	"cohort/internal/types"
)

// RunStore persists analysis runs and engine state snapshots in SQLite.
// A single connection with WAL keeps concurrent readers cheap while the
// mutex serializes writes.
type RunStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	ID        string
	CreatedAt time.Time
	Method    types.ClusteringMethod
	Groups    int
	Noise     int
	Records   int
}

// RunRecord is a fully hydrated run, including the per-record group
// assignment and the rendered report.
type RunRecord struct {
	RunSummary
	Assignment types.ClusterAssignment
	Report     string
}

// NewRunStore initializes the SQLite database at the given path.
func NewRunStore(path string) (*RunStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewRunStore")
	defer timer.Stop()

	logging.Store("Initializing RunStore at path: %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}

	s := &RunStore{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("RunStore ready at %s", path)
	return s, nil
}

func (s *RunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		created_at   TEXT NOT NULL,
		method       TEXT NOT NULL,
		group_count  INTEGER NOT NULL,
		noise_count  INTEGER NOT NULL,
		record_count INTEGER NOT NULL,
		assignment   TEXT NOT NULL,
		report       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS snapshots (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		state      BLOB NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// SaveRun records a completed analysis run together with its rendered report.
func (s *RunStore) SaveRun(result *types.RunResult, report string) error {
	timer := logging.StartTimer(logging.CategoryStore, "SaveRun")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	assignment, err := json.Marshal([]int(result.Assignment))
	if err != nil {
		return fmt.Errorf("failed to encode assignment: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO runs (id, created_at, method, group_count, noise_count, record_count, assignment, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.Timestamp.UTC().Format(time.RFC3339Nano),
		string(result.Method),
		len(result.Assignment.Groups()),
		result.Assignment.NoiseCount(),
		len(result.Assignment),
		string(assignment),
		report,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", result.RunID, err)
	}
	logging.StoreDebug("Saved run %s (%d records)", result.RunID, len(result.Assignment))
	return nil
}

// GetRun loads one run by id.
func (s *RunStore) GetRun(id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, created_at, method, group_count, noise_count, record_count, assignment, report
		FROM runs WHERE id = ?`, id)

	var rec RunRecord
	var createdAt, method, assignment string
	err := row.Scan(&rec.ID, &createdAt, &method, &rec.Groups, &rec.Noise, &rec.Records, &assignment, &rec.Report)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	rec.Method = types.ClusteringMethod(method)
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
	}
	var labels []int
	if err := json.Unmarshal([]byte(assignment), &labels); err != nil {
		return nil, fmt.Errorf("failed to decode assignment for run %s: %w", id, err)
	}
	rec.Assignment = types.ClusterAssignment(labels)
	return &rec, nil
}

// ListRuns returns the most recent runs, newest first. A limit of 0
// returns everything.
func (s *RunStore) ListRuns(limit int) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, created_at, method, group_count, noise_count, record_count
		FROM runs ORDER BY created_at DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var sum RunSummary
		var createdAt, method string
		if err := rows.Scan(&sum.ID, &createdAt, &method, &sum.Groups, &sum.Noise, &sum.Records); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		sum.Method = types.ClusteringMethod(method)
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// SaveSnapshot stores a serialized engine state blob and returns its id.
func (s *RunStore) SaveSnapshot(state []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT INTO snapshots (created_at, state) VALUES (?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), state)
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot id: %w", err)
	}
	logging.StoreDebug("Saved snapshot %d (%d bytes)", id, len(state))
	return id, nil
}

// LatestSnapshot returns the newest stored engine state, or nil when the
// store holds no snapshots yet.
func (s *RunStore) LatestSnapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT state FROM snapshots ORDER BY id DESC LIMIT 1`)
	var state []byte
	err := row.Scan(&state)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return state, nil
}

// Close releases the underlying database handle.
func (s *RunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
