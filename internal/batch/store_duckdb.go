// internal/batch/store_duckdb.go - DuckDB-backed job store
package batch

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/valpere/vtedit/internal/tile"
)

// DuckDBStore persists job metadata and progress in an embedded DuckDB
// file, replacing the in-memory-only default every Coordinator otherwise
// falls back to when no store is supplied.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore opens (creating if necessary) the DuckDB file at path and
// ensures the jobs table exists.
func NewDuckDBStore(path string) (*DuckDBStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb store: %w", err)
	}

	store := &DuckDBStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *DuckDBStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			status TEXT,
			tile_ranges JSON,
			config JSON,
			progress JSON,
			created_at TIMESTAMP,
			started_at TIMESTAMP,
			completed_at TIMESTAMP,
			error_message TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}
	return nil
}

// Close releases the underlying DuckDB connection.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

// SaveJob inserts or replaces the persisted row for job.
func (s *DuckDBStore) SaveJob(job *Job) error {
	rangesJSON, err := json.Marshal(job.TileRanges)
	if err != nil {
		return fmt.Errorf("failed to marshal tile ranges: %w", err)
	}
	configJSON, err := json.Marshal(job.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal job config: %w", err)
	}
	progressJSON, err := json.Marshal(job.Progress)
	if err != nil {
		return fmt.Errorf("failed to marshal job progress: %w", err)
	}

	var errMsg string
	if job.Error != nil {
		errMsg = job.Error.Error()
	}

	_, err = s.db.Exec(`
		DELETE FROM jobs WHERE id = ?
	`, job.ID)
	if err != nil {
		return fmt.Errorf("failed to clear existing job row: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO jobs (id, status, tile_ranges, config, progress, created_at, started_at, completed_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, string(job.Status), string(rangesJSON), string(configJSON), string(progressJSON),
		job.CreatedAt, nullableTime(job.StartedAt), nullableTime(job.CompletedAt), errMsg)
	if err != nil {
		return fmt.Errorf("failed to persist job %s: %w", job.ID, err)
	}

	return nil
}

// LoadJob retrieves a single job by ID.
func (s *DuckDBStore) LoadJob(id string) (*Job, error) {
	row := s.db.QueryRow(`
		SELECT id, status, tile_ranges, config, progress, created_at, started_at, completed_at, error_message
		FROM jobs WHERE id = ?
	`, id)

	job, err := scanJobRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job %s not found", id)
		}
		return nil, err
	}
	return job, nil
}

// DeleteJob removes a job's persisted row.
func (s *DuckDBStore) DeleteJob(id string) error {
	_, err := s.db.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	return nil
}

// ListJobs returns every persisted job.
func (s *DuckDBStore) ListJobs() ([]*Job, error) {
	rows, err := s.db.Query(`
		SELECT id, status, tile_ranges, config, progress, created_at, started_at, completed_at, error_message
		FROM jobs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJobRow(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// SaveProgress updates only the progress column for an existing job.
func (s *DuckDBStore) SaveProgress(jobID string, progress *JobProgress) error {
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal job progress: %w", err)
	}

	_, err = s.db.Exec(`UPDATE jobs SET progress = ? WHERE id = ?`, string(progressJSON), jobID)
	if err != nil {
		return fmt.Errorf("failed to update progress for job %s: %w", jobID, err)
	}
	return nil
}

// rowScanner abstracts over *sql.Row and *sql.Rows for scanJobRow.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJobRow(row rowScanner) (*Job, error) {
	var (
		id, status, rangesJSON, configJSON, progressJSON, errMsg string
		createdAt                                                time.Time
		startedAt, completedAt                                   sql.NullTime
	)

	if err := row.Scan(&id, &status, &rangesJSON, &configJSON, &progressJSON, &createdAt, &startedAt, &completedAt, &errMsg); err != nil {
		return nil, err
	}

	var ranges []*tile.TileRange
	if err := json.Unmarshal([]byte(rangesJSON), &ranges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tile ranges for job %s: %w", id, err)
	}

	var config JobConfig
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job config for job %s: %w", id, err)
	}

	var progress JobProgress
	if err := json.Unmarshal([]byte(progressJSON), &progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job progress for job %s: %w", id, err)
	}

	job := &Job{
		ID:         id,
		TileRanges: ranges,
		Config:     &config,
		Status:     JobStatus(status),
		Progress:   &progress,
		CreatedAt:  createdAt,
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	if errMsg != "" {
		job.Error = fmt.Errorf("%s", errMsg)
	}

	return job, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
