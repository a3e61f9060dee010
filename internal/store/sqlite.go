//go:build sqlite

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps checkpoints in a single SQLite table. The full checkpoint
// is stored as a JSON payload next to the columns used for listing.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func newSQLiteStore(path string) (Store, error) {
	s := NewSQLiteStore(path)
	if err := s.Init(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the schema. It is idempotent.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", s.path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite %s: %w", s.path, err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("create tables: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveCheckpoint(jobID string, checkpoint *Checkpoint) error {
	if err := checkJobID(jobID); err != nil {
		return err
	}
	if checkpoint == nil {
		return fmt.Errorf("checkpoint cannot be nil")
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	_, err = db.ExecContext(context.Background(), `
		INSERT INTO checkpoints (job_id, problem, best_fitness, dynasty, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			problem = excluded.problem,
			best_fitness = excluded.best_fitness,
			dynasty = excluded.dynasty,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, jobID, checkpoint.Config.Problem, checkpoint.BestFitness, checkpoint.Dynasty,
		checkpoint.Timestamp.UTC().Format(time.RFC3339Nano), payload)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", jobID, err)
	}

	slog.Debug("Checkpoint saved", "job_id", jobID, "dynasty", checkpoint.Dynasty, "backend", "sqlite")
	return nil
}

func (s *SQLiteStore) LoadCheckpoint(jobID string) (*Checkpoint, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRowContext(context.Background(),
		`SELECT payload FROM checkpoints WHERE job_id = ?`, jobID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{JobID: jobID}
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", jobID, err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(payload, &checkpoint); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", jobID, err)
	}
	return &checkpoint, nil
}

func (s *SQLiteStore) ListCheckpoints() ([]CheckpointInfo, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(context.Background(), `SELECT job_id, payload FROM checkpoints`)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	infos := []CheckpointInfo{}
	for rows.Next() {
		var (
			jobID   string
			payload []byte
		)
		if err := rows.Scan(&jobID, &payload); err != nil {
			return nil, fmt.Errorf("scan checkpoint row: %w", err)
		}
		var checkpoint Checkpoint
		if err := json.Unmarshal(payload, &checkpoint); err != nil {
			slog.Warn("Failed to decode checkpoint for listing", "job_id", jobID, "error", err)
			continue
		}
		infos = append(infos, checkpoint.ToInfo())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}

	sortInfos(infos)
	return infos, nil
}

func (s *SQLiteStore) DeleteCheckpoint(jobID string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(context.Background(), `DELETE FROM checkpoints WHERE job_id = ?`, jobID)
	if err != nil {
		return fmt.Errorf("delete checkpoint %s: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete checkpoint %s: %w", jobID, err)
	}
	if n == 0 {
		return &NotFoundError{JobID: jobID}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			job_id TEXT PRIMARY KEY,
			problem TEXT NOT NULL,
			best_fitness REAL NOT NULL,
			dynasty INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
