package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spigell/resume-tailor/internal/task"

	_ "github.com/lib/pq"
)

const createAuditTable = `
CREATE TABLE IF NOT EXISTS audit_records (
    id            BIGSERIAL PRIMARY KEY,
    submission_id UUID        NOT NULL,
    task_name     TEXT        NOT NULL,
    mode          TEXT        NOT NULL,
    status        TEXT        NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    raw_output    JSONB       NOT NULL
)`

const insertAuditRecord = `
INSERT INTO audit_records (submission_id, task_name, mode, status, created_at, raw_output)
VALUES ($1, $2, $3, $4, $5, $6)`

const selectLatestModes = `
SELECT task_name, mode, status
FROM audit_records
WHERE submission_id = (
    SELECT submission_id FROM audit_records ORDER BY id DESC LIMIT 1
)
ORDER BY id`

// PostgresStore persists records in an insert-only table. There is no
// UPDATE or DELETE path by design of the audit contract.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the database and ensures the audit table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging audit database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createAuditTable); err != nil {
		return nil, fmt.Errorf("creating audit table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Append inserts one record.
func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, insertAuditRecord,
		rec.SubmissionID, rec.TaskName, string(rec.Mode), string(rec.Status),
		rec.Timestamp, []byte(rec.RawOutput),
	)
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}
	return nil
}

// LatestModes returns the per-task modes of the most recently inserted
// submission.
func (s *PostgresStore) LatestModes(ctx context.Context) ([]TaskMode, error) {
	rows, err := s.db.QueryContext(ctx, selectLatestModes)
	if err != nil {
		return nil, fmt.Errorf("querying audit records: %w", err)
	}
	defer rows.Close()

	out := []TaskMode{}
	for rows.Next() {
		var tm TaskMode
		var mode, status string
		if err := rows.Scan(&tm.TaskName, &mode, &status); err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}
		tm.Mode, tm.Status = task.Mode(mode), task.Status(status)
		out = append(out, tm)
	}
	return out, rows.Err()
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
