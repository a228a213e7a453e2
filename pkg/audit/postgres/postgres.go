// Package postgres provides a durable audit.Sink backed by PostgreSQL,
// using pgx for queries and golang-migrate for schema management — the
// same split the teacher's compliance storage layer uses.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/ashgrove-labs/taskflow/pkg/audit"
)

// Store is an audit.Sink backed by a `task_audit_log` table.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn and returns a ready Store. It does not run
// migrations; call Migrate separately so callers can control when
// schema changes happen relative to application startup.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("audit/postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit/postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate applies every pending migration under migrationsPath
// (a `file://` source directory of .up.sql/.down.sql pairs) to dsn.
func Migrate(dsn, migrationsPath string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("audit/postgres: open for migration: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("audit/postgres: migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("audit/postgres: init migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("audit/postgres: apply migrations: %w", err)
	}
	return nil
}

const insertEntry = `
INSERT INTO task_audit_log (task_id, task_name, event, worker_id, error_message, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

func (s *Store) Record(ctx context.Context, entry audit.Entry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.pool.Exec(ctx, insertEntry,
		entry.TaskID, entry.TaskName, entry.Event, entry.WorkerID, entry.ErrorMessage, ts)
	if err != nil {
		return fmt.Errorf("audit/postgres: record entry: %w", err)
	}
	return nil
}

const selectHistory = `
SELECT task_id, task_name, event, worker_id, error_message, occurred_at
FROM task_audit_log
WHERE task_id = $1
ORDER BY occurred_at ASC
`

func (s *Store) History(ctx context.Context, taskID string) ([]audit.Entry, error) {
	rows, err := s.pool.Query(ctx, selectHistory, taskID)
	if err != nil {
		return nil, fmt.Errorf("audit/postgres: query history: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.TaskID, &e.TaskName, &e.Event, &e.WorkerID, &e.ErrorMessage, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("audit/postgres: scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit/postgres: iterate history: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
