// Package store issues the batched task-queue round trips against PostgreSQL.
//
// Task selection and insert-or-update semantics live in the stored functions
// fetch_tasks and push_tasks; this package only binds their array parameters
// and decodes their rows.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/taskbase/taskbase/internal/task"
)

const (
	registerNamespacesSQL = `INSERT INTO namespaces (id)
SELECT unnest($1::text[])
ON CONFLICT (id) DO NOTHING`

	fetchReadySQL = `SELECT id, namespace, task_name, context
FROM fetch_tasks($1::text[])`

	pushTasksSQL = `SELECT push_tasks($1::bigint[], $2::varchar[], $3::varchar[], $4::bytea[], $5::text[]::task_status[])`

	notifySQL = `SELECT pg_notify($1, $2)`
)

// ErrColumnMismatch is returned when a push batch has columns of different lengths.
var ErrColumnMismatch = errors.New("push columns have different lengths")

// DBTX is the subset of pgxpool.Pool, pgx.Conn and pgx.Tx used by Store.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Store runs task-queue statements on a DBTX
type Store struct {
	db DBTX
}

// New creates a Store
func New(db DBTX) *Store {
	return &Store{db: db}
}

// RegisterNamespaces inserts every namespace that does not exist yet.
func (s *Store) RegisterNamespaces(ctx context.Context, namespaces []string) error {
	if _, err := s.db.Exec(ctx, registerNamespacesSQL, namespaces); err != nil {
		return fmt.Errorf("failed to register namespaces: %w", err)
	}
	return nil
}

// FetchReady returns the rows fetch_tasks yields for namespaces, unmodified.
func (s *Store) FetchReady(ctx context.Context, namespaces []string) ([]task.ReadyTask, error) {
	rows, err := s.db.Query(ctx, fetchReadySQL, namespaces)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ready tasks: %w", err)
	}

	tasks, err := pgx.CollectRows(rows, scanReadyTask)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ready tasks: %w", err)
	}
	return tasks, nil
}

func scanReadyTask(row pgx.CollectableRow) (task.ReadyTask, error) {
	var t task.ReadyTask
	err := row.Scan(&t.ID, &t.Namespace, &t.TaskName, &t.Context)
	return t, err
}

// PushTasks submits the whole batch in one push_tasks call.
func (s *Store) PushTasks(ctx context.Context, cols task.Columns) error {
	n := cols.Len()
	if len(cols.IDs) != n || len(cols.TaskNames) != n || len(cols.Contexts) != n || len(cols.Statuses) != n {
		return ErrColumnMismatch
	}

	_, err := s.db.Exec(ctx, pushTasksSQL,
		cols.IDs,
		cols.Namespaces,
		cols.TaskNames,
		cols.Contexts,
		cols.Statuses,
	)
	if err != nil {
		return fmt.Errorf("failed to push %d tasks: %w", n, err)
	}
	return nil
}

// Notify sends payload on channel.
func (s *Store) Notify(ctx context.Context, channel, payload string) error {
	if _, err := s.db.Exec(ctx, notifySQL, channel, payload); err != nil {
		return fmt.Errorf("failed to notify %q: %w", channel, err)
	}
	return nil
}

// Ping checks the database connection when the underlying DBTX supports it.
func (s *Store) Ping(ctx context.Context) error {
	p, ok := s.db.(pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
