package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/taskbase/taskbase/internal/task"
)

// MockDB records statements and serves canned rows
type MockDB struct {
	ExecCalls  []call
	QueryCalls []call

	ExecErr  error
	QueryErr error
	Rows     [][]any
	PingErr  error
}

type call struct {
	SQL  string
	Args []any
}

func (m *MockDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.ExecCalls = append(m.ExecCalls, call{SQL: sql, Args: args})
	return pgconn.NewCommandTag("SELECT 1"), m.ExecErr
}

func (m *MockDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	m.QueryCalls = append(m.QueryCalls, call{SQL: sql, Args: args})
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return &mockRows{values: m.Rows, pos: -1}, nil
}

func (m *MockDB) Ping(context.Context) error {
	return m.PingErr
}

// mockRows implements pgx.Rows over in-memory values
type mockRows struct {
	values [][]any
	pos    int
	err    error
	closed bool
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func (r *mockRows) Next() bool {
	if r.closed {
		return false
	}
	r.pos++
	return r.pos < len(r.values)
}

func (r *mockRows) Values() ([]any, error) {
	return r.values[r.pos], nil
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.values[r.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destinations, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			v, ok := row[i].(int64)
			if !ok {
				return fmt.Errorf("column %d: cannot scan %T into int64", i, row[i])
			}
			*p = v
		case *string:
			v, ok := row[i].(string)
			if !ok {
				return fmt.Errorf("column %d: cannot scan %T into string", i, row[i])
			}
			*p = v
		case *[]byte:
			v, ok := row[i].([]byte)
			if !ok {
				return fmt.Errorf("column %d: cannot scan %T into []byte", i, row[i])
			}
			*p = v
		default:
			return fmt.Errorf("column %d: unsupported destination %T", i, d)
		}
	}
	return nil
}

func TestRegisterNamespaces(t *testing.T) {
	db := &MockDB{}
	s := New(db)

	if err := s.RegisterNamespaces(context.Background(), []string{"default", "billing"}); err != nil {
		t.Fatal(err)
	}
	if len(db.ExecCalls) != 1 {
		t.Fatalf("expected one statement, got %d", len(db.ExecCalls))
	}
	c := db.ExecCalls[0]
	if !strings.Contains(c.SQL, "ON CONFLICT (id) DO NOTHING") {
		t.Errorf("registration must ignore conflicts: %s", c.SQL)
	}
	if got := c.Args[0].([]string); !slices.Equal(got, []string{"default", "billing"}) {
		t.Errorf("unexpected argument %v", got)
	}
}

func TestFetchReady(t *testing.T) {
	db := &MockDB{
		Rows: [][]any{
			{int64(2), "billing", "invoice", []byte("ctx-2")},
			{int64(1), "default", "email", []byte("ctx-1")},
		},
	}
	s := New(db)

	tasks, err := s.FetchReady(context.Background(), []string{"default", "billing"})
	if err != nil {
		t.Fatal(err)
	}

	// Rows come back in the order the store returned them.
	want := []task.ReadyTask{
		{ID: 2, Namespace: "billing", TaskName: "invoice", Context: []byte("ctx-2")},
		{ID: 1, Namespace: "default", TaskName: "email", Context: []byte("ctx-1")},
	}
	if len(tasks) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(tasks))
	}
	for i := range want {
		if tasks[i].ID != want[i].ID || tasks[i].Namespace != want[i].Namespace ||
			tasks[i].TaskName != want[i].TaskName || string(tasks[i].Context) != string(want[i].Context) {
			t.Errorf("task %d: got %+v, want %+v", i, tasks[i], want[i])
		}
	}

	if len(db.QueryCalls) != 1 || !strings.Contains(db.QueryCalls[0].SQL, "fetch_tasks($1::text[])") {
		t.Errorf("unexpected queries: %+v", db.QueryCalls)
	}
}

func TestFetchReadyDecodeFailure(t *testing.T) {
	db := &MockDB{
		Rows: [][]any{
			{int64(1), "default", "email", []byte("ok")},
			{"not-an-id", "default", "email", []byte("bad")},
		},
	}

	if _, err := New(db).FetchReady(context.Background(), []string{"default"}); err == nil {
		t.Fatal("expected decode failure")
	}
}

func TestFetchReadyQueryFailure(t *testing.T) {
	boom := errors.New("connection refused")
	db := &MockDB{QueryErr: boom}

	if _, err := New(db).FetchReady(context.Background(), []string{"default"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped %v, got %v", boom, err)
	}
}

func TestPushTasks(t *testing.T) {
	db := &MockDB{}
	id := int64(3)
	cols := task.NewColumns([]task.PushTask{
		{Namespace: "default", TaskName: "a", Context: []byte{1}, Status: task.StatusBlocking},
		{ID: &id, Namespace: "default", TaskName: "b", Context: []byte{2}, Status: task.StatusReady},
	})

	if err := New(db).PushTasks(context.Background(), cols); err != nil {
		t.Fatal(err)
	}
	if len(db.ExecCalls) != 1 {
		t.Fatalf("expected one round trip, got %d", len(db.ExecCalls))
	}
	args := db.ExecCalls[0].Args
	if len(args) != 5 {
		t.Fatalf("expected five array parameters, got %d", len(args))
	}
	if statuses := args[4].([]string); !slices.Equal(statuses, []string{"blocking", "ready"}) {
		t.Errorf("statuses: %v", statuses)
	}
	if ids := args[0].([]*int64); ids[0] != nil || *ids[1] != 3 {
		t.Errorf("ids: %v", ids)
	}
}

func TestPushTasksColumnMismatch(t *testing.T) {
	db := &MockDB{}
	cols := task.Columns{Namespaces: []string{"a"}}

	if err := New(db).PushTasks(context.Background(), cols); !errors.Is(err, ErrColumnMismatch) {
		t.Fatalf("expected ErrColumnMismatch, got %v", err)
	}
	if len(db.ExecCalls) != 0 {
		t.Error("mismatched batch must not reach the database")
	}
}

func TestNotifyAndPing(t *testing.T) {
	db := &MockDB{}
	s := New(db)

	if err := s.Notify(context.Background(), "task_ready/default", "x"); err != nil {
		t.Fatal(err)
	}
	if args := db.ExecCalls[0].Args; args[0] != "task_ready/default" || args[1] != "x" {
		t.Errorf("notify args: %v", args)
	}

	db.PingErr = errors.New("down")
	if err := s.Ping(context.Background()); err == nil {
		t.Error("expected ping failure")
	}
}

func TestPushTasksOmittedContextEncodesEmpty(t *testing.T) {
	cols := task.NewColumns([]task.PushTask{
		{Namespace: "default", TaskName: "a", Status: task.StatusReady},
	})

	buf, err := pgtype.NewMap().Encode(pgtype.ByteaArrayOID, pgtype.TextFormatCode, cols.Contexts, nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(buf), "NULL") {
		t.Errorf("context column encodes a NULL element: %s", buf)
	}
}
