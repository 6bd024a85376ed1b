package database

import (
	"io/fs"
	"net/url"
	"strings"
	"testing"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(EmbeddedMigrations, "migrations/*.sql")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) < 2 {
		t.Fatalf("expected schema and function migrations, got %v", files)
	}

	for _, name := range files {
		data, err := fs.ReadFile(EmbeddedMigrations, name)
		if err != nil {
			t.Fatal(err)
		}
		content := string(data)
		if !strings.Contains(content, "-- +goose Up") || !strings.Contains(content, "-- +goose Down") {
			t.Errorf("%s is missing goose annotations", name)
		}
	}
}

func TestMigrationsDefineStoreFunctions(t *testing.T) {
	data, err := fs.ReadFile(EmbeddedMigrations, "migrations/00002_functions.sql")
	if err != nil {
		t.Fatal(err)
	}
	for _, fn := range []string{
		"FUNCTION fetch_tasks(",
		"FUNCTION push_tasks(",
		"pg_notify('task_ready/'",
		"SELECT u.ns, u.name, COALESCE(u.ctx, '\\x'::bytea), u.st",
		"context = COALESCE(u.ctx, '\\x'::bytea)",
	} {
		if !strings.Contains(string(data), fn) {
			t.Errorf("missing %s", fn)
		}
	}
}

func TestWithSearchPath(t *testing.T) {
	got, err := withSearchPath("postgres://u:p@db:5432/tasks?sslmode=disable", "queue")
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("search_path") != "queue" || q.Get("sslmode") != "disable" {
		t.Errorf("unexpected query: %s", u.RawQuery)
	}
	if u.Host != "db:5432" || u.Path != "/tasks" {
		t.Errorf("url rewritten: %s", got)
	}
}
