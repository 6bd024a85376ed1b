package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestExampleConfigLoads(t *testing.T) {
	var buf bytes.Buffer
	if err := DumpExampleConfig(&buf); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(writeConfig(t, buf.String()))
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}
	if !slices.Equal(cfg.Service.Namespaces, []string{"default"}) {
		t.Errorf("namespaces: %v", cfg.Service.Namespaces)
	}
	if cfg.Auth.Enabled() {
		t.Error("example config should not enable auth")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database:
  host: db
  dbname: tasks
service:
  namespaces: [default, billing]
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Database.Port != 5432 || cfg.Database.Schema != "taskbase" || cfg.Database.SSLMode != "disable" {
		t.Errorf("database defaults: %+v", cfg.Database)
	}
	if cfg.Service.NotificationBuffer != 1024 {
		t.Errorf("notification buffer: %d", cfg.Service.NotificationBuffer)
	}
	if cfg.Server.Port != 8080 || cfg.Logging.Level != "info" {
		t.Errorf("server/logging defaults: %+v %+v", cfg.Server, cfg.Logging)
	}

	want := "postgres://:@db:5432/tasks?sslmode=disable"
	if got := cfg.Database.ConnString(); got != want {
		t.Errorf("conn string: got %s, want %s", got, want)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TASKBASE_DATABASE_URL", "postgres://u:p@remote:6543/q")
	t.Setenv("TASKBASE_NAMESPACES", " default , reports,,")
	t.Setenv("TASKBASE_LOG_LEVEL", "DEBUG")

	cfg, err := Load(writeConfig(t, `
service:
  namespaces: [ignored]
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Database.ConnString() != "postgres://u:p@remote:6543/q" {
		t.Errorf("url override not applied: %s", cfg.Database.ConnString())
	}
	if !slices.Equal(cfg.Service.Namespaces, []string{"default", "reports"}) {
		t.Errorf("namespaces override: %v", cfg.Service.Namespaces)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level: %s", cfg.Logging.Level)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("TASKBASE_DATABASE_URL", "postgres://localhost/tasks")
	t.Setenv("TASKBASE_NAMESPACES", "default")

	cfg, err := LoadEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Schema != "taskbase" {
		t.Errorf("schema default: %s", cfg.Database.Schema)
	}
}

func TestValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "MissingNamespaces",
			content: "database: {host: db, dbname: tasks}\n",
			field:   "Namespaces",
		},
		{
			name:    "SeparatorInNamespace",
			content: "database: {host: db, dbname: tasks}\nservice: {namespaces: [\"a/b\"]}\n",
			field:   "Namespaces[0]",
		},
		{
			name:    "MissingDatabase",
			content: "service: {namespaces: [default]}\n",
			field:   "Host",
		},
		{
			name:    "ShortSecret",
			content: "database: {host: db, dbname: tasks}\nservice: {namespaces: [default]}\nauth: {jwt_secret: short}\n",
			field:   "JWTSecret",
		},
		{
			name:    "BadLogLevel",
			content: "database: {host: db, dbname: tasks}\nservice: {namespaces: [default]}\nlogging: {level: verbose}\n",
			field:   "Level",
		},
		{
			name:    "LogFileWithoutPath",
			content: "database: {host: db, dbname: tasks}\nservice: {namespaces: [default]}\nlogging: {output: file}\n",
			field:   "FilePath",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, f := range verr.Fields {
				if strings.HasSuffix(f.Field, tc.field) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected failure on %s, got %v", tc.field, verr)
			}
		})
	}
}

func TestEnvPortMustBeNumeric(t *testing.T) {
	t.Setenv("TASKBASE_DATABASE_PORT", "five")

	_, err := Load(writeConfig(t, "service: {namespaces: [default]}\n"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestInitLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	path := filepath.Join(t.TempDir(), "taskbase.log")
	logger, closeFn, err := InitLogger(LoggingConfig{Level: "debug", Format: "text", Output: "file", FilePath: path})
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hello", "k", "v")
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "msg=hello") {
		t.Errorf("unexpected log output: %s", data)
	}
}
