package database

import "embed"

// EmbeddedMigrations contains all SQL migration files embedded into the binary.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
