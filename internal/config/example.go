package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DumpExampleConfig writes an example configuration to the provided writer
func DumpExampleConfig(w io.Writer) error {
	example := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "taskbase",
			Password: "changeme",
			DBName:   "taskbase",
			SSLMode:  "disable",
			Schema:   "taskbase",
			Pool: PoolConfig{
				MaxConns:                 10,
				MinConns:                 1,
				MaxConnLifetimeMinutes:   60,
				MaxConnIdleTimeMinutes:   10,
				HealthCheckPeriodSeconds: 30,
			},
		},
		Service: ServiceConfig{
			Namespaces:         []string{"default"},
			NotificationBuffer: 1024,
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeoutMS:  30000,
			WriteTimeoutMS: 30000,
		},
		Auth: AuthConfig{
			JWTSecret:      "",
			JWTExpiryHours: 24,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}

	header := `# =============================================================================
# taskbase example configuration
# =============================================================================
# Environment variable overrides follow the pattern: TASKBASE_<SECTION>_<KEY>
# Example: TASKBASE_DATABASE_URL, TASKBASE_NAMESPACES=default,billing
# Setting auth.jwt_secret (min 32 chars) enables bearer-token auth on the API.
# =============================================================================

`
	if _, err := fmt.Fprint(w, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(example); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}

	return nil
}
