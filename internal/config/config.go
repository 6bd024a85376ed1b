// Package config loads taskbase configuration from YAML with TASKBASE_
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Service  ServiceConfig  `yaml:"service"`
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig locates the store. URL wins over the individual fields.
type DatabaseConfig struct {
	URL      string     `yaml:"url" validate:"omitempty,url"`
	Host     string     `yaml:"host" validate:"required_without=URL"`
	Port     int        `yaml:"port" validate:"omitempty,min=1,max=65535"`
	User     string     `yaml:"user"`
	Password string     `yaml:"password"`
	DBName   string     `yaml:"dbname" validate:"required_without=URL"`
	SSLMode  string     `yaml:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Schema   string     `yaml:"schema" validate:"required"`
	Pool     PoolConfig `yaml:"pool"`
}

// PoolConfig defines connection pool settings
type PoolConfig struct {
	MaxConns                 int `yaml:"max_conns" validate:"min=0"`
	MinConns                 int `yaml:"min_conns" validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetimeMinutes   int `yaml:"max_conn_lifetime_minutes" validate:"min=0"`
	MaxConnIdleTimeMinutes   int `yaml:"max_conn_idle_time_minutes" validate:"min=0"`
	HealthCheckPeriodSeconds int `yaml:"health_check_period_seconds" validate:"min=0"`
}

// ServiceConfig lists the namespaces this instance may observe and mutate.
type ServiceConfig struct {
	Namespaces         []string `yaml:"namespaces" validate:"required,min=1,dive,required,excludesall=/"`
	NotificationBuffer int      `yaml:"notification_buffer" validate:"min=0"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms" validate:"min=0"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms" validate:"min=0"`
}

// AuthConfig enables bearer-token auth on the HTTP API when JWTSecret is set.
type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret" validate:"omitempty,min=32"`
	JWTExpiryHours int    `yaml:"jwt_expiry_hours" validate:"min=0"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format   string `yaml:"format" validate:"omitempty,oneof=json text"`
	Output   string `yaml:"output" validate:"omitempty,oneof=stdout stderr file"`
	FilePath string `yaml:"file_path" validate:"required_if=Output file"`
}

// FieldError describes one failed validation rule
type FieldError struct {
	Field string
	Rule  string
	Param string
}

// ValidationError lists every field that failed validation
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		if f.Param != "" {
			parts[i] = fmt.Sprintf("%s failed %s=%s", f.Field, f.Rule, f.Param)
		} else {
			parts[i] = fmt.Sprintf("%s failed %s", f.Field, f.Rule)
		}
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

var validate = validator.New()

// Default returns a configuration with every optional value filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads configuration from file and applies environment variable overrides
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadEnv builds a configuration from defaults and TASKBASE_ variables only.
func LoadEnv() (*Config, error) {
	cfg := &Config{}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct rules and returns a *ValidationError on failure
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field: fe.Namespace(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}

// ApplyDefaults fills unset optional values
func (c *Config) ApplyDefaults() {
	if c.Database.URL == "" {
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	}
	if c.Database.Schema == "" {
		c.Database.Schema = "taskbase"
	}
	c.Database.Pool.ApplyDefaults()

	if c.Service.NotificationBuffer == 0 {
		c.Service.NotificationBuffer = 1024
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeoutMS == 0 {
		c.Server.ReadTimeoutMS = 30000
	}
	if c.Server.WriteTimeoutMS == 0 {
		c.Server.WriteTimeoutMS = 30000
	}

	if c.Auth.JWTExpiryHours == 0 {
		c.Auth.JWTExpiryHours = 24
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// applyEnvOverrides checks for environment variables with TASKBASE_ prefix
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TASKBASE_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("TASKBASE_DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("TASKBASE_DATABASE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Fields: []FieldError{{Field: "TASKBASE_DATABASE_PORT", Rule: "numeric"}}}
		}
		cfg.Database.Port = port
	}
	if v := os.Getenv("TASKBASE_DATABASE_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("TASKBASE_DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("TASKBASE_DATABASE_NAME"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("TASKBASE_DATABASE_SCHEMA"); v != "" {
		cfg.Database.Schema = v
	}

	if v := os.Getenv("TASKBASE_NAMESPACES"); v != "" {
		cfg.Service.Namespaces = splitList(v)
	}

	if v := os.Getenv("TASKBASE_AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if v := os.Getenv("TASKBASE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("TASKBASE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ReadTimeout returns the read timeout as a duration
func (s *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

// WriteTimeout returns the write timeout as a duration
func (s *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

// Addr returns host:port
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ConnString returns the PostgreSQL connection string in postgres:// URL format
func (d *DatabaseConfig) ConnString() string {
	if d.URL != "" {
		return d.URL
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}

	query := url.Values{}
	if d.SSLMode != "" {
		query.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = query.Encode()

	return u.String()
}

// ApplyDefaults sets default values for pool configuration
func (p *PoolConfig) ApplyDefaults() {
	if p.MaxConns == 0 {
		p.MaxConns = 10
	}
	if p.MinConns == 0 {
		p.MinConns = 1
	}
	if p.MaxConnLifetimeMinutes == 0 {
		p.MaxConnLifetimeMinutes = 60
	}
	if p.MaxConnIdleTimeMinutes == 0 {
		p.MaxConnIdleTimeMinutes = 10
	}
	if p.HealthCheckPeriodSeconds == 0 {
		p.HealthCheckPeriodSeconds = 30
	}
}

// MaxConnLifetime returns the max connection lifetime as a duration
func (p *PoolConfig) MaxConnLifetime() time.Duration {
	return time.Duration(p.MaxConnLifetimeMinutes) * time.Minute
}

// MaxConnIdleTime returns the max connection idle time as a duration
func (p *PoolConfig) MaxConnIdleTime() time.Duration {
	return time.Duration(p.MaxConnIdleTimeMinutes) * time.Minute
}

// HealthCheckPeriod returns the health check period as a duration
func (p *PoolConfig) HealthCheckPeriod() time.Duration {
	return time.Duration(p.HealthCheckPeriodSeconds) * time.Second
}

// JWTExpiry returns JWT expiry as duration
func (a *AuthConfig) JWTExpiry() time.Duration {
	return time.Duration(a.JWTExpiryHours) * time.Hour
}

// Enabled reports whether API auth is configured
func (a *AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}
