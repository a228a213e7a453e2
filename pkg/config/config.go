// Package config provides layered configuration for taskflow: defaults,
// then an optional JSON file, then environment variable overrides, with
// presets for common deployment shapes and validation that produces
// actionable error messages.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the complete taskflow configuration: scheduler resource
// bounds, the HTTP control surface, the audit sink, and logging.
type Config struct {
	Scheduler SchedulerConfig `json:"scheduler"`
	HTTP      HTTPConfig      `json:"http"`
	Audit     AuditConfig     `json:"audit"`
	Logging   LoggingConfig   `json:"logging"`
}

// SchedulerConfig bounds queue capacity, worker counts, and timing.
type SchedulerConfig struct {
	QueueCapacity        int `json:"queue_capacity"`
	ProcessWorkers       int `json:"process_workers"`
	ThreadWorkers        int `json:"thread_workers"`
	ThreadBuffer         int `json:"thread_buffer"`
	DispatchIntervalMS   int `json:"dispatch_interval_ms"`
	ShutdownGraceSeconds int `json:"shutdown_grace_seconds"`
	DefaultMaxRetries    int `json:"default_max_retries"`
}

// HTTPConfig controls the scheduler's control-surface listener.
type HTTPConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// AuditConfig selects and configures the audit sink.
//
// Driver is "memory" (default, non-durable) or "postgres". DSN and
// MigrationsPath are only consulted when Driver is "postgres".
type AuditConfig struct {
	Driver         string `json:"driver"`
	DSN            string `json:"dsn,omitempty"`
	MigrationsPath string `json:"migrations_path,omitempty"`
}

// LoggingConfig selects the logger's level, format, and destination.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Output string `json:"output"`
	File   string `json:"file"`
}

// DefaultConfig returns balanced settings suitable for local development.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			QueueCapacity:        1000,
			ProcessWorkers:       4,
			ThreadWorkers:        8,
			ThreadBuffer:         16,
			DispatchIntervalMS:   20,
			ShutdownGraceSeconds: 10,
			DefaultMaxRetries:    2,
		},
		HTTP: HTTPConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Audit: AuditConfig{
			Driver: "memory",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "console",
		},
	}
}

// QuickstartConfig favors low resource usage and immediate usability
// over throughput: a small queue, few workers, verbose logging.
func QuickstartConfig() *Config {
	c := DefaultConfig()
	c.Scheduler.QueueCapacity = 100
	c.Scheduler.ProcessWorkers = 1
	c.Scheduler.ThreadWorkers = 2
	c.Scheduler.ThreadBuffer = 4
	c.Logging.Level = "debug"
	return c
}

// PerformanceConfig favors throughput: a large queue, many workers, and
// a tighter dispatch interval, at the cost of more background CPU spent
// polling.
func PerformanceConfig() *Config {
	c := DefaultConfig()
	c.Scheduler.QueueCapacity = 10000
	c.Scheduler.ProcessWorkers = 16
	c.Scheduler.ThreadWorkers = 64
	c.Scheduler.ThreadBuffer = 128
	c.Scheduler.DispatchIntervalMS = 5
	c.Logging.Level = "warn"
	return c
}

// GetPresetConfig resolves a named preset: "default", "quickstart", or
// "performance".
func GetPresetConfig(preset string) (*Config, error) {
	switch preset {
	case "", "default":
		return DefaultConfig(), nil
	case "quickstart":
		return QuickstartConfig(), nil
	case "performance":
		return PerformanceConfig(), nil
	default:
		return nil, fmt.Errorf("unknown config preset %q: valid presets are 'default', 'quickstart', 'performance'", preset)
	}
}

// LoadConfig builds a Config from defaults, an optional JSON file, and
// environment variable overrides, then validates the result. A missing
// configPath is not an error — it yields pure defaults-plus-environment.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("config: load file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies TASKFLOW_*-prefixed environment
// variables on top of file/default values. Invalid integer or boolean
// values are silently ignored so a bad override never blocks startup.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv("TASKFLOW_QUEUE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scheduler.QueueCapacity = n
		}
	}
	if v := os.Getenv("TASKFLOW_PROCESS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scheduler.ProcessWorkers = n
		}
	}
	if v := os.Getenv("TASKFLOW_THREAD_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scheduler.ThreadWorkers = n
		}
	}
	if v := os.Getenv("TASKFLOW_THREAD_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scheduler.ThreadBuffer = n
		}
	}
	if v := os.Getenv("TASKFLOW_DISPATCH_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scheduler.DispatchIntervalMS = n
		}
	}
	if v := os.Getenv("TASKFLOW_SHUTDOWN_GRACE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scheduler.ShutdownGraceSeconds = n
		}
	}
	if v := os.Getenv("TASKFLOW_DEFAULT_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scheduler.DefaultMaxRetries = n
		}
	}

	if v := os.Getenv("TASKFLOW_HTTP_HOST"); v != "" {
		c.HTTP.Host = v
	}
	if v := os.Getenv("TASKFLOW_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HTTP.Port = n
		}
	}

	if v := os.Getenv("TASKFLOW_AUDIT_DRIVER"); v != "" {
		c.Audit.Driver = v
	}
	if v := os.Getenv("TASKFLOW_AUDIT_DSN"); v != "" {
		c.Audit.DSN = v
	}
	if v := os.Getenv("TASKFLOW_AUDIT_MIGRATIONS_PATH"); v != "" {
		c.Audit.MigrationsPath = v
	}

	if v := os.Getenv("TASKFLOW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TASKFLOW_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("TASKFLOW_LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}
	if v := os.Getenv("TASKFLOW_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// Validate checks field ranges and cross-field consistency, returning an
// error that names the offending field and a corrective suggestion.
func (c *Config) Validate() error {
	if c.Scheduler.QueueCapacity <= 0 {
		return fmt.Errorf("scheduler.queue_capacity must be positive, got %d", c.Scheduler.QueueCapacity)
	}
	if c.Scheduler.ProcessWorkers <= 0 {
		return fmt.Errorf("scheduler.process_workers must be positive, got %d", c.Scheduler.ProcessWorkers)
	}
	if c.Scheduler.ThreadWorkers <= 0 {
		return fmt.Errorf("scheduler.thread_workers must be positive, got %d", c.Scheduler.ThreadWorkers)
	}
	if c.Scheduler.DispatchIntervalMS <= 0 {
		return fmt.Errorf("scheduler.dispatch_interval_ms must be positive, got %d", c.Scheduler.DispatchIntervalMS)
	}
	if c.Scheduler.DefaultMaxRetries < 0 {
		return fmt.Errorf("scheduler.default_max_retries cannot be negative, got %d", c.Scheduler.DefaultMaxRetries)
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be in 1-65535, got %d", c.HTTP.Port)
	}

	switch c.Audit.Driver {
	case "memory":
	case "postgres":
		if c.Audit.DSN == "" {
			return fmt.Errorf("audit.dsn is required when audit.driver is 'postgres'")
		}
	default:
		return fmt.Errorf("audit.driver must be 'memory' or 'postgres', got %q", c.Audit.Driver)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", c.Logging.Format)
	}
	switch c.Logging.Output {
	case "console", "file", "both":
		if c.Logging.Output != "console" && c.Logging.File == "" {
			return fmt.Errorf("logging.file is required when logging.output is %q", c.Logging.Output)
		}
	default:
		return fmt.Errorf("logging.output must be 'console', 'file', or 'both', got %q", c.Logging.Output)
	}

	return nil
}

// SaveToFile writes the configuration as indented JSON to path.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
