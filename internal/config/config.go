package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/db"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/retry"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is looked up in the working directory unless --config says otherwise.
const ConfigFileName = "recorder.yaml"

// DatabaseConfig describes the PostgreSQL target. The password is never
// read from the YAML file; it only comes from DB_PASS.
type DatabaseConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Name           string        `yaml:"name"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"-"`
	SSLMode        string        `yaml:"sslmode"`
	MaxConns       int           `yaml:"max_conns"`
	QueueLimit     int           `yaml:"queue_limit"`
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`
	AuthMethod     string        `yaml:"auth_method,omitempty"`
	AWSRegion      string        `yaml:"aws_region,omitempty"`
	GoogleInstance string        `yaml:"google_instance,omitempty"`
	AzureTenantID  string        `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string        `yaml:"azure_client_id,omitempty"`

	// Params are extra libpq runtime parameters, e.g. search_path.
	Params map[string]string `yaml:"params,omitempty"`

	// AzureClientSecret is secret material and, like Password, is env-only.
	AzureClientSecret string `yaml:"-"`
}

// RetryConfig tunes the retrying query executor.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay,omitempty"`
	Multiplier   float64       `yaml:"multiplier"`

	// Jitter spreads each wait by up to +/- this fraction (0 = deterministic).
	Jitter float64 `yaml:"jitter,omitempty"`
}

// HTTPConfig configures the dashboard API listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Config is the resolved application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Retry    RetryConfig    `yaml:"retry"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// Default returns a Config populated with the built-in defaults. Nothing
// identifying a database or a credential has a default.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:       recorder.DefaultHost,
			Port:       recorder.DefaultPort,
			SSLMode:    recorder.DefaultSSLMode,
			MaxConns:   recorder.DefaultMaxConns,
			QueueLimit: recorder.DefaultQueueLimit,
		},
		Retry: RetryConfig{
			MaxAttempts:  recorder.DefaultRetryMaxAttempts,
			InitialDelay: recorder.DefaultRetryInitialDelay,
			Multiplier:   recorder.DefaultRetryMultiplier,
		},
		HTTP: HTTPConfig{
			Addr:            recorder.DefaultHTTPAddr,
			ShutdownTimeout: recorder.DefaultShutdownTimeout,
		},
	}
}

// Load reads path on top of the defaults. Keys absent from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", recorder.ErrInvalidConfig, filepath.Base(path), err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when the file is missing.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrConfigNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with the environment variables that are set.
// DATABASE_URL is applied first so the individual DB_* variables can
// refine it. Parse errors name the variable but never echo its value.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if raw, ok := lookup("DATABASE_URL"); ok && strings.TrimSpace(raw) != "" {
		if err := c.applyDatabaseURL(strings.TrimSpace(raw)); err != nil {
			return err
		}
	}

	strs := map[string]*string{
		"DB_HOST":             &c.Database.Host,
		"DB_USER":             &c.Database.User,
		"DB_PASS":             &c.Database.Password,
		"DB_NAME":             &c.Database.Name,
		"DB_SSLMODE":          &c.Database.SSLMode,
		"DB_AUTH_METHOD":      &c.Database.AuthMethod,
		"AWS_REGION":          &c.Database.AWSRegion,
		"DB_GOOGLE_INSTANCE":  &c.Database.GoogleInstance,
		"AZURE_TENANT_ID":     &c.Database.AzureTenantID,
		"AZURE_CLIENT_ID":     &c.Database.AzureClientID,
		"AZURE_CLIENT_SECRET": &c.Database.AzureClientSecret,
		"HTTP_ADDR":           &c.HTTP.Addr,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"DB_PORT", &c.Database.Port},
		{"DB_MAX_CONNS", &c.Database.MaxConns},
		{"DB_QUEUE_LIMIT", &c.Database.QueueLimit},
		{"DB_RETRY_MAX_ATTEMPTS", &c.Retry.MaxAttempts},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", recorder.ErrInvalidConfig, e.key)
		}
		*e.dst = n
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"DB_RETRY_MULTIPLIER", &c.Retry.Multiplier},
		{"DB_RETRY_JITTER", &c.Retry.Jitter},
	}
	for _, e := range floats {
		v, ok := lookup(e.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", recorder.ErrInvalidConfig, e.key)
		}
		*e.dst = f
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"DB_CONNECT_TIMEOUT", &c.Database.ConnectTimeout},
		{"DB_RETRY_INITIAL_DELAY", &c.Retry.InitialDelay},
		{"DB_RETRY_MAX_DELAY", &c.Retry.MaxDelay},
		{"HTTP_SHUTDOWN_TIMEOUT", &c.HTTP.ShutdownTimeout},
	}
	for _, e := range durations {
		v, ok := lookup(e.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s must be a duration such as 5s", recorder.ErrInvalidConfig, e.key)
		}
		*e.dst = d
	}
	return nil
}

// applyDatabaseURL copies the target of a postgres:// URI into the database
// section. Pool sizing stays with max_conns and DB_MAX_CONNS.
func (c *Config) applyDatabaseURL(raw string) error {
	parsed, err := db.ParseConnectionString(raw)
	if err != nil {
		return fmt.Errorf("DATABASE_URL: %w", err)
	}

	c.Database.Host = parsed.Host
	c.Database.Port = parsed.Port
	c.Database.SSLMode = parsed.SSLMode
	if parsed.Database != "" {
		c.Database.Name = parsed.Database
	}
	if parsed.Username != "" {
		c.Database.User = parsed.Username
	}
	if parsed.Password != "" {
		c.Database.Password = parsed.Password
	}
	if parsed.ConnectTimeout > 0 {
		c.Database.ConnectTimeout = parsed.ConnectTimeout
	}
	if len(parsed.AdditionalParams) > 0 {
		if c.Database.Params == nil {
			c.Database.Params = make(map[string]string, len(parsed.AdditionalParams))
		}
		for k, v := range parsed.AdditionalParams {
			c.Database.Params[k] = v
		}
	}
	return nil
}

// ConnectionConfig converts the database section into the pool configuration.
func (c *Config) ConnectionConfig() (recorder.ConnectionConfig, error) {
	method, err := recorder.ParseAuthMethod(c.Database.AuthMethod)
	if err != nil {
		return recorder.ConnectionConfig{}, err
	}
	return recorder.ConnectionConfig{
		Host:              c.Database.Host,
		Port:              c.Database.Port,
		Database:          c.Database.Name,
		Username:          c.Database.User,
		Password:          c.Database.Password,
		SSLMode:           c.Database.SSLMode,
		MaxConns:          c.Database.MaxConns,
		QueueLimit:        c.Database.QueueLimit,
		AuthMethod:        method,
		AppName:           recorder.AppName,
		ConnectTimeout:    c.Database.ConnectTimeout,
		AWSRegion:         c.Database.AWSRegion,
		GoogleInstance:    c.Database.GoogleInstance,
		AzureTenantID:     c.Database.AzureTenantID,
		AzureClientID:     c.Database.AzureClientID,
		AzureClientSecret: c.Database.AzureClientSecret,
		AdditionalParams:  c.Database.Params,
	}, nil
}

// Validate checks the whole configuration, database section first.
func (c *Config) Validate() error {
	conn, err := c.ConnectionConfig()
	if err != nil {
		return err
	}
	if err := conn.Validate(); err != nil {
		return err
	}
	if c.Database.ConnectTimeout < 0 {
		return fmt.Errorf("%w: connect timeout must not be negative", recorder.ErrInvalidConfig)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry max attempts must be at least 1, got %d", recorder.ErrInvalidConfig, c.Retry.MaxAttempts)
	}
	if c.Retry.InitialDelay < 0 || c.Retry.MaxDelay < 0 {
		return fmt.Errorf("%w: retry delays must not be negative", recorder.ErrInvalidConfig)
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("%w: retry multiplier must be at least 1, got %g", recorder.ErrInvalidConfig, c.Retry.Multiplier)
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		return fmt.Errorf("%w: retry jitter must be between 0 and 1, got %g", recorder.ErrInvalidConfig, c.Retry.Jitter)
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("%w: HTTP listen address is empty", recorder.ErrInvalidConfig)
	}
	return nil
}

// Backoff builds the wait policy described by the retry section.
func (c *Config) Backoff() *retry.ExponentialBackoff {
	opts := []retry.BackoffOption{retry.WithInitialDelay(c.Retry.InitialDelay)}
	if c.Retry.MaxDelay > 0 {
		opts = append(opts, retry.WithMaxDelay(c.Retry.MaxDelay))
	}
	if c.Retry.Multiplier > 0 {
		opts = append(opts, retry.WithMultiplier(c.Retry.Multiplier))
	}
	if c.Retry.Jitter > 0 {
		opts = append(opts, retry.WithJitter(c.Retry.Jitter))
	}
	return retry.NewExponentialBackoff(c.Retry.MaxAttempts, opts...)
}

// RetryExecutor builds the executor used for every query.
func (c *Config) RetryExecutor() *retry.Executor {
	return retry.NewExecutor(retry.NewConnectivityClassifier(), c.Backoff())
}
