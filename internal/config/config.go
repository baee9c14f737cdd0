package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperengineering/turtlesoup/internal/oracle"
	"github.com/hyperengineering/turtlesoup/internal/validation"
)

// Default oracle models per provider.
const (
	DefaultOpenAIModel = "gpt-5"
	DefaultGeminiModel = "gemini-2.5-pro"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Oracle     OracleConfig     `yaml:"oracle"`
	Limits     LimitsConfig     `yaml:"limits"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Backup     BackupConfig     `yaml:"backup"`
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// OracleConfig selects and tunes the language-model backend.
type OracleConfig struct {
	Provider string   `yaml:"provider"`
	Model    string   `yaml:"model"`
	Timeout  Duration `yaml:"timeout"`
	APIKey   string   `yaml:"-"` // env-only, never in YAML
}

// LimitsConfig contains per-session request limits.
type LimitsConfig struct {
	SessionRequestCap int      `yaml:"session_request_cap"`
	MinuteRequestCap  int      `yaml:"minute_request_cap"`
	Window            Duration `yaml:"window"`
	IdleTTL           Duration `yaml:"idle_ttl"`
	BlockedTTL        Duration `yaml:"blocked_ttl"`
}

// SessionsConfig contains session registry settings.
type SessionsConfig struct {
	IdleTTL       Duration `yaml:"idle_ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// CatalogConfig points at an episode file. Empty uses the built-in episodes.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// TranscriptConfig contains chat history storage settings.
// An empty path disables persistence.
type TranscriptConfig struct {
	Path string `yaml:"path"`
}

// BackupConfig controls periodic transcript snapshots. An empty bucket keeps
// snapshots local only.
type BackupConfig struct {
	Interval  Duration `yaml:"interval"`
	Path      string   `yaml:"path"`
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	UseSSL    *bool    `yaml:"use_ssl"`
	AccessKey string   `yaml:"-"` // env-only
	SecretKey string   `yaml:"-"` // env-only
}

// HTTPConfig contains the per-client request throttle.
// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP;
// enable it only behind a reverse proxy that overwrites those headers.
type HTTPConfig struct {
	RPS        float64 `yaml:"rps"`
	Burst      int     `yaml:"burst"`
	TrustProxy bool    `yaml:"trust_proxy"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → .env → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("TURTLESOUP_CONFIG_PATH", "config/turtlesoup.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	if err := loadDotEnv(getEnv("TURTLESOUP_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	cfg.resolveModel()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.resolveModel()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(90 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Oracle: OracleConfig{
			Provider: oracle.ProviderOpenAI,
			Timeout:  Duration(oracle.DefaultTimeout),
		},
		Limits: LimitsConfig{
			SessionRequestCap: 50,
			MinuteRequestCap:  10,
			Window:            Duration(time.Minute),
			IdleTTL:           Duration(time.Hour),
			BlockedTTL:        Duration(24 * time.Hour),
		},
		Sessions: SessionsConfig{
			IdleTTL:       Duration(3 * time.Hour),
			SweepInterval: Duration(10 * time.Minute),
		},
		Transcript: TranscriptConfig{
			Path: "data/turtlesoup.db",
		},
		Backup: BackupConfig{
			Interval: Duration(time.Hour),
			Path:     "data/turtlesoup.snapshot.db",
			Endpoint: "s3.amazonaws.com",
			Region:   "us-east-1",
		},
		HTTP: HTTPConfig{
			RPS:   5,
			Burst: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// loadDotEnv populates unset environment variables from a dotenv file.
// Variables already present in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("TURTLESOUP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	setDuration("TURTLESOUP_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("TURTLESOUP_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("TURTLESOUP_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Oracle
	if v := os.Getenv("TURTLESOUP_ORACLE_PROVIDER"); v != "" {
		cfg.Oracle.Provider = v
	}
	if v := os.Getenv("TURTLESOUP_ORACLE_MODEL"); v != "" {
		cfg.Oracle.Model = v
	}
	setDuration("TURTLESOUP_ORACLE_TIMEOUT", &cfg.Oracle.Timeout)
	// The key variable follows the provider's own convention.
	if v := os.Getenv(oracle.KeyEnvVar(cfg.Oracle.Provider)); v != "" {
		cfg.Oracle.APIKey = v
	}

	// Limits
	setInt("TURTLESOUP_SESSION_REQUEST_CAP", &cfg.Limits.SessionRequestCap)
	setInt("TURTLESOUP_MINUTE_REQUEST_CAP", &cfg.Limits.MinuteRequestCap)
	setDuration("TURTLESOUP_LIMIT_WINDOW", &cfg.Limits.Window)
	setDuration("TURTLESOUP_LIMIT_IDLE_TTL", &cfg.Limits.IdleTTL)
	setDuration("TURTLESOUP_LIMIT_BLOCKED_TTL", &cfg.Limits.BlockedTTL)

	// Sessions
	setDuration("TURTLESOUP_SESSION_IDLE_TTL", &cfg.Sessions.IdleTTL)
	setDuration("TURTLESOUP_SWEEP_INTERVAL", &cfg.Sessions.SweepInterval)

	// Catalog and transcript
	if v := os.Getenv("TURTLESOUP_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v, ok := os.LookupEnv("TURTLESOUP_TRANSCRIPT_PATH"); ok {
		cfg.Transcript.Path = v
	}

	// Backup
	setDuration("TURTLESOUP_BACKUP_INTERVAL", &cfg.Backup.Interval)
	if v := os.Getenv("TURTLESOUP_BACKUP_PATH"); v != "" {
		cfg.Backup.Path = v
	}
	if v := os.Getenv("TURTLESOUP_BACKUP_BUCKET"); v != "" {
		cfg.Backup.Bucket = v
	}
	if v := os.Getenv("TURTLESOUP_BACKUP_ENDPOINT"); v != "" {
		cfg.Backup.Endpoint = v
	}
	if v := os.Getenv("TURTLESOUP_BACKUP_REGION"); v != "" {
		cfg.Backup.Region = v
	}
	if v := os.Getenv("TURTLESOUP_BACKUP_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Backup.UseSSL = &b
		}
	}
	if v := os.Getenv("TURTLESOUP_BACKUP_ACCESS_KEY"); v != "" {
		cfg.Backup.AccessKey = v
	}
	if v := os.Getenv("TURTLESOUP_BACKUP_SECRET_KEY"); v != "" {
		cfg.Backup.SecretKey = v
	}

	// HTTP throttle
	if v := os.Getenv("TURTLESOUP_HTTP_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.HTTP.RPS = f
		}
	}
	setInt("TURTLESOUP_HTTP_BURST", &cfg.HTTP.Burst)
	if v := os.Getenv("TURTLESOUP_HTTP_TRUST_PROXY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.HTTP.TrustProxy = b
		}
	}

	// Log
	if v := os.Getenv("TURTLESOUP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TURTLESOUP_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func setDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// resolveModel fills in the provider's default model when none is set.
func (c *Config) resolveModel() {
	if c.Oracle.Model != "" {
		return
	}
	switch c.Oracle.Provider {
	case oracle.ProviderGemini:
		c.Oracle.Model = DefaultGeminiModel
	default:
		c.Oracle.Model = DefaultOpenAIModel
	}
}

// validate checks structural settings. Credentials are not checked here;
// a bad key only disables the oracle.
func (c *Config) validate() error {
	var col validation.Collector
	col.Add(validation.ValidateEnum("oracle.provider", c.Oracle.Provider,
		[]string{oracle.ProviderOpenAI, oracle.ProviderGemini}))
	col.Add(validation.ValidateEnum("log.format", c.Log.Format, []string{"json", "text"}))
	col.Add(validation.ValidateEnum("log.level", c.Log.Level, []string{"debug", "info", "warn", "error"}))
	if col.HasErrors() {
		e := col.Errors()[0]
		return fmt.Errorf("invalid config: %s %s", e.Field, e.Message)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", c.Server.Port)
	}
	if c.Limits.SessionRequestCap <= 0 || c.Limits.MinuteRequestCap <= 0 {
		return errors.New("invalid config: request caps must be positive")
	}
	if c.Limits.Window <= 0 {
		return errors.New("invalid config: limits.window must be positive")
	}
	if c.Oracle.Timeout <= 0 {
		return errors.New("invalid config: oracle.timeout must be positive")
	}
	if c.Sessions.SweepInterval <= 0 {
		return errors.New("invalid config: sessions.sweep_interval must be positive")
	}
	if c.Backup.Bucket != "" && c.Backup.Endpoint == "" {
		return errors.New("invalid config: backup.endpoint is required when backup.bucket is set")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
