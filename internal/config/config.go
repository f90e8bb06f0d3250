package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jspm/jspm-packages/internal/errors"
)

const (
	// ConfigFileName is the base name searched for when no file is given.
	ConfigFileName = "jspm-packages"

	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "JSPM"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	// DefaultRegistryURL is the public NPM registry.
	DefaultRegistryURL = "https://registry.npmjs.org"

	// DefaultGeneratorURL is the public import map generator.
	DefaultGeneratorURL = "https://generator.jspm.io"

	// DefaultCookieName is the session cookie name.
	DefaultCookieName = "jspm_sid"
)

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Session   SessionConfig   `mapstructure:"session"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// file is the configuration file that was read, if any.
	file string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Dev pretty-prints HTML and disables caching headers.
	Dev bool `mapstructure:"dev"`

	// Featured lists the packages shown on the home page.
	Featured []string `mapstructure:"featured"`
}

// RegistryConfig contains NPM registry client settings.
type RegistryConfig struct {
	URL        string        `mapstructure:"url"`
	SearchURL  string        `mapstructure:"search_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	CacheSize  int           `mapstructure:"cache_size"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// GeneratorConfig contains import map generator settings.
type GeneratorConfig struct {
	// URL is the generator base URL that links point to.
	URL string `mapstructure:"url"`

	// HashEndpoint is a remote hash service. Empty computes hashes locally.
	HashEndpoint string        `mapstructure:"hash_endpoint"`
	HashTimeout  time.Duration `mapstructure:"hash_timeout"`
}

// StorageConfig selects the durable store backend.
type StorageConfig struct {
	// Driver is one of "memory", "sqlite", "libsql" or "s3".
	Driver    string        `mapstructure:"driver"`
	DSN       string        `mapstructure:"dsn"`
	Table     string        `mapstructure:"table"`
	Retention time.Duration `mapstructure:"retention"`
	S3        S3Config      `mapstructure:"s3"`
}

// S3Config contains S3 backend settings.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// SessionConfig contains browser session settings.
type SessionConfig struct {
	CookieName string        `mapstructure:"cookie_name"`
	CookieTTL  time.Duration `mapstructure:"cookie_ttl"`
	Secure     bool          `mapstructure:"secure"`

	// IdleTTL evicts an in-memory application root after inactivity. Its
	// state survives in storage.
	IdleTTL  time.Duration `mapstructure:"idle_ttl"`
	MaxRoots int           `mapstructure:"max_roots"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig contains metrics and tracing settings.
type TelemetryConfig struct {
	Metrics     bool   `mapstructure:"metrics"`
	MetricsPath string `mapstructure:"metrics_path"`
	Tracing     bool   `mapstructure:"tracing"`
	ServiceName string `mapstructure:"service_name"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.dev", false)
	v.SetDefault("server.featured", []string{"react", "vue", "lit", "preact", "lodash", "three"})

	v.SetDefault("registry.url", DefaultRegistryURL)
	v.SetDefault("registry.search_url", DefaultRegistryURL+"/-/v1/search")
	v.SetDefault("registry.timeout", 10*time.Second)
	v.SetDefault("registry.max_retries", 3)
	v.SetDefault("registry.cache_size", 512)
	v.SetDefault("registry.cache_ttl", 5*time.Minute)
	v.SetDefault("registry.user_agent", "jspm-packages/1.0")

	v.SetDefault("generator.url", DefaultGeneratorURL)
	v.SetDefault("generator.hash_endpoint", "")
	v.SetDefault("generator.hash_timeout", 15*time.Second)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.table", "jspm_storage")
	v.SetDefault("storage.retention", 0)
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "sessions")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.use_path_style", false)

	v.SetDefault("session.cookie_name", DefaultCookieName)
	v.SetDefault("session.cookie_ttl", 365*24*time.Hour)
	v.SetDefault("session.secure", false)
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.max_roots", 10000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("telemetry.metrics", true)
	v.SetDefault("telemetry.metrics_path", "/metrics")
	v.SetDefault("telemetry.tracing", false)
	v.SetDefault("telemetry.service_name", "jspm-packages")
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// New returns the default configuration.
func New() *Config {
	cfg, err := Load(NewViper(), "")
	if err != nil {
		// Defaults always decode.
		panic(err)
	}
	return cfg
}

// Load reads file (or searches the working directory for
// jspm-packages.{json,yaml,toml} when file is empty) into v and decodes
// the result. A missing searched-for file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !stderrors.As(err, &notFound) {
			return nil, errors.New("J502").Wrap(err).WithDetail(file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("J501").Wrap(err)
	}
	cfg.file = v.ConfigFileUsed()
	return &cfg, nil
}

// File returns the configuration file that was read, or "".
func (c *Config) File() string {
	return c.file
}

// Validate checks the configuration for inconsistent settings.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is empty")
	}
	if c.Registry.URL == "" {
		problems = append(problems, "registry.url is empty")
	}
	if c.Registry.CacheSize < 0 {
		problems = append(problems, "registry.cache_size must not be negative")
	}
	if c.Session.CookieName == "" {
		problems = append(problems, "session.cookie_name is empty")
	}
	if c.Session.MaxRoots <= 0 {
		problems = append(problems, "session.max_roots must be positive")
	}

	switch c.Storage.Driver {
	case "memory":
	case "sqlite", "sqlite3", "libsql", "turso":
		if c.Storage.DSN == "" {
			problems = append(problems, fmt.Sprintf("storage.dsn is required for driver %q", c.Storage.Driver))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			problems = append(problems, "storage.s3.bucket is required for driver \"s3\"")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage.driver %q", c.Storage.Driver))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return errors.New("J501").WithDetail(strings.Join(problems, "; "))
	}
	return nil
}

// SlogLevel parses the configured level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger.
func (l LogConfig) NewLogger() *slog.Logger {
	level, _ := l.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
