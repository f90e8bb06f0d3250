package config

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jspm/jspm-packages/internal/errors"
)

func TestDefaults(t *testing.T) {
	cfg := New()

	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Registry.CacheTTL != 5*time.Minute {
		t.Errorf("Registry.CacheTTL = %v", cfg.Registry.CacheTTL)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %q", cfg.Storage.Driver)
	}
	if cfg.Session.CookieName != DefaultCookieName {
		t.Errorf("Session.CookieName = %q", cfg.Session.CookieName)
	}
	if len(cfg.Server.Featured) == 0 {
		t.Error("no featured packages")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jspm-packages.json")
	os.WriteFile(path, []byte(`{
		"server": {"addr": ":9000"},
		"storage": {"driver": "sqlite", "dsn": "file:test.db", "retention": "72h"},
		"session": {"idle_ttl": "10m"}
	}`), 0o644)

	cfg, err := Load(NewViper(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Storage.Retention != 72*time.Hour {
		t.Errorf("Storage.Retention = %v", cfg.Storage.Retention)
	}
	if cfg.Session.IdleTTL != 10*time.Minute {
		t.Errorf("Session.IdleTTL = %v", cfg.Session.IdleTTL)
	}
	// Untouched keys keep defaults.
	if cfg.Registry.URL != DefaultRegistryURL {
		t.Errorf("Registry.URL = %q", cfg.Registry.URL)
	}
	if cfg.File() != path {
		t.Errorf("File() = %q", cfg.File())
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	os.WriteFile(path, []byte("log:\n  level: debug\n  format: json\n"), 0o644)

	cfg, err := Load(NewViper(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	os.WriteFile(path, []byte(`{"storage": {"driver": "sqlite", "dsn": "file:a.db"}}`), 0o644)
	t.Setenv("JSPM_STORAGE_DSN", "file:b.db")
	t.Setenv("JSPM_GENERATOR_HASH_ENDPOINT", "https://hash.example/api")

	cfg, err := Load(NewViper(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.DSN != "file:b.db" {
		t.Errorf("Storage.DSN = %q, env should win", cfg.Storage.DSN)
	}
	if cfg.Generator.HashEndpoint != "https://hash.example/api" {
		t.Errorf("Generator.HashEndpoint = %q", cfg.Generator.HashEndpoint)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || !strings.Contains(err.Error(), "J502") {
		t.Errorf("Load() error = %v, want J502", err)
	}
}

func TestLoadSearchedFileOptional(t *testing.T) {
	wd, _ := os.Getwd()
	os.Chdir(t.TempDir())
	defer os.Chdir(wd)

	if _, err := Load(NewViper(), ""); err != nil {
		t.Errorf("Load() without a file error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"sqlite without dsn", func(c *Config) { c.Storage.Driver = "sqlite" }, "storage.dsn"},
		{"s3 without bucket", func(c *Config) { c.Storage.Driver = "s3" }, "storage.s3.bucket"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "redis" }, "unknown storage.driver"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"no roots", func(c *Config) { c.Session.MaxRoots = 0 }, "session.max_roots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), "J501") {
				t.Fatalf("Validate() = %v", err)
			}
			if !strings.Contains(errDetail(err), tt.want) {
				t.Errorf("detail %q does not mention %q", errDetail(err), tt.want)
			}
		})
	}
}

func errDetail(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Detail
	}
	return err.Error()
}

func TestSlogLevel(t *testing.T) {
	lvl, err := LogConfig{Level: "warn"}.SlogLevel()
	if err != nil || lvl != slog.LevelWarn {
		t.Errorf("SlogLevel() = %v, %v", lvl, err)
	}
	cfg := LogConfig{Level: "info", Format: "json"}
	if cfg.NewLogger() == nil {
		t.Error("NewLogger() = nil")
	}
}
