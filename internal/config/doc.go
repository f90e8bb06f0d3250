// Package config provides configuration loading for the JSPM Packages server.
//
// Settings are layered by viper: command line flags override JSPM_*
// environment variables, which override the optional configuration file,
// which overrides the defaults in this package. Nested keys map to
// environment variables by replacing dots with underscores, so
// storage.driver is JSPM_STORAGE_DRIVER.
//
// # Configuration File Structure
//
//	{
//	  "server":    {"addr": ":8080", "dev": false},
//	  "registry":  {"url": "https://registry.npmjs.org", "cache_ttl": "5m"},
//	  "generator": {"url": "https://generator.jspm.io", "hash_endpoint": ""},
//	  "storage":   {"driver": "sqlite", "dsn": "file:jspm.db"},
//	  "session":   {"cookie_name": "jspm_sid", "idle_ttl": "30m"},
//	  "log":       {"level": "info", "format": "text"},
//	  "telemetry": {"metrics": true, "tracing": false}
//	}
//
// YAML and TOML files are accepted as well; the format follows the file
// extension.
package config
