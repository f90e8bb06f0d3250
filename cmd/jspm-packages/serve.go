package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jspm/jspm-packages/internal/app"
	"github.com/jspm/jspm-packages/internal/config"
)

// serveFlags maps command flags to configuration keys.
var serveFlags = map[string]string{
	"addr":       "server.addr",
	"dev":        "server.dev",
	"registry":   "registry.url",
	"generator":  "generator.url",
	"storage":    "storage.driver",
	"dsn":        "storage.dsn",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func serveCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Long: `Run the web server.

Settings come from flags, then JSPM_* environment variables, then the
config file, then defaults. Nested keys use underscores in the
environment: JSPM_STORAGE_DRIVER=sqlite, JSPM_SESSION_SECURE=true.

Examples:
  jspm-packages serve
  jspm-packages serve --addr=:3000 --dev
  jspm-packages serve --storage=sqlite --dsn=./sessions.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.NewViper()
			for flag, key := range serveFlags {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			cfg, err := config.Load(v, *configFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	f := cmd.Flags()
	f.String("addr", config.DefaultAddr, "Listen address")
	f.Bool("dev", false, "Development mode: pretty HTML, any live origin")
	f.String("registry", config.DefaultRegistryURL, "NPM registry URL")
	f.String("generator", config.DefaultGeneratorURL, "Import map generator URL")
	f.String("storage", "memory", "Session storage: memory, sqlite, libsql or s3")
	f.String("dsn", "", "Storage DSN for sqlite and libsql")
	f.String("log-level", "info", "Log level: debug, info, warn or error")
	f.String("log-format", "text", "Log format: text or json")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Serve(ctx)
}
