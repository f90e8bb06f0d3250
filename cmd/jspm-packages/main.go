package main

import (
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/jspm/jspm-packages/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		apperrors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "jspm-packages",
		Short: "Browse NPM packages and build import maps",
		Long: `jspm-packages serves the JSPM package browser.

Pages are rendered on the server. Interactive parts of a page (the export
picker, version selector and import map dialog) hydrate over a WebSocket
and share one persisted selection per browser session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: ./jspm-packages.{json,yaml,toml})")

	rootCmd.AddCommand(
		serveCmd(&configFile),
		hashCmd(),
		versionCmd(),
	)
	return rootCmd
}
