// jama-mcp is an MCP server that exposes Jama Connect to AI assistants.
//
// It speaks MCP over stdio and Jama's REST API v1 over HTTPS. Add it to
// an MCP client config:
//
//	{
//	  "mcpServers": {
//	    "jama": {
//	      "command": "jama-mcp",
//	      "env": { "JAMA_URL": "https://example.jamacloud.com", "JAMA_TOKEN": "..." }
//	    }
//	  }
//	}
//
// Stdout carries the MCP transport; all human output goes to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/irisworks/jama-mcp/internal/config"
	jamaserver "github.com/irisworks/jama-mcp/internal/server"
	"github.com/irisworks/jama-mcp/internal/updater"
)

var (
	configPath  string
	mockMode    bool
	verbose     bool
	metricsAddr string

	logger   *zap.Logger
	logLevel zap.AtomicLevel
)

var rootCmd = &cobra.Command{
	Use:   "jama-mcp",
	Short: "MCP server for Jama Connect",
	Long: `jama-mcp bridges AI assistants and Jama Connect over the Model
Context Protocol. It exposes Jama projects, items, relationships,
baselines, and test management as MCP tools, with guarded create and
update operations.

Run without arguments to start the server on stdio. Configuration comes
from a TOML file (--config), JAMA_* environment variables, or flags;
flags win. With --mock the server runs against a seeded local SQLite
workspace and needs no Jama instance.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Stdout belongs to the MCP transport, so the logger writes to
		// stderr (zap's production default).
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logLevel = zcfg.Level
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the jama-mcp version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jama-mcp v%s\n", jamaserver.Version)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update jama-mcp to the latest release",
	RunE:  runUpdate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().BoolVar(&mockMode, "mock", false, "Serve a seeded local workspace instead of a live instance")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = os.Getenv("JAMA_MCP_CONFIG")
	}
	cfg, err := config.LoadWith(path, func(c *config.Config) {
		if mockMode {
			c.MockMode = true
		}
		if metricsAddr != "" {
			c.MetricsAddr = metricsAddr
		}
		if verbose {
			c.LogLevel = "debug"
		}
	})
	if err != nil {
		return err
	}
	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		logLevel.SetLevel(lvl)
	}

	s, cleanup, err := jamaserver.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Best-effort release check; logs to stderr, never blocks serving.
	go notifyIfOutdated(cmd.Context())

	logger.Info("starting stdio server", zap.String("version", jamaserver.Version))

	// ServeStdio cancels its serve context on SIGINT/SIGTERM, so a
	// canceled context is a clean shutdown.
	err = server.ServeStdio(s, server.WithErrorLogger(zap.NewStdLog(logger)))
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

// notifyIfOutdated logs a notice when a newer release exists.
func notifyIfOutdated(ctx context.Context) {
	result := updater.CheckVersion(ctx, jamaserver.Version)
	if result.UpdateAvailable {
		logger.Info("update available",
			zap.String("current", result.CurrentVersion),
			zap.String("latest", result.LatestVersion),
			zap.String("release", result.ReleaseURL),
		)
	}
}

func runUpdate(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(os.Stderr, "Checking for updates...")

	result := updater.CheckVersion(cmd.Context(), jamaserver.Version)
	if !result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "Already at the latest version (v%s)\n", result.CurrentVersion)
		return nil
	}

	fmt.Fprintf(os.Stderr, "Updating v%s -> v%s...\n", result.CurrentVersion, result.LatestVersion)
	if err := updater.SelfUpdate(cmd.Context(), jamaserver.Version); err != nil {
		return fmt.Errorf("update failed (download manually from %s): %w", result.ReleaseURL, err)
	}

	fmt.Fprintf(os.Stderr, "Updated to v%s. Restart jama-mcp to use it.\n", result.LatestVersion)
	return nil
}
