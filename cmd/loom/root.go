// Package main provides the CLI entrypoint for loom.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/gsettings"
	"github.com/archcrafter/loom/internal/notify"
	"github.com/archcrafter/loom/internal/service"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		dataDir    string
		noNotify   bool
	}
	logger *slog.Logger

	// container holds every service for the current command
	container *service.Container
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Appearance manager for Openbox desktops",
	Long: `loom manages the look of an Openbox desktop: wallpapers, GTK and
Openbox themes, icon and cursor themes, and fetch, panel and menu presets.

Every change is recorded so it can be undone with "loom undo".

Running loom without a subcommand launches the interactive TUI.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if globalOpts.noNotify {
			cfg.Notify.Enabled = false
		}

		if globalOpts.dataDir == "" {
			if err := config.EnsureDataDir(); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
		}

		opts := service.Options{
			Config:  cfg,
			DataDir: globalOpts.dataDir,
			Logger:  logger,
		}

		// The session bus is optional: without it there are no
		// notifications and no portal fallback for theme reads.
		if portal, err := gsettings.NewPortal(); err == nil {
			opts.Portal = portal
		} else {
			logger.Debug("settings portal unavailable", "error", err)
		}
		if cfg.Notify.Enabled {
			if sender, err := notify.NewBusSender(); err == nil {
				opts.Sender = sender
			} else {
				logger.Debug("notification daemon unavailable", "error", err)
			}
		}

		container, err = service.New(opts)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if container != nil {
			return container.Close()
		}
		return nil
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if container != nil {
			_ = container.Close()
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/loom/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.dataDir, "data-dir", "",
		"Data directory for settings, history and libraries (default: ~/.local/share/loom)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.noNotify, "no-notify", false,
		"Do not send desktop notifications")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// getContainer returns the global service container.
func getContainer() *service.Container {
	return container
}

// getConfig returns the global config instance.
func getConfig() *config.Config {
	return cfg
}
