// Package cli provides the command-line interface for the terminal client.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"starkterm/internal/analysis"
	"starkterm/internal/analysis/indicators"
	"starkterm/internal/api"
	"starkterm/internal/config"
	"starkterm/internal/logging"
	"starkterm/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-06-01"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	API     *api.Client
	Store   store.DataStore
	Scanner *analysis.Scanner
	Engine  *indicators.Engine
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		API:     api.NewClient(cfg.Backend, logger),
		Scanner: analysis.NewScanner(0),
		Engine:  indicators.NewChartEngine(0),
	}

	// Open the SQLite cache. A broken cache only degrades commands to
	// backend-only operation, so failure here is a warning, not fatal.
	if cfg.Cache.Enabled {
		dataStore, err := store.NewSQLiteStore(cfg.CachePath())
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to open cache, continuing without it")
		} else {
			app.Store = dataStore
			logger.Debug().Str("path", cfg.CachePath()).Msg("SQLite cache opened")
		}
	}

	rootCmd := &cobra.Command{
		Use:   "starkterm",
		Short: "StarkTerm - terminal dashboard for the StarkMatter trading backend",
		Long: `StarkTerm is a terminal client for the StarkMatter trading API.

It renders quotes, candlestick charts, signals, news and portfolio state
in the terminal, streams live prices over WebSocket, and keeps a local
SQLite cache so market data stays available when the backend is down.

Use 'starkterm help <command>' for more information about a command.
Use 'starkterm examples' to see common workflows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/starkterm)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	// Add all command groups
	addCoreCommands(rootCmd, app)
	addMarketCommands(rootCmd, app)
	addChartCommands(rootCmd, app)
	addStreamCommands(rootCmd, app)
	addScanCommands(rootCmd, app)
	addPortfolioCommands(rootCmd, app)
	addPaperCommands(rootCmd, app)
	addSymbolCommands(rootCmd, app)
	addAICommands(rootCmd, app)
	addImportCommands(rootCmd, app)
	addSystemCommands(rootCmd, app)
	addHelpCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("StarkTerm v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open configuration file in editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			configPath := config.DefaultConfigDir() + "/config.toml"
			output.Info("Configuration file: %s", configPath)
			output.Println("Edit this file to change settings.")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Backend")
	output.Printf("  Base URL:        %s\n", cfg.Backend.BaseURL)
	output.Printf("  WebSocket URL:   %s\n", cfg.WSBaseURL())
	output.Printf("  Timeout:         %s\n", cfg.Backend.Timeout)
	output.Printf("  Retry Attempts:  %d\n", cfg.Backend.RetryAttempts)
	output.Println()

	output.Bold("Cache")
	output.Printf("  Enabled:         %v\n", cfg.Cache.Enabled)
	output.Printf("  TTL:             %s\n", cfg.Cache.TTL)
	output.Printf("  Path:            %s\n", cfg.CachePath())
	output.Println()

	output.Bold("Stream")
	output.Printf("  Reconnect Base:  %s\n", cfg.Stream.ReconnectBase)
	output.Printf("  Reconnect Max:   %d\n", cfg.Stream.ReconnectMax)
	output.Printf("  Ping Interval:   %s\n", cfg.Stream.PingInterval)
	output.Println()

	output.Bold("Chart")
	output.Printf("  Width:           %d\n", cfg.Chart.Width)
	output.Printf("  Height:          %d\n", cfg.Chart.Height)
	output.Printf("  Overlays:        %v\n", cfg.Chart.Overlays)
	output.Println()

	output.Bold("Alerts")
	output.Printf("  Enabled:         %v\n", cfg.Alerts.Enabled)
	output.Printf("  Bell:            %v\n", cfg.Alerts.Bell)

	return nil
}
