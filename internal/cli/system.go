// Package cli provides the command-line interface for the terminal client.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"starkterm/internal/models"
)

// addSystemCommands adds the dashboard and backend lifecycle commands.
func addSystemCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newDashboardCmd(app))
	rootCmd.AddCommand(newHealthCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))
	rootCmd.AddCommand(newServerCmd(app))
}

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the aggregate dashboard",
		Long: `Show the main dashboard in one shot: portfolio valuation, paper
trading performance, recent headlines and the watchlist with current
prices. For continuously updating prices use 'starkterm watch'.`,
		Example: `  starkterm dashboard
  starkterm dashboard --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			dash, err := app.API.GetDashboard(ctx)
			if err != nil {
				output.Error("Failed to load dashboard: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(dash)
			}

			displayPortfolio(output, &dash.Portfolio)
			output.Println()

			output.Bold("Paper Trading")
			displayPaperPerformance(output, &dash.PaperTrading)
			output.Println()

			if len(dash.Watchlist) > 0 {
				output.Bold("Watchlist")
				displayWatchlistQuotes(ctx, app, output, dash.Watchlist)
				output.Println()
			}

			if len(dash.RecentNews) > 0 {
				output.Bold("Recent News")
				output.Println()
				displayNews(output, dash.RecentNews)
			}

			return nil
		},
	}
}

// displayWatchlistQuotes renders the watchlist with a current price column.
// Quote lookups that fail leave the row blank rather than failing the view.
func displayWatchlistQuotes(ctx context.Context, app *App, output *Output, entries []models.WatchlistEntry) {
	table := NewTable(output, "Symbol", "Price", "Day Range", "Notes")
	for _, e := range entries {
		price, dayRange := "-", "-"
		if quote, err := app.API.GetQuote(ctx, e.Symbol); err == nil {
			price = FormatPrice(quote.Price)
			dayRange = FormatPrice(quote.Low) + " - " + FormatPrice(quote.High)
		}
		table.AddRow(output.BoldText(e.Symbol), price, dayRange, TruncateString(e.Notes, 32))
	}
	table.Render()
}

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check backend liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			started := time.Now()
			health, err := app.API.GetHealth(ctx)
			latency := time.Since(started)

			if err != nil {
				if output.IsJSON() {
					return output.JSON(map[string]string{"status": "unreachable", "error": err.Error()})
				}
				output.Error("Backend unreachable: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(health)
			}

			output.Success("Backend %s  (%s)", health.Status, FormatDuration(latency))
			if health.Timestamp != "" {
				output.Dim("Server time: %s", health.Timestamp)
			}
			if info, err := app.API.GetInfo(ctx); err == nil && info.Name != "" {
				output.Dim("%s %s", info.Name, info.Version)
			}
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend process status",
		Long:  "Display the backend process stats plus this client's circuit breaker state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			status, err := app.API.GetSystemStatus(ctx)
			if err != nil {
				output.Error("Failed to get system status: %v", err)
				return err
			}

			breaker := app.API.BreakerStats()

			if output.IsJSON() {
				return output.JSON(map[string]any{
					"backend": status,
					"breaker": breaker,
				})
			}

			output.Bold("Backend")
			output.Printf("  Status:  %s\n", status.Status)
			output.Printf("  PID:     %d\n", status.Process.PID)
			output.Printf("  CPU:     %.1f%%\n", status.Process.CPUPercent)
			output.Printf("  Memory:  %.1f MB\n", status.Process.MemoryMB)
			output.Printf("  Threads: %d\n", status.Process.Threads)
			if status.Error != "" {
				output.Warning("%s", status.Error)
			}
			output.Println()

			output.Bold("Circuit Breaker")
			output.Printf("  State:    %s\n", breaker.State)
			output.Printf("  Requests: %d (%d ok, %d failed, %d rejected)\n",
				breaker.TotalRequests, breaker.TotalSuccesses, breaker.TotalFailures, breaker.TotalRejected)
			if !breaker.LastFailureTime.IsZero() {
				output.Printf("  Last failure: %s\n", FormatDateTime(breaker.LastFailureTime))
			}
			return nil
		},
	}
}

func newServerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Control the backend process",
	}

	cmd.AddCommand(newServerActionCmd(app, "restart", "Restart the backend server",
		"Restart the backend? In-flight requests are dropped.",
		func(ctx context.Context) (*models.ServerAction, error) { return app.API.RestartServer(ctx) }))
	cmd.AddCommand(newServerActionCmd(app, "shutdown", "Shut the backend server down",
		"Shut the backend down? All clients lose the connection.",
		func(ctx context.Context) (*models.ServerAction, error) { return app.API.ShutdownServer(ctx) }))
	cmd.AddCommand(newServerActionCmd(app, "start", "Ask a supervisor to start the backend",
		"", func(ctx context.Context) (*models.ServerAction, error) { return app.API.StartServer(ctx) }))

	return cmd
}

func newServerActionCmd(app *App, use, short, confirm string, action func(context.Context) (*models.ServerAction, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if confirm != "" {
				yes, _ := cmd.Flags().GetBool("yes")
				confirmed, err := confirmAction(output, yes, confirm)
				if err != nil {
					return err
				}
				if !confirmed {
					output.Info("Cancelled")
					return nil
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			result, err := action(ctx)
			if err != nil {
				output.Error("Server %s failed: %v", use, err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Success("✓ %s", result.Message)
			if result.Hint != "" {
				output.Dim("%s", result.Hint)
			}
			return nil
		},
	}

	if confirm != "" {
		cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	}

	return cmd
}
