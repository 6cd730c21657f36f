// Package cli provides the command-line interface for the terminal client.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"starkterm/internal/models"
	"starkterm/internal/notify"
	"starkterm/internal/stream"
)

// addStreamCommands adds live streaming commands.
func addStreamCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchCmd(app))
	rootCmd.AddCommand(newWatchlistCmd(app))
	rootCmd.AddCommand(newTapeCmd(app))
}

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [symbols...]",
		Short: "Stream live prices with optional alerts",
		Long: `Stream live prices over the quote WebSocket.

Without symbols, the backend watchlist is streamed. The socket
reconnects automatically and resubscribes, so a dropped connection
only shows up as a gap in updates.

Price alerts armed with --alert fire once per threshold crossing and
re-arm when the price crosses back. Alerts live only for this session.

Alert specs:
  SYM>PRICE  fire when the price rises above PRICE
  SYM<PRICE  fire when the price falls below PRICE
  SYM:PRICE  direction inferred from the first quote seen`,
		Example: `  starkterm watch
  starkterm watch AAPL MSFT NVDA
  starkterm watch AAPL --alert "AAPL>250" --alert "MSFT<400"
  starkterm watch --duration 5m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			alertSpecs, _ := cmd.Flags().GetStringArray("alert")
			duration, _ := cmd.Flags().GetDuration("duration")
			interval, _ := cmd.Flags().GetDuration("interval")
			noBell, _ := cmd.Flags().GetBool("no-bell")

			symbols, err := resolveWatchSymbols(app, args)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			// Parse alert specs before touching the network.
			var alerts []*models.PriceAlert
			for _, spec := range alertSpecs {
				alert, err := stream.ParseAlertSpec(spec)
				if err != nil {
					output.Error("Invalid alert %q: %v", spec, err)
					return err
				}
				alerts = append(alerts, alert)
				if !containsString(symbols, alert.Symbol) {
					symbols = append(symbols, alert.Symbol)
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			quotes := stream.NewQuoteStream(stream.QuoteStreamConfig{
				URL:           app.Config.WSBaseURL() + "/ws/quotes",
				ReconnectBase: app.Config.Stream.ReconnectBase,
				ReconnectMax:  app.Config.Stream.ReconnectMax,
				PingInterval:  app.Config.Stream.PingInterval,
			}, app.Logger)
			hub := stream.NewHubWithSource(quotes)

			// In JSON mode every quote and alert trigger goes to stdout
			// as one JSON line. Consumers run on their own goroutines, so
			// the shared encoder needs a lock.
			var encMu sync.Mutex
			enc := json.NewEncoder(cmd.OutOrStdout())
			if output.IsJSON() {
				hub.RegisterConsumer(stream.NewConsumerFunc(nil, func(q models.StreamQuote) {
					encMu.Lock()
					enc.Encode(q)
					encMu.Unlock()
				}))
			}

			// Alert wiring. Interactive triggers land in the overlay box
			// rendered under the live table.
			var overlay *notify.Overlay
			monitor := stream.NewAlertMonitor(notify.NewNoOpNotifier())
			if len(alerts) > 0 {
				if output.IsJSON() {
					monitor.SetOnTrigger(func(alert *models.PriceAlert, quote models.StreamQuote) {
						encMu.Lock()
						enc.Encode(map[string]interface{}{
							"type":      "alert",
							"symbol":    alert.Symbol,
							"condition": alert.Condition,
							"threshold": alert.Price,
							"price":     quote.Price,
						})
						encMu.Unlock()
					})
				} else {
					notifier := notify.NewTerminalNotifier(cmd.OutOrStdout(), app.Logger)
					notifier.SetBellEnabled(app.Config.Alerts.Bell && !noBell)
					overlay = notify.NewOverlay(0, 0)
					notifier.AttachOverlay(overlay)
					monitor = stream.NewAlertMonitor(notifier)
				}
				for _, alert := range alerts {
					monitor.Arm(alert)
				}
				hub.RegisterConsumer(monitor)
			}

			if err := quotes.Subscribe(symbols); err != nil {
				output.Error("Failed to subscribe: %v", err)
				return err
			}

			if err := hub.Start(ctx); err != nil {
				output.Error("Failed to connect: %v", err)
				return err
			}
			defer hub.Stop()

			if !output.IsJSON() {
				output.Info("Streaming %s", strings.Join(symbols, ", "))
				if len(alerts) > 0 {
					output.Printf("  %d alert(s) armed\n", len(alerts))
				}
				output.Dim("Press Ctrl+C to stop")
				output.Println()
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					if !output.IsJSON() {
						output.Println()
						metrics := hub.GetMetrics()
						output.Dim("Stopped. %d quotes received, %d alerts fired.", metrics.QuotesReceived, monitor.TriggerCount())
					}
					return nil
				case <-ticker.C:
					if !output.IsJSON() {
						drawWatchTable(output, symbols, quotes, monitor, overlay)
					}
				}
			}
		},
	}

	cmd.Flags().StringArray("alert", nil, "price alert spec, repeatable (SYM>PRICE, SYM<PRICE, SYM:PRICE)")
	cmd.Flags().Duration("duration", 0, "stop after this duration (0 = run until interrupted)")
	cmd.Flags().Duration("interval", 2*time.Second, "table refresh interval")
	cmd.Flags().Bool("no-bell", false, "disable the alert bell")

	return cmd
}

// resolveWatchSymbols returns the symbols to stream: explicit arguments
// first, then the backend watchlist.
func resolveWatchSymbols(app *App, args []string) ([]string, error) {
	if len(args) > 0 {
		symbols := make([]string, len(args))
		for i, s := range args {
			symbols[i] = strings.ToUpper(s)
		}
		return symbols, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, err := app.API.GetWatchlist(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("watchlist is empty; pass symbols or run 'starkterm watchlist add'")
	}

	symbols := make([]string, len(entries))
	for i, e := range entries {
		symbols[i] = e.Symbol
	}
	return symbols, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// drawWatchTable redraws the live price table from the stream snapshot.
func drawWatchTable(output *Output, symbols []string, quotes *stream.QuoteStream, monitor *stream.AlertMonitor, overlay *notify.Overlay) {
	if output.colorEnabled {
		// Clear and repaint in place.
		output.Print("\033[2J\033[H")
	}

	status := output.Red("○ disconnected")
	if quotes.IsConnected() {
		status = output.Green("● connected")
	}
	output.Printf("%s  %s  %s\n\n", output.BoldText("Live Watch"), status, FormatTime(time.Now()))

	snapshot := quotes.Snapshot()
	table := NewTable(output, "Symbol", "Price", "Change", "Bid", "Ask", "High", "Low", "Volume", "Time")
	for _, symbol := range symbols {
		q, ok := snapshot[symbol]
		if !ok {
			table.AddRow(symbol, "-", "-", "-", "-", "-", "-", "-", "-")
			continue
		}
		changeColor := output.PnLColor(q.ChangePercent)
		table.AddRow(
			symbol,
			FormatPrice(q.Price),
			output.ColoredString(changeColor, FormatPercent(q.ChangePercent)),
			FormatPrice(q.Bid),
			FormatPrice(q.Ask),
			FormatPrice(q.High),
			FormatPrice(q.Low),
			FormatVolume(q.Volume),
			streamClock(q.Timestamp),
		)
	}
	table.Render()

	if monitor.AlertCount() > 0 {
		output.Println()
		output.Dim("Alerts armed: %d  fired: %d", monitor.AlertCount(), monitor.TriggerCount())
	}
	if overlay != nil {
		if box := overlay.Render(output.colorEnabled); box != "" {
			output.Println()
			output.Println(box)
		}
	}
}

// streamClock trims a stream timestamp to HH:MM:SS.
func streamClock(ts string) string {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return FormatTime(t)
	}
	if len(ts) >= 19 {
		return ts[11:19]
	}
	return ts
}

func newWatchlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage the backend watchlist",
		Long:  "Add, remove, and list symbols on the backend watchlist.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List watchlist symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			entries, err := app.API.GetWatchlist(ctx)
			if err != nil {
				output.Error("Failed to get watchlist: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(entries)
			}

			if len(entries) == 0 {
				output.Info("Watchlist is empty. Use 'starkterm watchlist add <symbol>'.")
				return nil
			}

			output.Bold("Watchlist")
			output.Printf("  %d symbols\n\n", len(entries))

			table := NewTable(output, "Symbol", "Notes", "Added")
			for _, e := range entries {
				table.AddRow(e.Symbol, TruncateString(e.Notes, 40), e.AddedAt)
			}
			table.Render()

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <symbol> [notes...]",
		Short: "Add a symbol to the watchlist",
		Example: `  starkterm watchlist add AAPL
  starkterm watchlist add NVDA watching for earnings dip`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			notes := strings.Join(args[1:], " ")

			reply, err := app.API.AddToWatchlist(ctx, symbol, notes)
			if err != nil {
				output.Error("Failed to add to watchlist: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(reply)
			}

			output.Success("✓ Added %s to watchlist", symbol)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <symbol>",
		Short: "Remove a symbol from the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])

			reply, err := app.API.RemoveFromWatchlist(ctx, symbol)
			if err != nil {
				output.Error("Failed to remove from watchlist: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(reply)
			}

			output.Success("✓ Removed %s from watchlist", symbol)
			return nil
		},
	})

	return cmd
}
