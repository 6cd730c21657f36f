// Package cli provides the command-line interface for the terminal client.
package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"starkterm/internal/models"
	"starkterm/internal/store"
)

// scanHit pairs a symbol with one signal it produced.
type scanHit struct {
	Symbol string        `json:"symbol"`
	Signal models.Signal `json:"signal"`
}

// addScanCommands adds the offline signal scanner.
func addScanCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "scan [symbols...]",
		Short: "Scan candle history for technical signals",
		Long: `Evaluate the technical signal rules locally over candle history.

The rules match the backend's signal endpoint (RSI 30/70, MACD
signal-line crosses, SMA 20/50 golden and death crosses, Bollinger band
touches), so a scan over cached candles agrees with the server while
working offline. Without symbols the backend watchlist is scanned.

Hits are saved in the local cache; browse past scans with
'scan results'.`,
		Example: `  starkterm scan
  starkterm scan AAPL MSFT NVDA
  starkterm scan --days 250 --min-strength 75
  starkterm scan results --type BUY`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			days, _ := cmd.Flags().GetInt("days")
			limit, _ := cmd.Flags().GetInt("limit")
			minStrength, _ := cmd.Flags().GetFloat64("min-strength")
			refresh, _ := cmd.Flags().GetBool("refresh")

			symbols, err := resolveWatchSymbols(app, args)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			hits, failed := runScan(ctx, app, output, symbols, days, limit, minStrength, refresh)

			if output.IsJSON() {
				return output.JSON(hits)
			}

			output.Println()
			if len(hits) == 0 {
				output.Info("No signals across %d symbol(s).", len(symbols)-len(failed))
			} else {
				displayScanHits(output, hits)
			}
			if len(failed) > 0 {
				output.Warning("Skipped %s (no candle data)", strings.Join(failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().Int("days", 0, "history lookback in days (0 = backend default)")
	cmd.Flags().Int("limit", 200, "maximum candles per symbol")
	cmd.Flags().Float64("min-strength", 0, "only report signals at or above this strength")
	cmd.Flags().Bool("refresh", false, "bypass the candle cache")

	cmd.AddCommand(newScanResultsCmd(app))

	rootCmd.AddCommand(cmd)
}

// runScan fetches candles for every symbol (cache-first) and evaluates the
// signal rules. Symbols whose history cannot be loaded are reported, not
// fatal, so one bad ticker never aborts a watchlist scan.
func runScan(ctx context.Context, app *App, output *Output, symbols []string, days, limit int, minStrength float64, refresh bool) ([]scanHit, []string) {
	var hits []scanHit
	var failed []string

	for i, symbol := range symbols {
		if !output.IsJSON() {
			output.Progress(i+1, len(symbols), "Scanning "+symbol)
		}

		fetch, err := fetchCandles(ctx, app, symbol, days, limit, refresh)
		if err != nil {
			app.Logger.Warn().Err(err).Str("symbol", symbol).Msg("Scan skipped symbol")
			failed = append(failed, symbol)
			continue
		}

		signals, err := app.Scanner.Scan(ctx, fetch.Candles)
		if err != nil {
			app.Logger.Warn().Err(err).Str("symbol", symbol).Msg("Scan failed for symbol")
			failed = append(failed, symbol)
			continue
		}

		var kept []models.Signal
		for _, sig := range signals {
			if sig.Strength >= minStrength {
				kept = append(kept, sig)
				hits = append(hits, scanHit{Symbol: symbol, Signal: sig})
			}
		}

		if app.Store != nil && len(kept) > 0 {
			if err := app.Store.SaveScanResults(ctx, symbol, kept); err != nil {
				app.Logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to save scan results")
			}
		}
	}

	// Strongest first so the actionable rows lead the table.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Signal.Strength > hits[j].Signal.Strength
	})

	return hits, failed
}

func displayScanHits(output *Output, hits []scanHit) {
	table := NewTable(output, "Symbol", "Signal", "Rule", "Strength", "Value")
	for _, h := range hits {
		table.AddRow(
			output.BoldText(h.Symbol),
			output.SignalBadge(h.Signal.Type),
			h.Signal.Indicator,
			FormatStrength(h.Signal.Strength),
			fmt.Sprintf("%.2f", h.Signal.Value),
		)
	}
	table.Render()
	output.Dim("%d signal(s)", len(hits))
}

func newScanResultsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Browse stored scan results",
		Example: `  starkterm scan results
  starkterm scan results --symbol AAPL
  starkterm scan results --type SELL --since 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if app.Store == nil {
				output.Error("Local cache is disabled, no stored scans")
				return fmt.Errorf("cache disabled")
			}

			symbol, _ := cmd.Flags().GetString("symbol")
			sigType, _ := cmd.Flags().GetString("type")
			since, _ := cmd.Flags().GetDuration("since")
			limit, _ := cmd.Flags().GetInt("limit")

			filter := store.ScanFilter{
				Symbol: strings.ToUpper(symbol),
				Type:   strings.ToUpper(sigType),
				Limit:  limit,
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			results, err := app.Store.GetScanResults(ctx, filter)
			if err != nil {
				output.Error("Failed to read scan results: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(results)
			}

			if len(results) == 0 {
				output.Info("No stored scan results match.")
				return nil
			}

			table := NewTable(output, "Scanned", "Symbol", "Signal", "Rule", "Strength")
			for _, r := range results {
				table.AddRow(
					FormatDateTime(r.ScannedAt),
					output.BoldText(r.Symbol),
					output.SignalBadge(r.Signal.Type),
					r.Signal.Indicator,
					FormatStrength(r.Signal.Strength),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("symbol", "", "filter by symbol")
	cmd.Flags().String("type", "", "filter by signal type (BUY/SELL)")
	cmd.Flags().Duration("since", 0, "only results newer than this age")
	cmd.Flags().Int("limit", 50, "maximum rows")

	return cmd
}
