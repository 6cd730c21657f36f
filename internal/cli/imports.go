// Package cli provides the command-line interface for the terminal client.
package cli

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// addImportCommands adds backend data import triggers. The backend does the
// actual fetching; these commands just kick it off and report the outcome.
func addImportCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Trigger backend data imports",
		Long: `Trigger market data imports on the backend.

The backend pulls from its upstream sources (price feeds, news feeds,
Reddit, FRED); these commands start an import and wait for the result.`,
	}

	cmd.AddCommand(newImportDailyCmd(app))
	cmd.AddCommand(newImportNewsCmd(app))
	cmd.AddCommand(newImportRedditCmd(app))
	cmd.AddCommand(newImportEconomicCmd(app))

	rootCmd.AddCommand(cmd)
}

func newImportDailyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daily [symbols...]",
		Short: "Import daily OHLCV data",
		Long: `Import daily price history for symbols.

Without arguments the backend imports its default universe.`,
		Example: `  starkterm import daily
  starkterm import daily AAPL MSFT NVDA`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			symbols := make([]string, len(args))
			for i, s := range args {
				symbols[i] = strings.ToUpper(s)
			}

			result, err := app.API.ImportDaily(ctx, symbols)
			if err != nil {
				output.Error("Import failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Success("✓ Imported %d of %d symbol(s), %d row(s)",
				result.SymbolsImported, result.SymbolsRequested, result.TotalRows)
			if len(result.Failed) > 0 {
				output.Warning("Failed: %s", strings.Join(result.Failed, ", "))
			}
			return nil
		},
	}

	return cmd
}

func newImportNewsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "news",
		Short:   "Import news articles",
		Example: `  starkterm import news --limit 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			limit, _ := cmd.Flags().GetInt("limit")

			result, err := app.API.ImportNews(ctx, limit)
			if err != nil {
				output.Error("Import failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Success("✓ Imported %d article(s)", result.ArticlesImported)
			for _, h := range result.LatestHeadlines {
				output.Printf("  %s %s\n", output.DimText(h.Source+":"), TruncateString(h.Title, 70))
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 0, "articles per source (0 = backend default)")

	return cmd
}

func newImportRedditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reddit",
		Short: "Import Reddit sentiment",
		Long: `Import ticker mentions and sentiment from Reddit.

The backend skips the import when it has no Reddit credentials.`,
		Example: `  starkterm import reddit
  starkterm import reddit --subreddit wallstreetbets --subreddit stocks`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			subreddits, _ := cmd.Flags().GetStringArray("subreddit")
			limit, _ := cmd.Flags().GetInt("limit")

			result, err := app.API.ImportReddit(ctx, subreddits, limit)
			if err != nil {
				output.Error("Import failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			if result.Status == "skipped" {
				output.Warning("Skipped: %s", result.Message)
				return nil
			}

			output.Success("✓ Imported %d mention(s)", result.TotalMentions)
			if len(result.TrendingTickers) > 0 {
				// Map order is random; sort by mentions for a stable table.
				type trend struct {
					ticker   string
					mentions int
					score    float64
				}
				trending := make([]trend, 0, len(result.TrendingTickers))
				for ticker, t := range result.TrendingTickers {
					trending = append(trending, trend{ticker, t.Mentions, t.AvgSentiment})
				}
				sort.Slice(trending, func(i, j int) bool { return trending[i].mentions > trending[j].mentions })

				table := NewTable(output, "Ticker", "Mentions", "Sentiment")
				for _, t := range trending {
					table.AddRow(output.BoldText(t.ticker), FormatQuantity(int64(t.mentions)), FormatSentiment(t.score))
				}
				table.Render()
			}
			return nil
		},
	}

	cmd.Flags().StringArray("subreddit", nil, "subreddit to scan (repeatable)")
	cmd.Flags().Int("limit", 0, "posts per subreddit (0 = backend default)")

	return cmd
}

func newImportEconomicCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "economic",
		Short:   "Import economic indicators",
		Example: `  starkterm import economic`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			result, err := app.API.ImportEconomic(ctx)
			if err != nil {
				output.Error("Import failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			if result.Status == "skipped" {
				output.Warning("Skipped: %s", result.Message)
				return nil
			}

			output.Success("✓ Imported %d indicator(s)", result.IndicatorsImported)
			for name, value := range result.LatestValues {
				output.Printf("  %-24s %.2f\n", name, value)
			}
			return nil
		},
	}
}
