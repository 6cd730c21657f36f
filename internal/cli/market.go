// Package cli provides the command-line interface for the terminal client.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"starkterm/internal/api"
	"starkterm/internal/models"
	"starkterm/internal/store"
	"starkterm/pkg/utils"
)

// addMarketCommands adds market data commands.
func addMarketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newNewsCmd(app))
	rootCmd.AddCommand(newSentimentCmd(app))
	rootCmd.AddCommand(newSignalsCmd(app))
}

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbol>",
		Short: "Get a quote snapshot for a symbol",
		Long: `Fetch and display the latest quote for a symbol.

The quote includes price, day range, volume and valuation fields.
When the backend is unreachable the last cached snapshot is shown
with its age.`,
		Example: `  starkterm quote AAPL
  starkterm quote MSFT --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])

			quote, err := app.API.GetQuote(ctx, symbol)
			if err != nil {
				// Serve the cached snapshot when the backend is down.
				if app.Store != nil {
					cached, fetchedAt, cerr := app.Store.GetQuote(ctx, symbol)
					if cerr == nil {
						if output.IsJSON() {
							return output.JSON(cached)
						}
						output.Warning("Backend unreachable, showing cached quote from %s", FormatDateTime(fetchedAt))
						return displayQuote(output, cached, SourceCache)
					}
				}
				output.Error("Failed to get quote: %v", err)
				return err
			}

			if app.Store != nil {
				if serr := app.Store.SaveQuote(ctx, quote); serr != nil {
					app.Logger.Warn().Err(serr).Str("symbol", symbol).Msg("Failed to cache quote")
				}
			}

			if output.IsJSON() {
				return output.JSON(quote)
			}

			return displayQuote(output, quote, SourceBackend)
		},
	}
}

func displayQuote(output *Output, quote *models.Quote, source string) error {
	status := utils.GetMarketStatus()
	output.Printf("%s  %s  %s\n", output.BoldText(quote.Symbol), output.MarketStatus(string(status)), output.SourceTag(source))
	switch status {
	case models.MarketOpen:
		output.Dim("  closes in %s", FormatDuration(utils.TimeUntilMarketClose()))
	case models.MarketClosed:
		output.Dim("  next open %s", FormatDateTime(utils.GetNextMarketOpen()))
	}
	output.Println()

	// Price with change against the open
	change := quote.Price - quote.Open
	changePct := 0.0
	if quote.Open != 0 {
		changePct = change / quote.Open * 100
	}
	changeColor := output.PnLColor(change)
	price := FormatPrice(quote.Price)

	output.Printf("  Price:  %s  %s\n", output.BoldText(price), output.ColoredString(changeColor, FormatChange(change, changePct)))
	output.Println()

	// Day range
	output.Printf("  Open:   %s\n", FormatPrice(quote.Open))
	output.Printf("  High:   %s\n", output.Green(FormatPrice(quote.High)))
	output.Printf("  Low:    %s\n", output.Red(FormatPrice(quote.Low)))
	output.Printf("  Volume: %s\n", FormatVolume(quote.Volume))
	output.Println()

	// Valuation
	if quote.MarketCap > 0 {
		output.Printf("  Market Cap: %s\n", FormatCompact(quote.MarketCap))
	}
	if quote.PERatio > 0 {
		output.Printf("  P/E Ratio:  %.2f\n", quote.PERatio)
	}
	if quote.DividendYield > 0 {
		output.Printf("  Div Yield:  %.2f%%\n", quote.DividendYield*100)
	}
	if quote.FiftyTwoWeekHigh > 0 {
		output.Printf("  52w Range:  %s - %s\n", FormatPrice(quote.FiftyTwoWeekLow), FormatPrice(quote.FiftyTwoWeekHigh))
	}

	return nil
}

// candleFetch is the result of a cache-aware candle load.
type candleFetch struct {
	Candles  []models.Candle
	Source   string // SourceBackend or SourceCache
	Stale    bool   // cache served because the backend failed
	SyncedAt time.Time // when the cache was last refreshed from the backend
	Through  time.Time // date of the newest cached candle, stale serves only
}

// fetchCandles loads candle history for a symbol, preferring the local cache
// while it is fresh. Freshness is the sync_status stamp written by
// SaveCandles, not the candle dates: a daily close cached a minute ago is
// fresh even though the bar itself is from yesterday. On a cache miss or
// expired TTL the backend is queried and the result cached; if the backend
// fails, whatever the cache still holds is served marked stale. Candles are
// ordered oldest first.
func fetchCandles(ctx context.Context, app *App, symbol string, days, limit int, refresh bool) (candleFetch, error) {
	useCache := app.Store != nil && app.Config.Cache.Enabled

	if useCache && !refresh {
		syncedAt := app.Store.GetLastSync(store.CandleSyncKey(symbol))
		if !syncedAt.IsZero() && time.Since(syncedAt) < app.Config.Cache.TTL {
			candles, err := app.Store.GetCandles(ctx, symbol, limit)
			if err == nil && len(candles) > 0 {
				return candleFetch{Candles: candles, Source: SourceCache, SyncedAt: syncedAt}, nil
			}
		}
	}

	req := api.HistoryRequest{Symbol: symbol, Limit: limit}
	if days > 0 {
		req.Start = time.Now().AddDate(0, 0, -days)
	}

	candles, err := app.API.GetHistory(ctx, req)
	if err != nil {
		if useCache {
			cached, cerr := app.Store.GetCandles(ctx, symbol, limit)
			if cerr == nil && len(cached) > 0 {
				syncedAt := app.Store.GetLastSync(store.CandleSyncKey(symbol))
				through, _ := app.Store.CandlesFreshness(ctx, symbol)
				app.Logger.Warn().Err(err).Str("symbol", symbol).Msg("Backend unreachable, serving cached candles")
				return candleFetch{Candles: cached, Source: SourceCache, Stale: true, SyncedAt: syncedAt, Through: through}, nil
			}
		}
		return candleFetch{}, err
	}

	if useCache {
		if serr := app.Store.SaveCandles(ctx, symbol, candles); serr != nil {
			app.Logger.Warn().Err(serr).Str("symbol", symbol).Msg("Failed to cache candles")
		}
	}

	return candleFetch{Candles: candles, Source: SourceBackend}, nil
}

// warnStaleCandles prints the staleness banner for a cache-served fetch:
// when the cache was last synced and the date of its newest candle.
func warnStaleCandles(output *Output, fetch candleFetch) {
	if !fetch.Stale {
		return
	}
	if fetch.Through.IsZero() {
		output.Warning("Backend unreachable, showing cached data synced %s", FormatDateTime(fetch.SyncedAt))
		return
	}
	output.Warning("Backend unreachable, showing cached data synced %s (through %s)", FormatDateTime(fetch.SyncedAt), FormatDate(fetch.Through))
}

// csvCandle is the row shape for CSV export.
type csvCandle struct {
	Date     string  `csv:"date"`
	Open     float64 `csv:"open"`
	High     float64 `csv:"high"`
	Low      float64 `csv:"low"`
	Close    float64 `csv:"close"`
	AdjClose float64 `csv:"adj_close"`
	Volume   int64   `csv:"volume"`
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <symbol>",
		Short: "Get historical OHLCV data",
		Long: `Fetch daily OHLCV (Open, High, Low, Close, Volume) candles for a symbol.

Candles are cached locally, so repeated requests inside the cache TTL
are served without touching the backend. Use --refresh to force a fetch.`,
		Example: `  starkterm history AAPL
  starkterm history MSFT --days 30
  starkterm history NVDA --format csv --out nvda.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			days, _ := cmd.Flags().GetInt("days")
			limit, _ := cmd.Flags().GetInt("limit")
			format, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")
			refresh, _ := cmd.Flags().GetBool("refresh")

			fetch, err := fetchCandles(ctx, app, symbol, days, limit, refresh)
			if err != nil {
				output.Error("Failed to get history: %v", err)
				return err
			}
			candles := fetch.Candles

			if format == "csv" {
				return writeCandleCSV(output, candles, outPath)
			}

			if output.IsJSON() {
				return output.JSON(candles)
			}

			warnStaleCandles(output, fetch)

			output.Printf("%s  %d candles  %s\n", output.BoldText(symbol), len(candles), output.SourceTag(fetch.Source))
			output.Println()

			table := NewTable(output, "Date", "Open", "High", "Low", "Close", "Volume")
			for _, c := range candles {
				closeColor := output.PnLColor(c.Close - c.Open)
				table.AddRow(
					c.Date,
					FormatPrice(c.Open),
					FormatPrice(c.High),
					FormatPrice(c.Low),
					output.ColoredString(closeColor, FormatPrice(c.Close)),
					FormatVolume(c.Volume),
				)
			}
			table.Render()

			return nil
		},
	}

	cmd.Flags().Int("days", 90, "number of calendar days to fetch")
	cmd.Flags().Int("limit", 0, "maximum number of candles (0 = all)")
	cmd.Flags().String("format", "table", "output format (table, csv)")
	cmd.Flags().String("out", "", "write CSV to a file instead of stdout")
	cmd.Flags().Bool("refresh", false, "bypass the cache and fetch from the backend")

	return cmd
}

func writeCandleCSV(output *Output, candles []models.Candle, outPath string) error {
	rows := make([]csvCandle, 0, len(candles))
	for _, c := range candles {
		rows = append(rows, csvCandle{
			Date:     c.Date,
			Open:     c.Open,
			High:     c.High,
			Low:      c.Low,
			Close:    c.Close,
			AdjClose: c.AdjClose,
			Volume:   c.Volume,
		})
	}

	data, err := gocsv.MarshalString(&rows)
	if err != nil {
		return fmt.Errorf("failed to encode CSV: %w", err)
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(data), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		output.Success("✓ Wrote %d candles to %s", len(rows), outPath)
		return nil
	}

	output.Print("%s", data)
	return nil
}

func newNewsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news [symbol]",
		Short: "Show recent news articles",
		Long: `Show recent news headlines with sentiment scores.

Without a symbol, shows news across all tracked symbols.`,
		Example: `  starkterm news
  starkterm news AAPL --limit 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := ""
			if len(args) > 0 {
				symbol = strings.ToUpper(args[0])
			}
			limit, _ := cmd.Flags().GetInt("limit")

			articles, err := app.API.GetNews(ctx, symbol, limit)
			if err != nil {
				output.Error("Failed to get news: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(articles)
			}

			if len(articles) == 0 {
				output.Info("No news articles found.")
				return nil
			}

			displayNews(output, articles)
			return nil
		},
	}

	cmd.Flags().Int("limit", 10, "maximum number of articles")

	return cmd
}

func displayNews(output *Output, articles []models.NewsArticle) {
	for _, a := range articles {
		scoreColor := output.PnLColor(a.SentimentScore)
		output.Printf("%s %s\n", output.ColoredString(scoreColor, fmt.Sprintf("[%+.2f]", a.SentimentScore)), output.BoldText(a.Title))
		meta := a.Source
		if a.PublishedAt != "" {
			meta += "  " + a.PublishedAt
		}
		if a.Symbols != "" {
			meta += "  " + a.Symbols
		}
		output.Dim("  %s", meta)
		if a.Summary != "" {
			output.Printf("  %s\n", TruncateString(a.Summary, 120))
		}
		output.Println()
	}
}

func newSentimentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sentiment <symbol>",
		Short: "Show social sentiment for a symbol",
		Long:  "Show aggregated Reddit sentiment per subreddit for a symbol.",
		Example: `  starkterm sentiment TSLA
  starkterm sentiment GME --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])

			rows, err := app.API.GetSentiment(ctx, symbol)
			if err != nil {
				output.Error("Failed to get sentiment: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(rows)
			}

			if len(rows) == 0 {
				output.Info("No sentiment data for %s.", symbol)
				return nil
			}

			output.Bold("%s sentiment", symbol)
			output.Println()

			table := NewTable(output, "Subreddit", "Mentions", "Score", "Bullish", "Bearish")
			var totalMentions int
			var weighted float64
			for _, r := range rows {
				scoreColor := output.PnLColor(r.SentimentScore)
				table.AddRow(
					"r/"+r.Subreddit,
					fmt.Sprintf("%d", r.Mentions),
					output.ColoredString(scoreColor, FormatSentiment(r.SentimentScore)),
					output.Green(fmt.Sprintf("%d", r.BullishCount)),
					output.Red(fmt.Sprintf("%d", r.BearishCount)),
				)
				totalMentions += r.Mentions
				weighted += r.SentimentScore * float64(r.Mentions)
			}
			table.Render()

			if totalMentions > 0 {
				output.Println()
				avg := weighted / float64(totalMentions)
				output.Printf("  Overall: %s across %d mentions\n", output.ColoredString(output.PnLColor(avg), FormatSentiment(avg)), totalMentions)
			}

			return nil
		},
	}
}

func newSignalsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signals <symbol>",
		Short: "Show technical buy/sell signals",
		Long: `Show technical signals for a symbol.

By default signals come from the backend. With --local the same rule set
runs against candle history on this machine, which works offline against
cached candles.`,
		Example: `  starkterm signals AAPL
  starkterm signals MSFT --local`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			local, _ := cmd.Flags().GetBool("local")

			var signals []models.Signal
			source := SourceBackend

			if local {
				fetch, err := fetchCandles(ctx, app, symbol, 365, 0, false)
				if err != nil {
					output.Error("Failed to get candles: %v", err)
					return err
				}
				signals, err = app.Scanner.Scan(ctx, fetch.Candles)
				if err != nil {
					output.Error("Failed to scan: %v", err)
					return err
				}
				source = SourceCalc
			} else {
				var err error
				signals, err = app.API.GetSignals(ctx, symbol)
				if err != nil {
					output.Error("Failed to get signals: %v", err)
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(signals)
			}

			output.Printf("%s signals  %s\n", output.BoldText(symbol), output.SourceTag(source))
			output.Println()

			if len(signals) == 0 {
				output.Info("No active signals.")
				return nil
			}

			displaySignals(output, signals)
			return nil
		},
	}

	cmd.Flags().Bool("local", false, "compute signals locally from candle history")

	return cmd
}

func displaySignals(output *Output, signals []models.Signal) {
	table := NewTable(output, "Signal", "Rule", "Strength", "Value")
	for _, s := range signals {
		table.AddRow(
			output.SignalBadge(s.Type),
			s.Indicator,
			FormatStrength(s.Strength),
			fmt.Sprintf("%.2f", s.Value),
		)
	}
	table.Render()
}
