// Package cli provides the command-line interface for the terminal client.
package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// addHelpCommands adds help and documentation commands.
func addHelpCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCommandsCmd(app))
	rootCmd.AddCommand(newExamplesCmd(app))
	rootCmd.AddCommand(newQuickstartCmd(app))
}

func newCommandsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List all commands by category",
		Long:  "Display all available commands organized by category.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("StarkTerm Commands")
			output.Println()

			categories := []struct {
				name     string
				commands []struct {
					cmd  string
					desc string
				}
			}{
				{
					name: "Market Data",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"quote <symbol>", "Quote snapshot"},
						{"history <symbol>", "Historical OHLCV candles"},
						{"chart <symbol>", "Candlestick chart with overlays"},
						{"news [symbol]", "News with sentiment scores"},
						{"sentiment [symbol]", "Social sentiment rows"},
						{"signals <symbol>", "Technical signals"},
					},
				},
				{
					name: "Live Streaming",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"watch [symbols...]", "Live price table (WebSocket)"},
						{"watch --alert SYM>P", "Live prices with price alerts"},
						{"tape <symbol>", "Live trade tape"},
						{"watchlist add/remove/list", "Watchlist management"},
					},
				},
				{
					name: "Analysis",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"scan [symbols...]", "Offline signal scan over cached candles"},
						{"scan results", "Browse stored scan results"},
						{"ai render <cat> <name>", "Render a prompt for manual execution"},
						{"ai import <cat> <name>", "Import an executed model response"},
						{"ai history", "Browse stored analyses"},
					},
				},
				{
					name: "Portfolio",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"dashboard", "Aggregate dashboard view"},
						{"portfolio", "Portfolio summary"},
						{"positions [symbol]", "Tracked positions"},
						{"portfolio add/close", "Track or close a position"},
						{"portfolio export", "Markdown portfolio report"},
					},
				},
				{
					name: "Paper Trading",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"paper", "Account and performance"},
						{"paper buy <symbol> <qty>", "Simulated buy"},
						{"paper sell <symbol> <qty>", "Simulated sell"},
						{"paper trades", "Trade history"},
						{"paper reset", "Fresh starting balance"},
					},
				},
				{
					name: "Symbols & Imports",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"symbols search <query>", "Search the symbol directory"},
						{"symbols list/info/stats", "Browse symbols"},
						{"symbols import sp500", "Import a symbol universe"},
						{"import daily/news/reddit/economic", "Backend data imports"},
					},
				},
				{
					name: "System",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"health", "Backend liveness"},
						{"status", "Backend process and circuit breaker"},
						{"server restart/shutdown", "Backend lifecycle"},
						{"config show/validate/path", "Configuration"},
					},
				},
				{
					name: "Help",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"help <command>", "Detailed help"},
						{"commands", "List all commands"},
						{"examples", "Common workflows"},
						{"quickstart", "New user guide"},
						{"version", "Version information"},
					},
				},
			}

			for _, cat := range categories {
				output.Bold(cat.name)
				for _, c := range cat.commands {
					output.Printf("  %-34s %s\n", output.Cyan(c.cmd), c.desc)
				}
				output.Println()
			}

			output.Dim("Use 'starkterm help <command>' for detailed help on any command")

			return nil
		},
	}
}

func newExamplesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		Long:  "Display examples of common workflows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "Morning Check",
					commands: []string{
						"starkterm health                 # Is the backend up?",
						"starkterm dashboard              # Portfolio, paper P&L, news",
						"starkterm news --limit 10        # Latest headlines",
						"starkterm scan                   # Signals across the watchlist",
					},
				},
				{
					title: "Study a Symbol",
					commands: []string{
						"starkterm quote AAPL             # Current snapshot",
						"starkterm chart AAPL --overlays sma20,bb",
						"starkterm signals AAPL           # Backend signal rules",
						"starkterm news AAPL              # Symbol headlines",
					},
				},
				{
					title: "Live Monitoring",
					commands: []string{
						"starkterm watch                  # Stream the watchlist",
						"starkterm watch AAPL MSFT NVDA   # Stream specific symbols",
						"starkterm watch --alert 'AAPL>250' --alert 'MSFT<400'",
						"starkterm tape TSLA              # Individual trades as they print",
					},
				},
				{
					title: "Paper Trade",
					commands: []string{
						"starkterm paper                  # Account state",
						"starkterm paper buy AAPL 10      # Simulated buy",
						"starkterm paper sell AAPL 5      # Simulated sell",
						"starkterm paper trades           # What happened",
						"starkterm paper reset --balance 25000",
					},
				},
				{
					title: "Manual AI Analysis",
					commands: []string{
						"starkterm ai templates           # Browse the catalog",
						"starkterm ai render technical swing_analysis --symbol AAPL --out prompt.txt",
						"starkterm ai import technical swing_analysis --symbol AAPL --file response.md",
						"starkterm ai history --symbol AAPL",
					},
				},
				{
					title: "Export Data",
					commands: []string{
						"starkterm history AAPL --days 365 --format csv --out aapl.csv",
						"starkterm paper trades --format csv --out trades.csv",
						"starkterm portfolio export --out portfolio.md",
					},
				},
				{
					title: "Work Offline",
					commands: []string{
						"starkterm history AAPL           # Fills the candle cache",
						"starkterm chart AAPL             # Served from cache within the TTL",
						"starkterm scan AAPL MSFT         # Runs on cached candles",
						"starkterm scan results           # Past scans survive restarts",
					},
				},
			}

			for _, ex := range examples {
				output.Bold(ex.title)
				for _, c := range ex.commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(parts[0])), output.DimText("# "+strings.TrimSpace(parts[1])))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}

			return nil
		},
	}
}

func newQuickstartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "New user guide",
		Long:  "Step-by-step guide for new users.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("StarkTerm - Quick Start Guide")
			output.Println()

			steps := []struct {
				step  int
				title string
				desc  string
				cmd   string
			}{
				{
					step:  1,
					title: "Point at the Backend",
					desc:  "The first run creates a config template; set backend.base_url in it.",
					cmd:   "starkterm config path  # Shows the config directory",
				},
				{
					step:  2,
					title: "Check the Connection",
					desc:  "Confirm the backend answers.",
					cmd:   "starkterm health",
				},
				{
					step:  3,
					title: "Get a Quote",
					desc:  "Fetch the latest price for a stock.",
					cmd:   "starkterm quote AAPL",
				},
				{
					step:  4,
					title: "Draw a Chart",
					desc:  "Candles with moving-average overlays and an RSI lane.",
					cmd:   "starkterm chart AAPL",
				},
				{
					step:  5,
					title: "Build a Watchlist",
					desc:  "Symbols on the watchlist feed watch, scan and the dashboard.",
					cmd:   "starkterm watchlist add AAPL --notes 'core holding'",
				},
				{
					step:  6,
					title: "Stream Live Prices",
					desc:  "A live table over the quote WebSocket; Ctrl-C to stop.",
					cmd:   "starkterm watch",
				},
				{
					step:  7,
					title: "Paper Trade",
					desc:  "Simulated trading against real prices, no real money.",
					cmd:   "starkterm paper buy AAPL 10",
				},
				{
					step:  8,
					title: "See Everything at Once",
					desc:  "Portfolio, paper performance, news and watchlist in one view.",
					cmd:   "starkterm dashboard",
				},
			}

			for _, s := range steps {
				output.Printf("%s Step %d: %s\n", output.Cyan("→"), s.step, output.BoldText(s.title))
				output.Printf("  %s\n", s.desc)
				output.Printf("  %s\n\n", output.DimText(s.cmd))
			}

			output.Bold("Configuration")
			output.Println()
			output.Printf("  %s - backend URL, cache TTL, chart and alert settings\n", output.Cyan("config.toml"))
			output.Printf("  %s - override the backend without editing the file\n", output.Cyan("STARKTERM_BACKEND_URL"))
			output.Println()

			output.Bold("Getting Help")
			output.Println()
			output.Printf("  %s - List all commands\n", output.Cyan("starkterm commands"))
			output.Printf("  %s - Common workflows\n", output.Cyan("starkterm examples"))
			output.Printf("  %s - Help for any command\n", output.Cyan("starkterm help <command>"))

			return nil
		},
	}
}
