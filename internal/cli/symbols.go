// Package cli provides the command-line interface for the terminal client.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"starkterm/internal/api"
	"starkterm/internal/models"
)

// addSymbolCommands adds symbol directory commands.
func addSymbolCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "Browse the symbol directory",
		Long:  "Search and browse the backend's symbol directory.",
	}

	cmd.AddCommand(newSymbolSearchCmd(app))
	cmd.AddCommand(newSymbolListCmd(app))
	cmd.AddCommand(newSymbolSectorsCmd(app))
	cmd.AddCommand(newSymbolExchangesCmd(app))
	cmd.AddCommand(newSymbolStatsCmd(app))
	cmd.AddCommand(newSymbolInfoCmd(app))
	cmd.AddCommand(newSymbolImportCmd(app))

	rootCmd.AddCommand(cmd)
}

func newSymbolSearchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search symbols by ticker or name",
		Example: `  starkterm symbols search apple
  starkterm symbols search semiconductor --limit 25`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			limit, _ := cmd.Flags().GetInt("limit")

			results, err := app.API.SearchSymbols(ctx, args[0], limit)
			if err != nil {
				output.Error("Search failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(results)
			}

			if len(results) == 0 {
				output.Info("No symbols match %q", args[0])
				return nil
			}

			displaySymbolTable(output, results)
			output.Dim("%d result(s)", len(results))
			return nil
		},
	}

	cmd.Flags().Int("limit", 10, "maximum results")

	return cmd
}

func newSymbolListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List symbols with filters and pagination",
		Example: `  starkterm symbols list --exchange NASDAQ
  starkterm symbols list --sector Technology --limit 50
  starkterm symbols list --offset 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			req := api.ListSymbolsRequest{}
			req.Exchange, _ = cmd.Flags().GetString("exchange")
			req.Sector, _ = cmd.Flags().GetString("sector")
			req.Offset, _ = cmd.Flags().GetInt("offset")
			req.Limit, _ = cmd.Flags().GetInt("limit")

			page, err := app.API.ListSymbols(ctx, req)
			if err != nil {
				output.Error("Failed to list symbols: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(page)
			}

			if len(page.Symbols) == 0 {
				output.Info("No symbols match the filters.")
				return nil
			}

			displaySymbolTable(output, page.Symbols)
			output.Dim("Showing %d-%d of %d", page.Offset+1, page.Offset+page.Count, page.Total)
			return nil
		},
	}

	cmd.Flags().String("exchange", "", "filter by exchange")
	cmd.Flags().String("sector", "", "filter by sector")
	cmd.Flags().Int("offset", 0, "pagination offset")
	cmd.Flags().Int("limit", 0, "page size (0 = backend default)")

	return cmd
}

func displaySymbolTable(output *Output, symbols []models.SymbolInfo) {
	table := NewTable(output, "Symbol", "Name", "Exchange", "Sector")
	for _, s := range symbols {
		table.AddRow(
			output.BoldText(s.Symbol),
			TruncateString(s.Name, 36),
			s.Exchange,
			TruncateString(s.Sector, 24),
		)
	}
	table.Render()
}

func newSymbolSectorsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sectors",
		Short: "List known sectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			sectors, err := app.API.GetSectors(ctx)
			if err != nil {
				output.Error("Failed to get sectors: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(sectors)
			}

			for _, s := range sectors {
				output.Println(s)
			}
			output.Dim("%d sector(s)", len(sectors))
			return nil
		},
	}
}

func newSymbolExchangesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "exchanges",
		Short: "List known exchanges",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			exchanges, err := app.API.GetExchanges(ctx)
			if err != nil {
				output.Error("Failed to get exchanges: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(exchanges)
			}

			for _, e := range exchanges {
				output.Println(e)
			}
			output.Dim("%d exchange(s)", len(exchanges))
			return nil
		},
	}
}

func newSymbolStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Symbol directory statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			stats, err := app.API.GetSymbolStats(ctx)
			if err != nil {
				output.Error("Failed to get symbol stats: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(stats)
			}

			output.Bold("Symbol Directory")
			output.Printf("  Total symbols: %d\n", stats.TotalSymbols)
			output.Println()

			if len(stats.ByExchange) > 0 {
				output.Bold("By Exchange")
				for _, g := range stats.ByExchange {
					output.Printf("  %-12s %d\n", g.Exchange, g.Count)
				}
				output.Println()
			}

			if len(stats.TopSectors) > 0 {
				output.Bold("Top Sectors")
				for _, g := range stats.TopSectors {
					output.Printf("  %-28s %d\n", g.Sector, g.Count)
				}
			}

			return nil
		},
	}
}

func newSymbolInfoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "info <symbol>",
		Short:   "Show details for one symbol",
		Example: `  starkterm symbols info AAPL`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])

			info, err := app.API.GetSymbol(ctx, symbol)
			if err != nil {
				output.Error("Failed to get symbol: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(info)
			}

			output.Box(info.Symbol, []string{
				fmt.Sprintf("Name:     %s", info.Name),
				fmt.Sprintf("Exchange: %s", info.Exchange),
				fmt.Sprintf("Sector:   %s", info.Sector),
				fmt.Sprintf("Industry: %s", info.Industry),
			})
			return nil
		},
	}
}

func newSymbolImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <sp500|nasdaq|dow|all>",
		Short: "Import a symbol universe into the backend",
		Long: `Trigger a symbol universe import on the backend.

Imports fetch the constituent list for the chosen index and can take a
while; the command waits for the backend to finish.`,
		Example: `  starkterm symbols import sp500
  starkterm symbols import all --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			source := strings.ToLower(args[0])
			switch source {
			case "sp500", "nasdaq", "dow", "all":
			default:
				output.Error("Unknown source %q (want sp500, nasdaq, dow or all)", source)
				return fmt.Errorf("unknown symbol source: %s", source)
			}

			yes, _ := cmd.Flags().GetBool("yes")
			confirmed, err := confirmAction(output, yes, fmt.Sprintf("Import the %s symbol universe? This can take a while.", source))
			if err != nil {
				return err
			}
			if !confirmed {
				output.Info("Cancelled")
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			result, err := app.API.ImportSymbols(ctx, source)
			if err != nil {
				output.Error("Import failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Success("✓ Imported %d symbol(s) from %s", result.SymbolsImported, result.Source)
			if result.SymbolsFailed > 0 {
				output.Warning("%d symbol(s) failed", result.SymbolsFailed)
			}
			if result.Message != "" {
				output.Dim("%s", result.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	return cmd
}
