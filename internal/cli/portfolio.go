package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "starkterm/internal/errors"
	"starkterm/internal/models"
)

// addPortfolioCommands adds portfolio tracking commands.
func addPortfolioCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPortfolioCmd(app))
	rootCmd.AddCommand(newPositionsCmd(app))
}

func newPortfolioCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "View and manage the tracked portfolio",
		Long: `Display the valued portfolio with per-position P&L.

Positions live on the backend and are valued against the latest
prices it holds. Subcommands add to, close out, and export the book.`,
		Example: `  starkterm portfolio
  starkterm portfolio add AAPL 10 185.50
  starkterm portfolio close AAPL
  starkterm portfolio export --out portfolio.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			summary, err := app.API.GetPortfolio(ctx)
			if err != nil {
				output.Error("Failed to get portfolio: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(summary)
			}

			displayPortfolio(output, summary)
			return nil
		},
	}

	cmd.AddCommand(newPortfolioAddCmd(app))
	cmd.AddCommand(newPortfolioCloseCmd(app))
	cmd.AddCommand(newPortfolioExportCmd(app))

	return cmd
}

func displayPortfolio(output *Output, summary *models.PortfolioSummary) {
	output.Bold("Portfolio")
	output.Printf("  %d positions\n\n", summary.NumPositions)

	if len(summary.Positions) == 0 {
		output.Info("No positions tracked. Use 'starkterm portfolio add <symbol> <qty> <price>'.")
		return
	}

	displayPositionsTable(output, summary.Positions)

	output.Println()
	output.Bold("Summary")
	output.Printf("  Market Value: %s\n", FormatUSCurrency(summary.TotalMarketValue))
	output.Printf("  Cost Basis:   %s\n", FormatUSCurrency(summary.TotalCostBasis))
	output.Printf("  Total P&L:    %s (%s)\n", output.FormatPnL(summary.TotalPL), output.FormatPercent(summary.TotalPLPct))
}

func displayPositionsTable(output *Output, positions []models.Position) {
	table := NewTable(output, "Symbol", "Qty", "Avg Cost", "Price", "Value", "P&L", "P&L %")
	for _, p := range positions {
		table.AddRow(
			p.Symbol,
			formatShares(p.Quantity),
			FormatPrice(p.AverageCost),
			FormatPrice(p.CurrentPrice),
			FormatUSCurrency(p.MarketValue),
			output.FormatPnL(p.UnrealizedPL),
			output.FormatPercent(p.UnrealizedPLPct),
		)
	}
	table.Render()
}

// formatShares drops the decimals for whole-share positions.
func formatShares(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%d", int64(qty))
	}
	return fmt.Sprintf("%.4f", qty)
}

func newPositionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "positions [symbol]",
		Short: "View tracked positions",
		Long:  "Display tracked positions with unrealized P&L.",
		Example: `  starkterm positions
  starkterm positions AAPL`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if len(args) == 1 {
				symbol := strings.ToUpper(args[0])
				position, err := app.API.GetPosition(ctx, symbol)
				if err != nil {
					output.Error("Failed to get position: %v", err)
					return err
				}
				if output.IsJSON() {
					return output.JSON(position)
				}
				displayPositionsTable(output, []models.Position{*position})
				return nil
			}

			positions, err := app.API.GetPositions(ctx)
			if err != nil {
				output.Error("Failed to get positions: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(positions)
			}

			if len(positions) == 0 {
				output.Info("No positions tracked. Use 'starkterm portfolio add <symbol> <qty> <price>'.")
				return nil
			}

			output.Bold("Positions")
			output.Printf("  %d positions\n\n", len(positions))

			displayPositionsTable(output, positions)

			var totalPL float64
			for _, p := range positions {
				totalPL += p.UnrealizedPL
			}
			output.Println()
			output.Printf("  Total P&L: %s\n", output.FormatPnL(totalPL))

			return nil
		},
	}
}

func newPortfolioAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <symbol> <quantity> <price>",
		Short: "Add shares to a position",
		Long: `Add shares to a tracked position at the given fill price.

Adding to an existing position recomputes its average cost.`,
		Example: `  starkterm portfolio add AAPL 10 185.50
  starkterm portfolio add VTI 2.5 252.10`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbol := strings.ToUpper(args[0])
			qty, err := strconv.ParseFloat(args[1], 64)
			if err != nil || qty <= 0 {
				output.Error("Invalid quantity: %s", args[1])
				return apperrors.NewValidationError("quantity", args[1], "must be a positive number")
			}
			price, err := strconv.ParseFloat(args[2], 64)
			if err != nil || price <= 0 {
				output.Error("Invalid price: %s", args[2])
				return apperrors.NewValidationError("price", args[2], "must be a positive number")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			result, err := app.API.AddPosition(ctx, models.AddPositionRequest{
				Symbol:   symbol,
				Quantity: qty,
				Price:    price,
			})
			if err != nil {
				output.Error("Failed to add position: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			p := result.Position
			output.Success("✓ Added %s %s @ %s", formatShares(qty), symbol, FormatPrice(price))
			output.Printf("  Position: %s shares, avg cost %s\n", formatShares(p.Quantity), FormatPrice(p.AverageCost))

			return nil
		},
	}
}

func newPortfolioCloseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close <symbol>",
		Short: "Close a tracked position",
		Long:  "Remove a position from the tracked portfolio.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbol := strings.ToUpper(args[0])
			yes, _ := cmd.Flags().GetBool("yes")

			confirmed, err := confirmAction(output, yes, fmt.Sprintf("Close position %s?", symbol))
			if err != nil {
				return err
			}
			if !confirmed {
				output.Info("Cancelled")
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			result, err := app.API.ClosePosition(ctx, symbol)
			if err != nil {
				output.Error("Failed to close position: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Success("✓ Closed %s", symbol)
			if result.Message != "" {
				output.Dim("%s", result.Message)
			}

			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func newPortfolioExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a portfolio summary as Markdown",
		Long: `Export a Markdown summary of the portfolio and paper account,
suitable for pasting into notes or a chat session.`,
		Example: `  starkterm portfolio export
  starkterm portfolio export --out portfolio.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			markdown, err := app.API.ExportSummary(ctx)
			if err != nil {
				output.Error("Failed to export summary: %v", err)
				return err
			}

			outPath, _ := cmd.Flags().GetString("out")
			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(markdown), 0644); err != nil {
					output.Error("Failed to write %s: %v", outPath, err)
					return err
				}
				output.Success("✓ Wrote summary to %s", outPath)
				return nil
			}

			if output.IsJSON() {
				return output.JSON(models.ExportSummary{Markdown: markdown})
			}

			output.Print("%s", markdown)
			return nil
		},
	}

	cmd.Flags().String("out", "", "write the summary to a file instead of stdout")

	return cmd
}
