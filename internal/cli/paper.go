package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	apperrors "starkterm/internal/errors"
	"starkterm/internal/logging"
	"starkterm/internal/models"
)

// addPaperCommands adds simulated trading commands.
func addPaperCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPaperCmd(app))
}

func newPaperCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paper",
		Short: "Trade the simulated paper account",
		Long: `Trade a simulated cash account held on the backend.

Fills execute at the latest price the backend has for the symbol.
No real orders are placed anywhere.`,
		Example: `  starkterm paper
  starkterm paper buy AAPL 10
  starkterm paper sell AAPL 5
  starkterm paper trades --limit 20
  starkterm paper reset --balance 100000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			account, err := app.API.GetPaperAccount(ctx)
			if err != nil {
				output.Error("Failed to get paper account: %v", err)
				return err
			}
			perf, err := app.API.GetPaperPerformance(ctx)
			if err != nil {
				output.Error("Failed to get paper performance: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(struct {
					Account     *models.PaperAccount     `json:"account"`
					Performance *models.PaperPerformance `json:"performance"`
				}{account, perf})
			}

			output.Bold("Paper Account")
			output.Printf("  Cash Balance:     %s\n", FormatUSCurrency(account.Balance))
			output.Printf("  Starting Balance: %s\n", FormatUSCurrency(account.StartingBalance))
			output.Println()

			displayPaperPerformance(output, perf)
			return nil
		},
	}

	cmd.AddCommand(newPaperBuyCmd(app))
	cmd.AddCommand(newPaperSellCmd(app))
	cmd.AddCommand(newPaperPerformanceCmd(app))
	cmd.AddCommand(newPaperTradesCmd(app))
	cmd.AddCommand(newPaperResetCmd(app))

	return cmd
}

func displayPaperPerformance(output *Output, perf *models.PaperPerformance) {
	output.Bold("Performance")
	output.Printf("  Cash:            %s\n", FormatUSCurrency(perf.CashBalance))
	output.Printf("  Positions Value: %s (%d positions)\n", FormatUSCurrency(perf.PositionsValue), perf.NumPositions)
	output.Printf("  Total Value:     %s\n", FormatUSCurrency(perf.TotalValue))
	output.Printf("  Total Return:    %s (%s)\n", output.FormatPnL(perf.TotalReturn), output.FormatPercent(perf.ReturnPct))
}

func newPaperBuyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "buy <symbol> <quantity>",
		Short:   "Buy shares in the paper account",
		Example: `  starkterm paper buy AAPL 10`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaperTrade(cmd, app, models.OrderSideBuy, args)
		},
	}
}

func newPaperSellCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "sell <symbol> <quantity>",
		Short:   "Sell shares from the paper account",
		Example: `  starkterm paper sell AAPL 5`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaperTrade(cmd, app, models.OrderSideSell, args)
		},
	}
}

func runPaperTrade(cmd *cobra.Command, app *App, side models.OrderSide, args []string) error {
	output := NewOutput(cmd)

	symbol := strings.ToUpper(args[0])
	qty, err := strconv.Atoi(args[1])
	if err != nil || qty <= 0 {
		output.Error("Invalid quantity: %s", args[1])
		return apperrors.NewValidationError("quantity", args[1], "must be a positive integer")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := app.API.PlacePaperTrade(ctx, models.PaperTradeRequest{
		Symbol:    symbol,
		Quantity:  qty,
		OrderType: side,
	})
	if err != nil {
		var apiErr *apperrors.APIError
		if apperrors.As(err, &apiErr) && apiErr.Status == 400 {
			// The backend explains the rejection; show its reason as sent.
			output.Error("Trade rejected: %s", apiErr.Detail)
		} else {
			output.Error("Trade failed: %v", err)
		}
		return err
	}

	logging.LogTrade(app.Logger, symbol, string(side), qty, result.Price)

	if output.IsJSON() {
		return output.JSON(result)
	}

	if side == models.OrderSideBuy {
		output.Success("✓ Bought %d %s @ %s", result.Quantity, result.Symbol, FormatPrice(result.Price))
		output.Printf("  Total cost: %s\n", FormatUSCurrency(result.TotalCost))
	} else {
		output.Success("✓ Sold %d %s @ %s", result.Quantity, result.Symbol, FormatPrice(result.Price))
		output.Printf("  Proceeds:   %s\n", FormatUSCurrency(result.TotalProceeds))
		output.Printf("  Realized:   %s (%s)\n", output.FormatPnL(result.RealizedPL), output.FormatPercent(result.RealizedPLPct))
	}
	output.Printf("  Balance:    %s\n", FormatUSCurrency(result.BalanceAfter))

	return nil
}

func newPaperPerformanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "performance",
		Short: "Show paper account performance",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			perf, err := app.API.GetPaperPerformance(ctx)
			if err != nil {
				output.Error("Failed to get paper performance: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(perf)
			}

			displayPaperPerformance(output, perf)
			return nil
		},
	}
}

func newPaperTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Show paper trade history",
		Long:  "Display executed paper trades, most recent first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			limit, _ := cmd.Flags().GetInt("limit")
			format, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			trades, err := app.API.GetPaperTrades(ctx, limit)
			if err != nil {
				output.Error("Failed to get trades: %v", err)
				return err
			}

			if format == "csv" {
				return writeTradeCSV(output, trades, outPath)
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}

			if len(trades) == 0 {
				output.Info("No paper trades yet. Use 'starkterm paper buy <symbol> <qty>'.")
				return nil
			}

			output.Bold("Paper Trades")
			output.Printf("  %d trades\n\n", len(trades))

			table := NewTable(output, "Time", "Symbol", "Action", "Qty", "Price", "Balance After")
			for _, t := range trades {
				action := output.Green("BUY")
				if strings.EqualFold(t.Action, "sell") {
					action = output.Red("SELL")
				}
				table.AddRow(
					t.Timestamp,
					t.Symbol,
					action,
					FormatQuantity(int64(t.Quantity)),
					FormatPrice(t.Price),
					FormatUSCurrency(t.BalanceAfter),
				)
			}
			table.Render()

			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "maximum number of trades to show")
	cmd.Flags().String("format", "table", "output format (table, csv)")
	cmd.Flags().String("out", "", "write CSV to a file instead of stdout")

	return cmd
}

// csvTrade is the row shape for CSV export.
type csvTrade struct {
	Timestamp    string  `csv:"timestamp"`
	Symbol       string  `csv:"symbol"`
	Action       string  `csv:"action"`
	Quantity     int     `csv:"quantity"`
	Price        float64 `csv:"price"`
	BalanceAfter float64 `csv:"balance_after"`
}

func writeTradeCSV(output *Output, trades []models.TradeRecord, outPath string) error {
	rows := make([]csvTrade, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, csvTrade{
			Timestamp:    t.Timestamp,
			Symbol:       t.Symbol,
			Action:       t.Action,
			Quantity:     t.Quantity,
			Price:        t.Price,
			BalanceAfter: t.BalanceAfter,
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
		output.Success("✓ Wrote %d trades to %s", len(rows), outPath)
		return nil
	}

	output.Print("%s", data)
	return nil
}

func newPaperResetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the paper account",
		Long: `Reset the paper account to a fresh starting balance.

Every paper position and trade record is wiped.`,
		Example: `  starkterm paper reset
  starkterm paper reset --balance 250000 --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			balance, _ := cmd.Flags().GetFloat64("balance")
			yes, _ := cmd.Flags().GetBool("yes")

			confirmed, err := confirmAction(output, yes, "Reset the paper account? All positions and history are wiped.")
			if err != nil {
				return err
			}
			if !confirmed {
				output.Info("Cancelled")
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			result, err := app.API.ResetPaperAccount(ctx, balance)
			if err != nil {
				output.Error("Failed to reset paper account: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Success("✓ Paper account reset")
			if result.Message != "" {
				output.Dim("%s", result.Message)
			}

			return nil
		},
	}

	cmd.Flags().Float64("balance", 0, "starting balance (0 = backend default)")
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	return cmd
}
