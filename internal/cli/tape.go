package cli

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	apperrors "starkterm/internal/errors"
	"starkterm/internal/models"
	"starkterm/internal/stream"
)

func newTapeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tape <symbol>",
		Short: "Stream the trade tape for a symbol",
		Long: `Stream individual trades for one symbol as they print.

The tape socket is one way: the server pushes trades and the client
only listens. The connection reconnects automatically after a drop.`,
		Example: `  starkterm tape AAPL
  starkterm tape NVDA --side buy
  starkterm tape TSLA --limit 50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbol := strings.ToUpper(args[0])
			limit, _ := cmd.Flags().GetInt("limit")
			side, _ := cmd.Flags().GetString("side")
			duration, _ := cmd.Flags().GetDuration("duration")

			side = strings.ToLower(side)
			if side != "" && side != "buy" && side != "sell" {
				err := apperrors.NewValidationError("side", side, "must be buy or sell")
				output.Error("%v", err)
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			tape := stream.NewTradeStream(symbol, stream.TradeStreamConfig{
				URL:           app.Config.WSBaseURL() + "/ws/trades/" + symbol,
				ReconnectBase: app.Config.Stream.ReconnectBase,
				ReconnectMax:  app.Config.Stream.ReconnectMax,
			}, app.Logger)

			// The handler runs on the socket's read loop, so trades are
			// handed to the main goroutine over a buffered channel. A
			// full buffer drops ticks rather than stalling the socket.
			ticks := make(chan models.TradeTick, 256)
			tape.OnTrade(func(tick models.TradeTick) {
				select {
				case ticks <- tick:
				default:
				}
			})

			if err := tape.Connect(ctx); err != nil {
				output.Error("Failed to connect: %v", err)
				return err
			}
			defer tape.Close()

			if !output.IsJSON() {
				output.Info("Tape for %s", symbol)
				output.Dim("Press Ctrl+C to stop")
				output.Println()
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			printed := 0
			var shares int64

			for {
				select {
				case <-ctx.Done():
					if !output.IsJSON() {
						output.Println()
						output.Dim("Stopped. %d trades, %s shares.", printed, FormatVolume(shares))
					}
					return nil
				case tick := <-ticks:
					if side != "" && tick.Side != side {
						continue
					}

					if output.IsJSON() {
						enc.Encode(tick)
					} else {
						printTapeLine(output, tick)
					}
					printed++
					shares += tick.Size

					if limit > 0 && printed >= limit {
						if !output.IsJSON() {
							output.Println()
							output.Dim("%d trades, %s shares.", printed, FormatVolume(shares))
						}
						return nil
					}
				}
			}
		},
	}

	cmd.Flags().Int("limit", 0, "stop after this many trades (0 = run until interrupted)")
	cmd.Flags().String("side", "", "only show one side (buy or sell)")
	cmd.Flags().Duration("duration", 0, "stop after this duration (0 = run until interrupted)")

	return cmd
}

// printTapeLine prints one trade. Buys are green, sells red, matching
// the up/down tick convention.
func printTapeLine(output *Output, tick models.TradeTick) {
	sideTag := output.Green("▲ BUY ")
	if tick.Side == "sell" {
		sideTag = output.Red("▼ SELL")
	}

	output.Printf("%s  %s  %10s × %-8s %s\n",
		output.DimText(streamClock(tick.Time)),
		tick.Symbol,
		FormatPrice(tick.Price),
		FormatQuantity(tick.Size),
		sideTag,
	)
}
