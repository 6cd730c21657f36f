// Package cli provides the command-line interface for the terminal client.
package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"starkterm/internal/models"
)

const (
	chartGutter        = 10 // price axis width including the border column
	defaultChartWidth  = 80
	defaultChartHeight = 20
	minPlotWidth       = 10
	rsiLaneHeight      = 5
)

// chartOptions controls candlestick rendering.
type chartOptions struct {
	Width  int // total columns including the price axis
	Height int // rows in the price pane
	Color  bool
}

// chartOverlay is one indicator line drawn over the candles.
type chartOverlay struct {
	Label  string
	Glyph  rune
	Color  string
	Values []float64 // aligned to the candle slice; zeros are warmup and skipped
}

// cell is one character cell in the plot grid.
type cell struct {
	ch    rune
	color string
}

// renderChart draws an ASCII candlestick chart. It accepts any candle
// slice, including empty or single-element ones, and clamps hostile
// dimensions rather than failing.
func renderChart(candles []models.Candle, overlays []chartOverlay, opts chartOptions) string {
	if len(candles) == 0 {
		return ""
	}

	width := opts.Width
	if width <= 0 {
		width = defaultChartWidth
	}
	if width < chartGutter+minPlotWidth {
		width = chartGutter + minPlotWidth
	}
	height := opts.Height
	if height < 5 {
		height = defaultChartHeight
	}
	if height > 100 {
		height = 100
	}

	plotWidth := width - chartGutter
	offset := 0
	if len(candles) > plotWidth {
		offset = len(candles) - plotWidth
	}
	visible := candles[offset:]

	// Price bounds over visible candles and overlay points.
	minP, maxP := math.Inf(1), math.Inf(-1)
	for _, c := range visible {
		if c.Low < minP {
			minP = c.Low
		}
		if c.High > maxP {
			maxP = c.High
		}
	}
	for _, ov := range overlays {
		for col := range visible {
			idx := offset + col
			if idx >= len(ov.Values) {
				break
			}
			v := ov.Values[idx]
			if v <= 0 {
				continue
			}
			if v < minP {
				minP = v
			}
			if v > maxP {
				maxP = v
			}
		}
	}
	if math.IsInf(minP, 1) || math.IsInf(maxP, -1) {
		minP, maxP = 0, 1
	}
	if maxP <= minP {
		// Flat series still needs a nonzero range to map rows.
		pad := math.Abs(maxP) * 0.01
		if pad == 0 {
			pad = 1
		}
		minP -= pad
		maxP += pad
	}

	scale := (maxP - minP) / float64(height-1)
	priceToRow := func(p float64) int {
		row := int(math.Round((maxP - p) / scale))
		if row < 0 {
			row = 0
		}
		if row > height-1 {
			row = height - 1
		}
		return row
	}

	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, len(visible))
	}

	// Overlays first so candles draw over them.
	for _, ov := range overlays {
		for col := range visible {
			idx := offset + col
			if idx >= len(ov.Values) {
				break
			}
			v := ov.Values[idx]
			if v <= 0 {
				continue
			}
			row := priceToRow(v)
			if grid[row][col].ch == 0 {
				grid[row][col] = cell{ch: ov.Glyph, color: ov.Color}
			}
		}
	}

	// Candles: wick first, body over it.
	for col, c := range visible {
		wickTop := priceToRow(c.High)
		wickBottom := priceToRow(c.Low)
		for row := wickTop; row <= wickBottom; row++ {
			grid[row][col] = cell{ch: '│', color: ColorDim}
		}

		bodyHigh := math.Max(c.Open, c.Close)
		bodyLow := math.Min(c.Open, c.Close)
		bodyTop := priceToRow(bodyHigh)
		bodyBottom := priceToRow(bodyLow)

		bodyCh := '█'
		bodyColor := ColorGreen
		if c.Close < c.Open {
			bodyCh = '░'
			bodyColor = ColorRed
		}
		for row := bodyTop; row <= bodyBottom; row++ {
			grid[row][col] = cell{ch: bodyCh, color: bodyColor}
		}
	}

	var sb strings.Builder

	labelStep := height / 5
	if labelStep < 1 {
		labelStep = 1
	}

	for row := 0; row < height; row++ {
		if row%labelStep == 0 || row == height-1 {
			price := maxP - float64(row)*scale
			sb.WriteString(fmt.Sprintf("%8.2f ┤", price))
		} else {
			sb.WriteString(strings.Repeat(" ", 9) + "│")
		}
		for col := 0; col < len(visible); col++ {
			c := grid[row][col]
			if c.ch == 0 {
				sb.WriteByte(' ')
				continue
			}
			if opts.Color && c.color != "" {
				sb.WriteString(c.color)
				sb.WriteRune(c.ch)
				sb.WriteString(ColorReset)
			} else {
				sb.WriteRune(c.ch)
			}
		}
		sb.WriteByte('\n')
	}

	// Bottom border and date labels.
	sb.WriteString(strings.Repeat(" ", 9) + "└" + strings.Repeat("─", len(visible)) + "\n")
	sb.WriteString(strings.Repeat(" ", 10) + dateAxis(visible) + "\n")

	return sb.String()
}

// dateAxis builds the date label row under the chart.
func dateAxis(candles []models.Candle) string {
	labels := make([]byte, len(candles))
	for i := range labels {
		labels[i] = ' '
	}

	const step = 14
	for col := 0; col < len(candles); col += step {
		label := shortDate(candles[col].Date)
		if col+len(label) > len(labels) {
			break
		}
		copy(labels[col:], label)
	}
	return string(labels)
}

// shortDate trims an ISO date to MM-DD.
func shortDate(date string) string {
	if len(date) == 10 {
		return date[5:]
	}
	return date
}

// renderRSILane draws a compact RSI pane with 70/30 guides.
func renderRSILane(rsi []float64, candleCount, width int, color bool) string {
	if len(rsi) == 0 || candleCount == 0 {
		return ""
	}

	if width <= 0 {
		width = defaultChartWidth
	}
	if width < chartGutter+minPlotWidth {
		width = chartGutter + minPlotWidth
	}
	plotWidth := width - chartGutter

	offset := 0
	if candleCount > plotWidth {
		offset = candleCount - plotWidth
	}
	visible := candleCount - offset

	// Row 0 = 100, last row = 0.
	valueToRow := func(v float64) int {
		row := int(math.Round((100 - v) / 100 * float64(rsiLaneHeight-1)))
		if row < 0 {
			row = 0
		}
		if row > rsiLaneHeight-1 {
			row = rsiLaneHeight - 1
		}
		return row
	}
	guide70 := valueToRow(70)
	guide30 := valueToRow(30)

	grid := make([][]cell, rsiLaneHeight)
	for i := range grid {
		grid[i] = make([]cell, visible)
		if i == guide70 || i == guide30 {
			for col := range grid[i] {
				grid[i][col] = cell{ch: '┄', color: ColorDim}
			}
		}
	}

	for col := 0; col < visible; col++ {
		idx := offset + col
		if idx >= len(rsi) {
			break
		}
		v := rsi[idx]
		if v <= 0 {
			continue // warmup
		}
		row := valueToRow(v)
		rsiColor := ColorYellow
		if v >= 70 {
			rsiColor = ColorRed
		} else if v <= 30 {
			rsiColor = ColorGreen
		}
		grid[row][col] = cell{ch: '●', color: rsiColor}
	}

	var sb strings.Builder
	for row := 0; row < rsiLaneHeight; row++ {
		switch row {
		case guide70:
			sb.WriteString("  RSI 70 ┤")
		case guide30:
			sb.WriteString("      30 ┤")
		default:
			sb.WriteString(strings.Repeat(" ", 9) + "│")
		}
		for col := 0; col < visible; col++ {
			c := grid[row][col]
			if c.ch == 0 {
				sb.WriteByte(' ')
				continue
			}
			if color && c.color != "" {
				sb.WriteString(c.color)
				sb.WriteRune(c.ch)
				sb.WriteString(ColorReset)
			} else {
				sb.WriteRune(c.ch)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// overlaySpec describes a selectable chart overlay.
type overlaySpec struct {
	Glyph rune
	Color string
	Label string
}

var overlaySpecs = map[string]overlaySpec{
	"sma20": {Glyph: '·', Color: ColorCyan, Label: "SMA 20"},
	"sma50": {Glyph: '~', Color: ColorMagenta, Label: "SMA 50"},
	"ema12": {Glyph: '*', Color: ColorBlue, Label: "EMA 12"},
	"ema26": {Glyph: '+', Color: ColorYellow, Label: "EMA 26"},
	"vwap":  {Glyph: '^', Color: ColorWhite, Label: "VWAP"},
	"bb":    {Glyph: '=', Color: ColorDim, Label: "Bollinger 20/2"},
}

// overlayEngineNames maps overlay flags to indicator engine names.
var overlayEngineNames = map[string]string{
	"sma20": "SMA_20",
	"sma50": "SMA_50",
	"ema12": "EMA_12",
	"ema26": "EMA_26",
	"vwap":  "VWAP",
}

// chartPayload is the --json shape for the chart command.
type chartPayload struct {
	Symbol     string                          `json:"symbol"`
	Candles    []models.Candle                 `json:"candles"`
	Indicators map[string][]float64            `json:"indicators"`
	Multi      map[string]map[string][]float64 `json:"multi_indicators"`
}

// addChartCommands adds the chart command.
func addChartCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newChartCmd(app))
}

func newChartCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart <symbol>",
		Short: "Render a candlestick chart in the terminal",
		Long: `Render an ASCII candlestick chart with indicator overlays.

Candle history is served from the local cache while fresh; use --refresh
to force a backend fetch. Overlays are computed on this machine.`,
		Example: `  starkterm chart AAPL
  starkterm chart MSFT --days 60 --height 25
  starkterm chart NVDA --overlays sma20,bb --no-rsi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			days, _ := cmd.Flags().GetInt("days")
			width, _ := cmd.Flags().GetInt("width")
			height, _ := cmd.Flags().GetInt("height")
			overlayList, _ := cmd.Flags().GetString("overlays")
			noRSI, _ := cmd.Flags().GetBool("no-rsi")
			refresh, _ := cmd.Flags().GetBool("refresh")

			if width == 0 {
				width = app.Config.Chart.Width
			}
			if height == 0 {
				height = app.Config.Chart.Height
			}

			overlayNames := app.Config.Chart.Overlays
			if overlayList != "" {
				overlayNames = strings.Split(overlayList, ",")
			}

			fetch, err := fetchCandles(ctx, app, symbol, days, 0, refresh)
			if err != nil {
				output.Error("Failed to get candles: %v", err)
				return err
			}
			candles := fetch.Candles

			if len(candles) == 0 {
				output.Info("No candle history for %s.", symbol)
				return nil
			}

			single, multi, err := app.Engine.CalculateAll(ctx, candles)
			if err != nil {
				output.Error("Failed to compute indicators: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(chartPayload{
					Symbol:     symbol,
					Candles:    candles,
					Indicators: single,
					Multi:      multi,
				})
			}

			warnStaleCandles(output, fetch)

			overlays, legend := buildOverlays(overlayNames, single, multi)

			output.Printf("%s  %d candles  %s\n\n", output.BoldText(symbol), len(candles), output.SourceTag(fetch.Source))
			output.Print("%s", renderChart(candles, overlays, chartOptions{
				Width:  width,
				Height: height,
				Color:  output.colorEnabled,
			}))

			if !noRSI {
				if rsi, ok := single["RSI_14"]; ok {
					output.Println()
					output.Print("%s", renderRSILane(rsi, len(candles), width, output.colorEnabled))
				}
			}

			output.Println()
			printChartFooter(output, candles, single, multi)
			if len(legend) > 0 {
				output.Dim("  %s", strings.Join(legend, "  "))
			}

			return nil
		},
	}

	cmd.Flags().Int("days", 180, "number of calendar days of history")
	cmd.Flags().Int("width", 0, "chart width in columns (0 = config default)")
	cmd.Flags().Int("height", 0, "chart height in rows (0 = config default)")
	cmd.Flags().String("overlays", "", "comma-separated overlays: sma20,sma50,ema12,ema26,vwap,bb")
	cmd.Flags().Bool("no-rsi", false, "hide the RSI pane")
	cmd.Flags().Bool("refresh", false, "bypass the cache and fetch from the backend")

	return cmd
}

// buildOverlays resolves overlay names against computed indicator values.
// Unknown names are skipped.
func buildOverlays(names []string, single map[string][]float64, multi map[string]map[string][]float64) ([]chartOverlay, []string) {
	var overlays []chartOverlay
	var legend []string

	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		spec, ok := overlaySpecs[name]
		if !ok {
			continue
		}

		if name == "bb" {
			bb, ok := multi["BollingerBands_20_2.0"]
			if !ok {
				continue
			}
			overlays = append(overlays,
				chartOverlay{Label: spec.Label, Glyph: spec.Glyph, Color: spec.Color, Values: bb["upper"]},
				chartOverlay{Label: spec.Label, Glyph: spec.Glyph, Color: spec.Color, Values: bb["lower"]},
			)
			legend = append(legend, fmt.Sprintf("%c %s", spec.Glyph, spec.Label))
			continue
		}

		values, ok := single[overlayEngineNames[name]]
		if !ok {
			continue
		}
		overlays = append(overlays, chartOverlay{Label: spec.Label, Glyph: spec.Glyph, Color: spec.Color, Values: values})
		legend = append(legend, fmt.Sprintf("%c %s", spec.Glyph, spec.Label))
	}

	return overlays, legend
}

// printChartFooter prints the latest close, change and indicator readings.
func printChartFooter(output *Output, candles []models.Candle, single map[string][]float64, multi map[string]map[string][]float64) {
	last := len(candles) - 1
	lastClose := candles[last].Close

	line := fmt.Sprintf("  Last: %s", output.BoldText(FormatPrice(lastClose)))

	if last > 0 {
		prevClose := candles[last-1].Close
		change := lastClose - prevClose
		changePct := 0.0
		if prevClose != 0 {
			changePct = change / prevClose * 100
		}
		line += "  " + output.ColoredString(output.PnLColor(change), FormatChange(change, changePct))
	}

	if rsi, ok := single["RSI_14"]; ok && rsi[last] > 0 {
		line += fmt.Sprintf("  RSI(14): %.1f", rsi[last])
	}

	if macd, ok := multi["MACD_12_26_9"]; ok {
		m, s := macd["macd"][last], macd["signal"][last]
		if m != 0 && s != 0 {
			state := output.Green("bullish")
			if m < s {
				state = output.Red("bearish")
			}
			line += "  MACD: " + state
		}
	}

	if vwap, ok := single["VWAP"]; ok && vwap[last] > 0 {
		line += fmt.Sprintf("  VWAP: %s", FormatPrice(vwap[last]))
	}

	output.Println(line)
}
