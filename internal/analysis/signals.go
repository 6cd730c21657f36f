// Package analysis evaluates technical buy/sell signals over candle history.
// The rules and strengths match what the backend's signal endpoint reports,
// so an offline scan over cached candles agrees with the server.
package analysis

import (
	"context"

	"starkterm/internal/analysis/indicators"
	"starkterm/internal/models"
)

// Signal rule thresholds and strengths.
const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0

	macdCrossStrength = 75.0
	maCrossStrength   = 80.0
	bbTouchStrength   = 65.0

	// Bollinger rules fire when the close is within 1% of a band.
	bbLowerTolerance = 1.01
	bbUpperTolerance = 0.99
)

// Scanner computes the indicator set the signal rules need and evaluates
// them on the latest bar. Crossover rules also look at the previous bar.
type Scanner struct {
	engine *indicators.Engine
}

// NewScanner creates a scanner with its own indicator engine.
func NewScanner(workers int) *Scanner {
	e := indicators.NewEngine(workers)
	e.RegisterIndicator(indicators.NewSMA(20))
	e.RegisterIndicator(indicators.NewSMA(50))
	e.RegisterIndicator(indicators.NewRSI(14))
	e.RegisterMultiIndicator(indicators.NewMACD(12, 26, 9))
	e.RegisterMultiIndicator(indicators.NewBollingerBands(20, 2.0))
	return &Scanner{engine: e}
}

// Scan evaluates all signal rules against the candle history. Candles must
// be ordered oldest first. Rules whose indicators lack enough history are
// skipped rather than reported as errors.
func (s *Scanner) Scan(ctx context.Context, candles []models.Candle) ([]models.Signal, error) {
	if len(candles) < 2 {
		return nil, indicators.ErrInsufficientData
	}

	single, multi, err := s.engine.CalculateAll(ctx, candles)
	if err != nil {
		return nil, err
	}

	last := len(candles) - 1
	prev := last - 1
	signals := make([]models.Signal, 0, 4)

	// RSI extremes. Zero means the warmup region, skip it.
	if rsi, ok := single["RSI_14"]; ok {
		r := rsi[last]
		if r > 0 && r < rsiOversold {
			signals = append(signals, models.Signal{
				Type:      string(models.OrderSideBuy),
				Indicator: "RSI_OVERSOLD",
				Strength:  (rsiOversold - r) / rsiOversold * 100,
				Value:     r,
			})
		} else if r > rsiOverbought {
			signals = append(signals, models.Signal{
				Type:      string(models.OrderSideSell),
				Indicator: "RSI_OVERBOUGHT",
				Strength:  (r - rsiOverbought) / (100 - rsiOverbought) * 100,
				Value:     r,
			})
		}
	}

	// MACD signal-line crossovers.
	if macd, ok := multi["MACD_12_26_9"]; ok {
		macdLine := macd["macd"]
		signalLine := macd["signal"]
		mc, sc := macdLine[last], signalLine[last]
		mp, sp := macdLine[prev], signalLine[prev]

		if mc != 0 && sc != 0 && mp != 0 && sp != 0 {
			if mc > sc && mp <= sp {
				signals = append(signals, models.Signal{
					Type:      string(models.OrderSideBuy),
					Indicator: "MACD_CROSS_BULLISH",
					Strength:  macdCrossStrength,
					Value:     mc - sc,
				})
			} else if mc < sc && mp >= sp {
				signals = append(signals, models.Signal{
					Type:      string(models.OrderSideSell),
					Indicator: "MACD_CROSS_BEARISH",
					Strength:  macdCrossStrength,
					Value:     sc - mc,
				})
			}
		}
	}

	// SMA 20/50 golden and death crosses.
	sma20, ok20 := single["SMA_20"]
	sma50, ok50 := single["SMA_50"]
	if ok20 && ok50 {
		fc, sc := sma20[last], sma50[last]
		fp, sp := sma20[prev], sma50[prev]

		if fc != 0 && sc != 0 && fp != 0 && sp != 0 {
			if fc > sc && fp <= sp {
				signals = append(signals, models.Signal{
					Type:      string(models.OrderSideBuy),
					Indicator: "MA_GOLDEN_CROSS",
					Strength:  maCrossStrength,
					Value:     fc - sc,
				})
			} else if fc < sc && fp >= sp {
				signals = append(signals, models.Signal{
					Type:      string(models.OrderSideSell),
					Indicator: "MA_DEATH_CROSS",
					Strength:  maCrossStrength,
					Value:     sc - fc,
				})
			}
		}
	}

	// Close touching a Bollinger band.
	if bb, ok := multi["BollingerBands_20_2.0"]; ok {
		upper := bb["upper"][last]
		lower := bb["lower"][last]
		lastClose := candles[last].Close

		if upper != 0 && lower != 0 {
			if lastClose <= lower*bbLowerTolerance {
				signals = append(signals, models.Signal{
					Type:      string(models.OrderSideBuy),
					Indicator: "BB_OVERSOLD",
					Strength:  bbTouchStrength,
					Value:     (lower - lastClose) / lower * 100,
				})
			} else if lastClose >= upper*bbUpperTolerance {
				signals = append(signals, models.Signal{
					Type:      string(models.OrderSideSell),
					Indicator: "BB_OVERBOUGHT",
					Strength:  bbTouchStrength,
					Value:     (lastClose - upper) / upper * 100,
				})
			}
		}
	}

	return signals, nil
}
