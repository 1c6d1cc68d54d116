package calculator

import (
	"github.com/markcheno/go-talib"

	"GoldSentinel/internal/model"
)

// trendWindows carry a trend arrow; longer windows are plotted only.
var trendWindows = map[int]bool{5: true, 20: true, 50: true}

// SMALine computes the rolling simple mean of close prices. Bars with a missing
// close are skipped, so each point is the mean of window genuine observations and
// is stamped with the time of the bar it ends on. Returns nil when the series holds
// fewer than window usable closes.
func SMALine(bars []model.PriceBar, window int) []model.TimeValue {
	if window <= 0 {
		return nil
	}
	valid := model.ValidBars(bars)
	if len(valid) < window {
		return nil
	}
	sma := talib.Sma(extractCloses(valid), window)
	line := make([]model.TimeValue, 0, len(valid)-window+1)
	for i := window - 1; i < len(valid); i++ {
		line = append(line, model.TimeValue{Time: valid[i].Time, Value: sma[i]})
	}
	return line
}

// CalculateMovingAverage returns the moving average for window, or nil when the
// history is too short.
func CalculateMovingAverage(bars []model.PriceBar, window int) *model.MovingAverage {
	line := SMALine(bars, window)
	if len(line) == 0 {
		return nil
	}
	ma := &model.MovingAverage{
		Window: window,
		Value:  line[len(line)-1].Value,
		Line:   line,
	}
	if trendWindows[window] {
		ma.Trend = TrendArrow(line)
	}
	return ma
}

// TrendArrow compares the last point of a line with the one before it.
func TrendArrow(line []model.TimeValue) string {
	if len(line) < 2 {
		return model.TrendFlat
	}
	cur, prev := line[len(line)-1].Value, line[len(line)-2].Value
	switch {
	case cur > prev:
		return model.TrendUp
	case cur < prev:
		return model.TrendDown
	default:
		return model.TrendFlat
	}
}

func extractCloses(bars []model.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
