package calculator

import (
	"math"

	"GoldSentinel/internal/model"
)

// OverheatThreshold is the absolute MA5/MA20 gap, in percent, above which the
// market is flagged as overheated.
const OverheatThreshold = 10.0

// CalculateDeviation returns the percentage gap of MA5 over MA20 and how it moved
// since the previous bar, or nil when MA20 is unavailable.
func CalculateDeviation(bars []model.PriceBar) *model.MADeviation {
	short := SMALine(bars, crossShortWindow)
	long := SMALine(bars, crossLongWindow)
	if len(long) == 0 {
		return nil
	}
	cur := deviationPct(short[len(short)-1].Value, long[len(long)-1].Value)
	dev := &model.MADeviation{
		Value:      cur,
		Overheated: math.Abs(cur) > OverheatThreshold,
		Trend:      model.DeviationUnchanged,
	}
	if len(long) < 2 {
		return dev
	}
	prev := deviationPct(short[len(short)-2].Value, long[len(long)-2].Value)
	switch {
	case cur > prev:
		dev.Trend = model.DeviationIncreasing
	case cur < prev:
		dev.Trend = model.DeviationDecreasing
	}
	return dev
}

func deviationPct(short, long float64) float64 {
	if long == 0 {
		return 0
	}
	return (short - long) / long * 100
}
