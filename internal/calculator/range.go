package calculator

import (
	"errors"
	"math"

	"GoldSentinel/internal/model"
)

var errNoRange = errors.New("no finite high/low in bars")

// HighLowRange scans bars and returns the highest high and the lowest low.
// Missing or non-finite values are ignored.
func HighLowRange(bars []model.PriceBar) (high, low float64, err error) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if isFinite(b.High) && b.High > high {
			high = b.High
		}
		if isFinite(b.Low) && b.Low < low {
			low = b.Low
		}
	}
	if math.IsInf(high, 0) || math.IsInf(low, 0) {
		return 0, 0, errNoRange
	}
	return high, low, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
