package calculator

import "GoldSentinel/internal/model"

// DefaultRSIPeriod is the lookback used when none is configured.
const DefaultRSIPeriod = 14

// CalculateRSI computes the RSI over the most recent period close-to-close changes,
// averaging gains and losses with a plain mean (no Wilder smoothing).
// Requires at least period+1 usable closes; ok is false otherwise.
func CalculateRSI(bars []model.PriceBar, period int) (rsi float64, ok bool) {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	closes := model.Closes(bars)
	if len(closes) < period+1 {
		return 0, false
	}

	var sumUp, sumDown float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			sumUp += change
		} else {
			sumDown -= change
		}
	}
	avgUp := sumUp / float64(period)
	avgDown := sumDown / float64(period)

	switch {
	case avgDown == 0 && avgUp == 0:
		return 50, true
	case avgDown == 0:
		return 100, true
	}
	rs := avgUp / avgDown
	return 100 - 100/(1+rs), true
}
