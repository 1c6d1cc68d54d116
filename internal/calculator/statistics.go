package calculator

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"GoldSentinel/internal/model"
)

// ComputeStatistics summarises the close prices of bars. Missing closes are
// skipped. A series without any usable close yields a zero result with
// HasData=false; a single bar is treated as its own previous day.
func ComputeStatistics(bars []model.PriceBar) model.StatisticsResult {
	valid := model.ValidBars(bars)
	if len(valid) == 0 {
		return model.StatisticsResult{}
	}
	closes := extractCloses(valid)
	n := len(closes)
	last := valid[n-1]

	res := model.StatisticsResult{
		HasData:         true,
		BarCount:        n,
		CurrentPrice:    closes[n-1],
		MaxPrice:        floats.Max(closes),
		MinPrice:        floats.Min(closes),
		TodayOpen:       finiteOr(last.Open, last.Close),
		TodayHigh:       finiteOr(last.High, last.Close),
		TodayLow:        finiteOr(last.Low, last.Close),
		LatestTimestamp: last.Time,
	}

	// mean is clamped so rounding never puts it outside [min, max]
	res.AvgPrice = clamp(stat.Mean(closes, nil), res.MinPrice, res.MaxPrice)

	prev := closes[n-1]
	if n > 1 {
		prev = closes[n-2]
	}
	res.DayChange = closes[n-1] - prev
	res.DayChangePct = percentOf(res.DayChange, prev)

	res.PeriodChange = closes[n-1] - closes[0]
	res.PeriodChangePct = percentOf(res.PeriodChange, closes[0])

	if n > 1 && res.MaxPrice != res.MinPrice {
		res.Volatility = stat.StdDev(closes, nil)
	}
	return res
}

func percentOf(change, base float64) float64 {
	if base == 0 {
		return 0
	}
	return change / base * 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finiteOr(v, fallback float64) float64 {
	if isFinite(v) {
		return v
	}
	return fallback
}
