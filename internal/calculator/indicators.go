package calculator

import "GoldSentinel/internal/model"

// ComputeIndicators derives every indicator from bars. It never fails: an
// indicator whose history is too short is left nil or empty. rsiPeriod <= 0
// selects DefaultRSIPeriod.
func ComputeIndicators(bars []model.PriceBar, rsiPeriod int) model.IndicatorSet {
	set := model.IndicatorSet{
		MA5:          CalculateMovingAverage(bars, 5),
		MA20:         CalculateMovingAverage(bars, 20),
		MA50:         CalculateMovingAverage(bars, 50),
		MA125:        CalculateMovingAverage(bars, 125),
		Deviation:    CalculateDeviation(bars),
		Crossover:    DetectCrossover(bars),
		PivotPoints:  CalculatePivotPoints(bars),
		MonthlyHLAvg: CalculateMonthlyHighLowAvg(bars),
	}
	if rsi, ok := CalculateRSI(bars, rsiPeriod); ok {
		set.RSI = &rsi
	}
	return set
}
