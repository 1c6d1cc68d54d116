package api

import (
	"time"

	"github.com/shopspring/decimal"

	"GoldSentinel/internal/model"
)

const (
	priceDecimals = 2
	goldName      = "Gold Futures"
	goldCurrency  = "USD"
	goldUnit      = "per ounce"
)

// round fixes v to places decimals using decimal arithmetic so 2034.005 does
// not become 2034.00 through binary rounding.
func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

func round2(v float64) float64 { return round(v, priceDecimals) }

// chartPoint is one point of a price chart.
type chartPoint struct {
	Time   time.Time `json:"time"`
	Price  float64   `json:"price"`
	Volume int64     `json:"volume"`
}

// chartData renders the last limit bars with a close, in loc. limit <= 0 keeps all.
func chartData(bars []model.PriceBar, loc *time.Location, limit int) []chartPoint {
	valid := model.ValidBars(bars)
	if limit > 0 && len(valid) > limit {
		valid = valid[len(valid)-limit:]
	}
	points := make([]chartPoint, len(valid))
	for i, b := range valid {
		points[i] = chartPoint{Time: b.Time.In(loc), Price: round2(b.Close), Volume: b.Volume}
	}
	return points
}

func presentStatistics(st model.StatisticsResult, loc *time.Location) model.StatisticsResult {
	out := st
	out.CurrentPrice = round2(st.CurrentPrice)
	out.MaxPrice = round2(st.MaxPrice)
	out.MinPrice = round2(st.MinPrice)
	out.AvgPrice = round2(st.AvgPrice)
	out.DayChange = round2(st.DayChange)
	out.DayChangePct = round2(st.DayChangePct)
	out.PeriodChange = round2(st.PeriodChange)
	out.PeriodChangePct = round2(st.PeriodChangePct)
	out.Volatility = round(st.Volatility, 4)
	out.TodayOpen = round2(st.TodayOpen)
	out.TodayHigh = round2(st.TodayHigh)
	out.TodayLow = round2(st.TodayLow)
	if !st.LatestTimestamp.IsZero() {
		out.LatestTimestamp = st.LatestTimestamp.In(loc)
	}
	return out
}

func presentLine(line []model.TimeValue, loc *time.Location) []model.TimeValue {
	if line == nil {
		return nil
	}
	out := make([]model.TimeValue, len(line))
	for i, p := range line {
		out[i] = model.TimeValue{Time: p.Time.In(loc), Value: round2(p.Value)}
	}
	return out
}

func presentMA(ma *model.MovingAverage, loc *time.Location) *model.MovingAverage {
	if ma == nil {
		return nil
	}
	return &model.MovingAverage{
		Window: ma.Window,
		Value:  round2(ma.Value),
		Trend:  ma.Trend,
		Line:   presentLine(ma.Line, loc),
	}
}

// presentIndicators converts every timestamp to loc and rounds values for display.
func presentIndicators(set model.IndicatorSet, loc *time.Location) model.IndicatorSet {
	out := model.IndicatorSet{
		MA5:          presentMA(set.MA5, loc),
		MA20:         presentMA(set.MA20, loc),
		MA50:         presentMA(set.MA50, loc),
		MA125:        presentMA(set.MA125, loc),
		Crossover:    set.Crossover,
		MonthlyHLAvg: presentLine(set.MonthlyHLAvg, loc),
	}
	out.Crossover.MA5 = round2(set.Crossover.MA5)
	out.Crossover.MA20 = round2(set.Crossover.MA20)
	out.Crossover.Close = round2(set.Crossover.Close)
	if set.RSI != nil {
		rsi := round2(*set.RSI)
		out.RSI = &rsi
	}
	if set.Deviation != nil {
		dev := *set.Deviation
		dev.Value = round2(dev.Value)
		out.Deviation = &dev
	}
	for _, p := range set.PivotPoints {
		p.Time = p.Time.In(loc)
		p.Price = round2(p.Price)
		p.High = round2(p.High)
		p.Low = round2(p.Low)
		out.PivotPoints = append(out.PivotPoints, p)
	}
	return out
}

var cmeLocation = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// marketStatus reports whether COMEX gold futures are trading at t. The market
// runs Sunday 18:00 to Friday 17:00 New York time with a daily 17:00-18:00 break.
func marketStatus(t time.Time) string {
	ny := t.In(cmeLocation)
	h := ny.Hour()
	switch ny.Weekday() {
	case time.Saturday:
		return "closed"
	case time.Sunday:
		if h < 18 {
			return "closed"
		}
	case time.Friday:
		if h >= 17 {
			return "closed"
		}
	}
	if h == 17 {
		return "closed"
	}
	return "open"
}
