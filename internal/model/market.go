package model

import (
	"math"
	"time"
)

// PriceBar represents a single OHLCV bar. A NaN Close marks a missing sample.
type PriceBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// HasClose reports whether the bar carries a usable close price.
func (b PriceBar) HasClose() bool {
	return !math.IsNaN(b.Close) && !math.IsInf(b.Close, 0)
}

// PriceSeries is a time-ascending sequence of bars for one symbol.
type PriceSeries struct {
	Symbol   string
	Period   Period
	Interval Interval
	Bars     []PriceBar
}

// Closes returns the usable close prices in order, skipping missing samples.
func Closes(bars []PriceBar) []float64 {
	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.HasClose() {
			closes = append(closes, b.Close)
		}
	}
	return closes
}

// ValidBars returns the bars that carry a usable close, preserving order.
func ValidBars(bars []PriceBar) []PriceBar {
	out := make([]PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.HasClose() {
			out = append(out, b)
		}
	}
	return out
}

// Period is a lookback range accepted by the price endpoints.
type Period string

const (
	Period1d  Period = "1d"
	Period5d  Period = "5d"
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
)

var periodDays = map[Period]int{
	Period1d:  1,
	Period5d:  5,
	Period1mo: 30,
	Period3mo: 90,
	Period6mo: 180,
	Period1y:  365,
	Period2y:  730,
	Period5y:  1825,
}

// Valid reports whether p is one of the supported periods.
func (p Period) Valid() bool {
	_, ok := periodDays[p]
	return ok
}

// Days returns the calendar days covered by the period, or 0 when unknown.
func (p Period) Days() int { return periodDays[p] }

// Interval is a sampling resolution accepted by the price endpoints.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
)

var intervalDuration = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval30m: 30 * time.Minute,
	Interval1h:  time.Hour,
	Interval1d:  24 * time.Hour,
}

// Valid reports whether i is one of the supported intervals.
func (i Interval) Valid() bool {
	_, ok := intervalDuration[i]
	return ok
}

// Duration returns the bar width of the interval.
func (i Interval) Duration() time.Duration { return intervalDuration[i] }

// BarsPerDay returns how many bars of this interval fit into one day.
func (i Interval) BarsPerDay() int {
	d := intervalDuration[i]
	if d <= 0 {
		return 1
	}
	return int((24 * time.Hour) / d)
}

// IsDaily reports whether the interval produces one bar per day.
func (i Interval) IsDaily() bool { return i == Interval1d }
