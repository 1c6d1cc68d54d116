package collector

import (
	"math"
	"time"

	"GoldSentinel/internal/model"
)

// MergeIntraday folds the latest trading day of an intraday series into a daily
// series. "Today" is the calendar day, in the exchange timezone loc, of the
// latest usable intraday sample. Daily bars are stamped at exchange midnight, so
// loc must be the exchange's zone and not a display zone.
// If the daily series already ends on that day, its last bar takes the latest
// intraday close and widens its high/low to include it; otherwise a bar
// aggregated from today's samples is appended. Intraday data older than the last
// daily bar is ignored. Applying the merge again with the same samples returns an
// identical series. daily is not modified.
func MergeIntraday(daily, intraday []model.PriceBar, loc *time.Location) []model.PriceBar {
	if loc == nil {
		loc = time.UTC
	}
	samples := model.ValidBars(intraday)
	if len(samples) == 0 {
		return daily
	}
	latest := samples[len(samples)-1]
	today := dayStart(latest.Time, loc)

	out := make([]model.PriceBar, len(daily), len(daily)+1)
	copy(out, daily)

	if n := len(out); n > 0 {
		lastDay := dayStart(out[n-1].Time, loc)
		switch {
		case lastDay.Equal(today):
			last := &out[n-1]
			last.Close = latest.Close
			last.High = maxFinite(last.High, latest.Close)
			last.Low = minFinite(last.Low, latest.Close)
			return out
		case lastDay.After(today):
			return out
		}
	}
	return append(out, aggregateDay(samples, today, loc))
}

// aggregateDay builds one daily bar from the samples that fall on day.
func aggregateDay(samples []model.PriceBar, day time.Time, loc *time.Location) model.PriceBar {
	bar := model.PriceBar{Time: day, High: math.Inf(-1), Low: math.Inf(1)}
	started := false
	for _, s := range samples {
		if !dayStart(s.Time, loc).Equal(day) {
			continue
		}
		if !started {
			bar.Open = finiteOr(s.Open, s.Close)
			started = true
		}
		bar.High = maxFinite(bar.High, s.High)
		bar.High = maxFinite(bar.High, s.Close)
		bar.Low = minFinite(bar.Low, s.Low)
		bar.Low = minFinite(bar.Low, s.Close)
		bar.Close = s.Close
		bar.Volume += s.Volume
	}
	return bar
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

func maxFinite(a, b float64) float64 {
	if math.IsNaN(a) || (!math.IsNaN(b) && b > a) {
		return b
	}
	return a
}

func minFinite(a, b float64) float64 {
	if math.IsNaN(a) || (!math.IsNaN(b) && b < a) {
		return b
	}
	return a
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
