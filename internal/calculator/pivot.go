package calculator

import (
	"fmt"
	"time"

	"GoldSentinel/internal/model"
)

const (
	pivotMinBars      = 90
	pivotLookback     = 3
	monthlyAvgMonths  = 12
	sourceRangeLayout = "2006-01"
)

type monthBucket struct {
	key  int // year*12 + month index
	bars []model.PriceBar
}

func monthKey(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func keyLabel(key int) string {
	return time.Date(key/12, time.Month(key%12+1), 1, 0, 0, 0, 0, time.UTC).Format(sourceRangeLayout)
}

// groupByMonth partitions time-ascending bars into calendar months.
func groupByMonth(bars []model.PriceBar) []monthBucket {
	var months []monthBucket
	for _, b := range bars {
		k := monthKey(b.Time)
		if n := len(months); n > 0 && months[n-1].key == k {
			months[n-1].bars = append(months[n-1].bars, b)
			continue
		}
		months = append(months, monthBucket{key: k, bars: []model.PriceBar{b}})
	}
	return months
}

// CalculatePivotPoints derives one pivot per calendar month from the fourth
// available month onward: the midpoint of the highest high and lowest low of the
// three preceding calendar months. Each pivot is stamped with the first bar of the
// month it applies to and tagged against the latest close. Series shorter than 90
// usable bars yield nil.
func CalculatePivotPoints(bars []model.PriceBar) []model.PivotPoint {
	valid := model.ValidBars(bars)
	if len(valid) < pivotMinBars {
		return nil
	}
	months := groupByMonth(valid)
	if len(months) <= pivotLookback {
		return nil
	}
	byKey := make(map[int][]model.PriceBar, len(months))
	for _, m := range months {
		byKey[m.key] = m.bars
	}
	latest := valid[len(valid)-1].Close

	var pivots []model.PivotPoint
	for _, cur := range months[pivotLookback:] {
		var window []model.PriceBar
		for k := cur.key - pivotLookback; k < cur.key; k++ {
			window = append(window, byKey[k]...)
		}
		high, low, err := HighLowRange(window)
		if err != nil {
			continue
		}
		price := (high + low) / 2
		pivots = append(pivots, model.PivotPoint{
			Time:        cur.bars[0].Time,
			Price:       price,
			High:        high,
			Low:         low,
			SourceRange: fmt.Sprintf("%s~%s", keyLabel(cur.key-pivotLookback), keyLabel(cur.key-1)),
			Position:    pivotPosition(latest, price),
		})
	}
	return pivots
}

func pivotPosition(last, pivot float64) string {
	switch {
	case last > pivot:
		return model.PivotBullish
	case last < pivot:
		return model.PivotBearish
	default:
		return model.PivotNeutral
	}
}

// CalculateMonthlyHighLowAvg returns, for each of the last twelve calendar months,
// the midpoint of that month's highest high and lowest low, stamped at the
// month's last bar.
func CalculateMonthlyHighLowAvg(bars []model.PriceBar) []model.TimeValue {
	months := groupByMonth(model.ValidBars(bars))
	if len(months) > monthlyAvgMonths {
		months = months[len(months)-monthlyAvgMonths:]
	}
	var out []model.TimeValue
	for _, m := range months {
		high, low, err := HighLowRange(m.bars)
		if err != nil {
			continue
		}
		out = append(out, model.TimeValue{
			Time:  m.bars[len(m.bars)-1].Time,
			Value: (high + low) / 2,
		})
	}
	return out
}
