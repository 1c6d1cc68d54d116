package model

import "time"

// StatisticsResult is a summary of one price series.
type StatisticsResult struct {
	HasData         bool      `json:"has_data"`
	BarCount        int       `json:"bar_count"`
	CurrentPrice    float64   `json:"current_price"`
	MaxPrice        float64   `json:"max_price"`
	MinPrice        float64   `json:"min_price"`
	AvgPrice        float64   `json:"avg_price"`
	DayChange       float64   `json:"day_change"`
	DayChangePct    float64   `json:"day_change_pct"`
	PeriodChange    float64   `json:"period_change"`
	PeriodChangePct float64   `json:"period_change_pct"`
	Volatility      float64   `json:"volatility"`
	TodayOpen       float64   `json:"today_open"`
	TodayHigh       float64   `json:"today_high"`
	TodayLow        float64   `json:"today_low"`
	LatestTimestamp time.Time `json:"latest_timestamp"`
}
