package model

import "time"

// Trend values for moving-average arrows.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// Deviation trend values.
const (
	DeviationIncreasing = "increasing"
	DeviationDecreasing = "decreasing"
	DeviationUnchanged  = "unchanged"
)

// CrossStatus is the state of the MA5/MA20 crossover signal.
type CrossStatus string

const (
	GoldenCross CrossStatus = "golden_cross"
	DeathCross  CrossStatus = "death_cross"
	CrossNormal CrossStatus = "normal"
)

// Pivot position relative to the latest close.
const (
	PivotBullish = "bullish"
	PivotBearish = "bearish"
	PivotNeutral = "neutral"
)

// TimeValue is one point of a plotted line.
type TimeValue struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// MovingAverage is a rolling simple mean of close prices.
type MovingAverage struct {
	Window int         `json:"window"`
	Value  float64     `json:"value"`
	Trend  string      `json:"trend,omitempty"`
	Line   []TimeValue `json:"line,omitempty"`
}

// MADeviation is the percentage gap between MA5 and MA20.
type MADeviation struct {
	Value      float64 `json:"value"`
	Overheated bool    `json:"overheated"`
	Trend      string  `json:"trend"`
}

// CrossoverSignal describes the latest MA5/MA20 cross.
type CrossoverSignal struct {
	Status         CrossStatus `json:"status"`
	MA5            float64     `json:"ma5"`
	MA20           float64     `json:"ma20"`
	Close          float64     `json:"close"`
	SufficientData bool        `json:"sufficient_data"`
}

// PivotPoint is a monthly support/resistance reference derived from the prior three months.
type PivotPoint struct {
	Time        time.Time `json:"time"`
	Price       float64   `json:"price"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	SourceRange string    `json:"source_range"`
	Position    string    `json:"position"`
}

// IndicatorSet groups every derived indicator of one series. A nil field
// means the series was too short for that indicator.
type IndicatorSet struct {
	MA5          *MovingAverage  `json:"ma_5,omitempty"`
	MA20         *MovingAverage  `json:"ma_20,omitempty"`
	MA50         *MovingAverage  `json:"ma_50,omitempty"`
	MA125        *MovingAverage  `json:"ma_125,omitempty"`
	RSI          *float64        `json:"rsi,omitempty"`
	Deviation    *MADeviation    `json:"ma_deviation,omitempty"`
	Crossover    CrossoverSignal `json:"crossover"`
	PivotPoints  []PivotPoint    `json:"pivot_points,omitempty"`
	MonthlyHLAvg []TimeValue     `json:"monthly_hl_avg,omitempty"`
}

// MarketSnapshot is one fetch-and-compute pass over a symbol.
type MarketSnapshot struct {
	Symbol     string           `json:"symbol"`
	Period     Period           `json:"period"`
	Interval   Interval         `json:"interval"`
	Bars       []PriceBar       `json:"-"`
	Statistics StatisticsResult `json:"statistics"`
	Indicators IndicatorSet     `json:"indicators"`
	DataSource string           `json:"data_source"`
	IsMock     bool             `json:"is_mock"`
	FetchedAt  time.Time        `json:"fetched_at"`
}
