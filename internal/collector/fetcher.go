package collector

import (
	"context"
	"errors"

	"GoldSentinel/internal/model"
)

// ErrNoData is returned when a provider answers without any usable close.
var ErrNoData = errors.New("no usable price data")

// Fetcher defines the interface for fetching price series.
type Fetcher interface {
	FetchSeries(ctx context.Context, symbol string, period model.Period, interval model.Interval) ([]model.PriceBar, error)
	Name() string
}
