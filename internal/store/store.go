package store

import (
	"context"
	"errors"

	"GoldSentinel/internal/model"
)

// ErrNoReport is returned before any report has been received.
var ErrNoReport = errors.New("no report received yet")

// Store keeps the latest received report and the receive counters.
type Store interface {
	// SaveReport replaces the latest report and bumps the total and today counters.
	SaveReport(ctx context.Context, report *model.MarketReport) error
	LatestReport(ctx context.Context) (*model.MarketReport, error)
	Stats(ctx context.Context) (model.ReportStats, error)
	// ResetDaily zeroes the today counter.
	ResetDaily(ctx context.Context) error
	Close() error
}
