package collector

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"GoldSentinel/internal/calculator"
	"GoldSentinel/internal/logger"
	"GoldSentinel/internal/metrics"
	"GoldSentinel/internal/model"
)

// SourceSynthetic marks a snapshot built from generated bars.
const SourceSynthetic = "synthetic"

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher   Fetcher
	Synthetic *Generator
	Symbol    string
	RSIPeriod int
	Market    *time.Location // exchange timezone; one daily bar per calendar day here

	log *logger.Logger
}

// NewCollector creates a new Collector. market is the exchange timezone used to
// decide which trading day intraday samples belong to.
func NewCollector(fetcher Fetcher, synthetic *Generator, symbol string, rsiPeriod int, market *time.Location) *Collector {
	if market == nil {
		market = time.UTC
	}
	return &Collector{
		Fetcher:   fetcher,
		Synthetic: synthetic,
		Symbol:    symbol,
		RSIPeriod: rsiPeriod,
		Market:    market,
		log:       logger.Get().With("component", "collector"),
	}
}

// Collect fetches the series for period/interval and computes statistics and
// indicators. It never fails: when the provider errors or returns nothing usable,
// the snapshot is built once from synthetic bars and marked IsMock.
func (c *Collector) Collect(ctx context.Context, period model.Period, interval model.Interval) *model.MarketSnapshot {
	snap := &model.MarketSnapshot{
		Symbol:    c.Symbol,
		Period:    period,
		Interval:  interval,
		FetchedAt: time.Now(),
	}

	bars, err := c.fetch(ctx, period, interval)
	if err != nil {
		c.log.Warnw("price feed unavailable, using synthetic series",
			"period", period, "interval", interval, "error", err)
		metrics.FetchTotal.WithLabelValues(c.sourceName(), "fallback").Inc()
		bars = c.Synthetic.Generate(period, interval)
		snap.DataSource = SourceSynthetic
		snap.IsMock = true
	} else {
		metrics.FetchTotal.WithLabelValues(c.sourceName(), "success").Inc()
		snap.DataSource = c.sourceName()
	}
	snap.Bars = bars

	start := time.Now()
	snap.Statistics = calculator.ComputeStatistics(bars)
	snap.Indicators = calculator.ComputeIndicators(bars, c.RSIPeriod)
	metrics.ComputeDuration.WithLabelValues(string(interval)).Observe(time.Since(start).Seconds())

	c.log.Debugw("snapshot computed",
		"source", snap.DataSource, "bars", len(bars), "price", snap.Statistics.CurrentPrice)
	return snap
}

func (c *Collector) sourceName() string {
	if c.Fetcher == nil {
		return "none"
	}
	return c.Fetcher.Name()
}

// fetch loads the requested series and, for daily requests, today's one-minute
// samples in parallel. The intraday request is best effort.
func (c *Collector) fetch(ctx context.Context, period model.Period, interval model.Interval) ([]model.PriceBar, error) {
	if c.Fetcher == nil {
		return nil, ErrNoData
	}

	var series, intraday []model.PriceBar
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bars, err := c.Fetcher.FetchSeries(gctx, c.Symbol, period, interval)
		if err != nil {
			return fmt.Errorf("fetch %s %s/%s: %w", c.Symbol, period, interval, err)
		}
		series = bars
		return nil
	})
	if interval.IsDaily() {
		g.Go(func() error {
			bars, err := c.Fetcher.FetchSeries(gctx, c.Symbol, model.Period1d, model.Interval1m)
			if err != nil {
				c.log.Debugw("intraday refresh skipped", "error", err)
				return nil
			}
			intraday = bars
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(model.ValidBars(series)) == 0 {
		return nil, ErrNoData
	}
	if len(intraday) > 0 {
		series = MergeIntraday(series, intraday, c.Market)
	}
	return series, nil
}
