package collector

import (
	"math/rand/v2"
	"sync"
	"time"

	"GoldSentinel/internal/model"
)

const (
	// DefaultMaxSyntheticBars bounds the size of a generated series.
	DefaultMaxSyntheticBars = 100
	syntheticSpread         = 0.02
)

// Generator produces placeholder bars when no provider can serve a request.
// Each close is the base price moved by a uniform ±2%; open, high and low are
// fixed offsets of that close, so every bar satisfies low <= open, close <= high.
type Generator struct {
	BasePrice float64
	MaxBars   int

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator creates a Generator. A zero seed draws one from the clock.
func NewGenerator(basePrice float64, maxBars int, seed uint64) *Generator {
	if maxBars <= 0 {
		maxBars = DefaultMaxSyntheticBars
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{
		BasePrice: basePrice,
		MaxBars:   maxBars,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:       time.Now,
	}
}

// BarCount returns how many bars a request for period sampled at interval gets:
// one bar per interval step over the period, at least one and at most MaxBars.
func (g *Generator) BarCount(period model.Period, interval model.Interval) int {
	n := period.Days() * interval.BarsPerDay()
	if n < 1 {
		n = 1
	}
	if n > g.MaxBars {
		n = g.MaxBars
	}
	return n
}

// Generate returns a time-ascending synthetic series ending at the current interval.
func (g *Generator) Generate(period model.Period, interval model.Interval) []model.PriceBar {
	count := g.BarCount(period, interval)
	step := interval.Duration()
	if step <= 0 {
		step = 24 * time.Hour
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	end := g.now().UTC().Truncate(step)
	bars := make([]model.PriceBar, count)
	for i := 0; i < count; i++ {
		p := g.BasePrice * (1 + (g.rng.Float64()*2-1)*syntheticSpread)
		bars[i] = model.PriceBar{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 100000 + g.rng.Int64N(900000),
		}
	}
	return bars
}
