package store

import (
	"context"
	"sync"
	"time"

	"GoldSentinel/internal/model"
)

// MemoryStore is an in-process Store used when Redis is not configured.
type MemoryStore struct {
	mu     sync.RWMutex
	latest *model.MarketReport
	stats  model.ReportStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stats: model.ReportStats{LastReset: time.Now()}}
}

func (s *MemoryStore) SaveReport(_ context.Context, report *model.MarketReport) error {
	cp := *report
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &cp
	s.stats.TotalReports++
	s.stats.TodayReports++
	return nil
}

func (s *MemoryStore) LatestReport(_ context.Context) (*model.MarketReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoReport
	}
	cp := *s.latest
	return &cp, nil
}

func (s *MemoryStore) Stats(_ context.Context) (model.ReportStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, nil
}

func (s *MemoryStore) ResetDaily(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TodayReports = 0
	s.stats.LastReset = time.Now()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
