package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"GoldSentinel/internal/model"
)

// RedisStore keeps reports in Redis so several instances share one view.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

func (s *RedisStore) SaveReport(ctx context.Context, report *model.MarketReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key("latest_report"), data, 0)
		pipe.Incr(ctx, s.key("total_reports"))
		pipe.Incr(ctx, s.key("today_reports"))
		pipe.SetNX(ctx, s.key("last_reset"), time.Now().Unix(), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save report to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) LatestReport(ctx context.Context) (*model.MarketReport, error) {
	data, err := s.client.Get(ctx, s.key("latest_report")).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, fmt.Errorf("get report from redis: %w", err)
	}
	var report model.MarketReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

func (s *RedisStore) Stats(ctx context.Context) (model.ReportStats, error) {
	vals, err := s.client.MGet(ctx, s.key("total_reports"), s.key("today_reports"), s.key("last_reset")).Result()
	if err != nil {
		return model.ReportStats{}, fmt.Errorf("get stats from redis: %w", err)
	}
	stats := model.ReportStats{
		TotalReports: parseInt(vals[0]),
		TodayReports: parseInt(vals[1]),
	}
	if ts := parseInt(vals[2]); ts > 0 {
		stats.LastReset = time.Unix(ts, 0)
	}
	return stats, nil
}

func (s *RedisStore) ResetDaily(ctx context.Context) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key("today_reports"), 0, 0)
		pipe.Set(ctx, s.key("last_reset"), time.Now().Unix(), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset daily counter: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// parseInt reads an MGET value; missing keys come back as nil.
func parseInt(v interface{}) int64 {
	str, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(str, 10, 64)
	return n
}
