package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoldSentinel/internal/model"
	"GoldSentinel/internal/notifier"
	"GoldSentinel/internal/report"
	"GoldSentinel/internal/store"
)

type fakeMarket struct {
	mu    sync.Mutex
	calls []string
	bars  []model.PriceBar
}

func (f *fakeMarket) Collect(_ context.Context, period model.Period, interval model.Interval) *model.MarketSnapshot {
	f.mu.Lock()
	f.calls = append(f.calls, string(period)+"/"+string(interval))
	f.mu.Unlock()

	rsi := 61.23456
	return &model.MarketSnapshot{
		Symbol:   "GC=F",
		Period:   period,
		Interval: interval,
		Bars:     f.bars,
		Statistics: model.StatisticsResult{
			HasData:         true,
			BarCount:        len(f.bars),
			CurrentPrice:    2034.005,
			LatestTimestamp: time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC),
		},
		Indicators: model.IndicatorSet{
			RSI: &rsi,
			MA5: &model.MovingAverage{
				Window: 5,
				Value:  2031.456,
				Trend:  model.TrendUp,
				Line:   []model.TimeValue{{Time: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Value: 2031.456}},
			},
			Crossover: model.CrossoverSignal{Status: model.CrossNormal},
		},
		DataSource: "yahoo",
		FetchedAt:  time.Date(2024, 3, 5, 20, 1, 0, 0, time.UTC),
	}
}

type fakeForwarder struct {
	err error
}

func (f *fakeForwarder) Name() string { return "fake" }

func (f *fakeForwarder) Forward(context.Context, *model.ForwardPayload) error { return f.err }

type fakePinger struct {
	code int
	err  error
}

func (p fakePinger) Ping(context.Context) (int, error) { return p.code, p.err }

var taipei = mustLoad("Asia/Taipei")

type testServer struct {
	handler http.Handler
	market  *fakeMarket
	store   *store.MemoryStore
	reports *report.Service
}

func newTestServer(t *testing.T, dispatcher *notifier.Dispatcher, pinger Pinger, opts RouterOptions) *testServer {
	t.Helper()
	market := &fakeMarket{bars: hourlyBars(60)}
	st := store.NewMemoryStore()
	svc := report.NewService(st, dispatcher, nil, "2.0.0", taipei)
	cfg := HandlerConfig{
		Market:      market,
		Reports:     svc,
		Store:       st,
		SystemName:  "GoldSentinel",
		Version:     "2.0.0",
		Environment: "test",
		Location:    taipei,
	}
	if pinger != nil {
		cfg.Webhook = pinger
	}
	return &testServer{
		handler: SetupRoutes(NewHandler(cfg), opts),
		market:  market,
		store:   st,
		reports: svc,
	}
}

func hourlyBars(n int) []model.PriceBar {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PriceBar, n)
	for i := range bars {
		c := 2000 + float64(i)
		bars[i] = model.PriceBar{Time: start.Add(time.Duration(i) * time.Hour), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 10}
	}
	return bars
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, notifier.NewDispatcher(), nil, RouterOptions{})

	rec, body := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "GoldSentinel", body["system"])
	assert.Equal(t, "2.0.0", body["version"])
	assert.Equal(t, "test", body["environment"])
	assert.Equal(t, false, body["has_data"])
	assert.NotEmpty(t, body["uptime"])

	_, body = s.do(t, http.MethodPost, "/api/n8n-data", `{"average_sentiment_score": 0.5}`)
	require.Equal(t, "success", body["status"])

	_, body = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, true, body["has_data"])
}

func TestReceiveReport(t *testing.T) {
	s := newTestServer(t, notifier.NewDispatcher(), nil, RouterOptions{})

	t.Run("object", func(t *testing.T) {
		rec, body := s.do(t, http.MethodPost, "/api/n8n-data", `{"average_sentiment_score": 0.3, "trend_direction": "上升"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, 0.3, data["average_sentiment_score"])
		assert.Equal(t, model.UnknownLabel, data["risk_assessment"])
	})

	t.Run("invalid json", func(t *testing.T) {
		rec, body := s.do(t, http.MethodPost, "/api/n8n-data", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "error", body["status"])
		assert.NotEmpty(t, body["message"])
		assert.NotEmpty(t, body["timestamp"])
	})

	t.Run("empty array", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodPost, "/api/n8n-data", `[]`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/n8n-data", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestCurrentData(t *testing.T) {
	s := newTestServer(t, notifier.NewDispatcher(), nil, RouterOptions{})

	rec, body := s.do(t, http.MethodGet, "/api/current-data", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["data"])
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(0), stats["total_reports"])

	s.do(t, http.MethodPost, "/api/n8n-data", `{"average_sentiment_score": -0.2}`)
	s.do(t, http.MethodPost, "/api/n8n-data", `{"average_sentiment_score": 0.7}`)

	_, body = s.do(t, http.MethodGet, "/api/current-data", "")
	data := body["data"].(map[string]interface{})
	assert.Equal(t, 0.7, data["average_sentiment_score"])
	stats = body["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["total_reports"])
	assert.Equal(t, float64(2), stats["today_reports"])
}

func TestGoldPrice(t *testing.T) {
	s := newTestServer(t, notifier.NewDispatcher(), nil, RouterOptions{})

	rec, body := s.do(t, http.MethodGet, "/api/gold-price", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"5d/1h"}, s.market.calls)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "GC=F", data["symbol"])
	assert.Equal(t, 2034.01, data["current_price"])
	assert.Equal(t, "yahoo", data["data_source"])
	assert.Equal(t, false, data["is_mock"])
	assert.Contains(t, []interface{}{"open", "closed"}, data["market_status"])

	chart := data["chart_data"].([]interface{})
	require.Len(t, chart, priceChartPoints)
	last := chart[len(chart)-1].(map[string]interface{})
	assert.Equal(t, "2024-03-03T19:00:00+08:00", last["time"])
	assert.Equal(t, float64(2059), last["price"])

	st := data["statistics"].(map[string]interface{})
	assert.Equal(t, "2024-03-06T04:00:00+08:00", st["latest_timestamp"])
}

func TestGoldPrice_InvalidRange(t *testing.T) {
	s := newTestServer(t, notifier.NewDispatcher(), nil, RouterOptions{})

	for _, path := range []string{
		"/api/gold-price?period=7d",
		"/api/gold-price?interval=2h",
		"/api/gold-indicators?period=forever",
	} {
		rec, body := s.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "error", body["status"], path)
	}
	assert.Empty(t, s.market.calls)
}

func TestGoldIndicators(t *testing.T) {
	s := newTestServer(t, notifier.NewDispatcher(), nil, RouterOptions{})

	rec, body := s.do(t, http.MethodGet, "/api/gold-indicators?period=6mo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"6mo/1d"}, s.market.calls)

	data := body["data"].(map[string]interface{})
	assert.Len(t, data["chart_data"], 60)

	ind := data["indicators"].(map[string]interface{})
	assert.Equal(t, 61.23, ind["rsi"])
	ma5 := ind["ma_5"].(map[string]interface{})
	assert.Equal(t, 2031.46, ma5["value"])
	assert.Equal(t, model.TrendUp, ma5["trend"])
	line := ma5["line"].([]interface{})
	assert.Equal(t, "2024-03-05T08:00:00+08:00", line[0].(map[string]interface{})["time"])
	assert.NotContains(t, ind, "ma_125")
}

func TestForwardReport(t *testing.T) {
	const delivery = `{"recipient": "ops@example.com", "subject": "金價日報"}`

	t.Run("missing recipient", func(t *testing.T) {
		s := newTestServer(t, notifier.NewDispatcher(&fakeForwarder{}), nil, RouterOptions{})
		rec, _ := s.do(t, http.MethodPost, "/api/forward-report", `{"subject": "x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no report stored", func(t *testing.T) {
		s := newTestServer(t, notifier.NewDispatcher(&fakeForwarder{}), nil, RouterOptions{})
		rec, body := s.do(t, http.MethodPost, "/api/forward-report", delivery)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "沒有可用的市場分析資料", body["message"])
	})

	t.Run("no forwarders", func(t *testing.T) {
		s := newTestServer(t, notifier.NewDispatcher(), nil, RouterOptions{})
		s.do(t, http.MethodPost, "/api/n8n-data", `{"average_sentiment_score": 0.1}`)
		rec, _ := s.do(t, http.MethodPost, "/api/forward-report", delivery)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("delivery failure", func(t *testing.T) {
		s := newTestServer(t, notifier.NewDispatcher(&fakeForwarder{err: errors.New("boom")}), nil, RouterOptions{})
		s.do(t, http.MethodPost, "/api/n8n-data", `{"average_sentiment_score": 0.1}`)
		rec, body := s.do(t, http.MethodPost, "/api/forward-report", delivery)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.NotEmpty(t, body["report_id"])
	})

	t.Run("success", func(t *testing.T) {
		s := newTestServer(t, notifier.NewDispatcher(&fakeForwarder{}), nil, RouterOptions{})
		s.do(t, http.MethodPost, "/api/n8n-data", `{"average_sentiment_score": 0.1}`)
		rec, body := s.do(t, http.MethodPost, "/api/forward-report", delivery)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, "ops@example.com", body["recipient"])
		assert.NotEmpty(t, body["report_id"])
	})
}

func TestForwardReport_WebhookTimeoutAnswers502(t *testing.T) {
	release := make(chan struct{})
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer hung.Close()
	defer close(release)

	webhook := notifier.NewWebhookForwarder(hung.URL, "", 5*time.Second, 3, time.Second)
	s := newTestServer(t, notifier.NewDispatcher(webhook), nil, RouterOptions{})
	s.reports.Timeout = 200 * time.Millisecond
	s.do(t, http.MethodPost, "/api/n8n-data", `{"average_sentiment_score": 0.1}`)

	start := time.Now()
	rec, body := s.do(t, http.MethodPost, "/api/forward-report", `{"recipient": "ops@example.com", "subject": "金價日報"}`)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.NotEmpty(t, body["report_id"])
}

func TestTestWebhookConnection(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s := newTestServer(t, notifier.NewDispatcher(), nil, RouterOptions{})
		rec, _ := s.do(t, http.MethodGet, "/api/test-webhook-connection", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("reachable", func(t *testing.T) {
		s := newTestServer(t, notifier.NewDispatcher(), fakePinger{code: 200}, RouterOptions{})
		rec, body := s.do(t, http.MethodGet, "/api/test-webhook-connection", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(200), body["status_code"])
	})

	t.Run("unreachable", func(t *testing.T) {
		s := newTestServer(t, notifier.NewDispatcher(), fakePinger{err: errors.New("dial tcp: refused")}, RouterOptions{})
		rec, body := s.do(t, http.MethodGet, "/api/test-webhook-connection", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, body["message"], "refused")
	})
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, notifier.NewDispatcher(), nil, RouterOptions{CORSOrigins: []string{"https://dash.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/n8n-data", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dash.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, notifier.NewDispatcher(), nil, RouterOptions{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodGet, "/api/current-data", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, body := s.do(t, http.MethodGet, "/api/current-data", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "error", body["status"])

	rec, _ = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	l := newRateLimiter(1)
	now := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))

	now = now.Add(limiterIdleTTL + 2*time.Minute)
	assert.True(t, l.allow("10.0.0.2"))
	assert.NotContains(t, l.clients, "10.0.0.1")
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2034.01, round2(2034.005))
	assert.Equal(t, 0.1235, round(0.12345, 4))
}

func TestMarketStatus(t *testing.T) {
	ny := mustLoad("America/New_York")
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"wednesday midday", time.Date(2024, 3, 6, 12, 0, 0, 0, ny), "open"},
		{"daily break", time.Date(2024, 3, 6, 17, 30, 0, 0, ny), "closed"},
		{"friday after close", time.Date(2024, 3, 8, 17, 5, 0, 0, ny), "closed"},
		{"saturday", time.Date(2024, 3, 9, 10, 0, 0, 0, ny), "closed"},
		{"sunday before open", time.Date(2024, 3, 10, 12, 0, 0, 0, ny), "closed"},
		{"sunday evening", time.Date(2024, 3, 10, 19, 0, 0, 0, ny), "open"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, marketStatus(tt.at))
		})
	}
}
