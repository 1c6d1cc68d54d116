package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoldSentinel/internal/model"
)

func testReport() *model.MarketReport {
	return &model.MarketReport{
		AverageSentimentScore: 0.35,
		MessageContent:        "避險需求升溫",
		MarketDate:            "2024年03月05日",
		ConfidenceLevel:       "高",
		TrendDirection:        "上升",
		RiskAssessment:        "中",
		ReceivedTime:          "2024-03-05 09:00:00",
		RawData:               map[string]interface{}{"average_sentiment_score": 0.35},
	}
}

func testPayload() *model.ForwardPayload {
	return BuildPayload(testReport(), model.DeliveryOptions{Recipient: "ops@example.com", Subject: "daily"}, nil,
		PayloadOptions{Version: "2.0.0", Source: "test"})
}

func TestSentimentTextAndEmoji(t *testing.T) {
	tests := []struct {
		score float64
		text  string
		emoji string
	}{
		{0.8, "極度樂觀", "🚀📈💚"},
		{0.6, "樂觀", "📈🟢😊"},
		{0.3, "樂觀", "📈🟢😊"},
		{0.15, "中性偏樂觀", "📊🟡😐"},
		{0, "中性", "➡️⚪😑"},
		{-0.15, "中性偏悲觀", "📊🟡😐"},
		{-0.5, "悲觀", "📉🔴😟"},
		{-0.6, "極度悲觀", "💥📉😱"},
		{-1, "極度悲觀", "💥📉😱"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.text, SentimentText(tt.score), "score %v", tt.score)
		assert.Equal(t, tt.emoji, MarketEmoji(tt.score), "score %v", tt.score)
	}
}

func TestBuildPayload(t *testing.T) {
	rsi := 72.5
	snap := &model.MarketSnapshot{
		Symbol: "GC=F",
		Statistics: model.StatisticsResult{
			HasData: true, CurrentPrice: 2150.4, DayChange: 12.1, DayChangePct: 0.57,
			LatestTimestamp: time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC),
		},
		Indicators: model.IndicatorSet{RSI: &rsi, Crossover: model.CrossoverSignal{Status: model.GoldenCross}},
		DataSource: "yahoo",
	}
	taipei := time.FixedZone("CST", 8*3600)
	delivery := model.DeliveryOptions{Recipient: "ops@example.com", Subject: "daily", IncludeCharts: true, CustomMessage: "請參考"}
	now := time.Date(2024, 3, 5, 2, 0, 0, 0, time.UTC)

	p := BuildPayload(testReport(), delivery, snap, PayloadOptions{Version: "2.0.0", Source: "api", Location: taipei, Now: now})

	_, err := uuid.Parse(p.System.ReportID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05T10:00:00+08:00", p.System.SendTimestamp)
	assert.Equal(t, "2.0.0", p.System.SystemVersion)
	assert.Equal(t, delivery, p.Delivery)
	assert.Equal(t, "樂觀", p.Sentiment.Text)
	require.NotNil(t, p.Gold)
	assert.Equal(t, model.GoldenCross, p.Gold.Crossover.Status)
	assert.Contains(t, p.Summary, "黃金交叉")
	assert.Contains(t, p.Summary, "RSI: 72.5")
	assert.Contains(t, p.Summary, "2024-03-05 09:00")
	assert.Contains(t, p.Summary, "請參考")

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	var flat map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &flat))
	// report fields sit at the top level next to the delivery block
	assert.Equal(t, "避險需求升溫", flat["message_content"])
	assert.Contains(t, flat, "delivery_config")
	assert.Contains(t, flat, "sentiment_analysis")
	assert.Contains(t, flat, "system_info")
}

func TestBuildPayload_MockMarker(t *testing.T) {
	snap := &model.MarketSnapshot{Symbol: "GC=F", Statistics: model.StatisticsResult{HasData: true}, IsMock: true, DataSource: "synthetic"}
	p := BuildPayload(testReport(), model.DeliveryOptions{}, snap, PayloadOptions{})
	assert.True(t, p.Gold.IsMock)
	assert.Contains(t, p.Summary, "模擬數據")
}

func newWebhook(url string) *WebhookForwarder {
	return NewWebhookForwarder(url, "", 2*time.Second, 3, time.Millisecond)
}

func TestWebhookForwarder_Send(t *testing.T) {
	var got model.ForwardPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := testPayload()
	require.NoError(t, newWebhook(srv.URL).Send(context.Background(), p))
	assert.Equal(t, p.System.ReportID, got.System.ReportID)
	assert.Equal(t, "ops@example.com", got.Delivery.Recipient)
}

func TestWebhookForwarder_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newWebhook(srv.URL).Forward(context.Background(), testPayload()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookForwarder_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newWebhook(srv.URL).SendWithRetry(context.Background(), testPayload(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 attempts exhausted")
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookForwarder_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	wh := NewWebhookForwarder(srv.URL, "", 2*time.Second, 5, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := wh.Forward(ctx, testPayload())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWebhookForwarder_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	code, err := newWebhook(srv.URL).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, code)

	_, err = newWebhook("http://127.0.0.1:1").Ping(context.Background())
	assert.Error(t, err)
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaForwarder_Forward(t *testing.T) {
	w := &fakeWriter{}
	k := &KafkaForwarder{writer: w, topic: "gold.reports"}
	p := testPayload()

	require.NoError(t, k.Forward(context.Background(), p))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, p.System.ReportID, string(w.msgs[0].Key))
	var decoded model.ForwardPayload
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, p.Sentiment, decoded.Sentiment)

	w.err = errors.New("broker down")
	assert.ErrorContains(t, k.Forward(context.Background(), p), "gold.reports")

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

type fakeForwarder struct {
	name  string
	err   error
	calls int
}

func (f *fakeForwarder) Name() string { return f.name }

func (f *fakeForwarder) Forward(context.Context, *model.ForwardPayload) error {
	f.calls++
	return f.err
}

func TestDispatcher(t *testing.T) {
	ok := &fakeForwarder{name: "ok"}
	bad := &fakeForwarder{name: "bad", err: errors.New("refused")}

	d := NewDispatcher(bad, nil, ok)
	assert.Equal(t, 2, d.Len())

	err := d.Dispatch(context.Background(), testPayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: refused")
	assert.Equal(t, 1, ok.calls, "a failing forwarder must not stop the others")

	assert.NoError(t, NewDispatcher(ok).Dispatch(context.Background(), testPayload()))
	assert.ErrorIs(t, NewDispatcher().Dispatch(context.Background(), testPayload()), ErrNoForwarders)
}
