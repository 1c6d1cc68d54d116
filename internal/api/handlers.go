package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"GoldSentinel/internal/logger"
	"GoldSentinel/internal/model"
	"GoldSentinel/internal/notifier"
	"GoldSentinel/internal/report"
	"GoldSentinel/internal/store"
)

const (
	maxBodyBytes     = 1 << 20
	priceChartPoints = 48
	forwardSource    = "api"
)

// Snapshotter fetches a price series and computes its statistics and indicators.
type Snapshotter interface {
	Collect(ctx context.Context, period model.Period, interval model.Interval) *model.MarketSnapshot
}

// Pinger checks that the outbound webhook is reachable.
type Pinger interface {
	Ping(ctx context.Context) (int, error)
}

// HandlerConfig carries the dependencies of Handler. Webhook may be nil when
// no webhook URL is configured.
type HandlerConfig struct {
	Market      Snapshotter
	Reports     *report.Service
	Store       store.Store
	Webhook     Pinger
	SystemName  string
	Version     string
	Environment string
	Location    *time.Location
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	market  Snapshotter
	reports *report.Service
	store   store.Store
	webhook Pinger

	systemName  string
	version     string
	environment string
	loc         *time.Location

	started time.Time
	now     func() time.Time
	log     *logger.Logger
}

// NewHandler creates a new Handler
func NewHandler(cfg HandlerConfig) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		market:      cfg.Market,
		reports:     cfg.Reports,
		store:       cfg.Store,
		webhook:     cfg.Webhook,
		systemName:  cfg.SystemName,
		version:     cfg.Version,
		environment: cfg.Environment,
		loc:         loc,
		started:     time.Now(),
		now:         time.Now,
		log:         logger.Get().With("component", "api"),
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	_, err := h.store.LatestReport(r.Context())
	if err != nil && !errors.Is(err, store.ErrNoReport) {
		h.log.Warnw("health check could not read store", "error", err)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"timestamp":      now.In(h.loc),
		"system":         h.systemName,
		"version":        h.version,
		"has_data":       err == nil,
		"uptime":         strings.TrimSpace(humanize.RelTime(h.started, now, "", "")),
		"uptime_seconds": int64(now.Sub(h.started).Seconds()),
		"environment":    h.environment,
	})
}

// ReceiveReport handles POST /api/n8n-data
func (h *Handler) ReceiveReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "無法讀取請求內容")
		return
	}

	rep, err := h.reports.Ingest(r.Context(), body)
	if errors.Is(err, report.ErrInvalidPayload) {
		respondError(w, http.StatusBadRequest, "無效的 JSON 格式")
		return
	}
	if err != nil {
		h.log.Errorw("failed to store report", "error", err)
		respondError(w, http.StatusInternalServerError, "資料儲存失敗")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"message":   "市場分析資料已接收並儲存",
		"data":      rep,
		"timestamp": h.now().In(h.loc),
	})
}

// CurrentData handles GET /api/current-data
func (h *Handler) CurrentData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.store.Stats(ctx)
	if err != nil {
		h.log.Errorw("failed to read report stats", "error", err)
		respondError(w, http.StatusInternalServerError, "無法讀取統計資料")
		return
	}

	var data interface{} = map[string]interface{}{}
	rep, err := h.store.LatestReport(ctx)
	switch {
	case err == nil:
		data = rep
	case !errors.Is(err, store.ErrNoReport):
		h.log.Errorw("failed to read latest report", "error", err)
		respondError(w, http.StatusInternalServerError, "無法讀取市場分析資料")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"data":      data,
		"stats":     stats,
		"timestamp": h.now().In(h.loc),
	})
}

// GoldPrice handles GET /api/gold-price
func (h *Handler) GoldPrice(w http.ResponseWriter, r *http.Request) {
	period, interval, ok := parseRange(w, r, model.Period5d, model.Interval1h)
	if !ok {
		return
	}

	snap := h.market.Collect(r.Context(), period, interval)
	st := presentStatistics(snap.Statistics, h.loc)
	now := h.now()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"symbol":         snap.Symbol,
			"name":           goldName,
			"current_price":  st.CurrentPrice,
			"change":         st.DayChange,
			"change_percent": st.DayChangePct,
			"currency":       goldCurrency,
			"unit":           goldUnit,
			"period":         snap.Period,
			"interval":       snap.Interval,
			"statistics":     st,
			"chart_data":     chartData(snap.Bars, h.loc, priceChartPoints),
			"market_status":  marketStatus(now),
			"data_source":    snap.DataSource,
			"is_mock":        snap.IsMock,
			"last_updated":   snap.FetchedAt.In(h.loc),
		},
		"timestamp": now.In(h.loc),
	})
}

// GoldIndicators handles GET /api/gold-indicators
func (h *Handler) GoldIndicators(w http.ResponseWriter, r *http.Request) {
	period, interval, ok := parseRange(w, r, model.Period1y, model.Interval1d)
	if !ok {
		return
	}

	snap := h.market.Collect(r.Context(), period, interval)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"symbol":       snap.Symbol,
			"period":       snap.Period,
			"interval":     snap.Interval,
			"statistics":   presentStatistics(snap.Statistics, h.loc),
			"indicators":   presentIndicators(snap.Indicators, h.loc),
			"chart_data":   chartData(snap.Bars, h.loc, 0),
			"data_source":  snap.DataSource,
			"is_mock":      snap.IsMock,
			"last_updated": snap.FetchedAt.In(h.loc),
		},
		"timestamp": h.now().In(h.loc),
	})
}

// ForwardReport handles POST /api/forward-report
func (h *Handler) ForwardReport(w http.ResponseWriter, r *http.Request) {
	var delivery model.DeliveryOptions
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&delivery); err != nil {
		respondError(w, http.StatusBadRequest, "無效的 JSON 格式")
		return
	}

	payload, err := h.reports.Forward(r.Context(), delivery, forwardSource)
	switch {
	case errors.Is(err, report.ErrInvalidDelivery):
		respondError(w, http.StatusBadRequest, "收件人與主旨為必填欄位")
		return
	case errors.Is(err, store.ErrNoReport):
		respondError(w, http.StatusBadRequest, "沒有可用的市場分析資料")
		return
	case errors.Is(err, notifier.ErrNoForwarders):
		respondError(w, http.StatusServiceUnavailable, "未設定報告轉發目標")
		return
	case err != nil:
		h.log.Errorw("report forward failed", "error", err)
		resp := errorBody("報告轉發失敗", h.now())
		if payload != nil {
			resp["report_id"] = payload.System.ReportID
		}
		respondJSON(w, http.StatusBadGateway, resp)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"message":   "報告已轉發",
		"report_id": payload.System.ReportID,
		"recipient": payload.Delivery.Recipient,
		"timestamp": h.now().In(h.loc),
	})
}

// TestWebhookConnection handles GET /api/test-webhook-connection
func (h *Handler) TestWebhookConnection(w http.ResponseWriter, r *http.Request) {
	if h.webhook == nil {
		respondError(w, http.StatusServiceUnavailable, "未設定 Webhook URL")
		return
	}

	code, err := h.webhook.Ping(r.Context())
	if err != nil {
		h.log.Warnw("webhook ping failed", "error", err)
		resp := errorBody("Webhook 連線失敗: "+err.Error(), h.now())
		respondJSON(w, http.StatusBadGateway, resp)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"message":     "Webhook 連線正常",
		"status_code": code,
		"timestamp":   h.now().In(h.loc),
	})
}

// parseRange reads period and interval query values, writing a 400 when
// either is outside the supported set.
func parseRange(w http.ResponseWriter, r *http.Request, defPeriod model.Period, defInterval model.Interval) (model.Period, model.Interval, bool) {
	q := r.URL.Query()
	period, interval := defPeriod, defInterval
	if v := q.Get("period"); v != "" {
		period = model.Period(v)
	}
	if v := q.Get("interval"); v != "" {
		interval = model.Interval(v)
	}
	if !period.Valid() {
		respondError(w, http.StatusBadRequest, "無效的期間參數: "+string(period))
		return "", "", false
	}
	if !interval.Valid() {
		respondError(w, http.StatusBadRequest, "無效的間隔參數: "+string(interval))
		return "", "", false
	}
	return period, interval, true
}

func errorBody(message string, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"status":    "error",
		"message":   message,
		"timestamp": now,
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody(message, time.Now()))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Get().Warnw("failed to encode response", "error", err)
	}
}
