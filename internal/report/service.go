package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"GoldSentinel/internal/collector"
	"GoldSentinel/internal/logger"
	"GoldSentinel/internal/metrics"
	"GoldSentinel/internal/model"
	"GoldSentinel/internal/notifier"
	"GoldSentinel/internal/store"
)

var (
	// ErrInvalidPayload is returned for an inbound body that is neither an object nor a non-empty array.
	ErrInvalidPayload = errors.New("invalid report payload")
	// ErrInvalidDelivery is returned when delivery options miss a required field.
	ErrInvalidDelivery = errors.New("invalid delivery options")
)

const (
	marketDateLayout   = "2006年01月02日"
	receivedTimeLayout = "2006-01-02 15:04:05"
)

// Service receives sentiment reports and forwards them with price context.
type Service struct {
	Store      store.Store
	Dispatcher *notifier.Dispatcher
	Collector  *collector.Collector
	Version    string
	Location   *time.Location
	Timeout    time.Duration // bounds one Forward call, retries included; zero means none

	now func() time.Time
	log *logger.Logger
}

// NewService creates a Service. collector may be nil, in which case payloads
// carry no gold summary.
func NewService(st store.Store, d *notifier.Dispatcher, col *collector.Collector, version string, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		Store:      st,
		Dispatcher: d,
		Collector:  col,
		Version:    version,
		Location:   loc,
		now:        time.Now,
		log:        logger.Get().With("component", "report"),
	}
}

// Ingest parses an inbound JSON body, copies the known fields with their
// defaults and saves the result as the latest report. An array body uses its
// first element. Scores are copied as given.
func (s *Service) Ingest(ctx context.Context, body []byte) (*model.MarketReport, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	var fields map[string]interface{}
	switch v := raw.(type) {
	case map[string]interface{}:
		fields = v
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty array", ErrInvalidPayload)
		}
		m, ok := v[0].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: first element is not an object", ErrInvalidPayload)
		}
		fields = m
	default:
		return nil, fmt.Errorf("%w: expected object or array", ErrInvalidPayload)
	}

	now := s.now().In(s.Location)
	report := &model.MarketReport{
		AverageSentimentScore: numberField(fields, "average_sentiment_score"),
		MessageContent:        stringField(fields, "message_content", ""),
		MarketDate:            stringField(fields, "market_date", now.Format(marketDateLayout)),
		ConfidenceLevel:       stringField(fields, "confidence_level", model.UnknownLabel),
		TrendDirection:        stringField(fields, "trend_direction", model.UnknownLabel),
		RiskAssessment:        stringField(fields, "risk_assessment", model.UnknownLabel),
		ReceivedTime:          now.Format(receivedTimeLayout),
		RawData:               fields,
	}
	if err := s.Store.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	metrics.ReportsReceived.Inc()
	s.log.Infow("report stored", "market_date", report.MarketDate, "score", report.AverageSentimentScore)
	return report, nil
}

// Forward sends the latest stored report to every configured forwarder. The
// payload is returned even when delivery fails so callers can report its id.
func (s *Service) Forward(ctx context.Context, delivery model.DeliveryOptions, source string) (*model.ForwardPayload, error) {
	if delivery.Recipient == "" || delivery.Subject == "" {
		return nil, fmt.Errorf("%w: recipient and subject are required", ErrInvalidDelivery)
	}
	applyDeliveryDefaults(&delivery)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	latest, err := s.Store.LatestReport(ctx)
	if err != nil {
		return nil, err
	}

	var snap *model.MarketSnapshot
	if s.Collector != nil {
		snap = s.Collector.Collect(ctx, model.Period1y, model.Interval1d)
	}
	payload := notifier.BuildPayload(latest, delivery, snap, notifier.PayloadOptions{
		Version:  s.Version,
		Source:   source,
		Location: s.Location,
		Now:      s.now(),
	})
	if err := s.Dispatcher.Dispatch(ctx, payload); err != nil {
		return payload, fmt.Errorf("forward report %s: %w", payload.System.ReportID, err)
	}
	return payload, nil
}

func applyDeliveryDefaults(d *model.DeliveryOptions) {
	if d.SenderName == "" {
		d.SenderName = "市場分析系統"
	}
	if d.Priority == "" {
		d.Priority = "normal"
	}
	if d.ReportType == "" {
		d.ReportType = "daily"
	}
}

func numberField(fields map[string]interface{}, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}

func stringField(fields map[string]interface{}, key, def string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
