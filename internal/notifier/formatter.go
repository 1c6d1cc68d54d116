package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"GoldSentinel/internal/model"
)

// SentimentText maps a sentiment score in [-1, 1] to a label.
func SentimentText(score float64) string {
	switch {
	case score > 0.6:
		return "極度樂觀"
	case score > 0.2:
		return "樂觀"
	case score > 0.1:
		return "中性偏樂觀"
	case score > -0.1:
		return "中性"
	case score > -0.2:
		return "中性偏悲觀"
	case score > -0.6:
		return "悲觀"
	default:
		return "極度悲觀"
	}
}

// MarketEmoji maps a sentiment score to the emoji shown next to it.
func MarketEmoji(score float64) string {
	switch {
	case score > 0.6:
		return "🚀📈💚"
	case score > 0.2:
		return "📈🟢😊"
	case score > 0.1:
		return "📊🟡😐"
	case score > -0.1:
		return "➡️⚪😑"
	case score > -0.2:
		return "📊🟡😐"
	case score > -0.6:
		return "📉🔴😟"
	default:
		return "💥📉😱"
	}
}

// PayloadOptions describe where a payload comes from.
type PayloadOptions struct {
	Version  string
	Source   string
	Location *time.Location
	Now      time.Time
}

// BuildPayload assembles the outbound payload from the stored report, the
// delivery options and, when available, a gold snapshot.
func BuildPayload(report *model.MarketReport, delivery model.DeliveryOptions, snap *model.MarketSnapshot, opts PayloadOptions) *model.ForwardPayload {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	score := report.AverageSentimentScore

	p := &model.ForwardPayload{
		MarketReport: *report,
		Delivery:     delivery,
		System: model.SystemInfo{
			ReportID:      uuid.NewString(),
			SendTimestamp: now.In(loc).Format(time.RFC3339),
			SystemVersion: opts.Version,
			Source:        opts.Source,
		},
		Sentiment: model.SentimentSummary{
			Score: score,
			Text:  SentimentText(score),
			Emoji: MarketEmoji(score),
		},
	}
	if snap != nil {
		p.Gold = &model.GoldSummary{
			Symbol:     snap.Symbol,
			Statistics: snap.Statistics,
			RSI:        snap.Indicators.RSI,
			Crossover:  snap.Indicators.Crossover,
			DataSource: snap.DataSource,
			IsMock:     snap.IsMock,
		}
	}
	p.Summary = FormatSummary(p, loc)
	return p
}

// FormatSummary renders a plain-text digest of the payload for the mail body.
func FormatSummary(p *model.ForwardPayload, loc *time.Location) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 市場分析報告 | %s\n\n", p.MarketDate))
	b.WriteString(fmt.Sprintf("情感分數: %+.2f %s (%s)\n", p.Sentiment.Score, p.Sentiment.Emoji, p.Sentiment.Text))
	b.WriteString(fmt.Sprintf("趨勢方向: %s | 信心水準: %s | 風險評估: %s\n", p.TrendDirection, p.ConfidenceLevel, p.RiskAssessment))

	if g := p.Gold; g != nil && g.Statistics.HasData {
		st := g.Statistics
		b.WriteString(fmt.Sprintf("\n🥇 黃金 %s: %.2f (%+.2f, %+.2f%%)\n", g.Symbol, st.CurrentPrice, st.DayChange, st.DayChangePct))
		b.WriteString(fmt.Sprintf("區間高低: %.2f ~ %.2f | 波動度: %.2f\n", st.MinPrice, st.MaxPrice, st.Volatility))
		if g.RSI != nil {
			b.WriteString(fmt.Sprintf("RSI: %.1f\n", *g.RSI))
		}
		switch g.Crossover.Status {
		case model.GoldenCross:
			b.WriteString("均線訊號: 黃金交叉 ✅\n")
		case model.DeathCross:
			b.WriteString("均線訊號: 死亡交叉 ⚠️\n")
		}
		if g.IsMock {
			b.WriteString("⚠️ 價格資料來源暫時無法取得，以上為模擬數據\n")
		}
		b.WriteString(fmt.Sprintf("更新時間: %s\n", st.LatestTimestamp.In(loc).Format("2006-01-02 15:04")))
	}

	if p.Delivery.CustomMessage != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", p.Delivery.CustomMessage))
	}
	return b.String()
}
