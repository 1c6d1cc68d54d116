package model

import "time"

// UnknownLabel fills missing categorical fields of an inbound report.
const UnknownLabel = "未知"

// MarketReport is the latest sentiment report received from the workflow engine.
type MarketReport struct {
	AverageSentimentScore float64                `json:"average_sentiment_score"`
	MessageContent        string                 `json:"message_content"`
	MarketDate            string                 `json:"market_date"`
	ConfidenceLevel       string                 `json:"confidence_level"`
	TrendDirection        string                 `json:"trend_direction"`
	RiskAssessment        string                 `json:"risk_assessment"`
	ReceivedTime          string                 `json:"received_time"`
	RawData               map[string]interface{} `json:"raw_data"`
}

// ReportStats counts received reports.
type ReportStats struct {
	TotalReports int64     `json:"total_reports"`
	TodayReports int64     `json:"today_reports"`
	LastReset    time.Time `json:"last_reset"`
}

// DeliveryOptions are the recipient settings forwarded untouched with a report.
type DeliveryOptions struct {
	Recipient              string `json:"recipient"`
	SenderName             string `json:"sender_name"`
	Subject                string `json:"subject"`
	Priority               string `json:"priority"`
	ReportType             string `json:"report_type"`
	CustomMessage          string `json:"custom_message"`
	IncludeCharts          bool   `json:"include_charts"`
	IncludeRecommendations bool   `json:"include_recommendations"`
	IncludeRiskWarning     bool   `json:"include_risk_warning"`
}

// SentimentSummary is the human-readable rendering of a sentiment score.
type SentimentSummary struct {
	Score float64 `json:"score"`
	Text  string  `json:"text"`
	Emoji string  `json:"emoji"`
}

// SystemInfo identifies one outbound delivery.
type SystemInfo struct {
	ReportID      string `json:"report_id"`
	SendTimestamp string `json:"send_timestamp"`
	SystemVersion string `json:"system_version"`
	Source        string `json:"source"`
}

// GoldSummary is the price context attached to an outbound report.
type GoldSummary struct {
	Symbol     string           `json:"symbol"`
	Statistics StatisticsResult `json:"statistics"`
	RSI        *float64         `json:"rsi,omitempty"`
	Crossover  CrossoverSignal  `json:"crossover"`
	DataSource string           `json:"data_source"`
	IsMock     bool             `json:"is_mock"`
}

// ForwardPayload is the body delivered to the outbound webhook.
type ForwardPayload struct {
	MarketReport
	Delivery  DeliveryOptions  `json:"delivery_config"`
	System    SystemInfo       `json:"system_info"`
	Sentiment SentimentSummary `json:"sentiment_analysis"`
	Gold      *GoldSummary     `json:"gold,omitempty"`
	Summary   string           `json:"summary_text"`
}
