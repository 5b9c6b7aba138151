package monitor

import (
	"time"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/risk"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/sentiment"
)

// EventType 表示监控事件类型。
type EventType string

const (
	EventAdvice  EventType = "advice"
	EventRefresh EventType = "refresh"
	EventError   EventType = "error"
)

// Event 封装通用监控事件。
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AdvicePayload 记录一次仓位建议的全部信号。
type AdvicePayload struct {
	Ticker           string          `json:"ticker"`
	Sentiment        sentiment.Label `json:"sentiment"`
	SentimentReason  string          `json:"sentiment_reason"`
	KellyPositionPct float64         `json:"kelly_position_pct"`
	MAPositionShares int64           `json:"ma_position_shares"`
	MACDAddPercent   int             `json:"macd_add_percent"`
	Risk             risk.Signal     `json:"risk"`
	Advice           string          `json:"advice"`
}

// RefreshPayload 记录一轮整组合刷新的概要。
type RefreshPayload struct {
	HoldingCount int     `json:"holding_count"`
	Cash         float64 `json:"cash"`
	TotalValue   float64 `json:"total_value"`
}

// ErrorPayload 记录运行期错误。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}
