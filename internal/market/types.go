package market

import (
	"errors"
	"time"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/indicator"
)

// ErrUnavailable 表示行情源暂时无法给出报价。
var ErrUnavailable = errors.New("market: 行情数据不可用")

// DefaultVIXValue 为波动率指数不可用时的兜底取值。
const DefaultVIXValue = 15.0

// Quote 为单只股票的实时报价。
type Quote struct {
	Ticker        string
	LastPrice     float64
	PreviousClose float64
}

// Snapshot 聚合一只股票一次刷新所需的全部行情数据。
// 任何一项获取失败都以兜底值呈现，不会让错误越过此边界。
type Snapshot struct {
	Ticker      string
	History     indicator.Series
	Quote       *Quote // 报价不可用时为 nil
	VIX         float64
	RetrievedAt time.Time
}
