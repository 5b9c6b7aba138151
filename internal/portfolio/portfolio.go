package portfolio

import (
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/sentiment"
)

// Holding 表示单只股票的持仓记录，引擎的各项计算结果也缓存在这里。
type Holding struct {
	Ticker                string          `json:"ticker"`
	Shares                int64           `json:"shares"`
	AvgCost               float64         `json:"avg_cost"`
	CurrentPrice          float64         `json:"current_price"`
	MarketValue           float64         `json:"market_value"`
	UnrealizedGain        float64         `json:"unrealized_gain"`
	UnrealizedGainPercent float64         `json:"unrealized_gain_percent"`
	Sentiment             sentiment.Label `json:"sentiment"`
	SentimentReason       string          `json:"sentiment_reason,omitempty"`
	KellyPositionPct      float64         `json:"kelly_position_pct"`
	MAPositionShares      int64           `json:"ma_position_shares"`
	PositionAdvice        string          `json:"position_advice,omitempty"`
	DailyChangePercent    float64         `json:"daily_change_percent"`
}

// Recalc 依据股数、成本与现价重算市值与浮动盈亏。
func (h *Holding) Recalc() {
	h.MarketValue = float64(h.Shares) * h.CurrentPrice
	h.UnrealizedGain = (h.CurrentPrice - h.AvgCost) * float64(h.Shares)
	if h.AvgCost > 0 {
		h.UnrealizedGainPercent = (h.CurrentPrice - h.AvgCost) / h.AvgCost * 100
	} else {
		h.UnrealizedGainPercent = 0
	}
}

// Portfolio 为单用户投资组合聚合：现金加全部持仓。
// Holdings 以股票代码为键，Order 记录插入顺序供展示层使用。
type Portfolio struct {
	Cash       float64             `json:"cash"`
	TotalValue float64             `json:"total_value"`
	Holdings   map[string]*Holding `json:"holdings"`
	Order      []string            `json:"order"`
}

// New 创建仅含初始现金的空组合。
func New(initialCash float64) *Portfolio {
	return &Portfolio{
		Cash:       initialCash,
		TotalValue: initialCash,
		Holdings:   make(map[string]*Holding),
	}
}

// Get 按代码查找持仓。
func (p *Portfolio) Get(ticker string) (*Holding, bool) {
	h, ok := p.Holdings[ticker]
	return h, ok
}

// Add 插入新持仓并记录展示顺序，已存在时直接覆盖。
func (p *Portfolio) Add(h *Holding) {
	if _, exists := p.Holdings[h.Ticker]; !exists {
		p.Order = append(p.Order, h.Ticker)
	}
	p.Holdings[h.Ticker] = h
}

// Remove 删除持仓并维护展示顺序。
func (p *Portfolio) Remove(ticker string) {
	if _, exists := p.Holdings[ticker]; !exists {
		return
	}
	delete(p.Holdings, ticker)
	for i, t := range p.Order {
		if t == ticker {
			p.Order = append(p.Order[:i], p.Order[i+1:]...)
			break
		}
	}
}

// Ordered 按插入顺序返回全部持仓。
func (p *Portfolio) Ordered() []*Holding {
	holdings := make([]*Holding, 0, len(p.Order))
	for _, ticker := range p.Order {
		if h, ok := p.Holdings[ticker]; ok {
			holdings = append(holdings, h)
		}
	}
	return holdings
}

// Recalc 重算总资产。总资产只能由此处推导，任何现金或市值变动后都必须调用。
func (p *Portfolio) Recalc() {
	total := p.Cash
	for _, h := range p.Holdings {
		total += h.MarketValue
	}
	p.TotalValue = total
}
