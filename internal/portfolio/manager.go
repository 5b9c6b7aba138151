package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/indicator"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/market"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/sentiment"
)

// ledgerStore 是账本持久化的最小依赖。每次成功的变更都会整体落盘。
type ledgerStore interface {
	Load(ctx context.Context, initialCash float64) (*Portfolio, error)
	Save(ctx context.Context, p *Portfolio) error
}

// marketData 是管理器需要的行情能力：报价用于刷新价格，
// 历史序列用于买入时自动判断市场情绪。
type marketData interface {
	Quote(ctx context.Context, ticker string) (market.Quote, error)
	History(ctx context.Context, ticker string) indicator.Series
}

// Manager 持有投资组合聚合并串行化全部变更。
// 同一组合的并发写入由这里的互斥锁统一保护，后台刷新与交互编辑不会竞争。
type Manager struct {
	mu     sync.Mutex
	store  ledgerStore
	quotes marketData
	p      *Portfolio
	logger *zap.Logger
}

// NewManager 创建管理器并从存储加载账本，没有历史记录时使用默认初始现金。
func NewManager(ctx context.Context, store ledgerStore, quotes marketData, initialCash float64, logger *zap.Logger) (*Manager, error) {
	if store == nil {
		return nil, errors.New("portfolio: store 不能为空")
	}
	if quotes == nil {
		return nil, errors.New("portfolio: 行情服务不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p, err := store.Load(ctx, initialCash)
	if err != nil {
		return nil, fmt.Errorf("portfolio: 加载账本失败: %w", err)
	}

	return &Manager{
		store:  store,
		quotes: quotes,
		p:      p,
		logger: logger,
	}, nil
}

// Buy 以给定价格买入股票；首次买入创建持仓，重复买入按金额加权摊薄成本。
// 现价取实时报价，报价不可用时回落为成交价。
func (m *Manager) Buy(ctx context.Context, ticker string, shares int64, price float64) error {
	if ticker == "" || shares <= 0 || price <= 0 {
		return ErrInvalidEdit
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cost := float64(shares) * price
	if cost > m.p.Cash {
		return ErrInsufficientCash
	}

	currentPrice := price
	dailyChange := 0.0
	if q, err := m.quotes.Quote(ctx, ticker); err == nil {
		currentPrice = q.LastPrice
		if q.PreviousClose > 0 {
			dailyChange = (q.LastPrice - q.PreviousClose) / q.PreviousClose * 100
		}
	} else {
		m.logger.Warn("买入时报价不可用，以成交价作为现价",
			zap.String("ticker", ticker),
			zap.Error(err),
		)
	}

	h, exists := m.p.Get(ticker)
	if exists {
		newShares := h.Shares + shares
		h.AvgCost = (h.AvgCost*float64(h.Shares) + price*float64(shares)) / float64(newShares)
		h.Shares = newShares
		h.CurrentPrice = currentPrice
		h.DailyChangePercent = dailyChange
	} else {
		h = &Holding{
			Ticker:             ticker,
			Shares:             shares,
			AvgCost:            price,
			CurrentPrice:       currentPrice,
			Sentiment:          sentiment.LabelConsolidation,
			DailyChangePercent: dailyChange,
		}
		m.p.Add(h)
	}

	label, reason := sentiment.Classify(m.quotes.History(ctx, ticker))
	h.Sentiment = label
	h.SentimentReason = reason

	m.p.Cash -= cost
	h.Recalc()
	m.p.Recalc()

	return m.save(ctx)
}

// Close 清仓：按现价将市值折回现金并移除持仓。
func (m *Manager) Close(ctx context.Context, ticker string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.p.Get(ticker)
	if !ok {
		return ErrNotFound
	}

	m.p.Cash += h.MarketValue
	m.p.Remove(ticker)
	m.p.Recalc()

	return m.save(ctx)
}

// SetShares 将持仓调整到指定股数，差额按现价与现金结算。
// 加仓金额超出现金时拒绝操作，组合保持不变。
func (m *Manager) SetShares(ctx context.Context, ticker string, shares int64) error {
	if shares < 0 {
		return ErrInvalidEdit
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.p.Get(ticker)
	if !ok {
		return ErrNotFound
	}

	diff := h.CurrentPrice * float64(shares-h.Shares)
	if shares > h.Shares && diff > m.p.Cash {
		return ErrInsufficientCash
	}

	m.p.Cash -= diff
	h.Shares = shares
	h.Recalc()
	m.p.Recalc()

	return m.save(ctx)
}

// SetAvgCost 修正成本价。这是纯粹的成本基准修正，除浮动盈亏外不产生其他副作用。
func (m *Manager) SetAvgCost(ctx context.Context, ticker string, avgCost float64) error {
	if avgCost <= 0 {
		return ErrInvalidEdit
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.p.Get(ticker)
	if !ok {
		return ErrNotFound
	}

	h.AvgCost = avgCost
	h.Recalc()
	m.p.Recalc()

	return m.save(ctx)
}

// SetSentiment 手动指定市场情绪标签。
func (m *Manager) SetSentiment(ctx context.Context, ticker string, label sentiment.Label, reason string) error {
	if !label.Valid() {
		return ErrInvalidEdit
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.p.Get(ticker)
	if !ok {
		return ErrNotFound
	}

	h.Sentiment = label
	h.SentimentReason = reason

	return m.save(ctx)
}

// UpdateSentiment 依据最新历史行情自动重判市场情绪。
func (m *Manager) UpdateSentiment(ctx context.Context, ticker string) error {
	series := m.quotes.History(ctx, ticker)

	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.p.Get(ticker)
	if !ok {
		return ErrNotFound
	}

	label, reason := sentiment.Classify(series)
	h.Sentiment = label
	h.SentimentReason = reason

	return m.save(ctx)
}

// RefreshPrices 逐只刷新持仓报价并重算盈亏。报价不可用时保留最近已知价格。
// 刷新可以在持仓之间被上下文取消打断，不会打断单只的计算。
func (m *Manager) RefreshPrices(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range m.p.Ordered() {
		if err := ctx.Err(); err != nil {
			return err
		}

		q, err := m.quotes.Quote(ctx, h.Ticker)
		if err != nil {
			m.logger.Warn("刷新报价失败，保留最近价格",
				zap.String("ticker", h.Ticker),
				zap.Error(err),
			)
			if h.CurrentPrice <= 0 {
				h.CurrentPrice = h.AvgCost
			}
			h.Recalc()
			continue
		}

		h.CurrentPrice = q.LastPrice
		if q.PreviousClose > 0 {
			h.DailyChangePercent = (q.LastPrice - q.PreviousClose) / q.PreviousClose * 100
		}
		h.Recalc()
	}

	m.p.Recalc()
	return m.save(ctx)
}

// Mutate 在锁内对单只持仓执行写操作，随后重算并落盘。
// 回调同时拿到组合本身，便于建议流水线读取实时的现金与总资产。
func (m *Manager) Mutate(ctx context.Context, ticker string, fn func(h *Holding, p *Portfolio)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.p.Get(ticker)
	if !ok {
		return ErrNotFound
	}

	fn(h, m.p)
	h.Recalc()
	m.p.Recalc()

	return m.save(ctx)
}

// Tickers 按插入顺序返回全部持仓代码。
func (m *Manager) Tickers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	tickers := make([]string, len(m.p.Order))
	copy(tickers, m.p.Order)
	return tickers
}

// View 返回单只持仓的副本。
func (m *Manager) View(ticker string) (Holding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.p.Get(ticker)
	if !ok {
		return Holding{}, false
	}
	return *h, true
}

// Totals 返回当前现金与总资产。
func (m *Manager) Totals() (cash, totalValue float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.p.Cash, m.p.TotalValue
}

// Snapshot 返回整个组合的深拷贝，供展示或记录使用。
func (m *Manager) Snapshot() Portfolio {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := Portfolio{
		Cash:       m.p.Cash,
		TotalValue: m.p.TotalValue,
		Holdings:   make(map[string]*Holding, len(m.p.Holdings)),
		Order:      make([]string, len(m.p.Order)),
	}
	copy(snapshot.Order, m.p.Order)
	for ticker, h := range m.p.Holdings {
		clone := *h
		snapshot.Holdings[ticker] = &clone
	}
	return snapshot
}

func (m *Manager) save(ctx context.Context) error {
	if err := m.store.Save(ctx, m.p); err != nil {
		return fmt.Errorf("portfolio: 保存账本失败: %w", err)
	}
	return nil
}
