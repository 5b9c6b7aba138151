package advisor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/market"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/monitor"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/portfolio"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/risk"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/sentiment"
)

// snapshotProvider 是建议流水线对行情层的最小依赖。
type snapshotProvider interface {
	GetSnapshot(ctx context.Context, ticker string) market.Snapshot
}

// eventRecorder 把建议与错误写入监控事件流，实现方保证不失败。
type eventRecorder interface {
	RecordAdvice(ctx context.Context, payload monitor.AdvicePayload)
	RecordRefresh(ctx context.Context, payload monitor.RefreshPayload)
	RecordError(ctx context.Context, message string, cause error, details map[string]interface{})
}

// Advisor 把行情、情绪、仓位规则与风控组合成每只持仓的完整建议流水线。
type Advisor struct {
	market   snapshotProvider
	holdings *portfolio.Manager
	events   eventRecorder
	logger   *zap.Logger
}

// New 创建建议引擎。
func New(marketSvc snapshotProvider, holdings *portfolio.Manager, events eventRecorder, logger *zap.Logger) (*Advisor, error) {
	if marketSvc == nil {
		return nil, errors.New("advisor: 行情服务不能为空")
	}
	if holdings == nil {
		return nil, errors.New("advisor: 持仓管理器不能为空")
	}
	if events == nil {
		return nil, errors.New("advisor: 监控服务不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Advisor{
		market:   marketSvc,
		holdings: holdings,
		events:   events,
		logger:   logger,
	}, nil
}

// Advise 为单只持仓生成仓位建议并写回持仓记录。
// 行情缺失按各规则的保守默认处理，流水线总会产出一条建议；
// 只有账本落盘失败才会作为错误返回。
func (a *Advisor) Advise(ctx context.Context, ticker string) (string, error) {
	if _, ok := a.holdings.View(ticker); !ok {
		return "", portfolio.ErrNotFound
	}

	snap := a.market.GetSnapshot(ctx, ticker)

	label, reason := sentiment.Classify(snap.History)
	coefficient := VolatilityCoefficient(snap.VIX)
	kelly := KellyPositionPct(SentimentProbability(label), coefficient)
	maShares := MAPositionShares(snap.History)
	macdAdd := MACDAddPercent(snap.History)

	var advice string
	var signal risk.Signal

	err := a.holdings.Mutate(ctx, ticker, func(h *portfolio.Holding, p *portfolio.Portfolio) {
		if snap.Quote != nil {
			h.CurrentPrice = snap.Quote.LastPrice
			if snap.Quote.PreviousClose > 0 {
				h.DailyChangePercent = (snap.Quote.LastPrice - snap.Quote.PreviousClose) / snap.Quote.PreviousClose * 100
			}
		} else if h.CurrentPrice <= 0 {
			h.CurrentPrice = h.AvgCost
		}
		h.Recalc()
		p.Recalc()

		h.Sentiment = label
		h.SentimentReason = reason
		h.KellyPositionPct = kelly
		h.MAPositionShares = maShares

		signal = risk.Evaluate(h)

		advice = Compose(ComposeInput{
			KellyPositionPct: kelly,
			MAPositionShares: maShares,
			RiskSignal:       signal,
			MACDAddPercent:   macdAdd,
			HoldingValue:     h.MarketValue,
			Cash:             p.Cash,
			TotalValue:       p.TotalValue,
		})
		h.PositionAdvice = advice
	})
	if err != nil {
		return "", err
	}

	a.events.RecordAdvice(ctx, monitor.AdvicePayload{
		Ticker:           ticker,
		Sentiment:        label,
		SentimentReason:  reason,
		KellyPositionPct: kelly,
		MAPositionShares: maShares,
		MACDAddPercent:   macdAdd,
		Risk:             signal,
		Advice:           advice,
	})

	a.logger.Info("仓位建议已生成",
		zap.String("ticker", ticker),
		zap.String("sentiment", string(label)),
		zap.Float64("kelly_pct", kelly),
		zap.Int64("ma_shares", maShares),
		zap.Int("macd_add", macdAdd),
		zap.String("risk_action", string(signal.Action)),
	)

	return advice, nil
}

// RefreshAll 执行一轮完整刷新：先更新全部报价，再逐只生成建议。
// 每只持仓之间检查上下文取消，单只的计算不会被打断。
func (a *Advisor) RefreshAll(ctx context.Context) error {
	if err := a.holdings.RefreshPrices(ctx); err != nil {
		a.events.RecordError(ctx, "刷新持仓价格失败", err, nil)
		return err
	}

	tickers := a.holdings.Tickers()
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := a.Advise(ctx, ticker); err != nil {
			if errors.Is(err, portfolio.ErrNotFound) {
				continue
			}
			a.events.RecordError(ctx, "生成仓位建议失败", err, map[string]interface{}{"ticker": ticker})
			return err
		}
	}

	cash, total := a.holdings.Totals()
	a.events.RecordRefresh(ctx, monitor.RefreshPayload{
		HoldingCount: len(tickers),
		Cash:         cash,
		TotalValue:   total,
	})

	return nil
}
