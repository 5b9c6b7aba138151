package market

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/indicator"
)

// Service 在 Client 之上实现降级策略：行情失败不向引擎传播错误，
// 而是回落到空序列、nil 报价或默认波动率。
type Service struct {
	client       *Client
	vixSymbol    string
	lookbackDays int
	logger       *zap.Logger
}

// NewService 创建行情服务。
func NewService(client *Client, vixSymbol string, lookbackDays int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if vixSymbol == "" {
		vixSymbol = "^VIX"
	}
	return &Service{
		client:       client,
		vixSymbol:    vixSymbol,
		lookbackDays: lookbackDays,
		logger:       logger,
	}
}

// History 返回日线序列，失败时返回空序列并记录告警。
func (s *Service) History(ctx context.Context, ticker string) indicator.Series {
	series, err := s.client.FetchHistory(ctx, ticker, s.lookbackDays)
	if err != nil {
		s.logger.Warn("获取历史行情失败，使用空序列",
			zap.String("ticker", ticker),
			zap.Error(err),
		)
		return indicator.Series{}
	}
	return series
}

// Quote 返回实时报价，不可用时返回 ErrUnavailable，由调用方决定回落值。
func (s *Service) Quote(ctx context.Context, ticker string) (Quote, error) {
	return s.client.FetchQuote(ctx, ticker)
}

// VolatilityIndex 返回波动率指数报价，不可用时回落到默认值。
func (s *Service) VolatilityIndex(ctx context.Context) float64 {
	q, err := s.client.FetchQuote(ctx, s.vixSymbol)
	if err != nil {
		s.logger.Warn("获取波动率指数失败，使用默认值",
			zap.String("symbol", s.vixSymbol),
			zap.Float64("default", DefaultVIXValue),
			zap.Error(err),
		)
		return DefaultVIXValue
	}
	return q.LastPrice
}

// GetSnapshot 并发拉取一只股票刷新所需的历史、报价与波动率数据。
// 各项独立降级，返回的快照总是可用的。
func (s *Service) GetSnapshot(ctx context.Context, ticker string) Snapshot {
	snapshot := Snapshot{
		Ticker: ticker,
		VIX:    DefaultVIXValue,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		snapshot.History = s.History(groupCtx, ticker)
		return nil
	})

	group.Go(func() error {
		q, err := s.Quote(groupCtx, ticker)
		if err == nil {
			snapshot.Quote = &q
		}
		return nil
	})

	group.Go(func() error {
		snapshot.VIX = s.VolatilityIndex(groupCtx)
		return nil
	})

	// 各协程自行降级，这里不会返回错误。
	_ = group.Wait()

	snapshot.RetrievedAt = time.Now().UTC()

	s.logger.Debug("行情快照获取完成",
		zap.String("ticker", ticker),
		zap.Int("bars", snapshot.History.Len()),
		zap.Bool("quote_available", snapshot.Quote != nil),
		zap.Float64("vix", snapshot.VIX),
	)

	return snapshot
}
