package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"go.uber.org/zap"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/config"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/indicator"
)

// Client 对接 Yahoo Finance 公开接口并实现重试机制。
type Client struct {
	cfg    config.MarketConfig
	logger *zap.Logger
}

// NewClient 创建行情客户端。
func NewClient(cfg config.MarketConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
	}
}

// FetchHistory 拉取指定回看天数内的日线数据。
// 历史数据只有这一条获取路径，所有规则计算均以此为准。
func (c *Client) FetchHistory(ctx context.Context, ticker string, lookbackDays int) (indicator.Series, error) {
	if lookbackDays <= 0 {
		lookbackDays = c.cfg.LookbackDays
	}

	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)

	var bars []indicator.Bar

	err := c.callWithRetry(ctx, fmt.Sprintf("fetch_history_%s", ticker), func() error {
		params := &chart.Params{
			Symbol:   ticker,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)

		fetched := make([]indicator.Bar, 0, lookbackDays)
		for iter.Next() {
			bar := iter.Bar()
			fetched = append(fetched, indicator.Bar{
				Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
				Open:   bar.Open.InexactFloat64(),
				High:   bar.High.InexactFloat64(),
				Low:    bar.Low.InexactFloat64(),
				Close:  bar.Close.InexactFloat64(),
				Volume: float64(bar.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("拉取 %s 日线失败: %w", ticker, err)
		}

		bars = fetched
		return nil
	})
	if err != nil {
		return indicator.Series{}, err
	}

	return indicator.NewSeries(bars), nil
}

// FetchQuote 获取实时报价。
func (c *Client) FetchQuote(ctx context.Context, ticker string) (Quote, error) {
	var result Quote

	err := c.callWithRetry(ctx, fmt.Sprintf("fetch_quote_%s", ticker), func() error {
		q, err := quote.Get(ticker)
		if err != nil {
			return fmt.Errorf("获取 %s 报价失败: %w", ticker, err)
		}
		if q == nil || q.RegularMarketPrice <= 0 {
			return fmt.Errorf("%w: %s 报价为空", ErrUnavailable, ticker)
		}

		result = Quote{
			Ticker:        ticker,
			LastPrice:     q.RegularMarketPrice,
			PreviousClose: q.RegularMarketPreviousClose,
		}
		return nil
	})
	if err != nil {
		return Quote{}, err
	}

	if result.PreviousClose <= 0 {
		result.PreviousClose = result.LastPrice
	}

	return result, nil
}

// callWithRetry 带指数退避地执行行情请求，上下文取消时立即返回。
func (c *Client) callWithRetry(ctx context.Context, operation string, fn func() error) error {
	attempt := 0
	delay := c.cfg.Retry.MinDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	maxDelay := c.cfg.Retry.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	maxAttempts := c.cfg.Retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		attempt++
		start := time.Now()
		err := fn()
		duration := time.Since(start)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("行情请求重试后成功",
					zap.String("operation", operation),
					zap.Int("attempts", attempt),
					zap.Duration("latency", duration),
				)
			}
			return nil
		}

		if !isRetryable(err) || attempt >= maxAttempts {
			c.logger.Warn("行情请求失败",
				zap.String("operation", operation),
				zap.Int("attempts", attempt),
				zap.Duration("latency", duration),
				zap.Error(err),
			)
			return err
		}

		wait := delay
		if wait > maxDelay {
			wait = maxDelay
		}

		c.logger.Warn("行情请求失败，等待重试",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

// isRetryable 判断错误是否值得重试。
// Yahoo 公开接口的失败多为瞬时性，除上下文取消与明确的空报价外一律重试。
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return false
	}
	return true
}
