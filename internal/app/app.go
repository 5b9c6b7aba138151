package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/advisor"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/config"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/market"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/monitor"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/portfolio"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 初始化各组件后进入周期刷新循环，直到上下文取消。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("投资组合顾问已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("vix_symbol", a.cfg.Market.VIXSymbol),
		zap.Duration("refresh_interval", a.cfg.Scheduler.RefreshInterval),
	)

	portfolioStore, err := store.NewPortfolioStore(a.store)
	if err != nil {
		return fmt.Errorf("初始化账本存储失败: %w", err)
	}

	monitorSvc, err := monitor.NewService(a.store, a.logger)
	if err != nil {
		return fmt.Errorf("初始化监控服务失败: %w", err)
	}

	marketClient := market.NewClient(a.cfg.Market, a.logger)
	marketSvc := market.NewService(marketClient, a.cfg.Market.VIXSymbol, a.cfg.Market.LookbackDays, a.logger)

	holdings, err := portfolio.NewManager(ctx, portfolioStore, marketSvc, a.cfg.Portfolio.InitialCash, a.logger)
	if err != nil {
		return fmt.Errorf("初始化持仓管理器失败: %w", err)
	}

	engine, err := advisor.New(marketSvc, holdings, monitorSvc, a.logger)
	if err != nil {
		return fmt.Errorf("初始化建议引擎失败: %w", err)
	}

	refreshInterval := a.cfg.Scheduler.RefreshInterval
	if refreshInterval <= 0 {
		refreshInterval = 5 * time.Minute
	}

	if err := engine.RefreshAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("首次刷新失败", zap.Error(err))
	}

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("系统异常退出: %w", err)
			}
			a.logger.Info("系统收到退出信号，正在停止")
			return nil
		case <-ticker.C:
			if err := engine.RefreshAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("执行周期刷新失败", zap.Error(err))
			}
		}
	}
}
