package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/portfolio"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/sentiment"
)

// PortfolioStore 负责投资组合账本的持久化。
// 持久化失败是整个系统里唯一需要硬失败的错误类别：静默丢失账本不可接受。
type PortfolioStore struct {
	db *sql.DB
}

// NewPortfolioStore 初始化账本存储并创建表结构。
func NewPortfolioStore(store *Store) (*PortfolioStore, error) {
	if store == nil {
		return nil, errors.New("store: store 不能为空")
	}

	ps := &PortfolioStore{db: store.DB()}
	if err := ps.initSchema(); err != nil {
		return nil, err
	}
	return ps, nil
}

func (ps *PortfolioStore) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS portfolio (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			cash REAL NOT NULL,
			total_value REAL NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS holdings (
			ticker TEXT PRIMARY KEY,
			shares INTEGER NOT NULL,
			avg_cost REAL NOT NULL,
			current_price REAL NOT NULL,
			market_value REAL NOT NULL,
			unrealized_gain REAL NOT NULL,
			unrealized_gain_percent REAL NOT NULL,
			sentiment TEXT NOT NULL,
			sentiment_reason TEXT NOT NULL DEFAULT '',
			kelly_position_pct REAL NOT NULL,
			ma_position_shares INTEGER NOT NULL,
			position_advice TEXT NOT NULL DEFAULT '',
			daily_change_percent REAL NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_holdings_position ON holdings(position);`,
	}

	for _, stmt := range schema {
		if _, err := ps.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: 初始化账本表结构失败: %w", err)
		}
	}

	return nil
}

// Load 读取已保存的投资组合；没有任何记录时返回仅含初始现金的默认组合。
func (ps *PortfolioStore) Load(ctx context.Context, initialCash float64) (*portfolio.Portfolio, error) {
	p := portfolio.New(initialCash)

	row := ps.db.QueryRowContext(ctx, `SELECT cash, total_value FROM portfolio WHERE id = 1`)
	if err := row.Scan(&p.Cash, &p.TotalValue); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, nil
		}
		return nil, fmt.Errorf("store: 读取组合概要失败: %w", err)
	}

	rows, err := ps.db.QueryContext(ctx, `
		SELECT ticker, shares, avg_cost, current_price, market_value,
		       unrealized_gain, unrealized_gain_percent, sentiment, sentiment_reason,
		       kelly_position_pct, ma_position_shares, position_advice, daily_change_percent
		FROM holdings ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: 读取持仓失败: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var h portfolio.Holding
		var label string
		if err := rows.Scan(
			&h.Ticker, &h.Shares, &h.AvgCost, &h.CurrentPrice, &h.MarketValue,
			&h.UnrealizedGain, &h.UnrealizedGainPercent, &label, &h.SentimentReason,
			&h.KellyPositionPct, &h.MAPositionShares, &h.PositionAdvice, &h.DailyChangePercent,
		); err != nil {
			return nil, fmt.Errorf("store: 解析持仓记录失败: %w", err)
		}
		h.Sentiment = sentiment.Label(label)
		if !h.Sentiment.Valid() {
			h.Sentiment = sentiment.LabelConsolidation
		}
		holding := h
		p.Add(&holding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: 遍历持仓记录失败: %w", err)
	}

	p.Recalc()
	return p, nil
}

// Save 在单个事务内整体写入投资组合。
func (ps *PortfolioStore) Save(ctx context.Context, p *portfolio.Portfolio) error {
	if p == nil {
		return errors.New("store: 组合不能为空")
	}

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: 开启事务失败: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC().Format(time.RFC3339)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO portfolio (id, cash, total_value, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET cash = excluded.cash,
			total_value = excluded.total_value, updated_at = excluded.updated_at`,
		p.Cash, p.TotalValue, now,
	); err != nil {
		return fmt.Errorf("store: 写入组合概要失败: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings`); err != nil {
		return fmt.Errorf("store: 清理持仓记录失败: %w", err)
	}

	for i, h := range p.Ordered() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO holdings (
				ticker, shares, avg_cost, current_price, market_value,
				unrealized_gain, unrealized_gain_percent, sentiment, sentiment_reason,
				kelly_position_pct, ma_position_shares, position_advice, daily_change_percent,
				position
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.Ticker, h.Shares, h.AvgCost, h.CurrentPrice, h.MarketValue,
			h.UnrealizedGain, h.UnrealizedGainPercent, string(h.Sentiment), h.SentimentReason,
			h.KellyPositionPct, h.MAPositionShares, h.PositionAdvice, h.DailyChangePercent,
			i,
		); err != nil {
			return fmt.Errorf("store: 写入持仓 %s 失败: %w", h.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: 提交事务失败: %w", err)
	}

	return nil
}
