package risk

import (
	"testing"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/portfolio"
)

func holdingWith(avgCost, currentPrice, dailyChange float64) *portfolio.Holding {
	h := &portfolio.Holding{
		Ticker:             "AAPL",
		Shares:             10,
		AvgCost:            avgCost,
		CurrentPrice:       currentPrice,
		DailyChangePercent: dailyChange,
	}
	h.Recalc()
	return h
}

func TestEvaluate_CircuitBreaker(t *testing.T) {
	// 单日下跌6%，触发熔断减仓50%。
	sig := Evaluate(holdingWith(100, 94, -6))

	if sig.Action != ActionReduce {
		t.Fatalf("expected reduce, got %s", sig.Action)
	}
	if sig.Percent != 50 {
		t.Errorf("expected 50%%, got %v", sig.Percent)
	}
	if sig.Reason != "单日波动大于5%（黑天鹅熔断机制）" {
		t.Errorf("unexpected reason: %q", sig.Reason)
	}
}

func TestEvaluate_CircuitBreakerOnSpike(t *testing.T) {
	// 单日暴涨同样触发熔断，波动取绝对值。
	sig := Evaluate(holdingWith(100, 108, 8))

	if sig.Action != ActionReduce {
		t.Errorf("expected reduce on upside volatility, got %s", sig.Action)
	}
}

func TestEvaluate_StopLoss(t *testing.T) {
	// 现价96低于成本价的97%，清仓止损。
	sig := Evaluate(holdingWith(100, 96, -1))

	if sig.Action != ActionSellAll {
		t.Fatalf("expected sell_all, got %s", sig.Action)
	}
	if sig.Percent != 100 {
		t.Errorf("expected 100%%, got %v", sig.Percent)
	}
	if sig.Reason != "跌破买入价3%（止损机制）" {
		t.Errorf("unexpected reason: %q", sig.Reason)
	}
}

func TestEvaluate_CircuitBreakerBeforeStopLoss(t *testing.T) {
	// 同时满足熔断与止损时，熔断优先。
	sig := Evaluate(holdingWith(100, 90, -10))

	if sig.Action != ActionReduce {
		t.Errorf("circuit breaker must take priority, got %s", sig.Action)
	}
}

func TestEvaluate_TakeProfit(t *testing.T) {
	// 浮盈20%，部分止盈33%。
	sig := Evaluate(holdingWith(100, 120, 2))

	if sig.Action != ActionTakeProfit {
		t.Fatalf("expected take_profit, got %s", sig.Action)
	}
	if sig.Percent != 33 {
		t.Errorf("expected 33%%, got %v", sig.Percent)
	}
	if sig.Reason != "盈利达到15%（止盈机制）" {
		t.Errorf("unexpected reason: %q", sig.Reason)
	}
}

func TestEvaluate_Hold(t *testing.T) {
	// 温和波动、无亏损、浮盈未达标：持有。
	sig := Evaluate(holdingWith(100, 105, 1))

	if sig.Action != ActionHold {
		t.Fatalf("expected hold, got %s", sig.Action)
	}
	if sig.Percent != 0 {
		t.Errorf("expected 0%%, got %v", sig.Percent)
	}
	if sig.Reason != "无风险控制信号" {
		t.Errorf("unexpected reason: %q", sig.Reason)
	}
}

func TestEvaluate_BoundaryValues(t *testing.T) {
	// 阈值边界不触发：恰好5%波动、恰好97%成本价、恰好15%浮盈。
	cases := []struct {
		name    string
		holding *portfolio.Holding
	}{
		{"exactly 5 percent move", holdingWith(100, 105, 5)},
		{"exactly at stop loss line", holdingWith(100, 97, -1)},
		{"exactly 15 percent gain", holdingWith(100, 115, 1)},
	}
	for _, c := range cases {
		if sig := Evaluate(c.holding); sig.Action != ActionHold {
			t.Errorf("%s: expected hold, got %s", c.name, sig.Action)
		}
	}
}

func TestEvaluate_NilHolding(t *testing.T) {
	if sig := Evaluate(nil); sig.Action != ActionHold {
		t.Errorf("nil holding must yield hold, got %s", sig.Action)
	}
}

func TestAction_Display(t *testing.T) {
	cases := []struct {
		action Action
		want   string
	}{
		{ActionReduce, "减仓"},
		{ActionSellAll, "清仓"},
		{ActionTakeProfit, "止盈"},
		{ActionHold, "持有"},
	}
	for _, c := range cases {
		if got := c.action.Display(); got != c.want {
			t.Errorf("Display(%s) = %q, want %q", c.action, got, c.want)
		}
	}
}
