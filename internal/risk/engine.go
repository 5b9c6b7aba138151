package risk

import (
	"math"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/portfolio"
)

// 风控阈值为固定设计常量，不提供配置入口。
const (
	// circuitBreakerChangePercent 单日波动超过该百分比触发熔断减仓。
	circuitBreakerChangePercent = 5.0
	// stopLossRatio 现价跌破成本价的该比例触发清仓止损。
	stopLossRatio = 0.97
	// takeProfitGainPercent 浮盈超过该百分比触发部分止盈。
	takeProfitGainPercent = 15.0
)

// Evaluate 按固定优先级对单只持仓执行风险控制检查：
// 熔断 → 止损 → 止盈 → 持有。纯函数，不做任何 I/O，必定返回一个信号。
func Evaluate(h *portfolio.Holding) Signal {
	if h == nil {
		return holdSignal()
	}

	if math.Abs(h.DailyChangePercent) > circuitBreakerChangePercent {
		return Signal{
			Action:  ActionReduce,
			Percent: 50,
			Reason:  "单日波动大于5%（黑天鹅熔断机制）",
		}
	}

	if h.CurrentPrice < h.AvgCost*stopLossRatio {
		return Signal{
			Action:  ActionSellAll,
			Percent: 100,
			Reason:  "跌破买入价3%（止损机制）",
		}
	}

	if h.UnrealizedGainPercent > takeProfitGainPercent {
		return Signal{
			Action:  ActionTakeProfit,
			Percent: 33,
			Reason:  "盈利达到15%（止盈机制）",
		}
	}

	return holdSignal()
}

func holdSignal() Signal {
	return Signal{
		Action:  ActionHold,
		Percent: 0,
		Reason:  "无风险控制信号",
	}
}
