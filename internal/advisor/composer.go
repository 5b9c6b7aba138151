package advisor

import (
	"fmt"
	"strings"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/indicator"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/risk"
)

const (
	// minCashRatioPercent 现金占总资产的比例低于该值时发出警告。
	minCashRatioPercent = 30.0
	// maxHoldingRatioPercent 单股市值占总资产超过该值时发出集中度警告。
	maxHoldingRatioPercent = 25.0
)

// ComposeInput 汇总生成一条建议所需的全部信号与组合状态。
type ComposeInput struct {
	KellyPositionPct float64
	MAPositionShares int64
	RiskSignal       risk.Signal
	MACDAddPercent   int
	HoldingValue     float64
	Cash             float64
	TotalValue       float64
}

// Compose 按固定顺序拼装多行建议文本：
// 仓位概要（恒有）→ 风险控制（非持有时）→ MACD 信号（有加仓时）→
// 现金比例警告 → 单股集中度警告。行序是对下游消费方的契约。
func Compose(in ComposeInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "凯利公式建议仓位: %.1f%%, 均线建议持股: %d股\n",
		in.KellyPositionPct, in.MAPositionShares)

	if in.RiskSignal.Action != risk.ActionHold {
		fmt.Fprintf(&b, "风险控制: %s, 建议%s %.0f%%\n",
			in.RiskSignal.Reason, in.RiskSignal.Action.Display(), in.RiskSignal.Percent)
	}

	if in.MACDAddPercent > 0 {
		fmt.Fprintf(&b, "MACD金叉信号: 建议加仓 %d%%\n", in.MACDAddPercent)
	}

	// 总资产为0时无法计算占比，跳过两项警告。
	if in.TotalValue > 0 {
		cashRatio := indicator.SafeDivide(in.Cash, in.TotalValue) * 100
		if cashRatio < minCashRatioPercent {
			b.WriteString("警告: 现金比例低于30%，建议保持足够的现金\n")
		}

		holdingRatio := indicator.SafeDivide(in.HoldingValue, in.TotalValue) * 100
		if holdingRatio > maxHoldingRatioPercent {
			b.WriteString("警告: 单股仓位超过25%，建议分散投资\n")
		}
	}

	return b.String()
}
