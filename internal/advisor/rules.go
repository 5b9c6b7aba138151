package advisor

import (
	"math"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/indicator"
)

const (
	// maShortWindow / maLongWindow 为均线仓位规则的两条均线窗口。
	maShortWindow = 20
	maLongWindow  = 200

	// 均线规则给出的是固定股数档位，不是百分比，
	// 与凯利规则的百分比输出是有意保留的不对称。
	maSharesBelowLong  = 0
	maSharesBelowShort = 5
	maSharesAboveShort = 15

	// macdMinBars 计算 MACD 信号所需的最少日线数。
	macdMinBars = 26
	// 金叉加仓幅度：零轴上方的金叉顺势，权重更高。
	macdAddAboveZero = 5
	macdAddBelowZero = 3
)

// MAPositionShares 依据现价与 20/200 日均线的位置给出建议持股数。
// 数据不足 200 根时返回 0，视为保守默认而非错误。
func MAPositionShares(series indicator.Series) int64 {
	if err := series.Require(maLongWindow); err != nil {
		return 0
	}

	latest := indicator.Last(series.Close)
	ma20 := indicator.Last(indicator.RollingMean(series.Close, maShortWindow))
	ma200 := indicator.Last(indicator.RollingMean(series.Close, maLongWindow))

	if math.IsNaN(ma20) || math.IsNaN(ma200) {
		return 0
	}

	switch {
	case latest < ma200:
		return maSharesBelowLong
	case latest < ma20:
		return maSharesBelowShort
	default:
		return maSharesAboveShort
	}
}

// MACDAddPercent 检测 MACD 金叉并返回加仓百分比。
// 无金叉或数据不足时返回 0；金叉发生在零轴上方返回 5，下方返回 3。
func MACDAddPercent(series indicator.Series) int {
	if err := series.Require(macdMinBars); err != nil {
		return 0
	}

	macd, signal, _ := series.MACD()

	prevMACD := indicator.Prev(macd)
	prevSignal := indicator.Prev(signal)
	lastMACD := indicator.Last(macd)
	lastSignal := indicator.Last(signal)

	goldenCross := prevMACD < prevSignal && lastMACD > lastSignal
	if !goldenCross {
		return 0
	}

	if lastMACD > 0 {
		return macdAddAboveZero
	}
	return macdAddBelowZero
}
