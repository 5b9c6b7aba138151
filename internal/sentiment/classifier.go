package sentiment

import (
	"fmt"
	"math"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/indicator"
)

// Label 表示市场情绪分类结果，三种取值覆盖全部情形。
type Label string

const (
	// LabelBreakoutHighVolume 突破前高+放量。
	LabelBreakoutHighVolume Label = "breakout_high_volume"
	// LabelConsolidation 横盘震荡，也是所有兜底场景的默认值。
	LabelConsolidation Label = "consolidation"
	// LabelBreakdownVolume 放量破位。
	LabelBreakdownVolume Label = "breakdown_volume"
)

// Display 返回用于展示的中文描述。
func (l Label) Display() string {
	switch l {
	case LabelBreakoutHighVolume:
		return "突破前高+放量"
	case LabelBreakdownVolume:
		return "放量破位"
	default:
		return "横盘震荡"
	}
}

// Valid 判断是否为已知标签。
func (l Label) Valid() bool {
	switch l {
	case LabelBreakoutHighVolume, LabelConsolidation, LabelBreakdownVolume:
		return true
	}
	return false
}

const (
	// minBars 是情绪判断所需的最少交易日数。
	minBars = 20
	// volumeWindow 为量价统计窗口。
	volumeWindow = 20
	// highVolumeRatio 当日成交量超过20日均量的该倍数视为放量。
	highVolumeRatio = 1.5
	// breakdownChangePercent 放量破位要求的单日跌幅（百分数）。
	breakdownChangePercent = -2.0
	// consolidationRangePercent 最近5日波幅低于该值视为横盘。
	consolidationRangePercent = 3.0
	// consolidationLookback 横盘判断回看的收盘价数量。
	consolidationLookback = 5
)

const fallbackReason = "未满足其他情绪条件，默认为横盘震荡"

// Classify 依据日线序列判断市场情绪，返回标签与依据说明。
// 规则按固定优先级求值，首个命中的生效；任何情况下都会返回三个标签之一，
// 数据不足时回落为横盘震荡，绝不报错。
func Classify(series indicator.Series) (Label, string) {
	if series.Len() < minBars {
		return LabelConsolidation, fmt.Sprintf("历史数据不足%d个交易日，默认为横盘震荡", minBars)
	}

	currentPrice := indicator.Last(series.Close)
	prevPrice := indicator.Prev(series.Close)
	currentVolume := indicator.Last(series.Volume)

	high20 := indicator.RollingMax(series.High, volumeWindow)
	// 与前高比较时取前一根K线的高水位，不包含当日。
	priorHigh := indicator.Prev(high20)

	avgVolume := indicator.Last(indicator.RollingMean(series.Volume, volumeWindow))
	volumeRatio := indicator.SafeDivide(currentVolume, avgVolume)
	isHighVolume := avgVolume > 0 && currentVolume > avgVolume*highVolumeRatio

	priceChange := indicator.SafeDivide(currentPrice-prevPrice, prevPrice) * 100

	if !math.IsNaN(priorHigh) && currentPrice > priorHigh && isHighVolume {
		reason := fmt.Sprintf("当前价格($%.2f)突破了%d日最高价($%.2f)，且成交量(%.0f)是%d日均量(%.0f)的%.2f倍",
			currentPrice, volumeWindow, priorHigh, currentVolume, volumeWindow, avgVolume, volumeRatio)
		return LabelBreakoutHighVolume, reason
	}

	if isHighVolume && priceChange < breakdownChangePercent {
		reason := fmt.Sprintf("股价下跌%.2f%%，且成交量(%.0f)是%d日均量(%.0f)的%.2f倍",
			math.Abs(priceChange), currentVolume, volumeWindow, avgVolume, volumeRatio)
		return LabelBreakdownVolume, reason
	}

	if rangePct, ok := recentRangePercent(series.Close); ok && rangePct < consolidationRangePercent {
		reason := fmt.Sprintf("最近%d天价格波动仅%.2f%%，处于盘整状态", consolidationLookback, rangePct)
		return LabelConsolidation, reason
	}

	return LabelConsolidation, fallbackReason
}

// recentRangePercent 计算最近数日收盘价的 (max-min)/min 波幅百分数。
func recentRangePercent(close []float64) (float64, bool) {
	recent := indicator.SliceTail(close, consolidationLookback)
	if len(recent) == 0 {
		return 0, false
	}

	lowest := recent[0]
	highest := recent[0]
	for _, v := range recent[1:] {
		if v < lowest {
			lowest = v
		}
		if v > highest {
			highest = v
		}
	}

	if lowest <= 0 {
		return 0, false
	}
	return (highest - lowest) / lowest * 100, true
}
