package advisor

import (
	"math"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/sentiment"
)

// 凯利仓位的固定设计常量。0.5 的保守折减与 [0,1] 截断不可配置。
const kellyDampingFactor = 0.5

// VolatilityCoefficient 把波动率指数映射到仓位惩罚系数：
// 低波动 1.0，中等 1.5，高波动 2.0。输入不可用时调用方应传入默认报价 15。
func VolatilityCoefficient(vix float64) float64 {
	switch {
	case vix < 20:
		return 1.0
	case vix <= 30:
		return 1.5
	default:
		return 2.0
	}
}

// SentimentProbability 依据市场情绪给出上涨概率感官值。
// 这是一个封闭映射，未知标签一律按 0.5 处理。
func SentimentProbability(label sentiment.Label) float64 {
	switch label {
	case sentiment.LabelBreakoutHighVolume:
		return 0.6
	case sentiment.LabelBreakdownVolume:
		return 0.4
	default:
		return 0.5
	}
}

// KellyPositionPct 计算凯利公式推荐的仓位百分比：
// clamp(0, 1, 概率×0.5/波动率系数) × 100。
func KellyPositionPct(probability, volatilityCoefficient float64) float64 {
	if volatilityCoefficient <= 0 {
		return 0
	}
	fraction := probability * kellyDampingFactor / volatilityCoefficient
	fraction = math.Max(0, math.Min(1, fraction))
	return fraction * 100
}
