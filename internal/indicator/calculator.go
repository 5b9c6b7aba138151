package indicator

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// MACD 计算参数，与经典的 12/26/9 日线配置保持一致。
const (
	MACDFastSpan   = 12
	MACDSlowSpan   = 26
	MACDSignalSpan = 9
)

// RollingMean 计算简单移动平均，前 window-1 个位置没有完整窗口，填充 NaN。
func RollingMean(values []float64, window int) []float64 {
	return withWarmupNaN(values, window, func() []float64 {
		return talib.Sma(values, window)
	})
}

// RollingMax 计算滚动窗口内的最大值，前 window-1 个位置填充 NaN。
func RollingMax(values []float64, window int) []float64 {
	return withWarmupNaN(values, window, func() []float64 {
		return talib.Max(values, window)
	})
}

// withWarmupNaN 调用 talib 计算后把暖启动区间重写为 NaN。
// talib 对不完整窗口输出 0，会与真实数据混淆，这里统一用 NaN 标记。
func withWarmupNaN(values []float64, window int, compute func() []float64) []float64 {
	if window <= 0 || len(values) == 0 {
		return nil
	}
	if len(values) < window {
		out := make([]float64, len(values))
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	out := compute()
	for i := 0; i < window-1 && i < len(out); i++ {
		out[i] = math.NaN()
	}
	return out
}

// EWMA 计算递归指数加权移动平均：
// ewma[0] = v[0]，ewma[i] = α*v[i] + (1-α)*ewma[i-1]，α = 2/(span+1)。
// talib 的 EMA 用前 span 个值的简单均值做种子，与这里的定义不同，
// 因此不可互换。
func EWMA(values []float64, span int) []float64 {
	if span <= 0 || len(values) == 0 {
		return nil
	}

	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD 基于收盘价计算 MACD、信号线与柱状图三个序列。
func MACD(close []float64) (macd, signal, histogram []float64) {
	if len(close) == 0 {
		return nil, nil, nil
	}

	fast := EWMA(close, MACDFastSpan)
	slow := EWMA(close, MACDSlowSpan)

	macd = make([]float64, len(close))
	for i := range close {
		macd[i] = fast[i] - slow[i]
	}

	signal = EWMA(macd, MACDSignalSpan)

	histogram = make([]float64, len(close))
	for i := range close {
		histogram[i] = macd[i] - signal[i]
	}

	return macd, signal, histogram
}

// MACD 返回该序列收盘价的 MACD 三元组。
func (s Series) MACD() (macd, signal, histogram []float64) {
	return MACD(s.Close)
}
