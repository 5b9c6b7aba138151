package indicator

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrInsufficientData 表示序列长度不足以计算所请求的窗口。
var ErrInsufficientData = errors.New("indicator: 数据长度不足")

// Bar 代表单个交易日的行情数据。
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series 将日线数据拆分为便于指标计算的序列，按日期升序排列。
type Series struct {
	Dates  []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// NewSeries 从原始日线创建 Series：按日期升序排序，同一天出现多条时保留最后一条。
func NewSeries(bars []Bar) Series {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	deduped := sorted[:0]
	for _, bar := range sorted {
		if n := len(deduped); n > 0 && sameDay(deduped[n-1].Date, bar.Date) {
			deduped[n-1] = bar
			continue
		}
		deduped = append(deduped, bar)
	}

	series := Series{
		Dates:  make([]time.Time, len(deduped)),
		Open:   make([]float64, len(deduped)),
		High:   make([]float64, len(deduped)),
		Low:    make([]float64, len(deduped)),
		Close:  make([]float64, len(deduped)),
		Volume: make([]float64, len(deduped)),
	}

	for i, bar := range deduped {
		series.Dates[i] = bar.Date.UTC()
		series.Open[i] = bar.Open
		series.High[i] = bar.High
		series.Low[i] = bar.Low
		series.Close[i] = bar.Close
		series.Volume[i] = bar.Volume
	}

	return series
}

// Len 返回序列长度。
func (s Series) Len() int {
	return len(s.Close)
}

// Require 校验序列至少包含 minBars 根日线。
func (s Series) Require(minBars int) error {
	if s.Len() < minBars {
		return ErrInsufficientData
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Last 返回序列最后一个值，若为空则返回 NaN。
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// Prev 返回序列倒数第二个值，若不足两个元素则返回 NaN。
func Prev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return values[len(values)-2]
}

// SliceTail 返回序列末尾 n 个值，不足时返回全部。
func SliceTail(values []float64, n int) []float64 {
	if n <= 0 || len(values) == 0 {
		return nil
	}
	if len(values) <= n {
		dst := make([]float64, len(values))
		copy(dst, values)
		return dst
	}
	dst := make([]float64, n)
	copy(dst, values[len(values)-n:])
	return dst
}

// SafeDivide 除法保护，除数为0时返回0。
func SafeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
