package advisor

import (
	"math"
	"testing"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/sentiment"
)

func TestVolatilityCoefficient(t *testing.T) {
	cases := []struct {
		vix  float64
		want float64
	}{
		{10, 1.0},
		{19.99, 1.0},
		{20, 1.5},
		{30, 1.5},
		{30.01, 2.0},
		{80, 2.0},
	}
	for _, c := range cases {
		if got := VolatilityCoefficient(c.vix); got != c.want {
			t.Errorf("VolatilityCoefficient(%v) = %v, want %v", c.vix, got, c.want)
		}
	}
}

func TestSentimentProbability(t *testing.T) {
	cases := []struct {
		label sentiment.Label
		want  float64
	}{
		{sentiment.LabelBreakoutHighVolume, 0.6},
		{sentiment.LabelConsolidation, 0.5},
		{sentiment.LabelBreakdownVolume, 0.4},
		{sentiment.Label("garbage"), 0.5},
	}
	for _, c := range cases {
		if got := SentimentProbability(c.label); got != c.want {
			t.Errorf("SentimentProbability(%q) = %v, want %v", c.label, got, c.want)
		}
	}
}

func TestKellyPositionPct(t *testing.T) {
	cases := []struct {
		name string
		prob float64
		coef float64
		want float64
	}{
		{"breakout low volatility", 0.6, 1.0, 30},
		{"consolidation mid volatility", 0.5, 1.5, 100.0 / 6},
		{"breakdown high volatility", 0.4, 2.0, 10},
		{"zero coefficient", 0.5, 0, 0},
		{"negative coefficient", 0.5, -1, 0},
	}
	for _, c := range cases {
		got := KellyPositionPct(c.prob, c.coef)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: KellyPositionPct(%v, %v) = %v, want %v", c.name, c.prob, c.coef, got, c.want)
		}
	}
}

func TestKellyPositionPct_Bounds(t *testing.T) {
	// 三种情绪与三档波动率的全部组合都应落在 [10, 30] 区间内。
	probs := []float64{0.4, 0.5, 0.6}
	coefs := []float64{1.0, 1.5, 2.0}
	for _, p := range probs {
		for _, c := range coefs {
			got := KellyPositionPct(p, c)
			if got < 10 || got > 30 {
				t.Errorf("KellyPositionPct(%v, %v) = %v, outside [10, 30]", p, c, got)
			}
		}
	}
}
