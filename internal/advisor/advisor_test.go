package advisor

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/flyingb5000/kelly-criterion-for-stock/internal/indicator"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/market"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/monitor"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/portfolio"
	"github.com/flyingb5000/kelly-criterion-for-stock/internal/sentiment"
)

type memoryLedger struct{}

func (memoryLedger) Load(_ context.Context, initialCash float64) (*portfolio.Portfolio, error) {
	return portfolio.New(initialCash), nil
}

func (memoryLedger) Save(_ context.Context, _ *portfolio.Portfolio) error {
	return nil
}

type stubQuotes struct {
	quote market.Quote
	err   error
}

func (s *stubQuotes) Quote(_ context.Context, _ string) (market.Quote, error) {
	if s.err != nil {
		return market.Quote{}, s.err
	}
	return s.quote, nil
}

func (s *stubQuotes) History(_ context.Context, _ string) indicator.Series {
	return indicator.Series{}
}

type stubSnapshots struct {
	snap market.Snapshot
}

func (s *stubSnapshots) GetSnapshot(_ context.Context, ticker string) market.Snapshot {
	snap := s.snap
	snap.Ticker = ticker
	return snap
}

type recordedEvents struct {
	advice    []monitor.AdvicePayload
	refreshes []monitor.RefreshPayload
	errors    []string
}

func (r *recordedEvents) RecordAdvice(_ context.Context, payload monitor.AdvicePayload) {
	r.advice = append(r.advice, payload)
}

func (r *recordedEvents) RecordRefresh(_ context.Context, payload monitor.RefreshPayload) {
	r.refreshes = append(r.refreshes, payload)
}

func (r *recordedEvents) RecordError(_ context.Context, message string, _ error, _ map[string]interface{}) {
	r.errors = append(r.errors, message)
}

func newAdvisorWithHolding(t *testing.T, snap market.Snapshot, quoteErr error) (*Advisor, *recordedEvents) {
	t.Helper()

	quotes := &stubQuotes{
		quote: market.Quote{Ticker: "AAPL", LastPrice: 105, PreviousClose: 104},
		err:   quoteErr,
	}
	manager, err := portfolio.NewManager(context.Background(), memoryLedger{}, quotes, 10000, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := manager.Buy(context.Background(), "AAPL", 10, 100); err != nil {
		t.Fatalf("Buy: %v", err)
	}

	events := &recordedEvents{}
	a, err := New(&stubSnapshots{snap: snap}, manager, events, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, events
}

func quietUptrend(n int) indicator.Series {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	return seriesFromCloses(closes)
}

func TestAdvise_FullPipeline(t *testing.T) {
	snap := market.Snapshot{
		History: quietUptrend(250),
		Quote:   &market.Quote{Ticker: "AAPL", LastPrice: 105, PreviousClose: 104},
		VIX:     15,
	}
	a, events := newAdvisorWithHolding(t, snap, nil)

	advice, err := a.Advise(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}

	// 横盘兜底(0.5) × 0.5 / 低波动(1.0) = 25%；上涨趋势均线档位15股。
	if !strings.Contains(advice, "凯利公式建议仓位: 25.0%, 均线建议持股: 15股") {
		t.Errorf("unexpected advice: %q", advice)
	}
	if strings.Contains(advice, "风险控制") {
		t.Errorf("healthy holding must not carry a risk line: %q", advice)
	}

	h, ok := a.holdings.View("AAPL")
	if !ok {
		t.Fatal("holding disappeared")
	}
	if h.CurrentPrice != 105 {
		t.Errorf("price not taken from snapshot quote: %v", h.CurrentPrice)
	}
	if h.Sentiment != sentiment.LabelConsolidation {
		t.Errorf("sentiment = %q, want consolidation", h.Sentiment)
	}
	if math.Abs(h.KellyPositionPct-25) > 1e-9 {
		t.Errorf("kelly pct = %v, want 25", h.KellyPositionPct)
	}
	if h.MAPositionShares != 15 {
		t.Errorf("ma shares = %d, want 15", h.MAPositionShares)
	}
	if h.PositionAdvice != advice {
		t.Errorf("advice not written back to holding")
	}

	if len(events.advice) != 1 {
		t.Fatalf("expected 1 advice event, got %d", len(events.advice))
	}
	payload := events.advice[0]
	if payload.Ticker != "AAPL" || payload.Advice != advice {
		t.Errorf("advice event mismatch: %+v", payload)
	}
}

func TestAdvise_DegradesWhenMarketEmpty(t *testing.T) {
	// 行情全灭：空历史、无报价、VIX兜底15。建议仍然产出。
	snap := market.Snapshot{
		History: indicator.Series{},
		Quote:   nil,
		VIX:     market.DefaultVIXValue,
	}
	a, _ := newAdvisorWithHolding(t, snap, nil)

	advice, err := a.Advise(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}

	// 数据不足：横盘0.5、低波动1.0 → 25%；均线0股。
	if !strings.Contains(advice, "凯利公式建议仓位: 25.0%, 均线建议持股: 0股") {
		t.Errorf("unexpected degraded advice: %q", advice)
	}

	h, _ := a.holdings.View("AAPL")
	if h.CurrentPrice != 105 {
		t.Errorf("last known price must survive missing quote, got %v", h.CurrentPrice)
	}
	if !strings.Contains(h.SentimentReason, "不足") {
		t.Errorf("expected insufficient-history reason, got %q", h.SentimentReason)
	}
}

func TestAdvise_UnknownTicker(t *testing.T) {
	a, events := newAdvisorWithHolding(t, market.Snapshot{VIX: 15}, nil)

	if _, err := a.Advise(context.Background(), "NOPE"); !errors.Is(err, portfolio.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(events.advice) != 0 {
		t.Errorf("no advice event expected for unknown ticker")
	}
}

func TestRefreshAll_RecordsRefreshEvent(t *testing.T) {
	snap := market.Snapshot{
		History: quietUptrend(250),
		Quote:   &market.Quote{Ticker: "AAPL", LastPrice: 105, PreviousClose: 104},
		VIX:     15,
	}
	a, events := newAdvisorWithHolding(t, snap, nil)

	if err := a.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}

	if len(events.advice) != 1 {
		t.Errorf("expected 1 advice event, got %d", len(events.advice))
	}
	if len(events.refreshes) != 1 {
		t.Fatalf("expected 1 refresh event, got %d", len(events.refreshes))
	}
	payload := events.refreshes[0]
	if payload.HoldingCount != 1 {
		t.Errorf("holding count = %d, want 1", payload.HoldingCount)
	}
	if payload.TotalValue <= 0 || payload.Cash <= 0 {
		t.Errorf("totals not populated: %+v", payload)
	}
	if len(events.errors) != 0 {
		t.Errorf("unexpected error events: %v", events.errors)
	}
}

func TestRefreshAll_ContextCancelled(t *testing.T) {
	a, _ := newAdvisorWithHolding(t, market.Snapshot{VIX: 15}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.RefreshAll(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNew_NilDependencies(t *testing.T) {
	quotes := &stubQuotes{quote: market.Quote{LastPrice: 1, PreviousClose: 1}}
	manager, err := portfolio.NewManager(context.Background(), memoryLedger{}, quotes, 10000, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := New(nil, manager, &recordedEvents{}, nil); err == nil {
		t.Error("expected error for nil market service")
	}
	if _, err := New(&stubSnapshots{}, nil, &recordedEvents{}, nil); err == nil {
		t.Error("expected error for nil manager")
	}
	if _, err := New(&stubSnapshots{}, manager, nil, nil); err == nil {
		t.Error("expected error for nil event recorder")
	}
}
