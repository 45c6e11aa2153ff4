package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/avolkov/signalfusion/internal/feed"
	"github.com/avolkov/signalfusion/internal/fusion"
	"github.com/avolkov/signalfusion/internal/portfolio"
	"github.com/avolkov/signalfusion/internal/sentiment"
	"github.com/avolkov/signalfusion/models"
)

func series(n int, price func(i int) float64) []models.PricePoint {
	points := make([]models.PricePoint, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		points[i] = models.PricePoint{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Price:     price(i),
			Volume:    1000,
		}
	}
	return points
}

func bullishAggregator() *sentiment.Aggregator {
	sources := []sentiment.Source{
		&sentiment.StaticSource{SourceName: sentiment.SourceNews, Result: sentiment.SourceResult{Sentiment: 0.9}},
		&sentiment.StaticSource{SourceName: sentiment.SourceTwitter, Result: sentiment.SourceResult{Sentiment: 0.9}},
		&sentiment.StaticSource{SourceName: sentiment.SourceReddit, Result: sentiment.SourceResult{Sentiment: 0.9}},
		&sentiment.StaticSource{SourceName: sentiment.SourceTelegram, Result: sentiment.SourceResult{Sentiment: 0.9}},
	}
	return sentiment.NewAggregator(sources, time.Second)
}

type memoryRecorder struct {
	mu      sync.Mutex
	signals []models.TradingSignal
	trades  []models.TradeExecution
}

func (r *memoryRecorder) RecordSignal(signal *models.TradingSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, *signal)
	return nil
}

func (r *memoryRecorder) RecordTrade(exec *models.TradeExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades = append(r.trades, *exec)
	return nil
}

func newTestOrchestrator(t *testing.T, enabled bool, recorder Recorder) *Orchestrator {
	t.Helper()

	priceFeed := &feed.StaticFeed{Series: map[string][]models.PricePoint{
		"BTC": series(40, func(i int) float64 { return 60 + float64(i) }),
		"ETH": series(30, func(i int) float64 { return 100 }),
	}}
	engine := fusion.NewEngine(bullishAggregator(), fusion.DefaultWeights)

	strategy := models.DefaultStrategy()
	strategy.MinConfidence = 0.5
	manager, err := portfolio.NewManager(10000, strategy)
	if err != nil {
		t.Fatal(err)
	}

	return New(priceFeed, engine, manager, Options{
		Symbols:  []string{"BTC", "ETH"},
		Interval: time.Hour,
		Enabled:  enabled,
		Recorder: recorder,
	})
}

func TestTickGeneratesSignalsForAllSymbols(t *testing.T) {
	o := newTestOrchestrator(t, false, nil)
	o.Tick(context.Background())

	recent := o.RecentSignals(0)
	if len(recent) != 2 {
		t.Fatalf("got %d signals, want 2", len(recent))
	}

	seen := map[string]bool{}
	for _, signal := range recent {
		seen[signal.Symbol] = true
	}
	if !seen["BTC"] || !seen["ETH"] {
		t.Errorf("missing symbols in history: %v", seen)
	}
}

func TestTickExecutesWhenEnabled(t *testing.T) {
	recorder := &memoryRecorder{}
	o := newTestOrchestrator(t, true, recorder)
	o.Tick(context.Background())

	snap := o.PortfolioSnapshot()
	if _, held := snap.Positions["BTC"]; !held {
		t.Error("expected a BTC position after a bullish tick")
	}
	if len(recorder.trades) == 0 {
		t.Error("expected journaled trades")
	}
	if len(recorder.signals) != 2 {
		t.Errorf("journaled %d signals, want 2", len(recorder.signals))
	}
}

func TestTickDisabledNeverExecutes(t *testing.T) {
	o := newTestOrchestrator(t, false, nil)
	o.Tick(context.Background())

	snap := o.PortfolioSnapshot()
	if len(snap.Positions) != 0 {
		t.Errorf("auto trading disabled but positions exist: %v", snap.Positions)
	}
	if len(snap.TradeHistory) != 0 {
		t.Errorf("auto trading disabled but trades recorded: %v", snap.TradeHistory)
	}
}

func TestRepeatTickRejectsOpenPosition(t *testing.T) {
	o := newTestOrchestrator(t, true, nil)
	o.Tick(context.Background())
	o.Tick(context.Background())

	snap := o.PortfolioSnapshot()
	buys := 0
	for _, exec := range snap.TradeHistory {
		if exec.Symbol == "BTC" && exec.Side == models.ActionBuy {
			buys++
		}
	}
	if buys != 1 {
		t.Errorf("BTC bought %d times across ticks, want 1 (open-position slot)", buys)
	}
}

func TestFeedFailureSkipsSymbol(t *testing.T) {
	priceFeed := &feed.StaticFeed{Series: map[string][]models.PricePoint{
		"BTC": series(30, func(i int) float64 { return 100 }),
	}}
	engine := fusion.NewEngine(bullishAggregator(), fusion.DefaultWeights)
	manager, err := portfolio.NewManager(10000, models.DefaultStrategy())
	if err != nil {
		t.Fatal(err)
	}

	o := New(priceFeed, engine, manager, Options{
		Symbols: []string{"BTC", "MISSING"},
		Enabled: false,
	})
	o.Tick(context.Background())

	recent := o.RecentSignals(0)
	if len(recent) != 1 || recent[0].Symbol != "BTC" {
		t.Errorf("expected only BTC to survive a feed failure, got %v", recent)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	o := newTestOrchestrator(t, false, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
