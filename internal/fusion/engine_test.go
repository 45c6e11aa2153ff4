package fusion

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/avolkov/signalfusion/internal/sentiment"
	"github.com/avolkov/signalfusion/models"
)

func generateSeries(n int, price func(i int) float64) []models.PricePoint {
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

func sentimentFixture(value float64) *sentiment.Aggregator {
	sources := []sentiment.Source{
		&sentiment.StaticSource{SourceName: sentiment.SourceNews, Result: sentiment.SourceResult{Sentiment: value}},
		&sentiment.StaticSource{SourceName: sentiment.SourceTwitter, Result: sentiment.SourceResult{Sentiment: value}},
		&sentiment.StaticSource{SourceName: sentiment.SourceReddit, Result: sentiment.SourceResult{Sentiment: value}},
		&sentiment.StaticSource{SourceName: sentiment.SourceTelegram, Result: sentiment.SourceResult{Sentiment: value}},
	}
	return sentiment.NewAggregator(sources, time.Second)
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	if sum := DefaultWeights.Sum(); math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("DefaultWeights.Sum() = %v, want 1", sum)
	}
}

func TestPredictFlatSeriesHoldsSideways(t *testing.T) {
	engine := NewEngine(sentimentFixture(0), DefaultWeights)
	points := generateSeries(30, func(i int) float64 { return 100 })

	result, err := engine.Predict(context.Background(), "BTC", points)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	if result.Prediction != models.ActionHold {
		t.Errorf("Prediction = %v, want HOLD", result.Prediction)
	}
	if result.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5 on all-neutral input", result.Confidence)
	}
	found := false
	for _, clause := range result.Reasoning {
		if strings.Contains(strings.ToLower(clause), "sideways") {
			found = true
		}
	}
	if !found {
		t.Errorf("reasoning %v does not cite sideways price action", result.Reasoning)
	}
}

func TestConfidenceBounds(t *testing.T) {
	tests := []struct {
		name      string
		sentiment float64
		price     func(i int) float64
	}{
		{"neutral flat", 0, func(i int) float64 { return 100 }},
		{"strong rally", 1, func(i int) float64 { return 100 * math.Pow(1.05, float64(i)) }},
		{"strong selloff", -1, func(i int) float64 { return 1000 * math.Pow(0.95, float64(i)) }},
		{"choppy", 0.3, func(i int) float64 { return 100 + float64(i%2)*30 }},
		{"tiny history", -0.7, func(i int) float64 { return 50 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(sentimentFixture(tt.sentiment), DefaultWeights)
			n := 40
			if tt.name == "tiny history" {
				n = 2
			}
			result, err := engine.Predict(context.Background(), "BTC", generateSeries(n, tt.price))
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if result.Confidence < 0.1 || result.Confidence > 0.95 {
				t.Errorf("Confidence %v outside [0.1, 0.95]", result.Confidence)
			}
		})
	}
}

func TestPredictRejectsNegativePrice(t *testing.T) {
	engine := NewEngine(sentimentFixture(0), DefaultWeights)
	points := generateSeries(10, func(i int) float64 { return 100 })
	points[4].Price = -5

	if _, err := engine.Predict(context.Background(), "BTC", points); err == nil {
		t.Fatal("Predict() accepted a negative price")
	}
	if _, err := engine.Predict(context.Background(), "BTC", nil); err == nil {
		t.Fatal("Predict() accepted an empty series")
	}
}

func TestGenerateSignalBuyTargets(t *testing.T) {
	// Strong uptrend with unanimous bullish sentiment, ending exactly
	// at 100 so the 5%/15% constants are directly visible.
	points := generateSeries(40, func(i int) float64 { return 60 + float64(i) })
	points[len(points)-1].Price = 100

	engine := NewEngine(sentimentFixture(0.9), DefaultWeights)
	signal, err := engine.GenerateSignal(context.Background(), "BTC", points)
	if err != nil {
		t.Fatalf("GenerateSignal() error = %v", err)
	}

	if signal.Action != models.ActionBuy {
		t.Fatalf("Action = %v, want BUY (reasoning: %v)", signal.Action, signal.Reasoning)
	}
	if math.Abs(signal.StopLoss-95.0) > 1e-9 {
		t.Errorf("StopLoss = %v, want 95.0", signal.StopLoss)
	}
	if math.Abs(signal.TakeProfit-115.0) > 1e-9 {
		t.Errorf("TakeProfit = %v, want 115.0", signal.TakeProfit)
	}
	if len(signal.Reasoning) == 0 {
		t.Error("expected a non-empty reasoning trail")
	}
}

func TestResolveAction(t *testing.T) {
	tests := []struct {
		name       string
		fused      float64
		technical  float64
		sentiment  float64
		prediction string
		action     string
	}{
		{"clear buy", 0.7, 0.8, 0.6, models.ActionBuy, models.ActionBuy},
		{"aligned moderate buy", 0.4, 0.5, 0.3, models.ActionBuy, models.ActionBuy},
		{"mixed moderate buy maps to swap", 0.4, 0.8, -0.2, models.ActionBuy, models.ActionSwap},
		{"clear sell", -0.7, -0.8, -0.5, models.ActionSell, models.ActionSell},
		{"mixed moderate sell maps to swap", -0.4, -0.8, 0.2, models.ActionSell, models.ActionSwap},
		{"neutral", 0.1, 0.2, 0.1, models.ActionHold, models.ActionHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prediction, action := resolveAction(tt.fused, tt.technical, tt.sentiment)
			if prediction != tt.prediction || action != tt.action {
				t.Errorf("resolveAction() = (%v, %v), want (%v, %v)", prediction, action, tt.prediction, tt.action)
			}
		})
	}
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		name       string
		volatility float64
		rsi        float64
		sentiment  float64
		want       string
	}{
		{"calm market", 0.1, 50, 0.5, models.RiskLow},
		{"elevated volatility with conviction", 0.4, 50, 0.6, models.RiskMedium},
		{"elevated volatility weak sentiment", 0.4, 50, 0.05, models.RiskHigh},
		{"high volatility", 0.6, 50, 0.8, models.RiskHigh},
		{"extreme rsi", 0.1, 85, 0.8, models.RiskHigh},
		{"deep oversold", 0.1, 15, 0.8, models.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := riskLevel(tt.volatility, tt.rsi, tt.sentiment); got != tt.want {
				t.Errorf("riskLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReasoningOrderIsDeterministic(t *testing.T) {
	points := generateSeries(40, func(i int) float64 { return 60 + float64(i) })
	engine := NewEngine(sentimentFixture(0.9), DefaultWeights)

	first, err := engine.Predict(context.Background(), "BTC", points)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	second, err := engine.Predict(context.Background(), "BTC", points)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	if len(first.Reasoning) != len(second.Reasoning) {
		t.Fatalf("reasoning length differs between runs: %v vs %v", first.Reasoning, second.Reasoning)
	}
	for i := range first.Reasoning {
		if first.Reasoning[i] != second.Reasoning[i] {
			t.Errorf("reasoning[%d] differs: %q vs %q", i, first.Reasoning[i], second.Reasoning[i])
		}
	}

	// The action clause always closes the trail.
	last := first.Reasoning[len(first.Reasoning)-1]
	if !strings.Contains(last, "fusion score") && !strings.Contains(last, "Fusion score") {
		t.Errorf("trail does not close with the action clause: %q", last)
	}
}

func TestPredictForecastHorizons(t *testing.T) {
	points := generateSeries(40, func(i int) float64 { return 60 + float64(i) })
	engine := NewEngine(sentimentFixture(0.9), DefaultWeights)

	result, err := engine.Predict(context.Background(), "BTC", points)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	for _, horizon := range []string{"1h", "4h", "24h", "7d"} {
		if _, ok := result.Forecast[horizon]; !ok {
			t.Errorf("missing forecast horizon %s", horizon)
		}
	}
	// Decay multipliers grow with the horizon, so a bullish forecast
	// must be monotonically increasing across horizons.
	if !(result.Forecast["1h"] < result.Forecast["4h"] &&
		result.Forecast["4h"] < result.Forecast["24h"] &&
		result.Forecast["24h"] < result.Forecast["7d"]) {
		t.Errorf("bullish forecast not monotonic: %v", result.Forecast)
	}
}
