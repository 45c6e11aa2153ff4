package sentiment

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

func uniformSources(value float64) []Source {
	names := []string{SourceNews, SourceTwitter, SourceReddit, SourceTelegram}
	sources := make([]Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, &StaticSource{
			SourceName: name,
			Result:     SourceResult{Sentiment: value, Mentions: 100},
		})
	}
	return sources
}

func TestWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, weight := range Weights() {
		sum += weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("source weights sum to %v, want 1", sum)
	}
}

func TestSnapshotConvexCombination(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"all bullish", 1, 1},
		{"all bearish", -1, -1},
		{"all neutral", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(uniformSources(tt.value), time.Second)
			snap := agg.Snapshot(context.Background(), "BTC")
			if math.Abs(snap.Overall-tt.want) > 1e-9 {
				t.Errorf("Overall = %v, want %v", snap.Overall, tt.want)
			}
		})
	}
}

func TestSnapshotFailedSourceContributesZero(t *testing.T) {
	sources := []Source{
		&StaticSource{SourceName: SourceNews, Result: SourceResult{Sentiment: 1}},
		&StaticSource{SourceName: SourceTwitter, Err: errors.New("rate limited")},
		&StaticSource{SourceName: SourceReddit, Err: errors.New("down")},
		&StaticSource{SourceName: SourceTelegram, Err: errors.New("down")},
	}
	agg := NewAggregator(sources, time.Second)
	snap := agg.Snapshot(context.Background(), "BTC")

	// Only news answered: 1 * 0.35, no renormalization.
	if math.Abs(snap.Overall-0.35) > 1e-9 {
		t.Errorf("Overall = %v, want 0.35 with failed sources at zero", snap.Overall)
	}
	if snap.Sources[SourceTwitter] != 0 {
		t.Errorf("failed source score = %v, want 0", snap.Sources[SourceTwitter])
	}
}

type panickySource struct{}

func (panickySource) Name() string { return SourceReddit }
func (panickySource) Fetch(ctx context.Context, symbol string) (*SourceResult, error) {
	panic("unexpected payload shape")
}

func TestSnapshotSurvivesPanickingSource(t *testing.T) {
	sources := []Source{
		&StaticSource{SourceName: SourceNews, Result: SourceResult{Sentiment: 0.5}},
		panickySource{},
	}
	agg := NewAggregator(sources, time.Second)
	snap := agg.Snapshot(context.Background(), "ETH")
	if math.Abs(snap.Overall-0.5*0.35) > 1e-9 {
		t.Errorf("Overall = %v, want panicking source treated as neutral", snap.Overall)
	}
}

type slowSource struct{ delay time.Duration }

func (s slowSource) Name() string { return SourceTelegram }
func (s slowSource) Fetch(ctx context.Context, symbol string) (*SourceResult, error) {
	select {
	case <-time.After(s.delay):
		return &SourceResult{Sentiment: 1}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSnapshotTimesOutSlowSource(t *testing.T) {
	sources := []Source{
		&StaticSource{SourceName: SourceNews, Result: SourceResult{Sentiment: 1}},
		slowSource{delay: 5 * time.Second},
	}
	agg := NewAggregator(sources, 20*time.Millisecond)

	start := time.Now()
	snap := agg.Snapshot(context.Background(), "BTC")
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("snapshot blocked on slow source for %v", elapsed)
	}
	if snap.Sources[SourceTelegram] != 0 {
		t.Errorf("timed-out source score = %v, want 0", snap.Sources[SourceTelegram])
	}
}

func TestSnapshotClampsSourceScores(t *testing.T) {
	sources := []Source{
		&StaticSource{SourceName: SourceNews, Result: SourceResult{Sentiment: 3.0}},
	}
	agg := NewAggregator(sources, time.Second)
	snap := agg.Snapshot(context.Background(), "BTC")
	if snap.Sources[SourceNews] != 1 {
		t.Errorf("out-of-range source score = %v, want clamped to 1", snap.Sources[SourceNews])
	}
}

func TestLabelCutpoints(t *testing.T) {
	tests := []struct {
		overall float64
		want    string
	}{
		{0.8, "Very Bullish"},
		{0.5, "Bullish"},
		{0.21, "Bullish"},
		{0.2, "Neutral"},
		{0, "Neutral"},
		{-0.2, "Bearish"},
		{-0.5, "Very Bearish"},
		{-0.9, "Very Bearish"},
	}
	for _, tt := range tests {
		if got := Label(tt.overall); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.overall, got, tt.want)
		}
	}
}

func TestExtractKeywords(t *testing.T) {
	texts := []string{
		"Bitcoin rally continues as bitcoin hits highs",
		"Rally fueled by institutional demand for bitcoin",
		"The and for with", // nothing extractable
	}
	got := ExtractKeywords(texts)
	want := []string{"bitcoin", "rally", "continues", "hits", "highs", "fueled", "institutional", "demand"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractKeywords() = %v, want %v", got, want)
	}
}

func TestExtractKeywordsLimit(t *testing.T) {
	texts := []string{"alpha bravo charlie delta echoes foxtrot golfing hotel india juliet kilos limas"}
	if got := ExtractKeywords(texts); len(got) > maxKeywords {
		t.Errorf("keyword list length %d exceeds cap %d", len(got), maxKeywords)
	}
}
