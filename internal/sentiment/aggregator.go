package sentiment

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avolkov/signalfusion/models"
)

// sourceWeights is the fixed convex combination used for the overall
// score. Must sum to 1; a missing or failed source keeps its weight
// and contributes 0, without renormalizing the rest.
var sourceWeights = map[string]float64{
	SourceNews:     0.35,
	SourceTwitter:  0.30,
	SourceReddit:   0.20,
	SourceTelegram: 0.15,
}

// trendingMentions is the combined mention count above which a symbol
// is flagged as trending.
const trendingMentions = 500

// defaultSourceTimeout bounds each source query.
const defaultSourceTimeout = 3 * time.Second

// Aggregator fuses per-source sentiment into one snapshot per symbol.
type Aggregator struct {
	sources []Source
	cache   *resultCache
	timeout time.Duration
	logger  zerolog.Logger
}

// NewAggregator creates an aggregator over the given sources. A
// non-positive timeout falls back to the default per-source timeout.
func NewAggregator(sources []Source, timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &Aggregator{
		sources: sources,
		cache:   newResultCache(cacheTTL),
		timeout: timeout,
		logger:  log.With().Str("component", "sentiment").Logger(),
	}
}

type fetchOutcome struct {
	name   string
	result SourceResult
	ok     bool
}

// Snapshot queries all sources concurrently and combines them with the
// fixed weights. A source that errors, panics or exceeds the timeout
// contributes 0 at its full weight and never blocks the others.
func (a *Aggregator) Snapshot(ctx context.Context, symbol string) *models.SentimentSnapshot {
	outcomes := make(chan fetchOutcome, len(a.sources))
	for _, src := range a.sources {
		go a.fetchOne(ctx, src, symbol, outcomes)
	}

	scores := make(map[string]float64, len(sourceWeights))
	for name := range sourceWeights {
		scores[name] = 0
	}

	var mentions int
	var texts []string
	for range a.sources {
		outcome := <-outcomes
		if !outcome.ok {
			continue
		}
		scores[outcome.name] = clamp(outcome.result.Sentiment, -1, 1)
		mentions += outcome.result.Mentions
		texts = append(texts, outcome.result.Texts...)
	}

	var overall float64
	for name, weight := range sourceWeights {
		overall += scores[name] * weight
	}

	return &models.SentimentSnapshot{
		Overall:   clamp(overall, -1, 1),
		Sources:   scores,
		Mentions:  mentions,
		Trending:  mentions >= trendingMentions,
		Keywords:  ExtractKeywords(texts),
		Timestamp: time.Now(),
	}
}

// fetchOne resolves a single source with the per-source timeout and
// the TTL cache. Failures degrade to a not-ok outcome.
func (a *Aggregator) fetchOne(ctx context.Context, src Source, symbol string, out chan<- fetchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Interface("panic", r).Str("source", src.Name()).Msg("Sentiment source panicked")
			out <- fetchOutcome{name: src.Name()}
		}
	}()

	key := src.Name() + ":" + symbol
	if cached, ok := a.cache.get(key); ok {
		out <- fetchOutcome{name: src.Name(), result: cached, ok: true}
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := src.Fetch(fetchCtx, symbol)
	if err != nil {
		a.logger.Warn().Err(err).Str("source", src.Name()).Str("symbol", symbol).Msg("Sentiment source unavailable, using neutral")
		out <- fetchOutcome{name: src.Name()}
		return
	}

	a.cache.set(key, *result)
	out <- fetchOutcome{name: src.Name(), result: *result, ok: true}
}

// Label maps an overall score to its human-readable label. The
// cutpoints are part of the contract shared with consumers.
func Label(overall float64) string {
	switch {
	case overall > 0.5:
		return "Very Bullish"
	case overall > 0.2:
		return "Bullish"
	case overall > -0.2:
		return "Neutral"
	case overall > -0.5:
		return "Bearish"
	default:
		return "Very Bearish"
	}
}

// Weights exposes a copy of the source weight table for tests and
// consumers that document the combination.
func Weights() map[string]float64 {
	weights := make(map[string]float64, len(sourceWeights))
	for name, weight := range sourceWeights {
		weights[name] = weight
	}
	return weights
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
