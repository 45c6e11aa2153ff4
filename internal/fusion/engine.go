package fusion

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avolkov/signalfusion/internal/indicators"
	"github.com/avolkov/signalfusion/internal/sentiment"
	"github.com/avolkov/signalfusion/models"
)

// Engine fuses technical, sentiment, price-action and market-structure
// factors into one directional prediction per symbol per call. It is
// stateless between calls and safe for concurrent use across symbols.
type Engine struct {
	sentiment *sentiment.Aggregator
	weights   Weights
	logger    zerolog.Logger
}

// NewEngine creates a fusion engine over the given aggregator.
func NewEngine(agg *sentiment.Aggregator, weights Weights) *Engine {
	return &Engine{
		sentiment: agg,
		weights:   weights,
		logger:    log.With().Str("component", "fusion").Logger(),
	}
}

// evaluation carries every intermediate score of one pipeline pass.
type evaluation struct {
	price       float64
	ind         *models.TechnicalIndicators
	snap        *models.SentimentSnapshot
	technical   float64
	alignment   float64
	priceAction float64
	structure   float64
	fused       float64
	prediction  string
	action      string
	confidence  float64
	risk        string
	reasoning   []string
}

// Predict runs the scoring pipeline for one symbol. Contract
// violations (empty history, negative price) return an error; any
// unexpected fault inside the pipeline degrades to the neutral HOLD
// result instead of failing the caller's batch.
func (e *Engine) Predict(ctx context.Context, symbol string, points []models.PricePoint) (result *models.PredictionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Str("symbol", symbol).Msg("Fusion pipeline fault, returning neutral prediction")
			result = neutralPrediction(symbol)
			err = nil
		}
	}()

	ev, err := e.evaluate(ctx, symbol, points)
	if err != nil {
		return nil, err
	}

	forecast := make(map[string]float64, len(forecastHorizons))
	for _, h := range forecastHorizons {
		forecast[h.Horizon] = ev.price * (1 + ev.fused*ev.confidence*h.Decay)
	}

	stop, take, target := priceTargets(ev.prediction, ev.price, ev.ind)
	expected := 0.0
	if ev.price > 0 && ev.prediction != models.ActionHold {
		expected = (take - ev.price) / ev.price * 100
	}

	return &models.PredictionResult{
		Symbol:         symbol,
		Prediction:     ev.prediction,
		Confidence:     ev.confidence,
		TargetPrice:    target,
		Timeframe:      "24h",
		Forecast:       forecast,
		Reasoning:      ev.reasoning,
		RiskLevel:      ev.risk,
		ExpectedReturn: expected,
		StopLoss:       stop,
		TakeProfit:     take,
	}, nil
}

// GenerateSignal frames a prediction as an immutable trading signal,
// distinguishing SWAP in the mixed zone where technical and sentiment
// factors disagree.
func (e *Engine) GenerateSignal(ctx context.Context, symbol string, points []models.PricePoint) (signal *models.TradingSignal, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Str("symbol", symbol).Msg("Signal generation fault, returning neutral signal")
			p := neutralPrediction(symbol)
			signal = &models.TradingSignal{
				Symbol:     symbol,
				Action:     models.ActionHold,
				Confidence: p.Confidence,
				Reasoning:  p.Reasoning,
				RiskLevel:  p.RiskLevel,
				Timestamp:  time.Now(),
			}
			err = nil
		}
	}()

	ev, err := e.evaluate(ctx, symbol, points)
	if err != nil {
		return nil, err
	}

	stop, take, target := priceTargets(ev.prediction, ev.price, ev.ind)
	reasoning := ev.reasoning
	if ev.action == models.ActionSwap {
		reasoning = append(reasoning[:len(reasoning)-1],
			fmt.Sprintf("Conflicting technical and sentiment factors at score %.2f, rebalance rather than add exposure", ev.fused))
	}

	return &models.TradingSignal{
		Symbol:         symbol,
		Action:         ev.action,
		Confidence:     ev.confidence,
		Price:          ev.price,
		TargetPrice:    target,
		StopLoss:       stop,
		TakeProfit:     take,
		Reasoning:      reasoning,
		Indicators:     ev.ind,
		SentimentScore: ev.snap.Overall,
		RiskLevel:      ev.risk,
		Timestamp:      time.Now(),
	}, nil
}

// evaluate is the single scoring pass shared by Predict and
// GenerateSignal. It never recovers; the exported methods do.
func (e *Engine) evaluate(ctx context.Context, symbol string, points []models.PricePoint) (*evaluation, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("empty price history for %s", symbol)
	}
	for i, p := range points {
		if p.Price < 0 {
			return nil, fmt.Errorf("negative price %.4f at index %d for %s", p.Price, i, symbol)
		}
	}

	ev := &evaluation{
		price: points[len(points)-1].Price,
		ind:   indicators.Compute(points),
		snap:  e.sentiment.Snapshot(ctx, symbol),
	}

	var technicalClauses []string
	ev.technical, ev.alignment, technicalClauses = technicalScore(ev.ind, ev.price)

	var priceClause, structureClause string
	ev.priceAction, priceClause = priceActionScore(points)
	ev.structure, structureClause = marketStructureScore(points)

	ev.fused = ev.technical*e.weights.Technical +
		ev.snap.Overall*e.weights.Sentiment +
		ev.priceAction*e.weights.PriceAction +
		ev.structure*e.weights.MarketStructure

	ev.prediction, ev.action = resolveAction(ev.fused, ev.technical, ev.snap.Overall)
	ev.confidence = clampConfidence(confidenceBase +
		alignmentFactor*ev.alignment +
		sentimentFactor*math.Abs(ev.snap.Overall) +
		magnitudeFactor*math.Abs(ev.fused))
	ev.risk = riskLevel(ev.ind.Volatility, ev.ind.RSI, ev.snap.Overall)

	// Deterministic order: technical, sentiment, price action, market
	// structure, closing action clause.
	ev.reasoning = append(ev.reasoning, technicalClauses...)
	if clause := sentimentClause(ev.snap); clause != "" {
		ev.reasoning = append(ev.reasoning, clause)
	}
	if priceClause != "" {
		ev.reasoning = append(ev.reasoning, priceClause)
	}
	if structureClause != "" {
		ev.reasoning = append(ev.reasoning, structureClause)
	}
	ev.reasoning = append(ev.reasoning, actionClause(ev.prediction, ev.fused))

	return ev, nil
}

// technicalScore votes each sub-signal in [-1, 1] and averages over
// the fixed five sub-signals. alignment is the fraction of sub-signals
// agreeing with the dominant direction.
func technicalScore(ind *models.TechnicalIndicators, price float64) (float64, float64, []string) {
	const subSignals = 5.0

	var bull, bear float64
	var clauses []string

	if ind.RSI < 30 {
		bull++
		clauses = append(clauses, fmt.Sprintf("RSI oversold at %.1f", ind.RSI))
	} else if ind.RSI > 70 {
		bear++
		clauses = append(clauses, fmt.Sprintf("RSI overbought at %.1f", ind.RSI))
	}

	if ind.MACD.Histogram > 0 {
		bull++
		clauses = append(clauses, "MACD histogram positive, momentum building")
	} else if ind.MACD.Histogram < 0 {
		bear++
		clauses = append(clauses, "MACD histogram negative, momentum fading")
	}

	if price > ind.MovingAverages.SMA20 {
		bull++
		clauses = append(clauses, "Price above the 20-period average")
	} else if price < ind.MovingAverages.SMA20 {
		bear++
		clauses = append(clauses, "Price below the 20-period average")
	}

	if price < ind.Bollinger.Lower {
		bull++
		clauses = append(clauses, "Price below the lower Bollinger band")
	} else if price > ind.Bollinger.Upper {
		bear++
		clauses = append(clauses, "Price above the upper Bollinger band")
	}

	if ind.Stochastic.K < 20 && ind.Stochastic.K > ind.Stochastic.D {
		bull++
		clauses = append(clauses, fmt.Sprintf("Stochastic turning up from oversold (%.1f)", ind.Stochastic.K))
	} else if ind.Stochastic.K > 80 && ind.Stochastic.K < ind.Stochastic.D {
		bear++
		clauses = append(clauses, fmt.Sprintf("Stochastic turning down from overbought (%.1f)", ind.Stochastic.K))
	}

	score := (bull - bear) / subSignals
	alignment := math.Max(bull, bear) / subSignals
	return score, alignment, clauses
}

// priceActionScore compares the trailing 7-sample mean against the
// prior 7 samples. A 5% move saturates the score.
func priceActionScore(points []models.PricePoint) (float64, string) {
	const window = 7
	if len(points) < 2*window {
		return 0, "Price action sideways, not enough history for a trend read"
	}

	var recent, prior float64
	for i := len(points) - window; i < len(points); i++ {
		recent += points[i].Price
	}
	for i := len(points) - 2*window; i < len(points)-window; i++ {
		prior += points[i].Price
	}
	recent /= window
	prior /= window

	if prior == 0 {
		return 0, "Price action sideways, no prior baseline"
	}

	pct := (recent - prior) / prior
	score := clampScore(pct / 0.05)

	switch {
	case pct > 0.005:
		return score, fmt.Sprintf("7-period trend rising %.1f%%", pct*100)
	case pct < -0.005:
		return score, fmt.Sprintf("7-period trend falling %.1f%%", -pct*100)
	default:
		return score, "Price action sideways over the last 7 periods"
	}
}

// marketStructureScore biases mildly bearish near the top of the
// trailing 20-sample range and mildly bullish near the bottom.
func marketStructureScore(points []models.PricePoint) (float64, string) {
	const window = 20
	start := len(points) - window
	if start < 0 {
		start = 0
	}

	lowest := math.Inf(1)
	highest := math.Inf(-1)
	for i := start; i < len(points); i++ {
		highest = math.Max(highest, points[i].Price)
		lowest = math.Min(lowest, points[i].Price)
	}
	if highest == lowest {
		return 0, ""
	}

	pos := (points[len(points)-1].Price - lowest) / (highest - lowest)
	switch {
	case pos >= 0.8:
		return -0.5 * (pos - 0.8) / 0.2, "Price near the top of the 20-period range, resistance overhead"
	case pos <= 0.2:
		return 0.5 * (0.2 - pos) / 0.2, "Price near the bottom of the 20-period range, support below"
	default:
		return 0, ""
	}
}

// resolveAction maps the fused score to the pure direction and to the
// signal action, which distinguishes SWAP in the mixed zone.
func resolveAction(fused, technical, sentimentScore float64) (string, string) {
	mixed := technical*sentimentScore < 0

	switch {
	case fused > buyThreshold:
		if fused < clearThreshold && mixed {
			return models.ActionBuy, models.ActionSwap
		}
		return models.ActionBuy, models.ActionBuy
	case fused < sellThreshold:
		if fused > -clearThreshold && mixed {
			return models.ActionSell, models.ActionSwap
		}
		return models.ActionSell, models.ActionSell
	default:
		return models.ActionHold, models.ActionHold
	}
}

// riskLevel classifies per volatility and RSI extremes; a weak
// sentiment reading raises an already elevated level one notch.
func riskLevel(volatility, rsi, sentimentScore float64) string {
	level := models.RiskLow
	if volatility > 0.3 || rsi < 30 || rsi > 70 {
		level = models.RiskMedium
	}
	if volatility > 0.5 || rsi < 20 || rsi > 80 {
		level = models.RiskHigh
	}
	if level == models.RiskMedium && math.Abs(sentimentScore) < 0.2 {
		level = models.RiskHigh
	}
	return level
}

// priceTargets frames stop-loss, take-profit and the volatility-scaled
// Bollinger target for the given direction.
func priceTargets(prediction string, price float64, ind *models.TechnicalIndicators) (stop, take, target float64) {
	switch prediction {
	case models.ActionBuy:
		stop = price * longStopPct
		take = price * longTakePct
		target = ind.Bollinger.Upper * (1 + ind.Volatility)
	case models.ActionSell:
		stop = price * shortStopPct
		take = price * shortTakePct
		target = ind.Bollinger.Lower * (1 - ind.Volatility)
	default:
		target = price
	}
	return stop, take, target
}

func sentimentClause(snap *models.SentimentSnapshot) string {
	if math.Abs(snap.Overall) < 0.2 {
		if snap.Trending {
			return "Elevated social volume with neutral sentiment"
		}
		return ""
	}
	clause := fmt.Sprintf("%s sentiment across sources (%.2f)", sentiment.Label(snap.Overall), snap.Overall)
	if snap.Trending {
		clause += ", symbol is trending"
	}
	return clause
}

func actionClause(prediction string, fused float64) string {
	switch prediction {
	case models.ActionBuy:
		return fmt.Sprintf("Bullish fusion score %.2f favors entry", fused)
	case models.ActionSell:
		return fmt.Sprintf("Bearish fusion score %.2f favors exit", fused)
	default:
		return fmt.Sprintf("Fusion score %.2f inside the neutral band, holding", fused)
	}
}

// neutralPrediction is the degraded default used when the pipeline
// faults: HOLD at confidence 0.5, never an error to the caller.
func neutralPrediction(symbol string) *models.PredictionResult {
	return &models.PredictionResult{
		Symbol:     symbol,
		Prediction: models.ActionHold,
		Confidence: 0.5,
		Timeframe:  "24h",
		Reasoning:  []string{"Prediction degraded by an internal computation fault, defaulting to HOLD"},
		RiskLevel:  models.RiskMedium,
	}
}

func clampConfidence(v float64) float64 {
	if v < confidenceMin {
		return confidenceMin
	}
	if v > confidenceMax {
		return confidenceMax
	}
	return v
}

func clampScore(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
