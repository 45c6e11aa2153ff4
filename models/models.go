package models

import (
	"time"
)

// Trading actions
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
	ActionSwap = "SWAP"
)

// Risk levels
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Trade execution statuses
const (
	StatusPending   = "PENDING"
	StatusFilled    = "FILLED"
	StatusCancelled = "CANCELLED"
	StatusFailed    = "FAILED"
)

// PricePoint is a single sample of a price series, oldest first.
// High/Low default to Price when the feed supplies close prices only.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	High      float64   `json:"high,omitempty"`
	Low       float64   `json:"low,omitempty"`
	Volume    float64   `json:"volume,omitempty"`
}

// MACDResult holds the MACD line, its signal line and the histogram.
type MACDResult struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerBands is the SMA envelope at k standard deviations.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// MovingAverages groups the simple and exponential averages the
// fusion engine scores against.
type MovingAverages struct {
	SMA20  float64 `json:"sma20"`
	SMA50  float64 `json:"sma50"`
	SMA200 float64 `json:"sma200,omitempty"`
	EMA12  float64 `json:"ema12"`
	EMA26  float64 `json:"ema26"`
}

// StochasticResult holds %K and the smoothed %D line.
type StochasticResult struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// TechnicalIndicators holds all indicators computed over one price series.
// Recomputed on every call, never persisted.
type TechnicalIndicators struct {
	RSI            float64          `json:"rsi"`
	MACD           MACDResult       `json:"macd"`
	Bollinger      BollingerBands   `json:"bollinger_bands"`
	MovingAverages MovingAverages   `json:"moving_averages"`
	Stochastic     StochasticResult `json:"stochastic"`
	VolumeChange   float64          `json:"volume_change_pct"`
	Volatility     float64          `json:"volatility"`
}

// SentimentSnapshot is the aggregated sentiment for one symbol.
// Overall is a fixed convex combination of Sources; a source that
// failed contributes 0 at its full weight.
type SentimentSnapshot struct {
	Overall   float64            `json:"overall"`
	Sources   map[string]float64 `json:"sources"`
	Mentions  int                `json:"mentions"`
	Trending  bool               `json:"trending"`
	Keywords  []string           `json:"keywords"`
	Timestamp time.Time          `json:"timestamp"`
}

// PredictionResult is the fusion engine output before risk framing.
type PredictionResult struct {
	Symbol         string             `json:"symbol"`
	Prediction     string             `json:"prediction"` // BUY, SELL, HOLD
	Confidence     float64            `json:"confidence"` // [0.1, 0.95]
	TargetPrice    float64            `json:"target_price"`
	Timeframe      string             `json:"timeframe"`
	Forecast       map[string]float64 `json:"forecast"` // horizon -> projected price
	Reasoning      []string           `json:"reasoning"`
	RiskLevel      string             `json:"risk_level"`
	ExpectedReturn float64            `json:"expected_return_pct"`
	StopLoss       float64            `json:"stop_loss"`
	TakeProfit     float64            `json:"take_profit"`
}

// TradingSignal is a fully framed, immutable decision for one symbol.
type TradingSignal struct {
	Symbol         string               `json:"symbol"`
	Action         string               `json:"action"`
	Confidence     float64              `json:"confidence"`
	Price          float64              `json:"price"`
	TargetPrice    float64              `json:"target_price,omitempty"`
	StopLoss       float64              `json:"stop_loss,omitempty"`
	TakeProfit     float64              `json:"take_profit,omitempty"`
	Reasoning      []string             `json:"reasoning"`
	Indicators     *TechnicalIndicators `json:"technical_indicators,omitempty"`
	SentimentScore float64              `json:"sentiment_score"`
	RiskLevel      string               `json:"risk_level"`
	Timestamp      time.Time            `json:"timestamp"`
}

// Position is a held amount of one asset with its average cost basis.
type Position struct {
	Symbol           string  `json:"symbol"`
	Amount           float64 `json:"amount"`
	AveragePrice     float64 `json:"average_price"`
	CurrentValue     float64 `json:"current_value"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	UnrealizedPnLPct float64 `json:"unrealized_pnl_pct"`
}

// TradeExecution is one simulated fill, immutable once recorded.
type TradeExecution struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"` // BUY or SELL
	Amount    float64   `json:"amount"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"`
	Fees      float64   `json:"fees"`
	Timestamp time.Time `json:"timestamp"`
}

// Portfolio is a read-only snapshot of portfolio state.
type Portfolio struct {
	Cash         float64             `json:"cash"`
	TotalValue   float64             `json:"total_value"`
	Positions    map[string]Position `json:"positions"`
	TradeHistory []TradeExecution    `json:"trade_history"`
	RealizedPnL  float64             `json:"realized_pnl"`
	TradesToday  int                 `json:"trades_today"`
}

// StrategyConfig controls signal admission and position sizing.
type StrategyConfig struct {
	RiskTolerance    string   `json:"risk_tolerance"` // LOW, MEDIUM, HIGH
	MaxPositionSize  float64  `json:"max_position_size"`
	StopLossPct      float64  `json:"stop_loss_pct"`
	TakeProfitPct    float64  `json:"take_profit_pct"`
	MinConfidence    float64  `json:"min_confidence"`
	MaxDailyTrades   int      `json:"max_daily_trades"`
	MaxPortfolioRisk float64  `json:"max_portfolio_risk"`
	Symbols          []string `json:"symbols"`
	Enabled          bool     `json:"enabled"`
}

// DefaultStrategy returns the strategy used when nothing is configured.
func DefaultStrategy() StrategyConfig {
	return StrategyConfig{
		RiskTolerance:    RiskMedium,
		MaxPositionSize:  0.1,
		StopLossPct:      0.05,
		TakeProfitPct:    0.15,
		MinConfidence:    0.6,
		MaxDailyTrades:   10,
		MaxPortfolioRisk: 0.5,
		Symbols:          []string{"BTC", "ETH"},
		Enabled:          true,
	}
}

// RiskMultiplier scales position size by risk tolerance.
func (s StrategyConfig) RiskMultiplier() float64 {
	switch s.RiskTolerance {
	case RiskLow:
		return 0.5
	case RiskHigh:
		return 1.0
	default:
		return 0.75
	}
}

// StrategyUpdate is a partial strategy override; nil fields keep the
// current value.
type StrategyUpdate struct {
	RiskTolerance    *string   `json:"risk_tolerance,omitempty"`
	MaxPositionSize  *float64  `json:"max_position_size,omitempty"`
	StopLossPct      *float64  `json:"stop_loss_pct,omitempty"`
	TakeProfitPct    *float64  `json:"take_profit_pct,omitempty"`
	MinConfidence    *float64  `json:"min_confidence,omitempty"`
	MaxDailyTrades   *int      `json:"max_daily_trades,omitempty"`
	MaxPortfolioRisk *float64  `json:"max_portfolio_risk,omitempty"`
	Symbols          *[]string `json:"symbols,omitempty"`
	Enabled          *bool     `json:"enabled,omitempty"`
}

// Apply merges the update into cfg.
func (u StrategyUpdate) Apply(cfg *StrategyConfig) {
	if u.RiskTolerance != nil {
		cfg.RiskTolerance = *u.RiskTolerance
	}
	if u.MaxPositionSize != nil {
		cfg.MaxPositionSize = *u.MaxPositionSize
	}
	if u.StopLossPct != nil {
		cfg.StopLossPct = *u.StopLossPct
	}
	if u.TakeProfitPct != nil {
		cfg.TakeProfitPct = *u.TakeProfitPct
	}
	if u.MinConfidence != nil {
		cfg.MinConfidence = *u.MinConfidence
	}
	if u.MaxDailyTrades != nil {
		cfg.MaxDailyTrades = *u.MaxDailyTrades
	}
	if u.MaxPortfolioRisk != nil {
		cfg.MaxPortfolioRisk = *u.MaxPortfolioRisk
	}
	if u.Symbols != nil {
		cfg.Symbols = *u.Symbols
	}
	if u.Enabled != nil {
		cfg.Enabled = *u.Enabled
	}
}
