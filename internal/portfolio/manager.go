// Package portfolio holds position and cash state and turns accepted
// signals into sized, simulated executions. It is the only stateful
// component of the core; every admit-size-execute-update sequence runs
// under one lock so concurrent signal evaluations cannot interleave.
package portfolio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avolkov/signalfusion/models"
)

// Rejection reasons reported to the orchestrator. Rejections are
// values, not errors; they describe market or policy state.
const (
	ReasonNotActionable    = "signal action is not executable"
	ReasonDailyLimit       = "daily trade limit reached"
	ReasonActivePosition   = "already has an open position"
	ReasonLowConfidence    = "confidence below the configured minimum"
	ReasonPortfolioRisk    = "portfolio risk ceiling reached"
	ReasonZeroSize         = "position size resolves to zero"
	ReasonInsufficientCash = "insufficient cash"
	ReasonNoPosition       = "no position to sell"
)

// perPositionRiskFactor converts a position's share of portfolio value
// into its risk contribution.
const perPositionRiskFactor = 0.1

// defaultFeeRate is the simulated fill fee on notional value.
const defaultFeeRate = 0.001

// Result reports the outcome of evaluating one signal.
type Result struct {
	Executed  bool                   `json:"executed"`
	Reason    string                 `json:"reason,omitempty"`
	Execution *models.TradeExecution `json:"execution,omitempty"`
}

// Manager owns cash, positions and the trade journal for one session.
type Manager struct {
	mu          sync.Mutex
	cash        float64
	positions   map[string]*models.Position
	lastPrices  map[string]float64
	active      map[string]string // symbol -> open execution id
	history     []models.TradeExecution
	strategy    models.StrategyConfig
	realized    float64
	tradesToday int
	tradesDate  time.Time
	feeRate     float64
	now         func() time.Time
	logger      zerolog.Logger
}

// NewManager creates a manager over an initial cash balance.
func NewManager(initialCash float64, strategy models.StrategyConfig) (*Manager, error) {
	if initialCash < 0 {
		return nil, fmt.Errorf("initial cash must be non-negative, got %.2f", initialCash)
	}
	return &Manager{
		cash:       initialCash,
		positions:  make(map[string]*models.Position),
		lastPrices: make(map[string]float64),
		active:     make(map[string]string),
		strategy:   strategy,
		feeRate:    defaultFeeRate,
		now:        time.Now,
		logger:     log.With().Str("component", "portfolio").Logger(),
	}, nil
}

// UpdateStrategy merges a partial strategy override.
func (m *Manager) UpdateStrategy(update models.StrategyUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	update.Apply(&m.strategy)
}

// Strategy returns a copy of the current strategy.
func (m *Manager) Strategy() models.StrategyConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strategy
}

// UpdatePrice records the latest observed price for a symbol and
// refreshes valuation so snapshots stay consistent between trades.
func (m *Manager) UpdatePrice(symbol string, price float64) error {
	if price < 0 {
		return fmt.Errorf("negative price %.4f for %s", price, symbol)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPrices[symbol] = price
	m.revalue()
	return nil
}

// Evaluate admits, sizes and executes one signal as a single atomic
// unit. The admission checks run in a fixed order and the first
// failing check rejects.
func (m *Manager) Evaluate(signal *models.TradingSignal) (*Result, error) {
	if signal == nil {
		return nil, fmt.Errorf("nil signal")
	}
	if signal.Price < 0 {
		return nil, fmt.Errorf("negative signal price %.4f for %s", signal.Price, signal.Symbol)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if signal.Action != models.ActionBuy && signal.Action != models.ActionSell {
		return m.reject(signal, ReasonNotActionable), nil
	}

	m.rollTradingDay()

	if m.tradesToday >= m.strategy.MaxDailyTrades {
		return m.reject(signal, ReasonDailyLimit), nil
	}
	if _, open := m.active[signal.Symbol]; open {
		return m.reject(signal, ReasonActivePosition), nil
	}
	if signal.Confidence < m.strategy.MinConfidence {
		return m.reject(signal, ReasonLowConfidence), nil
	}
	if m.portfolioRisk() >= m.strategy.MaxPortfolioRisk {
		return m.reject(signal, ReasonPortfolioRisk), nil
	}

	m.lastPrices[signal.Symbol] = signal.Price
	m.revalue()
	amount := m.positionSize(signal)
	if amount <= 0 {
		return m.reject(signal, ReasonZeroSize), nil
	}

	var execution *models.TradeExecution
	var reason string
	switch signal.Action {
	case models.ActionBuy:
		execution, reason = m.executeBuy(signal, amount)
	case models.ActionSell:
		execution, reason = m.executeSell(signal, amount)
	}
	if execution == nil {
		return m.reject(signal, reason), nil
	}

	m.tradesToday++
	m.history = append(m.history, *execution)
	if execution.Side == models.ActionBuy {
		m.active[signal.Symbol] = execution.ID
	} else if _, stillHeld := m.positions[signal.Symbol]; !stillHeld {
		delete(m.active, signal.Symbol)
	}
	m.revalue()

	m.logger.Info().
		Str("symbol", signal.Symbol).
		Str("side", execution.Side).
		Float64("amount", execution.Amount).
		Float64("price", execution.Price).
		Msg("Trade executed")

	return &Result{Executed: true, Execution: execution}, nil
}

// ClosePosition releases the open-execution slot for a symbol, e.g.
// after a stop-loss or take-profit exit handled by the orchestrator.
func (m *Manager) ClosePosition(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, symbol)
}

// Snapshot returns a deep copy of the portfolio, never live state.
func (m *Manager) Snapshot() models.Portfolio {
	m.mu.Lock()
	defer m.mu.Unlock()

	positions := make(map[string]models.Position, len(m.positions))
	for symbol, pos := range m.positions {
		positions[symbol] = *pos
	}
	history := make([]models.TradeExecution, len(m.history))
	copy(history, m.history)

	return models.Portfolio{
		Cash:         m.cash,
		TotalValue:   m.totalValue(),
		Positions:    positions,
		TradeHistory: history,
		RealizedPnL:  m.realized,
		TradesToday:  m.tradesToday,
	}
}

// positionSize applies the sizing formula:
// totalValue x maxPositionSize / price x confidence x riskMultiplier.
func (m *Manager) positionSize(signal *models.TradingSignal) float64 {
	if signal.Price <= 0 {
		return 0
	}
	base := m.totalValue() * m.strategy.MaxPositionSize / signal.Price
	return base * signal.Confidence * m.strategy.RiskMultiplier()
}

func (m *Manager) executeBuy(signal *models.TradingSignal, amount float64) (*models.TradeExecution, string) {
	price := signal.Price
	maxAffordable := m.cash / (price * (1 + m.feeRate))
	if amount > maxAffordable {
		amount = maxAffordable
	}
	if amount <= 0 {
		return nil, ReasonInsufficientCash
	}

	cost := amount * price
	fee := cost * m.feeRate
	m.cash -= cost + fee

	pos, ok := m.positions[signal.Symbol]
	if !ok {
		pos = &models.Position{Symbol: signal.Symbol}
		m.positions[signal.Symbol] = pos
	}
	// Weighted-average cost basis across the merged position.
	totalAmount := pos.Amount + amount
	pos.AveragePrice = (pos.Amount*pos.AveragePrice + amount*price) / totalAmount
	pos.Amount = totalAmount

	return m.fill(signal.Symbol, models.ActionBuy, amount, price, fee), ""
}

func (m *Manager) executeSell(signal *models.TradingSignal, amount float64) (*models.TradeExecution, string) {
	pos, ok := m.positions[signal.Symbol]
	if !ok || pos.Amount <= 0 {
		return nil, ReasonNoPosition
	}
	if amount > pos.Amount {
		amount = pos.Amount
	}

	price := signal.Price
	proceeds := amount * price
	fee := proceeds * m.feeRate
	m.cash += proceeds - fee
	m.realized += (price-pos.AveragePrice)*amount - fee

	pos.Amount -= amount
	if pos.Amount <= 1e-12 {
		delete(m.positions, signal.Symbol)
	}

	return m.fill(signal.Symbol, models.ActionSell, amount, price, fee), ""
}

func (m *Manager) fill(symbol, side string, amount, price, fee float64) *models.TradeExecution {
	return &models.TradeExecution{
		ID:        uuid.New().String(),
		Symbol:    symbol,
		Side:      side,
		Amount:    amount,
		Price:     price,
		Status:    models.StatusFilled,
		Fees:      fee,
		Timestamp: m.now(),
	}
}

func (m *Manager) reject(signal *models.TradingSignal, reason string) *Result {
	m.logger.Debug().
		Str("symbol", signal.Symbol).
		Str("action", signal.Action).
		Str("reason", reason).
		Msg("Signal rejected")
	return &Result{Reason: reason}
}

// portfolioRisk is the aggregate exposure: each position contributes
// its share of total value scaled by the per-position risk factor.
func (m *Manager) portfolioRisk() float64 {
	total := m.totalValue()
	if total <= 0 {
		return 0
	}

	var risk float64
	for _, pos := range m.positions {
		risk += pos.CurrentValue / total * perPositionRiskFactor
	}
	return risk
}

func (m *Manager) totalValue() float64 {
	value := m.cash
	for _, pos := range m.positions {
		value += pos.CurrentValue
	}
	return value
}

// revalue recomputes per-position value and unrealized P&L from the
// latest known prices. Callers hold the lock.
func (m *Manager) revalue() {
	for symbol, pos := range m.positions {
		price, ok := m.lastPrices[symbol]
		if !ok {
			price = pos.AveragePrice
		}
		pos.CurrentValue = pos.Amount * price
		pos.UnrealizedPnL = (price - pos.AveragePrice) * pos.Amount
		basis := pos.AveragePrice * pos.Amount
		if basis == 0 {
			pos.UnrealizedPnLPct = 0
		} else {
			pos.UnrealizedPnLPct = pos.UnrealizedPnL / basis * 100
		}
		if math.IsNaN(pos.UnrealizedPnLPct) || math.IsInf(pos.UnrealizedPnLPct, 0) {
			pos.UnrealizedPnLPct = 0
		}
	}
}

// rollTradingDay resets the daily counter across date boundaries.
// Callers hold the lock.
func (m *Manager) rollTradingDay() {
	today := m.now().Truncate(24 * time.Hour)
	if !today.Equal(m.tradesDate) {
		m.tradesDate = today
		m.tradesToday = 0
	}
}
