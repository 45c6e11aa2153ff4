// Package orchestrator runs the auto-trading loop: per-symbol signal
// generation in parallel, serialized portfolio evaluation, bounded
// history, optional journaling and notification.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avolkov/signalfusion/internal/feed"
	"github.com/avolkov/signalfusion/internal/fusion"
	"github.com/avolkov/signalfusion/internal/history"
	"github.com/avolkov/signalfusion/internal/portfolio"
	"github.com/avolkov/signalfusion/models"
)

// Recorder journals signals and trades. Implementations must tolerate
// being called from the tick loop; errors are logged, never fatal.
type Recorder interface {
	RecordSignal(signal *models.TradingSignal) error
	RecordTrade(exec *models.TradeExecution) error
}

// TradeNotifier pushes executed trades to an external channel.
type TradeNotifier interface {
	TradeExecuted(exec *models.TradeExecution, signal *models.TradingSignal)
}

// Options wires the optional collaborators and the loop settings.
type Options struct {
	Symbols  []string
	Interval time.Duration
	Enabled  bool
	Recorder Recorder
	Notifier TradeNotifier
}

// exitLevels tracks the stop/take frame of an open execution.
type exitLevels struct {
	stop float64
	take float64
	side string
}

// Orchestrator coordinates one trading session.
type Orchestrator struct {
	feed      feed.PriceFeed
	engine    *fusion.Engine
	portfolio *portfolio.Manager
	signals   *history.Ring
	opts      Options
	exits     map[string]exitLevels
	logger    zerolog.Logger
}

// New creates an orchestrator. Recorder and Notifier may be nil.
func New(priceFeed feed.PriceFeed, engine *fusion.Engine, manager *portfolio.Manager, opts Options) *Orchestrator {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	return &Orchestrator{
		feed:      priceFeed,
		engine:    engine,
		portfolio: manager,
		signals:   history.New(history.DefaultCapacity),
		opts:      opts,
		exits:     make(map[string]exitLevels),
		logger:    log.With().Str("component", "orchestrator").Logger(),
	}
}

// Run executes ticks at the configured interval until the context is
// cancelled. Ticks never overlap: each runs to completion before the
// next interval is observed.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info().
		Strs("symbols", o.opts.Symbols).
		Dur("interval", o.opts.Interval).
		Bool("enabled", o.opts.Enabled).
		Msg("Trading loop started")

	ticker := time.NewTicker(o.opts.Interval)
	defer ticker.Stop()

	o.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			o.logger.Info().Msg("Trading loop stopped")
			return ctx.Err()
		case <-ticker.C:
			o.Tick(ctx)
		}
	}
}

// Tick evaluates every configured symbol once. Signal generation runs
// in parallel; portfolio evaluation is serialized by the manager.
func (o *Orchestrator) Tick(ctx context.Context) {
	type outcome struct {
		symbol string
		signal *models.TradingSignal
	}

	outcomes := make(chan outcome, len(o.opts.Symbols))
	var wg sync.WaitGroup
	for _, symbol := range o.opts.Symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			signal, err := o.generateForSymbol(ctx, symbol)
			if err != nil {
				o.logger.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol this tick")
				return
			}
			outcomes <- outcome{symbol: symbol, signal: signal}
		}(symbol)
	}
	wg.Wait()
	close(outcomes)

	for out := range outcomes {
		o.process(out.signal)
	}
}

func (o *Orchestrator) generateForSymbol(ctx context.Context, symbol string) (*models.TradingSignal, error) {
	points, err := o.feed.History(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return o.engine.GenerateSignal(ctx, symbol, points)
}

// process applies one signal: history, valuation, exit checks, then
// (when auto trading is enabled) admission and execution.
func (o *Orchestrator) process(signal *models.TradingSignal) {
	o.signals.Add(*signal)
	if err := o.portfolio.UpdatePrice(signal.Symbol, signal.Price); err != nil {
		o.logger.Warn().Err(err).Str("symbol", signal.Symbol).Msg("Price update rejected")
		return
	}
	o.checkExits(signal.Symbol, signal.Price)

	if o.opts.Recorder != nil {
		if err := o.opts.Recorder.RecordSignal(signal); err != nil {
			o.logger.Warn().Err(err).Str("symbol", signal.Symbol).Msg("Failed to journal signal")
		}
	}

	if !o.opts.Enabled {
		return
	}

	result, err := o.portfolio.Evaluate(signal)
	if err != nil {
		o.logger.Error().Err(err).Str("symbol", signal.Symbol).Msg("Evaluation failed")
		return
	}
	if !result.Executed {
		o.logger.Debug().Str("symbol", signal.Symbol).Str("reason", result.Reason).Msg("Signal not executed")
		return
	}

	if result.Execution.Side == models.ActionBuy && signal.StopLoss > 0 {
		o.exits[signal.Symbol] = exitLevels{stop: signal.StopLoss, take: signal.TakeProfit, side: result.Execution.Side}
	}
	if o.opts.Recorder != nil {
		if err := o.opts.Recorder.RecordTrade(result.Execution); err != nil {
			o.logger.Warn().Err(err).Str("symbol", signal.Symbol).Msg("Failed to journal trade")
		}
	}
	if o.opts.Notifier != nil {
		o.opts.Notifier.TradeExecuted(result.Execution, signal)
	}
}

// checkExits releases the open-execution slot once price crosses the
// stop or take frame, so the next signal for the symbol can act.
func (o *Orchestrator) checkExits(symbol string, price float64) {
	levels, ok := o.exits[symbol]
	if !ok {
		return
	}
	if price <= levels.stop || price >= levels.take {
		o.logger.Info().
			Str("symbol", symbol).
			Float64("price", price).
			Float64("stop", levels.stop).
			Float64("take", levels.take).
			Msg("Exit level crossed, releasing position slot")
		o.portfolio.ClosePosition(symbol)
		delete(o.exits, symbol)
	}
}

// GenerateSignal evaluates one symbol over a caller-supplied series.
func (o *Orchestrator) GenerateSignal(ctx context.Context, symbol string, points []models.PricePoint) (*models.TradingSignal, error) {
	return o.engine.GenerateSignal(ctx, symbol, points)
}

// EvaluateForExecution submits a signal to the portfolio manager.
func (o *Orchestrator) EvaluateForExecution(signal *models.TradingSignal) (*portfolio.Result, error) {
	return o.portfolio.Evaluate(signal)
}

// PortfolioSnapshot returns a read-only copy of portfolio state.
func (o *Orchestrator) PortfolioSnapshot() models.Portfolio {
	return o.portfolio.Snapshot()
}

// RecentSignals returns up to limit signals, newest first.
func (o *Orchestrator) RecentSignals(limit int) []models.TradingSignal {
	return o.signals.Recent(limit)
}
