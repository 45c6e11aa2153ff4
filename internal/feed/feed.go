// Package feed defines the price-data boundary. The core consumes the
// interface only; production wiring uses the HTTP market-data client
// and tests use the deterministic static feed.
package feed

import (
	"context"
	"fmt"

	"github.com/avolkov/signalfusion/models"
)

// PriceFeed supplies ordered price history and the current price for
// a symbol. History is ascending by timestamp; the core tolerates
// series shorter than any indicator period.
type PriceFeed interface {
	History(ctx context.Context, symbol string) ([]models.PricePoint, error)
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// StaticFeed serves fixed series, keyed by symbol. Deterministic by
// construction, used by tests and dry runs.
type StaticFeed struct {
	Series map[string][]models.PricePoint
}

// History returns a copy of the configured series so callers cannot
// mutate the fixture.
func (f *StaticFeed) History(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	series, ok := f.Series[symbol]
	if !ok {
		return nil, fmt.Errorf("no series configured for %s", symbol)
	}
	out := make([]models.PricePoint, len(series))
	copy(out, series)
	return out, nil
}

// CurrentPrice returns the last price of the configured series.
func (f *StaticFeed) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	series, ok := f.Series[symbol]
	if !ok || len(series) == 0 {
		return 0, fmt.Errorf("no series configured for %s", symbol)
	}
	return series[len(series)-1].Price, nil
}
