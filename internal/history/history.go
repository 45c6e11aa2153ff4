// Package history keeps the bounded in-memory trail of emitted
// signals. It is the only signal state the core retains.
package history

import (
	"sync"

	"github.com/avolkov/signalfusion/models"
)

// DefaultCapacity is the bounded signal window.
const DefaultCapacity = 50

// Ring is a thread-safe bounded collection of signals, oldest evicted
// first, read back newest first.
type Ring struct {
	mu       sync.RWMutex
	signals  []models.TradingSignal
	capacity int
}

// New creates a ring; a non-positive capacity uses DefaultCapacity.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{capacity: capacity}
}

// Add appends a signal, evicting the oldest when full.
func (r *Ring) Add(signal models.TradingSignal) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.signals = append(r.signals, signal)
	if len(r.signals) > r.capacity {
		r.signals = r.signals[len(r.signals)-r.capacity:]
	}
}

// Recent returns up to limit signals, newest first. A non-positive
// limit returns everything retained.
func (r *Ring) Recent(limit int) []models.TradingSignal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.signals) {
		limit = len(r.signals)
	}

	out := make([]models.TradingSignal, 0, limit)
	for i := len(r.signals) - 1; i >= len(r.signals)-limit; i-- {
		out = append(out, r.signals[i])
	}
	return out
}

// Len reports how many signals are retained.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.signals)
}
