package sentiment

import (
	"context"
)

// Canonical source names. Weights are keyed by these.
const (
	SourceNews     = "news"
	SourceTwitter  = "twitter"
	SourceReddit   = "reddit"
	SourceTelegram = "telegram"
)

// SourceResult is one source's view of a symbol.
type SourceResult struct {
	Sentiment float64  `json:"sentiment"` // [-1, 1]
	Mentions  int      `json:"mentions"`
	Texts     []string `json:"texts,omitempty"`
}

// Source supplies sentiment for a symbol. Implementations may fail or
// time out independently; the aggregator treats both as a neutral 0.
type Source interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (*SourceResult, error)
}

// StaticSource returns a fixed result, used for tests and as a
// stand-in when a real source is not configured.
type StaticSource struct {
	SourceName string
	Result     SourceResult
	Err        error
}

func (s *StaticSource) Name() string { return s.SourceName }

func (s *StaticSource) Fetch(ctx context.Context, symbol string) (*SourceResult, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	r := s.Result
	return &r, nil
}
