// Package marketdata implements the PriceFeed interface over a Twelve
// Data style time-series HTTP API.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/avolkov/signalfusion/internal/platform/http"
	"github.com/avolkov/signalfusion/models"
)

// Options configures the market-data client.
type Options struct {
	BaseURL    string
	APIKey     string
	Interval   string
	OutputSize int
}

// Client fetches ordered price series for symbols.
type Client struct {
	http   *platformhttp.Client
	opts   Options
	logger zerolog.Logger
}

// timeSeriesResponse mirrors the API payload; prices arrive as strings.
type timeSeriesResponse struct {
	Values []struct {
		Datetime string  `json:"datetime"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   float64 `json:"volume,string,omitempty"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewClient creates a market-data client over the shared HTTP client.
func NewClient(httpClient *platformhttp.Client, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.twelvedata.com"
	}
	if opts.Interval == "" {
		opts.Interval = "5min"
	}
	if opts.OutputSize == 0 {
		opts.OutputSize = 40
	}
	return &Client{
		http:   httpClient,
		opts:   opts,
		logger: log.With().Str("component", "marketdata").Logger(),
	}
}

// History fetches the price series for a symbol, oldest first.
func (c *Client) History(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	url := fmt.Sprintf(
		"%s/time_series?symbol=%s&interval=%s&outputsize=%d&apikey=%s",
		c.opts.BaseURL, symbol, c.opts.Interval, c.opts.OutputSize, c.opts.APIKey,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching series for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Msg("Error parsing time series JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Status == "error" {
		c.logger.Error().Str("symbol", symbol).Str("message", data.Message).Msg("Market data API error")
		return nil, fmt.Errorf("market data API error: %s", data.Message)
	}
	if len(data.Values) == 0 {
		return nil, fmt.Errorf("empty series returned for %s", symbol)
	}

	// Oldest first for indicator math.
	sort.Slice(data.Values, func(i, j int) bool {
		return data.Values[i].Datetime < data.Values[j].Datetime
	})

	points := make([]models.PricePoint, 0, len(data.Values))
	for _, v := range data.Values {
		ts, err := time.Parse("2006-01-02 15:04:05", v.Datetime)
		if err != nil {
			ts, err = time.Parse("2006-01-02", v.Datetime)
			if err != nil {
				return nil, fmt.Errorf("parsing datetime %q: %w", v.Datetime, err)
			}
		}
		points = append(points, models.PricePoint{
			Timestamp: ts,
			Price:     v.Close,
			High:      v.High,
			Low:       v.Low,
			Volume:    v.Volume,
		})
	}

	c.logger.Debug().Str("symbol", symbol).Int("count", len(points)).Msg("Fetched price series")
	return points, nil
}

// CurrentPrice returns the latest close for a symbol.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	points, err := c.History(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return points[len(points)-1].Price, nil
}
