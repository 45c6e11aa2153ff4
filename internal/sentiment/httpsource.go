package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	platformhttp "github.com/avolkov/signalfusion/internal/platform/http"
)

// HTTPSource queries a sentiment endpoint that answers
// {"sentiment": -1..1, "mentions": n, "texts": [...]} for a symbol.
type HTTPSource struct {
	name   string
	base   string
	client *platformhttp.Client
}

// NewHTTPSource creates a named source over the shared HTTP client.
func NewHTTPSource(name, baseURL string, client *platformhttp.Client) *HTTPSource {
	return &HTTPSource{name: name, base: baseURL, client: client}
}

func (s *HTTPSource) Name() string { return s.name }

// Fetch queries the endpoint for one symbol. Errors are returned to
// the aggregator, which degrades them to a neutral contribution.
func (s *HTTPSource) Fetch(ctx context.Context, symbol string) (*SourceResult, error) {
	endpoint := fmt.Sprintf("%s?symbol=%s", s.base, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("querying %s sentiment: %w", s.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", s.name, err)
	}

	var result SourceResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", s.name, err)
	}
	return &result, nil
}
