// Package supplement talks to the per-target supplementary extractor
// endpoints. Each target database may register one endpoint that screens
// a query for filters beyond title, industry, and location.
package supplement

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Extractor is the capability interface for one supplementary extractor.
// New targets register an Extractor without touching the orchestrator.
type Extractor interface {
	Extract(ctx context.Context, query string) (*Result, error)
}

// Result is the extractor's response contract.
type Result struct {
	HasAdditionalFilters bool           `json:"has_additional_filters"`
	AdditionalFilters    []FilterClause `json:"additional_filters"`
	Message              string         `json:"message,omitempty"`
}

// FilterClause mirrors the wire shape of a supplementary filter.
type FilterClause struct {
	Column   string   `json:"column"`
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
	Kind     string   `json:"kind,omitempty"`
}

// request is the body for POST {base}/extract.
type request struct {
	Query string `json:"query"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithAPIKey sets a bearer token sent with each request.
func WithAPIKey(key string) Option {
	return func(c *httpClient) {
		c.apiKey = key
	}
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a supplementary extractor client for one endpoint.
func NewClient(baseURL string, opts ...Option) Extractor {
	c := &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Extract(ctx context.Context, query string) (*Result, error) {
	body, err := json.Marshal(request{Query: query})
	if err != nil {
		return nil, eris.Wrap(err, "supplement: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "supplement: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "supplement: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, eris.Errorf("supplement: status %d: %s", resp.StatusCode, string(raw))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, eris.Wrap(err, "supplement: decode response")
	}

	return &result, nil
}
