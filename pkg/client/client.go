// Package client provides the resilient external-API HTTP client with
// bearer-token authentication, retry with backoff, and cursor pagination.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jawdriai/api-search/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for external-API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extapi_requests_total",
		Help: "Total external API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "extapi_request_duration_seconds",
		Help:    "External API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extapi_errors_total",
		Help: "Total external API errors by class",
	}, []string{"class"})

	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extapi_pages_fetched_total",
		Help: "Total listing pages fetched",
	})
)

// Item is a record owned by the external API. The client holds transient
// copies only and never caches items across calls.
type Item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// listResponse is the wire format of the listing endpoint. A null
// next_cursor decodes to the empty string and ends pagination.
type listResponse struct {
	Items      []Item `json:"items"`
	NextCursor string `json:"next_cursor"`
	Count      int    `json:"count"`
}

type createItemRequest struct {
	Name string `json:"name"`
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the external API, e.g. "http://localhost:8099".
	BaseURL string

	// Token is the bearer credential attached to every request.
	Token string

	// Timeout bounds each individual network call.
	Timeout time.Duration

	// Retry configures backoff behavior for transient failures.
	Retry RetryConfig

	// PageSize requested from the listing endpoint.
	PageSize int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, token string) Config {
	return Config{
		BaseURL:  baseURL,
		Token:    token,
		Timeout:  10 * time.Second,
		Retry:    DefaultRetryConfig(),
		PageSize: 25,
	}
}

// Client is the external API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	auth       BearerAuth
	retry      RetryConfig
	pageSize   int
	logger     zerolog.Logger
}

// New creates a new external API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("bearer token is required")
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max_attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = 25
	}

	logger := log.With().Str("component", "api-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  trimTrailingSlash(cfg.BaseURL),
		auth:     BearerAuth{Token: cfg.Token},
		retry:    cfg.Retry,
		pageSize: cfg.PageSize,
		logger:   logger,
	}, nil
}

// WithPageSize returns a copy of the client requesting n items per page.
// The copy shares the underlying transport.
func (c *Client) WithPageSize(n int) *Client {
	if n <= 0 {
		return c
	}
	cp := *c
	cp.pageSize = n
	return &cp
}

// ListItems lists items from the external API. When followAll is true, every
// page is fetched by following the server's cursors; otherwise only the
// first page is returned.
func (c *Client) ListItems(ctx context.Context, followAll bool) ([]Item, error) {
	return pagination.Collect(ctx, c.fetchPage, followAll)
}

// ListPage fetches a single page starting at cursor (empty for the first
// page) and returns its items along with the next cursor. An empty next
// cursor means the listing is exhausted.
func (c *Client) ListPage(ctx context.Context, cursor string) ([]Item, string, error) {
	page, err := c.fetchPage(ctx, cursor)
	if err != nil {
		return nil, "", err
	}
	return page.Items, page.NextCursor, nil
}

// CreateItem creates an item upstream and returns it as assigned by the
// server (the server is authoritative for the id). The retry policy applies
// to this POST exactly as it does to reads: a transient failure after the
// server actually persisted the item can create a duplicate. The upstream
// API offers no idempotency key, so the risk is documented here rather than
// special-cased.
func (c *Client) CreateItem(ctx context.Context, name string) (Item, error) {
	if name == "" {
		return Item{}, &APIError{
			ErrorClass: ErrorClassValidation,
			Message:    "item name must not be empty",
		}
	}

	payload, err := json.Marshal(createItemRequest{Name: name})
	if err != nil {
		return Item{}, fmt.Errorf("encode create request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/items", nil, payload)
	if err != nil {
		return Item{}, err
	}
	defer resp.Body.Close()

	var item Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return Item{}, fmt.Errorf("decode created item: %w", err)
	}

	c.logger.Info().
		Int("id", item.ID).
		Str("name", item.Name).
		Msg("Item created")

	return item, nil
}

// fetchPage performs one retry-wrapped page fetch.
func (c *Client) fetchPage(ctx context.Context, cursor string) (pagination.Page[Item], error) {
	query := url.Values{}
	query.Set("page_size", strconv.Itoa(c.pageSize))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	resp, err := c.do(ctx, http.MethodGet, "/items", query, nil)
	if err != nil {
		return pagination.Page[Item]{}, err
	}
	defer resp.Body.Close()

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return pagination.Page[Item]{}, fmt.Errorf("decode list response: %w", err)
	}

	pagesFetchedTotal.Inc()

	return pagination.Page[Item]{
		Items:      body.Items,
		NextCursor: body.NextCursor,
	}, nil
}

// do executes one logical request with retry. The request is rebuilt on
// every attempt so a retried POST re-sends its body. On success the caller
// owns the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	endpoint := path

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Msg("Executing external API request")

	var resp *http.Response
	retryErr := retryWithBackoff(ctx, c.retry, func() error {
		req, err := c.newRequest(ctx, method, path, query, body)
		if err != nil {
			// Malformed request descriptors never heal on retry.
			return &APIError{
				ErrorClass: ErrorClassValidation,
				Message:    "create request",
				Err:        err,
			}
		}

		res, reqErr := c.httpClient.Do(req)

		// Distinguish caller-driven cancellation from transport failures.
		if reqErr != nil && ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}

		if reqErr != nil {
			errClass := classify(nil, reqErr)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Error().
				Err(reqErr).
				Str("endpoint", endpoint).
				Str("error_class", string(errClass)).
				Msg("HTTP request failed")
			return &APIError{
				ErrorClass: errClass,
				Message:    "request failed",
				Err:        reqErr,
			}
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(res.StatusCode)).Inc()

		if res.StatusCode >= 400 {
			errClass := classify(res, nil)
			errorsTotal.WithLabelValues(string(errClass)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", res.StatusCode).
				Str("error_class", string(errClass)).
				Msg("External API request error")

			// Drain so the connection can be reused on retry.
			io.Copy(io.Discard, res.Body)
			res.Body.Close()

			return &APIError{
				StatusCode: res.StatusCode,
				ErrorClass: errClass,
				Message:    res.Status,
			}
		}

		resp = res
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return resp, nil
}

// newRequest builds an authenticated request descriptor.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}

	c.auth.Apply(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
