// Package provider implements a RecipeProvider that talks to a remote
// recipe API over HTTP.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
)

// RequestIDHeader carries a per-request id so client and server logs can be joined.
const RequestIDHeader = "X-Request-ID"

// Compile-time interface checks.
var (
	_ domain.RecipeProvider = (*Client)(nil)
	_ domain.Catalog        = (*Client)(nil)
)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithBreaker sets how many consecutive failures open the circuit and how
// long it stays open before a trial request is let through.
func WithBreaker(failures uint32, cooldown time.Duration) ClientOption {
	return func(c *Client) {
		c.breakerFailures = failures
		c.breakerCooldown = cooldown
	}
}

// Client fetches recipes from a remote /api/recipes endpoint. Transport
// failures and an open circuit map to domain.ErrProviderUnavailable;
// non-2xx answers map to *domain.StatusError.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger

	breakerFailures uint32
	breakerCooldown time.Duration
	breaker         *gobreaker.CircuitBreaker
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. "http://localhost:8080").
func NewClient(baseURL string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		http:            &http.Client{Timeout: 10 * time.Second},
		log:             log,
		breakerFailures: 5,
		breakerCooldown: 30 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "recipe-provider",
		Timeout: c.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("provider: circuit %s changed from %s to %s", name, from, to)
		},
		// A 4xx is the caller's fault, not the backend's.
		IsSuccessful: func(err error) bool {
			var se *domain.StatusError
			if errors.As(err, &se) {
				return se.Status < 500
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return c
}

// FetchRecipes requests one page of recipes matching q.
func (c *Client) FetchRecipes(ctx context.Context, q domain.Query, offset, limit int) (domain.ResultPage, error) {
	filters, err := json.Marshal(q.Filters)
	if err != nil {
		return domain.ResultPage{}, fmt.Errorf("provider: encode filters: %w", err)
	}

	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	if !q.Unfiltered() {
		params.Set("filters", string(filters))
	}
	if q.Sort.IsSet() {
		params.Set("sort", string(q.Sort))
	}

	var page domain.ResultPage
	if err := c.getJSON(ctx, "/api/recipes", params, &page); err != nil {
		return domain.ResultPage{}, err
	}
	if page.Items == nil {
		page.Items = []domain.Recipe{}
	}
	return page, nil
}

// Categories lists the categories known to the backend.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.getJSON(ctx, "/api/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tags lists the tags known to the backend.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.getJSON(ctx, "/api/tags", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// State reports the circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.do(ctx, path, params, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("provider: create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)

	c.log.Debug("provider: GET %s [%s]", endpoint, reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.StatusError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrProviderError, err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} from a failure body, falling back
// to the truncated raw text.
func errorMessage(body []byte) string {
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil && env.Error != "" {
		return env.Error
	}
	return truncate(strings.TrimSpace(string(body)), 120)
}

// truncate shortens s to at most n runes, cutting on a rune boundary.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
