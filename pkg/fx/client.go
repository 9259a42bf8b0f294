package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.frankfurter.app"
	responseBodyReadLimit int64 = 1024
)

// RateTable lists conversion rates from Base into each keyed currency.
type RateTable struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Rate returns the multiplier converting Base amounts into currency.
func (t RateTable) Rate(currency string) (decimal.Decimal, bool) {
	if strings.EqualFold(currency, t.Base) {
		return decimal.NewFromInt(1), true
	}
	r, ok := t.Rates[strings.ToUpper(currency)]
	if !ok || !r.IsPositive() {
		return decimal.Zero, false
	}
	return r, true
}

// BreakerSettings tunes the circuit breaker around provider calls.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	Cooldown            time.Duration
	HalfOpenRequests    uint32
}

// Client fetches exchange-rate tables from the configured provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *gobreaker.CircuitBreaker[RateTable]
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the provider base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithAPIKey sends the key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithBreaker replaces the default circuit breaker settings.
func WithBreaker(settings BreakerSettings) Option {
	return func(c *Client) {
		c.breaker = newBreaker(settings)
	}
}

// NewClient builds the provider client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.breaker == nil {
		client.breaker = newBreaker(BreakerSettings{})
	}
	return client
}

func newBreaker(s BreakerSettings) *gobreaker.CircuitBreaker[RateTable] {
	failures := s.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := s.Cooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	halfOpen := s.HalfOpenRequests
	if halfOpen == 0 {
		halfOpen = 1
	}
	return gobreaker.NewCircuitBreaker[RateTable](gobreaker.Settings{
		Name:        "exchange-rates",
		MaxRequests: halfOpen,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// Latest fetches the current rate table for base.
func (c *Client) Latest(ctx context.Context, base string) (RateTable, error) {
	if c == nil {
		return RateTable{}, pkgerrors.New(pkgerrors.CodeDependency, "exchange-rate client not configured")
	}
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return RateTable{}, pkgerrors.New(pkgerrors.CodeValidation, "base currency is required")
	}

	table, err := c.breaker.Execute(func() (RateTable, error) {
		return c.fetch(ctx, base)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return RateTable{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "exchange-rate provider unavailable")
	}
	if err != nil {
		return RateTable{}, err
	}
	return table, nil
}

func (c *Client) fetch(ctx context.Context, base string) (RateTable, error) {
	endpoint := fmt.Sprintf("%s/latest?base=%s", strings.TrimRight(c.baseURL, "/"), url.QueryEscape(base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RateTable{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build exchange-rate request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RateTable{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute exchange-rate request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return RateTable{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "exchange-rate request failed")
	}

	var table RateTable
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return RateTable{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode exchange-rate response")
	}
	if table.Base == "" {
		table.Base = base
	}
	if !strings.EqualFold(table.Base, base) {
		return RateTable{}, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("provider returned base %s, wanted %s", table.Base, base))
	}
	table.Base = base
	normalized := make(map[string]decimal.Decimal, len(table.Rates))
	for code, rate := range table.Rates {
		normalized[strings.ToUpper(code)] = rate
	}
	table.Rates = normalized
	return table, nil
}
