// Package storeapi is the HTTP client the storefront uses to reach the
// bookstore backend: inventory lookup, the session cart and shipping rates.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

const errorBodyReadLimit int64 = 4096

// Client talks to the backend API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
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

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a backend API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("backend api base url is required")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parsing backend api base url: %w", err)
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// GetBook reads the current catalog record for a book.
func (c *Client) GetBook(ctx context.Context, id int64) (types.Book, error) {
	var book types.Book
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/books/%d", id), "", nil, &book)
	return book, err
}

// ShippingRate returns the rate configured for a destination country.
func (c *Client) ShippingRate(ctx context.Context, countryCode string) (types.ShippingRate, error) {
	var rate types.ShippingRate
	err := c.do(ctx, http.MethodGet, "/shipping-rate/"+url.PathEscape(countryCode), "", nil, &rate)
	return rate, err
}

// ListCart returns the authenticated shopper's session cart.
func (c *Client) ListCart(ctx context.Context, token string) ([]types.CartLine, error) {
	var lines []types.CartLine
	if err := c.do(ctx, http.MethodGet, "/cart", token, nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// AddCartItem adds quantity of a book to the session cart.
func (c *Client) AddCartItem(ctx context.Context, token string, bookID int64, quantity int) (types.CartLine, error) {
	var line types.CartLine
	body := types.AddCartItemRequest{BookID: bookID, Quantity: quantity}
	err := c.do(ctx, http.MethodPost, "/cart/add", token, body, &line)
	return line, err
}

// UpdateCartItem sets the quantity of a session cart line.
func (c *Client) UpdateCartItem(ctx context.Context, token, lineID string, quantity int) (types.CartLine, error) {
	var line types.CartLine
	body := types.UpdateCartItemRequest{Quantity: quantity}
	err := c.do(ctx, http.MethodPut, "/cart/"+url.PathEscape(lineID), token, body, &line)
	return line, err
}

// RemoveCartItem deletes a session cart line. Unknown lines are a no-op server side.
func (c *Client) RemoveCartItem(ctx context.Context, token, lineID string) error {
	return c.do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(lineID), token, nil, nil)
}

// ClearCart empties the session cart.
func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/cart", token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode backend request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, path))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode backend response")
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode backend payload")
	}
	return nil
}

// decodeAPIError rebuilds the typed error carried in the backend's error envelope.
func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	var envelope struct {
		Error struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Code == "" {
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
			"backend request failed")
	}

	code := pkgerrors.Code(envelope.Error.Code)
	apiErr := pkgerrors.New(code, envelope.Error.Message)
	if len(envelope.Error.Details) == 0 || string(envelope.Error.Details) == "null" {
		return apiErr
	}

	switch code {
	case pkgerrors.CodeOutOfStock, pkgerrors.CodeStockExceeded:
		var details types.StockErrorDetails
		if err := json.Unmarshal(envelope.Error.Details, &details); err == nil {
			return apiErr.WithDetails(details)
		}
	}
	var details any
	if err := json.Unmarshal(envelope.Error.Details, &details); err == nil {
		apiErr.WithDetails(details)
	}
	return apiErr
}
