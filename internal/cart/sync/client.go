package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/almahra/cart-engine/pkg/logger"
)

// RemoteCart is the contract the synchronizer needs from the remote cart
// service. Calls carry absolute quantities except AddItem, which is additive
// on the remote side too.
type RemoteCart interface {
	GetCart(ctx context.Context) ([]RemoteItem, error)
	AddItem(ctx context.Context, productID uint, variantID *uint, quantity int) error
	UpdateItem(ctx context.Context, productID uint, variantID *uint, quantity int) error
	RemoveItem(ctx context.Context, productID uint, variantID *uint) error
	Clear(ctx context.Context) error
}

// TokenSource supplies the bearer token for remote calls
type TokenSource func() string

// Client is the HTTP client for the remote cart service
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
}

const requestTimeout = 3 * time.Second

// NewClient creates a remote cart client. The token source is consulted on
// every request so a refreshed session token is picked up automatically.
func NewClient(baseURL string, token TokenSource) *Client {
	client := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	logger.Logger.Info().
		Str("base_url", baseURL).
		Msg("Remote cart client initialized")

	return &Client{
		baseURL:    baseURL,
		httpClient: client,
		token:      token,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote cart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote cart returned status %d for %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// GetCart fetches the full remote cart
func (c *Client) GetCart(ctx context.Context) ([]RemoteItem, error) {
	var resp remoteCartResponse
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get remote cart: %w", err)
	}

	items := make([]RemoteItem, 0, len(resp.Items))
	for _, payload := range resp.Items {
		items = append(items, payload.toDomain())
	}
	return items, nil
}

// AddItem adds quantity to the remote cart line (additive)
func (c *Client) AddItem(ctx context.Context, productID uint, variantID *uint, quantity int) error {
	req := addItemRequest{ProductID: productID, VariantID: variantID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPost, "/cart/add", req, nil); err != nil {
		return fmt.Errorf("failed to add remote cart item: %w", err)
	}
	return nil
}

// UpdateItem sets the remote cart line's quantity (absolute)
func (c *Client) UpdateItem(ctx context.Context, productID uint, variantID *uint, quantity int) error {
	req := updateItemRequest{VariantID: variantID, Quantity: quantity}
	path := fmt.Sprintf("/cart/update/%d", productID)
	if err := c.do(ctx, http.MethodPut, path, req, nil); err != nil {
		return fmt.Errorf("failed to update remote cart item: %w", err)
	}
	return nil
}

// RemoveItem removes the remote cart line
func (c *Client) RemoveItem(ctx context.Context, productID uint, variantID *uint) error {
	req := removeItemRequest{VariantID: variantID}
	path := fmt.Sprintf("/cart/remove/%d", productID)
	if err := c.do(ctx, http.MethodDelete, path, req, nil); err != nil {
		return fmt.Errorf("failed to remove remote cart item: %w", err)
	}
	return nil
}

// Clear empties the remote cart
func (c *Client) Clear(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/cart/clear", nil, nil); err != nil {
		return fmt.Errorf("failed to clear remote cart: %w", err)
	}
	return nil
}
