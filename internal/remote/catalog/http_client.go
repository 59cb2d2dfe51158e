package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/almahra/cart-engine/internal/remote/domain"
)

const requestTimeout = 3 * time.Second

// Client is an HTTP client for the product catalog service
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a catalog client for the given base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) Product(ctx context.Context, productID uint) (*domain.Product, error) {
	var product domain.Product
	if err := c.get(ctx, fmt.Sprintf("%s/products/%d", c.baseURL, productID), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) Variant(ctx context.Context, productID, variantID uint) (*domain.Variant, error) {
	var variant domain.Variant
	url := fmt.Sprintf("%s/products/%d/variants/%d", c.baseURL, productID, variantID)
	if err := c.get(ctx, url, &variant); err != nil {
		return nil, err
	}
	return &variant, nil
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}
