package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	method string
	path   string
	body   map[string]interface{}
	auth   string
}

func newCaptureServer(t *testing.T, status int, response string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()

	var mu sync.Mutex
	var captured []capturedRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		mu.Lock()
		captured = append(captured, capturedRequest{
			method: r.Method,
			path:   r.URL.Path,
			body:   body,
			auth:   r.Header.Get("Authorization"),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(ts.Close)

	return ts, &captured
}

func TestClientGetCart(t *testing.T) {
	response := `{
		"items": [
			{
				"product": {"id": 1, "name": "Aviator", "price": 12, "brand": "Almahra"},
				"variant": {"id": 5, "color": "Black", "color_code": "#000000"},
				"quantity": 2,
				"price": 10
			},
			{
				"product": {"id": 2, "name": "Wayfarer", "price": 24.5},
				"quantity": 1,
				"price": 24.5
			}
		],
		"total_items": 3,
		"total_amount": 44.5
	}`
	ts, captured := newCaptureServer(t, http.StatusOK, response)

	client := NewClient(ts.URL, func() string { return "token-123" })
	items, err := client.GetCart(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, uint(1), items[0].Product.ID)
	assert.Equal(t, 12.0, items[0].Product.Price)
	assert.Equal(t, 10.0, items[0].Price)
	require.NotNil(t, items[0].Variant)
	assert.Equal(t, "Black", items[0].Variant.Color)
	assert.Nil(t, items[1].Variant)

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/cart", req.path)
	assert.Equal(t, "Bearer token-123", req.auth)
}

func TestClientAddItemSendsSnakeCase(t *testing.T) {
	ts, captured := newCaptureServer(t, http.StatusCreated, `{"message":"ok"}`)
	client := NewClient(ts.URL, nil)

	variantID := uint(5)
	require.NoError(t, client.AddItem(context.Background(), 1, &variantID, 3))

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/cart/add", req.path)
	assert.Equal(t, float64(1), req.body["product_id"])
	assert.Equal(t, float64(5), req.body["variant_id"])
	assert.Equal(t, float64(3), req.body["quantity"])
}

func TestClientAddItemOmitsDefaultVariant(t *testing.T) {
	ts, captured := newCaptureServer(t, http.StatusCreated, `{"message":"ok"}`)
	client := NewClient(ts.URL, nil)

	require.NoError(t, client.AddItem(context.Background(), 7, nil, 1))

	req := (*captured)[0]
	_, present := req.body["variant_id"]
	assert.False(t, present, "default variant must map to no variant_id field")
}

func TestClientUpdateItemPath(t *testing.T) {
	ts, captured := newCaptureServer(t, http.StatusOK, `{"message":"ok"}`)
	client := NewClient(ts.URL, nil)

	require.NoError(t, client.UpdateItem(context.Background(), 42, nil, 6))

	req := (*captured)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/cart/update/42", req.path)
	assert.Equal(t, float64(6), req.body["quantity"])
}

func TestClientRemoveItemPath(t *testing.T) {
	ts, captured := newCaptureServer(t, http.StatusOK, `{"message":"ok"}`)
	client := NewClient(ts.URL, nil)

	variantID := uint(9)
	require.NoError(t, client.RemoveItem(context.Background(), 3, &variantID))

	req := (*captured)[0]
	assert.Equal(t, http.MethodDelete, req.method)
	assert.Equal(t, "/cart/remove/3", req.path)
	assert.Equal(t, float64(9), req.body["variant_id"])
}

func TestClientClear(t *testing.T) {
	ts, captured := newCaptureServer(t, http.StatusOK, `{"message":"ok"}`)
	client := NewClient(ts.URL, nil)

	require.NoError(t, client.Clear(context.Background()))

	req := (*captured)[0]
	assert.Equal(t, http.MethodDelete, req.method)
	assert.Equal(t, "/cart/clear", req.path)
}

func TestClientNon2xxIsError(t *testing.T) {
	ts, _ := newCaptureServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
	client := NewClient(ts.URL, nil)

	err := client.AddItem(context.Background(), 1, nil, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")

	_, err = client.GetCart(context.Background())
	assert.Error(t, err)
}

func TestClientUnreachableRemote(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil)
	assert.Error(t, client.Clear(context.Background()))
}
