package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almahra/cart-engine/internal/remote/catalog"
	"github.com/almahra/cart-engine/internal/remote/domain"
	"github.com/almahra/cart-engine/internal/remote/repository"
	"github.com/almahra/cart-engine/pkg/auth"
)

type fakeCatalog struct {
	products map[uint]domain.Product
	variants map[uint]domain.Variant
}

func (c *fakeCatalog) Product(_ context.Context, productID uint) (*domain.Product, error) {
	p, ok := c.products[productID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (c *fakeCatalog) Variant(_ context.Context, _ uint, variantID uint) (*domain.Variant, error) {
	v, ok := c.variants[variantID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &v, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeCatalog) {
	t.Helper()

	cat := &fakeCatalog{
		products: map[uint]domain.Product{
			1: {ID: 1, Name: "Oud Perfume", Price: 120, Brand: "Amouage", Image: "oud.jpg", IsActive: true},
			2: {ID: 2, Name: "Silk Scarf", Price: 45.5, Brand: "Hermes", IsActive: true},
		},
		variants: map[uint]domain.Variant{
			7: {ID: 7, Color: "Gold", ColorCode: "#ffd700"},
		},
	}

	handler := NewCartHandler(repository.NewMemoryRepository(), cat, nil, prometheus.NewRegistry())
	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, cat
}

func userToken(t *testing.T, userID uint) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, "reem", "user", time.Hour)
	require.NoError(t, err)
	return token
}

func doAuthJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestCartServerRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doAuthJSON(t, http.MethodGet, srv.URL+"/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doAuthJSON(t, http.MethodGet, srv.URL+"/cart", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCartServerAddIsAdditive(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, 42)

	resp, body := doAuthJSON(t, http.MethodPost, srv.URL+"/cart/add", token,
		map[string]interface{}{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	items := body["items"].([]interface{})
	require.Len(t, items, 1)

	resp, body = doAuthJSON(t, http.MethodPost, srv.URL+"/cart/add", token,
		map[string]interface{}{"product_id": 1, "quantity": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	items = body["items"].([]interface{})
	require.Len(t, items, 1)

	line := items[0].(map[string]interface{})
	assert.Equal(t, float64(5), line["quantity"])
	assert.Equal(t, float64(120), line["price"])
	assert.InDelta(t, 600, body["total_amount"].(float64), 1e-9)
}

func TestCartServerAddSnapshotsCatalog(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, 42)

	resp, body := doAuthJSON(t, http.MethodPost, srv.URL+"/cart/add", token,
		map[string]interface{}{"product_id": 1, "variant_id": 7, "quantity": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	line := body["items"].([]interface{})[0].(map[string]interface{})
	product := line["product"].(map[string]interface{})
	assert.Equal(t, "Oud Perfume", product["name"])
	assert.Equal(t, "Amouage", product["brand"])

	variant := line["variant"].(map[string]interface{})
	assert.Equal(t, "Gold", variant["color"])
	assert.Equal(t, "#ffd700", variant["color_code"])
}

func TestCartServerAddUnknownProduct(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, 42)

	resp, _ := doAuthJSON(t, http.MethodPost, srv.URL+"/cart/add", token,
		map[string]interface{}{"product_id": 99, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartServerUpdateIsAbsolute(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, 42)

	doAuthJSON(t, http.MethodPost, srv.URL+"/cart/add", token,
		map[string]interface{}{"product_id": 1, "quantity": 4})

	resp, body := doAuthJSON(t, http.MethodPut, srv.URL+"/cart/update/1", token,
		map[string]interface{}{"quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	line := body["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(2), line["quantity"])
}

func TestCartServerUpdateRejectsNonPositiveQuantity(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, 42)

	doAuthJSON(t, http.MethodPost, srv.URL+"/cart/add", token,
		map[string]interface{}{"product_id": 1, "quantity": 1})

	for _, q := range []int{0, -3} {
		resp, _ := doAuthJSON(t, http.MethodPut, srv.URL+"/cart/update/1", token,
			map[string]interface{}{"quantity": q})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, fmt.Sprintf("quantity %d", q))
	}
}

func TestCartServerUnknownLineReturns404(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, 42)

	resp, _ := doAuthJSON(t, http.MethodPut, srv.URL+"/cart/update/1", token,
		map[string]interface{}{"quantity": 2})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doAuthJSON(t, http.MethodDelete, srv.URL+"/cart/remove/1", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartServerRemoveAndClear(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, 42)

	doAuthJSON(t, http.MethodPost, srv.URL+"/cart/add", token,
		map[string]interface{}{"product_id": 1, "quantity": 1})
	doAuthJSON(t, http.MethodPost, srv.URL+"/cart/add", token,
		map[string]interface{}{"product_id": 2, "quantity": 2})

	resp, body := doAuthJSON(t, http.MethodDelete, srv.URL+"/cart/remove/1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"].([]interface{}), 1)

	resp, body = doAuthJSON(t, http.MethodDelete, srv.URL+"/cart/clear", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])

	resp, body = doAuthJSON(t, http.MethodGet, srv.URL+"/cart/count", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["count"])
}

func TestCartServerVariantsAreDistinctLines(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, 42)

	doAuthJSON(t, http.MethodPost, srv.URL+"/cart/add", token,
		map[string]interface{}{"product_id": 1, "quantity": 1})
	_, body := doAuthJSON(t, http.MethodPost, srv.URL+"/cart/add", token,
		map[string]interface{}{"product_id": 1, "variant_id": 7, "quantity": 1})

	assert.Len(t, body["items"].([]interface{}), 2)
}

func TestCartServerUsersAreIsolated(t *testing.T) {
	srv, _ := newTestServer(t)

	doAuthJSON(t, http.MethodPost, srv.URL+"/cart/add", userToken(t, 1),
		map[string]interface{}{"product_id": 1, "quantity": 1})

	_, body := doAuthJSON(t, http.MethodGet, srv.URL+"/cart", userToken(t, 2), nil)
	assert.Empty(t, body["items"])
}

func TestCartServerValidate(t *testing.T) {
	srv, cat := newTestServer(t)
	token := userToken(t, 42)

	resp, _ := doAuthJSON(t, http.MethodPost, srv.URL+"/cart/validate", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	doAuthJSON(t, http.MethodPost, srv.URL+"/cart/add", token,
		map[string]interface{}{"product_id": 1, "quantity": 1})

	resp, body := doAuthJSON(t, http.MethodPost, srv.URL+"/cart/validate", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])

	// Product pulled from the catalog after it was added to the cart
	delete(cat.products, 1)
	resp, body = doAuthJSON(t, http.MethodPost, srv.URL+"/cart/validate", token, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, body["valid"])
}
