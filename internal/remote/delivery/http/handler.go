package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/almahra/cart-engine/internal/remote/catalog"
	"github.com/almahra/cart-engine/internal/remote/domain"
	"github.com/almahra/cart-engine/kafka"
	"github.com/almahra/cart-engine/pkg/auth"
	"github.com/almahra/cart-engine/pkg/logger"
)

type contextKey string

const userIDKey contextKey = "userID"

// CartHandler handles HTTP requests for the server-side cart
type CartHandler struct {
	repo      domain.CartRepository
	catalog   domain.ProductCatalog
	publisher *kafka.Publisher

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewCartHandler creates a new server cart handler
func NewCartHandler(repo domain.CartRepository, cat domain.ProductCatalog, publisher *kafka.Publisher, reg prometheus.Registerer) *CartHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartserver_requests_total",
			Help: "Total number of requests to the cart server",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cartserver_request_duration_seconds",
			Help:    "Duration of cart server requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	reg.MustRegister(requestCounter)
	reg.MustRegister(requestLatency)

	return &CartHandler{
		repo:           repo,
		catalog:        cat,
		publisher:      publisher,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *CartHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// authMiddleware validates the JWT and puts the user id in context
func (h *CartHandler) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			h.respondError(w, http.StatusUnauthorized, "Missing authorization token")
			return
		}

		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			h.respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func userIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDKey).(uint)
	return id, ok
}

type itemResponse struct {
	ID       uint             `json:"id"`
	Product  productResponse  `json:"product"`
	Variant  *variantResponse `json:"variant,omitempty"`
	Quantity int              `json:"quantity"`
	Price    float64          `json:"price"`
}

type productResponse struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
	Brand string  `json:"brand"`
}

type variantResponse struct {
	ID        uint   `json:"id"`
	Color     string `json:"color"`
	ColorCode string `json:"color_code"`
}

type cartResponse struct {
	Items       []itemResponse `json:"items"`
	TotalItems  int            `json:"total_items"`
	TotalAmount float64        `json:"total_amount"`
}

func toItemResponse(item domain.CartItem) itemResponse {
	resp := itemResponse{
		ID: item.ID,
		Product: productResponse{
			ID:    item.ProductID,
			Name:  item.ProductName,
			Price: item.UnitPrice,
			Image: item.Image,
			Brand: item.Brand,
		},
		Quantity: item.Quantity,
		Price:    item.UnitPrice,
	}
	if item.VariantID != nil {
		resp.Variant = &variantResponse{
			ID:        *item.VariantID,
			Color:     item.Color,
			ColorCode: item.ColorCode,
		}
	}
	return resp
}

func toCartResponse(items []domain.CartItem) cartResponse {
	resp := cartResponse{Items: make([]itemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, toItemResponse(item))
		resp.TotalAmount += item.TotalPrice()
	}
	resp.TotalItems = len(items)
	return resp
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	items, err := h.repo.FindByUser(userID)
	if err != nil {
		logger.Error(r.Context()).Err(err).Uint("user_id", userID).Msg("Failed to load cart")
		h.respondError(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}

	h.respondJSON(w, http.StatusOK, toCartResponse(items))
}

// AddItem handles POST /cart/add. Adding an existing (product, variant)
// pair increments its quantity.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req struct {
		ProductID uint  `json:"product_id"`
		VariantID *uint `json:"variant_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductID == 0 {
		h.respondError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	line, err := h.repo.FindLine(userID, req.ProductID, req.VariantID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}

	if line == nil {
		line, err = h.newLine(r.Context(), userID, req.ProductID, req.VariantID, req.Quantity)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				h.respondError(w, http.StatusNotFound, "Product not found")
				return
			}
			logger.Error(r.Context()).Err(err).Uint("product_id", req.ProductID).Msg("Failed to resolve product")
			h.respondError(w, http.StatusBadGateway, "Catalog unavailable")
			return
		}
	} else {
		line.Quantity += req.Quantity
	}

	if err := h.repo.Save(line); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to save cart line")
		h.respondError(w, http.StatusInternalServerError, "Failed to save cart")
		return
	}

	h.publishEvent(r.Context(), kafka.EventTypeItemAdded, userID, line)
	h.respondCart(w, userID, http.StatusCreated)
}

// newLine builds a cart line from a catalog snapshot
func (h *CartHandler) newLine(ctx context.Context, userID, productID uint, variantID *uint, quantity int) (*domain.CartItem, error) {
	product, err := h.catalog.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, catalog.ErrNotFound
	}

	line := &domain.CartItem{
		UserID:      userID,
		ProductID:   productID,
		VariantID:   variantID,
		ProductName: product.Name,
		Brand:       product.Brand,
		Image:       product.Image,
		UnitPrice:   product.Price,
		Quantity:    quantity,
	}
	if variantID != nil {
		variant, err := h.catalog.Variant(ctx, productID, *variantID)
		if err != nil {
			return nil, err
		}
		line.Color = variant.Color
		line.ColorCode = variant.ColorCode
	}
	return line, nil
}

// UpdateItem handles PUT /cart/update/{id}. The quantity is absolute and
// must be positive.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	productID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var req struct {
		VariantID *uint `json:"variant_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity <= 0 {
		h.respondError(w, http.StatusBadRequest, "Quantity must be positive")
		return
	}

	line, err := h.repo.FindLine(userID, productID, req.VariantID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	if line == nil {
		h.respondError(w, http.StatusNotFound, "Cart item not found")
		return
	}

	line.Quantity = req.Quantity
	if err := h.repo.Save(line); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to save cart line")
		h.respondError(w, http.StatusInternalServerError, "Failed to save cart")
		return
	}

	h.publishEvent(r.Context(), kafka.EventTypeQuantityUpdated, userID, line)
	h.respondCart(w, userID, http.StatusOK)
}

// RemoveItem handles DELETE /cart/remove/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	productID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var req struct {
		VariantID *uint `json:"variant_id"`
	}
	if r.Body != nil {
		// Body is optional on remove
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	line, err := h.repo.FindLine(userID, productID, req.VariantID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	if line == nil {
		h.respondError(w, http.StatusNotFound, "Cart item not found")
		return
	}

	if err := h.repo.Delete(line.ID); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to delete cart line")
		h.respondError(w, http.StatusInternalServerError, "Failed to delete cart line")
		return
	}

	h.publishEvent(r.Context(), kafka.EventTypeItemRemoved, userID, line)
	h.respondCart(w, userID, http.StatusOK)
}

// ClearCart handles DELETE /cart/clear
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	if err := h.repo.ClearUser(userID); err != nil {
		logger.Error(r.Context()).Err(err).Uint("user_id", userID).Msg("Failed to clear cart")
		h.respondError(w, http.StatusInternalServerError, "Failed to clear cart")
		return
	}

	h.publishEvent(r.Context(), kafka.EventTypeCartCleared, userID, nil)
	h.respondJSON(w, http.StatusOK, cartResponse{Items: []itemResponse{}})
}

// CountItems handles GET /cart/count
func (h *CartHandler) CountItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	count, err := h.repo.CountByUser(userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to count cart items")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// ValidateCart handles POST /cart/validate. Each line is checked against
// the catalog before checkout.
func (h *CartHandler) ValidateCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	items, err := h.repo.FindByUser(userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	if len(items) == 0 {
		h.respondError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	var problems []string
	for _, item := range items {
		product, err := h.catalog.Product(r.Context(), item.ProductID)
		if err != nil || !product.IsActive {
			problems = append(problems, fmt.Sprintf("%s is no longer available", item.ProductName))
		}
	}

	if len(problems) > 0 {
		h.respondJSON(w, http.StatusConflict, map[string]interface{}{
			"valid":  false,
			"errors": problems,
		})
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (h *CartHandler) respondCart(w http.ResponseWriter, userID uint, status int) {
	items, err := h.repo.FindByUser(userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	h.respondJSON(w, status, toCartResponse(items))
}

func (h *CartHandler) publishEvent(ctx context.Context, eventType string, userID uint, line *domain.CartItem) {
	if h.publisher == nil {
		return
	}

	event := kafka.CartEvent{
		EventType: eventType,
		UserID:    userID,
	}
	if line != nil {
		event.ProductID = line.ProductID
		if line.VariantID != nil {
			event.VariantID = *line.VariantID
		}
		event.Quantity = line.Quantity
	}

	if err := h.publisher.PublishCartEvent(ctx, event); err != nil {
		logger.Warn(ctx).Err(err).Str("event_type", eventType).Msg("Failed to publish cart event")
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}

// RegisterRoutes registers all cart server routes
func (h *CartHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/cart", h.metricsMiddleware("/cart", h.authMiddleware(h.GetCart))).Methods("GET")
	router.HandleFunc("/cart/add", h.metricsMiddleware("/cart/add", h.authMiddleware(h.AddItem))).Methods("POST")
	router.HandleFunc("/cart/update/{id}", h.metricsMiddleware("/cart/update/{id}", h.authMiddleware(h.UpdateItem))).Methods("PUT")
	router.HandleFunc("/cart/remove/{id}", h.metricsMiddleware("/cart/remove/{id}", h.authMiddleware(h.RemoveItem))).Methods("DELETE")
	router.HandleFunc("/cart/clear", h.metricsMiddleware("/cart/clear", h.authMiddleware(h.ClearCart))).Methods("DELETE")
	router.HandleFunc("/cart/count", h.metricsMiddleware("/cart/count", h.authMiddleware(h.CountItems))).Methods("GET")
	router.HandleFunc("/cart/validate", h.metricsMiddleware("/cart/validate", h.authMiddleware(h.ValidateCart))).Methods("POST")
}

// RegisterHealthCheck registers the health endpoint
func (h *CartHandler) RegisterHealthCheck(router *mux.Router) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods("GET")
}

func (h *CartHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *CartHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
