package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/internal/cart/usecase/command"
	"github.com/almahra/cart-engine/internal/cart/usecase/query"
	"github.com/almahra/cart-engine/kafka"
)

// CartHandler handles HTTP requests for the cart engine
type CartHandler struct {
	// Command handlers
	addHandler    *command.AddItemHandler
	removeHandler *command.RemoveItemHandler
	updateHandler *command.UpdateQuantityHandler
	clearHandler  *command.ClearCartHandler
	toggleHandler *command.ToggleCartHandler

	// Query handlers
	getHandler *query.GetCartHandler

	sessions *SessionManager

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	liveSessions   prometheus.Gauge
}

// NewCartHandler creates a new cart handler
func NewCartHandler(sessions *SessionManager, publisher *kafka.Publisher, reg prometheus.Registerer) *CartHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_service_requests_total",
			Help: "Total number of requests to cart service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cart_service_request_duration_seconds",
			Help:    "Duration of cart service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	liveSessions := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cart_service_live_sessions",
			Help: "Number of live cart sessions",
		},
	)

	reg.MustRegister(requestCounter)
	reg.MustRegister(requestLatency)
	reg.MustRegister(liveSessions)

	return &CartHandler{
		addHandler:     command.NewAddItemHandler(publisher),
		removeHandler:  command.NewRemoveItemHandler(publisher),
		updateHandler:  command.NewUpdateQuantityHandler(publisher),
		clearHandler:   command.NewClearCartHandler(publisher),
		toggleHandler:  command.NewToggleCartHandler(),
		getHandler:     query.NewGetCartHandler(),
		sessions:       sessions,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
		liveSessions:   liveSessions,
	}
}

// Sessions returns the session manager, exposed for shutdown
func (h *CartHandler) Sessions() *SessionManager {
	return h.sessions
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
		h.liveSessions.Set(float64(h.sessions.Count()))
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}

	state, err := h.getHandler.Handle(r.Context(), sess.Store, query.GetCartQuery{})
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, state)
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}

	var req struct {
		Product  domain.Product  `json:"product"`
		Variant  *domain.Variant `json:"variant"`
		Quantity int             `json:"quantity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cmd := command.AddItemCommand{
		Product:  req.Product,
		Variant:  req.Variant,
		Quantity: req.Quantity,
	}

	state, err := h.addHandler.Handle(r.Context(), sess.Store, cmd)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondJSON(w, http.StatusCreated, state)
}

// UpdateQuantity handles PUT /cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cmd := command.UpdateQuantityCommand{
		Identity: mux.Vars(r)["id"],
		Quantity: req.Quantity,
	}

	state, err := h.updateHandler.Handle(r.Context(), sess.Store, cmd)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, state)
}

// RemoveItem handles DELETE /cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}

	cmd := command.RemoveItemCommand{Identity: mux.Vars(r)["id"]}

	state, err := h.removeHandler.Handle(r.Context(), sess.Store, cmd)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, state)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}

	state, err := h.clearHandler.Handle(r.Context(), sess.Store, command.ClearCartCommand{})
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, state)
}

// ToggleCart handles POST /cart/toggle
func (h *CartHandler) ToggleCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}

	state, err := h.toggleHandler.Handle(r.Context(), sess.Store, command.ToggleCartCommand{})
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, state)
}

// Logout handles POST /cart/logout: mirroring stops, local state stays
func (h *CartHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}

	sess.Logout()
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// RegisterRoutes registers all cart routes
func (h *CartHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/cart", h.metricsMiddleware("/cart", h.sessionMiddleware(h.GetCart))).Methods("GET")
	router.HandleFunc("/cart", h.metricsMiddleware("/cart", h.sessionMiddleware(h.ClearCart))).Methods("DELETE")
	router.HandleFunc("/cart/items", h.metricsMiddleware("/cart/items", h.sessionMiddleware(h.AddItem))).Methods("POST")
	router.HandleFunc("/cart/items/{id}", h.metricsMiddleware("/cart/items/{id}", h.sessionMiddleware(h.UpdateQuantity))).Methods("PUT")
	router.HandleFunc("/cart/items/{id}", h.metricsMiddleware("/cart/items/{id}", h.sessionMiddleware(h.RemoveItem))).Methods("DELETE")
	router.HandleFunc("/cart/toggle", h.metricsMiddleware("/cart/toggle", h.sessionMiddleware(h.ToggleCart))).Methods("POST")
	router.HandleFunc("/cart/logout", h.metricsMiddleware("/cart/logout", h.sessionMiddleware(h.Logout))).Methods("POST")
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
