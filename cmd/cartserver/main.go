package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/almahra/cart-engine/internal/remote/catalog"
	remoteHTTP "github.com/almahra/cart-engine/internal/remote/delivery/http"
	"github.com/almahra/cart-engine/internal/remote/domain"
	"github.com/almahra/cart-engine/internal/remote/repository"
	"github.com/almahra/cart-engine/kafka"
	"github.com/almahra/cart-engine/pkg/database"
	"github.com/almahra/cart-engine/pkg/logger"
	"github.com/almahra/cart-engine/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "cartserver")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting cart server")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "cartdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Connect to database
	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := db.AutoMigrate(&domain.CartItem{}); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	// Product catalog client
	catalogURL := os.Getenv("CATALOG_URL")
	if catalogURL == "" {
		logger.Logger.Fatal().Msg("CATALOG_URL is required")
	}
	cat := catalog.NewClient(catalogURL)

	// Kafka publisher for cart activity events (optional)
	var publisher *kafka.Publisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		publisher, err = kafka.NewPublisher(strings.Split(brokers, ","))
		if err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to connect to Kafka, events disabled")
			publisher = nil
		} else {
			defer publisher.Close()
			startAuditConsumer(strings.Split(brokers, ","))
		}
	}

	handler := remoteHTTP.NewCartHandler(repository.NewCartRepository(db), cat, publisher, prometheus.DefaultRegisterer)

	logger.Logger.Info().
		Str("catalog_url", catalogURL).
		Msg("Cart server handler initialized")

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8085")
	go startHTTPServer(handler, httpPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

// startAuditConsumer tails the cart activity topic and keeps per-event-type
// counters for dashboards
func startAuditConsumer(brokers []string) {
	groupID := getEnv("KAFKA_CONSUMER_GROUP", "cartserver-audit")
	consumer, err := kafka.NewConsumer(brokers, groupID, []string{kafka.TopicCartActivity})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to start audit consumer")
		return
	}

	eventCounter := promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartserver_cart_events_total",
			Help: "Total cart activity events observed per type",
		},
		[]string{"event_type"},
	)

	audit := func(ctx context.Context, event kafka.CartEvent) error {
		eventCounter.WithLabelValues(event.EventType).Inc()
		logger.Info(ctx).
			Str("event_type", event.EventType).
			Str("event_id", event.EventID).
			Str("session_id", event.SessionID).
			Uint("user_id", event.UserID).
			Msg("Cart activity observed")
		return nil
	}

	for _, eventType := range []string{
		kafka.EventTypeItemAdded,
		kafka.EventTypeItemRemoved,
		kafka.EventTypeQuantityUpdated,
		kafka.EventTypeCartCleared,
	} {
		consumer.RegisterHandler(eventType, audit)
	}

	if err := consumer.Start(context.Background()); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to start audit consumer")
	}
}

func startHTTPServer(handler *remoteHTTP.CartHandler, port string) {
	// Setup router
	router := mux.NewRouter()

	// Register routes
	handler.RegisterRoutes(router)

	// Health check endpoint
	handler.RegisterHealthCheck(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	if err := http.ListenAndServe(":"+port, c.Handler(router)); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
