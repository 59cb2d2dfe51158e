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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/almahra/cart-engine/internal/cart"
	"github.com/almahra/cart-engine/internal/cart/cache"
	httpDelivery "github.com/almahra/cart-engine/internal/cart/delivery/http"
	cartsync "github.com/almahra/cart-engine/internal/cart/sync"
	"github.com/almahra/cart-engine/kafka"
	"github.com/almahra/cart-engine/pkg/logger"
	"github.com/almahra/cart-engine/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "cart-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting cart service")

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

	// Snapshot backend: Redis when configured, in-memory otherwise
	var snap cache.Snapshotter
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Logger.Fatal().Err(err).Str("addr", redisAddr).Msg("Failed to connect to Redis")
		}
		defer client.Close()

		snapshotTTL, err := time.ParseDuration(getEnv("SNAPSHOT_TTL", "720h"))
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Invalid SNAPSHOT_TTL")
		}

		snap = cache.NewRedisSnapshotter(client, snapshotTTL)
		logger.Logger.Info().Str("addr", redisAddr).Msg("Using Redis snapshot store")
	} else {
		snap = cache.NewMemorySnapshotter()
		logger.Logger.Warn().Msg("REDIS_ADDR not set, cart snapshots are in-memory only")
	}

	// Kafka publisher for cart activity events (optional)
	var publisher *kafka.Publisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		publisher, err = kafka.NewPublisher(strings.Split(brokers, ","))
		if err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to connect to Kafka, events disabled")
			publisher = nil
		} else {
			defer publisher.Close()
			logger.Logger.Info().Str("brokers", brokers).Msg("Kafka publisher initialized")
		}
	}

	// Fold policy used when a guest cart meets a remote cart at login
	policy := cartsync.FoldMerge
	if getEnv("LOGIN_FOLD_POLICY", "merge") == "replace" {
		policy = cartsync.FoldReplace
	}

	remoteURL := cart.RemoteURL(os.Getenv("CART_SERVER_URL"))
	if remoteURL == "" {
		logger.Logger.Warn().Msg("CART_SERVER_URL not set, remote synchronization disabled")
	}

	// Initialize handler with Wire DI
	handler, err := cart.InitializeCartHandler(snap, remoteURL, policy, publisher, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}
	defer handler.Sessions().Close()

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8084")
	go startHTTPServer(handler, httpPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

func startHTTPServer(handler *httpDelivery.CartHandler, port string) {
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
		ExposedHeaders:   []string{"X-Session-ID"},
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
