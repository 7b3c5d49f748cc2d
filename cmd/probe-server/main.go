package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apiprobe/pkg/auth"
	"apiprobe/pkg/config"
	"apiprobe/pkg/hoststats"
	"apiprobe/pkg/metrics"
	"apiprobe/pkg/probe"
	"apiprobe/pkg/relay"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	// Setup logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load configuration from the optional file and environment variables
	configPath := getEnv("CONFIG_PATH", "")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("config_path", configPath).Msg("Failed to load config")
	}
	logger = logger.Level(cfg.Level())

	// Metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Initialize probe service
	service, err := probe.NewService(relay.New(), probe.ServiceConfig{
		StoragePath:  cfg.StoragePath,
		CallTimeout:  cfg.RelayTimeout,
		Grace:        cfg.ProbeGrace,
		ProxyTimeout: cfg.ProxyTimeout,
	}, m, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create probe service")
	}

	tokens := auth.NewTokenService(cfg.JWTSigningKey, cfg.JWTIssuer)
	metricsHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	apiHandler := NewAPIHandler(service, hoststats.NewSampler(200*time.Millisecond), metricsHandler, logger)

	// Set up Gin router
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())

	// Register OpenAPI generated routes
	if err := apiHandler.Register(router, tokens); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register API routes")
	}

	// Create HTTP server. No write timeout: a probe response takes up to the
	// probe duration plus the grace period.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("storage_path", cfg.StoragePath).
			Dur("relay_timeout", cfg.RelayTimeout).
			Msg("Starting probe server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Running probes finish on their own deadline; give them the shutdown window
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

// requestLogger writes one access log line per request
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(startTime)).
			Str("client_ip", c.ClientIP()).
			Msg("Request handled")
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
