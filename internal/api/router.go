package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trackwire/shipment-tracking/internal/api/handler"
	"github.com/trackwire/shipment-tracking/internal/core/ports"
)

// RouterConfig carries everything the router needs beyond the service itself.
// Redis may be nil when webhook replay dedup is disabled.
type RouterConfig struct {
	Mongo          *mongo.Database
	Redis          *redis.Client
	Logger         zerolog.Logger
	StrictWebhooks bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(service ports.ShipmentService, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// HTTP metrics live in a per-router registry so building a second router
	// never trips duplicate registration; /metrics exposes them merged with
	// the default registry holding the application counters.
	promRegistry := prometheus.NewRegistry()
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "tracking",
		Registerer: promRegistry,
	}))

	// --- Webhook + query routes ---
	webhookHandler := handler.NewWebhookHandler(service, cfg.StrictWebhooks)
	e.POST("/webhook/jobs", webhookHandler.CreateJob)
	e.POST("/webhook/location", webhookHandler.UpdateLocation)
	e.GET("/jobs/:jobId", webhookHandler.GetJobLocation)

	// --- Health probes ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(cfg.Mongo, cfg.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{promRegistry, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
