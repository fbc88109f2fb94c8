// Command api runs the shipment tracking webhook service.
//
// @title        Shipment Tracking API
// @version      1.0
// @description  Webhook-driven shipment tracking: job creation, GPS location
// @description  updates with significance filtering, and status/location query.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/trackwire/shipment-tracking/docs"
	"github.com/trackwire/shipment-tracking/internal/api"
	"github.com/trackwire/shipment-tracking/internal/core/service"
	"github.com/trackwire/shipment-tracking/internal/infrastructure/config"
	mongodb "github.com/trackwire/shipment-tracking/internal/infrastructure/db/mongo"
	redisdb "github.com/trackwire/shipment-tracking/internal/infrastructure/db/redis"
	"github.com/trackwire/shipment-tracking/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MongoDB is required: the client owns the connection pool shared by all
	// requests and is torn down once at shutdown.
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	repo := mongodb.NewShipmentRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure indexes")
	}

	// Redis is optional: without it the service runs with webhook replay
	// dedup disabled.
	var dedup service.DedupChecker
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, webhook replay dedup disabled")
		rdb = nil
	} else {
		dedup = redisdb.NewDedupChecker(rdb, cfg.Redis.DedupTTL)
		defer func() { _ = rdb.Close() }()
	}

	checker := service.NewConsistencyChecker(repo)
	shipmentService := service.NewShipmentService(repo, checker, dedup, log)

	e := api.NewRouter(shipmentService, api.RouterConfig{
		Mongo:          db,
		Redis:          rdb,
		Logger:         log,
		StrictWebhooks: cfg.StrictWebhooks,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("shipment tracking service started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
