package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/trackapi/internal/config"
	"github.com/fieldops/trackapi/internal/db"
	dbMongo "github.com/fieldops/trackapi/internal/db/mongo"
	dbRedis "github.com/fieldops/trackapi/internal/db/redis"
	"github.com/fieldops/trackapi/internal/domain/resource"
	logpkg "github.com/fieldops/trackapi/internal/logger"
	"github.com/fieldops/trackapi/internal/metrics"
	recordrepo "github.com/fieldops/trackapi/internal/repository/record"
	chiTransport "github.com/fieldops/trackapi/internal/transport/chi"
	healthuc "github.com/fieldops/trackapi/internal/usecase/health"
	recorduc "github.com/fieldops/trackapi/internal/usecase/record"
	"github.com/fieldops/trackapi/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting trackapi server",
		zap.String("build", version.String()),
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	resources, err := cfg.BuildResources()
	if err != nil {
		logger.Fatal("Invalid resources", zap.Error(err))
	}
	registry, err := resource.NewRegistry(resources...)
	if err != nil {
		logger.Fatal("Invalid resources", zap.Error(err))
	}

	store, err := newStore(cfg.Database, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Backends that need per-collection setup (search indexes) get it before serving
	if preparer, ok := store.(db.CollectionPreparer); ok {
		for _, res := range registry.All() {
			coll := db.Collection{Database: res.Database(), Name: res.Collection()}
			if err := preparer.PrepareCollection(ctx, coll, res.Fields()); err != nil {
				logger.Fatal("Failed to prepare collection",
					zap.String("resource", res.Name()),
					zap.Stringer("collection", coll),
					zap.Error(err),
				)
			}
		}
	}

	// Register storage metrics explicitly (no init())
	metrics.RegisterStorageMetrics()

	recordRepo := recordrepo.New(store).WithMetrics(metrics.StorageQueryDuration, metrics.RecordsReturnedTotal)
	recordSvc := recorduc.New(recordRepo, registry)
	healthSvc := healthuc.New(store)

	server := chiTransport.NewServer(recordSvc, healthSvc, logger)

	r := chiTransport.NewRouter(server, logger, cfg.CORS.AllowedOrigins, metrics.Middleware())

	for _, res := range registry.All() {
		logger.Info("Serving resource",
			zap.String("path", "/api/"+res.Name()),
			zap.String("database", res.Database()),
			zap.String("collection", res.Collection()),
		)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newStore creates the database store selected by database.driver.
func newStore(dbCfg config.DatabaseConfig, storageCfg config.StorageConfig) (db.Store, error) {
	queryTimeout := time.Duration(dbCfg.QueryTimeoutSec) * time.Second

	// Return untyped nil on error: a nil *Store wrapped in db.Store is not nil.
	switch dbCfg.Driver {
	case config.DriverMongo:
		s, err := dbMongo.NewStore(dbMongo.Config{
			URI:            dbCfg.URI,
			QueryTimeout:   queryTimeout,
			ConnectTimeout: time.Duration(dbCfg.ReadinessTimeout) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:        dbCfg.Addrs,
			Username:     dbCfg.Username,
			Password:     dbCfg.Password,
			KeyPrefix:    storageCfg.KeyPrefix,
			PageSize:     storageCfg.PageSize,
			QueryTimeout: queryTimeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", dbCfg.Driver)
	}
}
