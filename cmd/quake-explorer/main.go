package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/quake-explorer/internal/api"
	"github.com/mr1hm/quake-explorer/internal/config"
	"github.com/mr1hm/quake-explorer/internal/dashboard"
	"github.com/mr1hm/quake-explorer/internal/geodata"
	internalgrpc "github.com/mr1hm/quake-explorer/internal/grpc"
	"github.com/mr1hm/quake-explorer/internal/ingestion"
	"github.com/mr1hm/quake-explorer/internal/logging"
	"github.com/mr1hm/quake-explorer/internal/observability"
	"github.com/mr1hm/quake-explorer/internal/publish"
	"github.com/mr1hm/quake-explorer/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logger := logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "catalog", cfg.Catalog.Source)

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The catalog is required; without it there is nothing to show.
	loader := ingestion.NewLoader(cfg.Catalog.Timeout, logger)
	catalog, stats, err := loader.Load(ctx, cfg.Catalog.Source)
	if err != nil {
		var loadErr *ingestion.LoadError
		if errors.As(err, &loadErr) {
			logging.Fatalf("Failed to load catalog from %s: %v", loadErr.Source, loadErr.Err)
		}
		logging.Fatalf("Failed to load catalog: %v", err)
	}
	metrics.CatalogRecords.Set(float64(stats.Admitted))

	// Auxiliary layers load in the background and only degrade the map.
	geo := &geodata.Store{}
	geoDone := make(chan struct{})
	if cfg.Geodata.Enabled {
		geoLoader := geodata.NewLoader(geodata.Sources{
			WorldURL:  cfg.Geodata.WorldURL,
			PlatesURL: cfg.Geodata.PlatesURL,
		}, cfg.Geodata.Timeout, cfg.Worker.Count, logger, metrics)
		go func() {
			defer close(geoDone)
			geoLoader.LoadInto(ctx, geo)
		}()
	} else {
		close(geoDone)
	}

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	sync := dashboard.New(catalog,
		dashboard.WithLogger(logger),
		dashboard.WithMetrics(metrics),
		dashboard.WithViewport(float64(cfg.View.Width), float64(cfg.View.Height)),
	)

	broadcaster := internalgrpc.NewBroadcaster()
	sync.AddRenderer("stream", broadcaster)

	var publisher *publish.Publisher
	if cfg.Kafka.Enabled() {
		publisher = publish.NewPublisher(cfg.Kafka, logger)
		sync.AddRenderer("kafka", publisher)
		slog.Info("publishing snapshots to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	sync.Sync(ctx)

	grpcServer := internalgrpc.NewServer(sync, broadcaster)
	go func() {
		grpcAddr := fmt.Sprintf(":%d", cfg.GRPC.Port)
		if err := grpcServer.Start(grpcAddr); err != nil {
			logging.Fatalf("gRPC server error: %v", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(sync, db, geo, broadcaster)
	router := api.NewRouter(handler, cfg.Server.RateLimitRPS)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	<-geoDone
	sync.Close()
	broadcaster.Close()
	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			slog.Error("kafka writer close error", "error", err)
		}
	}

	slog.Info("shutdown complete")
}
