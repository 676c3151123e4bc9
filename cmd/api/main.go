package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	rd "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/viveo-rs/viveo-backend/internal/auth"
	"github.com/viveo-rs/viveo-backend/internal/catalog"
	"github.com/viveo-rs/viveo-backend/internal/config"
	"github.com/viveo-rs/viveo-backend/internal/httpapi"
	"github.com/viveo-rs/viveo-backend/internal/inventory"
	"github.com/viveo-rs/viveo-backend/internal/lifecycle"
	"github.com/viveo-rs/viveo-backend/internal/messaging"
	"github.com/viveo-rs/viveo-backend/internal/notification"
	"github.com/viveo-rs/viveo-backend/internal/orders"
	"github.com/viveo-rs/viveo-backend/internal/reviews"
	"github.com/viveo-rs/viveo-backend/internal/storage"
	"github.com/viveo-rs/viveo-backend/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.PostgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	metricsHandler, shutdownTelemetry, err := telemetry.Init(ctx, "api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTelemetry(ctx) }()

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = messaging.NewProducer(cfg.KafkaBrokers, notification.Topic)
		defer func() { _ = producer.Close() }()
	}
	publisher := notification.NewPublisher(producer, logger)

	var redisClient *rd.Client
	if cfg.RedisAddr != "" {
		redisClient = rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer func() { _ = redisClient.Close() }()
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	videoRepo := orders.NewVideoOrderRepository(db)
	merchRepo := orders.NewMerchOrderRepository(db)
	digitalRepo := orders.NewDigitalOrderRepository(db)
	catalogRepo := catalog.NewRepository(db)
	reviewRepo := reviews.NewRepository(db)
	inventoryRepo := inventory.NewRepository(db)

	downloadURL := func(orderID, token string) string {
		return fmt.Sprintf("%s/api/digital-orders/%s/download?token=%s", cfg.PublicURL, orderID, token)
	}
	manager := lifecycle.NewManager(
		orders.NewLifecycleStore(videoRepo, merchRepo, digitalRepo),
		inventoryRepo,
		publisher,
		downloadURL,
		logger,
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Catalog:    catalogRepo,
		Video:      videoRepo,
		Merch:      merchRepo,
		Digital:    digitalRepo,
		Reviews:    reviewRepo,
		Inventory:  inventoryRepo,
		Manager:    manager,
		Publisher:  publisher,
		Storage:    storage.NewClient(cfg.StorageURL, cfg.StorageKey, httpClient),
		Auth:       auth.NewClient(cfg.AuthURL, cfg.AuthKey, httpClient),
		Redis:      redisClient,
		RateLimit:  cfg.RateLimit,
		RateWindow: cfg.RateWindow,
		Logger:     logger,
	})

	root := http.NewServeMux()
	root.Handle("GET /metrics", metricsHandler)
	root.Handle("/", router)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(root, "api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting api", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
