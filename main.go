package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"orderbackend/internal/cache"
	"orderbackend/internal/carrier"
	"orderbackend/internal/config"
	"orderbackend/internal/database"
	"orderbackend/internal/gateway"
	"orderbackend/internal/handlers"
	"orderbackend/internal/logging"
	"orderbackend/internal/orders"
	"orderbackend/internal/shipping"
	"orderbackend/internal/store"
)

func main() {
	fallbackLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		fallbackLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	client, err := database.Connect(context.Background(), cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Warn("mongo disconnect failed", "error", err)
		}
	}()

	db := client.Database(cfg.DBName)
	logger.Info("MongoDB connected", "database", db.Name())

	dbLogger := logger.With("component", "database")
	if err := database.EnsureOrderIndexes(db, dbLogger); err != nil {
		logger.Warn("order index warning", "error", err)
	}
	if err := database.EnsurePendingPaymentIndexes(db, cfg.PendingPaymentRetention, dbLogger); err != nil {
		logger.Warn("pending payment index warning", "error", err)
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		return err
	}
	defer cacheProvider.Close()

	repo := store.NewMongoStore(db, logger.With("component", "store"))

	carrierLogger := logger.With("component", "carrier")
	carrierClient := carrier.NewClient(carrier.Config{
		BaseURL:         cfg.CarrierBaseURL,
		Email:           cfg.CarrierEmail,
		Password:        cfg.CarrierPassword,
		PickupPostcode:  cfg.CarrierPickupPostcode,
		PickupLocation:  cfg.CarrierPickupLocation,
		TrackingURLBase: cfg.CarrierTrackingURL,
		Timeout:         cfg.HTTPTimeout,
	}, carrier.NewTokenCache(cacheProvider, cfg.CarrierTokenTTL, carrierLogger), carrierLogger)
	if !carrierClient.Configured() {
		logger.Warn("carrier credentials missing, shipping quotes will use the flat rate")
	}

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.GatewayBaseURL,
		KeyID:     cfg.GatewayKeyID,
		KeySecret: cfg.GatewayKeySecret,
		Currency:  cfg.GatewayCurrency,
		DevMode:   cfg.PaymentDevMode,
		Timeout:   cfg.HTTPTimeout,
	}, logger.With("component", "gateway"))
	if !cfg.GatewayConfigured() {
		logger.Warn("payment gateway credentials missing")
	}
	logger.Info("payment gateway ready", "currency", gatewayClient.Currency(), "key_id", gatewayClient.KeyID())
	if gatewayClient.DevMode() {
		logger.Warn("payment dev mode enabled, placeholder orders and unsigned confirmations are accepted")
	}

	quotes := shipping.NewService(carrierClient, repo, shipping.Config{
		FlatRate:          cfg.ShippingFlatRate,
		DefaultUnitWeight: cfg.ShippingDefaultUnitWeight,
		FallbackETA:       cfg.ShippingFallbackETA,
	}, logger.With("component", "shipping"))

	orderService := orders.NewService(repo, gatewayClient, carrierClient, quotes, logger.With("component", "orders"))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Orders:   orderService,
		Shipping: quotes,
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, client)
		},
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
