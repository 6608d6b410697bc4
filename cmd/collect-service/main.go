package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/websies/platform/internal/account"
	"github.com/websies/platform/internal/billing"
	"github.com/websies/platform/internal/collect"
	"github.com/websies/platform/internal/config"
	"github.com/websies/platform/internal/geo"
	"github.com/websies/platform/internal/middleware"
	"github.com/websies/platform/internal/referral"
	"github.com/websies/platform/pkg/kafka"
	"github.com/websies/platform/pkg/logger"
	"github.com/websies/platform/pkg/postgres"
	"go.uber.org/zap"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	log = logger.WithService(log, "collect-service")
	log.Info("Starting Collect Service",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.HTTPPort),
	)

	db, err := postgres.New(postgres.Config{
		DSN:             cfg.Postgres.PostgresDSN(),
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	// Ingestion keeps working without the broker: publishing is best-effort
	var producer collect.EventPublisher
	kafkaProducer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:          cfg.Kafka.Brokers,
		Topic:            cfg.Kafka.Topic,
		Retries:          cfg.Kafka.ProducerRetries,
		Timeout:          cfg.Kafka.ProducerTimeout,
		RequiredAcks:     cfg.Kafka.RequiredAcks,
		Compression:      cfg.Kafka.CompressionType,
		IdempotentWrites: cfg.Kafka.IdempotentWrites,
		MaxMessageBytes:  cfg.Kafka.MaxMessageBytes,
	}, log)
	if err != nil {
		log.Warn("Kafka unavailable, events will not be published downstream", zap.Error(err))
	} else {
		producer = kafkaProducer
		defer kafkaProducer.Close()
	}

	limiter := collect.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)

	collectRepo := collect.NewRepository(db, log)
	collectService := collect.NewService(collectRepo, limiter, geo.NewStatic(), producer, cfg.Collect.MaxBatchSize, log)
	collectHandler := collect.NewHandler(collectService, cfg.Collect.MaxBodyBytes, log)

	referralRepo := referral.NewRepository(db, log)
	referralService := referral.NewService(referralRepo, log)
	referralHandler := referral.NewHandler(referralService, log)

	authProvider := account.NewHTTPProvider(cfg.Auth.BaseURL, cfg.Auth.APIKey)
	accountRepo := account.NewRepository(db, log)
	accountService := account.NewService(authProvider, accountRepo, referralService, log)
	accountHandler := account.NewHandler(accountService, log)

	billingService := billing.NewService(cfg.AppBaseURL, log)
	billingHandler := billing.NewHandler(billingService, log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logging(log))
	r.Use(middleware.Locale)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := db.HealthCheck(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/api/analytics/collect", collectHandler.Collect)

	r.Post("/api/auth/signup", accountHandler.Signup)
	r.Post("/api/auth/logout", accountHandler.Logout)

	r.Post("/api/billing/checkout", billingHandler.Checkout)
	r.Get("/api/billing/customer", billingHandler.Customer)
	r.Post("/api/billing/webhooks", billingHandler.Webhook)

	r.Get("/api/referrals/{userID}", referralHandler.List)
	r.Get("/api/referrals/{userID}/stats", referralHandler.Stats)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown HTTP server timed out", zap.Error(err))
	}
	log.Info("HTTP server stopped")
}
