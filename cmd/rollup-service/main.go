package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/websies/platform/internal/config"
	"github.com/websies/platform/internal/rollup"
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

	log = logger.WithService(log, "rollup-service")
	log.Info("Starting Rollup Service",
		zap.String("environment", cfg.Environment),
		zap.String("consumer_group", cfg.Kafka.Topic+"-rollup"),
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

	rollupRepo := rollup.NewRepository(db.DB, log)
	rollupService := rollup.NewService(rollupRepo, log)

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topics:         []string{cfg.Kafka.Topic},
		GroupID:        cfg.Kafka.Topic + "-rollup",
		AutoCommit:     true,
		CommitInterval: 1 * time.Second,
		SessionTimeout: 10 * time.Second,
	}, rollupService.CreateMessageHandler(), log)
	if err != nil {
		log.Fatal("Failed to create Kafka consumer", zap.Error(err))
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Error("Consumer error", zap.Error(err))
		}
	}()

	// Раз в час чистим кеш уникальных сессий
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rollupService.CleanupOldCache()
			case <-ctx.Done():
				return
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Rollup Service")
	cancel()
}
