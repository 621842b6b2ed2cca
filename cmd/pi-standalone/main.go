package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tuanvumaihuynh/product-inventory/internal/config"
	"github.com/tuanvumaihuynh/product-inventory/internal/event"
	"github.com/tuanvumaihuynh/product-inventory/internal/http"
	"github.com/tuanvumaihuynh/product-inventory/internal/log"
	"github.com/tuanvumaihuynh/product-inventory/internal/relay"
	"github.com/tuanvumaihuynh/product-inventory/internal/repository"
	"github.com/tuanvumaihuynh/product-inventory/internal/service"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/db"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/mq"
	"github.com/tuanvumaihuynh/product-inventory/internal/telemetry"
	"github.com/tuanvumaihuynh/product-inventory/pkg/cmdutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running standalone application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		HTTP     config.HTTP
		Relay    config.Relay
		Kafka    config.Kafka
		Otel     config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)
	interruptChan := cmdutil.InterruptChan()

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	if cfg.Postgres.AutoMigrate {
		if err := db.Migrate(ctx, pgxPool); err != nil {
			return fmt.Errorf("error migrating database: %w", err)
		}
		logger.InfoContext(ctx, "database migration completed successfully")
	}

	dbClient := db.NewClient(pgxPool)

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka consumer: %w", err)
	}
	defer kafkaConsumer.Close()

	productRepository := repository.NewProductRepository(dbClient)
	stockMovementRepository := repository.NewStockMovementRepository(dbClient)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	productService := service.NewProductService(logger, dbClient, productRepository, stockMovementRepository, outboxMsgRepository)
	stockService := service.NewStockService(logger, dbClient, productRepository, stockMovementRepository, outboxMsgRepository)

	httpService, err := http.New(cfg.HTTP, logger, prometheus.DefaultRegisterer, dbClient, productService, stockService)
	if err != nil {
		return fmt.Errorf("error creating http service: %w", err)
	}

	eventService := event.New(logger, kafkaConsumer)
	cleanupEvent, err := eventService.Run(ctx)
	if err != nil {
		return fmt.Errorf("error running event service: %w", err)
	}
	logger.InfoContext(ctx, "event service started")

	cleanupHTTP, err := httpService.Run(ctx)
	if err != nil {
		cleanupEvent()
		return fmt.Errorf("error running http service: %w", err)
	}

	relayService := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, kafkaProducer)
	cleanupRelay := relayService.Run(ctx)
	logger.InfoContext(ctx, "relay service started")

	<-interruptChan

	var wg sync.WaitGroup

	wg.Go(func() {
		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanupHTTP(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}
		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Go(func() {
		logger.InfoContext(ctx, "relay service is shutting down")
		cleanupRelay()
		logger.InfoContext(ctx, "relay service is stopped")
	})

	wg.Go(func() {
		logger.InfoContext(ctx, "event service is shutting down")
		cleanupEvent()
		logger.InfoContext(ctx, "event service is stopped")
	})

	wg.Wait()

	return nil
}
