package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/ujyalokhet-storefront/internal/api"
	"github.com/example/ujyalokhet-storefront/internal/auth"
	"github.com/example/ujyalokhet-storefront/internal/backend"
	"github.com/example/ujyalokhet-storefront/internal/command"
	"github.com/example/ujyalokhet-storefront/internal/config"
	"github.com/example/ujyalokhet-storefront/internal/events"
	"github.com/example/ujyalokhet-storefront/internal/infrastructure/kafka"
	"github.com/example/ujyalokhet-storefront/internal/infrastructure/store"
	"github.com/example/ujyalokhet-storefront/internal/logging"
	"github.com/example/ujyalokhet-storefront/internal/payment/esewa"
	"github.com/example/ujyalokhet-storefront/internal/query"
	"github.com/example/ujyalokhet-storefront/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("[API] " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		os.Stderr.WriteString("[API] failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()
	log := logging.Component(logger, "main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("UjyaloKhet storefront starting",
		zap.String("addr", cfg.Server.Addr),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("storage", cfg.Storage.Driver),
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
		zap.String("esewa_product_code", cfg.ESewa.ProductCode),
		zap.Bool("esewa_unsigned_fallback", cfg.ESewa.AllowUnsignedFallback),
		zap.Bool("jwt_verification", cfg.Auth.JWTSecret != ""),
	)

	// Storage for carts, pending payments and saved addresses
	slot, closeSlot, err := openSlot(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open storage", zap.Error(err))
	}
	defer closeSlot()

	// Event stream
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		log.Info("publishing events to Kafka", zap.String("topic", cfg.Kafka.Topic))
	} else {
		log.Info("no Kafka brokers configured, events are dropped")
	}

	inspector := auth.NewInspector(cfg.Auth.JWTSecret)
	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout,
		backend.WithLogger(logger),
		backend.WithInspector(inspector),
	)

	registry := session.NewRegistry(slot, publisher,
		session.WithLogger(logger),
		session.WithIdleTTL(cfg.Server.SessionIdleTTL),
	)
	go registry.Run(ctx, time.Minute)
	addresses := session.NewAddressBook(slot)
	pending := esewa.NewPendingStore(slot)

	builder := esewa.NewRequestBuilder(esewa.BuilderConfig{
		SecretKey:   cfg.ESewa.SecretKey,
		ProductCode: cfg.ESewa.ProductCode,
		FormURL:     cfg.ESewa.FormURL,
		SuccessURL:  cfg.SuccessURL(),
		FailureURL:  cfg.FailureURL(),
	})
	processor := esewa.NewProcessor(esewa.ProcessorConfig{
		SecretKey:             cfg.ESewa.SecretKey,
		ProductCode:           cfg.ESewa.ProductCode,
		AllowUnsignedFallback: cfg.ESewa.AllowUnsignedFallback,
		LatchWindow:           cfg.ESewa.LatchWindow,
	}, pending, esewa.WithProcessorLogger(logger))

	cmdHandler := command.NewHandler(command.Deps{
		Catalog:   client,
		Orders:    client,
		Carts:     registry,
		Addresses: addresses,
		Payments:  builder,
		Pending:   pending,
		Callbacks: processor,
		Tokens:    inspector,
		Publisher: publisher,
		Logger:    logger,
	})
	queryHandler := query.NewHandler(registry, client, addresses, logger)

	router := api.NewRouter(api.RouterConfig{
		Handlers:       api.NewHandlers(cmdHandler, queryHandler, logger),
		Inspector:      inspector,
		Logger:         logger,
		RequestTimeout: cfg.Backend.Timeout + 5*time.Second,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// openSlot returns the configured storage slot and a func releasing it.
func openSlot(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Slot, func(), error) {
	if cfg.Storage.Driver != config.StoragePostgres {
		log.Info("using in-memory storage; carts are lost on restart")
		return store.NewMemorySlot(), func() {}, nil
	}

	db, err := store.ConnectPostgres(cfg.Storage.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	slot := store.NewPostgresSlot(db)
	if err := slot.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("connected to PostgreSQL")
	return slot, func() { db.Close() }, nil
}
