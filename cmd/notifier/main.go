package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/ujyalokhet-storefront/internal/config"
	"github.com/example/ujyalokhet-storefront/internal/email"
	"github.com/example/ujyalokhet-storefront/internal/infrastructure/kafka"
	"github.com/example/ujyalokhet-storefront/internal/logging"
	"github.com/example/ujyalokhet-storefront/internal/notification"
)

// Dedicated consumer group for email notifications
const consumerGroup = "email-notifier"

func main() {
	cfg, err := config.Load(config.WithoutPayments())
	if err != nil {
		os.Stderr.WriteString("[Notifier] " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		os.Stderr.WriteString("[Notifier] failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()
	log := logging.Component(logger, "main")

	if !cfg.Kafka.Enabled() {
		log.Fatal("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("UjyaloKhet email notification service starting",
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", consumerGroup),
		zap.String("smtp", cfg.SMTP.Host+":"+cfg.SMTP.Port),
		zap.String("from", cfg.SMTP.From),
	)

	emailSvc := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	handler := notification.NewHandler(emailSvc, logger)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, consumerGroup, logger)
	defer consumer.Close()

	log.Info("starting event consumer")
	if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer error", zap.Error(err))
	}
	log.Info("shutting down")
}
