package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/email"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logging"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	if !cfg.Kafka.Enabled() {
		logger.Fatal("kafka brokers are not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic,
		logger.WithField("component", "kafka-consumer"))
	defer consumer.Close()

	sender := email.NewSender(logger.WithField("component", "email"))

	logger.WithField("topic", cfg.Kafka.NotificationsTopic).Info("worker started")
	if err := consumer.ConsumeBookingEvents(ctx, sender.Send); err != nil {
		logger.WithError(err).Error("consumer stopped")
		return
	}
	logger.Info("worker stopped")
}
