package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("open resources")
	}
	defer res.Close()

	services, err := res.Services(cfg)
	if err != nil {
		logger.WithError(err).Fatal("build services")
	}

	if err := bootstrap.Run(ctx, cfg, services, logger); err != nil {
		logger.WithError(err).Error("server error")
	}
}
