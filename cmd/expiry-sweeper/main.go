package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"tesoreria/internal/amqp"
	"tesoreria/internal/config"
	"tesoreria/internal/log"
	"tesoreria/internal/services"
	"tesoreria/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentSweeper})
	log.SetDefault(logger)

	logger.Info("Starting expiry-sweeper")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Expiry events drive the renewal reminder mails; the sweep itself
	// works fine without a broker.
	var events services.SubscriptionEvents
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPEventsQueue, cfg.AMQPExportsQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, sweeping without events", "error", err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
		}
	} else {
		logger.Info("AMQP disabled - expiry events will not be published")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Sweeping expired subscriptions", "interval", cfg.SweepInterval)
	services.NewSweeper(repo, events, cfg.SweepInterval).Run(ctx)

	logger.Info("Expiry-sweeper stopped gracefully")
}
