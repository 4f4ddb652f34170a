package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"tesoreria/internal/amqp"
	"tesoreria/internal/config"
	apphttp "tesoreria/internal/http"
	"tesoreria/internal/log"
	"tesoreria/internal/services"
	"tesoreria/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

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

	// AMQP is optional: without a broker the engine still serves reads
	// and writes, it just skips lifecycle events and report exports.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPEventsQueue, cfg.AMQPExportsQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without messaging", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	} else {
		logger.Info("AMQP disabled - no lifecycle events or report exports")
	}

	stats := services.NewStatsService(repo)
	deps := apphttp.Deps{
		Ledger:     repo,
		Stats:      stats,
		Dashboards: services.NewDashboardService(stats),
		Reports:    services.NewReportService(stats),
		Forecasts:  services.NewForecastService(repo),
	}
	if amqpClient != nil {
		deps.Subscriptions = services.NewSubscriptionService(repo, amqpClient)
		deps.Exports = amqpClient
	} else {
		deps.Subscriptions = services.NewSubscriptionService(repo, nil)
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)
	srv.Handler = log.RequestLogger(logger.WithComponent(log.ComponentHTTP))(srv.Handler)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting tesoreria server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
