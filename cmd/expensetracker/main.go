package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	"expensetracker/internal/events"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
	"expensetracker/internal/retry"
	"expensetracker/internal/services"
	"expensetracker/internal/session"
	"expensetracker/internal/store/appwrite"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}

	backendCfg := backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		Appwrite: appwrite.Config{
			Endpoint:     cfg.AppwriteEndpoint,
			ProjectID:    cfg.AppwriteProjectID,
			DatabaseID:   cfg.AppwriteDatabaseID,
			CollectionID: cfg.AppwriteCollectionID,
			BucketID:     cfg.AppwriteBucketID,
		},
	}
	result, err := backend.Open(backendCfg, logger.WithComponent(applog.ComponentBackend).Logger)
	if err != nil {
		logger.Error("failed to open backend",
			applog.FieldError, err.Error(),
			"backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("backend cleanup failed", applog.FieldError, err.Error())
		}
	}()

	// Events are optional; record operations proceed without a broker.
	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to connect to AMQP, continuing without events",
				applog.FieldError, err.Error())
		} else {
			defer publisher.Close()
			logger.Info("connected to AMQP",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	sessions := session.New(result.Store, retry.Policy{
		MaxAttempts: cfg.LoginMaxAttempts,
		Delay:       cfg.LoginRetryDelay,
	}, logger.WithComponent(applog.ComponentSession).Logger)

	expenses := services.NewExpenseService(result.Store, result.Store, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, sessions, expenses, logger, apphttp.Options{
		PageSize:      cfg.PageSize,
		ListCacheSize: cfg.ListCacheSize,
		ListCacheTTL:  cfg.ListCacheTTL,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", applog.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("starting expensetracker server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"page_size", cfg.PageSize)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
