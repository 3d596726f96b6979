package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"roundup/internal/amqp"
	"roundup/internal/bank"
	memorybank "roundup/internal/bank/memory"
	"roundup/internal/bank/starling"
	"roundup/internal/cli"
	apphttp "roundup/internal/http"
	applog "roundup/internal/log"
	"roundup/internal/services"
	"roundup/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	// Choose the banking backend (default: in-memory demo feed).
	var client bank.Client
	switch cfg.BankBackend {
	case "starling":
		c, err := starling.New(starling.Config{
			BaseURL:              cfg.BankBaseURL,
			Token:                cfg.BankToken,
			GoalName:             cfg.GoalName,
			GoalTargetMinorUnits: cfg.GoalTargetMinorUnits,
			Currency:             cfg.Currency,
		})
		if err != nil {
			logger.Error("Failed to initialize bank client", "error", err, "backend", cfg.BankBackend)
			os.Exit(1)
		}
		client = c
		logger.Info("Initialized Starling backend", "base_url", cfg.BankBaseURL)
	default:
		client = memorybank.NewSeeded(cfg.GoalName, cfg.Currency, cfg.GoalTargetMinorUnits)
		logger.Info("Initialized memory backend", "backend", cfg.BankBackend)
	}

	// Transfer ledger is best effort: the API keeps working without it, the
	// savings report just has nothing to export.
	var ledger *storage.LedgerRepository
	if l, err := storage.NewLedgerRepository(cfg.SQLiteDBPath); err != nil {
		logger.Warn("Transfer ledger unavailable, transfers will not be recorded", "error", err, "path", cfg.SQLiteDBPath)
	} else {
		ledger = l
		defer ledger.Close()
	}

	// AMQP is optional too; without it the worker falls back to its
	// periodic ledger sweep.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		if c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue); err != nil {
			logger.Warn("AMQP unavailable, transfer events disabled", "error", err)
		} else {
			events = c
			defer events.Close()
		}
	}

	statusService := services.NewStatusService(client, client, cfg.GoalName)
	transferService := services.NewTransferService(client, statusService, ledger, events, cfg.GoalName, cfg.Currency)

	appLogger := applog.New(applog.DefaultConfig())
	srv := apphttp.NewServer(":"+cfg.Port, statusService, transferService, client, ledger, appLogger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting roundup server", "port", cfg.Port, "backend", cfg.BankBackend, "goal", cfg.GoalName)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
