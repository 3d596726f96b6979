package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"roundup/internal/amqp"
	"roundup/internal/cli"
	"roundup/internal/export"
	googleexport "roundup/internal/export/google"
	memoryexport "roundup/internal/export/memory"
	"roundup/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting roundup-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// Open the transfer ledger written by the API server.
	ledger := cli.InitLedger(logger, cfg.SQLiteDBPath)
	defer ledger.Close()

	// Savings report destination: Google Sheets when configured, otherwise
	// an in-memory sink so the export pipeline still drains the ledger.
	var exporter export.TransferExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := googleexport.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize savings report client", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Savings report client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = memoryexport.New()
		logger.Info("Savings report disabled - no GOOGLE_SPREADSHEET_ID provided, using in-memory sink")
	}

	exportWorker := worker.NewExportWorker(ledger, exporter, cfg.ExportBatchSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// On startup, drain rows a previous run left behind.
	logger.Info("Performing startup export check...")
	if err := exportWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup export check failed", "error", err)
		// Keep running, the periodic sweep retries.
	}

	g, gctx := errgroup.WithContext(ctx)

	// Consume transfer-recorded events, reconnecting on broker failures.
	g.Go(func() error {
		err := amqp.ConsumeWithReconnect(gctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, exportWorker.HandleTransferEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", "error", err)
			return err
		}
		return nil
	})

	// Periodic sweep catches events lost while the worker was down.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := exportWorker.ProcessPending(gctx); err != nil {
					logger.Error("Periodic export failed", "error", err)
				}
			}
		}
	})

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-gctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	waitDone := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
