// Package worker drains the transfer ledger into the savings report.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"roundup/internal/amqp"
	"roundup/internal/export"
	"roundup/internal/storage"
)

// ExportWorker replicates ledger rows to the savings report. It is driven by
// transfer-recorded events and by a periodic sweep that retries rows a
// previous attempt left behind.
type ExportWorker struct {
	ledger    *storage.LedgerRepository
	exporter  export.TransferExporter
	batchSize int
}

func NewExportWorker(ledger *storage.LedgerRepository, exporter export.TransferExporter, batchSize int) *ExportWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &ExportWorker{
		ledger:    ledger,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleTransferEvent processes one transfer-recorded event from AMQP.
func (w *ExportWorker) HandleTransferEvent(ctx context.Context, msg *amqp.TransferRecordedMessage) error {
	rec, err := w.ledger.GetTransfer(ctx, msg.LedgerID)
	if err != nil {
		return fmt.Errorf("get transfer from ledger: %w", err)
	}

	if rec.Exported {
		slog.InfoContext(ctx, "Transfer already exported, skipping", "id", rec.ID)
		return nil
	}

	return w.exportOne(ctx, rec)
}

// ProcessPending sweeps unexported rows in batches. Called at startup and on
// the periodic ticker so missed events are eventually delivered.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.ledger.PendingExports(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Exporting pending transfers", "count", len(pending))

	var firstErr error
	for _, rec := range pending {
		if err := w.exportOne(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (w *ExportWorker) exportOne(ctx context.Context, rec storage.TransferRecord) error {
	if err := w.exporter.AppendTransfer(ctx, rec); err != nil {
		if markErr := w.ledger.MarkExportFailed(ctx, rec.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record export attempt", "id", rec.ID, "error", markErr)
		}
		return fmt.Errorf("export transfer %d: %w", rec.ID, err)
	}

	if err := w.ledger.MarkExported(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark transfer %d exported: %w", rec.ID, err)
	}

	slog.InfoContext(ctx, "Transfer exported",
		"id", rec.ID,
		"transfer_uid", rec.TransferUID)

	return nil
}
