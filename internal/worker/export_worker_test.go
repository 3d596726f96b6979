package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"roundup/internal/amqp"
	memexport "roundup/internal/export/memory"
	"roundup/internal/storage"
)

func newTestLedger(t *testing.T) *storage.LedgerRepository {
	t.Helper()
	ledger, err := storage.NewLedgerRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func record(t *testing.T, ledger *storage.LedgerRepository, uid string) int64 {
	t.Helper()
	id, err := ledger.RecordTransfer(context.Background(), storage.TransferRecord{
		TransferUID: uid, AccountUID: "acc", GoalUID: "goal",
		AmountMinorUnits: 51, Currency: "GBP",
	})
	if err != nil {
		t.Fatalf("record transfer: %v", err)
	}
	return id
}

func TestHandleTransferEvent(t *testing.T) {
	ledger := newTestLedger(t)
	report := memexport.New()
	w := NewExportWorker(ledger, report, 10)
	ctx := context.Background()

	id := record(t, ledger, "uid-1")

	if err := w.HandleTransferEvent(ctx, &amqp.TransferRecordedMessage{LedgerID: id}); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	rows := report.Rows()
	if len(rows) != 1 || rows[0].TransferUID != "uid-1" {
		t.Fatalf("report rows = %+v, want one uid-1 row", rows)
	}

	rec, err := ledger.GetTransfer(ctx, id)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if !rec.Exported {
		t.Fatal("transfer not marked exported")
	}

	// A redelivered event must not duplicate the row.
	if err := w.HandleTransferEvent(ctx, &amqp.TransferRecordedMessage{LedgerID: id}); err != nil {
		t.Fatalf("redelivered event: %v", err)
	}
	if got := len(report.Rows()); got != 1 {
		t.Fatalf("expected 1 row after redelivery, got %d", got)
	}
}

func TestHandleTransferEventUnknownID(t *testing.T) {
	w := NewExportWorker(newTestLedger(t), memexport.New(), 10)

	err := w.HandleTransferEvent(context.Background(), &amqp.TransferRecordedMessage{LedgerID: 999})
	if err == nil {
		t.Fatal("expected error for unknown ledger id")
	}
}

func TestProcessPending(t *testing.T) {
	ledger := newTestLedger(t)
	report := memexport.New()
	w := NewExportWorker(ledger, report, 10)
	ctx := context.Background()

	record(t, ledger, "a")
	record(t, ledger, "b")

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if got := len(report.Rows()); got != 2 {
		t.Fatalf("expected 2 exported rows, got %d", got)
	}

	pending, err := ledger.PendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("pending exports: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows, got %d", len(pending))
	}
}

type failingExporter struct{}

func (failingExporter) AppendTransfer(context.Context, storage.TransferRecord) error {
	return errors.New("report unavailable")
}

func TestProcessPendingRecordsFailure(t *testing.T) {
	ledger := newTestLedger(t)
	w := NewExportWorker(ledger, failingExporter{}, 10)
	ctx := context.Background()

	id := record(t, ledger, "a")

	if err := w.ProcessPending(ctx); err == nil {
		t.Fatal("expected export failure")
	}

	rec, err := ledger.GetTransfer(ctx, id)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if rec.Exported {
		t.Fatal("failed export must not be marked exported")
	}
	if rec.ExportAttempts != 1 {
		t.Fatalf("export attempts = %d, want 1", rec.ExportAttempts)
	}
}
