// Package storage keeps the local transfer ledger: an append-only audit
// trail of completed round-up transfers. The ledger is write-mostly and is
// exported to the savings report by the worker; it is never an input to
// round-up eligibility, which is always re-derived from the bank feed.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// TransferRecord is one ledger row.
type TransferRecord struct {
	ID                   int64
	TransferUID          string
	AccountUID           string
	GoalUID              string
	AmountMinorUnits     int64
	Currency             string
	TotalSavedMinorUnits int64
	CreatedAt            time.Time
	Exported             bool
	ExportAttempts       int64
}

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(dbPath string) (*LedgerRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &LedgerRepository{db: db}, nil
}

func (r *LedgerRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// RecordTransfer appends one completed transfer and returns the ledger id.
func (r *LedgerRepository) RecordTransfer(ctx context.Context, rec TransferRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transfers (transfer_uid, account_uid, goal_uid, amount_minor_units, currency, total_saved_minor_units, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.TransferUID, rec.AccountUID, rec.GoalUID, rec.AmountMinorUnits, rec.Currency, rec.TotalSavedMinorUnits,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert transfer: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transfer recorded in ledger",
		"id", id,
		"transfer_uid", rec.TransferUID,
		"amount_minor_units", rec.AmountMinorUnits)

	return id, nil
}

// GetTransfer loads one ledger row by id.
func (r *LedgerRepository) GetTransfer(ctx context.Context, id int64) (TransferRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, transfer_uid, account_uid, goal_uid, amount_minor_units, currency, total_saved_minor_units, created_at, exported, export_attempts
		FROM transfers WHERE id = ?`, id)
	return scanTransfer(row)
}

// PendingExports returns the oldest ledger rows not yet exported, up to limit.
func (r *LedgerRepository) PendingExports(ctx context.Context, limit int) ([]TransferRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, transfer_uid, account_uid, goal_uid, amount_minor_units, currency, total_saved_minor_units, created_at, exported, export_attempts
		FROM transfers WHERE exported = 0 ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending exports: %w", err)
	}
	defer rows.Close()

	var out []TransferRecord
	for rows.Next() {
		rec, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkExported flags a ledger row as delivered to the savings report.
func (r *LedgerRepository) MarkExported(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE transfers SET exported = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

// MarkExportFailed bumps the attempt counter for a row that could not be
// exported; the periodic retry picks it up again.
func (r *LedgerRepository) MarkExportFailed(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE transfers SET export_attempts = export_attempts + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	return nil
}

// ListTransfers returns the most recent ledger rows, newest first.
func (r *LedgerRepository) ListTransfers(ctx context.Context, limit int) ([]TransferRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, transfer_uid, account_uid, goal_uid, amount_minor_units, currency, total_saved_minor_units, created_at, exported, export_attempts
		FROM transfers ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var out []TransferRecord
	for rows.Next() {
		rec, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (TransferRecord, error) {
	var rec TransferRecord
	var createdAt string
	if err := row.Scan(&rec.ID, &rec.TransferUID, &rec.AccountUID, &rec.GoalUID,
		&rec.AmountMinorUnits, &rec.Currency, &rec.TotalSavedMinorUnits,
		&createdAt, &rec.Exported, &rec.ExportAttempts); err != nil {
		return TransferRecord{}, fmt.Errorf("scan transfer: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return TransferRecord{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = ts
	return rec, nil
}
