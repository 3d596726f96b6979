// Package memory is an in-memory savings report, used when no Google Sheets
// destination is configured and in tests.
package memory

import (
	"context"
	"sync"

	"roundup/internal/export"
	"roundup/internal/storage"
)

type Report struct {
	mu   sync.Mutex
	rows []storage.TransferRecord
}

// Ensure interface conformance
var _ export.TransferExporter = (*Report)(nil)

func New() *Report {
	return &Report{}
}

func (r *Report) AppendTransfer(_ context.Context, rec storage.TransferRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rec)
	return nil
}

// Rows returns a copy of everything appended so far.
func (r *Report) Rows() []storage.TransferRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]storage.TransferRecord{}, r.rows...)
}
