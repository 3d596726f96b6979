// Package export defines the outbound port for the savings report: the
// destination the transfer ledger is replicated to.
package export

import (
	"context"

	"roundup/internal/storage"
)

// TransferExporter appends one ledger row to the savings report.
type TransferExporter interface {
	AppendTransfer(ctx context.Context, rec storage.TransferRecord) error
}
