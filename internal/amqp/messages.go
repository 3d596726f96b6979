package amqp

import (
	"encoding/json"
	"time"
)

// TransferRecordedMessage announces that a round-up transfer was written to
// the local ledger. It carries only the ledger id; the worker loads the full
// row from the database before exporting it.
type TransferRecordedMessage struct {
	LedgerID  int64     `json:"ledger_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransferRecordedMessage(ledgerID int64) *TransferRecordedMessage {
	return &TransferRecordedMessage{
		LedgerID:  ledgerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransferRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransferRecordedMessageFromJSON decodes a message from JSON bytes.
func TransferRecordedMessageFromJSON(data []byte) (*TransferRecordedMessage, error) {
	var msg TransferRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
