// Package core holds the pure domain of the round-up engine: transaction
// values, classification, the round-up calculator and the cooldown rules.
//
// Everything in this package is side-effect free. Wall-clock time is always
// passed in by the caller so behaviour is deterministic under test.
package core

import (
	"errors"
	"time"
)

// Transaction sources as reported by the bank feed.
const (
	SourceInternalTransfer = "INTERNAL_TRANSFER"
	SourceCard             = "MASTER_CARD"
)

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

type (
	// Direction is the side of a transaction relative to the main account.
	Direction string

	// Money is an amount in integer minor units of a single currency.
	// All arithmetic stays in minor units; there is no float path.
	Money struct {
		Currency   string `json:"currency"`
		MinorUnits int64  `json:"minorUnits"`
	}

	// Transaction is one feed item as received from the bank. It is a
	// value: the feed is re-fetched rather than patched, so a Transaction
	// never mutates after being decoded.
	Transaction struct {
		FeedItemUID      string    `json:"feedItemUid"`
		Amount           Money     `json:"amount"`
		Direction        Direction `json:"direction"`
		TransactionTime  time.Time `json:"transactionTime"`
		Source           string    `json:"source"`
		CounterPartyName string    `json:"counterPartyName,omitempty"`
		Reference        string    `json:"reference,omitempty"`
	}

	// Account identifies the primary account and its default feed category.
	Account struct {
		AccountUID      string `json:"accountUid"`
		DefaultCategory string `json:"defaultCategory"`
	}

	// SavingsGoal is an external entity, referenced but not owned here.
	SavingsGoal struct {
		SavingsGoalUID string `json:"savingsGoalUid"`
		Name           string `json:"name"`
		TotalSaved     Money  `json:"totalSaved"`
	}

	// RoundUpStatus is the composite derived from one feed snapshot. It is
	// rebuilt wholesale on every refresh and never partially mutated.
	// LastRoundUpAt is the zero time when no prior transfer was observed.
	RoundUpStatus struct {
		AccountUID        string        `json:"accountUid"`
		RoundUpAmount     int64         `json:"roundUpAmountMinorUnits"`
		CooldownActive    bool          `json:"cooldownActive"`
		LastRoundUpAt     time.Time     `json:"lastRoundUpAt,omitzero"`
		HasPendingRoundUp bool          `json:"hasPendingRoundUp"`
		Transactions      []Transaction `json:"transactions"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNothingToTransfer = errors.New("nothing to transfer")
	ErrTransferInFlight  = errors.New("a transfer is already in flight")
	ErrCooldownActive    = errors.New("round-up cooldown is active")
	ErrGoalNotFound      = errors.New("savings goal not found")
	ErrMalformedFeedItem = errors.New("malformed feed item")
	ErrMalformedAccount  = errors.New("malformed account")
)

// EmptyStatus is the defined reset state used when a refresh fails: nothing
// from a previous snapshot may leak into it.
func EmptyStatus() RoundUpStatus {
	return RoundUpStatus{Transactions: []Transaction{}}
}

// Validate rejects feed items the core must never see. Amounts are always
// non-negative minor units; direction must be one of the two known values.
func (t Transaction) Validate() error {
	if t.FeedItemUID == "" {
		return ErrMalformedFeedItem
	}
	if t.Amount.MinorUnits < 0 {
		return ErrInvalidAmount
	}
	switch t.Direction {
	case DirectionIn, DirectionOut:
	default:
		return ErrMalformedFeedItem
	}
	if t.TransactionTime.IsZero() {
		return ErrMalformedFeedItem
	}
	return nil
}

// Validate checks the account shape returned by the bank.
func (a Account) Validate() error {
	if a.AccountUID == "" || a.DefaultCategory == "" {
		return ErrMalformedAccount
	}
	return nil
}
