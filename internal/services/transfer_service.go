package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"roundup/internal/amqp"
	"roundup/internal/bank"
	"roundup/internal/core"
	applog "roundup/internal/log"
	"roundup/internal/storage"
)

// TransferResult is what a completed round-up transfer reports back to the
// caller: the idempotency token used, the goal it went into and the goal's
// total after the transfer.
type TransferResult struct {
	TransferUID string     `json:"transferUid"`
	GoalUID     string     `json:"goalUid"`
	GoalCreated bool       `json:"goalCreated"`
	Amount      core.Money `json:"amount"`
	TotalSaved  core.Money `json:"totalSaved"`
}

// TransferService moves the accumulated round-up into the savings goal.
// Ledger and events are optional collaborators: the transfer itself is the
// bank's, the ledger row and the event are audit/export artifacts and their
// failure never fails the transfer.
type TransferService struct {
	goals    bank.GoalsClient
	status   *StatusService
	ledger   *storage.LedgerRepository
	events   *amqp.Client
	goalName string
	currency string

	// inFlight enforces the one-transfer-at-a-time rule: a second request
	// while one is pending is rejected, never queued.
	inFlight atomic.Bool

	newTransferUID func() string
}

func NewTransferService(goals bank.GoalsClient, status *StatusService, ledger *storage.LedgerRepository, events *amqp.Client, goalName, currency string) *TransferService {
	return &TransferService{
		goals:          goals,
		status:         status,
		ledger:         ledger,
		events:         events,
		goalName:       goalName,
		currency:       currency,
		newTransferUID: uuid.NewString,
	}
}

// Transfer performs the round-up transfer for the current status snapshot:
// find or create the goal, move the money with a fresh idempotency token,
// re-read the goal total, then trigger a full status refresh so the new
// transfer becomes visible by being re-observed in the feed.
func (t *TransferService) Transfer(ctx context.Context) (TransferResult, error) {
	if !t.inFlight.CompareAndSwap(false, true) {
		return TransferResult{}, core.ErrTransferInFlight
	}
	defer t.inFlight.Store(false)

	snapshot := t.status.Status()
	if snapshot.AccountUID == "" {
		return TransferResult{}, fmt.Errorf("no account known yet, refresh first")
	}
	if snapshot.CooldownActive {
		return TransferResult{}, core.ErrCooldownActive
	}
	if snapshot.RoundUpAmount <= 0 {
		return TransferResult{}, core.ErrNothingToTransfer
	}

	goalUID, created, err := t.findOrCreateGoal(ctx, snapshot.AccountUID)
	if err != nil {
		return TransferResult{}, fmt.Errorf("find or create goal: %w", err)
	}

	transferUID := t.newTransferUID()
	if err := t.goals.AddToSavingsGoal(ctx, snapshot.AccountUID, goalUID, transferUID, snapshot.RoundUpAmount); err != nil {
		return TransferResult{}, fmt.Errorf("transfer %s: %w", core.FormatMinorUnits(core.Money{Currency: t.currency, MinorUnits: snapshot.RoundUpAmount}), err)
	}

	result := TransferResult{
		TransferUID: transferUID,
		GoalUID:     goalUID,
		GoalCreated: created,
		Amount:      core.Money{Currency: t.currency, MinorUnits: snapshot.RoundUpAmount},
		TotalSaved:  core.Money{Currency: t.currency},
	}

	// Best effort: the transfer already happened, a failed re-read only
	// loses the displayed total.
	if goals, err := t.goals.SavingsGoals(ctx, snapshot.AccountUID); err == nil {
		for _, g := range goals {
			if g.SavingsGoalUID == goalUID {
				result.TotalSaved = g.TotalSaved
				break
			}
		}
	} else {
		slog.WarnContext(ctx, "Failed to re-read savings goals after transfer",
			"goal_uid", goalUID, "error", err)
	}

	t.record(ctx, snapshot.AccountUID, result)

	fields := applog.NewFields().
		WithComponent(applog.ComponentTransfer).
		WithOperation(applog.OpTransfer).
		WithTransfer(snapshot.AccountUID, goalUID, transferUID, result.Amount.MinorUnits).
		ToSlice()
	slog.InfoContext(ctx, "Round-up transferred", append(fields, "goal_created", created)...)

	if _, err := t.status.Refresh(ctx); err != nil {
		slog.ErrorContext(ctx, "Status refresh after transfer failed", "error", err)
	}

	return result, nil
}

// findOrCreateGoal is idempotent by exact name match; the goal is created
// with the fixed round-up parameters only when no goal carries the name.
func (t *TransferService) findOrCreateGoal(ctx context.Context, accountUID string) (goalUID string, created bool, err error) {
	goals, err := t.goals.SavingsGoals(ctx, accountUID)
	if err != nil {
		return "", false, fmt.Errorf("list goals: %w", err)
	}
	for _, g := range goals {
		if g.Name == t.goalName {
			return g.SavingsGoalUID, false, nil
		}
	}

	goalUID, err = t.goals.CreateSavingsGoal(ctx, accountUID)
	if err != nil {
		return "", false, fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Savings goal created", "goal_uid", goalUID, "name", t.goalName)
	return goalUID, true, nil
}

// record writes the audit ledger row and publishes the transfer-recorded
// event. Both are non-blocking for the caller's success: eligibility is
// always re-derived from the feed, never from the ledger.
func (t *TransferService) record(ctx context.Context, accountUID string, result TransferResult) {
	if t.ledger == nil {
		return
	}

	id, err := t.ledger.RecordTransfer(ctx, storage.TransferRecord{
		TransferUID:          result.TransferUID,
		AccountUID:           accountUID,
		GoalUID:              result.GoalUID,
		AmountMinorUnits:     result.Amount.MinorUnits,
		Currency:             result.Amount.Currency,
		TotalSavedMinorUnits: result.TotalSaved.MinorUnits,
	})
	if err != nil {
		fields := applog.NewFields().
			WithComponent(applog.ComponentTransfer).
			WithOperation(applog.OpRecord).
			WithError(err).
			ToSlice()
		slog.ErrorContext(ctx, "Failed to record transfer in ledger",
			append(fields, "transfer_uid", result.TransferUID)...)
		return
	}

	if t.events == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping transfer event", "ledger_id", id)
		return
	}
	if err := t.events.PublishTransferRecorded(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transfer event",
			"ledger_id", id, "error", err)
	}
}
