// Package services orchestrates the round-up domain against the banking API,
// the transfer ledger and the event stream.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"roundup/internal/bank"
	"roundup/internal/core"
	applog "roundup/internal/log"
)

// StatusService rebuilds the round-up status from one feed snapshot at a
// time. The published status is replaced wholesale under a lock: readers see
// either the previous complete snapshot or the new one, never a mix.
type StatusService struct {
	accounts bank.AccountReader
	feed     bank.FeedReader
	goalName string
	window   time.Duration
	now      func() time.Time

	// refreshMu serializes the fetch+compute pipeline; statusMu guards the
	// published snapshot so readers are never blocked on network calls.
	refreshMu sync.Mutex
	statusMu  sync.RWMutex
	status    core.RoundUpStatus
}

func NewStatusService(accounts bank.AccountReader, feed bank.FeedReader, goalName string) *StatusService {
	return &StatusService{
		accounts: accounts,
		feed:     feed,
		goalName: goalName,
		window:   core.CooldownWindow,
		now:      time.Now,
		status:   core.EmptyStatus(),
	}
}

// Status returns the last published snapshot.
func (s *StatusService) Status() core.RoundUpStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Refresh fetches the account and its trailing feed window and recomputes the
// round-up status. On any fetch failure the published status is reset to the
// empty state so stale amounts can never sit next to fresh defaults.
func (s *StatusService) Refresh(ctx context.Context) (core.RoundUpStatus, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	account, err := s.accounts.Account(ctx)
	if err != nil {
		s.publish(core.EmptyStatus())
		return core.EmptyStatus(), fmt.Errorf("fetch account: %w", err)
	}

	now := s.now()
	feed, err := s.feed.Transactions(ctx, account.AccountUID, account.DefaultCategory, now.Add(-s.window))
	if err != nil {
		s.publish(core.EmptyStatus())
		return core.EmptyStatus(), fmt.Errorf("fetch transactions: %w", err)
	}

	status := s.compute(account.AccountUID, feed, now)
	s.publish(status)

	fields := applog.NewFields().
		WithComponent(applog.ComponentStatus).
		WithOperation(applog.OpRefresh).
		ToSlice()
	slog.InfoContext(ctx, "Round-up status refreshed", append(fields,
		"account_uid", status.AccountUID,
		"round_up_minor_units", status.RoundUpAmount,
		"cooldown_active", status.CooldownActive,
		"has_pending", status.HasPendingRoundUp,
		"transactions", len(status.Transactions))...)

	return status, nil
}

// compute derives the composite status from one feed snapshot. Transactions
// at or before the last transfer are excluded so amounts a prior transfer
// already covered are never counted twice.
func (s *StatusService) compute(accountUID string, feed []core.Transaction, now time.Time) core.RoundUpStatus {
	last, hasLast := core.LastRoundUpTransferTime(feed, s.goalName)
	eligible := core.EligibleForRoundUp(feed, s.goalName)

	trulyEligible := eligible
	if hasLast {
		trulyEligible = nil
		for _, tx := range eligible {
			if tx.TransactionTime.After(last) {
				trulyEligible = append(trulyEligible, tx)
			}
		}
	}

	amount := core.ComputeRoundUp(trulyEligible)

	status := core.RoundUpStatus{
		AccountUID:        accountUID,
		RoundUpAmount:     amount,
		CooldownActive:    core.IsCooldownActive(last, now),
		HasPendingRoundUp: len(trulyEligible) > 0 && amount > 0,
		Transactions:      feed,
	}
	if hasLast {
		status.LastRoundUpAt = last
	}
	return status
}

func (s *StatusService) publish(status core.RoundUpStatus) {
	s.statusMu.Lock()
	s.status = status
	s.statusMu.Unlock()
}
