// Package memory is an in-memory fake of the banking API, used as the
// default backend for local development and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"roundup/internal/bank"
	"roundup/internal/core"
)

type Store struct {
	mu      sync.Mutex
	account core.Account
	feed    []core.Transaction
	goals   []core.SavingsGoal

	goalName   string
	goalTarget int64
	currency   string
	nextID     int
}

// Ensure interface conformance
var _ bank.Client = (*Store)(nil)

func New(account core.Account, feed []core.Transaction, goalName, currency string, goalTarget int64) *Store {
	return &Store{
		account:    account,
		feed:       append([]core.Transaction{}, feed...),
		goalName:   goalName,
		goalTarget: goalTarget,
		currency:   currency,
	}
}

// NewSeeded returns a store with a small demo feed: a few card spends and one
// incoming payment over the past days.
func NewSeeded(goalName, currency string, goalTarget int64) *Store {
	now := time.Now().UTC()
	account := core.Account{AccountUID: "acc-demo", DefaultCategory: "cat-demo"}
	feed := []core.Transaction{
		{
			FeedItemUID:      "seed-1",
			Amount:           core.Money{Currency: currency, MinorUnits: 199},
			Direction:        core.DirectionOut,
			TransactionTime:  now.Add(-70 * time.Hour),
			Source:           core.SourceCard,
			CounterPartyName: "Coffee Shop",
			Reference:        "flat white",
		},
		{
			FeedItemUID:      "seed-2",
			Amount:           core.Money{Currency: currency, MinorUnits: 2350},
			Direction:        core.DirectionOut,
			TransactionTime:  now.Add(-40 * time.Hour),
			Source:           core.SourceCard,
			CounterPartyName: "Grocer",
			Reference:        "weekly shop",
		},
		{
			FeedItemUID:      "seed-3",
			Amount:           core.Money{Currency: currency, MinorUnits: 4000},
			Direction:        core.DirectionOut,
			TransactionTime:  now.Add(-20 * time.Hour),
			Source:           core.SourceCard,
			CounterPartyName: "Bookshop",
			Reference:        "paperbacks",
		},
		{
			FeedItemUID:      "seed-4",
			Amount:           core.Money{Currency: currency, MinorUnits: 12000},
			Direction:        core.DirectionIn,
			TransactionTime:  now.Add(-10 * time.Hour),
			Source:           "FASTER_PAYMENTS_IN",
			CounterPartyName: "Employer",
			Reference:        "expenses",
		},
	}
	return New(account, feed, goalName, currency, goalTarget)
}

func (s *Store) Account(_ context.Context) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account, nil
}

func (s *Store) Transactions(_ context.Context, accountUID, categoryUID string, since time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if accountUID != s.account.AccountUID || categoryUID != s.account.DefaultCategory {
		return nil, fmt.Errorf("unknown account %q category %q", accountUID, categoryUID)
	}

	var out []core.Transaction
	for _, tx := range s.feed {
		if !tx.TransactionTime.Before(since) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) SavingsGoals(_ context.Context, accountUID string) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if accountUID != s.account.AccountUID {
		return nil, fmt.Errorf("unknown account %q", accountUID)
	}
	return append([]core.SavingsGoal{}, s.goals...), nil
}

func (s *Store) CreateSavingsGoal(_ context.Context, accountUID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if accountUID != s.account.AccountUID {
		return "", fmt.Errorf("unknown account %q", accountUID)
	}

	s.nextID++
	goal := core.SavingsGoal{
		SavingsGoalUID: fmt.Sprintf("goal-%d", s.nextID),
		Name:           s.goalName,
		TotalSaved:     core.Money{Currency: s.currency},
	}
	s.goals = append(s.goals, goal)
	return goal.SavingsGoalUID, nil
}

// AddToSavingsGoal moves money into the goal and records the transfer as a
// new feed item, so a subsequent refresh observes it exactly like the real
// bank's feed would.
func (s *Store) AddToSavingsGoal(_ context.Context, accountUID, goalUID, transferUID string, amountMinorUnits int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if accountUID != s.account.AccountUID {
		return fmt.Errorf("unknown account %q", accountUID)
	}
	if amountMinorUnits <= 0 {
		return core.ErrInvalidAmount
	}

	for i := range s.goals {
		if s.goals[i].SavingsGoalUID != goalUID {
			continue
		}
		s.goals[i].TotalSaved.MinorUnits += amountMinorUnits
		s.feed = append(s.feed, core.Transaction{
			FeedItemUID:      transferUID,
			Amount:           core.Money{Currency: s.currency, MinorUnits: amountMinorUnits},
			Direction:        core.DirectionOut,
			TransactionTime:  time.Now().UTC(),
			Source:           core.SourceInternalTransfer,
			CounterPartyName: s.goals[i].Name,
			Reference:        "Round-up transfer",
		})
		return nil
	}
	return core.ErrGoalNotFound
}
