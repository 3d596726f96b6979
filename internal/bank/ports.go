// Package bank defines the outbound ports to the remote banking API.
package bank

import (
	"context"
	"time"

	"roundup/internal/core"
)

// Ports for outbound adapters.
type (
	// AccountReader resolves the primary account and its default feed
	// category.
	AccountReader interface {
		Account(ctx context.Context) (core.Account, error)
	}

	// FeedReader lists the transactions for an account category since a
	// point in time, in the order the bank returns them.
	FeedReader interface {
		Transactions(ctx context.Context, accountUID, categoryUID string, since time.Time) ([]core.Transaction, error)
	}

	// GoalsClient covers the savings-goal lifecycle the orchestrator
	// needs: listing, creation with the fixed round-up parameters, and
	// moving money with a caller-supplied idempotency token.
	GoalsClient interface {
		SavingsGoals(ctx context.Context, accountUID string) ([]core.SavingsGoal, error)
		CreateSavingsGoal(ctx context.Context, accountUID string) (goalUID string, err error)
		AddToSavingsGoal(ctx context.Context, accountUID, goalUID, transferUID string, amountMinorUnits int64) error
	}

	// Client is the full collaborator surface, implemented by both the
	// Starling adapter and the in-memory fake.
	Client interface {
		AccountReader
		FeedReader
		GoalsClient
	}
)
