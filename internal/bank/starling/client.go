// Package starling is the HTTP adapter for the Starling Bank v2 API.
package starling

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"roundup/internal/bank"
	"roundup/internal/core"
)

// Config holds everything the adapter needs to talk to the API.
type Config struct {
	BaseURL string
	Token   string

	// Savings-goal creation parameters. The goal name is configuration,
	// not a literal: the classifier in core matches against the same
	// value.
	GoalName             string
	GoalTargetMinorUnits int64
	Currency             string

	Timeout time.Duration
}

type Client struct {
	http    *http.Client
	baseURL string
	token   string

	goalName   string
	goalTarget int64
	currency   string
}

// Ensure interface conformance
var _ bank.Client = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("missing bank base URL")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("missing bank API token")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		goalName:   cfg.GoalName,
		goalTarget: cfg.GoalTargetMinorUnits,
		currency:   cfg.Currency,
	}, nil
}

// apiError is the error body the API returns alongside non-2xx statuses.
type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// do issues one request and decodes the JSON response into out (when out is
// non-nil). Error bodies are translated into "HTTP <status>: <description>"
// so callers can surface the collaborator's reason verbatim.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		message := resp.Status
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.ErrorDescription != "" {
			message = apiErr.ErrorDescription
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Account implements bank.AccountReader using the first account the API
// returns.
func (c *Client) Account(ctx context.Context) (core.Account, error) {
	var resp struct {
		Accounts []core.Account `json:"accounts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v2/accounts", nil, &resp); err != nil {
		return core.Account{}, fmt.Errorf("get accounts: %w", err)
	}
	if len(resp.Accounts) == 0 {
		return core.Account{}, errors.New("no accounts returned")
	}
	account := resp.Accounts[0]
	if err := account.Validate(); err != nil {
		return core.Account{}, fmt.Errorf("get accounts: %w", err)
	}
	return account, nil
}

// Transactions implements bank.FeedReader. Malformed feed items are rejected
// at this boundary so the core only ever sees well-formed records.
func (c *Client) Transactions(ctx context.Context, accountUID, categoryUID string, since time.Time) ([]core.Transaction, error) {
	path := fmt.Sprintf("/api/v2/feed/account/%s/category/%s?changesSince=%s",
		url.PathEscape(accountUID), url.PathEscape(categoryUID),
		url.QueryEscape(since.UTC().Format(time.RFC3339)))

	var resp struct {
		FeedItems []core.Transaction `json:"feedItems"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}

	txs := make([]core.Transaction, 0, len(resp.FeedItems))
	for _, item := range resp.FeedItems {
		if err := item.Validate(); err != nil {
			slog.WarnContext(ctx, "Dropping malformed feed item",
				"feed_item_uid", item.FeedItemUID,
				"error", err)
			continue
		}
		txs = append(txs, item)
	}
	return txs, nil
}

// SavingsGoals implements bank.GoalsClient.
func (c *Client) SavingsGoals(ctx context.Context, accountUID string) ([]core.SavingsGoal, error) {
	var resp struct {
		SavingsGoalList []core.SavingsGoal `json:"savingsGoalList"`
	}
	path := fmt.Sprintf("/api/v2/account/%s/savings-goals", url.PathEscape(accountUID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get savings goals: %w", err)
	}
	return resp.SavingsGoalList, nil
}

// CreateSavingsGoal creates the round-up goal with the configured fixed name,
// currency and target.
func (c *Client) CreateSavingsGoal(ctx context.Context, accountUID string) (string, error) {
	body := map[string]any{
		"name":     c.goalName,
		"currency": c.currency,
		"target": map[string]any{
			"currency":   c.currency,
			"minorUnits": c.goalTarget,
		},
	}
	var resp struct {
		SavingsGoalUID string `json:"savingsGoalUid"`
	}
	path := fmt.Sprintf("/api/v2/account/%s/savings-goals", url.PathEscape(accountUID))
	if err := c.do(ctx, http.MethodPut, path, body, &resp); err != nil {
		return "", fmt.Errorf("create savings goal: %w", err)
	}
	if resp.SavingsGoalUID == "" {
		return "", errors.New("create savings goal: empty goal uid in response")
	}
	return resp.SavingsGoalUID, nil
}

// AddToSavingsGoal moves amountMinorUnits into the goal. transferUID is the
// caller's idempotency token; a retried attempt must supply a fresh one.
func (c *Client) AddToSavingsGoal(ctx context.Context, accountUID, goalUID, transferUID string, amountMinorUnits int64) error {
	body := map[string]any{
		"amount": map[string]any{
			"currency":   c.currency,
			"minorUnits": amountMinorUnits,
		},
	}
	path := fmt.Sprintf("/api/v2/account/%s/savings-goals/%s/add-money/%s",
		url.PathEscape(accountUID), url.PathEscape(goalUID), url.PathEscape(transferUID))
	if err := c.do(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("add to savings goal: %w", err)
	}
	return nil
}
