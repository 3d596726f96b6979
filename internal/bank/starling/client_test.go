package starling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:              srv.URL,
		Token:                "test-token",
		GoalName:             "Round-up Saver",
		GoalTargetMinorUnits: 100000,
		Currency:             "GBP",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, srv
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Token: "t"}); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := New(Config{BaseURL: "https://example.test"}); err == nil {
		t.Error("expected error for missing token")
	}
}

func TestAccount(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/accounts" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`{"accounts":[
			{"accountUid":"acc-1","defaultCategory":"cat-1"},
			{"accountUid":"acc-2","defaultCategory":"cat-2"}
		]}`))
	})

	account, err := c.Account(context.Background())
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if account.AccountUID != "acc-1" || account.DefaultCategory != "cat-1" {
		t.Errorf("account = %+v, want first account", account)
	}
}

func TestAccountEmptyList(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accounts":[]}`))
	})

	if _, err := c.Account(context.Background()); err == nil {
		t.Fatal("expected error for empty account list")
	}
}

func TestAccountErrorTranslation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"invalid_token","error_description":"Could not validate the provided access token"}`))
	})

	_, err := c.Account(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "HTTP 403: Could not validate the provided access token") {
		t.Errorf("error = %v, want translated API error body", err)
	}
}

func TestTransactions(t *testing.T) {
	since := time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/feed/account/acc-1/category/cat-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("changesSince"); got != "2026-02-22T12:00:00Z" {
			t.Errorf("changesSince = %q", got)
		}
		w.Write([]byte(`{"feedItems":[
			{"feedItemUid":"t1","amount":{"currency":"GBP","minorUnits":199},"direction":"OUT","transactionTime":"2026-02-23T09:00:00Z","source":"MASTER_CARD","counterPartyName":"Coffee Shop"},
			{"feedItemUid":"","amount":{"currency":"GBP","minorUnits":100},"direction":"OUT","transactionTime":"2026-02-23T10:00:00Z","source":"MASTER_CARD"},
			{"feedItemUid":"t3","amount":{"currency":"GBP","minorUnits":2350},"direction":"SIDEWAYS","transactionTime":"2026-02-23T11:00:00Z","source":"MASTER_CARD"},
			{"feedItemUid":"t4","amount":{"currency":"GBP","minorUnits":4000},"direction":"OUT","transactionTime":"2026-02-24T09:00:00Z","source":"MASTER_CARD","counterPartyName":"Bookshop"}
		]}`))
	})

	txs, err := c.Transactions(context.Background(), "acc-1", "cat-1", since)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}

	// The two malformed items (missing uid, unknown direction) are dropped.
	if len(txs) != 2 {
		t.Fatalf("transactions = %d, want 2", len(txs))
	}
	if txs[0].FeedItemUID != "t1" || txs[1].FeedItemUID != "t4" {
		t.Errorf("kept items = %s, %s; want t1, t4", txs[0].FeedItemUID, txs[1].FeedItemUID)
	}
	if txs[0].Amount.MinorUnits != 199 || txs[0].CounterPartyName != "Coffee Shop" {
		t.Errorf("first item = %+v", txs[0])
	}
}

func TestSavingsGoals(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/account/acc-1/savings-goals" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"savingsGoalList":[
			{"savingsGoalUid":"goal-1","name":"Round-up Saver","totalSaved":{"currency":"GBP","minorUnits":1234}}
		]}`))
	})

	goals, err := c.SavingsGoals(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("savings goals: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("goals = %d, want 1", len(goals))
	}
	if goals[0].SavingsGoalUID != "goal-1" || goals[0].TotalSaved.MinorUnits != 1234 {
		t.Errorf("goal = %+v", goals[0])
	}
}

func TestCreateSavingsGoal(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/api/v2/account/acc-1/savings-goals" {
			t.Errorf("path = %s", r.URL.Path)
		}

		var body struct {
			Name     string `json:"name"`
			Currency string `json:"currency"`
			Target   struct {
				Currency   string `json:"currency"`
				MinorUnits int64  `json:"minorUnits"`
			} `json:"target"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Name != "Round-up Saver" || body.Currency != "GBP" || body.Target.MinorUnits != 100000 {
			t.Errorf("body = %+v", body)
		}

		w.Write([]byte(`{"savingsGoalUid":"goal-new"}`))
	})

	uid, err := c.CreateSavingsGoal(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if uid != "goal-new" {
		t.Errorf("goal uid = %q, want goal-new", uid)
	}
}

func TestCreateSavingsGoalEmptyUID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	if _, err := c.CreateSavingsGoal(context.Background(), "acc-1"); err == nil {
		t.Fatal("expected error for empty goal uid")
	}
}

func TestAddToSavingsGoal(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}

		var body struct {
			Amount struct {
				Currency   string `json:"currency"`
				MinorUnits int64  `json:"minorUnits"`
			} `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Amount.Currency != "GBP" || body.Amount.MinorUnits != 51 {
			t.Errorf("amount = %+v", body.Amount)
		}

		w.Write([]byte(`{"transferUid":"uid-123","success":true}`))
	})

	if err := c.AddToSavingsGoal(context.Background(), "acc-1", "goal-1", "uid-123", 51); err != nil {
		t.Fatalf("add to goal: %v", err)
	}
	if gotPath != "/api/v2/account/acc-1/savings-goals/goal-1/add-money/uid-123" {
		t.Errorf("path = %s", gotPath)
	}
}

func TestAddToSavingsGoalFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"insufficient_funds","error_description":"Insufficient funds"}`))
	})

	err := c.AddToSavingsGoal(context.Background(), "acc-1", "goal-1", "uid-123", 51)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "HTTP 400: Insufficient funds") {
		t.Errorf("error = %v", err)
	}
}
