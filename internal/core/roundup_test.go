package core

import (
	"testing"
	"time"
)

const testGoalName = "Round-up Saver"

func tx(uid string, minorUnits int64, dir Direction) Transaction {
	return Transaction{
		FeedItemUID:      uid,
		Amount:           Money{Currency: "GBP", MinorUnits: minorUnits},
		Direction:        dir,
		TransactionTime:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Source:           SourceCard,
		CounterPartyName: "Vendor",
		Reference:        "Ref",
	}
}

func transferTx(uid string, at time.Time) Transaction {
	t := tx(uid, 51, DirectionOut)
	t.Source = SourceInternalTransfer
	t.CounterPartyName = testGoalName
	t.TransactionTime = at
	return t
}

func TestComputeRoundUp(t *testing.T) {
	cases := []struct {
		name string
		txs  []Transaction
		want int64
	}{
		{"empty", nil, 0},
		{"single penny under", []Transaction{tx("a", 199, DirectionOut)}, 1},
		{"one minor unit", []Transaction{tx("a", 1, DirectionOut)}, 99},
		{"whole unit skipped", []Transaction{tx("a", 400, DirectionOut)}, 0},
		{"zero amount skipped", []Transaction{tx("a", 0, DirectionOut)}, 0},
		{"incoming skipped", []Transaction{tx("a", 120, DirectionIn)}, 0},
		{"incoming odd amount skipped", []Transaction{tx("a", 133, DirectionIn)}, 0},
		{
			"mixed feed",
			[]Transaction{
				tx("a", 199, DirectionOut),
				tx("b", 250, DirectionOut),
				tx("c", 400, DirectionOut),
				tx("d", 120, DirectionIn),
			},
			51, // 1 + 50 + 0 + 0
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeRoundUp(tc.txs); got != tc.want {
				t.Fatalf("ComputeRoundUp = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestComputeRoundUpRemainders(t *testing.T) {
	// Whole-unit amounts must contribute 0, everything else 100-remainder.
	for _, amount := range []int64{0, 100, 2300, 99, 101, 250, 199} {
		got := ComputeRoundUp([]Transaction{tx("a", amount, DirectionOut)})
		want := int64(0)
		if r := amount % 100; r != 0 {
			want = 100 - r
		}
		if got != want {
			t.Errorf("amount %d: got %d, want %d", amount, got, want)
		}
	}
}

func TestComputeRoundUpAdditive(t *testing.T) {
	a := []Transaction{tx("a", 199, DirectionOut), tx("b", 310, DirectionOut)}
	b := []Transaction{tx("c", 250, DirectionOut), tx("d", 77, DirectionIn)}
	both := append(append([]Transaction{}, a...), b...)

	if got, want := ComputeRoundUp(both), ComputeRoundUp(a)+ComputeRoundUp(b); got != want {
		t.Fatalf("ComputeRoundUp not additive: %d != %d", got, want)
	}
}

func TestIsRoundUpTransfer(t *testing.T) {
	transfer := transferTx("a", time.Now())

	cases := []struct {
		name string
		mod  func(Transaction) Transaction
		want bool
	}{
		{"match", func(t Transaction) Transaction { return t }, true},
		{"wrong direction", func(t Transaction) Transaction { t.Direction = DirectionIn; return t }, false},
		{"wrong source", func(t Transaction) Transaction { t.Source = SourceCard; return t }, false},
		{"other goal", func(t Transaction) Transaction { t.CounterPartyName = "Other Saver"; return t }, false},
		{"case differs", func(t Transaction) Transaction { t.CounterPartyName = "round-up saver"; return t }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRoundUpTransfer(tc.mod(transfer), testGoalName); got != tc.want {
				t.Fatalf("IsRoundUpTransfer = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterRoundUpTransfers(t *testing.T) {
	now := time.Now()
	other := transferTx("b", now)
	other.CounterPartyName = "Other Saver"

	txs := []Transaction{transferTx("a", now), other, tx("c", 199, DirectionOut)}

	got := FilterRoundUpTransfers(txs, testGoalName)
	if len(got) != 1 || got[0].FeedItemUID != "a" {
		t.Fatalf("FilterRoundUpTransfers = %+v, want only feed item a", got)
	}
}

func TestEligibleForRoundUp(t *testing.T) {
	now := time.Now()
	txs := []Transaction{
		transferTx("1", now),
		tx("2", 199, DirectionOut),
		tx("3", 250, DirectionOut),
	}

	got := EligibleForRoundUp(txs, testGoalName)
	if len(got) != 2 || got[0].FeedItemUID != "2" || got[1].FeedItemUID != "3" {
		t.Fatalf("EligibleForRoundUp = %+v, want feed items 2 and 3 in order", got)
	}
}

func TestEligibleDisjointFromTransfers(t *testing.T) {
	now := time.Now()
	txs := []Transaction{
		transferTx("1", now),
		transferTx("2", now.Add(-time.Hour)),
		tx("3", 199, DirectionOut),
		tx("4", 120, DirectionIn),
	}

	transfers := make(map[string]struct{})
	for _, tr := range FilterRoundUpTransfers(txs, testGoalName) {
		transfers[tr.FeedItemUID] = struct{}{}
	}
	for _, e := range EligibleForRoundUp(txs, testGoalName) {
		if _, ok := transfers[e.FeedItemUID]; ok {
			t.Fatalf("feed item %s is both a transfer and eligible", e.FeedItemUID)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := tx("a", 100, DirectionOut)
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name string
		mod  func(Transaction) Transaction
	}{
		{"missing uid", func(t Transaction) Transaction { t.FeedItemUID = ""; return t }},
		{"negative amount", func(t Transaction) Transaction { t.Amount.MinorUnits = -1; return t }},
		{"unknown direction", func(t Transaction) Transaction { t.Direction = "SIDEWAYS"; return t }},
		{"zero time", func(t Transaction) Transaction { t.TransactionTime = time.Time{}; return t }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.mod(valid).Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
