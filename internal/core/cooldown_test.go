package core

import (
	"testing"
	"time"
)

func TestLastRoundUpTransferTime(t *testing.T) {
	t.Run("absent when no transfers", func(t *testing.T) {
		txs := []Transaction{tx("a", 199, DirectionOut)}
		if _, ok := LastRoundUpTransferTime(txs, testGoalName); ok {
			t.Fatal("expected no last transfer time")
		}
	})

	t.Run("most recent transfer wins", func(t *testing.T) {
		april := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
		may := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		txs := []Transaction{transferTx("x", april), transferTx("y", may)}

		got, ok := LastRoundUpTransferTime(txs, testGoalName)
		if !ok || !got.Equal(may) {
			t.Fatalf("got %v ok=%v, want %v", got, ok, may)
		}
	})

	t.Run("identical timestamps keep feed order", func(t *testing.T) {
		at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		txs := []Transaction{transferTx("first", at), transferTx("second", at)}

		got, ok := LastRoundUpTransferTime(txs, testGoalName)
		if !ok || !got.Equal(at) {
			t.Fatalf("got %v ok=%v, want %v", got, ok, at)
		}
	})
}

func TestIsCooldownActive(t *testing.T) {
	now := time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		last time.Time
		want bool
	}{
		{"no prior transfer", time.Time{}, false},
		{"three days ago", now.Add(-3 * 24 * time.Hour), true},
		{"eight days ago", now.Add(-8 * 24 * time.Hour), false},
		{"exactly seven days ago", now.Add(-CooldownWindow), false},
		{"one second inside the window", now.Add(-CooldownWindow + time.Second), true},
		{"just now", now, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCooldownActive(tc.last, now); got != tc.want {
				t.Fatalf("IsCooldownActive(%v) = %v, want %v", tc.last, got, tc.want)
			}
		})
	}
}
