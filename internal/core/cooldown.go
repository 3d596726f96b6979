package core

import "time"

// CooldownWindow is how long after a round-up transfer the next one is
// blocked. It matches the trailing feed window so a transfer inside the
// window is always observable in the feed.
const CooldownWindow = 7 * 24 * time.Hour

// LastRoundUpTransferTime returns the time of the most recent round-up
// transfer in the feed, and false when none exists. When two transfers share
// an identical timestamp the first one in feed order wins (the comparison is
// strict, so later duplicates do not replace it).
func LastRoundUpTransferTime(txs []Transaction, goalName string) (time.Time, bool) {
	var last time.Time
	found := false
	for _, tx := range FilterRoundUpTransfers(txs, goalName) {
		if !found || tx.TransactionTime.After(last) {
			last = tx.TransactionTime
			found = true
		}
	}
	return last, found
}

// IsCooldownActive reports whether a transfer at last still blocks a new one
// at now. The boundary is exclusive: at exactly last+CooldownWindow the
// cooldown has lapsed. A zero last means no prior transfer and no cooldown.
func IsCooldownActive(last, now time.Time) bool {
	if last.IsZero() {
		return false
	}
	return now.Before(last.Add(CooldownWindow))
}
