package core

// minorUnitsPerMajor is the scale between a currency's minor and major unit.
const minorUnitsPerMajor = 100

// IsRoundUpTransfer reports whether tx is money leaving the main account into
// the round-up savings goal. The match is structural: outgoing, internal
// transfer channel, counterparty equal to the goal's display name. The name
// comparison is exact and case-sensitive on purpose; the goal name is the only
// durable marker of a past round-up, there is no local transfer log.
func IsRoundUpTransfer(tx Transaction, goalName string) bool {
	return tx.Direction == DirectionOut &&
		tx.Source == SourceInternalTransfer &&
		tx.CounterPartyName == goalName
}

// FilterRoundUpTransfers returns the round-up transfer transactions in feed
// order.
func FilterRoundUpTransfers(txs []Transaction, goalName string) []Transaction {
	var out []Transaction
	for _, tx := range txs {
		if IsRoundUpTransfer(tx, goalName) {
			out = append(out, tx)
		}
	}
	return out
}

// EligibleForRoundUp returns, in feed order, the transactions that may
// contribute to a round-up: everything that is not itself a round-up transfer.
// Membership is decided by feed item identity so a past transfer can never be
// rounded up again.
func EligibleForRoundUp(txs []Transaction, goalName string) []Transaction {
	transfers := make(map[string]struct{})
	for _, tx := range txs {
		if IsRoundUpTransfer(tx, goalName) {
			transfers[tx.FeedItemUID] = struct{}{}
		}
	}

	var out []Transaction
	for _, tx := range txs {
		if _, ok := transfers[tx.FeedItemUID]; !ok {
			out = append(out, tx)
		}
	}
	return out
}

// ComputeRoundUp totals the round-up contribution of outgoing transactions in
// minor units. A spend already on a whole unit contributes nothing: the
// remainder-zero case must be skipped, not counted as a full unit. Incoming
// transactions never contribute. The sum is order-independent since every
// contribution is a non-negative integer.
func ComputeRoundUp(txs []Transaction) int64 {
	var sum int64
	for _, tx := range txs {
		if tx.Direction != DirectionOut {
			continue
		}
		remainder := tx.Amount.MinorUnits % minorUnitsPerMajor
		if remainder == 0 {
			continue
		}
		sum += minorUnitsPerMajor - remainder
	}
	return sum
}
