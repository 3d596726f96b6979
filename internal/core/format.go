package core

import (
	"fmt"
	"strconv"
)

// currencySymbols maps ISO currency codes to display symbols. Unknown codes
// fall back to the code itself.
var currencySymbols = map[string]string{
	"GBP": "£",
	"EUR": "€",
	"USD": "$",
}

// FormatMinorUnits renders an amount as minor units divided by 100 with fixed
// two-decimal formatting and the currency symbol prefixed, e.g. "£1.99".
func FormatMinorUnits(m Money) string {
	units := m.MinorUnits
	if units < 0 {
		units = -units
	}
	symbol, ok := currencySymbols[m.Currency]
	if !ok {
		symbol = m.Currency + " "
	}
	return symbol + strconv.FormatInt(units/100, 10) + fmt.Sprintf(".%02d", units%100)
}

// FormatSigned renders a transaction amount with its direction sign:
// "-" for money out, "+" for money in.
func FormatSigned(tx Transaction) string {
	sign := "+"
	if tx.Direction == DirectionOut {
		sign = "-"
	}
	return sign + FormatMinorUnits(tx.Amount)
}
