// Package ledger talks to the Hive blockchain: balance reads via the public
// JSON-RPC API and transfer submission via a broadcast proxy holding no key
// material of its own (the custodial credential is passed per call).
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Hive assets are fixed-point with 3 decimal places, rendered as
// "12.345 HBD" / "0.001 HIVE".
const AssetPrecision = 3

// ParseAsset splits an asset string like "12.345 HBD" into its amount and
// symbol.
func ParseAsset(s string) (decimal.Decimal, string, error) {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) != 2 {
		return decimal.Zero, "", fmt.Errorf("malformed asset string %q", s)
	}

	amount, err := decimal.NewFromString(parts[0])
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("malformed asset amount %q: %w", parts[0], err)
	}

	return amount, parts[1], nil
}

// FormatAsset renders an amount in Hive's fixed 3-decimal form.
func FormatAsset(amount decimal.Decimal, symbol string) string {
	return amount.StringFixed(AssetPrecision) + " " + symbol
}

// ParseAmount parses a bare decimal amount ("30", "30.5") and reports
// whether it is a valid positive payout amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed amount %q: %w", s, err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount %q is not positive", s)
	}
	return amount, nil
}
