// Package money renders ledger amounts, which are integer minor units, as
// decimal strings in the configured currency.
package money

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-ledger/pkg/config"
)

var maxUint64 = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)

// Amount is a display form of a minor-unit value.
type Amount struct {
	Minor    uint64 `json:"minor"`
	Decimal  string `json:"decimal"`
	Currency string `json:"currency"`
}

type Formatter struct {
	code     string
	exponent int32
}

func NewFormatter(cfg config.CurrencyConfig) Formatter {
	return Formatter{code: cfg.Code, exponent: cfg.Exponent}
}

func (f Formatter) Amount(minor uint64) Amount {
	return Amount{Minor: minor, Decimal: f.Format(minor), Currency: f.code}
}

// Format renders minor units with exactly exponent fractional digits.
func (f Formatter) Format(minor uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(minor), -f.exponent).StringFixed(f.exponent)
}

// ParseMinor converts a decimal string such as "12.50" into minor units. More
// fractional digits than the currency exponent, negatives and values beyond
// uint64 are rejected.
func (f Formatter) ParseMinor(value string) (uint64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", value)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q must not be negative", value)
	}
	scaled := d.Shift(f.exponent)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", value, f.exponent)
	}
	if scaled.GreaterThan(maxUint64) {
		return 0, fmt.Errorf("amount %q is too large", value)
	}
	return scaled.BigInt().Uint64(), nil
}
