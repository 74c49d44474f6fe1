// Package amount converts between human decimal amounts and integer base
// units. All arithmetic is arbitrary precision; ledger amounts never pass
// through a float.
package amount

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lamportlabs/sol402/types"
)

// ToBaseUnits converts a decimal string such as "0.001" to base units for an
// asset with the given precision. The fractional part is padded with zeros to
// the asset's precision; it is never rounded. A fractional part longer than
// the precision is a malformed_amount error, since truncating it would lose
// value silently.
func ToBaseUnits(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, types.NewPaymentError(types.ErrMalformedAmount, "empty amount", nil)
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return nil, types.NewPaymentError(types.ErrMalformedAmount, "not a decimal: "+value, err)
	}
	if dec.IsNegative() {
		return nil, types.NewPaymentError(types.ErrMalformedAmount, "negative amount: "+value, nil)
	}
	scaled := dec.Shift(int32(decimals))
	if !scaled.IsInteger() {
		// More significant fractional digits than the asset precision.
		return nil, types.NewPaymentError(types.ErrMalformedAmount,
			fmt.Sprintf("amount %s does not scale to whole base units at precision %d", value, decimals), nil)
	}
	return scaled.BigInt(), nil
}

// FromBaseUnits renders a base-unit value as its canonical decimal string:
// no exponent notation and no trailing zero padding beyond significance.
func FromBaseUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}
