package txbuilder

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var decimalBase = big.NewInt(10)

// parseUnits converts a decimal-string amount into an integer number of base
// units at the given precision. Arithmetic is done on big integers only;
// binary floating point never enters the pipeline.
func parseUnits(amount string, decimals uint8) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, errors.New("amount is empty")
	}
	if strings.HasPrefix(trimmed, "-") {
		return nil, fmt.Errorf("amount must not be negative: %s", amount)
	}

	whole, frac, _ := strings.Cut(trimmed, ".")
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("malformed decimal amount: %s", amount)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %s has more than %d fractional digits", amount, decimals)
	}

	value, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("malformed decimal amount: %s", amount)
	}

	scale := new(big.Int).Exp(decimalBase, big.NewInt(int64(decimals)), nil)
	value.Mul(value, scale)

	if frac != "" {
		fracValue, ok := new(big.Int).SetString(frac, 10)
		if !ok {
			return nil, fmt.Errorf("malformed decimal amount: %s", amount)
		}
		fracScale := new(big.Int).Exp(decimalBase, big.NewInt(int64(int(decimals)-len(frac))), nil)
		value.Add(value, fracValue.Mul(fracValue, fracScale))
	}

	// ABI encoding reduces integers modulo 2^256; an oversized value must
	// fail here instead of aliasing to a smaller amount.
	if value.BitLen() > 256 {
		return nil, fmt.Errorf("amount %s exceeds the 256-bit limit in base units", amount)
	}

	return value, nil
}

// parseIntegerAmount parses a plain decimal-integer string, used for vesting
// record amounts which are already denominated in base units.
func parseIntegerAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" || !isDigits(trimmed) {
		return nil, fmt.Errorf("malformed integer amount: %q", amount)
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("malformed integer amount: %q", amount)
	}
	if value.BitLen() > 256 {
		return nil, fmt.Errorf("amount %q exceeds the 256-bit limit", amount)
	}
	return value, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
