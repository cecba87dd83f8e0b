package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a ledger amount cell into a number.
//
// Every "." is treated as a thousands separator and removed, so "50.000"
// becomes 50000. Decimal fractions are not supported: "12.5" parses as 125.
func ParseAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ".", ""))
	if cleaned == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}
