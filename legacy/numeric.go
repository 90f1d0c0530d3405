package legacy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMoney parses a legacy currency field. The legacy convention puts
// the minus sign AFTER the digits ("45,072.21-"), and amounts carry comma
// thousands separators. Empty fields are zero (right-trimmed blank
// columns).
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	negative := strings.HasSuffix(s, "-")
	if negative {
		s = strings.TrimSpace(strings.TrimSuffix(s, "-"))
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad currency value %q: %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseOptionalInt parses a numeric token, returning ok=false for blanks.
func ParseOptionalInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
