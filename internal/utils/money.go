package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadPrice is returned when a submitted price is not a non-negative
// decimal with at most two fractional digits.
var ErrBadPrice = errors.New("invalid price")

// ParsePrice converts a decimal string such as "15.50" into integer
// cents.  Prices are stored as cents end to end so totals never
// accumulate floating point drift.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, ErrBadPrice
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, ErrBadPrice
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrBadPrice
	}
	cents64 := int64(0)
	if frac != "00" {
		c, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, ErrBadPrice
		}
		cents64 = c
	}
	return units*100 + cents64, nil
}

// FormatCents renders integer cents as a decimal string: 2550 -> "25.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
