package models

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"finledger/internal/common"
)

// ParseAmountToCents converts a decimal amount string ("50", "50.5", "50.00")
// to integer cents. At most two fractional digits are accepted; more is a
// validation failure rather than a rounding opportunity, so clients cannot
// smuggle in sub-cent amounts. The result must be positive and within
// MaxAmountCents.
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: amount is required", common.ErrorValidation)
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: amount must be a positive decimal", common.ErrorValidation)
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if hasFrac && fracPart == "" {
		return 0, fmt.Errorf("%w: malformed amount", common.ErrorValidation)
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("%w: amount has more than two decimal places", common.ErrorValidation)
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, fmt.Errorf("%w: malformed amount", common.ErrorValidation)
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed amount", common.ErrorValidation)
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
		}
	}

	if iv > MaxAmountCents/100 {
		return 0, fmt.Errorf("%w: amount exceeds %s", common.ErrorValidation, FormatCents(MaxAmountCents))
	}
	cents := iv*100 + frac
	if cents <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", common.ErrorValidation)
	}
	if cents > MaxAmountCents {
		return 0, fmt.Errorf("%w: amount exceeds %s", common.ErrorValidation, FormatCents(MaxAmountCents))
	}
	return cents, nil
}

// FormatCents renders integer cents as a decimal string with two places,
// e.g. -5000 -> "-50.00". The inverse of ParseAmountToCents for API output.
func FormatCents(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if neg {
		return "-" + s
	}
	return s
}
