package dialog

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const maxIntegerDigits = 10

var (
	// ErrAmountFormat reports input that is not a positive decimal with a
	// single optional point and digits on both sides of it.
	ErrAmountFormat = errors.New("dialog: amount is not a positive decimal")
	// ErrAmountTooLong reports an integer part longer than ten digits.
	ErrAmountTooLong = errors.New("dialog: amount integer part too long")
)

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseAmount validates a typed amount against the flow's grammar and
// returns it rounded to two fractional digits.
func ParseAmount(input string) (decimal.Decimal, error) {
	text := strings.TrimSpace(input)
	parts := strings.Split(text, ".")
	if len(parts) > 2 {
		return decimal.Decimal{}, ErrAmountFormat
	}
	for _, part := range parts {
		if !allDigits(part) {
			return decimal.Decimal{}, ErrAmountFormat
		}
	}
	if len(parts[0]) > maxIntegerDigits {
		return decimal.Decimal{}, ErrAmountTooLong
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, ErrAmountFormat
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Decimal{}, ErrAmountFormat
	}
	return amount, nil
}
