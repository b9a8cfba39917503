package dialog

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAmountAccepts(t *testing.T) {
	cases := map[string]string{
		"100":        "100.00",
		"100.5":      "100.50",
		"100.55":     "100.55",
		"0.5":        "0.50",
		"  250  ":    "250.00",
		"100.999":    "101.00",
		"9999999999": "9999999999.00",
	}
	for input, want := range cases {
		got, err := ParseAmount(input)
		if err != nil {
			t.Errorf("ParseAmount(%q): %v", input, err)
			continue
		}
		if got.StringFixed(2) != want {
			t.Errorf("ParseAmount(%q) = %s, want %s", input, got.StringFixed(2), want)
		}
	}
}

func TestParseAmountRejectsFormat(t *testing.T) {
	inputs := []string{
		"", "abc", "-100", "+100", "1,5", "1.2.3", ".5.", "100.", ".5",
		"100 50", "1e3", "NaN", "0", "0.00", "0.001",
	}
	for _, input := range inputs {
		if _, err := ParseAmount(input); !errors.Is(err, ErrAmountFormat) {
			t.Errorf("ParseAmount(%q): expected ErrAmountFormat, got %v", input, err)
		}
	}
}

func TestParseAmountRejectsLongIntegerPart(t *testing.T) {
	input := strings.Repeat("1", 11)
	if _, err := ParseAmount(input); !errors.Is(err, ErrAmountTooLong) {
		t.Errorf("ParseAmount(%q): expected ErrAmountTooLong, got %v", input, err)
	}
	if _, err := ParseAmount(strings.Repeat("1", 11) + ".50"); !errors.Is(err, ErrAmountTooLong) {
		t.Error("expected ErrAmountTooLong with fractional part present")
	}
	if _, err := ParseAmount(strings.Repeat("1", 10)); err != nil {
		t.Errorf("ten digits must be accepted, got %v", err)
	}
}
