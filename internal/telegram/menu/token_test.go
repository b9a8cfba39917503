package menu

import (
	"errors"
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := []Token{
		Root(),
		{Level: 1, Menu: AddExpense},
		{Level: 1, Menu: AddIncome},
		{Level: 1, Menu: AddExpense, Category: "Продукты"},
		{Level: 1, Menu: AddIncome, Category: "Зарплата"},
		{Level: 1, Menu: AddExpense, Action: ActionSkip},
		{Level: 1, Menu: AddIncome, Action: ActionSave},
		{Level: 2, Menu: Categories},
		{Level: 3, Menu: History, Category: "ЖКХ", Action: ActionSave},
	}
	for _, tok := range tokens {
		payload, err := tok.Encode()
		if err != nil {
			t.Fatalf("encode %+v: %v", tok, err)
		}
		got, err := Decode(payload)
		if err != nil {
			t.Fatalf("decode %q: %v", payload, err)
		}
		if got != tok {
			t.Errorf("round trip mismatch: %+v -> %q -> %+v", tok, payload, got)
		}
	}
}

func TestEncodeRejectsInvalidTokens(t *testing.T) {
	cases := map[string]Token{
		"negative level":       {Level: -1, Menu: Main},
		"empty menu":           {Level: 1},
		"separator in menu":    {Level: 1, Menu: "a|b"},
		"separator in cat":     {Level: 1, Menu: AddExpense, Category: "a|b"},
		"unknown action":       {Level: 1, Menu: AddExpense, Action: "drop"},
		"root with category":   {Level: 0, Menu: Main, Category: "Продукты"},
		"root with action":     {Level: 0, Menu: Main, Action: ActionSave},
		"over payload limit":   {Level: 1, Menu: AddExpense, Category: strings.Repeat("я", 40)},
	}
	for name, tok := range cases {
		if _, err := tok.Encode(); !errors.Is(err, ErrMalformedToken) {
			t.Errorf("%s: expected ErrMalformedToken, got %v", name, err)
		}
	}
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":              "",
		"too few segments":   "1|add_expense",
		"too many segments":  "1|add_expense|a|b|c",
		"non-numeric level":  "x|add_expense||",
		"empty menu":         "1|||",
		"unknown action":     "1|add_expense||drop",
		"root with category": "0|main|Продукты|",
		"root with action":   "0|main||save",
		"oversized":          "1|add_expense|" + strings.Repeat("я", 40) + "|",
	}
	for name, payload := range cases {
		if _, err := Decode(payload); !errors.Is(err, ErrMalformedToken) {
			t.Errorf("%s: expected ErrMalformedToken for %q, got %v", name, payload, err)
		}
	}
}

func TestDecodeDataStripsTransportFraming(t *testing.T) {
	tokens := []Token{
		Root(),
		{Level: 1, Menu: AddExpense},
		{Level: 1, Menu: AddExpense, Category: "Продукты"},
		{Level: 1, Menu: AddIncome, Action: ActionSave},
	}
	for _, tok := range tokens {
		payload, err := tok.Encode()
		if err != nil {
			t.Fatalf("encode %+v: %v", tok, err)
		}
		// A catch-all callback handler receives the data still framed.
		framed := "\f" + Unique + "|" + payload
		got, err := DecodeData(framed)
		if err != nil {
			t.Fatalf("decode %q: %v", framed, err)
		}
		if got != tok {
			t.Errorf("framed round trip mismatch: %+v -> %q -> %+v", tok, framed, got)
		}

		// Unframed payloads must keep decoding unchanged.
		got, err = DecodeData(payload)
		if err != nil {
			t.Fatalf("decode %q: %v", payload, err)
		}
		if got != tok {
			t.Errorf("unframed round trip mismatch: %+v -> %q -> %+v", tok, payload, got)
		}
	}
}

func TestDecodeDataRejectsForeignFraming(t *testing.T) {
	cases := map[string]string{
		"wrong unique":     "\fother|1|add_expense||",
		"missing payload":  "\fmenu",
		"bare marker":      "\f",
		"framed malformed": "\fmenu|1|add_expense",
	}
	for name, data := range cases {
		if _, err := DecodeData(data); !errors.Is(err, ErrMalformedToken) {
			t.Errorf("%s: expected ErrMalformedToken for %q, got %v", name, data, err)
		}
	}
}

func TestDecodeKeepsUnicodeCategories(t *testing.T) {
	tok := Token{Level: 1, Menu: AddExpense, Category: "Лекарства"}
	payload, err := tok.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Category != "Лекарства" {
		t.Errorf("category = %q", got.Category)
	}
}
