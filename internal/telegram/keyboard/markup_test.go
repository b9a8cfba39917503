package keyboard

import (
	"testing"

	"finbot/internal/telegram/dialog"
	"finbot/internal/telegram/menu"
)

func TestInlineLayoutAndPayloads(t *testing.T) {
	markup, err := Inline(dialog.RootKeyboard())
	if err != nil {
		t.Fatal(err)
	}
	rows := markup.InlineKeyboard
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	for i, row := range rows {
		if len(row) != 2 {
			t.Errorf("row %d has %d buttons", i, len(row))
		}
	}

	btn := rows[0][0]
	if btn.Unique != menu.Unique {
		t.Errorf("unique = %q", btn.Unique)
	}
	tok, err := menu.Decode(btn.Data)
	if err != nil {
		t.Fatalf("decode %q: %v", btn.Data, err)
	}
	if tok.Menu != menu.AddExpense || tok.Level != 1 {
		t.Errorf("token = %+v", tok)
	}
}

func TestInlineButtonsSurviveTransportRoundTrip(t *testing.T) {
	kb := dialog.RootKeyboard()
	markup, err := Inline(kb)
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range markup.InlineKeyboard {
		for j, btn := range row {
			// Telebot frames the data as "\f<unique>|<payload>" on send and
			// delivers it intact to a catch-all callback handler.
			wire := "\f" + btn.Unique + "|" + btn.Data
			tok, err := menu.DecodeData(wire)
			if err != nil {
				t.Fatalf("row %d col %d: decode %q: %v", i, j, wire, err)
			}
			if want := kb.Rows[i][j].Token; tok != want {
				t.Errorf("row %d col %d: token = %+v, want %+v", i, j, tok, want)
			}
		}
	}
}

func TestInlineNilKeyboard(t *testing.T) {
	markup, err := Inline(nil)
	if err != nil || markup != nil {
		t.Errorf("nil keyboard: markup=%v err=%v", markup, err)
	}
}

func TestInlineRejectsUnencodableButton(t *testing.T) {
	kb := &dialog.Keyboard{Rows: [][]dialog.Button{{
		{Text: "bad", Token: menu.Token{Level: 1, Menu: "a|b"}},
	}}}
	if _, err := Inline(kb); err == nil {
		t.Error("expected encode error")
	}
}
