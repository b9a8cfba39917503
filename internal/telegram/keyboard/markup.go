// Package keyboard converts dialog keyboards into telebot reply markups.
package keyboard

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"finbot/internal/telegram/dialog"
	"finbot/internal/telegram/menu"
)

// Inline converts a dialog keyboard into an inline reply markup. Every button
// carries its navigation token in the callback payload under the shared
// callback key, so taps come back through a single handler.
func Inline(kb *dialog.Keyboard) (*tele.ReplyMarkup, error) {
	if kb == nil {
		return nil, nil
	}
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		r := make([]tele.InlineButton, 0, len(row))
		for _, btn := range row {
			payload, err := btn.Token.Encode()
			if err != nil {
				return nil, fmt.Errorf("keyboard: encode button %q: %w", btn.Text, err)
			}
			r = append(r, *markup.Data(btn.Text, menu.Unique, payload).Inline())
		}
		inline = append(inline, r)
	}
	markup.InlineKeyboard = inline
	return markup, nil
}
