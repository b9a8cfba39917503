// Package menu defines the navigation token carried by every inline button
// and its wire codec. Tokens ride in the callback payload after the shared
// "menu" unique key, using telebot's \f<unique>|<payload> encoding.
package menu

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Unique is the callback unique key shared by all menu buttons.
const Unique = "menu"

// Telegram caps callback_data at 64 bytes; the \fmenu| framing takes six.
const maxPayloadBytes = 58

const sep = "|"

// Menu names understood by the root menu and the dialog flow.
const (
	Main       = "main"
	AddExpense = "add_expense"
	AddIncome  = "add_income"
	Categories = "categories"
	Limits     = "limits"
	History    = "history"
	Statistics = "statistics"
)

// ErrMalformedToken reports a callback payload that does not decode into a
// valid navigation token.
var ErrMalformedToken = errors.New("menu: malformed token")

// Action is an optional verb carried by dialog control buttons.
type Action string

const (
	// ActionNone marks a token without a verb.
	ActionNone Action = ""
	// ActionSkip skips the optional description step.
	ActionSkip Action = "skip"
	// ActionSave confirms and persists the assembled draft.
	ActionSave Action = "save"
)

// Token is the immutable navigation payload of one inline button.
// A root token (level 0) never carries a category or an action.
type Token struct {
	Level    int
	Menu     string
	Category string
	Action   Action
}

// Root returns the token that navigates back to the root menu.
func Root() Token {
	return Token{Level: 0, Menu: Main}
}

// IsRoot reports whether the token points at the root menu.
func (t Token) IsRoot() bool {
	return t.Level == 0
}

func (t Token) validate() error {
	if t.Level < 0 {
		return fmt.Errorf("%w: negative level %d", ErrMalformedToken, t.Level)
	}
	if t.Menu == "" {
		return fmt.Errorf("%w: empty menu name", ErrMalformedToken)
	}
	if strings.Contains(t.Menu, sep) || strings.Contains(t.Category, sep) {
		return fmt.Errorf("%w: separator in field", ErrMalformedToken)
	}
	switch t.Action {
	case ActionNone, ActionSkip, ActionSave:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrMalformedToken, t.Action)
	}
	if t.Level == 0 && (t.Category != "" || t.Action != ActionNone) {
		return fmt.Errorf("%w: root token carries category or action", ErrMalformedToken)
	}
	return nil
}

// Encode serializes the token into a callback payload.
func (t Token) Encode() (string, error) {
	if err := t.validate(); err != nil {
		return "", err
	}
	payload := strings.Join([]string{
		strconv.Itoa(t.Level),
		t.Menu,
		t.Category,
		string(t.Action),
	}, sep)
	if len(payload) > maxPayloadBytes {
		return "", fmt.Errorf("%w: payload %d bytes exceeds limit %d", ErrMalformedToken, len(payload), maxPayloadBytes)
	}
	return payload, nil
}

// DecodeData parses raw callback data as delivered by the transport.
// Telebot frames button data as "\f<unique>|<payload>" and strips the
// framing only for handlers registered per unique key; a catch-all
// OnCallback handler receives it intact, so the framing is removed here
// before decoding. Unframed payloads pass through unchanged.
func DecodeData(data string) (Token, error) {
	payload := data
	if strings.HasPrefix(payload, "\f") {
		rest := payload[1:]
		idx := strings.Index(rest, sep)
		if idx < 0 || rest[:idx] != Unique {
			return Token{}, fmt.Errorf("%w: unexpected callback key", ErrMalformedToken)
		}
		payload = rest[idx+1:]
	}
	return Decode(payload)
}

// Decode parses a callback payload back into a token. It rejects truncated,
// oversized, and field-mismatched payloads.
func Decode(payload string) (Token, error) {
	if len(payload) > maxPayloadBytes {
		return Token{}, fmt.Errorf("%w: payload %d bytes exceeds limit %d", ErrMalformedToken, len(payload), maxPayloadBytes)
	}
	parts := strings.Split(payload, sep)
	if len(parts) != 4 {
		return Token{}, fmt.Errorf("%w: expected 4 segments, got %d", ErrMalformedToken, len(parts))
	}
	level, err := strconv.Atoi(parts[0])
	if err != nil {
		return Token{}, fmt.Errorf("%w: bad level %q", ErrMalformedToken, parts[0])
	}
	t := Token{
		Level:    level,
		Menu:     parts[1],
		Category: parts[2],
		Action:   Action(parts[3]),
	}
	if err := t.validate(); err != nil {
		return Token{}, err
	}
	return t, nil
}
