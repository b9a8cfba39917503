package dialog

import (
	"finbot/internal/telegram/menu"
)

// Button is one inline button of a prompt keyboard.
type Button struct {
	Text  string
	Token menu.Token
}

// Keyboard is a transport-agnostic inline keyboard layout.
type Keyboard struct {
	Rows [][]Button
}

// Prompt is the next message shown to the user. When Edit is set the prompt
// replaces that message in place; otherwise a fresh message is sent.
type Prompt struct {
	Text     string
	Keyboard *Keyboard
	Edit     *PromptRef
}

// Plan is the render instruction produced by one transition. Deletes are
// executed best-effort before the prompt goes out, so at most one actionable
// prompt stays live per user.
type Plan struct {
	Deletes  []PromptRef
	Prompt   *Prompt
	Ack      string
	AckAlert bool
}

const (
	cancelButtonText = "❌ Отменить"
	skipButtonText   = "Пропустить"
	saveButtonText   = "💾 Сохранить"
)

// rootMenuButtons lists the root menu in display order.
var rootMenuButtons = []Button{
	{Text: "Добавить расход", Token: menu.Token{Level: 1, Menu: menu.AddExpense}},
	{Text: "Добавить доход", Token: menu.Token{Level: 1, Menu: menu.AddIncome}},
	{Text: "Категории", Token: menu.Token{Level: 1, Menu: menu.Categories}},
	{Text: "Лимиты", Token: menu.Token{Level: 1, Menu: menu.Limits}},
	{Text: "История", Token: menu.Token{Level: 1, Menu: menu.History}},
	{Text: "Статистика", Token: menu.Token{Level: 1, Menu: menu.Statistics}},
}

func cancelRow() []Button {
	return []Button{{Text: cancelButtonText, Token: menu.Root()}}
}

func cancelKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]Button{cancelRow()}}
}

func skipKeyboard(menuName string) *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{{Text: skipButtonText, Token: menu.Token{Level: 1, Menu: menuName, Action: menu.ActionSkip}}},
		cancelRow(),
	}}
}

func confirmKeyboard(menuName string) *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{{Text: saveButtonText, Token: menu.Token{Level: 1, Menu: menuName, Action: menu.ActionSave}}},
		cancelRow(),
	}}
}

// categoryKeyboard lays out category buttons two per row with a trailing
// single button for an odd remainder, followed by a cancel row.
func categoryKeyboard(menuName string, names []string) *Keyboard {
	kb := &Keyboard{}
	for i := 0; i < len(names); i += 2 {
		end := i + 2
		if end > len(names) {
			end = len(names)
		}
		row := make([]Button, 0, 2)
		for _, name := range names[i:end] {
			row = append(row, Button{
				Text:  name,
				Token: menu.Token{Level: 1, Menu: menuName, Category: name},
			})
		}
		kb.Rows = append(kb.Rows, row)
	}
	kb.Rows = append(kb.Rows, cancelRow())
	return kb
}

// RootKeyboard returns the root menu laid out two buttons per row.
func RootKeyboard() *Keyboard {
	kb := &Keyboard{}
	for i := 0; i < len(rootMenuButtons); i += 2 {
		end := i + 2
		if end > len(rootMenuButtons) {
			end = len(rootMenuButtons)
		}
		kb.Rows = append(kb.Rows, rootMenuButtons[i:end])
	}
	return kb
}

// RootPrompt builds the root menu prompt, optionally replacing an existing
// message in place.
func RootPrompt(edit *PromptRef) *Prompt {
	return &Prompt{
		Text:     "Выберите действие:",
		Keyboard: RootKeyboard(),
		Edit:     edit,
	}
}
