package bot

import (
	"finbot/internal/telegram/dialog"
	"finbot/internal/telegram/helpers"
	"finbot/internal/telegram/menu"

	tele "gopkg.in/telebot.v4"
)

// flow is the dialog entry point handed to the router. It serializes events
// per user through the session store and applies the resulting plans.
type flow struct {
	sessions *dialog.Store
	machine  *dialog.Machine
	exec     *executor
}

func (f *flow) InProgress(userID int64) bool {
	return f.sessions.InProgress(userID)
}

func (f *flow) HandleText(c tele.Context) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	userID := helpers.SenderID(c)
	ref := dialog.PromptRef{ChatID: msg.Chat.ID, MessageID: msg.ID}

	return f.sessions.Do(userID, func(s *dialog.Session) error {
		plan := f.machine.Handle(ctx, userID, s, dialog.TextEvent(ref, c.Text()))
		return f.exec.Apply(ctx, c, s, plan)
	})
}

func (f *flow) HandleCallback(c tele.Context, tok menu.Token) error {
	cb := c.Callback()
	if cb == nil || cb.Message == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	userID := helpers.SenderID(c)
	ref := dialog.PromptRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.ID}

	return f.sessions.Do(userID, func(s *dialog.Session) error {
		plan := f.machine.Handle(ctx, userID, s, dialog.ButtonEvent(ref, tok))
		return f.exec.Apply(ctx, c, s, plan)
	})
}
