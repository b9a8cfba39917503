package bot

import (
	"context"
	"fmt"
	"strconv"

	"finbot/internal/logger"
	"finbot/internal/telegram/dialog"
	"finbot/internal/telegram/keyboard"
	"finbot/internal/telegram/sender"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// executor applies render plans to Telegram. Deletions are dispatched
// asynchronously and best-effort; the prompt itself is sent synchronously so
// its message id can be recorded in the session.
type executor struct {
	dispatcher *sender.Dispatcher
}

func stored(ref dialog.PromptRef) *tele.StoredMessage {
	return &tele.StoredMessage{
		MessageID: strconv.Itoa(ref.MessageID),
		ChatID:    ref.ChatID,
	}
}

// Apply executes the plan against the chat of c. When the session is still
// mid-flow the new prompt is recorded as its last prompt so the next
// transition can clean it up.
func (e *executor) Apply(ctx context.Context, c tele.Context, s *dialog.Session, plan dialog.Plan) error {
	bot := c.Bot()

	for _, ref := range plan.Deletes {
		ref := ref
		err := e.dispatcher.Enqueue(ctx, "delete", func() error {
			return bot.Delete(stored(ref))
		})
		if err != nil {
			logger.Warn(ctx, "tg", "delete.enqueue_failed",
				slog.Int64("chat_id", ref.ChatID),
				slog.String("err", err.Error()),
			)
		}
	}

	if c.Callback() != nil {
		resp := &tele.CallbackResponse{Text: plan.Ack, ShowAlert: plan.AckAlert}
		if err := c.Respond(resp); err != nil {
			logger.Warn(ctx, "tg", "callback.respond_failed",
				slog.String("err", err.Error()),
			)
		}
	}

	if plan.Prompt == nil {
		return nil
	}

	markup, err := keyboard.Inline(plan.Prompt.Keyboard)
	if err != nil {
		return fmt.Errorf("build markup: %w", err)
	}
	opts := make([]interface{}, 0, 1)
	if markup != nil {
		opts = append(opts, markup)
	}

	var msg *tele.Message
	if plan.Prompt.Edit != nil {
		msg, err = bot.Edit(stored(*plan.Prompt.Edit), plan.Prompt.Text, opts...)
		if err != nil {
			// The original message may be gone; fall back to a fresh send.
			logger.Debug(ctx, "tg", "prompt.edit_failed",
				slog.Int64("chat_id", plan.Prompt.Edit.ChatID),
				slog.String("err", err.Error()),
			)
			msg, err = bot.Send(tele.ChatID(plan.Prompt.Edit.ChatID), plan.Prompt.Text, opts...)
		}
	} else {
		chat := c.Chat()
		if chat == nil {
			return fmt.Errorf("no chat to send prompt to")
		}
		msg, err = bot.Send(tele.ChatID(chat.ID), plan.Prompt.Text, opts...)
	}
	if err != nil {
		return fmt.Errorf("send prompt: %w", err)
	}

	if s != nil && s.InProgress() && msg != nil {
		s.LastPrompt = &dialog.PromptRef{ChatID: msg.Chat.ID, MessageID: msg.ID}
	}
	return nil
}
