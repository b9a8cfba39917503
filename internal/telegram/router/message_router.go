package router

import (
	"time"

	tg "finbot/internal/telegram"
	"finbot/internal/telegram/helpers"
	"finbot/internal/telegram/menu"
	"finbot/internal/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Flow is the dialog entry point seen by the router. Text and button updates
// belonging to an active conversation are handed to it instead of the
// command or view tables.
type Flow interface {
	InProgress(userID int64) bool
	HandleText(c tele.Context) error
	HandleCallback(c tele.Context, tok menu.Token) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoute builds the handler for plain text messages. Text goes to the
// dialog flow while a conversation is active, otherwise to the matching
// slash command or the fallback.
func TextRoute(flow Flow, reg *tg.Registry, opts TextOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if flow != nil && flow.InProgress(helpers.SenderID(c)) {
			return handleWithSummary(c, "dialog", start, func() error {
				return flow.HandleText(c)
			})
		}

		if reg != nil {
			if cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(text)
				return handleWithSummary(c, name, start, func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	return tg.Route{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
