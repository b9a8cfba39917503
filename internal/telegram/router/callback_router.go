package router

import (
	"time"

	tg "finbot/internal/telegram"
	"finbot/internal/telegram/helpers"
	"finbot/internal/telegram/menu"
	"finbot/internal/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that decodes navigation tokens and routes
// taps either to the dialog flow or to the view registered for the token's
// menu name. Malformed payloads are acknowledged and dropped.
func CallbackRoute(flow Flow, reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		cb := c.Callback()
		if cb == nil {
			return nil
		}

		tok, err := menu.DecodeData(cb.Data)
		if err != nil {
			logHandlerSummary(c, "callback.malformed", start, "skip", nil,
				slog.String("payload", cb.Data))
			return c.Respond(&tele.CallbackResponse{Text: "Неизвестное действие"})
		}

		name := "callback." + normalizeHandlerName(tok.Menu)
		extras := []slog.Attr{
			slog.String("cb_key", menu.Unique),
			slog.String("menu", tok.Menu),
		}

		dialogBound := tok.Menu == menu.AddExpense || tok.Menu == menu.AddIncome
		if flow != nil && (dialogBound || flow.InProgress(helpers.SenderID(c))) {
			return handleWithSummary(c, "dialog."+normalizeHandlerName(tok.Menu), start, func() error {
				return flow.HandleCallback(c, tok)
			}, extras...)
		}

		viewHandler, ok := reg.GetView(tok.Menu)
		if !ok || viewHandler == nil {
			fallback := reg.ViewNotFound()
			if fallback == nil {
				fallback = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		return handleWithSummary(c, name, start, func() error {
			return viewHandler(c)
		}, extras...)
	}

	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
