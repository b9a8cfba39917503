package bot

import (
	"errors"
	"fmt"
	"strings"

	"finbot/internal/logger"
	"finbot/internal/model"
	"finbot/internal/storage"
	"finbot/internal/telegram/dialog"
	"finbot/internal/telegram/helpers"
	"finbot/internal/telegram/keyboard"
	"finbot/internal/telegram/menu"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

const underConstructionText = "Раздел находится в разработке"

// startHandler registers the user, seeds default categories on first contact
// and shows the root menu.
func (b *Bot) startHandler(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	user := c.Sender()
	if user == nil {
		return nil
	}

	created, err := b.repo.UpsertUser(ctx, user.ID, user.FirstName, user.LastName)
	if err != nil {
		logger.Error(ctx, "bot", "start.upsert_failed",
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
		return c.Send("Не удалось зарегистрировать пользователя. Попробуйте еще раз.")
	}
	if created {
		internalID, err := b.repo.UserID(ctx, user.ID)
		if err == nil {
			err = b.repo.SeedDefaultCategories(ctx, internalID,
				b.cfg.Defaults.IncomeCategories,
				b.cfg.Defaults.ExpenseCategories,
			)
		}
		if err != nil {
			logger.Error(ctx, "bot", "start.seed_failed",
				slog.Int64("user_id", user.ID),
				slog.String("err", err.Error()),
			)
		}
	}

	// /start always aborts whatever conversation was active.
	b.sessions.Clear(user.ID)

	if err := c.Send(fmt.Sprintf("Привет, %s!", user.FirstName)); err != nil {
		return err
	}
	return b.sendRootMenu(c)
}

func (b *Bot) sendRootMenu(c tele.Context) error {
	prompt := dialog.RootPrompt(nil)
	markup, err := keyboard.Inline(prompt.Keyboard)
	if err != nil {
		return err
	}
	return c.Send(prompt.Text, markup)
}

// mainView redraws the root menu in place of the tapped message.
func (b *Bot) mainView(c tele.Context) error {
	_ = c.Respond()
	prompt := dialog.RootPrompt(nil)
	markup, err := keyboard.Inline(prompt.Keyboard)
	if err != nil {
		return err
	}
	if err := c.Edit(prompt.Text, markup); err != nil {
		return c.Send(prompt.Text, markup)
	}
	return nil
}

// categoriesView lists the user's active categories grouped by kind.
func (b *Bot) categoriesView(c tele.Context) error {
	_ = c.Respond()
	ctx := helpers.BuildContext(c)
	userID, err := b.repo.UserID(ctx, helpers.SenderID(c))
	if err != nil {
		return b.viewError(c, err)
	}

	income, err := b.repo.ActiveCategories(ctx, userID, true)
	if err != nil {
		return b.viewError(c, err)
	}
	expense, err := b.repo.ActiveCategories(ctx, userID, false)
	if err != nil {
		return b.viewError(c, err)
	}

	var sb strings.Builder
	sb.WriteString("Ваши категории\n\nДоходы:\n")
	writeCategoryList(&sb, income)
	sb.WriteString("\nРасходы:\n")
	writeCategoryList(&sb, expense)

	return b.editWithBack(c, sb.String())
}

func writeCategoryList(sb *strings.Builder, categories []model.Category) {
	if len(categories) == 0 {
		sb.WriteString("  —\n")
		return
	}
	for _, cat := range categories {
		fmt.Fprintf(sb, "  • %s\n", cat.Name)
	}
}

// historyView shows the last ten records, newest first.
func (b *Bot) historyView(c tele.Context) error {
	_ = c.Respond()
	ctx := helpers.BuildContext(c)
	userID, err := b.repo.UserID(ctx, helpers.SenderID(c))
	if err != nil {
		return b.viewError(c, err)
	}

	entries, err := b.repo.RecentTransactions(ctx, userID, 10)
	if err != nil {
		return b.viewError(c, err)
	}
	if len(entries) == 0 {
		return b.editWithBack(c, "История операций пуста.")
	}
	return b.editWithBack(c, formatHistory(entries))
}

func formatHistory(entries []model.HistoryEntry) string {
	var sb strings.Builder
	sb.WriteString("Последние операции\n\n")
	for _, e := range entries {
		sign := "➖"
		if e.IsIncome {
			sign = "➕"
		}
		fmt.Fprintf(&sb, "%s %s - %s", sign, e.Amount.StringFixed(2), e.Category)
		if e.Description != nil && *e.Description != "" {
			fmt.Fprintf(&sb, " - %s", *e.Description)
		}
		fmt.Fprintf(&sb, " (%s)\n", e.CreatedAt.Format("02.01.2006"))
	}
	return sb.String()
}

// stubView acknowledges sections that are not implemented yet.
func (b *Bot) stubView(c tele.Context) error {
	return c.Respond(&tele.CallbackResponse{Text: underConstructionText})
}

func (b *Bot) textFallback(c tele.Context) error {
	return c.Send("Я вас не понял. Отправьте /start, чтобы открыть меню.")
}

func backKeyboard() *dialog.Keyboard {
	return &dialog.Keyboard{Rows: [][]dialog.Button{
		{{Text: "⬅️ Назад", Token: menu.Root()}},
	}}
}

// editWithBack replaces the tapped message with text and a back-to-menu row.
func (b *Bot) editWithBack(c tele.Context, text string) error {
	markup, err := keyboard.Inline(backKeyboard())
	if err != nil {
		return err
	}
	if err := c.Edit(text, markup); err != nil {
		return c.Send(text, markup)
	}
	return nil
}

func (b *Bot) viewError(c tele.Context, err error) error {
	ctx := helpers.BuildContext(c)
	if errors.Is(err, storage.ErrUserNotFound) {
		return c.Send("Отправьте /start, чтобы начать.")
	}
	logger.Error(ctx, "bot", "view.failed",
		slog.Int64("user_id", helpers.SenderID(c)),
		slog.String("err", err.Error()),
	)
	return c.Send("Произошла ошибка. Попробуйте еще раз.")
}
