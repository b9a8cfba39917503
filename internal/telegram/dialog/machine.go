package dialog

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"finbot/internal/logger"
	"finbot/internal/model"
	"finbot/internal/telegram/menu"
	"log/slog"
)

const maxDescriptionLen = 150

// EventKind distinguishes typed text from button taps.
type EventKind string

const (
	// EventText is a plain text message from the user.
	EventText EventKind = "text"
	// EventButton is an inline button tap carrying a navigation token.
	EventButton EventKind = "button"
)

// Event is one inbound update normalized for the state machine.
type Event struct {
	Kind  EventKind
	Text  string
	Token menu.Token
	// Ref identifies the message carrying the event: the user's text
	// message or the prompt whose button was tapped.
	Ref PromptRef
}

// TextEvent wraps a typed message.
func TextEvent(ref PromptRef, text string) Event {
	return Event{Kind: EventText, Text: text, Ref: ref}
}

// ButtonEvent wraps a decoded button tap.
func ButtonEvent(ref PromptRef, token menu.Token) Event {
	return Event{Kind: EventButton, Token: token, Ref: ref}
}

// Ledger is the persistence collaborator of the flow. Categories are listed
// when the amount is accepted; Record resolves the category by name at save
// time and persists the draft.
type Ledger interface {
	CategoriesFor(ctx context.Context, userID int64, isIncome bool) ([]model.Category, error)
	Record(ctx context.Context, userID int64, draft model.Draft) error
}

// Machine drives the add-transaction flow. It is stateless itself; all flow
// state lives in the session passed to Handle.
type Machine struct {
	ledger Ledger
	now    func() time.Time
}

// NewMachine constructs a dialog machine over the given ledger.
func NewMachine(ledger Ledger) *Machine {
	return &Machine{ledger: ledger, now: time.Now}
}

type transitionKey struct {
	step Step
	kind EventKind
}

type transitionFunc func(m *Machine, ctx context.Context, userID int64, s *Session, ev Event) Plan

// transitions is the dispatch table of the flow. A missing entry means the
// event is stray for the current step and is ignored.
var transitions = map[transitionKey]transitionFunc{
	{StepIdle, EventButton}:                 (*Machine).startFlow,
	{StepAwaitingAmount, EventText}:         (*Machine).amountEntered,
	{StepAwaitingCategory, EventButton}:     (*Machine).categoryChosen,
	{StepAwaitingDescription, EventButton}:  (*Machine).descriptionSkipped,
	{StepAwaitingDescription, EventText}:    (*Machine).descriptionEntered,
	{StepAwaitingConfirmation, EventButton}: (*Machine).confirm,
}

// Handle processes one event against the session and returns the render
// plan. The session must be held under its per-user lock by the caller.
func (m *Machine) Handle(ctx context.Context, userID int64, s *Session, ev Event) Plan {
	if ev.Kind == EventButton && ev.Token.IsRoot() && s.InProgress() {
		return m.cancel(ctx, userID, s, ev)
	}

	fn, ok := transitions[transitionKey{s.Step, ev.Kind}]
	if !ok {
		logger.Debug(ctx, "dialog", "event.ignored",
			slog.String("step", string(s.Step)),
			slog.String("kind", string(ev.Kind)),
			slog.Int64("user_id", userID),
		)
		return Plan{}
	}
	return fn(m, ctx, userID, s, ev)
}

func (m *Machine) startFlow(ctx context.Context, userID int64, s *Session, ev Event) Plan {
	var text string
	switch ev.Token.Menu {
	case menu.AddExpense:
		text = "Введите сумму расхода:"
	case menu.AddIncome:
		text = "Введите сумму дохода:"
	default:
		return Plan{}
	}

	s.Reset()
	s.IsIncome = ev.Token.Menu == menu.AddIncome
	s.Step = StepAwaitingAmount

	logger.Debug(ctx, "dialog", "flow.start",
		slog.String("menu", ev.Token.Menu),
		slog.Int64("user_id", userID),
	)
	return Plan{Prompt: &Prompt{Text: text, Keyboard: cancelKeyboard(), Edit: &ev.Ref}}
}

func (m *Machine) amountEntered(ctx context.Context, userID int64, s *Session, ev Event) Plan {
	plan := Plan{Deletes: m.staleRefs(s, ev)}

	amount, err := ParseAmount(ev.Text)
	switch err {
	case nil:
	case ErrAmountTooLong:
		plan.Prompt = &Prompt{
			Text:     "Длина целой части числа не должна превышать 10 цифр!\n\nВведите сумму корректно:",
			Keyboard: cancelKeyboard(),
		}
		return plan
	default:
		plan.Prompt = &Prompt{
			Text:     "Вводить можно только положительное десятичное число, разделённое точкой!\n\nВведите сумму корректно:",
			Keyboard: cancelKeyboard(),
		}
		return plan
	}

	categories, err := m.ledger.CategoriesFor(ctx, userID, s.IsIncome)
	if err != nil {
		logger.Error(ctx, "dialog", "categories.load_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		s.Reset()
		plan.Prompt = RootPrompt(nil)
		plan.Prompt.Text = "Не удалось загрузить категории. Попробуйте еще раз."
		return plan
	}
	if len(categories) == 0 {
		s.Reset()
		plan.Prompt = RootPrompt(nil)
		plan.Prompt.Text = "У вас нет активных категорий."
		return plan
	}

	s.Amount = amount
	s.HasAmount = true
	s.Step = StepAwaitingCategory

	menuName := menu.AddExpense
	text := "Выберите категорию расхода:"
	if s.IsIncome {
		menuName = menu.AddIncome
		text = "Выберите категорию дохода:"
	}
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	plan.Prompt = &Prompt{Text: text, Keyboard: categoryKeyboard(menuName, names)}
	return plan
}

func (m *Machine) categoryChosen(ctx context.Context, userID int64, s *Session, ev Event) Plan {
	if ev.Token.Category == "" {
		return Plan{}
	}

	s.Category = ev.Token.Category
	s.Step = StepAwaitingDescription

	logger.Debug(ctx, "dialog", "category.selected",
		slog.String("category", s.Category),
		slog.Int64("user_id", userID),
	)
	return Plan{Prompt: &Prompt{
		Text:     "Введите примечание к операции или нажмите кнопку «Пропустить»:",
		Keyboard: skipKeyboard(ev.Token.Menu),
		Edit:     &ev.Ref,
	}}
}

func (m *Machine) descriptionSkipped(ctx context.Context, userID int64, s *Session, ev Event) Plan {
	if ev.Token.Action != menu.ActionSkip {
		return Plan{}
	}

	s.Description = nil
	s.Step = StepAwaitingConfirmation
	return Plan{Prompt: &Prompt{
		Text:     m.summary(s),
		Keyboard: confirmKeyboard(ev.Token.Menu),
		Edit:     &ev.Ref,
	}}
}

func (m *Machine) descriptionEntered(ctx context.Context, userID int64, s *Session, ev Event) Plan {
	plan := Plan{Deletes: m.staleRefs(s, ev)}

	menuName := menu.AddExpense
	if s.IsIncome {
		menuName = menu.AddIncome
	}

	if utf8.RuneCountInString(ev.Text) > maxDescriptionLen {
		plan.Prompt = &Prompt{
			Text:     "Длина примечания не должна превышать 150 символов!\n\nВведите примечание корректно:",
			Keyboard: skipKeyboard(menuName),
		}
		return plan
	}

	text := ev.Text
	s.Description = &text
	s.Step = StepAwaitingConfirmation
	plan.Prompt = &Prompt{Text: m.summary(s), Keyboard: confirmKeyboard(menuName)}
	return plan
}

func (m *Machine) confirm(ctx context.Context, userID int64, s *Session, ev Event) Plan {
	if ev.Token.Action != menu.ActionSave {
		return Plan{}
	}

	draft := model.Draft{
		IsIncome:    s.IsIncome,
		Amount:      s.Amount,
		Category:    s.Category,
		Description: s.Description,
		At:          m.now(),
	}

	plan := Plan{Prompt: RootPrompt(&ev.Ref)}
	if err := m.ledger.Record(ctx, userID, draft); err != nil {
		logger.Error(ctx, "dialog", "draft.save_failed",
			slog.Int64("user_id", userID),
			slog.String("category", draft.Category),
			slog.String("err", err.Error()),
		)
		plan.Ack = "При добавлении записи произошла ошибка! Попробуйте еще раз."
		plan.AckAlert = true
	} else {
		logger.Info(ctx, "dialog", "draft.saved",
			slog.Int64("user_id", userID),
			slog.String("category", draft.Category),
			slog.String("amount", draft.Amount.StringFixed(2)),
			slog.Bool("income", draft.IsIncome),
		)
		plan.Ack = "Запись добавлена успешно!"
	}

	// The flow always ends here, success or not.
	s.Reset()
	return plan
}

func (m *Machine) cancel(ctx context.Context, userID int64, s *Session, ev Event) Plan {
	logger.Debug(ctx, "dialog", "flow.cancel",
		slog.String("step", string(s.Step)),
		slog.Int64("user_id", userID),
	)
	s.Reset()
	return Plan{Prompt: RootPrompt(&ev.Ref), Ack: "Отменено"}
}

// staleRefs collects the previous prompt and the inbound text message for
// deletion, so no stale keyboard stays actionable and typed input does not
// clutter the chat.
func (m *Machine) staleRefs(s *Session, ev Event) []PromptRef {
	refs := make([]PromptRef, 0, 2)
	if s.LastPrompt != nil {
		refs = append(refs, *s.LastPrompt)
		s.LastPrompt = nil
	}
	refs = append(refs, ev.Ref)
	return refs
}

func (m *Machine) summary(s *Session) string {
	sign := "➖"
	if s.IsIncome {
		sign = "➕"
	}
	if s.Description != nil {
		return fmt.Sprintf("%s %s - %s - %s", sign, s.Amount.StringFixed(2), s.Category, *s.Description)
	}
	return fmt.Sprintf("%s %s - %s", sign, s.Amount.StringFixed(2), s.Category)
}
