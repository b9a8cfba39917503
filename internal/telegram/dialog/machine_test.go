package dialog

import (
	"context"
	"errors"
	"testing"
	"time"

	"finbot/internal/model"
	"finbot/internal/telegram/menu"
	"github.com/shopspring/decimal"
)

type fakeLedger struct {
	categories    []model.Category
	categoriesErr error
	recordErr     error
	records       []model.Draft
	recordUsers   []int64
}

func (f *fakeLedger) CategoriesFor(ctx context.Context, userID int64, isIncome bool) ([]model.Category, error) {
	if f.categoriesErr != nil {
		return nil, f.categoriesErr
	}
	return f.categories, nil
}

func (f *fakeLedger) Record(ctx context.Context, userID int64, draft model.Draft) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, draft)
	f.recordUsers = append(f.recordUsers, userID)
	return nil
}

func expenseCategories() []model.Category {
	return []model.Category{
		{ID: 1, Name: "Продукты"},
		{ID: 2, Name: "ЖКХ"},
		{ID: 3, Name: "Лекарства"},
	}
}

func testMachine(ledger *fakeLedger) *Machine {
	m := NewMachine(ledger)
	m.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return m
}

func promptRef(msgID int) PromptRef {
	return PromptRef{ChatID: 77, MessageID: msgID}
}

func startToken(menuName string) menu.Token {
	return menu.Token{Level: 1, Menu: menuName}
}

func TestExpenseFlowEndToEnd(t *testing.T) {
	ledger := &fakeLedger{categories: expenseCategories()}
	m := testMachine(ledger)
	s := &Session{Step: StepIdle}
	ctx := context.Background()

	plan := m.Handle(ctx, 42, s, ButtonEvent(promptRef(1), startToken(menu.AddExpense)))
	if s.Step != StepAwaitingAmount || s.IsIncome {
		t.Fatalf("after start: step=%s income=%v", s.Step, s.IsIncome)
	}
	if plan.Prompt == nil || plan.Prompt.Edit == nil {
		t.Fatal("start must edit the tapped message")
	}
	if plan.Prompt.Text != "Введите сумму расхода:" {
		t.Errorf("start prompt = %q", plan.Prompt.Text)
	}

	s.LastPrompt = &PromptRef{ChatID: 77, MessageID: 1}
	plan = m.Handle(ctx, 42, s, TextEvent(promptRef(2), "250.50"))
	if s.Step != StepAwaitingCategory {
		t.Fatalf("after amount: step=%s", s.Step)
	}
	if !s.HasAmount || s.Amount.StringFixed(2) != "250.50" {
		t.Errorf("amount not captured: %v %s", s.HasAmount, s.Amount)
	}
	if len(plan.Deletes) != 2 {
		t.Errorf("expected prompt and text message deletions, got %d", len(plan.Deletes))
	}
	if plan.Prompt == nil || plan.Prompt.Keyboard == nil {
		t.Fatal("category prompt must carry a keyboard")
	}
	// Three categories chunk into a pair, a single and the cancel row.
	rows := plan.Prompt.Keyboard.Rows
	if len(rows) != 3 || len(rows[0]) != 2 || len(rows[1]) != 1 || len(rows[2]) != 1 {
		t.Errorf("unexpected category layout: %v", rows)
	}

	catTok := menu.Token{Level: 1, Menu: menu.AddExpense, Category: "Продукты"}
	plan = m.Handle(ctx, 42, s, ButtonEvent(promptRef(3), catTok))
	if s.Step != StepAwaitingDescription || s.Category != "Продукты" {
		t.Fatalf("after category: step=%s category=%q", s.Step, s.Category)
	}
	if plan.Prompt == nil || plan.Prompt.Edit == nil {
		t.Fatal("description prompt must edit in place")
	}

	s.LastPrompt = &PromptRef{ChatID: 77, MessageID: 3}
	plan = m.Handle(ctx, 42, s, TextEvent(promptRef(4), "молоко и хлеб"))
	if s.Step != StepAwaitingConfirmation {
		t.Fatalf("after description: step=%s", s.Step)
	}
	if s.Description == nil || *s.Description != "молоко и хлеб" {
		t.Errorf("description not captured: %v", s.Description)
	}
	if plan.Prompt == nil || plan.Prompt.Text != "➖ 250.50 - Продукты - молоко и хлеб" {
		t.Errorf("summary = %v", plan.Prompt)
	}

	saveTok := menu.Token{Level: 1, Menu: menu.AddExpense, Action: menu.ActionSave}
	plan = m.Handle(ctx, 42, s, ButtonEvent(promptRef(5), saveTok))
	if s.Step != StepIdle {
		t.Fatalf("after save: step=%s", s.Step)
	}
	if plan.Ack != "Запись добавлена успешно!" || plan.AckAlert {
		t.Errorf("ack = %q alert=%v", plan.Ack, plan.AckAlert)
	}
	if len(ledger.records) != 1 {
		t.Fatalf("records = %d", len(ledger.records))
	}
	rec := ledger.records[0]
	if rec.IsIncome || rec.Category != "Продукты" || rec.Amount.StringFixed(2) != "250.50" {
		t.Errorf("recorded draft = %+v", rec)
	}
	if rec.Description == nil || *rec.Description != "молоко и хлеб" {
		t.Errorf("recorded description = %v", rec.Description)
	}
	if ledger.recordUsers[0] != 42 {
		t.Errorf("recorded user = %d", ledger.recordUsers[0])
	}
}

func TestIncomeFlowWithSkippedDescription(t *testing.T) {
	ledger := &fakeLedger{categories: []model.Category{{ID: 5, Name: "Зарплата"}}}
	m := testMachine(ledger)
	s := &Session{Step: StepIdle}
	ctx := context.Background()

	m.Handle(ctx, 7, s, ButtonEvent(promptRef(1), startToken(menu.AddIncome)))
	if !s.IsIncome {
		t.Fatal("income flag not set")
	}
	m.Handle(ctx, 7, s, TextEvent(promptRef(2), "100000"))
	m.Handle(ctx, 7, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddIncome, Category: "Зарплата"}))

	skipTok := menu.Token{Level: 1, Menu: menu.AddIncome, Action: menu.ActionSkip}
	plan := m.Handle(ctx, 7, s, ButtonEvent(promptRef(3), skipTok))
	if s.Step != StepAwaitingConfirmation || s.Description != nil {
		t.Fatalf("after skip: step=%s description=%v", s.Step, s.Description)
	}
	if plan.Prompt == nil || plan.Prompt.Text != "➕ 100000.00 - Зарплата" {
		t.Errorf("summary = %v", plan.Prompt)
	}

	m.Handle(ctx, 7, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddIncome, Action: menu.ActionSave}))
	if len(ledger.records) != 1 || !ledger.records[0].IsIncome {
		t.Fatalf("income draft not recorded: %+v", ledger.records)
	}
	if ledger.records[0].Description != nil {
		t.Error("skipped description must be nil")
	}
}

func TestInvalidAmountKeepsState(t *testing.T) {
	ledger := &fakeLedger{categories: expenseCategories()}
	m := testMachine(ledger)
	s := &Session{Step: StepIdle}
	ctx := context.Background()

	m.Handle(ctx, 1, s, ButtonEvent(promptRef(1), startToken(menu.AddExpense)))

	plan := m.Handle(ctx, 1, s, TextEvent(promptRef(2), "abc"))
	if s.Step != StepAwaitingAmount {
		t.Fatalf("step = %s", s.Step)
	}
	if plan.Prompt == nil || plan.Prompt.Text != "Вводить можно только положительное десятичное число, разделённое точкой!\n\nВведите сумму корректно:" {
		t.Errorf("format error prompt = %v", plan.Prompt)
	}

	plan = m.Handle(ctx, 1, s, TextEvent(promptRef(3), "12345678901"))
	if s.Step != StepAwaitingAmount {
		t.Fatalf("step = %s", s.Step)
	}
	if plan.Prompt == nil || plan.Prompt.Text != "Длина целой части числа не должна превышать 10 цифр!\n\nВведите сумму корректно:" {
		t.Errorf("length error prompt = %v", plan.Prompt)
	}

	// A corrected amount still advances the flow.
	m.Handle(ctx, 1, s, TextEvent(promptRef(4), "100"))
	if s.Step != StepAwaitingCategory {
		t.Fatalf("step after corrected amount = %s", s.Step)
	}
}

func TestCancelFromEveryStep(t *testing.T) {
	ledger := &fakeLedger{categories: expenseCategories()}
	ctx := context.Background()

	advance := map[Step]func(m *Machine, s *Session){
		StepAwaitingAmount: func(m *Machine, s *Session) {},
		StepAwaitingCategory: func(m *Machine, s *Session) {
			m.Handle(ctx, 1, s, TextEvent(promptRef(2), "50"))
		},
		StepAwaitingDescription: func(m *Machine, s *Session) {
			m.Handle(ctx, 1, s, TextEvent(promptRef(2), "50"))
			m.Handle(ctx, 1, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddExpense, Category: "ЖКХ"}))
		},
		StepAwaitingConfirmation: func(m *Machine, s *Session) {
			m.Handle(ctx, 1, s, TextEvent(promptRef(2), "50"))
			m.Handle(ctx, 1, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddExpense, Category: "ЖКХ"}))
			m.Handle(ctx, 1, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddExpense, Action: menu.ActionSkip}))
		},
	}

	for step, setup := range advance {
		m := testMachine(ledger)
		s := &Session{Step: StepIdle}
		m.Handle(ctx, 1, s, ButtonEvent(promptRef(1), startToken(menu.AddExpense)))
		setup(m, s)
		if s.Step != step {
			t.Fatalf("setup for %s landed on %s", step, s.Step)
		}

		plan := m.Handle(ctx, 1, s, ButtonEvent(promptRef(9), menu.Root()))
		if s.Step != StepIdle {
			t.Errorf("cancel from %s: step = %s", step, s.Step)
		}
		if s.Category != "" || s.HasAmount || s.Description != nil {
			t.Errorf("cancel from %s left data: %+v", step, s)
		}
		if plan.Ack != "Отменено" {
			t.Errorf("cancel from %s: ack = %q", step, plan.Ack)
		}
		if plan.Prompt == nil || plan.Prompt.Text != "Выберите действие:" {
			t.Errorf("cancel from %s must show the root menu", step)
		}
	}
	if len(ledger.records) != 0 {
		t.Errorf("cancelled flows must not persist, got %d records", len(ledger.records))
	}
}

func TestStrayEventsAreIgnored(t *testing.T) {
	ledger := &fakeLedger{categories: expenseCategories()}
	m := testMachine(ledger)
	ctx := context.Background()

	s := &Session{Step: StepIdle}
	plan := m.Handle(ctx, 1, s, TextEvent(promptRef(1), "hello"))
	if s.Step != StepIdle || plan.Prompt != nil || plan.Ack != "" {
		t.Error("idle text must be a no-op")
	}

	m.Handle(ctx, 1, s, ButtonEvent(promptRef(1), startToken(menu.AddExpense)))
	m.Handle(ctx, 1, s, TextEvent(promptRef(2), "50"))
	plan = m.Handle(ctx, 1, s, TextEvent(promptRef(3), "еще текст"))
	if s.Step != StepAwaitingCategory || plan.Prompt != nil {
		t.Error("text while awaiting category must be a no-op")
	}

	// A category button without a category payload changes nothing.
	plan = m.Handle(ctx, 1, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddExpense}))
	if s.Step != StepAwaitingCategory || plan.Prompt != nil {
		t.Error("category tap without payload must be a no-op")
	}

	m.Handle(ctx, 1, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddExpense, Category: "ЖКХ"}))
	m.Handle(ctx, 1, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddExpense, Action: menu.ActionSkip}))
	plan = m.Handle(ctx, 1, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddExpense, Action: menu.ActionSkip}))
	if s.Step != StepAwaitingConfirmation || plan.Prompt != nil {
		t.Error("skip while awaiting confirmation must be a no-op")
	}
}

func TestSaveFailureResetsFlow(t *testing.T) {
	ledger := &fakeLedger{
		categories: expenseCategories(),
		recordErr:  errors.New("category vanished"),
	}
	m := testMachine(ledger)
	s := &Session{Step: StepIdle}
	ctx := context.Background()

	m.Handle(ctx, 1, s, ButtonEvent(promptRef(1), startToken(menu.AddExpense)))
	m.Handle(ctx, 1, s, TextEvent(promptRef(2), "99"))
	m.Handle(ctx, 1, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddExpense, Category: "ЖКХ"}))
	m.Handle(ctx, 1, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddExpense, Action: menu.ActionSkip}))

	plan := m.Handle(ctx, 1, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddExpense, Action: menu.ActionSave}))
	if s.Step != StepIdle {
		t.Errorf("failed save must reset the flow, step = %s", s.Step)
	}
	if plan.Ack != "При добавлении записи произошла ошибка! Попробуйте еще раз." || !plan.AckAlert {
		t.Errorf("ack = %q alert=%v", plan.Ack, plan.AckAlert)
	}
	if plan.Prompt == nil || plan.Prompt.Text != "Выберите действие:" {
		t.Error("failed save must return to the root menu")
	}
}

func TestCategoryLoadFailureResetsFlow(t *testing.T) {
	ledger := &fakeLedger{categoriesErr: errors.New("db down")}
	m := testMachine(ledger)
	s := &Session{Step: StepIdle}
	ctx := context.Background()

	m.Handle(ctx, 1, s, ButtonEvent(promptRef(1), startToken(menu.AddExpense)))
	plan := m.Handle(ctx, 1, s, TextEvent(promptRef(2), "99"))
	if s.Step != StepIdle {
		t.Errorf("step = %s", s.Step)
	}
	if plan.Prompt == nil || plan.Prompt.Keyboard == nil {
		t.Fatal("failure must still offer the root menu")
	}
}

func TestNoActiveCategoriesResetsFlow(t *testing.T) {
	ledger := &fakeLedger{}
	m := testMachine(ledger)
	s := &Session{Step: StepIdle}
	ctx := context.Background()

	m.Handle(ctx, 1, s, ButtonEvent(promptRef(1), startToken(menu.AddExpense)))
	plan := m.Handle(ctx, 1, s, TextEvent(promptRef(2), "99"))
	if s.Step != StepIdle {
		t.Errorf("step = %s", s.Step)
	}
	if plan.Prompt == nil || plan.Prompt.Text != "У вас нет активных категорий." {
		t.Errorf("prompt = %v", plan.Prompt)
	}
}

func TestLongDescriptionKeepsState(t *testing.T) {
	ledger := &fakeLedger{categories: expenseCategories()}
	m := testMachine(ledger)
	s := &Session{Step: StepIdle}
	ctx := context.Background()

	m.Handle(ctx, 1, s, ButtonEvent(promptRef(1), startToken(menu.AddExpense)))
	m.Handle(ctx, 1, s, TextEvent(promptRef(2), "99"))
	m.Handle(ctx, 1, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddExpense, Category: "ЖКХ"}))

	long := ""
	for i := 0; i < 151; i++ {
		long += "я"
	}
	plan := m.Handle(ctx, 1, s, TextEvent(promptRef(4), long))
	if s.Step != StepAwaitingDescription || s.Description != nil {
		t.Fatalf("step=%s description=%v", s.Step, s.Description)
	}
	if plan.Prompt == nil || plan.Prompt.Text != "Длина примечания не должна превышать 150 символов!\n\nВведите примечание корректно:" {
		t.Errorf("prompt = %v", plan.Prompt)
	}

	// Exactly 150 runes is accepted.
	ok := long[:len(long)-len("я")]
	m.Handle(ctx, 1, s, TextEvent(promptRef(5), ok))
	if s.Step != StepAwaitingConfirmation {
		t.Errorf("150-rune description rejected, step = %s", s.Step)
	}
}

func TestUsersProceedIndependently(t *testing.T) {
	ledger := &fakeLedger{categories: expenseCategories()}
	m := testMachine(ledger)
	store := NewStore()
	ctx := context.Background()

	handle := func(userID int64, ev Event) {
		_ = store.Do(userID, func(s *Session) error {
			m.Handle(ctx, userID, s, ev)
			return nil
		})
	}

	handle(1, ButtonEvent(promptRef(1), startToken(menu.AddExpense)))
	handle(2, ButtonEvent(promptRef(1), startToken(menu.AddIncome)))
	handle(1, TextEvent(promptRef(2), "10"))
	handle(2, TextEvent(promptRef(2), "не число"))

	one := store.Get(1)
	two := store.Get(2)
	if one.Step != StepAwaitingCategory || one.IsIncome {
		t.Errorf("user 1 session = %+v", one)
	}
	if two.Step != StepAwaitingAmount || !two.IsIncome {
		t.Errorf("user 2 session = %+v", two)
	}
}

func TestCategoryHeldOnlyAfterSelection(t *testing.T) {
	ledger := &fakeLedger{categories: expenseCategories()}
	m := testMachine(ledger)
	s := &Session{Step: StepIdle}
	ctx := context.Background()

	m.Handle(ctx, 1, s, ButtonEvent(promptRef(1), startToken(menu.AddExpense)))
	if s.Category != "" {
		t.Errorf("category set at %s", s.Step)
	}
	m.Handle(ctx, 1, s, TextEvent(promptRef(2), "10"))
	if s.Category != "" {
		t.Errorf("category set at %s", s.Step)
	}
	m.Handle(ctx, 1, s, ButtonEvent(promptRef(3), menu.Token{Level: 1, Menu: menu.AddExpense, Category: "ЖКХ"}))
	if s.Category != "ЖКХ" {
		t.Errorf("category = %q", s.Category)
	}

	amt := decimal.RequireFromString("10")
	if !s.Amount.Equal(amt) {
		t.Errorf("amount = %s", s.Amount)
	}
}
