package bot

import (
	"strings"
	"testing"
	"time"

	"finbot/internal/model"
	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func TestFormatHistory(t *testing.T) {
	at := time.Date(2026, 8, 30, 15, 4, 0, 0, time.UTC)
	entries := []model.HistoryEntry{
		{
			Amount:      decimal.RequireFromString("250.5"),
			Category:    "Продукты",
			Description: strPtr("молоко"),
			IsIncome:    false,
			CreatedAt:   at,
		},
		{
			Amount:    decimal.RequireFromString("100000"),
			Category:  "Зарплата",
			IsIncome:  true,
			CreatedAt: at.AddDate(0, 0, -1),
		},
	}

	got := formatHistory(entries)
	wantLines := []string{
		"➖ 250.50 - Продукты - молоко (30.08.2026)",
		"➕ 100000.00 - Зарплата (29.08.2026)",
	}
	for _, line := range wantLines {
		if !strings.Contains(got, line) {
			t.Errorf("history output missing %q:\n%s", line, got)
		}
	}
}

func TestWriteCategoryList(t *testing.T) {
	var sb strings.Builder
	writeCategoryList(&sb, []model.Category{{Name: "ЖКХ"}, {Name: "Отдых"}})
	if got := sb.String(); got != "  • ЖКХ\n  • Отдых\n" {
		t.Errorf("list = %q", got)
	}

	sb.Reset()
	writeCategoryList(&sb, nil)
	if got := sb.String(); got != "  —\n" {
		t.Errorf("empty list = %q", got)
	}
}
