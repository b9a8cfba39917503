// Package model declares the persistent records shared between the storage
// layer and the dialog flow.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a registered Telegram user.
type User struct {
	ID         int64   `db:"id"`
	TelegramID int64   `db:"telegram_id"`
	FirstName  *string `db:"first_name"`
	LastName   *string `db:"last_name"`
}

// Category is a per-user income or expense category.
type Category struct {
	ID       int64  `db:"id"`
	UserID   int64  `db:"user_id"`
	Name     string `db:"name"`
	IsIncome bool   `db:"is_income"`
	IsActive bool   `db:"is_active"`
}

// Transaction is a stored income or expense record.
type Transaction struct {
	ID          uuid.UUID       `db:"id"`
	UserID      int64           `db:"user_id"`
	CategoryID  int64           `db:"category_id"`
	Amount      decimal.Decimal `db:"amount"`
	Description *string         `db:"description"`
	IsIncome    bool            `db:"is_income"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Draft is a completed but not yet persisted transaction assembled by the
// dialog flow. The category is carried by name and resolved to an id only
// at insert time.
type Draft struct {
	IsIncome    bool
	Amount      decimal.Decimal
	Category    string
	Description *string
	At          time.Time
}

// HistoryEntry is a transaction joined with its category name for display.
type HistoryEntry struct {
	Amount      decimal.Decimal `db:"amount"`
	Category    string          `db:"category"`
	Description *string         `db:"description"`
	IsIncome    bool            `db:"is_income"`
	CreatedAt   time.Time       `db:"created_at"`
}
