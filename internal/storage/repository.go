package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"finbot/internal/logger"
	"finbot/internal/model"
	"log/slog"
)

var (
	// ErrUserNotFound is returned when a Telegram id has no registered user.
	ErrUserNotFound = errors.New("storage: user not found")
	// ErrCategoryNotFound is returned when a category name does not resolve
	// to an active category of the user, e.g. it was renamed or deactivated
	// while a dialog was in progress.
	ErrCategoryNotFound = errors.New("storage: category not found")
)

// Repository provides user, category and transaction persistence over Postgres.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps an open database handle.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// UpsertUser registers a Telegram user. It reports whether a new row was
// created so the caller can seed default categories exactly once.
func (r *Repository) UpsertUser(ctx context.Context, telegramID int64, firstName, lastName string) (bool, error) {
	var first, last *string
	if firstName != "" {
		first = &firstName
	}
	if lastName != "" {
		last = &lastName
	}

	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO users (telegram_id, first_name, last_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id) DO NOTHING
		RETURNING id`,
		telegramID, first, last,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("upsert user: %w", err)
	}

	logger.DB.Debug("user created",
		slog.String("event", "user.create"),
		slog.Int64("user_id", telegramID),
	)
	return true, nil
}

// UserID resolves a Telegram id to the internal user id.
func (r *Repository) UserID(ctx context.Context, telegramID int64) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `SELECT id FROM users WHERE telegram_id = $1`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("user lookup: %w", err)
	}
	return id, nil
}

// SeedDefaultCategories inserts the starting category set for a new user.
func (r *Repository) SeedDefaultCategories(ctx context.Context, userID int64, income, expense []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	defer tx.Rollback()

	insert := func(names []string, isIncome bool) error {
		for _, name := range names {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO categories (user_id, name, is_income)
				VALUES ($1, $2, $3)`,
				userID, name, isIncome,
			); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(income, true); err != nil {
		return fmt.Errorf("seed income categories: %w", err)
	}
	if err := insert(expense, false); err != nil {
		return fmt.Errorf("seed expense categories: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}

	logger.DB.Debug("default categories seeded",
		slog.String("event", "category.seed"),
		slog.Int("count", len(income)+len(expense)),
	)
	return nil
}

// ActiveCategories returns the user's active income or expense categories in
// insertion order.
func (r *Repository) ActiveCategories(ctx context.Context, userID int64, isIncome bool) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.SelectContext(ctx, &categories, `
		SELECT id, user_id, name, is_income, is_active
		FROM categories
		WHERE user_id = $1 AND is_income = $2 AND is_active
		ORDER BY id`,
		userID, isIncome,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// InsertTransaction persists a completed draft. The category is resolved by
// name at call time; a vanished category yields ErrCategoryNotFound.
func (r *Repository) InsertTransaction(ctx context.Context, userID int64, draft model.Draft) error {
	var categoryID int64
	err := r.db.GetContext(ctx, &categoryID, `
		SELECT id FROM categories
		WHERE user_id = $1 AND name = $2 AND is_income = $3 AND is_active`,
		userID, draft.Category, draft.IsIncome,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("resolve category: %w", err)
	}

	record := model.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      draft.Amount,
		Description: draft.Description,
		IsIncome:    draft.IsIncome,
		CreatedAt:   draft.At,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if _, err := r.db.NamedExecContext(ctx, `
		INSERT INTO transactions (id, user_id, category_id, amount, description, is_income, created_at)
		VALUES (:id, :user_id, :category_id, :amount, :description, :is_income, :created_at)`,
		record,
	); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	logger.DB.Debug("transaction inserted",
		slog.String("event", "transaction.insert"),
		slog.String("category", draft.Category),
		slog.String("amount", draft.Amount.StringFixed(2)),
		slog.Bool("income", draft.IsIncome),
	)
	return nil
}

// RecentTransactions returns the latest records of a user joined with their
// category names, newest first.
func (r *Repository) RecentTransactions(ctx context.Context, userID int64, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	var entries []model.HistoryEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT t.amount, c.name AS category, t.description, t.is_income, t.created_at
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return entries, nil
}
