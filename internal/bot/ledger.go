// Package bot composes the dialog machine, the persistence layer and the
// Telegram transport into a running bot.
package bot

import (
	"context"
	"fmt"

	"finbot/internal/model"
	"finbot/internal/storage"
)

// repoLedger adapts the storage repository to the dialog machine. It maps
// Telegram ids to internal user ids so the machine never sees either schema.
type repoLedger struct {
	repo *storage.Repository
}

func (l *repoLedger) CategoriesFor(ctx context.Context, telegramID int64, isIncome bool) ([]model.Category, error) {
	userID, err := l.repo.UserID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return l.repo.ActiveCategories(ctx, userID, isIncome)
}

func (l *repoLedger) Record(ctx context.Context, telegramID int64, draft model.Draft) error {
	userID, err := l.repo.UserID(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	return l.repo.InsertTransaction(ctx, userID, draft)
}
