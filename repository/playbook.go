package repository

import (
	"context"

	"github.com/fastygo/revenue-engine/domain"
)

type PlaybookRepository interface {
	GetByID(ctx context.Context, workspaceID, id string) (*domain.PlaybookRule, error)
	List(ctx context.Context, workspaceID string, activeOnly bool) ([]domain.PlaybookRule, error)
	Create(ctx context.Context, rule *domain.PlaybookRule) (*domain.PlaybookRule, error)
	Update(ctx context.Context, rule *domain.PlaybookRule) error
	Delete(ctx context.Context, workspaceID, id string) error
	// SaveOutcome stores the tasks and alerts of one run in a single transaction.
	SaveOutcome(ctx context.Context, outcome *domain.PlaybookOutcome) error
}
