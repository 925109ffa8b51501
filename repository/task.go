package repository

import (
	"context"

	"github.com/fastygo/revenue-engine/domain"
)

type TaskFilter struct {
	WorkspaceID string
	AccountID   string
	Status      string
	OpenOnly    bool
	Limit       int
	Offset      int
}

type TaskRepository interface {
	GetByID(ctx context.Context, workspaceID, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, workspaceID, id string) error
	CountOpen(ctx context.Context, workspaceID, accountID string) (int, error)
	OpenCounts(ctx context.Context, workspaceID string) (map[string]int, error)
}
