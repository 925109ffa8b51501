package repository

import (
	"context"

	"github.com/fastygo/revenue-engine/domain"
)

type AccountFilter struct {
	WorkspaceID string
	Industries  []string
	Stages      []string
	Limit       int
	Offset      int
}

// ScoreFunc applies an event to the locked account row. It must set the event's frozen
// contribution fields and the account's new totals and buyer stage.
type ScoreFunc func(account *domain.Account, event *domain.Event)

// Coverage counts accounts in a workspace and those past the unaware stage.
type Coverage struct {
	Total   int `json:"total"`
	Covered int `json:"covered"`
}

type AccountRepository interface {
	GetByID(ctx context.Context, workspaceID, id string) (*domain.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
	// All returns every account matching the filter with no page limit.
	All(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
	TopByScore(ctx context.Context, workspaceID string, limit int) ([]domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, workspaceID, id string) error
	// ApplyEvent locks the account row, runs score, appends the event and persists the
	// new totals in one transaction. Concurrent calls for one account are serialized.
	ApplyEvent(ctx context.Context, workspaceID, accountID string, event *domain.Event, score ScoreFunc) (*domain.Account, error)
	Coverage(ctx context.Context, workspaceID string) (Coverage, error)
}
