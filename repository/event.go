package repository

import (
	"context"
	"time"

	"github.com/fastygo/revenue-engine/domain"
)

type EventFilter struct {
	WorkspaceID string
	AccountID   string
	Since       time.Time
	Limit       int
}

type EventRepository interface {
	// Create appends an event that does not touch account scores.
	Create(ctx context.Context, event *domain.Event) (*domain.Event, error)
	// Window returns events since filter.Since ordered by account then created_at ascending.
	Window(ctx context.Context, filter EventFilter) ([]domain.Event, error)
	// Recent returns the newest events first.
	Recent(ctx context.Context, filter EventFilter) ([]domain.Event, error)
	CountByAccount(ctx context.Context, workspaceID string) (map[string]int, error)
}
