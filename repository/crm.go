package repository

import (
	"context"

	"github.com/fastygo/revenue-engine/domain"
)

type ContactRepository interface {
	GetByID(ctx context.Context, workspaceID, id string) (*domain.Contact, error)
	ListByAccount(ctx context.Context, workspaceID, accountID string) ([]domain.Contact, error)
	Create(ctx context.Context, contact *domain.Contact) (*domain.Contact, error)
	Update(ctx context.Context, contact *domain.Contact) error
}

type OpportunityFilter struct {
	WorkspaceID string
	AccountID   string
	Limit       int
	Offset      int
}

type OpportunityRepository interface {
	GetByID(ctx context.Context, workspaceID, id string) (*domain.Opportunity, error)
	List(ctx context.Context, filter OpportunityFilter) ([]domain.Opportunity, error)
	Create(ctx context.Context, opp *domain.Opportunity) (*domain.Opportunity, error)
	Update(ctx context.Context, opp *domain.Opportunity) error
	// OpenValueByAccount sums amounts of opportunities whose status is not won.
	OpenValueByAccount(ctx context.Context, workspaceID string) (map[string]float64, error)
}

type ExternalMapRepository interface {
	Get(ctx context.Context, workspaceID, provider, objectType, externalID string) (*domain.ExternalObjectMap, error)
	Put(ctx context.Context, m *domain.ExternalObjectMap) error
}

type AlertFilter struct {
	WorkspaceID string
	AccountID   string
	UnreadOnly  bool
	Limit       int
	Offset      int
}

type AlertRepository interface {
	List(ctx context.Context, filter AlertFilter) ([]domain.Alert, error)
	Create(ctx context.Context, alert *domain.Alert) (*domain.Alert, error)
	MarkRead(ctx context.Context, workspaceID, id string) error
}

type VisitFilter struct {
	WorkspaceID string
	AccountID   string
	Limit       int
	Offset      int
}

type VisitRepository interface {
	List(ctx context.Context, filter VisitFilter) ([]domain.AnonymousVisit, error)
	Create(ctx context.Context, visit *domain.AnonymousVisit) (*domain.AnonymousVisit, error)
}
