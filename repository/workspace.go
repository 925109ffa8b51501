package repository

import (
	"context"
	"time"

	"github.com/fastygo/revenue-engine/domain"
)

type WorkspaceRepository interface {
	Ensure(ctx context.Context, ws *domain.Workspace) error
	GetByID(ctx context.Context, id string) (*domain.Workspace, error)
	GetAPIKey(ctx context.Context, key string) (*domain.APIKey, error)
	EnsureAPIKey(ctx context.Context, key *domain.APIKey) error
}

// APIKeyCache keeps resolved API keys close to the auth middleware.
type APIKeyCache interface {
	Get(ctx context.Context, key string) (*domain.APIKey, error)
	Save(ctx context.Context, key *domain.APIKey) error
}

// ReportCache stores computed report payloads for a short time.
type ReportCache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidateWorkspace(ctx context.Context, workspaceID string) error
}
