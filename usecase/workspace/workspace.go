package workspace

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository"
)

// Defaults describes the workspace and API key provisioned at startup.
type Defaults struct {
	WorkspaceID   string
	WorkspaceName string
	APIKey        string
}

type UseCase struct {
	workspaces repository.WorkspaceRepository
	logger     *zap.Logger
}

func New(workspaces repository.WorkspaceRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{workspaces: workspaces, logger: logger}
}

func (uc *UseCase) Get(ctx context.Context, id string) (*domain.Workspace, error) {
	return uc.workspaces.GetByID(ctx, id)
}

// Bootstrap makes sure the default workspace and its API key exist. It is idempotent.
func (uc *UseCase) Bootstrap(ctx context.Context, d Defaults) error {
	if d.WorkspaceID == "" {
		return domain.NewError(domain.ErrCodeInvalid, "default workspace id is required")
	}
	name := d.WorkspaceName
	if name == "" {
		name = d.WorkspaceID
	}
	if err := uc.workspaces.Ensure(ctx, &domain.Workspace{ID: d.WorkspaceID, Name: name}); err != nil {
		return fmt.Errorf("ensure workspace: %w", err)
	}
	if d.APIKey == "" {
		uc.logger.Warn("no default api key configured", zap.String("workspace_id", d.WorkspaceID))
		return nil
	}
	if err := uc.workspaces.EnsureAPIKey(ctx, &domain.APIKey{
		WorkspaceID: d.WorkspaceID,
		Key:         d.APIKey,
		Label:       "default",
		IsActive:    true,
	}); err != nil {
		return fmt.Errorf("ensure api key: %w", err)
	}
	uc.logger.Info("default workspace ready", zap.String("workspace_id", d.WorkspaceID))
	return nil
}
