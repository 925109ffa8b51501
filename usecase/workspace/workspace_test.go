package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository/mocks"
)

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("workspace and key", func(t *testing.T) {
		repo := new(mocks.WorkspaceRepository)
		repo.On("Ensure", ctx, &domain.Workspace{ID: "default", Name: "Default"}).Return(nil)
		repo.On("EnsureAPIKey", ctx, mock.MatchedBy(func(k *domain.APIKey) bool {
			return k.WorkspaceID == "default" && k.Key == "dev-key" && k.IsActive
		})).Return(nil)

		require.NoError(t, New(repo, nil).Bootstrap(ctx, Defaults{WorkspaceID: "default", WorkspaceName: "Default", APIKey: "dev-key"}))
		repo.AssertExpectations(t)
	})

	t.Run("no key configured", func(t *testing.T) {
		repo := new(mocks.WorkspaceRepository)
		repo.On("Ensure", ctx, &domain.Workspace{ID: "default", Name: "default"}).Return(nil)

		require.NoError(t, New(repo, nil).Bootstrap(ctx, Defaults{WorkspaceID: "default"}))
		repo.AssertNotCalled(t, "EnsureAPIKey", mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := new(mocks.WorkspaceRepository)
		repo.On("Ensure", ctx, mock.Anything).Return(errors.New("db down"))

		err := New(repo, nil).Bootstrap(ctx, Defaults{WorkspaceID: "default"})
		assert.ErrorContains(t, err, "ensure workspace")
	})

	t.Run("missing id", func(t *testing.T) {
		err := New(new(mocks.WorkspaceRepository), nil).Bootstrap(ctx, Defaults{})
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	})
}
