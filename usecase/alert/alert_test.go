package alert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository/mocks"
)

func TestCreate(t *testing.T) {
	ctx := context.Background()
	alerts := new(mocks.AlertRepository)
	accounts := new(mocks.AccountRepository)
	uc := New(alerts, accounts, nil)

	_, err := uc.Create(ctx, &domain.Alert{WorkspaceID: "ws"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Create(ctx, &domain.Alert{WorkspaceID: "ws", Title: "Hot", Severity: "urgent"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	accounts.On("GetByID", ctx, "ws", "ghost").Return(nil, domain.ErrAccountNotFound)
	_, err = uc.Create(ctx, &domain.Alert{WorkspaceID: "ws", Title: "Hot", AccountID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	in := &domain.Alert{WorkspaceID: "ws", Title: "Workspace digest"}
	alerts.On("Create", ctx, in).Return(&domain.Alert{ID: "al-1", Title: in.Title, Severity: domain.SeverityMedium}, nil)
	created, err := uc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "al-1", created.ID)

	alerts.AssertExpectations(t)
	accounts.AssertExpectations(t)
}

func TestMarkRead_NotFound(t *testing.T) {
	ctx := context.Background()
	alerts := new(mocks.AlertRepository)
	alerts.On("MarkRead", ctx, "ws", "nope").Return(domain.ErrAlertNotFound)

	err := New(alerts, nil, nil).MarkRead(ctx, "ws", "nope")
	assert.ErrorIs(t, err, domain.ErrAlertNotFound)
}
