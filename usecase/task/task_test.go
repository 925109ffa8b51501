package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository/mocks"
)

func TestCreateTask(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		task    *domain.Task
		setup   func(tasks *mocks.TaskRepository, accounts *mocks.AccountRepository)
		wantErr error
		code    domain.ErrorCode
	}{
		{
			name: "missing title",
			task: &domain.Task{WorkspaceID: "ws", AccountID: "acc-1"},
			code: domain.ErrCodeInvalid,
		},
		{
			name: "bad status",
			task: &domain.Task{WorkspaceID: "ws", AccountID: "acc-1", Title: "Call", Status: "blocked"},
			code: domain.ErrCodeInvalid,
		},
		{
			name: "unknown account",
			task: &domain.Task{WorkspaceID: "ws", AccountID: "ghost", Title: "Call"},
			setup: func(_ *mocks.TaskRepository, accounts *mocks.AccountRepository) {
				accounts.On("GetByID", ctx, "ws", "ghost").Return(nil, domain.ErrAccountNotFound)
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name: "created with manual source",
			task: &domain.Task{WorkspaceID: "ws", AccountID: "acc-1", Title: "Call"},
			setup: func(tasks *mocks.TaskRepository, accounts *mocks.AccountRepository) {
				accounts.On("GetByID", ctx, "ws", "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)
				tasks.On("Create", ctx, mock.MatchedBy(func(t *domain.Task) bool { return t.Source == "manual" })).
					Return(&domain.Task{ID: "t-1", Title: "Call"}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := new(mocks.TaskRepository)
			accounts := new(mocks.AccountRepository)
			if tt.setup != nil {
				tt.setup(tasks, accounts)
			}
			uc := New(tasks, accounts, zap.NewNop())

			created, err := uc.CreateTask(ctx, tt.task)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.code != "":
				assert.True(t, domain.IsDomainError(err, tt.code))
			default:
				require.NoError(t, err)
				assert.Equal(t, "t-1", created.ID)
			}
			tasks.AssertExpectations(t)
			accounts.AssertExpectations(t)
		})
	}
}

func TestUpdateTask_Status(t *testing.T) {
	ctx := context.Background()
	tasks := new(mocks.TaskRepository)
	uc := New(tasks, new(mocks.AccountRepository), nil)

	tasks.On("GetByID", ctx, "ws", "t-1").Return(&domain.Task{ID: "t-1", WorkspaceID: "ws", Title: "Call", Status: domain.TaskStatusOpen}, nil)
	tasks.On("Update", ctx, mock.MatchedBy(func(t *domain.Task) bool { return t.Status == domain.TaskStatusDone })).Return(nil)

	done := domain.TaskStatusDone
	updated, err := uc.UpdateTask(ctx, "ws", "t-1", Patch{Status: &done})
	require.NoError(t, err)
	assert.False(t, updated.IsOpen())

	bad := "archived"
	_, err = uc.UpdateTask(ctx, "ws", "t-1", Patch{Status: &bad})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	tasks.AssertNumberOfCalls(t, "Update", 1)
}
