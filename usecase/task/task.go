package task

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/logger"
	"github.com/fastygo/revenue-engine/repository"
)

type UseCase struct {
	tasks    repository.TaskRepository
	accounts repository.AccountRepository
	logger   *zap.Logger
}

func New(tasks repository.TaskRepository, accounts repository.AccountRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		accounts: accounts,
		logger:   logger,
	}
}

// Patch carries the mutable task fields.
type Patch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Owner       *string    `json:"owner,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return uc.tasks.List(ctx, filter)
}

func (uc *UseCase) GetTask(ctx context.Context, workspaceID, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, workspaceID, id)
}

// CreateTask attaches a task to an account of the workspace.
func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || strings.TrimSpace(task.Title) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "title is required")
	}
	if err := validStatus(task.Status); err != nil {
		return nil, err
	}
	if _, err := uc.accounts.GetByID(ctx, task.WorkspaceID, task.AccountID); err != nil {
		return nil, err
	}
	if task.Source == "" {
		task.Source = "manual"
	}
	return uc.tasks.Create(ctx, task)
}

func (uc *UseCase) UpdateTask(ctx context.Context, workspaceID, id string, patch Patch) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if patch.Status != nil {
		if err := validStatus(*patch.Status); err != nil {
			return nil, err
		}
		task.Status = *patch.Status
	}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, domain.NewError(domain.ErrCodeInvalid, "title must not be empty")
		}
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Owner != nil {
		task.Owner = *patch.Owner
	}
	if patch.DueAt != nil {
		task.DueAt = patch.DueAt
	}

	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Debug("task updated", zap.String("task_id", id), zap.String("status", task.Status))
	return task, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, workspaceID, id string) error {
	return uc.tasks.Delete(ctx, workspaceID, id)
}

func validStatus(status string) error {
	switch status {
	case "", domain.TaskStatusOpen, domain.TaskStatusDone:
		return nil
	default:
		return domain.NewError(domain.ErrCodeInvalid, "status must be open or done")
	}
}
