package alert

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository"
)

type UseCase struct {
	alerts   repository.AlertRepository
	accounts repository.AccountRepository
	logger   *zap.Logger
}

func New(alerts repository.AlertRepository, accounts repository.AccountRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{alerts: alerts, accounts: accounts, logger: logger}
}

func (uc *UseCase) List(ctx context.Context, filter repository.AlertFilter) ([]domain.Alert, error) {
	return uc.alerts.List(ctx, filter)
}

// Create stores a dashboard alert. The account link is optional but must resolve when given.
func (uc *UseCase) Create(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	if alert == nil || strings.TrimSpace(alert.Title) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "title is required")
	}
	switch alert.Severity {
	case "", domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh:
	default:
		return nil, domain.NewError(domain.ErrCodeInvalid, "severity must be low, medium or high")
	}
	if alert.AccountID != "" {
		if _, err := uc.accounts.GetByID(ctx, alert.WorkspaceID, alert.AccountID); err != nil {
			return nil, err
		}
	}
	return uc.alerts.Create(ctx, alert)
}

func (uc *UseCase) MarkRead(ctx context.Context, workspaceID, id string) error {
	return uc.alerts.MarkRead(ctx, workspaceID, id)
}
