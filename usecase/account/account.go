package account

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/logger"
	"github.com/fastygo/revenue-engine/repository"
)

type UseCase struct {
	accounts repository.AccountRepository
	contacts repository.ContactRepository
	cache    repository.ReportCache
	logger   *zap.Logger
}

func New(accounts repository.AccountRepository, contacts repository.ContactRepository, cache repository.ReportCache, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		accounts: accounts,
		contacts: contacts,
		cache:    cache,
		logger:   logger,
	}
}

func (uc *UseCase) List(ctx context.Context, filter repository.AccountFilter) ([]domain.Account, error) {
	return uc.accounts.List(ctx, filter)
}

func (uc *UseCase) Get(ctx context.Context, workspaceID, id string) (*domain.Account, error) {
	return uc.accounts.GetByID(ctx, workspaceID, id)
}

// Create stores a new account. Scores start at zero apart from the fit score, and the
// buyer stage is always derived.
func (uc *UseCase) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if account == nil || strings.TrimSpace(account.Name) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "name is required")
	}
	if account.FitScore < 0 {
		account.FitScore = 0
	}
	fit := account.FitScore
	account.ScoreTotals = domain.ScoreTotals{FitScore: fit, TotalScore: fit}
	account.BuyerStage = ""
	account.LastEventAt = nil
	account.LastSource = ""

	created, err := uc.accounts.Create(ctx, account)
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, created.WorkspaceID)
	return created, nil
}

func (uc *UseCase) Update(ctx context.Context, workspaceID, id string, patch domain.AccountPatch) (*domain.Account, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "name must not be empty")
	}
	account, err := uc.accounts.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(account)
	if err := uc.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, workspaceID)
	return account, nil
}

func (uc *UseCase) Delete(ctx context.Context, workspaceID, id string) error {
	if err := uc.accounts.Delete(ctx, workspaceID, id); err != nil {
		return err
	}
	uc.invalidate(ctx, workspaceID)
	return nil
}

func (uc *UseCase) ListContacts(ctx context.Context, workspaceID, accountID string) ([]domain.Contact, error) {
	if _, err := uc.accounts.GetByID(ctx, workspaceID, accountID); err != nil {
		return nil, err
	}
	return uc.contacts.ListByAccount(ctx, workspaceID, accountID)
}

func (uc *UseCase) CreateContact(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	if contact == nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(contact.Name) == "" && strings.TrimSpace(contact.Email) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "name or email is required")
	}
	if _, err := uc.accounts.GetByID(ctx, contact.WorkspaceID, contact.AccountID); err != nil {
		return nil, err
	}
	return uc.contacts.Create(ctx, contact)
}

func (uc *UseCase) invalidate(ctx context.Context, workspaceID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.InvalidateWorkspace(ctx, workspaceID); err != nil {
		logger.WithRequestID(ctx, uc.logger).Debug("report cache invalidation failed", zap.Error(err))
	}
}
