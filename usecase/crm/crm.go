// Package crm syncs objects from external CRMs by their external ids.
package crm

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/pkg/logger"
	"github.com/fastygo/revenue-engine/repository"
)

type Deps struct {
	Accounts      repository.AccountRepository
	Contacts      repository.ContactRepository
	Opportunities repository.OpportunityRepository
	Mappings      repository.ExternalMapRepository
}

type UseCase struct {
	accounts      repository.AccountRepository
	contacts      repository.ContactRepository
	opportunities repository.OpportunityRepository
	mappings      repository.ExternalMapRepository
	logger        *zap.Logger
}

func New(deps Deps, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		accounts:      deps.Accounts,
		contacts:      deps.Contacts,
		opportunities: deps.Opportunities,
		mappings:      deps.Mappings,
		logger:        logger,
	}
}

type AccountInput struct {
	ExternalID    string `json:"external_id"`
	Name          string `json:"name"`
	Domain        string `json:"domain"`
	Industry      string `json:"industry"`
	EmployeeRange string `json:"employee_range"`
	Country       string `json:"country"`
	City          string `json:"city"`
	Owner         string `json:"owner"`
	Stage         string `json:"stage"`
}

type ContactInput struct {
	ExternalID        string `json:"external_id"`
	AccountExternalID string `json:"account_external_id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Title             string `json:"title"`
	Phone             string `json:"phone"`
}

type OpportunityInput struct {
	ExternalID        string     `json:"external_id"`
	AccountExternalID string     `json:"account_external_id"`
	Name              string     `json:"name"`
	Amount            float64    `json:"amount"`
	Currency          string     `json:"currency"`
	Stage             string     `json:"stage"`
	Status            string     `json:"status"`
	CloseDate         *time.Time `json:"close_date"`
}

// Upserted reports the internal object and whether it was created by this call.
type Upserted[T any] struct {
	Object  T    `json:"object"`
	Created bool `json:"created"`
}

// UpsertAccount creates or updates the account mapped to in.ExternalID. A mapping whose
// internal account no longer exists is treated as absent.
func (uc *UseCase) UpsertAccount(ctx context.Context, workspaceID, provider string, in AccountInput) (*Upserted[*domain.Account], error) {
	if err := requireIDs(provider, in.ExternalID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "name is required")
	}

	existing, err := resolve(ctx, uc.mappings, workspaceID, provider, domain.ObjectAccount, in.ExternalID,
		func(id string) (*domain.Account, error) { return uc.accounts.GetByID(ctx, workspaceID, id) })
	if err != nil {
		return nil, err
	}

	if existing != nil {
		patch := domain.AccountPatch{
			Name:          &in.Name,
			Domain:        &in.Domain,
			Industry:      &in.Industry,
			EmployeeRange: &in.EmployeeRange,
			Country:       &in.Country,
			City:          &in.City,
			Owner:         &in.Owner,
			Stage:         &in.Stage,
		}
		patch.Apply(existing)
		if err := uc.accounts.Update(ctx, existing); err != nil {
			return nil, err
		}
		return &Upserted[*domain.Account]{Object: existing}, nil
	}

	created, err := uc.accounts.Create(ctx, &domain.Account{
		WorkspaceID:   workspaceID,
		Name:          in.Name,
		Domain:        in.Domain,
		Industry:      in.Industry,
		EmployeeRange: in.EmployeeRange,
		Country:       in.Country,
		City:          in.City,
		Owner:         in.Owner,
		Stage:         in.Stage,
	})
	if err != nil {
		return nil, err
	}
	if err := uc.link(ctx, workspaceID, provider, domain.ObjectAccount, in.ExternalID, created.ID); err != nil {
		return nil, err
	}
	return &Upserted[*domain.Account]{Object: created, Created: true}, nil
}

func (uc *UseCase) UpsertContact(ctx context.Context, workspaceID, provider string, in ContactInput) (*Upserted[*domain.Contact], error) {
	if err := requireIDs(provider, in.ExternalID); err != nil {
		return nil, err
	}
	accountID, err := uc.accountFor(ctx, workspaceID, provider, in.AccountExternalID)
	if err != nil {
		return nil, err
	}

	existing, err := resolve(ctx, uc.mappings, workspaceID, provider, domain.ObjectContact, in.ExternalID,
		func(id string) (*domain.Contact, error) { return uc.contacts.GetByID(ctx, workspaceID, id) })
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.AccountID = accountID
		existing.Name = in.Name
		existing.Email = in.Email
		existing.Title = in.Title
		existing.Phone = in.Phone
		if err := uc.contacts.Update(ctx, existing); err != nil {
			return nil, err
		}
		return &Upserted[*domain.Contact]{Object: existing}, nil
	}

	created, err := uc.contacts.Create(ctx, &domain.Contact{
		WorkspaceID: workspaceID,
		AccountID:   accountID,
		Name:        in.Name,
		Email:       in.Email,
		Title:       in.Title,
		Phone:       in.Phone,
	})
	if err != nil {
		return nil, err
	}
	if err := uc.link(ctx, workspaceID, provider, domain.ObjectContact, in.ExternalID, created.ID); err != nil {
		return nil, err
	}
	return &Upserted[*domain.Contact]{Object: created, Created: true}, nil
}

func (uc *UseCase) UpsertOpportunity(ctx context.Context, workspaceID, provider string, in OpportunityInput) (*Upserted[*domain.Opportunity], error) {
	if err := requireIDs(provider, in.ExternalID); err != nil {
		return nil, err
	}
	accountID, err := uc.accountFor(ctx, workspaceID, provider, in.AccountExternalID)
	if err != nil {
		return nil, err
	}

	existing, err := resolve(ctx, uc.mappings, workspaceID, provider, domain.ObjectOpportunity, in.ExternalID,
		func(id string) (*domain.Opportunity, error) { return uc.opportunities.GetByID(ctx, workspaceID, id) })
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.AccountID = accountID
		existing.Name = in.Name
		existing.Amount = in.Amount
		existing.Currency = in.Currency
		existing.Stage = in.Stage
		if in.Status != "" {
			existing.Status = in.Status
		}
		existing.CloseDate = in.CloseDate
		if err := uc.opportunities.Update(ctx, existing); err != nil {
			return nil, err
		}
		return &Upserted[*domain.Opportunity]{Object: existing}, nil
	}

	created, err := uc.opportunities.Create(ctx, &domain.Opportunity{
		WorkspaceID: workspaceID,
		AccountID:   accountID,
		Name:        in.Name,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Stage:       in.Stage,
		Status:      in.Status,
		CloseDate:   in.CloseDate,
		Source:      provider,
		ExternalID:  in.ExternalID,
	})
	if err != nil {
		return nil, err
	}
	if err := uc.link(ctx, workspaceID, provider, domain.ObjectOpportunity, in.ExternalID, created.ID); err != nil {
		return nil, err
	}
	return &Upserted[*domain.Opportunity]{Object: created, Created: true}, nil
}

// CreateOpportunity stores a manually entered opportunity. The account must exist.
func (uc *UseCase) CreateOpportunity(ctx context.Context, opp *domain.Opportunity) (*domain.Opportunity, error) {
	if opp == nil || strings.TrimSpace(opp.Name) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "name is required")
	}
	if opp.Amount < 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "amount must not be negative")
	}
	if _, err := uc.accounts.GetByID(ctx, opp.WorkspaceID, opp.AccountID); err != nil {
		return nil, err
	}
	return uc.opportunities.Create(ctx, opp)
}

func (uc *UseCase) ListOpportunities(ctx context.Context, filter repository.OpportunityFilter) ([]domain.Opportunity, error) {
	return uc.opportunities.List(ctx, filter)
}

func (uc *UseCase) GetOpportunity(ctx context.Context, workspaceID, id string) (*domain.Opportunity, error) {
	return uc.opportunities.GetByID(ctx, workspaceID, id)
}

func (uc *UseCase) accountFor(ctx context.Context, workspaceID, provider, externalID string) (string, error) {
	if strings.TrimSpace(externalID) == "" {
		return "", domain.NewError(domain.ErrCodeInvalid, "account_external_id is required")
	}
	acc, err := resolve(ctx, uc.mappings, workspaceID, provider, domain.ObjectAccount, externalID,
		func(id string) (*domain.Account, error) { return uc.accounts.GetByID(ctx, workspaceID, id) })
	if err != nil {
		return "", err
	}
	if acc == nil {
		return "", domain.ErrUnknownExternalID
	}
	return acc.ID, nil
}

func (uc *UseCase) link(ctx context.Context, workspaceID, provider, objectType, externalID, internalID string) error {
	err := uc.mappings.Put(ctx, &domain.ExternalObjectMap{
		WorkspaceID: workspaceID,
		Provider:    provider,
		ObjectType:  objectType,
		ExternalID:  externalID,
		InternalID:  internalID,
	})
	if err != nil {
		logger.WithRequestID(ctx, uc.logger).Error("failed to store external mapping",
			zap.String("provider", provider),
			zap.String("object_type", objectType),
			zap.String("external_id", externalID),
			zap.Error(err),
		)
	}
	return err
}

// resolve follows a mapping to its internal object. Missing mappings and mappings whose
// target is gone both yield (nil, nil).
func resolve[T any](ctx context.Context, mappings repository.ExternalMapRepository, workspaceID, provider, objectType, externalID string, load func(id string) (*T, error)) (*T, error) {
	m, err := mappings.Get(ctx, workspaceID, provider, objectType, externalID)
	if err != nil {
		if errors.Is(err, domain.ErrMappingNotFound) {
			return nil, nil
		}
		return nil, err
	}
	obj, err := load(m.InternalID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return obj, nil
}

func requireIDs(provider, externalID string) error {
	if strings.TrimSpace(provider) == "" {
		return domain.NewError(domain.ErrCodeInvalid, "provider is required")
	}
	if strings.TrimSpace(externalID) == "" {
		return domain.NewError(domain.ErrCodeInvalid, "external_id is required")
	}
	return nil
}
