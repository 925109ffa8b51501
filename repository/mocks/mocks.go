// Package mocks holds testify mocks of the repository interfaces shared by use-case tests.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository"
)

type AccountRepository struct{ mock.Mock }

func (m *AccountRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Account, error) {
	args := m.Called(ctx, workspaceID, id)
	return account(args.Get(0)), args.Error(1)
}

func (m *AccountRepository) List(ctx context.Context, filter repository.AccountFilter) ([]domain.Account, error) {
	args := m.Called(ctx, filter)
	return accounts(args.Get(0)), args.Error(1)
}

func (m *AccountRepository) All(ctx context.Context, filter repository.AccountFilter) ([]domain.Account, error) {
	args := m.Called(ctx, filter)
	return accounts(args.Get(0)), args.Error(1)
}

func (m *AccountRepository) TopByScore(ctx context.Context, workspaceID string, limit int) ([]domain.Account, error) {
	args := m.Called(ctx, workspaceID, limit)
	return accounts(args.Get(0)), args.Error(1)
}

func (m *AccountRepository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	args := m.Called(ctx, a)
	return account(args.Get(0)), args.Error(1)
}

func (m *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *AccountRepository) Delete(ctx context.Context, workspaceID, id string) error {
	return m.Called(ctx, workspaceID, id).Error(0)
}

// ApplyEvent runs score against the account returned by the "ApplyEvent" expectation, the way
// the Postgres implementation runs it against the locked row.
func (m *AccountRepository) ApplyEvent(ctx context.Context, workspaceID, accountID string, event *domain.Event, score repository.ScoreFunc) (*domain.Account, error) {
	args := m.Called(ctx, workspaceID, accountID, event)
	acc := account(args.Get(0))
	if err := args.Error(1); err != nil {
		return nil, err
	}
	if acc != nil && score != nil {
		copied := *acc
		score(&copied, event)
		return &copied, nil
	}
	return acc, nil
}

func (m *AccountRepository) Coverage(ctx context.Context, workspaceID string) (repository.Coverage, error) {
	args := m.Called(ctx, workspaceID)
	cov, _ := args.Get(0).(repository.Coverage)
	return cov, args.Error(1)
}

type EventRepository struct{ mock.Mock }

func (m *EventRepository) Create(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	args := m.Called(ctx, e)
	ev, _ := args.Get(0).(*domain.Event)
	return ev, args.Error(1)
}

func (m *EventRepository) Window(ctx context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	args := m.Called(ctx, filter)
	evs, _ := args.Get(0).([]domain.Event)
	return evs, args.Error(1)
}

func (m *EventRepository) Recent(ctx context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	args := m.Called(ctx, filter)
	evs, _ := args.Get(0).([]domain.Event)
	return evs, args.Error(1)
}

func (m *EventRepository) CountByAccount(ctx context.Context, workspaceID string) (map[string]int, error) {
	args := m.Called(ctx, workspaceID)
	counts, _ := args.Get(0).(map[string]int)
	return counts, args.Error(1)
}

type ContactRepository struct{ mock.Mock }

func (m *ContactRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Contact, error) {
	args := m.Called(ctx, workspaceID, id)
	c, _ := args.Get(0).(*domain.Contact)
	return c, args.Error(1)
}

func (m *ContactRepository) ListByAccount(ctx context.Context, workspaceID, accountID string) ([]domain.Contact, error) {
	args := m.Called(ctx, workspaceID, accountID)
	cs, _ := args.Get(0).([]domain.Contact)
	return cs, args.Error(1)
}

func (m *ContactRepository) Create(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	args := m.Called(ctx, c)
	out, _ := args.Get(0).(*domain.Contact)
	return out, args.Error(1)
}

func (m *ContactRepository) Update(ctx context.Context, c *domain.Contact) error {
	return m.Called(ctx, c).Error(0)
}

type TaskRepository struct{ mock.Mock }

func (m *TaskRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Task, error) {
	args := m.Called(ctx, workspaceID, id)
	t, _ := args.Get(0).(*domain.Task)
	return t, args.Error(1)
}

func (m *TaskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	args := m.Called(ctx, filter)
	ts, _ := args.Get(0).([]domain.Task)
	return ts, args.Error(1)
}

func (m *TaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	args := m.Called(ctx, t)
	out, _ := args.Get(0).(*domain.Task)
	return out, args.Error(1)
}

func (m *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *TaskRepository) Delete(ctx context.Context, workspaceID, id string) error {
	return m.Called(ctx, workspaceID, id).Error(0)
}

func (m *TaskRepository) CountOpen(ctx context.Context, workspaceID, accountID string) (int, error) {
	args := m.Called(ctx, workspaceID, accountID)
	return args.Int(0), args.Error(1)
}

func (m *TaskRepository) OpenCounts(ctx context.Context, workspaceID string) (map[string]int, error) {
	args := m.Called(ctx, workspaceID)
	counts, _ := args.Get(0).(map[string]int)
	return counts, args.Error(1)
}

type AlertRepository struct{ mock.Mock }

func (m *AlertRepository) List(ctx context.Context, filter repository.AlertFilter) ([]domain.Alert, error) {
	args := m.Called(ctx, filter)
	as, _ := args.Get(0).([]domain.Alert)
	return as, args.Error(1)
}

func (m *AlertRepository) Create(ctx context.Context, a *domain.Alert) (*domain.Alert, error) {
	args := m.Called(ctx, a)
	out, _ := args.Get(0).(*domain.Alert)
	return out, args.Error(1)
}

func (m *AlertRepository) MarkRead(ctx context.Context, workspaceID, id string) error {
	return m.Called(ctx, workspaceID, id).Error(0)
}

type VisitRepository struct{ mock.Mock }

func (m *VisitRepository) List(ctx context.Context, filter repository.VisitFilter) ([]domain.AnonymousVisit, error) {
	args := m.Called(ctx, filter)
	vs, _ := args.Get(0).([]domain.AnonymousVisit)
	return vs, args.Error(1)
}

func (m *VisitRepository) Create(ctx context.Context, v *domain.AnonymousVisit) (*domain.AnonymousVisit, error) {
	args := m.Called(ctx, v)
	out, _ := args.Get(0).(*domain.AnonymousVisit)
	return out, args.Error(1)
}

type OpportunityRepository struct{ mock.Mock }

func (m *OpportunityRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Opportunity, error) {
	args := m.Called(ctx, workspaceID, id)
	o, _ := args.Get(0).(*domain.Opportunity)
	return o, args.Error(1)
}

func (m *OpportunityRepository) List(ctx context.Context, filter repository.OpportunityFilter) ([]domain.Opportunity, error) {
	args := m.Called(ctx, filter)
	os, _ := args.Get(0).([]domain.Opportunity)
	return os, args.Error(1)
}

func (m *OpportunityRepository) Create(ctx context.Context, o *domain.Opportunity) (*domain.Opportunity, error) {
	args := m.Called(ctx, o)
	out, _ := args.Get(0).(*domain.Opportunity)
	return out, args.Error(1)
}

func (m *OpportunityRepository) Update(ctx context.Context, o *domain.Opportunity) error {
	return m.Called(ctx, o).Error(0)
}

func (m *OpportunityRepository) OpenValueByAccount(ctx context.Context, workspaceID string) (map[string]float64, error) {
	args := m.Called(ctx, workspaceID)
	values, _ := args.Get(0).(map[string]float64)
	return values, args.Error(1)
}

type ExternalMapRepository struct{ mock.Mock }

func (m *ExternalMapRepository) Get(ctx context.Context, workspaceID, provider, objectType, externalID string) (*domain.ExternalObjectMap, error) {
	args := m.Called(ctx, workspaceID, provider, objectType, externalID)
	out, _ := args.Get(0).(*domain.ExternalObjectMap)
	return out, args.Error(1)
}

func (m *ExternalMapRepository) Put(ctx context.Context, em *domain.ExternalObjectMap) error {
	return m.Called(ctx, em).Error(0)
}

type PlaybookRepository struct{ mock.Mock }

func (m *PlaybookRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.PlaybookRule, error) {
	args := m.Called(ctx, workspaceID, id)
	r, _ := args.Get(0).(*domain.PlaybookRule)
	return r, args.Error(1)
}

func (m *PlaybookRepository) List(ctx context.Context, workspaceID string, activeOnly bool) ([]domain.PlaybookRule, error) {
	args := m.Called(ctx, workspaceID, activeOnly)
	rs, _ := args.Get(0).([]domain.PlaybookRule)
	return rs, args.Error(1)
}

func (m *PlaybookRepository) Create(ctx context.Context, r *domain.PlaybookRule) (*domain.PlaybookRule, error) {
	args := m.Called(ctx, r)
	out, _ := args.Get(0).(*domain.PlaybookRule)
	return out, args.Error(1)
}

func (m *PlaybookRepository) Update(ctx context.Context, r *domain.PlaybookRule) error {
	return m.Called(ctx, r).Error(0)
}

func (m *PlaybookRepository) Delete(ctx context.Context, workspaceID, id string) error {
	return m.Called(ctx, workspaceID, id).Error(0)
}

func (m *PlaybookRepository) SaveOutcome(ctx context.Context, outcome *domain.PlaybookOutcome) error {
	return m.Called(ctx, outcome).Error(0)
}

type WorkspaceRepository struct{ mock.Mock }

func (m *WorkspaceRepository) Ensure(ctx context.Context, ws *domain.Workspace) error {
	return m.Called(ctx, ws).Error(0)
}

func (m *WorkspaceRepository) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	args := m.Called(ctx, id)
	ws, _ := args.Get(0).(*domain.Workspace)
	return ws, args.Error(1)
}

func (m *WorkspaceRepository) GetAPIKey(ctx context.Context, key string) (*domain.APIKey, error) {
	args := m.Called(ctx, key)
	k, _ := args.Get(0).(*domain.APIKey)
	return k, args.Error(1)
}

func (m *WorkspaceRepository) EnsureAPIKey(ctx context.Context, key *domain.APIKey) error {
	return m.Called(ctx, key).Error(0)
}

type APIKeyCache struct{ mock.Mock }

func (m *APIKeyCache) Get(ctx context.Context, key string) (*domain.APIKey, error) {
	args := m.Called(ctx, key)
	k, _ := args.Get(0).(*domain.APIKey)
	return k, args.Error(1)
}

func (m *APIKeyCache) Save(ctx context.Context, key *domain.APIKey) error {
	return m.Called(ctx, key).Error(0)
}

// ReportCache mocks the report cache.
type ReportCache struct {
	mock.Mock
}

func (m *ReportCache) Get(ctx context.Context, key string, dst any) error {
	return m.Called(ctx, key, dst).Error(0)
}

func (m *ReportCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *ReportCache) InvalidateWorkspace(ctx context.Context, workspaceID string) error {
	return m.Called(ctx, workspaceID).Error(0)
}

// Publisher records published messages.
type Publisher struct{ mock.Mock }

func (m *Publisher) Publish(subject string, data any) error {
	return m.Called(subject, data).Error(0)
}

// Buffer mocks usecase.OperationBuffer.
type Buffer struct{ mock.Mock }

func (m *Buffer) BufferEvent(ctx context.Context, e *domain.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *Buffer) BufferVisit(ctx context.Context, v *domain.AnonymousVisit) error {
	return m.Called(ctx, v).Error(0)
}

// Notifier mocks usecase.Notifier.
type Notifier struct{ mock.Mock }

func (m *Notifier) Notify(ctx context.Context, text string) {
	m.Called(ctx, text)
}

func account(v any) *domain.Account {
	a, _ := v.(*domain.Account)
	return a
}

func accounts(v any) []domain.Account {
	as, _ := v.([]domain.Account)
	return as
}

var (
	_ repository.AccountRepository     = (*AccountRepository)(nil)
	_ repository.EventRepository       = (*EventRepository)(nil)
	_ repository.ContactRepository     = (*ContactRepository)(nil)
	_ repository.TaskRepository        = (*TaskRepository)(nil)
	_ repository.AlertRepository       = (*AlertRepository)(nil)
	_ repository.VisitRepository       = (*VisitRepository)(nil)
	_ repository.OpportunityRepository = (*OpportunityRepository)(nil)
	_ repository.ExternalMapRepository = (*ExternalMapRepository)(nil)
	_ repository.PlaybookRepository    = (*PlaybookRepository)(nil)
	_ repository.WorkspaceRepository   = (*WorkspaceRepository)(nil)
	_ repository.APIKeyCache           = (*APIKeyCache)(nil)
	_ repository.ReportCache           = (*ReportCache)(nil)
)
