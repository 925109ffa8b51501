package playbook

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository/mocks"
	"github.com/fastygo/revenue-engine/usecase"
)

func ptr[T any](v T) *T { return &v }

type runFixture struct {
	rules    *mocks.PlaybookRepository
	accounts *mocks.AccountRepository
	tasks    *mocks.TaskRepository
	bus      *mocks.Publisher
	notifier *mocks.Notifier
	uc       *UseCase
}

func newRunFixture() *runFixture {
	f := &runFixture{
		rules:    new(mocks.PlaybookRepository),
		accounts: new(mocks.AccountRepository),
		tasks:    new(mocks.TaskRepository),
		bus:      new(mocks.Publisher),
		notifier: new(mocks.Notifier),
	}
	f.uc = New(Deps{
		Rules:    f.rules,
		Accounts: f.accounts,
		Tasks:    f.tasks,
		Bus:      f.bus,
		Notifier: f.notifier,
	}, zap.NewNop())
	return f
}

func TestRun_PerformsEveryAction(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture()

	acc := &domain.Account{ID: "acc-1", WorkspaceID: "ws", Name: "Acme", BuyerStage: domain.StageEvaluating,
		ScoreTotals: domain.ScoreTotals{TotalScore: 60, IntentScore: 30}}
	rules := []domain.PlaybookRule{
		{ID: "r-1", WorkspaceID: "ws", Name: "Hot", Description: "Hot accounts", Owner: "dana", IsActive: true, MinTotalScore: ptr(50.0),
			CreateTask: true, CreateAlert: true, AlertSeverity: domain.SeverityHigh, PushToCRM: true},
		{ID: "r-2", WorkspaceID: "ws", Name: "Cold", IsActive: true, MinTotalScore: ptr(90.0), CreateTask: true},
	}

	f.accounts.On("GetByID", ctx, "ws", "acc-1").Return(acc, nil)
	f.rules.On("List", ctx, "ws", true).Return(rules, nil)
	f.rules.On("SaveOutcome", ctx, mock.MatchedBy(func(o *domain.PlaybookOutcome) bool {
		if len(o.Tasks) != 1 || len(o.Alerts) != 1 {
			return false
		}
		task, alert := o.Tasks[0], o.Alerts[0]
		return task.Title == "Follow up with Acme" && task.Source == "playbook:r-1" &&
			task.Description == "Hot accounts" && task.Owner == "dana" && task.Status == domain.TaskStatusOpen &&
			alert.Title == "Playbook triggered: Hot" && alert.Severity == domain.SeverityHigh && alert.Body == "Hot accounts"
	})).Return(nil).Once()
	f.notifier.On("Notify", ctx, mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "[HIGH] Playbook triggered: Hot")
	})).Return()
	f.bus.On("Publish", usecase.SubjectCRMPush, mock.MatchedBy(func(m usecase.CRMPush) bool {
		return m.RuleID == "r-1" && m.Account.ID == "acc-1"
	})).Return(nil)
	f.bus.On("Publish", usecase.SubjectPlaybookTriggered, mock.Anything).Return(errors.New("nats down"))

	res, err := f.uc.Run(ctx, "ws", "acc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TasksCreated)
	assert.Equal(t, 1, res.AlertsCreated)
	assert.Equal(t, 1, res.CRMPushes)
	assert.Len(t, res.Actions, 3)

	f.rules.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.bus.AssertExpectations(t)
}

func TestRun_NoMatchesHasEmptyActions(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture()

	f.accounts.On("GetByID", ctx, "ws", "acc-1").Return(&domain.Account{ID: "acc-1", WorkspaceID: "ws"}, nil)
	f.rules.On("List", ctx, "ws", true).Return([]domain.PlaybookRule{}, nil)

	res, err := f.uc.Run(ctx, "ws", "acc-1")
	require.NoError(t, err)
	assert.NotNil(t, res.Actions)
	assert.Empty(t, res.Actions)
	f.rules.AssertNotCalled(t, "SaveOutcome", mock.Anything, mock.Anything)
	f.bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestRun_UnknownAccount(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture()
	f.accounts.On("GetByID", ctx, "ws", "ghost").Return(nil, domain.ErrAccountNotFound)

	_, err := f.uc.Run(ctx, "ws", "ghost")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestRun_TemplateFieldError(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture()

	f.accounts.On("GetByID", ctx, "ws", "acc-1").Return(&domain.Account{ID: "acc-1", WorkspaceID: "ws", Name: "Acme"}, nil)
	f.rules.On("List", ctx, "ws", true).Return([]domain.PlaybookRule{
		{ID: "r-1", WorkspaceID: "ws", Name: "Bad", IsActive: true, CreateTask: true, TaskTitle: "Call {account.ceo}"},
	}, nil)

	_, err := f.uc.Run(ctx, "ws", "acc-1")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	f.rules.AssertNotCalled(t, "SaveOutcome", mock.Anything, mock.Anything)
}

func TestRun_FailedStoreWritesAndAnnouncesNothing(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture()

	f.accounts.On("GetByID", ctx, "ws", "acc-1").Return(&domain.Account{ID: "acc-1", WorkspaceID: "ws", Name: "Acme"}, nil)
	f.rules.On("List", ctx, "ws", true).Return([]domain.PlaybookRule{
		{ID: "r-1", WorkspaceID: "ws", Name: "Hot", IsActive: true, CreateTask: true, CreateAlert: true, PushToCRM: true},
	}, nil)
	storeErr := errors.New("db down")
	f.rules.On("SaveOutcome", ctx, mock.MatchedBy(func(o *domain.PlaybookOutcome) bool {
		return len(o.Tasks) == 1 && len(o.Alerts) == 1
	})).Return(storeErr)

	for i := 0; i < 2; i++ {
		res, err := f.uc.Run(ctx, "ws", "acc-1")
		require.ErrorIs(t, err, storeErr)
		assert.Nil(t, res)
	}

	f.rules.AssertNumberOfCalls(t, "SaveOutcome", 2)
	f.tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestCreateAndUpdate_Validation(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture()

	_, err := f.uc.Create(ctx, &domain.PlaybookRule{WorkspaceID: "ws"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = f.uc.Create(ctx, &domain.PlaybookRule{WorkspaceID: "ws", Name: "x", AlertSeverity: "critical"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	f.rules.On("GetByID", ctx, "ws", "r-1").Return(&domain.PlaybookRule{ID: "r-1", WorkspaceID: "ws", Name: "Old"}, nil)
	f.rules.On("Update", ctx, mock.MatchedBy(func(r *domain.PlaybookRule) bool {
		return r.ID == "r-1" && r.WorkspaceID == "ws" && r.Name == "New"
	})).Return(nil)

	updated, err := f.uc.Update(ctx, "ws", "r-1", &domain.PlaybookRule{ID: "spoofed", WorkspaceID: "other", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "r-1", updated.ID)
	f.rules.AssertExpectations(t)
}
