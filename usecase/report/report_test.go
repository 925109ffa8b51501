package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/internal/attribution"
	"github.com/fastygo/revenue-engine/internal/segment"
	"github.com/fastygo/revenue-engine/repository"
	"github.com/fastygo/revenue-engine/repository/mocks"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

type reportFixture struct {
	accounts      *mocks.AccountRepository
	events        *mocks.EventRepository
	tasks         *mocks.TaskRepository
	alerts        *mocks.AlertRepository
	visits        *mocks.VisitRepository
	opportunities *mocks.OpportunityRepository
	cache         *mocks.ReportCache
	uc            *UseCase
}

func newReportFixture() *reportFixture {
	f := &reportFixture{
		accounts:      new(mocks.AccountRepository),
		events:        new(mocks.EventRepository),
		tasks:         new(mocks.TaskRepository),
		alerts:        new(mocks.AlertRepository),
		visits:        new(mocks.VisitRepository),
		opportunities: new(mocks.OpportunityRepository),
		cache:         new(mocks.ReportCache),
	}
	f.uc = New(Deps{
		Accounts:      f.accounts,
		Events:        f.events,
		Tasks:         f.tasks,
		Alerts:        f.alerts,
		Visits:        f.visits,
		Opportunities: f.opportunities,
		Cache:         f.cache,
		Segments:      segment.New(segment.DefaultThresholds()).WithClock(func() time.Time { return now }),
		CacheTTL:      30 * time.Second,
	}, zap.NewNop()).WithClock(func() time.Time { return now })
	return f
}

func at(days int) time.Time { return now.AddDate(0, 0, -days) }

func TestAttribution_ComputesAndCaches(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()
	key := "ws:attribution::90:false"

	events := []domain.Event{
		{ID: "e1", WorkspaceID: "ws", AccountID: "a", EventType: "page_view", Source: "google", CreatedAt: at(3)},
		{ID: "e2", WorkspaceID: "ws", AccountID: "a", EventType: "purchase", Source: "email", Value: ptr(100.0), CreatedAt: at(1)},
	}
	f.cache.On("Get", ctx, key, mock.Anything).Return(domain.ErrCacheMiss)
	f.events.On("Window", ctx, repository.EventFilter{WorkspaceID: "ws", Since: at(90)}).Return(events, nil)
	f.cache.On("Set", ctx, key, mock.Anything, 30*time.Second).Return(errors.New("redis down"))

	channels, err := f.uc.Attribution(ctx, "ws", attribution.Params{})
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, 100.0, channels[0].LinearRevenue+channels[1].LinearRevenue)
	f.cache.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestAttribution_CacheHit(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()

	f.cache.On("Get", ctx, "ws:attribution:acc-1:30:false", mock.Anything).
		Run(func(args mock.Arguments) {
			dst := args.Get(2).(*[]attribution.Channel)
			*dst = []attribution.Channel{{Channel: "email", Conversions: 1}}
		}).
		Return(nil)

	channels, err := f.uc.Attribution(ctx, "ws", attribution.Params{AccountID: "acc-1", LookbackDays: 30})
	require.NoError(t, err)
	assert.Equal(t, "email", channels[0].Channel)
	f.events.AssertNotCalled(t, "Window", mock.Anything, mock.Anything)
}

func TestAttribution_UnknownAccount(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()
	f.cache.On("Get", ctx, mock.Anything, mock.Anything).Return(domain.ErrCacheMiss)
	f.accounts.On("GetByID", ctx, "ws", "ghost").Return(nil, domain.ErrAccountNotFound)

	_, err := f.uc.Attribution(ctx, "ws", attribution.Params{AccountID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestSegments(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()
	seen := at(2)
	old := at(60)
	accounts := []domain.Account{
		{ID: "hot", WorkspaceID: "ws", LastEventAt: &seen, ScoreTotals: domain.ScoreTotals{TotalScore: 70}},
		{ID: "cold", WorkspaceID: "ws", LastEventAt: &old},
	}
	f.cache.On("Get", ctx, "ws:segments:-:-::", mock.Anything).Return(domain.ErrCacheMiss)
	f.cache.On("Set", ctx, "ws:segments:-:-::", mock.Anything, mock.Anything).Return(nil)
	f.accounts.On("All", ctx, repository.AccountFilter{WorkspaceID: "ws"}).Return(accounts, nil)
	f.events.On("CountByAccount", ctx, "ws").Return(map[string]int{"hot": 12}, nil)

	segments, err := f.uc.Segments(ctx, "ws", segment.Filters{})
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, segment.ActiveHighIntent, segments[0].Name)
	assert.Equal(t, []string{"hot"}, segments[0].AccountIDs)
	assert.Equal(t, segment.Dormant, segments[1].Name)
}

func TestFilterKey_IsOrderInsensitive(t *testing.T) {
	a := filterKey(segment.Filters{Industries: []string{"SaaS", "fintech"}})
	b := filterKey(segment.Filters{Industries: []string{"Fintech", " saas"}})
	assert.Equal(t, a, b)
}

func TestTopAccounts_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()
	f.accounts.On("TopByScore", ctx, "ws", DefaultTopLimit).Return([]domain.Account{{ID: "a"}}, nil)

	top, err := f.uc.TopAccounts(ctx, "ws", 0)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestCoverage(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()
	f.accounts.On("Coverage", ctx, "ws").Return(repository.Coverage{Total: 3, Covered: 2}, nil).Once()
	f.accounts.On("Coverage", ctx, "empty").Return(repository.Coverage{}, nil).Once()

	c, err := f.uc.Coverage(ctx, "ws")
	require.NoError(t, err)
	assert.Equal(t, 66.7, c.Percent)

	c, err = f.uc.Coverage(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.Percent)
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()
	f.accounts.On("All", ctx, repository.AccountFilter{WorkspaceID: "ws"}).Return([]domain.Account{
		{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "idle", Name: "Idle"},
	}, nil)
	f.tasks.On("OpenCounts", ctx, "ws").Return(map[string]int{"a": 2}, nil)
	f.opportunities.On("OpenValueByAccount", ctx, "ws").Return(map[string]float64{"b": 5000}, nil)

	rows, err := f.uc.Pipeline(ctx, "ws")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].AccountID)
	assert.Equal(t, 2, rows[1].OpenTasks)
}

func TestActivity_MergesNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()
	f.events.On("Recent", ctx, repository.EventFilter{WorkspaceID: "ws", Limit: 3}).
		Return([]domain.Event{{ID: "e", EventType: "page_view", Source: "website", CreatedAt: at(2)}}, nil)
	f.alerts.On("List", ctx, repository.AlertFilter{WorkspaceID: "ws", Limit: 3}).
		Return([]domain.Alert{{ID: "al", Title: "Hot", CreatedAt: at(0)}}, nil)
	f.tasks.On("List", ctx, repository.TaskFilter{WorkspaceID: "ws", Limit: 3}).
		Return([]domain.Task{{ID: "t", Title: "Call", CreatedAt: at(1)}}, nil)
	f.visits.On("List", ctx, repository.VisitFilter{WorkspaceID: "ws", Limit: 3}).
		Return([]domain.AnonymousVisit{{ID: "v", CreatedAt: at(5)}}, nil)

	feed, err := f.uc.Activity(ctx, "ws", 3)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, []string{"al", "t", "e"}, []string{feed[0].ID, feed[1].ID, feed[2].ID})
	assert.Equal(t, "page_view via website", feed[2].Title)
}

func TestAccount360(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()
	seen := at(1)
	acc := &domain.Account{ID: "acc-1", WorkspaceID: "ws", Name: "Acme", LastEventAt: &seen, ScoreTotals: domain.ScoreTotals{TotalScore: 65}}

	f.accounts.On("GetByID", ctx, "ws", "acc-1").Return(acc, nil)
	f.events.On("Recent", ctx, mock.Anything).Return([]domain.Event{
		{ID: "e1", AccountID: "acc-1", EventType: "purchase", Source: "email", CreatedAt: at(1)},
	}, nil)
	f.alerts.On("List", ctx, mock.Anything).Return(nil, nil)
	f.tasks.On("List", ctx, mock.Anything).Return([]domain.Task{{ID: "t1", Status: domain.TaskStatusOpen, CreatedAt: at(0)}}, nil)
	f.visits.On("List", ctx, mock.Anything).Return(nil, nil)

	view, err := f.uc.Account360(ctx, "ws", "acc-1")
	require.NoError(t, err)
	assert.NotNil(t, view.Alerts)
	assert.Len(t, view.Timeline, 2)
	assert.Contains(t, view.Signals, "1 conversion events recorded")
	assert.Contains(t, view.Signals, "1 open tasks")
	assert.Equal(t, "Prioritize outreach now.", view.NextBestAction)
}

func TestInsights_TemplateFallback(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture()
	acc := &domain.Account{ID: "acc-1", WorkspaceID: "ws", Name: "Acme"}
	f.accounts.On("GetByID", ctx, "ws", "acc-1").Return(acc, nil)
	f.events.On("Window", ctx, repository.EventFilter{WorkspaceID: "ws", AccountID: "acc-1", Since: at(90)}).Return(nil, nil)

	out, err := f.uc.Insights(ctx, "ws", "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", out.AccountID)
	assert.Equal(t, "Low", out.LeadQuality)
	assert.NotEmpty(t, out.Narrative)
}

func ptr[T any](v T) *T { return &v }
