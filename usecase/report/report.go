// Package report builds the read-side views: attribution, segments, pipeline, activity and insights.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/internal/attribution"
	"github.com/fastygo/revenue-engine/internal/insight"
	"github.com/fastygo/revenue-engine/internal/segment"
	"github.com/fastygo/revenue-engine/pkg/logger"
	"github.com/fastygo/revenue-engine/repository"
	"github.com/fastygo/revenue-engine/usecase"
)

const (
	DefaultTopLimit      = 50
	DefaultActivityLimit = 50
	timelineLimit        = 100
)

type Deps struct {
	Accounts      repository.AccountRepository
	Events        repository.EventRepository
	Tasks         repository.TaskRepository
	Alerts        repository.AlertRepository
	Visits        repository.VisitRepository
	Opportunities repository.OpportunityRepository
	Cache         repository.ReportCache
	Segments      *segment.Engine
	Insights      *insight.Generator
	Attribution   attribution.Params
	CacheTTL      time.Duration
}

type UseCase struct {
	accounts      repository.AccountRepository
	events        repository.EventRepository
	tasks         repository.TaskRepository
	alerts        repository.AlertRepository
	visits        repository.VisitRepository
	opportunities repository.OpportunityRepository
	cache         repository.ReportCache
	segments      *segment.Engine
	insights      *insight.Generator
	defaults      attribution.Params
	cacheTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

func New(deps Deps, log *zap.Logger) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Segments == nil {
		deps.Segments = segment.New(segment.DefaultThresholds())
	}
	if deps.Insights == nil {
		deps.Insights = insight.NewGenerator(nil, 0, log)
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = time.Minute
	}
	return &UseCase{
		accounts:      deps.Accounts,
		events:        deps.Events,
		tasks:         deps.Tasks,
		alerts:        deps.Alerts,
		visits:        deps.Visits,
		opportunities: deps.Opportunities,
		cache:         deps.Cache,
		segments:      deps.Segments,
		insights:      deps.Insights,
		defaults:      deps.Attribution.Normalize(),
		cacheTTL:      deps.CacheTTL,
		logger:        log,
		now:           time.Now,
	}
}

// WithClock replaces the time source.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	if now != nil {
		uc.now = now
	}
	return uc
}

// Attribution computes channel credit over the lookback window. Zero-valued params fall back
// to the configured defaults.
func (uc *UseCase) Attribution(ctx context.Context, workspaceID string, params attribution.Params) ([]attribution.Channel, error) {
	if params.LookbackDays <= 0 {
		params.LookbackDays = uc.defaults.LookbackDays
	}
	if !params.UniqueChannels {
		params.UniqueChannels = uc.defaults.UniqueChannels
	}

	key := usecase.CacheKey(workspaceID, fmt.Sprintf("attribution:%s:%d:%t", params.AccountID, params.LookbackDays, params.UniqueChannels))
	var cached []attribution.Channel
	if uc.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	if params.AccountID != "" {
		if _, err := uc.accounts.GetByID(ctx, workspaceID, params.AccountID); err != nil {
			return nil, err
		}
	}
	events, err := uc.events.Window(ctx, repository.EventFilter{
		WorkspaceID: workspaceID,
		AccountID:   params.AccountID,
		Since:       params.Since(uc.now()),
	})
	if err != nil {
		return nil, err
	}

	channels := attribution.Compute(events, params)
	if channels == nil {
		channels = []attribution.Channel{}
	}
	uc.cacheSet(ctx, key, channels)
	return channels, nil
}

// Segments buckets the workspace's accounts using event counts as the visit measure.
func (uc *UseCase) Segments(ctx context.Context, workspaceID string, filters segment.Filters) ([]segment.Segment, error) {
	key := usecase.CacheKey(workspaceID, "segments:"+filterKey(filters))
	var cached []segment.Segment
	if uc.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	accounts, err := uc.accounts.All(ctx, repository.AccountFilter{WorkspaceID: workspaceID})
	if err != nil {
		return nil, err
	}
	counts, err := uc.events.CountByAccount(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	segments := uc.segments.Segment(workspaceID, accounts, counts, filters)
	if segments == nil {
		segments = []segment.Segment{}
	}
	uc.cacheSet(ctx, key, segments)
	return segments, nil
}

func (uc *UseCase) TopAccounts(ctx context.Context, workspaceID string, limit int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	return uc.accounts.TopByScore(ctx, workspaceID, limit)
}

// Coverage is the share of accounts that have moved past the unaware stage.
type Coverage struct {
	Total   int     `json:"total_accounts"`
	Covered int     `json:"covered_accounts"`
	Percent float64 `json:"coverage_percent"`
}

func (uc *UseCase) Coverage(ctx context.Context, workspaceID string) (*Coverage, error) {
	c, err := uc.accounts.Coverage(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	out := &Coverage{Total: c.Total, Covered: c.Covered}
	if c.Total > 0 {
		out.Percent = round1(float64(c.Covered) * 100 / float64(c.Total))
	}
	return out, nil
}

type PipelineRow struct {
	AccountID  string  `json:"account_id"`
	Name       string  `json:"name"`
	BuyerStage string  `json:"buyer_stage"`
	TotalScore float64 `json:"total_score"`
	OpenTasks  int     `json:"open_tasks"`
	OpenValue  float64 `json:"open_value"`
}

// Pipeline lists accounts with open work or open deal value, largest value first.
func (uc *UseCase) Pipeline(ctx context.Context, workspaceID string) ([]PipelineRow, error) {
	accounts, err := uc.accounts.All(ctx, repository.AccountFilter{WorkspaceID: workspaceID})
	if err != nil {
		return nil, err
	}
	tasks, err := uc.tasks.OpenCounts(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	values, err := uc.opportunities.OpenValueByAccount(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	rows := []PipelineRow{}
	for _, acc := range accounts {
		open, value := tasks[acc.ID], values[acc.ID]
		if open == 0 && value == 0 {
			continue
		}
		rows = append(rows, PipelineRow{
			AccountID:  acc.ID,
			Name:       acc.Name,
			BuyerStage: acc.BuyerStage,
			TotalScore: acc.TotalScore,
			OpenTasks:  open,
			OpenValue:  value,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].OpenValue != rows[j].OpenValue {
			return rows[i].OpenValue > rows[j].OpenValue
		}
		return rows[i].TotalScore > rows[j].TotalScore
	})
	return rows, nil
}

// Activity kinds in the feed.
const (
	ActivityEvent = "event"
	ActivityAlert = "alert"
	ActivityTask  = "task"
	ActivityVisit = "visit"
)

type Activity struct {
	Kind       string    `json:"kind"`
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id,omitempty"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Activity merges recent events, alerts, tasks and visits, newest first.
func (uc *UseCase) Activity(ctx context.Context, workspaceID string, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return uc.feed(ctx, workspaceID, "", limit)
}

type Account360 struct {
	Account        *domain.Account         `json:"account"`
	Events         []domain.Event          `json:"events"`
	Alerts         []domain.Alert          `json:"alerts"`
	Tasks          []domain.Task           `json:"tasks"`
	Visits         []domain.AnonymousVisit `json:"visits"`
	Timeline       []Activity              `json:"timeline"`
	Signals        []string                `json:"signals"`
	NextBestAction string                  `json:"next_best_action"`
}

// Account360 gathers everything known about one account.
func (uc *UseCase) Account360(ctx context.Context, workspaceID, accountID string) (*Account360, error) {
	account, err := uc.accounts.GetByID(ctx, workspaceID, accountID)
	if err != nil {
		return nil, err
	}
	events, err := uc.events.Recent(ctx, repository.EventFilter{WorkspaceID: workspaceID, AccountID: accountID, Limit: timelineLimit})
	if err != nil {
		return nil, err
	}
	alerts, err := uc.alerts.List(ctx, repository.AlertFilter{WorkspaceID: workspaceID, AccountID: accountID, Limit: timelineLimit})
	if err != nil {
		return nil, err
	}
	tasks, err := uc.tasks.List(ctx, repository.TaskFilter{WorkspaceID: workspaceID, AccountID: accountID, Limit: timelineLimit})
	if err != nil {
		return nil, err
	}
	visits, err := uc.visits.List(ctx, repository.VisitFilter{WorkspaceID: workspaceID, AccountID: accountID, Limit: timelineLimit})
	if err != nil {
		return nil, err
	}

	now := uc.now()
	days := account.InactiveDays(now)
	view := &Account360{
		Account:        account,
		Events:         nonNil(events),
		Alerts:         nonNil(alerts),
		Tasks:          nonNil(tasks),
		Visits:         nonNil(visits),
		Timeline:       merge(timelineLimit, events, alerts, tasks, visits),
		Signals:        signals(account, events, tasks, now),
		NextBestAction: insight.NextBestAction(insight.Urgency(account.TotalScore, days)),
	}
	return view, nil
}

// Insights scores the account's lead quality and narrates it. It never fails on the narrator.
func (uc *UseCase) Insights(ctx context.Context, workspaceID, accountID string) (*insight.Insight, error) {
	account, err := uc.accounts.GetByID(ctx, workspaceID, accountID)
	if err != nil {
		return nil, err
	}
	events, err := uc.events.Window(ctx, repository.EventFilter{
		WorkspaceID: workspaceID,
		AccountID:   accountID,
		Since:       uc.defaults.Since(uc.now()),
	})
	if err != nil {
		return nil, err
	}
	out := uc.insights.Generate(ctx, account, events)
	return &out, nil
}

func (uc *UseCase) feed(ctx context.Context, workspaceID, accountID string, limit int) ([]Activity, error) {
	events, err := uc.events.Recent(ctx, repository.EventFilter{WorkspaceID: workspaceID, AccountID: accountID, Limit: limit})
	if err != nil {
		return nil, err
	}
	alerts, err := uc.alerts.List(ctx, repository.AlertFilter{WorkspaceID: workspaceID, AccountID: accountID, Limit: limit})
	if err != nil {
		return nil, err
	}
	tasks, err := uc.tasks.List(ctx, repository.TaskFilter{WorkspaceID: workspaceID, AccountID: accountID, Limit: limit})
	if err != nil {
		return nil, err
	}
	visits, err := uc.visits.List(ctx, repository.VisitFilter{WorkspaceID: workspaceID, AccountID: accountID, Limit: limit})
	if err != nil {
		return nil, err
	}
	return merge(limit, events, alerts, tasks, visits), nil
}

func merge(limit int, events []domain.Event, alerts []domain.Alert, tasks []domain.Task, visits []domain.AnonymousVisit) []Activity {
	items := make([]Activity, 0, len(events)+len(alerts)+len(tasks)+len(visits))
	for _, e := range events {
		items = append(items, Activity{Kind: ActivityEvent, ID: e.ID, AccountID: e.AccountID, Title: e.EventType + " via " + e.Channel(), OccurredAt: e.CreatedAt})
	}
	for _, a := range alerts {
		items = append(items, Activity{Kind: ActivityAlert, ID: a.ID, AccountID: a.AccountID, Title: a.Title, OccurredAt: a.CreatedAt})
	}
	for _, t := range tasks {
		items = append(items, Activity{Kind: ActivityTask, ID: t.ID, AccountID: t.AccountID, Title: t.Title, OccurredAt: t.CreatedAt})
	}
	for _, v := range visits {
		title := v.URL
		if title == "" {
			title = "site visit"
		}
		items = append(items, Activity{Kind: ActivityVisit, ID: v.ID, AccountID: v.AccountID, Title: title, OccurredAt: v.CreatedAt})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].OccurredAt.After(items[j].OccurredAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func signals(account *domain.Account, events []domain.Event, tasks []domain.Task, now time.Time) []string {
	out := []string{}
	counts := map[string]int{}
	conversions := 0
	for i := range events {
		counts[events[i].Channel()]++
		if events[i].IsConversion() {
			conversions++
		}
	}
	if top := insight.TopChannels(counts, 3); len(top) > 0 {
		out = append(out, "Top channels: "+strings.Join(top, ", "))
	}
	if conversions > 0 {
		out = append(out, fmt.Sprintf("%d conversion events recorded", conversions))
	}
	open := 0
	for i := range tasks {
		if tasks[i].IsOpen() {
			open++
		}
	}
	if open > 0 {
		out = append(out, fmt.Sprintf("%d open tasks", open))
	}
	switch days := account.InactiveDays(now); {
	case days < 0:
		out = append(out, "Never seen")
	case days == 0:
		out = append(out, "Active today")
	default:
		out = append(out, fmt.Sprintf("Last seen %d days ago", days))
	}
	out = append(out, insight.RedFlags(account.TotalScore, len(events), account.InactiveDays(now))...)
	return out
}

func (uc *UseCase) cacheGet(ctx context.Context, key string, dst any) bool {
	if uc.cache == nil {
		return false
	}
	if err := uc.cache.Get(ctx, key, dst); err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			logger.WithRequestID(ctx, uc.logger).Debug("report cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

func (uc *UseCase) cacheSet(ctx context.Context, key string, value any) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, key, value, uc.cacheTTL); err != nil {
		logger.WithRequestID(ctx, uc.logger).Debug("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func filterKey(f segment.Filters) string {
	intOr := func(v *int) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprint(*v)
	}
	fold := func(values []string) string {
		out := make([]string, 0, len(values))
		for _, v := range values {
			out = append(out, strings.ToLower(strings.TrimSpace(v)))
		}
		sort.Strings(out)
		return strings.Join(out, ",")
	}
	return fmt.Sprintf("%s:%s:%s:%s", intOr(f.MinVisits), intOr(f.MaxInactiveDays), fold(f.Industries), fold(f.Stages))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
