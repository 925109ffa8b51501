package event

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/internal/scoring"
	"github.com/fastygo/revenue-engine/pkg/logger"
	"github.com/fastygo/revenue-engine/repository"
	"github.com/fastygo/revenue-engine/usecase"
)

// DefaultTrackSource is the channel assigned to tracked page activity with no explicit source.
const DefaultTrackSource = "website"

type Deps struct {
	Accounts repository.AccountRepository
	Contacts repository.ContactRepository
	Events   repository.EventRepository
	Visits   repository.VisitRepository
	Engine   *scoring.Engine
	Buffer   usecase.OperationBuffer
	Bus      usecase.Publisher
	Cache    repository.ReportCache
}

type UseCase struct {
	accounts repository.AccountRepository
	contacts repository.ContactRepository
	events   repository.EventRepository
	visits   repository.VisitRepository
	engine   *scoring.Engine
	buffer   usecase.OperationBuffer
	bus      usecase.Publisher
	cache    repository.ReportCache
	logger   *zap.Logger
	now      func() time.Time
}

func New(deps Deps, log *zap.Logger) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Engine == nil {
		deps.Engine = scoring.New(scoring.DefaultWeights())
	}
	return &UseCase{
		accounts: deps.Accounts,
		contacts: deps.Contacts,
		events:   deps.Events,
		visits:   deps.Visits,
		engine:   deps.Engine,
		buffer:   deps.Buffer,
		bus:      deps.Bus,
		cache:    deps.Cache,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	if now != nil {
		uc.now = now
	}
	return uc
}

// RecordInput is an event posted directly against a known account.
type RecordInput struct {
	ContactID string          `json:"contact_id"`
	EventType string          `json:"event_type"`
	Source    string          `json:"source"`
	URL       string          `json:"url"`
	Page      string          `json:"page"`
	Route     string          `json:"route"`
	Referrer  string          `json:"referrer"`
	Duration  float64         `json:"duration"`
	Value     *float64        `json:"value"`
	Metadata  domain.Metadata `json:"metadata"`
	CreatedAt *time.Time      `json:"created_at"`
}

// Result reports what was stored. Buffered results are persisted later by the buffer processor.
type Result struct {
	Event    *domain.Event          `json:"event"`
	Account  *domain.Account        `json:"account,omitempty"`
	Visit    *domain.AnonymousVisit `json:"visit,omitempty"`
	Buffered bool                   `json:"buffered"`
}

// Record scores an event for an account and persists it.
func (uc *UseCase) Record(ctx context.Context, workspaceID, accountID string, in RecordInput) (*Result, error) {
	if strings.TrimSpace(in.EventType) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "event_type is required")
	}
	if accountID == "" {
		return nil, domain.ErrAccountNotFound
	}

	if in.ContactID != "" {
		contact, err := uc.contacts.GetByID(ctx, workspaceID, in.ContactID)
		if err != nil {
			return nil, err
		}
		if contact.AccountID != accountID {
			return nil, domain.ErrContactMismatch
		}
	}

	ev := &domain.Event{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		AccountID:   accountID,
		ContactID:   in.ContactID,
		EventType:   strings.TrimSpace(in.EventType),
		Source:      strings.TrimSpace(in.Source),
		URL:         in.URL,
		Page:        in.Page,
		Route:       in.Route,
		Referrer:    in.Referrer,
		Duration:    in.Duration,
		Value:       in.Value,
		Metadata:    in.Metadata,
		CreatedAt:   uc.now().UTC(),
	}
	if in.CreatedAt != nil && !in.CreatedAt.IsZero() {
		ev.CreatedAt = in.CreatedAt.UTC()
	}

	account, err := uc.Persist(ctx, ev)
	if err != nil {
		if uc.bufferEvent(ctx, ev, err) {
			return &Result{Event: ev, Buffered: true}, nil
		}
		return nil, err
	}
	return &Result{Event: ev, Account: account}, nil
}

// Persist scores and stores an already built event. Anonymous events are stored with their
// contributions but touch no account. It is also the replay entry point for buffered events.
func (uc *UseCase) Persist(ctx context.Context, ev *domain.Event) (*domain.Account, error) {
	if ev == nil || ev.WorkspaceID == "" {
		return nil, domain.ErrInvalidPayload
	}

	if ev.Anonymous() {
		res := uc.engine.Score(nil, ev)
		ev.IntentScore, ev.EngagementScore = res.Intent, res.Engagement
		if _, err := uc.events.Create(ctx, ev); err != nil {
			return nil, err
		}
		return nil, nil
	}

	account, err := uc.accounts.ApplyEvent(ctx, ev.WorkspaceID, ev.AccountID, ev, func(acc *domain.Account, e *domain.Event) {
		res := uc.engine.Score(acc, e)
		e.IntentScore, e.EngagementScore = res.Intent, res.Engagement
		acc.ApplyScores(res.Totals, res.BuyerStage)
	})
	if err != nil {
		return nil, err
	}

	uc.afterScore(ctx, account, ev)
	return account, nil
}

// TrackInput is a tracker beacon. AccountID is optional and only used when it resolves.
type TrackInput struct {
	AccountID    string          `json:"account_id"`
	AnonymousID  string          `json:"anonymous_id"`
	EventType    string          `json:"event_type"`
	Source       string          `json:"source"`
	URL          string          `json:"url"`
	Page         string          `json:"page"`
	Route        string          `json:"route"`
	Referrer     string          `json:"referrer"`
	Duration     float64         `json:"duration"`
	Value        *float64        `json:"value"`
	UTMSource    string          `json:"utm_source"`
	UTMMedium    string          `json:"utm_medium"`
	UTMCampaign  string          `json:"utm_campaign"`
	IsConversion bool            `json:"is_conversion"`
	Metadata     domain.Metadata `json:"metadata"`
	Country      string          `json:"country"`
	City         string          `json:"city"`
	CompanyGuess string          `json:"company_guess"`
	IP           string          `json:"-"`
	UserAgent    string          `json:"-"`
}

// Track records an anonymous visit and, when the account resolves in the workspace, a scored event.
func (uc *UseCase) Track(ctx context.Context, workspaceID string, in TrackInput) (*Result, error) {
	now := uc.now().UTC()
	visit := &domain.AnonymousVisit{
		ID:           uuid.NewString(),
		WorkspaceID:  workspaceID,
		IP:           in.IP,
		UserAgent:    in.UserAgent,
		URL:          in.URL,
		Referrer:     in.Referrer,
		Country:      in.Country,
		City:         in.City,
		CompanyGuess: in.CompanyGuess,
		CreatedAt:    now,
	}
	result := &Result{Visit: visit}
	log := logger.WithRequestID(ctx, uc.logger)

	var account *domain.Account
	if in.AccountID != "" {
		acc, err := uc.accounts.GetByID(ctx, workspaceID, in.AccountID)
		switch {
		case err == nil:
			account = acc
			visit.AccountID = acc.ID
		case domain.IsDomainError(err, domain.ErrCodeNotFound):
			log.Debug("track: unknown account, recording visit only", zap.String("account_id", in.AccountID))
		case usecase.Transient(err) && uc.buffer != nil:
			// The account cannot be verified; keep the id and let replay resolve it.
			visit.AccountID = in.AccountID
			account = &domain.Account{ID: in.AccountID, WorkspaceID: workspaceID}
		default:
			return nil, err
		}
	}

	if account != nil {
		ev := uc.trackEvent(workspaceID, account.ID, in, now)
		result.Event = ev
		scored, err := uc.Persist(ctx, ev)
		switch {
		case err == nil:
			result.Account = scored
		case uc.bufferEvent(ctx, ev, err):
			result.Buffered = true
		default:
			return nil, err
		}
	}

	if _, err := uc.visits.Create(ctx, visit); err != nil {
		if !uc.bufferVisit(ctx, visit, err) {
			return nil, err
		}
		result.Buffered = true
	}
	return result, nil
}

// PublicTrack captures a visit from the unauthenticated tracker. It never scores an account,
// since the caller cannot prove it belongs to the workspace.
func (uc *UseCase) PublicTrack(ctx context.Context, workspaceID string, in TrackInput) (*Result, error) {
	in.AccountID = ""
	return uc.Track(ctx, workspaceID, in)
}

func (uc *UseCase) ListEvents(ctx context.Context, workspaceID, accountID string, limit int) ([]domain.Event, error) {
	if _, err := uc.accounts.GetByID(ctx, workspaceID, accountID); err != nil {
		return nil, err
	}
	return uc.events.Recent(ctx, repository.EventFilter{WorkspaceID: workspaceID, AccountID: accountID, Limit: limit})
}

func (uc *UseCase) ListVisits(ctx context.Context, filter repository.VisitFilter) ([]domain.AnonymousVisit, error) {
	return uc.visits.List(ctx, filter)
}

// CreateVisit stores a visit posted by an integration rather than the tracker.
func (uc *UseCase) CreateVisit(ctx context.Context, visit *domain.AnonymousVisit) (*domain.AnonymousVisit, error) {
	if visit == nil {
		return nil, domain.ErrInvalidPayload
	}
	if visit.AccountID != "" {
		if _, err := uc.accounts.GetByID(ctx, visit.WorkspaceID, visit.AccountID); err != nil {
			return nil, err
		}
	}
	return uc.visits.Create(ctx, visit)
}

func (uc *UseCase) trackEvent(workspaceID, accountID string, in TrackInput, now time.Time) *domain.Event {
	md := domain.Metadata{}
	for k, v := range in.Metadata {
		md[k] = v
	}
	setIf(md, domain.MetaUTMSource, in.UTMSource)
	setIf(md, domain.MetaUTMMedium, in.UTMMedium)
	setIf(md, domain.MetaUTMCampaign, in.UTMCampaign)
	setIf(md, domain.MetaReferrer, in.Referrer)
	if in.IsConversion {
		md[domain.MetaIsConversion] = true
	}
	if len(md) == 0 {
		md = nil
	}

	eventType := strings.TrimSpace(in.EventType)
	if eventType == "" {
		eventType = "page_view"
	}
	source := strings.TrimSpace(in.Source)
	if source == "" && in.UTMSource == "" && in.Metadata.String(domain.MetaChannel) == "" {
		source = DefaultTrackSource
	}

	return &domain.Event{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		AccountID:   accountID,
		AnonymousID: in.AnonymousID,
		EventType:   eventType,
		Source:      source,
		URL:         in.URL,
		Page:        in.Page,
		Route:       in.Route,
		Referrer:    in.Referrer,
		IP:          in.IP,
		UserAgent:   in.UserAgent,
		Duration:    in.Duration,
		Value:       in.Value,
		Metadata:    md,
		CreatedAt:   now,
	}
}

func (uc *UseCase) afterScore(ctx context.Context, account *domain.Account, ev *domain.Event) {
	if uc.bus != nil {
		msg := usecase.EventScored{
			WorkspaceID:     ev.WorkspaceID,
			AccountID:       account.ID,
			EventID:         ev.ID,
			EventType:       ev.EventType,
			Channel:         ev.Channel(),
			IntentScore:     ev.IntentScore,
			EngagementScore: ev.EngagementScore,
			Totals:          account.Scores(),
			BuyerStage:      account.BuyerStage,
			OccurredAt:      ev.CreatedAt,
		}
		if err := uc.bus.Publish(usecase.SubjectEventScored, msg); err != nil {
			uc.logger.Warn("publish event.scored failed", zap.String("event_id", ev.ID), zap.Error(err))
		}
	}
	if uc.cache != nil {
		if err := uc.cache.InvalidateWorkspace(ctx, ev.WorkspaceID); err != nil {
			uc.logger.Debug("report cache invalidation failed", zap.Error(err))
		}
	}
}

func (uc *UseCase) bufferEvent(ctx context.Context, ev *domain.Event, cause error) bool {
	if uc.buffer == nil || !usecase.Transient(cause) {
		return false
	}
	log := logger.WithRequestID(ctx, uc.logger)
	if err := uc.buffer.BufferEvent(ctx, ev); err != nil {
		log.Error("failed to buffer event", zap.String("event_id", ev.ID), zap.Error(err))
		return false
	}
	log.Warn("event buffered", zap.String("event_id", ev.ID), zap.NamedError("cause", cause))
	return true
}

func (uc *UseCase) bufferVisit(ctx context.Context, visit *domain.AnonymousVisit, cause error) bool {
	if uc.buffer == nil || !usecase.Transient(cause) {
		return false
	}
	log := logger.WithRequestID(ctx, uc.logger)
	if err := uc.buffer.BufferVisit(ctx, visit); err != nil {
		log.Error("failed to buffer visit", zap.String("visit_id", visit.ID), zap.Error(err))
		return false
	}
	log.Warn("visit buffered", zap.String("visit_id", visit.ID), zap.NamedError("cause", cause))
	return true
}

func setIf(md domain.Metadata, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		md[key] = v
	}
}
