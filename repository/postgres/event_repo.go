package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository"
)

const eventColumns = `id, workspace_id, account_id, contact_id, anonymous_id, event_type, source, url, page, route,
	referrer, ip, user_agent, duration, value, metadata, intent_score, engagement_score, created_at`

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository returns a Postgres-backed EventRepository.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	if event == nil || event.WorkspaceID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := insertEvent(ctx, r.pool, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) Window(ctx context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + `
	FROM events
	WHERE workspace_id = $1
	  AND ($2 = '' OR account_id = $2)
	  AND created_at >= $3
	ORDER BY account_id, created_at ASC, id`

	rows, err := r.pool.Query(ctx, query, filter.WorkspaceID, filter.AccountID, filter.Since)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func (r *eventRepository) Recent(ctx context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + `
	FROM events
	WHERE workspace_id = $1
	  AND ($2 = '' OR account_id = $2)
	  AND created_at >= $3
	ORDER BY created_at DESC, id
	LIMIT $4`

	rows, err := r.pool.Query(ctx, query, filter.WorkspaceID, filter.AccountID, filter.Since, clampLimit(filter.Limit))
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func (r *eventRepository) CountByAccount(ctx context.Context, workspaceID string) (map[string]int, error) {
	const query = `
	SELECT account_id, COUNT(*)
	FROM events
	WHERE workspace_id = $1 AND account_id IS NOT NULL
	GROUP BY account_id
	`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// insertEvent appends an event. Replaying an id that is already stored yields ErrDuplicateEvent.
func insertEvent(ctx context.Context, db execer, event *domain.Event) error {
	const query = `
	INSERT INTO events (id, workspace_id, account_id, contact_id, anonymous_id, event_type, source, url, page, route,
		referrer, ip, user_agent, duration, value, metadata, intent_score, engagement_score, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	ON CONFLICT (id) DO NOTHING
	`
	tag, err := db.Exec(ctx, query,
		event.ID,
		event.WorkspaceID,
		nullString(event.AccountID),
		nullString(event.ContactID),
		event.AnonymousID,
		event.EventType,
		event.Source,
		event.URL,
		event.Page,
		event.Route,
		event.Referrer,
		event.IP,
		event.UserAgent,
		event.Duration,
		event.Value,
		marshalMetadata(event.Metadata),
		event.IntentScore,
		event.EngagementScore,
		event.CreatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateEvent
	}
	return nil
}

func collectEvents(rows pgx.Rows) ([]domain.Event, error) {
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func scanEvent(row scanner) (*domain.Event, error) {
	var (
		ev        domain.Event
		accountID *string
		contactID *string
		metadata  []byte
	)
	if err := row.Scan(
		&ev.ID,
		&ev.WorkspaceID,
		&accountID,
		&contactID,
		&ev.AnonymousID,
		&ev.EventType,
		&ev.Source,
		&ev.URL,
		&ev.Page,
		&ev.Route,
		&ev.Referrer,
		&ev.IP,
		&ev.UserAgent,
		&ev.Duration,
		&ev.Value,
		&metadata,
		&ev.IntentScore,
		&ev.EngagementScore,
		&ev.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	ev.AccountID = derefString(accountID)
	ev.ContactID = derefString(contactID)
	ev.Metadata = unmarshalMetadata(metadata)
	return &ev, nil
}
