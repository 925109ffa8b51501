package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository"
)

type visitRepository struct {
	pool *pgxpool.Pool
}

func NewVisitRepository(pool *pgxpool.Pool) repository.VisitRepository {
	return &visitRepository{pool: pool}
}

func (r *visitRepository) List(ctx context.Context, filter repository.VisitFilter) ([]domain.AnonymousVisit, error) {
	const query = `
	SELECT id, workspace_id, account_id, ip, user_agent, url, referrer, country, city, company_guess, created_at
	FROM anonymous_visits
	WHERE workspace_id = $1
	  AND ($2 = '' OR account_id = $2)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.WorkspaceID, filter.AccountID, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []domain.AnonymousVisit
	for rows.Next() {
		var (
			v         domain.AnonymousVisit
			accountID *string
		)
		if err := rows.Scan(&v.ID, &v.WorkspaceID, &accountID, &v.IP, &v.UserAgent, &v.URL, &v.Referrer,
			&v.Country, &v.City, &v.CompanyGuess, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.AccountID = derefString(accountID)
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func (r *visitRepository) Create(ctx context.Context, visit *domain.AnonymousVisit) (*domain.AnonymousVisit, error) {
	if visit == nil {
		return nil, domain.ErrInvalidPayload
	}
	if visit.ID == "" {
		visit.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO anonymous_visits (id, workspace_id, account_id, ip, user_agent, url, referrer, country, city, company_guess, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, NOW()))
	ON CONFLICT (id) DO NOTHING
	RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		visit.ID,
		visit.WorkspaceID,
		nullString(visit.AccountID),
		visit.IP,
		visit.UserAgent,
		visit.URL,
		visit.Referrer,
		visit.Country,
		visit.City,
		visit.CompanyGuess,
		nullTime(visit.CreatedAt),
	).Scan(&visit.CreatedAt); err != nil {
		// A replayed visit that is already stored.
		if errors.Is(err, pgx.ErrNoRows) {
			return visit, nil
		}
		return nil, err
	}
	return visit, nil
}
