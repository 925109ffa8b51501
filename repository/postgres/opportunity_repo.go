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

const opportunityColumns = `id, workspace_id, account_id, name, amount, currency, stage, status, close_date,
	source, external_id, created_at, updated_at`

type opportunityRepository struct {
	pool *pgxpool.Pool
}

func NewOpportunityRepository(pool *pgxpool.Pool) repository.OpportunityRepository {
	return &opportunityRepository{pool: pool}
}

func (r *opportunityRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE workspace_id = $1 AND id = $2`
	return scanOpportunity(r.pool.QueryRow(ctx, query, workspaceID, id))
}

func (r *opportunityRepository) List(ctx context.Context, filter repository.OpportunityFilter) ([]domain.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + `
	FROM opportunities
	WHERE workspace_id = $1
	  AND ($2 = '' OR account_id = $2)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, filter.WorkspaceID, filter.AccountID, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, *opp)
	}
	return opps, rows.Err()
}

func (r *opportunityRepository) Create(ctx context.Context, opp *domain.Opportunity) (*domain.Opportunity, error) {
	if opp == nil || opp.AccountID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if opp.ID == "" {
		opp.ID = uuid.NewString()
	}
	if opp.Status == "" {
		opp.Status = "open"
	}

	const query = `
	INSERT INTO opportunities (id, workspace_id, account_id, name, amount, currency, stage, status, close_date, source, external_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		opp.ID,
		opp.WorkspaceID,
		opp.AccountID,
		opp.Name,
		opp.Amount,
		opp.Currency,
		opp.Stage,
		opp.Status,
		nullTimePtr(opp.CloseDate),
		opp.Source,
		opp.ExternalID,
	).Scan(&opp.CreatedAt, &opp.UpdatedAt); err != nil {
		return nil, err
	}
	return opp, nil
}

func (r *opportunityRepository) Update(ctx context.Context, opp *domain.Opportunity) error {
	if opp == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE opportunities
	SET account_id = $3,
		name = $4,
		amount = $5,
		currency = $6,
		stage = $7,
		status = $8,
		close_date = $9,
		source = $10,
		external_id = $11,
		updated_at = NOW()
	WHERE workspace_id = $1 AND id = $2
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		opp.WorkspaceID,
		opp.ID,
		opp.AccountID,
		opp.Name,
		opp.Amount,
		opp.Currency,
		opp.Stage,
		opp.Status,
		nullTimePtr(opp.CloseDate),
		opp.Source,
		opp.ExternalID,
	).Scan(&opp.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOpportunityNotFound
		}
		return err
	}
	return nil
}

func (r *opportunityRepository) OpenValueByAccount(ctx context.Context, workspaceID string) (map[string]float64, error) {
	const query = `
	SELECT account_id, COALESCE(SUM(amount), 0)
	FROM opportunities
	WHERE workspace_id = $1 AND status <> 'won'
	GROUP BY account_id
	`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var (
			id    string
			value float64
		)
		if err := rows.Scan(&id, &value); err != nil {
			return nil, err
		}
		values[id] = value
	}
	return values, rows.Err()
}

func scanOpportunity(row scanner) (*domain.Opportunity, error) {
	var opp domain.Opportunity
	if err := row.Scan(
		&opp.ID,
		&opp.WorkspaceID,
		&opp.AccountID,
		&opp.Name,
		&opp.Amount,
		&opp.Currency,
		&opp.Stage,
		&opp.Status,
		&opp.CloseDate,
		&opp.Source,
		&opp.ExternalID,
		&opp.CreatedAt,
		&opp.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOpportunityNotFound
		}
		return nil, err
	}
	return &opp, nil
}
