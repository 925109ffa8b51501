package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository"
)

const accountColumns = `id, workspace_id, name, domain, industry, employee_range, country, city, owner, stage,
	buyer_stage, last_source, last_event_at, intent_score, engagement_score, fit_score, predictive_score,
	total_score, created_at, updated_at`

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) repository.AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE workspace_id = $1 AND id = $2`
	return scanAccount(r.pool.QueryRow(ctx, query, workspaceID, id))
}

func (r *accountRepository) List(ctx context.Context, filter repository.AccountFilter) ([]domain.Account, error) {
	return r.list(ctx, filter, clampLimit(filter.Limit))
}

func (r *accountRepository) All(ctx context.Context, filter repository.AccountFilter) ([]domain.Account, error) {
	return r.list(ctx, filter, -1)
}

func (r *accountRepository) list(ctx context.Context, filter repository.AccountFilter, limit int) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + `
	FROM accounts
	WHERE workspace_id = $1
	  AND (cardinality($2::text[]) = 0 OR lower(industry) = ANY($2))
	  AND (cardinality($3::text[]) = 0 OR lower(stage) = ANY($3))
	ORDER BY created_at DESC, id
	LIMIT NULLIF($4::int, -1) OFFSET $5`

	rows, err := r.pool.Query(ctx, query, filter.WorkspaceID, lowerAll(filter.Industries), lowerAll(filter.Stages), limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *accountRepository) TopByScore(ctx context.Context, workspaceID string, limit int) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + `
	FROM accounts
	WHERE workspace_id = $1
	ORDER BY total_score DESC, id
	LIMIT $2`
	rows, err := r.pool.Query(ctx, query, workspaceID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if account == nil || account.WorkspaceID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.BuyerStage == "" {
		account.BuyerStage = domain.StageUnaware
	}

	const query = `
	INSERT INTO accounts (id, workspace_id, name, domain, industry, employee_range, country, city, owner, stage,
		buyer_stage, fit_score, total_score)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		account.ID,
		account.WorkspaceID,
		account.Name,
		account.Domain,
		account.Industry,
		account.EmployeeRange,
		account.Country,
		account.City,
		account.Owner,
		account.Stage,
		account.BuyerStage,
		account.FitScore,
	).Scan(&account.CreatedAt, &account.UpdatedAt); err != nil {
		return nil, err
	}
	account.TotalScore = account.FitScore
	return account, nil
}

// Update writes descriptive attributes only. Scores change through ApplyEvent.
func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	if account == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE accounts
	SET name = $3,
		domain = $4,
		industry = $5,
		employee_range = $6,
		country = $7,
		city = $8,
		owner = $9,
		stage = $10,
		updated_at = NOW()
	WHERE workspace_id = $1 AND id = $2
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		account.WorkspaceID,
		account.ID,
		account.Name,
		account.Domain,
		account.Industry,
		account.EmployeeRange,
		account.Country,
		account.City,
		account.Owner,
		account.Stage,
	).Scan(&account.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAccountNotFound
		}
		return err
	}
	return nil
}

func (r *accountRepository) Delete(ctx context.Context, workspaceID, id string) error {
	const query = `DELETE FROM accounts WHERE workspace_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, query, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) ApplyEvent(ctx context.Context, workspaceID, accountID string, event *domain.Event, score repository.ScoreFunc) (*domain.Account, error) {
	if event == nil || score == nil {
		return nil, domain.ErrInvalidPayload
	}

	var account *domain.Account
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := `SELECT ` + accountColumns + ` FROM accounts WHERE workspace_id = $1 AND id = $2 FOR UPDATE`
		locked, err := scanAccount(tx.QueryRow(ctx, query, workspaceID, accountID))
		if err != nil {
			return err
		}

		event.WorkspaceID = workspaceID
		event.AccountID = accountID
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.CreatedAt.IsZero() {
			event.CreatedAt = time.Now().UTC()
		}
		score(locked, event)

		if err := insertEvent(ctx, tx, event); err != nil {
			if errors.Is(err, domain.ErrDuplicateEvent) {
				return err
			}
			return fmt.Errorf("insert event: %w", err)
		}

		lastEventAt := event.CreatedAt
		if locked.LastEventAt != nil && locked.LastEventAt.After(lastEventAt) {
			lastEventAt = *locked.LastEventAt
		}
		locked.LastEventAt = &lastEventAt
		if ch := event.Channel(); ch != domain.UnknownChannel {
			locked.LastSource = ch
		}

		const update = `
		UPDATE accounts
		SET intent_score = $3,
			engagement_score = $4,
			fit_score = $5,
			predictive_score = $6,
			total_score = $7,
			buyer_stage = $8,
			last_event_at = $9,
			last_source = $10,
			updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
		RETURNING updated_at
		`
		if err := tx.QueryRow(ctx, update,
			workspaceID,
			accountID,
			locked.IntentScore,
			locked.EngagementScore,
			locked.FitScore,
			locked.PredictiveScore,
			locked.TotalScore,
			locked.BuyerStage,
			lastEventAt,
			locked.LastSource,
		).Scan(&locked.UpdatedAt); err != nil {
			return fmt.Errorf("update account scores: %w", err)
		}

		account = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) Coverage(ctx context.Context, workspaceID string) (repository.Coverage, error) {
	const query = `
	SELECT COUNT(*),
		COUNT(*) FILTER (WHERE buyer_stage <> '' AND buyer_stage <> 'unaware')
	FROM accounts
	WHERE workspace_id = $1
	`
	var c repository.Coverage
	if err := r.pool.QueryRow(ctx, query, workspaceID).Scan(&c.Total, &c.Covered); err != nil {
		return repository.Coverage{}, err
	}
	return c, nil
}

func collectAccounts(rows pgx.Rows) ([]domain.Account, error) {
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acc)
	}
	return accounts, rows.Err()
}

func scanAccount(row scanner) (*domain.Account, error) {
	var acc domain.Account
	if err := row.Scan(
		&acc.ID,
		&acc.WorkspaceID,
		&acc.Name,
		&acc.Domain,
		&acc.Industry,
		&acc.EmployeeRange,
		&acc.Country,
		&acc.City,
		&acc.Owner,
		&acc.Stage,
		&acc.BuyerStage,
		&acc.LastSource,
		&acc.LastEventAt,
		&acc.IntentScore,
		&acc.EngagementScore,
		&acc.FitScore,
		&acc.PredictiveScore,
		&acc.TotalScore,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
