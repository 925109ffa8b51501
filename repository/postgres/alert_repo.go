package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository"
)

type alertRepository struct {
	pool *pgxpool.Pool
}

func NewAlertRepository(pool *pgxpool.Pool) repository.AlertRepository {
	return &alertRepository{pool: pool}
}

func (r *alertRepository) List(ctx context.Context, filter repository.AlertFilter) ([]domain.Alert, error) {
	const query = `
	SELECT id, workspace_id, account_id, title, body, type, severity, is_read, created_at
	FROM alerts
	WHERE workspace_id = $1
	  AND ($2 = '' OR account_id = $2)
	  AND (NOT $3 OR is_read = FALSE)
	ORDER BY created_at DESC
	LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query, filter.WorkspaceID, filter.AccountID, filter.UnreadOnly, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var (
			a         domain.Alert
			accountID *string
		)
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &accountID, &a.Title, &a.Body, &a.Type, &a.Severity, &a.IsRead, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.AccountID = derefString(accountID)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *alertRepository) Create(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	if err := insertAlert(ctx, r.pool, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func insertAlert(ctx context.Context, q queryRower, alert *domain.Alert) error {
	if alert == nil || alert.Title == "" {
		return domain.ErrInvalidPayload
	}
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Severity == "" {
		alert.Severity = domain.SeverityMedium
	}

	const query = `
	INSERT INTO alerts (id, workspace_id, account_id, title, body, type, severity, is_read)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at
	`
	return q.QueryRow(ctx, query,
		alert.ID,
		alert.WorkspaceID,
		nullString(alert.AccountID),
		alert.Title,
		alert.Body,
		alert.Type,
		alert.Severity,
		alert.IsRead,
	).Scan(&alert.CreatedAt)
}

func (r *alertRepository) MarkRead(ctx context.Context, workspaceID, id string) error {
	const query = `UPDATE alerts SET is_read = TRUE WHERE workspace_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, query, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}
	return nil
}
