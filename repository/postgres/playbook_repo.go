package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository"
)

const playbookColumns = `id, workspace_id, name, description, owner, is_active, min_total_score, min_intent_score,
	buyer_stage_in, countries_in, stages_in, has_open_tasks, create_task, task_title, create_alert, alert_title,
	alert_severity, push_to_crm, created_at, updated_at`

type playbookRepository struct {
	pool *pgxpool.Pool
}

func NewPlaybookRepository(pool *pgxpool.Pool) repository.PlaybookRepository {
	return &playbookRepository{pool: pool}
}

func (r *playbookRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.PlaybookRule, error) {
	query := `SELECT ` + playbookColumns + ` FROM playbook_rules WHERE workspace_id = $1 AND id = $2`
	return scanRule(r.pool.QueryRow(ctx, query, workspaceID, id))
}

func (r *playbookRepository) List(ctx context.Context, workspaceID string, activeOnly bool) ([]domain.PlaybookRule, error) {
	query := `SELECT ` + playbookColumns + `
	FROM playbook_rules
	WHERE workspace_id = $1 AND (NOT $2 OR is_active)
	ORDER BY created_at ASC, id`

	rows, err := r.pool.Query(ctx, query, workspaceID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.PlaybookRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

func (r *playbookRepository) Create(ctx context.Context, rule *domain.PlaybookRule) (*domain.PlaybookRule, error) {
	if rule == nil || rule.Name == "" {
		return nil, domain.ErrInvalidPayload
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO playbook_rules (id, workspace_id, name, description, owner, is_active, min_total_score, min_intent_score,
		buyer_stage_in, countries_in, stages_in, has_open_tasks, create_task, task_title, create_alert, alert_title,
		alert_severity, push_to_crm)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query, ruleArgs(rule)...).Scan(&rule.CreatedAt, &rule.UpdatedAt); err != nil {
		return nil, err
	}
	return rule, nil
}

// SaveOutcome inserts every task and alert of a run in one transaction. A failed insert
// rolls back the rows written before it.
func (r *playbookRepository) SaveOutcome(ctx context.Context, outcome *domain.PlaybookOutcome) error {
	if outcome.Empty() {
		return nil
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, task := range outcome.Tasks {
			if err := insertTask(ctx, tx, task); err != nil {
				return fmt.Errorf("insert task %q: %w", task.Title, err)
			}
		}
		for _, alert := range outcome.Alerts {
			if err := insertAlert(ctx, tx, alert); err != nil {
				return fmt.Errorf("insert alert %q: %w", alert.Title, err)
			}
		}
		return nil
	})
}

func (r *playbookRepository) Update(ctx context.Context, rule *domain.PlaybookRule) error {
	if rule == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE playbook_rules
	SET name = $3,
		description = $4,
		owner = $5,
		is_active = $6,
		min_total_score = $7,
		min_intent_score = $8,
		buyer_stage_in = $9,
		countries_in = $10,
		stages_in = $11,
		has_open_tasks = $12,
		create_task = $13,
		task_title = $14,
		create_alert = $15,
		alert_title = $16,
		alert_severity = $17,
		push_to_crm = $18,
		updated_at = NOW()
	WHERE id = $1 AND workspace_id = $2
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query, ruleArgs(rule)...).Scan(&rule.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrRuleNotFound
		}
		return err
	}
	return nil
}

func (r *playbookRepository) Delete(ctx context.Context, workspaceID, id string) error {
	const query = `DELETE FROM playbook_rules WHERE workspace_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, query, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

func ruleArgs(rule *domain.PlaybookRule) []any {
	return []any{
		rule.ID,
		rule.WorkspaceID,
		rule.Name,
		rule.Description,
		rule.Owner,
		rule.IsActive,
		rule.MinTotalScore,
		rule.MinIntentScore,
		rule.BuyerStageIn,
		rule.CountriesIn,
		rule.StagesIn,
		rule.HasOpenTasks,
		rule.CreateTask,
		rule.TaskTitle,
		rule.CreateAlert,
		rule.AlertTitle,
		rule.AlertSeverity,
		rule.PushToCRM,
	}
}

func scanRule(row scanner) (*domain.PlaybookRule, error) {
	var rule domain.PlaybookRule
	if err := row.Scan(
		&rule.ID,
		&rule.WorkspaceID,
		&rule.Name,
		&rule.Description,
		&rule.Owner,
		&rule.IsActive,
		&rule.MinTotalScore,
		&rule.MinIntentScore,
		&rule.BuyerStageIn,
		&rule.CountriesIn,
		&rule.StagesIn,
		&rule.HasOpenTasks,
		&rule.CreateTask,
		&rule.TaskTitle,
		&rule.CreateAlert,
		&rule.AlertTitle,
		&rule.AlertSeverity,
		&rule.PushToCRM,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}
