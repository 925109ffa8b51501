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

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Task, error) {
	const query = `
	SELECT id, workspace_id, account_id, title, description, status, owner, source, due_at, created_at, updated_at
	FROM tasks
	WHERE workspace_id = $1 AND id = $2
	`
	row := r.pool.QueryRow(ctx, query, workspaceID, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const query = `
	SELECT id, workspace_id, account_id, title, description, status, owner, source, due_at, created_at, updated_at
	FROM tasks
	WHERE workspace_id = $1
	  AND ($2 = '' OR account_id = $2)
	  AND ($3 = '' OR status = $3)
	  AND (NOT $4 OR status <> 'done')
	ORDER BY created_at DESC
	LIMIT $5 OFFSET $6
	`
	rows, err := r.pool.Query(ctx, query, filter.WorkspaceID, filter.AccountID, filter.Status, filter.OpenOnly, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := insertTask(ctx, r.pool, task); err != nil {
		return nil, err
	}
	return task, nil
}

func insertTask(ctx context.Context, q queryRower, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusOpen
	}

	const query = `
	INSERT INTO tasks (id, workspace_id, account_id, title, description, status, owner, source, due_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at, updated_at
	`

	return q.QueryRow(ctx, query,
		task.ID,
		task.WorkspaceID,
		task.AccountID,
		task.Title,
		task.Description,
		task.Status,
		task.Owner,
		task.Source,
		nullTimePtr(task.DueAt),
	).Scan(&task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $3,
		description = $4,
		status = $5,
		owner = $6,
		due_at = $7,
		updated_at = NOW()
	WHERE workspace_id = $1 AND id = $2
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.WorkspaceID,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Owner,
		nullTimePtr(task.DueAt),
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, workspaceID, id string) error {
	const query = `DELETE FROM tasks WHERE workspace_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, query, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) CountOpen(ctx context.Context, workspaceID, accountID string) (int, error) {
	const query = `SELECT COUNT(*) FROM tasks WHERE workspace_id = $1 AND account_id = $2 AND status <> 'done'`
	var n int
	if err := r.pool.QueryRow(ctx, query, workspaceID, accountID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *taskRepository) OpenCounts(ctx context.Context, workspaceID string) (map[string]int, error) {
	const query = `
	SELECT account_id, COUNT(*)
	FROM tasks
	WHERE workspace_id = $1 AND status <> 'done'
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

func scanTask(row scanner) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.WorkspaceID,
		&task.AccountID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Owner,
		&task.Source,
		&task.DueAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}
