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

type workspaceRepository struct {
	pool *pgxpool.Pool
}

func NewWorkspaceRepository(pool *pgxpool.Pool) repository.WorkspaceRepository {
	return &workspaceRepository{pool: pool}
}

// Ensure creates the workspace when it does not exist yet. Existing rows are left untouched.
func (r *workspaceRepository) Ensure(ctx context.Context, ws *domain.Workspace) error {
	if ws == nil || ws.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO workspaces (id, name)
	VALUES ($1, $2)
	ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, ws.ID, ws.Name)
	return err
}

func (r *workspaceRepository) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	const query = `SELECT id, name, created_at FROM workspaces WHERE id = $1`
	var ws domain.Workspace
	if err := r.pool.QueryRow(ctx, query, id).Scan(&ws.ID, &ws.Name, &ws.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return &ws, nil
}

func (r *workspaceRepository) GetAPIKey(ctx context.Context, key string) (*domain.APIKey, error) {
	const query = `
	SELECT id, workspace_id, key, label, is_active, created_at
	FROM api_keys
	WHERE key = $1
	`
	var k domain.APIKey
	if err := r.pool.QueryRow(ctx, query, key).Scan(&k.ID, &k.WorkspaceID, &k.Key, &k.Label, &k.IsActive, &k.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAPIKeyNotFound
		}
		return nil, err
	}
	return &k, nil
}

func (r *workspaceRepository) EnsureAPIKey(ctx context.Context, key *domain.APIKey) error {
	if key == nil || key.Key == "" || key.WorkspaceID == "" {
		return domain.ErrInvalidPayload
	}
	if key.ID == "" {
		key.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO api_keys (id, workspace_id, key, label, is_active)
	VALUES ($1, $2, $3, $4, TRUE)
	ON CONFLICT (key) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, key.ID, key.WorkspaceID, key.Key, key.Label)
	return err
}
