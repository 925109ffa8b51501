package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository"
)

type externalMapRepository struct {
	pool *pgxpool.Pool
}

func NewExternalMapRepository(pool *pgxpool.Pool) repository.ExternalMapRepository {
	return &externalMapRepository{pool: pool}
}

func (r *externalMapRepository) Get(ctx context.Context, workspaceID, provider, objectType, externalID string) (*domain.ExternalObjectMap, error) {
	const query = `
	SELECT workspace_id, provider, object_type, external_id, internal_id, created_at
	FROM external_object_map
	WHERE workspace_id = $1 AND provider = $2 AND object_type = $3 AND external_id = $4
	`
	var m domain.ExternalObjectMap
	if err := r.pool.QueryRow(ctx, query, workspaceID, provider, objectType, externalID).Scan(
		&m.WorkspaceID,
		&m.Provider,
		&m.ObjectType,
		&m.ExternalID,
		&m.InternalID,
		&m.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMappingNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Put inserts the mapping or repoints an existing one at a new internal id.
func (r *externalMapRepository) Put(ctx context.Context, m *domain.ExternalObjectMap) error {
	if m == nil || m.ExternalID == "" || m.InternalID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO external_object_map (workspace_id, provider, object_type, external_id, internal_id)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (workspace_id, provider, object_type, external_id)
	DO UPDATE SET internal_id = EXCLUDED.internal_id
	RETURNING created_at
	`
	return r.pool.QueryRow(ctx, query, m.WorkspaceID, m.Provider, m.ObjectType, m.ExternalID, m.InternalID).Scan(&m.CreatedAt)
}
