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

type contactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(pool *pgxpool.Pool) repository.ContactRepository {
	return &contactRepository{pool: pool}
}

func (r *contactRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Contact, error) {
	const query = `
	SELECT id, workspace_id, account_id, name, email, title, phone, created_at
	FROM contacts
	WHERE workspace_id = $1 AND id = $2
	`
	return scanContact(r.pool.QueryRow(ctx, query, workspaceID, id))
}

func (r *contactRepository) ListByAccount(ctx context.Context, workspaceID, accountID string) ([]domain.Contact, error) {
	const query = `
	SELECT id, workspace_id, account_id, name, email, title, phone, created_at
	FROM contacts
	WHERE workspace_id = $1 AND account_id = $2
	ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, workspaceID, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	if contact == nil || contact.AccountID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO contacts (id, workspace_id, account_id, name, email, title, phone)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		contact.ID,
		contact.WorkspaceID,
		contact.AccountID,
		contact.Name,
		contact.Email,
		contact.Title,
		contact.Phone,
	).Scan(&contact.CreatedAt); err != nil {
		return nil, err
	}
	return contact, nil
}

func (r *contactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	if contact == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE contacts
	SET account_id = $3, name = $4, email = $5, title = $6, phone = $7
	WHERE workspace_id = $1 AND id = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		contact.WorkspaceID,
		contact.ID,
		contact.AccountID,
		contact.Name,
		contact.Email,
		contact.Title,
		contact.Phone,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContactNotFound
	}
	return nil
}

func scanContact(row scanner) (*domain.Contact, error) {
	var c domain.Contact
	if err := row.Scan(&c.ID, &c.WorkspaceID, &c.AccountID, &c.Name, &c.Email, &c.Title, &c.Phone, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContactNotFound
		}
		return nil, err
	}
	return &c, nil
}
