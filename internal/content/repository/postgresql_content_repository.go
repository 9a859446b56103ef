// Package repository implements content item persistence for PostgreSQL and
// MySQL. The migration orchestrator is the only writer that changes an item's
// scheme; feature code reads and creates items but never flips schemes.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	contentDomain "github.com/sanctumapp/sanctum/internal/content/domain"
	"github.com/sanctumapp/sanctum/internal/database"
	apperrors "github.com/sanctumapp/sanctum/internal/errors"
)

// PostgreSQLContentRepository implements content item persistence for PostgreSQL.
type PostgreSQLContentRepository struct {
	db *sql.DB
}

// NewPostgreSQLContentRepository creates a new PostgreSQL content repository instance.
func NewPostgreSQLContentRepository(db *sql.DB) *PostgreSQLContentRepository {
	return &PostgreSQLContentRepository{db: db}
}

// Create inserts a new content item into the PostgreSQL database.
func (p *PostgreSQLContentRepository) Create(ctx context.Context, item *contentDomain.Item) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO content_items (id, user_id, ciphertext, nonce, scheme, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		item.ID,
		item.UserID,
		item.Ciphertext,
		item.Nonce,
		item.Scheme,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create content item")
	}
	return nil
}

// ListByUser returns all content items belonging to a user, oldest first.
func (p *PostgreSQLContentRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*contentDomain.Item, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, ciphertext, nonce, scheme, created_at, updated_at
			  FROM content_items
			  WHERE user_id = $1
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list content items")
	}
	defer rows.Close()

	var items []*contentDomain.Item
	for rows.Next() {
		var item contentDomain.Item
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Ciphertext,
			&item.Nonce,
			&item.Scheme,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan content item")
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list content items")
	}

	return items, nil
}

// UpdateCiphertext rewrites an item's ciphertext, nonce and scheme in place.
// The item id and ownership never change.
func (p *PostgreSQLContentRepository) UpdateCiphertext(
	ctx context.Context,
	itemID uuid.UUID,
	ciphertext, nonce []byte,
	scheme contentDomain.Scheme,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE content_items
			  SET ciphertext = $1, nonce = $2, scheme = $3, updated_at = NOW()
			  WHERE id = $4`

	result, err := querier.ExecContext(ctx, query, ciphertext, nonce, scheme, itemID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update content item")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update content item")
	}
	if affected == 0 {
		return contentDomain.ErrItemNotFound
	}
	return nil
}
