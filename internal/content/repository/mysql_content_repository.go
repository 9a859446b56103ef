package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	contentDomain "github.com/sanctumapp/sanctum/internal/content/domain"
	"github.com/sanctumapp/sanctum/internal/database"
	apperrors "github.com/sanctumapp/sanctum/internal/errors"
)

// MySQLContentRepository implements content item persistence for MySQL.
//
// UUIDs are stored as BINARY(16), so ids are marshaled before every query.
type MySQLContentRepository struct {
	db *sql.DB
}

// NewMySQLContentRepository creates a new MySQL content repository instance.
func NewMySQLContentRepository(db *sql.DB) *MySQLContentRepository {
	return &MySQLContentRepository{db: db}
}

// Create inserts a new content item into the MySQL database.
func (m *MySQLContentRepository) Create(ctx context.Context, item *contentDomain.Item) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO content_items (id, user_id, ciphertext, nonce, scheme, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := item.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal item id")
	}

	userID, err := item.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		userID,
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
func (m *MySQLContentRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*contentDomain.Item, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, ciphertext, nonce, scheme, created_at, updated_at
			  FROM content_items
			  WHERE user_id = ?
			  ORDER BY created_at ASC`

	id, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	rows, err := querier.QueryContext(ctx, query, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list content items")
	}
	defer rows.Close()

	var items []*contentDomain.Item
	for rows.Next() {
		var item contentDomain.Item
		var rawID, rawUserID []byte
		err := rows.Scan(
			&rawID,
			&rawUserID,
			&item.Ciphertext,
			&item.Nonce,
			&item.Scheme,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan content item")
		}
		if err := item.ID.UnmarshalBinary(rawID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal item id")
		}
		if err := item.UserID.UnmarshalBinary(rawUserID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal user id")
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list content items")
	}

	return items, nil
}

// UpdateCiphertext rewrites an item's ciphertext, nonce and scheme in place.
func (m *MySQLContentRepository) UpdateCiphertext(
	ctx context.Context,
	itemID uuid.UUID,
	ciphertext, nonce []byte,
	scheme contentDomain.Scheme,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE content_items
			  SET ciphertext = ?, nonce = ?, scheme = ?, updated_at = UTC_TIMESTAMP()
			  WHERE id = ?`

	id, err := itemID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal item id")
	}

	result, err := querier.ExecContext(ctx, query, ciphertext, nonce, scheme, id)
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
