package database

import (
	"context"
	"errors"
	"time"

	"chmura-plikow/internal/models"

	"github.com/jackc/pgx/v5"
)

const contentColumns = `id, owner_id, name, content, file_suffix, created_at, updated_at, deleted_at`

func scanContent(row pgx.Row) (*models.Content, error) {
	var c models.Content
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Body,
		&c.FileSuffix,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type CreateContentParams struct {
	ID         string
	OwnerID    string
	Name       string
	Body       string
	FileSuffix *string
}

// CreateContent wstawia rekord treści dla pliku edytowalnego online.
// Wywoływane zawsze w tej samej transakcji co CreateNode.
func (q *Queries) CreateContent(ctx context.Context, arg CreateContentParams) (*models.Content, error) {
	query := `
		INSERT INTO filecontent (id, owner_id, name, content, file_suffix, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + contentColumns

	row := q.db.QueryRow(ctx, query, arg.ID, arg.OwnerID, arg.Name, arg.Body, arg.FileSuffix, time.Now())
	return scanContent(row)
}

func (q *Queries) GetContent(ctx context.Context, id string, ownerID string) (*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM filecontent WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	content, err := scanContent(q.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return content, nil
}

func (q *Queries) UpdateContentBody(ctx context.Context, id string, ownerID string, body string, updatedAt time.Time) (bool, error) {
	query := `
		UPDATE filecontent
		SET content = $1, updated_at = $2
		WHERE id = $3 AND owner_id = $4 AND deleted_at IS NULL
	`
	res, err := q.db.Exec(ctx, query, body, updatedAt, id, ownerID)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

func (q *Queries) UpdateContentName(ctx context.Context, id string, ownerID string, newName string, newSuffix *string) (bool, error) {
	query := `
		UPDATE filecontent
		SET name = $1, file_suffix = $2, updated_at = $3
		WHERE id = $4 AND owner_id = $5 AND deleted_at IS NULL
	`
	res, err := q.db.Exec(ctx, query, newName, newSuffix, time.Now(), id, ownerID)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

func (q *Queries) SoftDeleteContents(ctx context.Context, ids []string, deletedAt time.Time) (int64, error) {
	query := `UPDATE filecontent SET deleted_at = $2 WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL`
	res, err := q.db.Exec(ctx, query, ids, deletedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (q *Queries) RestoreContents(ctx context.Context, ids []string) (int64, error) {
	query := `UPDATE filecontent SET deleted_at = NULL WHERE id = ANY($1::uuid[]) AND deleted_at IS NOT NULL`
	res, err := q.db.Exec(ctx, query, ids)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (q *Queries) HardDeleteContents(ctx context.Context, ids []string) (int64, error) {
	query := `DELETE FROM filecontent WHERE id = ANY($1::uuid[])`
	res, err := q.db.Exec(ctx, query, ids)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}
