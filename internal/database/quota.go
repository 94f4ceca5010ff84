package database

import (
	"context"
	"errors"
	"time"

	"chmura-plikow/internal/models"

	"github.com/jackc/pgx/v5"
)

const quotaColumns = `user_id, upload_limit, upload_used, online_edit_limit, online_edit_used, created_at, updated_at`

func scanQuota(row pgx.Row) (*models.QuotaLedger, error) {
	var ledger models.QuotaLedger
	err := row.Scan(
		&ledger.UserID,
		&ledger.UploadLimit,
		&ledger.UploadUsed,
		&ledger.OnlineEditLimit,
		&ledger.OnlineEditUsed,
		&ledger.CreatedAt,
		&ledger.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

// CreateQuota zakłada wiersz licznika z domyślnymi limitami ze schematu.
// Wywoływane w tej samej transakcji co utworzenie konta.
func (q *Queries) CreateQuota(ctx context.Context, userID string) (*models.QuotaLedger, error) {
	query := `INSERT INTO user_storage_quota (user_id) VALUES ($1) RETURNING ` + quotaColumns
	return scanQuota(q.db.QueryRow(ctx, query, userID))
}

func (q *Queries) GetQuota(ctx context.Context, userID string) (*models.QuotaLedger, error) {
	query := `SELECT ` + quotaColumns + ` FROM user_storage_quota WHERE user_id = $1`

	ledger, err := scanQuota(q.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return ledger, nil
}

// GetQuotaForUpdate blokuje wiersz licznika na czas transakcji — każda
// korekta zużycia jest współtransakcyjna z zapisem metadanych, który ją
// wymusza.
func (q *Queries) GetQuotaForUpdate(ctx context.Context, userID string) (*models.QuotaLedger, error) {
	query := `SELECT ` + quotaColumns + ` FROM user_storage_quota WHERE user_id = $1 FOR UPDATE`

	ledger, err := scanQuota(q.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return ledger, nil
}

func (q *Queries) UpdateQuotaUsage(ctx context.Context, ledger *models.QuotaLedger) error {
	query := `
		UPDATE user_storage_quota
		SET upload_used = $1, online_edit_used = $2, updated_at = $3
		WHERE user_id = $4
	`
	_, err := q.db.Exec(ctx, query, ledger.UploadUsed, ledger.OnlineEditUsed, time.Now(), ledger.UserID)
	return err
}

func (q *Queries) UpdateQuotaLimits(ctx context.Context, userID string, uploadLimit *string, onlineEditLimit *string) error {
	query := `
		UPDATE user_storage_quota
		SET upload_limit = COALESCE($1, upload_limit),
		    online_edit_limit = COALESCE($2, online_edit_limit),
		    updated_at = $3
		WHERE user_id = $4
	`
	_, err := q.db.Exec(ctx, query, uploadLimit, onlineEditLimit, time.Now(), userID)
	return err
}
