package database

import (
	"context"
	"errors"
	"time"

	"chmura-plikow/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrDuplicateEmail = errors.New("a user with this email already exists")

const userColumns = `user_id, email, password, user_name, is_active, user_group, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.UserID,
		&user.Email,
		&user.PasswordHash,
		&user.UserName,
		&user.IsActive,
		&user.UserGroup,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type CreateUserParams struct {
	UserID       string
	Email        string
	PasswordHash string
	UserName     string
	UserGroup    string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error) {
	query := `
		INSERT INTO users (user_id, email, password, user_name, user_group, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + userColumns

	user, err := scanUser(q.db.QueryRow(ctx, query, arg.UserID, arg.Email, arg.PasswordHash, arg.UserName, arg.UserGroup, time.Now()))
	if err != nil {
		if isPgErr(err, "23505") {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return user, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`

	user, err := scanUser(q.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

func (q *Queries) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1 AND deleted_at IS NULL`

	user, err := scanUser(q.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

func (q *Queries) UpdateUserPassword(ctx context.Context, userID string, newPasswordHash string) error {
	query := `UPDATE users SET password = $1, updated_at = $2 WHERE user_id = $3`
	_, err := q.db.Exec(ctx, query, newPasswordHash, time.Now(), userID)
	return err
}
