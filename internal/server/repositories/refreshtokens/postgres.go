package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/server/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, token *models.RefreshToken) error {

	query :=
		`INSERT INTO refresh_tokens (token, user_id, expires_at)
		 VALUES ($1, $2, $3)
		 `

	if _, err := r.db.ExecContext(ctx, query, token.Token, token.UserID, token.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	query :=
		`SELECT token, user_id, expires_at, created_at FROM refresh_tokens
		 WHERE token = $1
		 `

	t := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
