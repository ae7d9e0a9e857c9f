package proofs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/server/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, proof *models.Proof) (*models.Proof, error) {

	proof.ID = uuid.NewString()
	proof.CreatedAt = time.Now().UTC()

	query :=
		`INSERT INTO proofs (id, package_id, agent_id, storage_key, uploaded, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	if _, err := r.db.ExecContext(ctx, query,
		proof.ID, proof.PackageID, proof.AgentID, proof.StorageKey, proof.Uploaded, proof.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return proof, nil
}

func (r *PostgresRepository) GetLatestByPackage(ctx context.Context, packageID string) (*models.Proof, error) {
	query :=
		`SELECT id, package_id, agent_id, storage_key, uploaded, created_at FROM proofs
		 WHERE package_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1
		 `
	return r.getOne(ctx, query, packageID)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Proof, error) {
	query :=
		`SELECT id, package_id, agent_id, storage_key, uploaded, created_at FROM proofs
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.Proof, error) {
	p := &models.Proof{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.PackageID, &p.AgentID, &p.StorageKey, &p.Uploaded, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) MarkUploaded(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE proofs SET uploaded = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
