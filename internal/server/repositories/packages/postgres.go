package packages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/dbx"
	"github.com/mvoronin/parceltrack/internal/server/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, pkg *models.Package) (*models.Package, error) {

	if err := pkg.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pkg.ID = uuid.NewString()
	pkg.Status = models.StatusPending
	pkg.CreatedAt = now
	pkg.UpdatedAt = now

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query :=
			`INSERT INTO packages (id, owner_id, encrypted_payload, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 `
		if _, err := tx.ExecContext(ctx, query,
			pkg.ID, pkg.Owner, pkg.EncryptedPayload, string(pkg.Status), pkg.CreatedAt, pkg.UpdatedAt); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		for _, agentID := range pkg.AssignedAgents {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO package_agents (package_id, agent_id) VALUES ($1, $2)`,
				pkg.ID, agentID); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pkg, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Package, error) {
	return r.get(ctx, r.db, id)
}

func (r *PostgresRepository) get(ctx context.Context, db dbx.DBTX, id string) (*models.Package, error) {
	query :=
		`SELECT id, owner_id, encrypted_payload, status, created_at, updated_at FROM packages
		 WHERE id = $1
		 `

	pkg := &models.Package{}
	var status string
	err := db.QueryRowContext(ctx, query, id).Scan(
		&pkg.ID, &pkg.Owner, &pkg.EncryptedPayload, &status, &pkg.CreatedAt, &pkg.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if pkg.Status, err = models.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if pkg.AssignedAgents, err = r.loadAgents(ctx, db, pkg.ID); err != nil {
		return nil, err
	}

	return pkg, nil
}

func (r *PostgresRepository) loadAgents(ctx context.Context, db dbx.DBTX, packageID string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT agent_id FROM package_agents WHERE package_id = $1 ORDER BY agent_id`, packageID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var agents []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		agents = append(agents, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return agents, nil
}

// SetStatus locks the row, re-reads the current status and only then
// evaluates the transition, so concurrent updates against the same
// package serialize on the row lock.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, next models.Status) (*models.Package, error) {

	var updated *models.Package

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var cur string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM packages WHERE id = $1 FOR UPDATE`, id).Scan(&cur)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}

		current, err := models.ParseStatus(cur)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if !current.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, current, next)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE packages SET status = $1, updated_at = $2 WHERE id = $3`,
			string(next), time.Now().UTC(), id); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		updated, err = r.get(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Package, error) {
	query :=
		`SELECT id, owner_id, encrypted_payload, status, created_at, updated_at FROM packages
		 WHERE owner_id = $1
		 ORDER BY created_at DESC
		 `
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) ListByAssignedAgent(ctx context.Context, agentID string) ([]*models.Package, error) {
	query :=
		`SELECT p.id, p.owner_id, p.encrypted_payload, p.status, p.created_at, p.updated_at FROM packages p
		 JOIN package_agents pa ON pa.package_id = p.id
		 WHERE pa.agent_id = $1
		 ORDER BY p.created_at DESC
		 `
	return r.list(ctx, query, agentID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg string) ([]*models.Package, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Package
	for rows.Next() {
		pkg := &models.Package{}
		var status string
		if err := rows.Scan(&pkg.ID, &pkg.Owner, &pkg.EncryptedPayload, &status, &pkg.CreatedAt, &pkg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if pkg.Status, err = models.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	for _, pkg := range result {
		if pkg.AssignedAgents, err = r.loadAgents(ctx, r.db, pkg.ID); err != nil {
			return nil, err
		}
	}

	return result, nil
}
