package audit

import (
	"context"
	"database/sql"
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

func (r *PostgresRepository) Append(ctx context.Context, entry *models.AuditEntry) error {

	query :=
		`INSERT INTO audit_entries (id, package_id, actor_id, actor_role, action, detail, ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING seq
		 `

	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.PackageID, entry.ActorID, string(entry.ActorRole),
		string(entry.Action), entry.Detail, entry.Timestamp).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	return nil
}

func (r *PostgresRepository) QueryByPackage(ctx context.Context, packageID string) ([]*models.AuditEntry, error) {
	query :=
		`SELECT seq, id, package_id, actor_id, actor_role, action, detail, ts FROM audit_entries
		 WHERE package_id = $1
		 ORDER BY ts, seq
		 `
	return r.query(ctx, query, packageID)
}

func (r *PostgresRepository) QueryByAgent(ctx context.Context, agentID string) ([]*models.AuditEntry, error) {
	query :=
		`SELECT seq, id, package_id, actor_id, actor_role, action, detail, ts FROM audit_entries
		 WHERE actor_id = $1
		 ORDER BY ts DESC, seq DESC
		 `
	return r.query(ctx, query, agentID)
}

func (r *PostgresRepository) query(ctx context.Context, query string, arg string) ([]*models.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	var result []*models.AuditEntry
	for rows.Next() {
		e := &models.AuditEntry{}
		var role, action string
		if err := rows.Scan(&e.Seq, &e.ID, &e.PackageID, &e.ActorID, &role, &action, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
		}
		if e.ActorRole, err = models.ParseRole(role); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
		}
		e.Action = models.AuditAction(action)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	return result, nil
}
