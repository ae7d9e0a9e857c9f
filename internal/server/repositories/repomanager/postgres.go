package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mvoronin/parceltrack/internal/server/migrations"
	"github.com/mvoronin/parceltrack/internal/server/repositories/audit"
	"github.com/mvoronin/parceltrack/internal/server/repositories/packages"
	"github.com/mvoronin/parceltrack/internal/server/repositories/proofs"
	"github.com/mvoronin/parceltrack/internal/server/repositories/refreshtokens"
	"github.com/mvoronin/parceltrack/internal/server/repositories/users"
)

type PostgresRepositoryManager struct {
	db            *sql.DB
	users         users.Repository
	refreshTokens refreshtokens.Repository
	packages      packages.Repository
	audit         audit.Repository
	proofs        proofs.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *PostgresRepositoryManager) RefreshTokens() refreshtokens.Repository {
	return m.refreshTokens
}

func (m *PostgresRepositoryManager) Packages() packages.Repository {
	return m.packages
}

func (m *PostgresRepositoryManager) Audit() audit.Repository {
	return m.audit
}

func (m *PostgresRepositoryManager) Proofs() proofs.Repository {
	return m.proofs
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresRepositoryManager(ctx context.Context, dsn string) (RepositoryManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:            db,
		users:         users.NewPostgresRepository(db),
		refreshTokens: refreshtokens.NewPostgresRepository(db),
		packages:      packages.NewPostgresRepository(db),
		audit:         audit.NewPostgresRepository(db),
		proofs:        proofs.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
