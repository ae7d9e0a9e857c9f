// Package repomanager wires repository constructors to a shared database
// handle and runs goose migrations at startup.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/mvoronin/parceltrack/internal/server/repositories/audit"
	"github.com/mvoronin/parceltrack/internal/server/repositories/packages"
	"github.com/mvoronin/parceltrack/internal/server/repositories/proofs"
	"github.com/mvoronin/parceltrack/internal/server/repositories/refreshtokens"
	"github.com/mvoronin/parceltrack/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() *sql.DB
	Close() error
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	Packages() packages.Repository
	Audit() audit.Repository
	Proofs() proofs.Repository
}
