// Package audit holds the append-only trail of package lifecycle events.
// Entries are immutable facts: the repository exposes no update or delete,
// and read-side access control is the lifecycle service's job so the trail
// itself stays storage-agnostic.
package audit

import (
	"context"

	"github.com/mvoronin/parceltrack/internal/server/models"
)

type Repository interface {
	// Append writes one entry atomically. Fails only with
	// common.ErrStorage; a failed append is never silently retried so
	// entries cannot be duplicated.
	Append(ctx context.Context, entry *models.AuditEntry) error

	// QueryByPackage returns a package's trail in canonical order:
	// timestamp ascending, insertion order breaking ties.
	QueryByPackage(ctx context.Context, packageID string) ([]*models.AuditEntry, error)

	// QueryByAgent returns entries written by the given actor, newest
	// first (read-side convenience ordering).
	QueryByAgent(ctx context.Context, agentID string) ([]*models.AuditEntry, error)
}
