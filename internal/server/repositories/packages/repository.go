// Package packages holds the package record store. The store is a pure
// data component: it enforces creation invariants and the status state
// machine, but policy checks and audit writes belong to the lifecycle
// service.
package packages

import (
	"context"

	"github.com/mvoronin/parceltrack/internal/server/models"
)

type Repository interface {
	// Create persists a new package: id, pending status and timestamps
	// are assigned here. Fails with common.ErrValidation if the owner is
	// absent or the assigned-agent set is empty.
	Create(ctx context.Context, pkg *models.Package) (*models.Package, error)

	// Get returns the package or common.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Package, error)

	// SetStatus advances the state machine. The transition is evaluated
	// against the stored status under a per-record lock, so two racing
	// updates cannot both pass the transition check. Illegal edges fail
	// with common.ErrInvalidTransition.
	SetStatus(ctx context.Context, id string, next models.Status) (*models.Package, error)

	// ListByOwner returns the owner's packages, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Package, error)

	// ListByAssignedAgent returns packages the agent is assigned to,
	// newest first.
	ListByAssignedAgent(ctx context.Context, agentID string) ([]*models.Package, error)
}
