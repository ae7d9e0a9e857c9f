// Package policy is the single source of truth for who may do what to a
// package. All predicates are pure functions with no I/O; the lifecycle
// service consults them before touching storage or the cipher and never
// re-implements a check inline.
package policy

import "github.com/mvoronin/parceltrack/internal/server/models"

// CanDecrypt reports whether actor may read a package's PII: admins
// always, agents only when assigned to that package. Customers never see
// raw PII, the owner included; they get the separate non-PII tracking
// view instead.
func CanDecrypt(actor models.Actor, pkg *models.Package) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleAgent:
		return pkg.IsAssigned(actor.ID)
	}
	return false
}

// CanUpdateStatus reports whether actor may advance a package's delivery
// status: admins, or agents assigned to that package.
func CanUpdateStatus(actor models.Actor, pkg *models.Package) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleAgent:
		return pkg.IsAssigned(actor.ID)
	}
	return false
}

// CanCreate reports whether actor may register new packages. Admin only.
func CanCreate(actor models.Actor) bool {
	return actor.Role == models.RoleAdmin
}

// CanReadAudit reports whether actor may read a package's audit trail:
// admins unrestricted, agents only for packages in their assigned set.
func CanReadAudit(actor models.Actor, pkg *models.Package) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleAgent:
		return pkg.IsAssigned(actor.ID)
	}
	return false
}
