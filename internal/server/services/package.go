// Package services contains the orchestration layer: the lifecycle
// service for packages, the user/auth service, and the delivery-proof
// service. Services check policy first, then touch storage, then append
// to the audit trail.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/cryptox"
	"github.com/mvoronin/parceltrack/internal/logging"
	"github.com/mvoronin/parceltrack/internal/server/models"
	"github.com/mvoronin/parceltrack/internal/server/policy"
	"github.com/mvoronin/parceltrack/internal/server/repositories/audit"
	"github.com/mvoronin/parceltrack/internal/server/repositories/packages"
	"github.com/mvoronin/parceltrack/internal/server/repositories/users"
)

// PackageService orchestrates create / decrypt / update-status. It is
// stateless between calls; every operation runs load -> policy check ->
// mutate -> audit append. Per-package serialization of status updates is
// the record store's job.
type PackageService struct {
	packages packages.Repository
	audit    audit.Repository
	users    users.Repository
	cipher   *cryptox.Cipher
	logger   logging.Logger
}

func NewPackageService(pr packages.Repository, ar audit.Repository, ur users.Repository,
	cipher *cryptox.Cipher, logger logging.Logger) *PackageService {
	return &PackageService{
		packages: pr,
		audit:    ar,
		users:    ur,
		cipher:   cipher,
		logger:   logger.With("module", "package_service"),
	}
}

// CreatePackage registers a new delivery. Admin only. The owner must
// resolve to a customer and every assigned agent to an agent; the PII is
// sealed before anything is persisted and the plaintext never leaves this
// call. Returns the stored package with its encrypted payload.
//
// If the record is persisted but the audit append fails, the package is
// still returned together with an error wrapping common.ErrAuditGap.
func (s *PackageService) CreatePackage(ctx context.Context, actor models.Actor,
	ownerID string, agentIDs []string, pii *models.PII) (*models.Package, error) {

	if !policy.CanCreate(actor) {
		return nil, common.ErrForbidden
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown owner", common.ErrValidation)
		}
		return nil, err
	}
	if owner.Role != models.RoleCustomer {
		return nil, fmt.Errorf("%w: owner must be a customer", common.ErrValidation)
	}

	for _, agentID := range agentIDs {
		agent, err := s.users.GetByID(ctx, agentID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown agent %s", common.ErrValidation, agentID)
			}
			return nil, err
		}
		if agent.Role != models.RoleAgent {
			return nil, fmt.Errorf("%w: %s is not an agent", common.ErrValidation, agentID)
		}
	}

	blob, err := s.cipher.EncryptJSON(pii)
	if err != nil {
		return nil, err
	}

	pkg, err := s.packages.Create(ctx, &models.Package{
		Owner:            ownerID,
		AssignedAgents:   agentIDs,
		EncryptedPayload: blob,
	})
	if err != nil {
		return nil, err
	}

	if err := s.appendAudit(ctx, actor, pkg.ID, models.ActionCreated, ""); err != nil {
		s.logger.Error(ctx, "audit append failed after create", "package_id", pkg.ID)
		return pkg, fmt.Errorf("%w: %v", common.ErrAuditGap, err)
	}

	s.logger.Info(ctx, "package created", "package_id", pkg.ID, "actor_id", actor.ID)
	return pkg, nil
}

// DecryptPackage returns the package PII to a permitted actor. Every
// attempt is audited: denials with detail "denied" (the attempt still
// fails with common.ErrForbidden), grants with "granted". The plaintext
// is a transient value for the caller only; it is never persisted or
// logged.
func (s *PackageService) DecryptPackage(ctx context.Context, actor models.Actor, packageID string) (*models.PII, error) {

	pkg, err := s.packages.Get(ctx, packageID)
	if err != nil {
		return nil, err
	}

	if !policy.CanDecrypt(actor, pkg) {
		if err := s.appendAudit(ctx, actor, pkg.ID, models.ActionDecryptAttempted, models.DetailDenied); err != nil {
			// The denial stands either way; the missing trail entry is
			// only logged because the caller already gets Forbidden.
			s.logger.Error(ctx, "audit append failed for denied decrypt", "package_id", pkg.ID)
		}
		s.logger.Warn(ctx, "decrypt denied", "package_id", pkg.ID, "actor_id", actor.ID)
		return nil, common.ErrForbidden
	}

	pii := &models.PII{}
	if err := s.cipher.DecryptJSON(pkg.EncryptedPayload, pii); err != nil {
		return nil, err
	}

	if err := s.appendAudit(ctx, actor, pkg.ID, models.ActionDecryptAttempted, models.DetailGranted); err != nil {
		s.logger.Error(ctx, "audit append failed after decrypt", "package_id", pkg.ID)
		return pii, fmt.Errorf("%w: %v", common.ErrAuditGap, err)
	}

	return pii, nil
}

// UpdateStatus advances the package state machine. The record store
// re-evaluates the transition under its per-record lock, so racing
// updates cannot both pass. An invalid transition propagates unchanged
// and writes no audit entry.
func (s *PackageService) UpdateStatus(ctx context.Context, actor models.Actor,
	packageID string, next models.Status) (*models.Package, error) {

	pkg, err := s.packages.Get(ctx, packageID)
	if err != nil {
		return nil, err
	}

	if !policy.CanUpdateStatus(actor, pkg) {
		return nil, common.ErrForbidden
	}

	updated, err := s.packages.SetStatus(ctx, packageID, next)
	if err != nil {
		return nil, err
	}

	if err := s.appendAudit(ctx, actor, pkg.ID, models.ActionStatusChanged, string(next)); err != nil {
		s.logger.Error(ctx, "audit append failed after status change", "package_id", pkg.ID)
		return updated, fmt.Errorf("%w: %v", common.ErrAuditGap, err)
	}

	s.logger.Info(ctx, "status changed", "package_id", pkg.ID, "status", string(next), "actor_id", actor.ID)
	return updated, nil
}

// GetPackage returns the stored record (payload still encrypted) for
// actors with a relationship to it: admins, the owner, or an assigned
// agent.
func (s *PackageService) GetPackage(ctx context.Context, actor models.Actor, packageID string) (*models.Package, error) {

	pkg, err := s.packages.Get(ctx, packageID)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleAdmin ||
		(actor.Role == models.RoleCustomer && pkg.Owner == actor.ID) ||
		(actor.Role == models.RoleAgent && pkg.IsAssigned(actor.ID)) {
		return pkg, nil
	}

	return nil, common.ErrForbidden
}

// ListByOwner returns a customer's packages: admins for any owner,
// customers only for themselves.
func (s *PackageService) ListByOwner(ctx context.Context, actor models.Actor, ownerID string) ([]*models.Package, error) {
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleCustomer:
		if actor.ID != ownerID {
			return nil, common.ErrForbidden
		}
	default:
		return nil, common.ErrForbidden
	}
	return s.packages.ListByOwner(ctx, ownerID)
}

// ListByAssignedAgent returns an agent's packages: admins for any agent,
// agents only for themselves.
func (s *PackageService) ListByAssignedAgent(ctx context.Context, actor models.Actor, agentID string) ([]*models.Package, error) {
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAgent:
		if actor.ID != agentID {
			return nil, common.ErrForbidden
		}
	default:
		return nil, common.ErrForbidden
	}
	return s.packages.ListByAssignedAgent(ctx, agentID)
}

// AuditByPackage returns a package's trail. The trail itself is
// storage-agnostic, so the role gating lives here: admins unrestricted,
// agents only for assigned packages.
func (s *PackageService) AuditByPackage(ctx context.Context, actor models.Actor, packageID string) ([]*models.AuditEntry, error) {

	pkg, err := s.packages.Get(ctx, packageID)
	if err != nil {
		return nil, err
	}

	if !policy.CanReadAudit(actor, pkg) {
		return nil, common.ErrForbidden
	}

	return s.audit.QueryByPackage(ctx, packageID)
}

// AuditByAgent returns the entries an agent wrote: admins for any agent,
// agents only for themselves.
func (s *PackageService) AuditByAgent(ctx context.Context, actor models.Actor, agentID string) ([]*models.AuditEntry, error) {
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleAgent:
		if actor.ID != agentID {
			return nil, common.ErrForbidden
		}
	default:
		return nil, common.ErrForbidden
	}
	return s.audit.QueryByAgent(ctx, agentID)
}

func (s *PackageService) appendAudit(ctx context.Context, actor models.Actor,
	packageID string, action models.AuditAction, detail string) error {
	return s.audit.Append(ctx, &models.AuditEntry{
		ID:        uuid.NewString(),
		PackageID: packageID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Action:    action,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}
