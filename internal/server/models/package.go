package models

import (
	"fmt"
	"time"

	"github.com/mvoronin/parceltrack/internal/common"
)

// Package is one delivery. Customer PII lives only inside
// EncryptedPayload; the record store never sees or returns it in the
// clear. Owner and ID are immutable after creation.
type Package struct {
	ID               string
	Owner            string
	AssignedAgents   []string
	EncryptedPayload []byte
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsAssigned reports whether agentID is in the package's assigned set.
func (p *Package) IsAssigned(agentID string) bool {
	for _, id := range p.AssignedAgents {
		if id == agentID {
			return true
		}
	}
	return false
}

// Validate checks the creation invariants: an owner and a non-empty
// assigned-agent set.
func (p *Package) Validate() error {
	if p.Owner == "" {
		return fmt.Errorf("%w: owner is required", common.ErrValidation)
	}
	if len(p.AssignedAgents) == 0 {
		return fmt.Errorf("%w: at least one assigned agent is required", common.ErrValidation)
	}
	for _, id := range p.AssignedAgents {
		if id == "" {
			return fmt.Errorf("%w: empty agent id", common.ErrValidation)
		}
	}
	if len(p.EncryptedPayload) == 0 {
		return fmt.Errorf("%w: empty payload", common.ErrValidation)
	}
	return nil
}

// PII is the customer data sealed into a package payload. It exists in
// memory only between a policy-checked decrypt and the response write,
// and is never persisted or logged in the clear.
type PII struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}
