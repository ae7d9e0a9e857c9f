// Package models defines the server-side domain entities: users and roles,
// packages with their status state machine, audit entries and delivery
// proofs.
package models

import (
	"fmt"

	"github.com/mvoronin/parceltrack/internal/common"
)

// Role is the closed set of actor roles. Role checks live in the policy
// package; nothing else compares role strings directly.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

// ParseRole validates a role string coming from storage or a token claim.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleAgent, RoleCustomer:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", common.ErrValidation, s)
}

// Actor is an authenticated caller: a user id plus the role it held when
// the access token was issued.
type Actor struct {
	ID   string
	Role Role
}
