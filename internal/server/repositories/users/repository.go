// Package users is the user directory: it resolves identifiers to roles
// and stores credentials. The lifecycle service uses it to validate that
// package owners are customers and assigned agents are agents.
package users

import (
	"context"

	"github.com/mvoronin/parceltrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByLogin(ctx context.Context, userName string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
