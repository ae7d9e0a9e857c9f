// Package refreshtokens stores the opaque refresh tokens backing token
// rotation.
package refreshtokens

import (
	"context"

	"github.com/mvoronin/parceltrack/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, token *models.RefreshToken) error
	Get(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}
