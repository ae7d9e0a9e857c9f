// Package proofs stores delivery-proof attachment records. The photos
// themselves live in object storage; only the storage key and upload
// state are kept here.
package proofs

import (
	"context"

	"github.com/mvoronin/parceltrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, proof *models.Proof) (*models.Proof, error)

	// GetLatestByPackage returns the newest proof slot for the package,
	// or common.ErrNotFound.
	GetLatestByPackage(ctx context.Context, packageID string) (*models.Proof, error)

	Get(ctx context.Context, id string) (*models.Proof, error)

	MarkUploaded(ctx context.Context, id string) error
}
