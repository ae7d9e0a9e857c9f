package proofs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/server/models"
)

// MemoryRepository is an in-memory Repository used by service tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	proofs map[string]*models.Proof
	order  []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{proofs: make(map[string]*models.Proof)}
}

func (r *MemoryRepository) Create(ctx context.Context, proof *models.Proof) (*models.Proof, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	proof.ID = uuid.NewString()
	proof.CreatedAt = time.Now().UTC()
	clone := *proof
	r.proofs[proof.ID] = &clone
	r.order = append(r.order, proof.ID)
	return proof, nil
}

func (r *MemoryRepository) GetLatestByPackage(ctx context.Context, packageID string) (*models.Proof, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		if p := r.proofs[r.order[i]]; p.PackageID == packageID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Proof, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.proofs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *MemoryRepository) MarkUploaded(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.proofs[id]
	if !ok {
		return common.ErrNotFound
	}
	p.Uploaded = true
	return nil
}
