package users

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
	mu    sync.RWMutex
	byID  map[string]*models.User
	byKey map[string]string // username -> id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[string]*models.User),
		byKey: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[user.UserName]; exists {
		return nil, common.ErrValidation
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	clone := *user
	r.byID[user.ID] = &clone
	r.byKey[user.UserName] = user.ID
	return user, nil
}

func (r *MemoryRepository) GetByLogin(ctx context.Context, userName string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[userName]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *r.byID[id]
	return &clone, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *user
	return &clone, nil
}
