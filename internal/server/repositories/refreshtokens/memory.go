package refreshtokens

import (
	"context"
	"sync"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/server/models"
)

// MemoryRepository is an in-memory Repository used by service tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	tokens map[string]*models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]*models.RefreshToken)}
}

func (r *MemoryRepository) Add(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *token
	r.tokens[token.Token] = &clone
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}
