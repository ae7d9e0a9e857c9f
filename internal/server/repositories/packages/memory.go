package packages

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/server/models"
)

// MemoryRepository is an in-memory Repository used by service tests.
// The single mutex serializes SetStatus, so the transition check always
// sees a consistent prior state.
type MemoryRepository struct {
	mu   sync.RWMutex
	pkgs map[string]*models.Package
	seq  map[string]int64
	next int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		pkgs: make(map[string]*models.Package),
		seq:  make(map[string]int64),
	}
}

func clonePackage(p *models.Package) *models.Package {
	c := *p
	c.AssignedAgents = append([]string(nil), p.AssignedAgents...)
	c.EncryptedPayload = append([]byte(nil), p.EncryptedPayload...)
	return &c
}

func (r *MemoryRepository) Create(ctx context.Context, pkg *models.Package) (*models.Package, error) {

	if err := pkg.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	pkg.ID = uuid.NewString()
	pkg.Status = models.StatusPending
	pkg.CreatedAt = now
	pkg.UpdatedAt = now

	r.next++
	r.seq[pkg.ID] = r.next
	r.pkgs[pkg.ID] = clonePackage(pkg)

	return pkg, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pkg, ok := r.pkgs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clonePackage(pkg), nil
}

func (r *MemoryRepository) SetStatus(ctx context.Context, id string, next models.Status) (*models.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pkg, ok := r.pkgs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if !pkg.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, pkg.Status, next)
	}

	pkg.Status = next
	pkg.UpdatedAt = time.Now().UTC()
	return clonePackage(pkg), nil
}

func (r *MemoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Package, error) {
	return r.list(func(p *models.Package) bool { return p.Owner == ownerID }), nil
}

func (r *MemoryRepository) ListByAssignedAgent(ctx context.Context, agentID string) ([]*models.Package, error) {
	return r.list(func(p *models.Package) bool { return p.IsAssigned(agentID) }), nil
}

func (r *MemoryRepository) list(match func(*models.Package) bool) []*models.Package {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Package
	for _, p := range r.pkgs {
		if match(p) {
			result = append(result, clonePackage(p))
		}
	}

	// Newest first; insertion order breaks equal timestamps.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return r.seq[result[i].ID] > r.seq[result[j].ID]
	})

	return result
}
