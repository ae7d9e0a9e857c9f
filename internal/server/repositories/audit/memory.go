package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/mvoronin/parceltrack/internal/server/models"
)

// MemoryRepository is an in-memory Repository used by service tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*models.AuditEntry
	nextSeq int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	entry.Seq = r.nextSeq
	clone := *entry
	r.entries = append(r.entries, &clone)
	return nil
}

func (r *MemoryRepository) QueryByPackage(ctx context.Context, packageID string) ([]*models.AuditEntry, error) {
	result := r.filter(func(e *models.AuditEntry) bool { return e.PackageID == packageID })
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.Before(result[j].Timestamp)
		}
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

func (r *MemoryRepository) QueryByAgent(ctx context.Context, agentID string) ([]*models.AuditEntry, error) {
	result := r.filter(func(e *models.AuditEntry) bool { return e.ActorID == agentID })
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].Seq > result[j].Seq
	})
	return result, nil
}

func (r *MemoryRepository) filter(match func(*models.AuditEntry) bool) []*models.AuditEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.AuditEntry
	for _, e := range r.entries {
		if match(e) {
			clone := *e
			result = append(result, &clone)
		}
	}
	return result
}
