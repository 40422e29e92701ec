package loginlogs

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/insightpulse/internal/models"
)

type MemoryRepository struct {
	mu   sync.RWMutex
	logs []models.LoginLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Record(ctx context.Context, log models.LoginLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, limit int) ([]models.LoginLog, error) {
	r.mu.RLock()
	out := make([]models.LoginLog, len(r.logs))
	copy(out, r.logs)
	r.mu.RUnlock()

	// newest first; equal timestamps keep reverse insertion order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
