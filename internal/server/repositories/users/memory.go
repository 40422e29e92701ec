package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/dmitrijs2005/insightpulse/internal/models"
)

// MemoryRepository keeps records in insertion order. Nothing survives a
// restart.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []*models.UserRecord
	nextID  int64
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, now: time.Now}
}

func (r *MemoryRepository) Lookup(ctx context.Context, q models.Query) (models.UserPage, error) {
	preds, err := compileFilters(q.Filters)
	if err != nil {
		return models.UserPage{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.UserRecord, 0, len(r.records))
outer:
	for _, rec := range r.records {
		for _, p := range preds {
			if !p.match(rec) {
				continue outer
			}
		}
		matched = append(matched, rec.Clone())
	}

	lo, hi := q.Bounds(len(matched))
	return models.UserPage{Records: matched[lo:hi], Total: len(matched)}, nil
}

func (r *MemoryRepository) Create(ctx context.Context, rec *models.UserRecord) (*models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findEmail(rec.Email) != nil {
		return nil, common.ErrDuplicateEmail
	}

	stored := rec.Clone()
	stored.ID = r.nextID
	stored.CreatedAt = r.now().UTC()
	r.nextID++
	r.records = append(r.records, &stored)

	out := stored.Clone()
	return &out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.find(id)
	if rec == nil {
		return nil, common.ErrNotFound
	}
	if patch.Email != nil && *patch.Email != rec.Email {
		if r.findEmail(*patch.Email) != nil {
			return nil, common.ErrDuplicateEmail
		}
	}

	patch.Apply(rec)
	out := rec.Clone()
	return &out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *MemoryRepository) find(id int64) *models.UserRecord {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (r *MemoryRepository) findEmail(email string) *models.UserRecord {
	for _, rec := range r.records {
		if rec.Email == email {
			return rec
		}
	}
	return nil
}
