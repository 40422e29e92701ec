// Package users stores the backend's user collection. Two implementations
// share one contract: an in-memory one for development and tests and a
// PostgreSQL one.
package users

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/dmitrijs2005/insightpulse/internal/models"
)

// Repository is the typed user collection.
//
// Lookup returns the requested page and the total number of matches; the only
// supported filters are equality on "email" and "id". Create rejects a taken
// email with common.ErrDuplicateEmail and assigns ID and CreatedAt. Update and
// Delete return common.ErrNotFound for an unknown id.
type Repository interface {
	Lookup(ctx context.Context, q models.Query) (models.UserPage, error)
	Create(ctx context.Context, rec *models.UserRecord) (*models.UserRecord, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) (*models.UserRecord, error)
	Delete(ctx context.Context, id int64) error
}

// predicate is a validated lookup filter.
type predicate struct {
	column string
	email  string
	id     int64
}

func (p predicate) match(r *models.UserRecord) bool {
	if p.column == "email" {
		return r.Email == p.email
	}
	return r.ID == p.id
}

func (p predicate) arg() any {
	if p.column == "email" {
		return p.email
	}
	return p.id
}

func compileFilters(filters []models.Filter) ([]predicate, error) {
	preds := make([]predicate, 0, len(filters))
	for _, f := range filters {
		if f.Op != models.OpEqual {
			return nil, fmt.Errorf("%w: operator %q", common.ErrInvalidFilter, f.Op)
		}
		switch f.Field {
		case "email":
			preds = append(preds, predicate{column: "email", email: f.Value})
		case "id":
			id, err := strconv.ParseInt(f.Value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: id %q", common.ErrInvalidFilter, f.Value)
			}
			preds = append(preds, predicate{column: "id", id: id})
		default:
			return nil, fmt.Errorf("%w: field %q", common.ErrInvalidFilter, f.Field)
		}
	}
	return preds, nil
}
