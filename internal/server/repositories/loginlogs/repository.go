// Package loginlogs stores recorded sign-in attempts.
package loginlogs

import (
	"context"

	"github.com/dmitrijs2005/insightpulse/internal/models"
)

// Repository appends login logs and lists them newest first. A non-positive
// limit lists everything.
type Repository interface {
	Record(ctx context.Context, log models.LoginLog) error
	List(ctx context.Context, limit int) ([]models.LoginLog, error)
}
