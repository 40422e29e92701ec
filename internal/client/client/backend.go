package client

import (
	"context"

	"github.com/dmitrijs2005/insightpulse/internal/models"
)

type Backend interface {
	Ping(ctx context.Context) error
	LookupUsers(ctx context.Context, q models.Query) (models.UserPage, error)
	CreateUser(ctx context.Context, rec models.UserRecord) (models.UserRecord, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.UserRecord, error)
	DeleteUser(ctx context.Context, id int64) error
	SendEmail(ctx context.Context, email models.Email) error
	RecordLogin(ctx context.Context, log models.LoginLog) error
	ListLogins(ctx context.Context, limit int) ([]models.LoginLog, error)
}
