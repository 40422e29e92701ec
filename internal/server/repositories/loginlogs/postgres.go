package loginlogs

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/insightpulse/internal/dbx"
	"github.com/dmitrijs2005/insightpulse/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Record(ctx context.Context, log models.LoginLog) error {
	query :=
		`INSERT INTO login_logs (id, user_id, email, ts, success, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		log.ID, log.UserID, log.Email, log.Timestamp, log.Success, log.IPAddress, log.UserAgent)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]models.LoginLog, error) {
	query := `SELECT id, user_id, email, ts, success, ip_address, user_agent FROM login_logs ORDER BY ts DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	logs := []models.LoginLog{}
	for rows.Next() {
		var l models.LoginLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Email, &l.Timestamp, &l.Success, &l.IPAddress, &l.UserAgent); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return logs, nil
}
