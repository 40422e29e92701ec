package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/dmitrijs2005/insightpulse/internal/dbx"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, email, name, role, avatar, password_salt, password_verifier, verification_code, reset_code, verified, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// lookupTx reads the count and the page from one snapshot.
var lookupTx = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// Lookup counts and pages the matching users. Bound to a *sql.DB it opens its
// own read-only transaction; bound to a transaction it reuses it.
func (r *PostgresRepository) Lookup(ctx context.Context, q models.Query) (models.UserPage, error) {
	preds, err := compileFilters(q.Filters)
	if err != nil {
		return models.UserPage{}, err
	}

	var page models.UserPage
	read := func(ctx context.Context, tx dbx.DBTX) error {
		page, err = lookup(ctx, tx, q, preds)
		return err
	}

	if db, ok := r.db.(*sql.DB); ok {
		err = dbx.WithTx(ctx, db, lookupTx, read)
	} else {
		err = read(ctx, r.db)
	}
	if err != nil {
		return models.UserPage{}, err
	}
	return page, nil
}

func lookup(ctx context.Context, db dbx.DBTX, q models.Query, preds []predicate) (models.UserPage, error) {
	where, args := whereClause(preds)

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return models.UserPage{}, fmt.Errorf("db error: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY id`
	if q.PageSize > 0 {
		lo, _ := q.Bounds(total)
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, q.PageSize, lo)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return models.UserPage{}, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	page := models.UserPage{Records: []models.UserRecord{}, Total: total}
	for rows.Next() {
		rec, err := scanUser(rows)
		if err != nil {
			return models.UserPage{}, fmt.Errorf("db error: %w", err)
		}
		page.Records = append(page.Records, *rec)
	}
	if err := rows.Err(); err != nil {
		return models.UserPage{}, fmt.Errorf("db error: %w", err)
	}

	return page, nil
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.UserRecord) (*models.UserRecord, error) {
	query :=
		`INSERT INTO users (email, name, role, avatar, password_salt, password_verifier, verification_code, reset_code, verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`

	out := rec.Clone()
	err := r.db.QueryRowContext(ctx, query,
		rec.Email, rec.Name, string(rec.Role), rec.Avatar, rec.PasswordSalt, rec.PasswordVerifier,
		rec.VerificationCode, rec.ResetCode, rec.Verified,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.UserRecord, error) {
	sets, args := setClause(patch)
	if len(sets) == 0 {
		page, err := r.Lookup(ctx, models.Query{Filters: []models.Filter{{Field: "id", Op: models.OpEqual, Value: models.UserID(id)}}})
		if err != nil {
			return nil, err
		}
		if len(page.Records) == 0 {
			return nil, common.ErrNotFound
		}
		return &page.Records[0], nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`, strings.Join(sets, ", "), len(args), userColumns)

	rec, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.UserRecord, error) {
	rec := &models.UserRecord{}
	var role string
	err := s.Scan(&rec.ID, &rec.Email, &rec.Name, &role, &rec.Avatar, &rec.PasswordSalt, &rec.PasswordVerifier,
		&rec.VerificationCode, &rec.ResetCode, &rec.Verified, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Role = models.Role(role)
	return rec, nil
}

func whereClause(preds []predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	conds := make([]string, len(preds))
	args := make([]any, len(preds))
	for i, p := range preds {
		conds[i] = fmt.Sprintf("%s = $%d", p.column, i+1)
		args[i] = p.arg()
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func setClause(p models.UserPatch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.Email != nil {
		add("email", *p.Email)
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Role != nil {
		add("role", string(*p.Role))
	}
	if p.Avatar != nil {
		add("avatar", *p.Avatar)
	}
	if p.PasswordSalt != nil {
		add("password_salt", p.PasswordSalt)
	}
	if p.PasswordVerifier != nil {
		add("password_verifier", p.PasswordVerifier)
	}
	if p.VerificationCode != nil {
		add("verification_code", *p.VerificationCode)
	}
	if p.ResetCode != nil {
		add("reset_code", *p.ResetCode)
	}
	if p.Verified != nil {
		add("verified", *p.Verified)
	}
	return sets, args
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
