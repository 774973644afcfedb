// Package users provides the PostgreSQL-backed user record store.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raselkhaanlab/accounts/internal/common"
	"github.com/raselkhaanlab/accounts/internal/dbx"
	"github.com/raselkhaanlab/accounts/internal/server/models"
)

// EmailConstraint is the unique index guarding email uniqueness.
const EmailConstraint = "users_email_lower_key"

const userColumns = `id, name, email, password_hash, status, source, last_login, registration_date`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.RegistrationDate.IsZero() {
		user.RegistrationDate = time.Now().UTC()
	}

	query :=
		`INSERT INTO users (id, name, email, password_hash, status, source, registration_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, nullString(user.PasswordHash),
		string(user.Status), string(user.Source), user.RegistrationDate)
	if err != nil {
		if dbx.IsUniqueViolation(err, EmailConstraint) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 ORDER BY registration_date, id
		 LIMIT $1 OFFSET $2
		 `

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, ids []string, status models.Status) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `UPDATE users SET status = $1 WHERE id IN (` + dbx.InClause(2, len(ids)) + `)`

	args := make([]any, 0, len(ids)+1)
	args = append(args, string(status))
	for _, id := range ids {
		args = append(args, id)
	}

	return r.execCount(ctx, query, args...)
}

func (r *PostgresRepository) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `DELETE FROM users WHERE id IN (` + dbx.InClause(1, len(ids)) + `)`

	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	return r.execCount(ctx, query, args...)
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	n, err := r.execCount(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash string) error {
	n, err := r.execCount(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		u         models.User
		hash      sql.NullString
		status    string
		source    string
		lastLogin sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &hash, &status, &source, &lastLogin, &u.RegistrationDate); err != nil {
		return nil, err
	}
	u.PasswordHash = hash.String
	u.Status = models.Status(status)
	u.Source = models.Source(source)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
