package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/raselkhaanlab/accounts/internal/common"
	"github.com/raselkhaanlab/accounts/internal/dbx"
	"github.com/raselkhaanlab/accounts/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx). Rotation relies on the row lock taken by UPDATE: a
// second rotation waiting on the same row re-checks token_hash after the
// first commits and matches nothing.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Register(ctx context.Context, s *models.Session) (int64, error) {
	query :=
		`INSERT INTO sessions (user_id, token_hash, generation, issued_at, expires_at, revoked_at)
		 VALUES ($1, $2, 1, $3, $4, NULL)
		 ON CONFLICT (user_id) DO UPDATE
		 SET token_hash = EXCLUDED.token_hash,
		     generation = sessions.generation + 1,
		     issued_at = EXCLUDED.issued_at,
		     expires_at = EXCLUDED.expires_at,
		     revoked_at = NULL
		 RETURNING generation
		 `

	var gen int64
	if err := r.db.QueryRowContext(ctx, query, s.UserID, s.TokenHash, s.IssuedAt, s.ExpiresAt).Scan(&gen); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	s.Generation = gen
	return gen, nil
}

func (r *PostgresRepository) Rotate(ctx context.Context, userID, oldHash, newHash string, issuedAt, expiresAt time.Time) (int64, error) {
	query :=
		`UPDATE sessions
		 SET token_hash = $3, generation = generation + 1, issued_at = $4, expires_at = $5
		 WHERE user_id = $1 AND token_hash = $2 AND revoked_at IS NULL AND expires_at > $4
		 RETURNING generation
		 `

	var gen int64
	err := r.db.QueryRowContext(ctx, query, userID, oldHash, newHash, issuedAt, expiresAt).Scan(&gen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return gen, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, userID string, at time.Time) error {
	query :=
		`UPDATE sessions SET revoked_at = $2
		 WHERE user_id = $1 AND revoked_at IS NULL
		 `
	if _, err := r.db.ExecContext(ctx, query, userID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RevokeToken(ctx context.Context, userID, hash string, at time.Time) error {
	query :=
		`UPDATE sessions SET revoked_at = $3
		 WHERE user_id = $1 AND token_hash = $2 AND revoked_at IS NULL AND expires_at > $3
		 `

	res, err := r.db.ExecContext(ctx, query, userID, hash, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, userID string) (*models.Session, error) {
	query :=
		`SELECT user_id, token_hash, generation, issued_at, expires_at, revoked_at
		 FROM sessions
		 WHERE user_id = $1
		 `

	s := &models.Session{}
	var revoked sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&s.UserID, &s.TokenHash, &s.Generation, &s.IssuedAt, &s.ExpiresAt, &revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if revoked.Valid {
		t := revoked.Time
		s.RevokedAt = &t
	}
	return s, nil
}
