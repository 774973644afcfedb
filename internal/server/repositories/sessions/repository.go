// Package sessions declares the Session Registry: one refresh-token record
// per user, rotated by compare-and-swap.
package sessions

import (
	"context"
	"time"

	"github.com/raselkhaanlab/accounts/internal/server/models"
)

// Repository stores the hash of each user's current refresh token.
type Repository interface {
	// Register makes s the user's current session, replacing any previous
	// one, and returns the new generation.
	Register(ctx context.Context, s *models.Session) (int64, error)

	// Rotate swaps oldHash for newHash if and only if oldHash is still the
	// user's live token at issuedAt. When it is not (already rotated, revoked
	// or expired) it returns common.ErrorNotFound. Of several concurrent
	// calls with the same oldHash at most one succeeds.
	Rotate(ctx context.Context, userID, oldHash, newHash string, issuedAt, expiresAt time.Time) (int64, error)

	// Revoke invalidates the user's session. Revoking an absent or already
	// revoked session is not an error.
	Revoke(ctx context.Context, userID string, at time.Time) error

	// RevokeToken revokes the session only while hash is still the user's
	// live token at at, in one statement. Otherwise (rotated, revoked or
	// expired) it returns common.ErrorNotFound.
	RevokeToken(ctx context.Context, userID, hash string, at time.Time) error

	// Find returns the user's session row or common.ErrorNotFound.
	Find(ctx context.Context, userID string) (*models.Session, error)
}
