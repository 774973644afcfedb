package users

import (
	"context"
	"time"

	"github.com/raselkhaanlab/accounts/internal/server/models"
)

// Repository is the User Record Store. Lookups that find nothing return
// common.ErrorNotFound.
type Repository interface {
	// Create inserts user, assigning an id when empty. A clash on the
	// case-insensitive email index returns common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	// FindByEmail matches regardless of case.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, offset, limit int) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
	Exists(ctx context.Context, id string) (bool, error)

	// UpdateStatus sets status on every listed user in one statement and
	// returns how many rows matched, whether or not their value changed.
	UpdateStatus(ctx context.Context, ids []string, status models.Status) (int64, error)
	// Delete removes every listed user in one statement and returns the
	// number of rows deleted.
	Delete(ctx context.Context, ids []string) (int64, error)

	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id string, hash string) error
}
