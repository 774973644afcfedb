package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/raselkhaanlab/accounts/internal/common"
	"github.com/raselkhaanlab/accounts/internal/logging"
	"github.com/raselkhaanlab/accounts/internal/server/models"
	"github.com/raselkhaanlab/accounts/internal/server/repositories/repomanager"
)

// AdminService lists users and applies bulk status changes and deletions.
// Every bulk operation is one set-based statement.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *AdminService {
	if log == nil {
		log = logging.Nop()
	}
	return &AdminService{db: db, repomanager: m, log: log}
}

func (s *AdminService) logger(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx, s.log)
}

// ListUsers returns one page of users ordered by registration date.
// Out-of-range page and limit values are clamped, see models.Paginate.
func (s *AdminService) ListUsers(ctx context.Context, page, limit int) (*models.Page[*models.User], error) {
	page, limit, offset := models.Paginate(page, limit)

	repo := s.repomanager.Users(s.db)

	total, err := repo.Count(ctx)
	if err != nil {
		return nil, common.WrapError(common.KindStoreFailure, "internal error", err)
	}

	var items []*models.User
	if int64(offset) < total {
		items, err = repo.List(ctx, offset, limit)
		if err != nil {
			return nil, common.WrapError(common.KindStoreFailure, "internal error", err)
		}
	}

	p := models.NewPage(items, total, page, limit)
	return &p, nil
}

func (s *AdminService) GetUser(ctx context.Context, id string) (*models.User, error) {
	canonical, err := models.ParseID(id)
	if err != nil {
		return nil, common.NewError(common.KindInvalidInput, fmt.Sprintf("invalid user id %q", id))
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, canonical)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.KindNotFound, "user not found")
		}
		return nil, common.WrapError(common.KindStoreFailure, "internal error", err)
	}
	return user, nil
}

// BulkUpdateStatus sets status on every listed user and returns how many
// matched. Matching users that already had the status count too; only a
// request that matches nobody fails, with NotFound.
func (s *AdminService) BulkUpdateStatus(ctx context.Context, ids []string, status models.Status) (int64, error) {
	ids, err := normalizeIDs(ids)
	if err != nil {
		return 0, err
	}
	if !models.ValidStatus(status) {
		return 0, common.NewError(common.KindInvalidInput, fmt.Sprintf("unknown status %q", status))
	}

	matched, err := s.repomanager.Users(s.db).UpdateStatus(ctx, ids, status)
	if err != nil {
		return 0, common.WrapError(common.KindStoreFailure, "internal error", err)
	}
	if matched == 0 {
		return 0, common.NewError(common.KindNotFound, "no users matched")
	}

	s.logger(ctx).Info(ctx, "bulk status update", "status", string(status), "requested", len(ids), "matched", matched)
	return matched, nil
}

// BulkDelete removes every listed user (their sessions go with them) and
// returns how many were deleted.
func (s *AdminService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	ids, err := normalizeIDs(ids)
	if err != nil {
		return 0, err
	}

	deleted, err := s.repomanager.Users(s.db).Delete(ctx, ids)
	if err != nil {
		return 0, common.WrapError(common.KindStoreFailure, "internal error", err)
	}
	if deleted == 0 {
		return 0, common.NewError(common.KindNotFound, "no users matched")
	}

	s.logger(ctx).Info(ctx, "bulk delete", "requested", len(ids), "deleted", deleted)
	return deleted, nil
}

// normalizeIDs rejects an empty list or any malformed id and returns the
// canonical ids without duplicates, in input order.
func normalizeIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, common.NewError(common.KindInvalidInput, "userIds must be a non-empty list")
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		canonical, err := models.ParseID(id)
		if err != nil {
			return nil, common.NewError(common.KindInvalidInput, fmt.Sprintf("invalid user id %q", id))
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out, nil
}
