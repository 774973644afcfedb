// Package services contains server-side business logic. This file implements
// UserService: registration, credential checks, the refresh-token lifecycle
// and the account status gate.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raselkhaanlab/accounts/internal/common"
	"github.com/raselkhaanlab/accounts/internal/dbx"
	"github.com/raselkhaanlab/accounts/internal/logging"
	"github.com/raselkhaanlab/accounts/internal/server/auth"
	"github.com/raselkhaanlab/accounts/internal/server/config"
	"github.com/raselkhaanlab/accounts/internal/server/models"
	"github.com/raselkhaanlab/accounts/internal/server/repositories/repomanager"
)

// Password length bounds, in bytes, for register and reset. bcrypt refuses
// anything longer than MaxPasswordLength.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	User   *models.User
	Tokens *auth.TokenPair
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	hasher      *auth.Hasher
	log         logging.Logger
	now         func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) (*UserService, error) {
	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &UserService{
		db:          db,
		repomanager: m,
		issuer: auth.NewIssuer(
			[]byte(cfg.AccessTokenSecret), []byte(cfg.RefreshTokenSecret),
			cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration,
		),
		hasher: hasher,
		log:    log,
		now:    time.Now,
	}, nil
}

func (s *UserService) logger(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx, s.log)
}

// Register creates an active account. Email-sourced accounts need a password,
// external ones are stored without a hash.
func (s *UserService) Register(ctx context.Context, name, email, password string, source models.Source) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = models.NormalizeEmail(email)
	if source == "" {
		source = models.SourceEmail
	}

	switch {
	case name == "":
		return nil, common.NewError(common.KindInvalidInput, "name is required")
	case email == "":
		return nil, common.NewError(common.KindInvalidInput, "email is required")
	case !models.ValidSource(source):
		return nil, common.NewError(common.KindInvalidInput, fmt.Sprintf("unknown source %q", source))
	case source == models.SourceEmail:
		if err := checkPasswordLength(password); err != nil {
			return nil, err
		}
	}

	repo := s.repomanager.Users(s.db)

	// fast path; the unique index below is what actually guarantees uniqueness
	if _, err := repo.FindByEmail(ctx, email); err == nil {
		return nil, common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.WrapError(common.KindStoreFailure, "internal error", err)
	}

	user := &models.User{
		Name:             name,
		Email:            email,
		Status:           models.StatusActive,
		Source:           source,
		RegistrationDate: s.now().UTC(),
	}
	if source == models.SourceEmail {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return nil, common.WrapError(common.KindCreateFailed, "unable to create user", err)
		}
		user.PasswordHash = hash
	}

	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, common.WrapError(common.KindCreateFailed, "unable to create user", err)
	}

	s.logger(ctx).Info(ctx, "user registered", "user_id", u.ID, "source", string(u.Source))
	return u, nil
}

// Login verifies credentials and starts a new session, replacing any
// previous refresh token of the user. Unknown email, external account and
// wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = models.NormalizeEmail(email)

	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, common.WrapError(common.KindStoreFailure, "internal error", err)
		}
		user = &models.User{}
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		s.logger(ctx).Warn(ctx, "login failed", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}
	if !user.Active() {
		s.logger(ctx).Warn(ctx, "login on blocked account", "user_id", user.ID)
		return nil, common.ErrAccountBlocked
	}

	pair, err := s.issuer.IssuePair(user.ID)
	if err != nil {
		return nil, common.WrapError(common.KindStoreFailure, "internal error", err)
	}

	now := s.now().UTC()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).TouchLastLogin(ctx, user.ID, now); err != nil {
			return err
		}
		_, err := s.repomanager.Sessions(tx).Register(ctx, &models.Session{
			UserID:    user.ID,
			TokenHash: auth.HashToken(pair.RefreshToken),
			IssuedAt:  now,
			ExpiresAt: pair.RefreshExpiresAt,
		})
		return err
	})
	if err != nil {
		return nil, common.WrapError(common.KindStoreFailure, "internal error", err)
	}

	user.LastLogin = &now
	s.logger(ctx).Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{User: user, Tokens: pair}, nil
}

// Logout revokes the session the refresh token belongs to. The token must be
// the user's current one.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return err
	}

	err = s.repomanager.Sessions(s.db).RevokeToken(ctx, claims.Subject, auth.HashToken(refreshToken), s.now().UTC())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrSessionRevoked
		}
		return common.WrapError(common.KindStoreFailure, "internal error", err)
	}

	s.logger(ctx).Info(ctx, "user logged out", "user_id", claims.Subject)
	return nil
}

// Refresh rotates refreshToken: the old token stops working the moment the
// new pair is registered. Replaying an old token, or losing a race against a
// concurrent refresh with the same token, yields SessionRevoked.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	if _, err := s.ActiveUser(ctx, claims.Subject); err != nil {
		return nil, err
	}

	pair, err := s.issuer.IssuePair(claims.Subject)
	if err != nil {
		return nil, common.WrapError(common.KindStoreFailure, "internal error", err)
	}

	_, err = s.repomanager.Sessions(s.db).Rotate(ctx, claims.Subject,
		auth.HashToken(refreshToken), auth.HashToken(pair.RefreshToken),
		s.now().UTC(), pair.RefreshExpiresAt)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger(ctx).Warn(ctx, "stale refresh token presented", "user_id", claims.Subject)
			return nil, common.ErrSessionRevoked
		}
		return nil, common.WrapError(common.KindStoreFailure, "internal error", err)
	}

	return pair, nil
}

// ActiveUser is the account status gate. It always reads the store, so a
// block or delete takes effect on the very next request.
func (s *UserService) ActiveUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.WrapError(common.KindStoreFailure, "internal error", err)
	}
	if !user.Active() {
		return nil, common.ErrAccountBlocked
	}
	return user, nil
}

// Authenticate verifies an access token and applies the status gate.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	userID, err := s.issuer.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}
	return s.ActiveUser(ctx, userID)
}

// ResetPassword sets a new password for an active email account and ends its
// session, so outstanding refresh tokens stop working.
func (s *UserService) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}

	user, err := s.ActiveUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Source != models.SourceEmail {
		return common.NewError(common.KindInvalidInput, "password reset is not available for external accounts")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return common.WrapError(common.KindStoreFailure, "internal error", err)
	}

	now := s.now().UTC()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return s.repomanager.Sessions(tx).Revoke(ctx, user.ID, now)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUserNotFound
		}
		return common.WrapError(common.KindStoreFailure, "internal error", err)
	}

	s.logger(ctx).Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

func checkPasswordLength(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return common.NewError(common.KindInvalidInput,
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case len(password) > MaxPasswordLength:
		return common.NewError(common.KindInvalidInput,
			fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength))
	}
	return nil
}
