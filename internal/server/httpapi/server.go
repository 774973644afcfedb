// Package httpapi exposes the account services over HTTP using echo.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/raselkhaanlab/accounts/internal/logging"
	"github.com/raselkhaanlab/accounts/internal/server/auth"
	"github.com/raselkhaanlab/accounts/internal/server/models"
	"github.com/raselkhaanlab/accounts/internal/server/services"
)

// UserService is the part of services.UserService the handlers use.
type UserService interface {
	Register(ctx context.Context, name, email, password string, source models.Source) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
	ResetPassword(ctx context.Context, userID, newPassword string) error
}

// AdminService is the part of services.AdminService the handlers use.
type AdminService interface {
	ListUsers(ctx context.Context, page, limit int) (*models.Page[*models.User], error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	BulkUpdateStatus(ctx context.Context, ids []string, status models.Status) (int64, error)
	BulkDelete(ctx context.Context, ids []string) (int64, error)
}

// Pinger reports whether the database is reachable; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Users    UserService
	Admin    AdminService
	DB       Pinger
	AdminKey string
	Logger   logging.Logger
}

type Server struct {
	address string
	echo    *echo.Echo
	logger  logging.Logger
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(address string, d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	log := d.Logger
	if log == nil {
		log = logging.Nop()
	}

	e.HTTPErrorHandler = ErrorHandler(log)
	// Recover runs inside RequestLogger and returns the panic as an error.
	e.Use(
		middleware.RequestID(),
		RequestLogger(log),
		middleware.RecoverWithConfig(middleware.RecoverConfig{DisableErrorHandler: true}),
	)

	Register(e, d)

	return &Server{address: address, echo: e, logger: log.With("module", "http_server")}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}
