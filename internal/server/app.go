// Package server wires configuration, storage, services and transports
// together and runs the HTTP and gRPC servers until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/raselkhaanlab/accounts/internal/logging"
	"github.com/raselkhaanlab/accounts/internal/server/config"
	"github.com/raselkhaanlab/accounts/internal/server/httpapi"
	"github.com/raselkhaanlab/accounts/internal/server/repositories/repomanager"
	"github.com/raselkhaanlab/accounts/internal/server/services"

	gs "github.com/raselkhaanlab/accounts/internal/server/grpc"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	userService  *services.UserService
	adminService *services.AdminService
}

// NewApp validates c, opens the database, applies migrations and builds the
// services. The caller must Run the app, which closes the database on exit.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	us, err := services.NewUserService(db, rm, c, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("user service init error: %w", err)
	}
	as := services.NewAdminService(db, rm, logger)

	return &App{config: c, logger: logger, db: db, userService: us, adminService: as}, nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, httpapi.Deps{
		Users:    app.userService,
		Admin:    app.adminService,
		DB:       app.db,
		AdminKey: app.config.AdminKey,
		Logger:   app.logger,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server error", "error", err)
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db, app.config.HealthCheckInterval)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server error", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, SIGINT/SIGTERM arrives or one of the
// servers fails; the other one is then stopped too.
func (app *App) Run(ctx context.Context) {

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
