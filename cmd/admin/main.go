package main

import (
	"context"
	"fmt"
	"os"

	"github.com/raselkhaanlab/accounts/internal/admincli"
	"github.com/raselkhaanlab/accounts/internal/logging"
	"github.com/raselkhaanlab/accounts/internal/server/config"
	"github.com/raselkhaanlab/accounts/internal/server/repositories/repomanager"
	"github.com/raselkhaanlab/accounts/internal/server/services"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	flagArgs, cmdArgs := admincli.SplitArgs(args)

	cfg := config.Load(flagArgs)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	us, err := services.NewUserService(db, rm, cfg, logger)
	if err != nil {
		return err
	}
	as := services.NewAdminService(db, rm, logger)

	app := admincli.NewApp(as, us, rm.Users(db), os.Stdout)
	return app.Run(ctx, cmdArgs)
}
