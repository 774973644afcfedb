package repomanager

import (
	"context"
	"database/sql"

	"github.com/raselkhaanlab/accounts/internal/dbx"
	"github.com/raselkhaanlab/accounts/internal/server/repositories/sessions"
	"github.com/raselkhaanlab/accounts/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a pool or transaction, so a
// service can run several of them inside one dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
