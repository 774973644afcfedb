// Package admincli implements the operator command line: listing accounts,
// blocking, unblocking and deleting them in bulk, and creating accounts with
// a password typed at the terminal.
package admincli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raselkhaanlab/accounts/internal/common"
	"github.com/raselkhaanlab/accounts/internal/server/models"
)

// AdminService is the part of services.AdminService the CLI uses.
type AdminService interface {
	ListUsers(ctx context.Context, page, limit int) (*models.Page[*models.User], error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	BulkUpdateStatus(ctx context.Context, ids []string, status models.Status) (int64, error)
	BulkDelete(ctx context.Context, ids []string) (int64, error)
}

// Registrar creates accounts; services.UserService satisfies it.
type Registrar interface {
	Register(ctx context.Context, name, email, password string, source models.Source) (*models.User, error)
}

// ExistenceChecker is satisfied by the users repository.
type ExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type App struct {
	admin  AdminService
	users  Registrar
	exists ExistenceChecker
	out    io.Writer
	stdin  int
}

func NewApp(admin AdminService, users Registrar, exists ExistenceChecker, out io.Writer) *App {
	return &App{
		admin:  admin,
		users:  users,
		exists: exists,
		out:    out,
		stdin:  int(os.Stdin.Fd()),
	}
}

const usage = `usage: admin [config flags] <command> [args]

commands:
  list [page] [limit]      list accounts, oldest first
  show <id>                print one account
  block <id>...            block accounts
  unblock <id>...          unblock accounts
  delete <id>...           delete accounts and their sessions
  create <name> <email>    create an account; the password is prompted for
`

// Run executes one command. An unknown command or wrong arity is reported
// as invalid input together with the usage text.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return usageError("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	case "list":
		return a.list(ctx, rest)
	case "show":
		return a.show(ctx, rest)
	case "block":
		return a.setStatus(ctx, rest, models.StatusBlocked)
	case "unblock":
		return a.setStatus(ctx, rest, models.StatusActive)
	case "delete":
		return a.delete(ctx, rest)
	case "create":
		return a.create(ctx, rest)
	default:
		fmt.Fprint(a.out, usage)
		return usageError(fmt.Sprintf("unknown command %q", cmd))
	}
}

func usageError(msg string) error {
	return common.NewError(common.KindInvalidInput, msg)
}

// SplitArgs separates the leading configuration flags from the command.
// Every config flag takes a value, either as "-d dsn" or "-d=dsn".
func SplitArgs(args []string) (flags, command []string) {
	i := 0
	for i < len(args) {
		arg := args[i]
		if arg == "--" {
			i++
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-h" || arg == "--help" {
			break
		}
		flags = append(flags, arg)
		i++
		if !strings.Contains(arg, "=") && i < len(args) {
			flags = append(flags, args[i])
			i++
		}
	}
	return flags, args[i:]
}
