package admincli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/raselkhaanlab/accounts/internal/common"
	"github.com/raselkhaanlab/accounts/internal/server/models"
)

func (a *App) list(ctx context.Context, args []string) error {
	if len(args) > 2 {
		return usageError("list takes at most two arguments: [page] [limit]")
	}

	nums := []int{0, 0}
	for i, s := range args {
		n, err := strconv.Atoi(s)
		if err != nil {
			return usageError(fmt.Sprintf("%q is not a number", s))
		}
		nums[i] = n
	}

	page, err := a.admin.ListUsers(ctx, nums[0], nums[1])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSTATUS\tSOURCE\tLAST LOGIN")
	for _, u := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Status, u.Source, formatTime(u.LastLogin))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "page %d of %d, %d user(s) in total\n", page.CurrentPage, page.TotalPages, page.TotalItems)
	return nil
}

func (a *App) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("show takes exactly one id")
	}

	id, err := models.ParseID(args[0])
	if err != nil {
		return common.WrapError(common.KindInvalidInput, fmt.Sprintf("invalid user id %q", args[0]), err)
	}

	ok, err := a.exists.Exists(ctx, id)
	if err != nil {
		return common.WrapError(common.KindStoreFailure, "internal error", err)
	}
	if !ok {
		return common.NewError(common.KindNotFound, fmt.Sprintf("user %s does not exist", id))
	}

	u, err := a.admin.GetUser(ctx, id)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", u.ID)
	fmt.Fprintf(tw, "name:\t%s\n", u.Name)
	fmt.Fprintf(tw, "email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "status:\t%s\n", u.Status)
	fmt.Fprintf(tw, "source:\t%s\n", u.Source)
	fmt.Fprintf(tw, "registered:\t%s\n", formatTime(&u.RegistrationDate))
	fmt.Fprintf(tw, "last login:\t%s\n", formatTime(u.LastLogin))
	return tw.Flush()
}

func (a *App) setStatus(ctx context.Context, ids []string, status models.Status) error {
	if len(ids) == 0 {
		return usageError("at least one id is required")
	}

	n, err := a.admin.BulkUpdateStatus(ctx, ids, status)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: matched %d user(s)\n", status, n)
	return nil
}

func (a *App) delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return usageError("at least one id is required")
	}

	n, err := a.admin.BulkDelete(ctx, ids)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %d user(s)\n", n)
	return nil
}

func (a *App) create(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("create takes a name and an email")
	}

	pw, err := getNewPassword(a.out, a.stdin)
	if err != nil {
		return err
	}
	defer wipe(pw)

	u, err := a.users.Register(ctx, args[0], args[1], string(pw), models.SourceEmail)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created user %s (%s)\n", u.ID, u.Email)
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
