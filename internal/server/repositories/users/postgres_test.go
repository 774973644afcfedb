package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/raselkhaanlab/accounts/internal/common"
	"github.com/raselkhaanlab/accounts/internal/server/models"
)

var userCols = []string{"id", "name", "email", "password_hash", "status", "source", "last_login", "registration_date"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*name,\s*email,\s*password_hash,\s*status,\s*source,\s*registration_date\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*$`

	mock.ExpectExec(q).
		WithArgs(sqlmock.AnyArg(), "Alice", "alice@x.com", "hash", "active", "email", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{Name: "Alice", Email: "alice@x.com", PasswordHash: "hash", Status: models.StatusActive, Source: models.SourceEmail}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !models.ValidID(got.ID) {
		t.Fatalf("expected generated uuid, got %q", got.ID)
	}
	if got.RegistrationDate.IsZero() {
		t.Fatalf("registration date must default to now")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_ExternalAccountStoresNullHash(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WithArgs(sqlmock.AnyArg(), "Ext", "ext@x.com", nil, "active", "external", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{Name: "Ext", Email: "ext@x.com", Status: models.StatusActive, Source: models.SourceExternal}
	if _, err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: EmailConstraint})

	_, err := repo.Create(context.Background(), &models.User{Email: "a@x.com"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a@x.com"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)$`

	reg := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	last := reg.Add(time.Hour)
	rows := sqlmock.NewRows(userCols).
		AddRow("u-1", "Alice", "alice@x.com", "hash", "blocked", "email", last, reg)
	mock.ExpectQuery(q).WithArgs("ALICE@x.com").WillReturnRows(rows)

	got, err := repo.FindByEmail(context.Background(), "ALICE@x.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.PasswordHash != "hash" || got.Status != models.StatusBlocked {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(last) || !got.RegistrationDate.Equal(reg) {
		t.Fatalf("unexpected timestamps: %+v", got)
	}
}

func TestFindByID_NullableColumns(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userCols).
		AddRow("u-2", "Ext", "ext@x.com", nil, "active", "external", nil, time.Now())
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-2").WillReturnRows(rows)

	got, err := repo.FindByID(context.Background(), "u-2")
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if got.HasPassword() || got.LastLogin != nil || got.Source != models.SourceExternal {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+ORDER\s+BY\s+registration_date,\s*id\s+LIMIT\s+\$1\s+OFFSET\s+\$2\s*$`

	rows := sqlmock.NewRows(userCols).
		AddRow("u-1", "A", "a@x.com", "h", "active", "email", nil, time.Now()).
		AddRow("u-2", "B", "b@x.com", nil, "active", "external", nil, time.Now())
	mock.ExpectQuery(q).WithArgs(10, 10).WillReturnRows(rows)

	got, err := repo.List(context.Background(), 10, 10)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "u-1" || got[1].ID != "u-2" {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestList_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userCols).
		AddRow("u-1", "A", "a@x.com", "h", "active", "email", nil, time.Now()).
		RowError(0, errors.New("broken row"))
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+ORDER`).WillReturnRows(rows)

	if _, err := repo.List(context.Background(), 0, 10); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCountAndExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+COUNT\(\*\)\s+FROM\s+users$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(25)))
	mock.ExpectQuery(`^SELECT\s+EXISTS\s+\(SELECT\s+1\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\)$`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	n, err := repo.Count(context.Background())
	if err != nil || n != 25 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	ok, err := repo.Exists(context.Background(), "u-1")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
}

func TestUpdateStatus_SingleStatementReturnsMatched(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^UPDATE\s+users\s+SET\s+status\s*=\s*\$1\s+WHERE\s+id\s+IN\s+\(\$2,\s*\$3\)$`

	mock.ExpectExec(q).
		WithArgs("blocked", "u-1", "u-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.UpdateStatus(context.Background(), []string{"u-1", "u-2"}, models.StatusBlocked)
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if n != 1 {
		t.Fatalf("matched = %d, want 1", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateStatus_EmptyIsNoop(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	n, err := repo.UpdateStatus(context.Background(), nil, models.StatusBlocked)
	if err != nil || n != 0 {
		t.Fatalf("UpdateStatus(nil) = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statement expected: %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+users\s+WHERE\s+id\s+IN\s+\(\$1,\s*\$2,\s*\$3\)$`).
		WithArgs("a", "b", "c").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.Delete(context.Background(), []string{"a", "b", "c"})
	if err != nil || n != 3 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
}

func TestDelete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+users`).WillReturnError(errors.New("db err"))

	_, err := repo.Delete(context.Background(), []string{"a"})
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestTouchLastLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	q := `^UPDATE\s+users\s+SET\s+last_login\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2$`
	mock.ExpectExec(q).WithArgs(at, "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(at, "ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.TouchLastLogin(context.Background(), "u-1", at); err != nil {
		t.Fatalf("TouchLastLogin error: %v", err)
	}
	if err := repo.TouchLastLogin(context.Background(), "ghost", at); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2$`
	mock.ExpectExec(q).WithArgs("new-hash", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("new-hash", "u-1").WillReturnError(errors.New("db err"))

	if err := repo.UpdatePassword(context.Background(), "u-1", "new-hash"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
	if err := repo.UpdatePassword(context.Background(), "u-1", "new-hash"); err == nil {
		t.Fatalf("expected error")
	}
}
