package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/raselkhaanlab/accounts/internal/common"
	"github.com/raselkhaanlab/accounts/internal/dbx"
	"github.com/raselkhaanlab/accounts/internal/server/config"
	"github.com/raselkhaanlab/accounts/internal/server/models"
	sessionsrepo "github.com/raselkhaanlab/accounts/internal/server/repositories/sessions"
	usersrepo "github.com/raselkhaanlab/accounts/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stand-in for the users and sessions tables. It
// keeps the store-level guarantees the services rely on: case-insensitive
// unique email, set-based bulk updates, compare-and-swap rotation and
// cascading session deletes.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	sessions map[string]*models.Session
	err      error
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*models.User{}, sessions: map[string]*models.Session{}}
}

func (s *memStore) user(id string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	c := *u
	return &c
}

type memUsers struct{ s *memStore }

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return nil, r.s.err
	}
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, common.ErrorAlreadyExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	c := *u
	r.s.users[u.ID] = &c
	return u, nil
}

func (r *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return nil, r.s.err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return nil, r.s.err
	}
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) List(_ context.Context, offset, limit int) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return nil, r.s.err
	}
	all := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		c := *u
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].RegistrationDate.Equal(all[j].RegistrationDate) {
			return all[i].ID < all[j].ID
		}
		return all[i].RegistrationDate.Before(all[j].RegistrationDate)
	})
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memUsers) Count(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return 0, r.s.err
	}
	return int64(len(r.s.users)), nil
}

func (r *memUsers) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.users[id]
	return ok, r.s.err
}

func (r *memUsers) UpdateStatus(_ context.Context, ids []string, status models.Status) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return 0, r.s.err
	}
	var n int64
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			u.Status = status
			n++
		}
	}
	return n, nil
}

func (r *memUsers) Delete(_ context.Context, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return 0, r.s.err
	}
	var n int64
	for _, id := range ids {
		if _, ok := r.s.users[id]; ok {
			delete(r.s.users, id)
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *memUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return r.s.err
	}
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *memUsers) UpdatePassword(_ context.Context, id string, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return r.s.err
	}
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

type memSessions struct{ s *memStore }

func (r *memSessions) Register(_ context.Context, s *models.Session) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return 0, r.s.err
	}
	gen := int64(1)
	if prev, ok := r.s.sessions[s.UserID]; ok {
		gen = prev.Generation + 1
	}
	c := *s
	c.Generation = gen
	c.RevokedAt = nil
	r.s.sessions[s.UserID] = &c
	s.Generation = gen
	return gen, nil
}

func (r *memSessions) Rotate(_ context.Context, userID, oldHash, newHash string, issuedAt, expiresAt time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return 0, r.s.err
	}
	cur, ok := r.s.sessions[userID]
	if !ok || cur.TokenHash != oldHash || !cur.Active(issuedAt) {
		return 0, common.ErrorNotFound
	}
	cur.TokenHash = newHash
	cur.Generation++
	cur.IssuedAt = issuedAt
	cur.ExpiresAt = expiresAt
	return cur.Generation, nil
}

func (r *memSessions) Revoke(_ context.Context, userID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return r.s.err
	}
	if cur, ok := r.s.sessions[userID]; ok && cur.RevokedAt == nil {
		cur.RevokedAt = &at
	}
	return nil
}

func (r *memSessions) RevokeToken(_ context.Context, userID, hash string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.err != nil {
		return r.s.err
	}
	cur, ok := r.s.sessions[userID]
	if !ok || cur.TokenHash != hash || !cur.Active(at) {
		return common.ErrorNotFound
	}
	cur.RevokedAt = &at
	return nil
}

func (r *memSessions) Find(_ context.Context, userID string) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.sessions[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *cur
	return &c, nil
}

type fakeRepoManager struct {
	store *memStore
	users usersrepo.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository {
	if m.users != nil {
		return m.users
	}
	return &memUsers{s: m.store}
}

func (m *fakeRepoManager) Sessions(dbx.DBTX) sessionsrepo.Repository {
	return &memSessions{s: m.store}
}

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:            "access-secret",
		RefreshTokenSecret:           "refresh-secret",
		AccessTokenValidityDuration:  time.Minute,
		RefreshTokenValidityDuration: time.Hour,
		BcryptCost:                   4,
	}
}

type fixture struct {
	store *memStore
	rm    *fakeRepoManager
	db    *sql.DB
	mock  sqlmock.Sqlmock
	users *UserService
	admin *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := newMemStore()
	rm := &fakeRepoManager{store: store}

	us, err := NewUserService(db, rm, testConfig(), nil)
	require.NoError(t, err)

	return &fixture{
		store: store,
		rm:    rm,
		db:    db,
		mock:  mock,
		users: us,
		admin: NewAdminService(db, rm, nil),
	}
}

// expectTx registers a committed transaction on the mock database.
func (f *fixture) expectTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func (f *fixture) register(t *testing.T, name, email, password string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), name, email, password, models.SourceEmail)
	require.NoError(t, err)
	return u
}

func (f *fixture) login(t *testing.T, email, password string) *LoginResult {
	t.Helper()
	f.expectTx()
	res, err := f.users.Login(context.Background(), email, password)
	require.NoError(t, err)
	return res
}
