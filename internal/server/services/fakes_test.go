package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/shortener/internal/common"
	"github.com/dmitrijs2005/shortener/internal/dbx"
	"github.com/dmitrijs2005/shortener/internal/server/models"
	urlsrepo "github.com/dmitrijs2005/shortener/internal/server/repositories/urls"
	usersrepo "github.com/dmitrijs2005/shortener/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// fakeUsersRepo keeps users in memory.
type fakeUsersRepo struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	nextID int64

	createErr error
	getErr    error
	updateErr error
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo {
	r := &fakeUsersRepo{users: map[int64]*models.User{}, nextID: 100}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.users {
		if existing.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeUsersRepo) GetUserByName(_ context.Context, name string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.users {
		if u.UserName == name {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *fakeUsersRepo) UpdatePassword(_ context.Context, id int64, hashed string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.HashedPassword = hashed
	return nil
}

func (r *fakeUsersRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

// fakeURLsRepo keeps links in memory.
type fakeURLsRepo struct {
	mu      sync.Mutex
	byShort map[string]*models.ShortURL
	creates []string

	createErr error
}

func newFakeURLsRepo(urls ...*models.ShortURL) *fakeURLsRepo {
	r := &fakeURLsRepo{byShort: map[string]*models.ShortURL{}}
	for _, u := range urls {
		r.byShort[u.Short] = u
	}
	return r
}

func (r *fakeURLsRepo) Create(_ context.Context, u *models.ShortURL) (*models.ShortURL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates = append(r.creates, u.Short)
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, taken := r.byShort[u.Short]; taken {
		return nil, common.ErrorAlreadyExists
	}
	u.ID = int64(len(r.byShort) + 1)
	r.byShort[u.Short] = u
	return u, nil
}

func (r *fakeURLsRepo) GetByShort(_ context.Context, short string) (*models.ShortURL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byShort[short]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *fakeURLsRepo) IncrementClicks(_ context.Context, short string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byShort[short]
	if !ok {
		return 0, common.ErrorNotFound
	}
	u.Clicks++
	return u.Clicks, nil
}

func (r *fakeURLsRepo) Delete(_ context.Context, short string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byShort[short]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byShort, short)
	return nil
}

func (r *fakeURLsRepo) ListByUser(_ context.Context, userID int64) ([]*models.ShortURL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ShortURL
	for _, u := range r.byShort {
		if u.CreatedBy != nil && *u.CreatedBy == userID {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	l *fakeURLsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return m.u }
func (m *fakeRepoManager) URLs(dbx.DBTX) urlsrepo.Repository            { return m.l }
