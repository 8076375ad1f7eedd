package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tumordetect/internal/common"
	"github.com/dmitrijs2005/tumordetect/internal/dbx"
	"github.com/dmitrijs2005/tumordetect/internal/server/migrations"
	"github.com/dmitrijs2005/tumordetect/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:users_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, _, err := dbx.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.SQLite)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "sqlite"))
	return db
}

func TestSQLite_CreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(newSQLiteDB(t))
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{Username: "alice", PasswordHash: []byte("hash"), CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	got, err := repo.GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, []byte("hash"), got.PasswordHash)
}

func TestSQLite_DuplicateUsername(t *testing.T) {
	repo := NewSQLiteRepository(newSQLiteDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.User{Username: "alice", PasswordHash: []byte("first"), CreatedAt: time.Now()})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{Username: "alice", PasswordHash: []byte("second"), CreatedAt: time.Now()})
	require.ErrorIs(t, err, common.ErrDuplicateUsername)

	got, err := repo.GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got.PasswordHash, "duplicate insert must not overwrite the stored hash")
}

func TestSQLite_UsernamesAreCaseSensitive(t *testing.T) {
	repo := NewSQLiteRepository(newSQLiteDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.User{Username: "alice", PasswordHash: []byte("a"), CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.User{Username: "Alice", PasswordHash: []byte("b"), CreatedAt: time.Now()})
	require.NoError(t, err)
}

func TestSQLite_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(newSQLiteDB(t))

	_, err := repo.GetUserByLogin(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSQLite_ConcurrentCreateSameUsername(t *testing.T) {
	repo := NewSQLiteRepository(newSQLiteDB(t))
	ctx := context.Background()

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		dup     int
		unknown []error
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, &models.User{
				Username:     "race",
				PasswordHash: []byte(fmt.Sprintf("hash-%d", i)),
				CreatedAt:    time.Now(),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, common.ErrDuplicateUsername):
				dup++
			default:
				unknown = append(unknown, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, unknown)
	assert.Equal(t, 1, ok, "exactly one signup must win")
	assert.Equal(t, n-1, dup)
}

func TestSQLite_DBErrorIsWrapped(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLiteRepository(db)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users.*VALUES\s*\(\?,\s*\?,\s*\?\)\s*RETURNING\s+id\s*$`).
		WithArgs("alice", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))

	_, err = repo.Create(context.Background(), &models.User{Username: "alice"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*disk I/O error`), err.Error())
	assert.False(t, errors.Is(err, common.ErrDuplicateUsername))

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*username,\s*password_hash\s+FROM\s+users\s+WHERE\s+username\s*=\s*\?\s*$`).
		WithArgs("alice").
		WillReturnError(errors.New("locked"))

	_, err = repo.GetUserByLogin(context.Background(), "alice")
	assert.Regexp(t, `db error: .*locked`, err.Error())
}
