package repomanager

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/tumordetect/internal/dbx"
	"github.com/dmitrijs2005/tumordetect/internal/server/models"
	"github.com/dmitrijs2005/tumordetect/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_RunMigrations_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	db, _, err := dbx.Open(ctx, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer db.Close()

	m := NewSQLiteRepositoryManager()
	require.NoError(t, m.RunMigrations(ctx, db))

	var name string
	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name='goose_db_version'`).Scan(&name)
	require.NoError(t, err, "expected goose_db_version table to exist after migrations")

	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name='users'`).Scan(&name)
	require.NoError(t, err, "expected users table to exist after migrations")

	// Repeated runs are no-ops.
	require.NoError(t, m.RunMigrations(ctx, db))

	repo := m.Users(db)
	assert.IsType(t, &users.SQLiteRepository{}, repo)
	_, err = repo.Create(ctx, &models.User{Username: "alice", PasswordHash: []byte("h"), CreatedAt: time.Now()})
	require.NoError(t, err)
}
