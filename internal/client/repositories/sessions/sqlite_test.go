package sessions

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/projectdesk/internal/client/client"
	"github.com/dmitrijs2005/projectdesk/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "desk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoad_EmptyReturnsNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	s, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSaveThenLoad_RoundTripsAllFields(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	want := &models.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		User: models.User{
			ID:       "8d0c3f2e-0000-4000-8000-000000000001",
			Email:    "ann@example.com",
			Metadata: map[string]string{"plan": "pro"},
		},
	}
	require.NoError(t, r.Save(ctx, want))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	assert.Equal(t, want.User, got.User)
}

func TestSave_ReplacesPreviousSession(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, &models.Session{AccessToken: "a1", RefreshToken: "r1", User: models.User{ID: "u1"}}))
	require.NoError(t, r.Save(ctx, &models.Session{AccessToken: "a2", RefreshToken: "r2", User: models.User{ID: "u2"}}))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a2", got.AccessToken)
	assert.Equal(t, "u2", got.User.ID)
	assert.True(t, got.ExpiresAt.IsZero())
	assert.Nil(t, got.User.Metadata)
}

func TestClear_IsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, &models.Session{AccessToken: "a", RefreshToken: "r", User: models.User{ID: "u"}}))
	require.NoError(t, r.Clear(ctx))
	require.NoError(t, r.Clear(ctx))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSave_NilClears(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, &models.Session{AccessToken: "a", RefreshToken: "r", User: models.User{ID: "u"}}))
	require.NoError(t, r.Save(ctx, nil))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_SatisfiesSessionCache(t *testing.T) {
	var _ client.SessionCache = NewSQLiteRepository(nil)
	var _ Repository = NewSQLiteRepository(nil)
}
