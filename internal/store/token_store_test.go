package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/dikaadmin/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestTokenStoreLifecycle(t *testing.T) {
	s := NewTokenStore(openTestDB(t))
	ctx := context.Background()

	got, err := s.Get(ctx, "adminToken:a")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Set(ctx, "adminToken:a", "tok-1"))
	require.NoError(t, s.Set(ctx, "adminToken:b", "tok-b"))
	got, err = s.Get(ctx, "adminToken:a")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, s.Set(ctx, "adminToken:a", "tok-2"))
	got, _ = s.Get(ctx, "adminToken:a")
	assert.Equal(t, "tok-2", got)

	require.NoError(t, s.Clear(ctx, "adminToken:a"))
	got, _ = s.Get(ctx, "adminToken:a")
	assert.Empty(t, got)

	got, _ = s.Get(ctx, "adminToken:b")
	assert.Equal(t, "tok-b", got)
	assert.NoError(t, s.Clear(ctx, "adminToken:missing"))
}

func TestTokenStoreDeleteBefore(t *testing.T) {
	s := NewTokenStore(openTestDB(t))
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "adminToken:a", "tok-a"))

	n, err := s.DeleteBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "recent tokens are kept")

	n, err = s.DeleteBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	got, err := s.Get(ctx, "adminToken:a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTokenStoreErrors(t *testing.T) {
	d, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	boom := errors.New("disk I/O error")
	mock.ExpectQuery("SELECT token FROM tokens").WithArgs("k").WillReturnError(boom)
	mock.ExpectExec("INSERT INTO tokens").WithArgs("k", "t").WillReturnError(boom)
	mock.ExpectExec("DELETE FROM tokens").WithArgs("k").WillReturnError(boom)
	mock.ExpectExec("DELETE FROM tokens WHERE updated_at").WillReturnError(boom)

	s := NewTokenStore(d)
	ctx := context.Background()

	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "failed to get token")

	err = s.Set(ctx, "k", "t")
	assert.ErrorIs(t, err, boom)

	err = s.Clear(ctx, "k")
	assert.ErrorIs(t, err, boom)

	_, err = s.DeleteBefore(ctx, time.Now())
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}
