package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewMySQLStore(sqlx.NewDb(db, "mysql"))
	store.now = func() time.Time { return time.UnixMilli(1760000000000) }
	return store, mock
}

func TestMySQLStore_Get(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT KV_VALUE FROM CC_KEY_VALUE").
		WithArgs("v1:cookiePreferences").
		WillReturnRows(sqlmock.NewRows([]string{"KV_VALUE"}).AddRow(`{"version":"1.0"}`))

	v, err := store.Get(context.Background(), "v1:cookiePreferences")
	require.NoError(t, err)
	assert.Equal(t, `{"version":"1.0"}`, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_GetMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT KV_VALUE FROM CC_KEY_VALUE").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"KV_VALUE"}))

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_GetDBError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT KV_VALUE FROM CC_KEY_VALUE").
		WillReturnError(errors.New("connection refused"))

	_, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "failed to get value")
}

func TestMySQLStore_SetUpserts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO CC_KEY_VALUE").
		WithArgs("k", "v", int64(1760000000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Set(context.Background(), "k", "v"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_SetDBError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO CC_KEY_VALUE").
		WillReturnError(errors.New("disk full"))

	err := store.Set(context.Background(), "k", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set value")
}

func TestMySQLStore_Delete(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM CC_KEY_VALUE").
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
