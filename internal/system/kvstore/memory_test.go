package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	_, err := s.Get(ctx, "cookiePreferences")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "cookiePreferences", `{"a":1}`))
	require.NoError(t, s.Set(ctx, "cookiePreferences", `{"a":2}`))

	v, err := s.Get(ctx, "cookiePreferences")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, v)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "cookiePreferences"))
	require.NoError(t, s.Delete(ctx, "cookiePreferences"))
	_, err = s.Get(ctx, "cookiePreferences")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_Quota(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(10)

	require.NoError(t, s.Set(ctx, "k", "123456789"))
	assert.ErrorIs(t, s.Set(ctx, "j", "1"), ErrQuotaExceeded)

	// overwriting the same key reuses its space
	require.NoError(t, s.Set(ctx, "k", "987654321"))

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Set(ctx, "j", "1"))
}

func TestNamespace_IsolatesKeys(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryStore(0)
	alice := Namespace(backend, "visitor-a")
	bob := Namespace(backend, "visitor-b")

	require.NoError(t, alice.Set(ctx, "cookiePreferences", "a"))
	require.NoError(t, bob.Set(ctx, "cookiePreferences", "b"))

	v, err := alice.Get(ctx, "cookiePreferences")
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	raw, err := backend.Get(ctx, "visitor-b:cookiePreferences")
	require.NoError(t, err)
	assert.Equal(t, "b", raw)

	require.NoError(t, alice.Delete(ctx, "cookiePreferences"))
	_, err = alice.Get(ctx, "cookiePreferences")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = bob.Get(ctx, "cookiePreferences")
	assert.NoError(t, err)
}
