package file

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/cache"
)

func newCache(t *testing.T, path string) *Cache {
	t.Helper()
	c, err := New(cache.Options{FilePath: path})
	require.NoError(t, err)
	return c
}

func TestSetGetPersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "geocode_cache.json")

	c := newCache(t, path)
	require.NoError(t, c.Set(ctx, "Москва", "55.75,37.61", 0))
	require.NoError(t, c.Close())

	reopened := newCache(t, path)
	var got string
	require.NoError(t, reopened.Get(ctx, "Москва", &got))
	assert.Equal(t, "55.75,37.61", got)
	assert.Equal(t, 1, reopened.Len())
}

func TestGetMissing(t *testing.T) {
	c := newCache(t, filepath.Join(t.TempDir(), "c.json"))
	var got string
	assert.ErrorIs(t, c.Get(context.Background(), "absent", &got), cache.ErrNotFound)
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	c := newCache(t, filepath.Join(t.TempDir(), "c.json"))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	var got string
	require.NoError(t, c.Get(ctx, "k", &got))

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "k", &got), cache.ErrNotFound)
}

func TestDeleteClearAndClosed(t *testing.T) {
	ctx := context.Background()
	c := newCache(t, filepath.Join(t.TempDir(), "c.json"))

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	require.NoError(t, c.Delete(ctx, "a"))
	assert.Equal(t, 1, c.Len())
	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())

	assert.ErrorIs(t, c.Set(ctx, "", "x", 0), cache.ErrInvalidKey)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Set(ctx, "c", "3", 0), cache.ErrClosed)
}

func TestInvalidTarget(t *testing.T) {
	ctx := context.Background()
	c := newCache(t, filepath.Join(t.TempDir(), "c.json"))
	require.NoError(t, c.Set(ctx, "k", "v", 0))

	var n int
	assert.ErrorIs(t, c.Get(ctx, "k", &n), cache.ErrInvalidValue)
}
