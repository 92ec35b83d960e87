package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "neis_cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestStoreStartsEmpty(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	require.NoError(t, store.Health(context.Background()))

	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreSaveReplacesContents(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	cachedAt := time.Date(2025, 10, 28, 9, 0, 0, 123, time.UTC)

	require.NoError(t, store.Save(ctx, map[string]domain.SchoolRecord{
		"old": {Name: "옛학교"},
	}))

	want := map[string]domain.SchoolRecord{
		"한빛중": {
			Name:       "한빛중학교",
			Code:       "7010001",
			OfficeCode: "B10",
			OfficeName: "서울특별시교육청",
			Location:   "서울특별시 강남구",
			Raw:        map[string]any{"SCHUL_NM": "한빛중학교"},
			CachedAt:   cachedAt,
		},
		"한빛중학교": {Name: "한빛중학교"},
	}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "neis_cache.db")
	ctx := context.Background()

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, map[string]domain.SchoolRecord{"새솔고": {Name: "새솔고등학교"}}))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	entries, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "새솔고등학교", entries["새솔고"].Name)
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, store.Save(ctx, nil), context.Canceled)
}

func TestMemoryStoreKeepsEntriesUntilClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := Open(ctx, MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Save(ctx, map[string]domain.SchoolRecord{
		"한빛중": {Name: "한빛중학교", Code: "7130001"},
	}))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7130001", entries["한빛중"].Code)
}
