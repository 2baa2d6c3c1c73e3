package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "visarag-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func testRecord(id string, created time.Time) domain.BuildRecord {
	return domain.BuildRecord{
		BuildManifest: domain.BuildManifest{
			ID:        id,
			Strategy:  domain.IndexStrategyFlat,
			Exact:     true,
			Dimension: 384,
			Chunks:    1200,
			Documents: 14,
			Model:     "nomic-embed-text",
			CreatedAt: created,
		},
		Skipped: []domain.SkippedDocument{
			{Source: "usa/h1b/scan.pdf", Reason: "no extractable text"},
			{Source: "uk/work/broken.docx", Reason: "invalid archive"},
		},
		Duration: 2500 * time.Millisecond,
	}
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.Equal(t, "history.db", filepath.Base(store.Path()))
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.BuildStore().Save(context.Background(), testRecord("b1", time.Now())))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var versions int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)

	got, err := second.BuildStore().Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)
}

// ==================== Build Store Tests ====================

func TestBuildStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	builds := store.BuildStore()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := testRecord("build-a", created)
	require.NoError(t, builds.Save(ctx, record))

	got, err := builds.Get(ctx, "build-a")
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.Strategy, got.Strategy)
	assert.True(t, got.Exact)
	assert.Equal(t, 384, got.Dimension)
	assert.Equal(t, 1200, got.Chunks)
	assert.Equal(t, 14, got.Documents)
	assert.Equal(t, "nomic-embed-text", got.Model)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, 2500*time.Millisecond, got.Duration)
	assert.Equal(t, record.Skipped, got.Skipped)
}

func TestBuildStore_GetNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.BuildStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuildStore_SaveRequiresID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.BuildStore().Save(context.Background(), domain.BuildRecord{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBuildStore_SaveReplaces(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	builds := store.BuildStore()

	record := testRecord("build-a", time.Now())
	require.NoError(t, builds.Save(ctx, record))

	record.Chunks = 10
	record.Skipped = nil
	require.NoError(t, builds.Save(ctx, record))

	got, err := builds.Get(ctx, "build-a")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Chunks)
	assert.Empty(t, got.Skipped)
}

func TestBuildStore_ListNewestFirst(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	builds := store.BuildStore()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"b1", "b2", "b3"} {
		require.NoError(t, builds.Save(ctx, testRecord(id, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := builds.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b3", all[0].ID)
	assert.Equal(t, "b1", all[2].ID)
	assert.Len(t, all[0].Skipped, 2)

	limited, err := builds.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "b2", limited[1].ID)
}

func TestBuildStore_ListEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	records, err := store.BuildStore().List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
