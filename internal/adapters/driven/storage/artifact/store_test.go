package artifact

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/visarag/internal/adapters/driven/vectorindex"
	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

const testDim = 8

func testFactory() *vectorindex.Factory {
	s := domain.DefaultAppSettings().Index
	s.HNSWM = 8
	s.EfConstruction = 32
	s.EfSearch = 32
	return vectorindex.NewFactory(s)
}

func randomVector(rng *rand.Rand) []float32 {
	v := make([]float32, testDim)
	for i := range v {
		v[i] = rng.Float32()
	}
	return v
}

func makeSnapshot(t *testing.T, id string, strategy domain.IndexStrategy, n int, created time.Time) *driven.Snapshot {
	t.Helper()
	rng := rand.New(rand.NewSource(int64(n)))

	idx, err := testFactory().New(strategy, testDim, n)
	require.NoError(t, err)

	chunks := make([]domain.Chunk, n)
	vectors := make([][]float32, n)
	for i := range chunks {
		country := "canada"
		if i%2 == 1 {
			country = "usa"
		}
		chunks[i] = domain.Chunk{
			ID:             i,
			SourceDocument: fmt.Sprintf("%s/study/doc-%d.pdf", country, i/10),
			Pages:          []int{i%5 + 1},
			Country:        country,
			VisaType:       "study",
			Position:       i % 10,
			Text:           fmt.Sprintf("chunk %d text with \"quotes\" & <tags>", i),
		}
		vectors[i] = randomVector(rng)
	}
	require.NoError(t, idx.Add(vectors))

	meta, err := domain.NewMetadataStore(chunks)
	require.NoError(t, err)

	return &driven.Snapshot{
		Manifest: domain.BuildManifest{
			ID:        id,
			Strategy:  idx.Strategy(),
			Exact:     idx.Exact(),
			Dimension: testDim,
			Chunks:    n,
			Documents: (n + 9) / 10,
			Model:     "hashing-v1",
			CreatedAt: created,
		},
		Index:    idx,
		Metadata: meta,
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), testFactory())
	require.NoError(t, err)
	return s
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	for _, strategy := range []domain.IndexStrategy{domain.IndexStrategyFlat, domain.IndexStrategyHNSW} {
		t.Run(string(strategy), func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			snap := makeSnapshot(t, "build-1", strategy, 120, time.Now().UTC().Truncate(time.Second))

			require.NoError(t, s.Save(ctx, snap))

			id, err := s.Current()
			require.NoError(t, err)
			assert.Equal(t, "build-1", id)

			loaded, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, snap.Manifest, loaded.Manifest)
			assert.Equal(t, snap.Metadata.Chunks(), loaded.Metadata.Chunks())
			assert.Equal(t, strategy, loaded.Index.Strategy())

			rng := rand.New(rand.NewSource(99))
			for q := 0; q < 100; q++ {
				query := randomVector(rng)
				want, err := snap.Index.Search(query, 7)
				require.NoError(t, err)
				got, err := loaded.Index.Search(query, 7)
				require.NoError(t, err)
				require.Equal(t, want, got)
			}
		})
	}
}

func TestSave_AssignsIDAndLeavesNoStaging(t *testing.T) {
	s := newStore(t)
	snap := makeSnapshot(t, "", domain.IndexStrategyFlat, 5, time.Now())

	require.NoError(t, s.Save(context.Background(), snap))
	assert.NotEmpty(t, snap.Manifest.ID)

	entries, err := os.ReadDir(filepath.Join(s.Root(), buildsDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, snap.Manifest.ID, entries[0].Name())

	_, err = os.Stat(s.CurrentPath() + tmpSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestSave_Rejects(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	assert.ErrorIs(t, s.Save(ctx, nil), domain.ErrInvalidInput)

	snap := makeSnapshot(t, "../escape", domain.IndexStrategyFlat, 3, time.Now())
	assert.ErrorIs(t, s.Save(ctx, snap), domain.ErrInvalidInput)

	snap = makeSnapshot(t, "dup", domain.IndexStrategyFlat, 3, time.Now())
	require.NoError(t, s.Save(ctx, snap))
	assert.ErrorIs(t, s.Save(ctx, snap), domain.ErrInvalidInput)
}

func TestSaveDir_MisalignedSnapshot(t *testing.T) {
	snap := makeSnapshot(t, "x", domain.IndexStrategyFlat, 4, time.Now())
	require.NoError(t, snap.Index.Add([][]float32{make([]float32, testDim)}))

	err := SaveDir(t.TempDir(), snap)
	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)
}

func TestSave_CancelledContextPublishesNothing(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Save(ctx, makeSnapshot(t, "b", domain.IndexStrategyFlat, 3, time.Now()))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Current()
	assert.ErrorIs(t, err, domain.ErrNotFound)
	entries, err := os.ReadDir(filepath.Join(s.Root(), buildsDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoad_NothingPublished(t *testing.T) {
	_, err := newStore(t).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoadDir_Pairing(t *testing.T) {
	tests := []struct {
		name   string
		remove string
		want   error
	}{
		{"missing sidecar", ChunksFile, domain.ErrPartialArtifact},
		{"missing index", IndexFile, domain.ErrPartialArtifact},
		{"missing manifest", ManifestFile, domain.ErrPartialArtifact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, SaveDir(dir, makeSnapshot(t, "b", domain.IndexStrategyFlat, 6, time.Now())))
			require.NoError(t, os.Remove(filepath.Join(dir, tt.remove)))

			_, err := LoadDir(dir, testFactory())
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := LoadDir(t.TempDir(), testFactory())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoad_CurrentPointsAtMissingBuild(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(context.Background(), makeSnapshot(t, "gone", domain.IndexStrategyFlat, 3, time.Now())))
	require.NoError(t, os.RemoveAll(s.BuildDir("gone")))

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrPartialArtifact)
}

func TestLoadDir_Corruption(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, dir string)
	}{
		{
			name: "build id disagreement",
			mutate: func(t *testing.T, dir string) {
				path := filepath.Join(dir, ManifestFile)
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				data = []byte(strings.Replace(string(data), `"id": "b"`, `"id": "other"`, 1))
				require.NoError(t, os.WriteFile(path, data, 0644))
			},
		},
		{
			name: "sidecar shorter than index",
			mutate: func(t *testing.T, dir string) {
				path := filepath.Join(dir, ChunksFile)
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				lines := strings.SplitAfter(string(data), "\n")
				require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines[:len(lines)-2], "")), 0644))
			},
		},
		{
			name: "sidecar out of order",
			mutate: func(t *testing.T, dir string) {
				path := filepath.Join(dir, ChunksFile)
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				lines := strings.SplitAfter(string(data), "\n")
				lines[0], lines[1] = lines[1], lines[0]
				require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "")), 0644))
			},
		},
		{
			name: "truncated index",
			mutate: func(t *testing.T, dir string) {
				path := filepath.Join(dir, IndexFile)
				info, err := os.Stat(path)
				require.NoError(t, err)
				require.NoError(t, os.Truncate(path, info.Size()-4))
			},
		},
		{
			name: "not an index file",
			mutate: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFile), []byte("garbage data here"), 0644))
			},
		},
		{
			name: "malformed sidecar record",
			mutate: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ChunksFile), []byte("{not json\n"), 0644))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, SaveDir(dir, makeSnapshot(t, "b", domain.IndexStrategyFlat, 6, time.Now())))
			tt.mutate(t, dir)

			_, err := LoadDir(dir, testFactory())
			assert.ErrorIs(t, err, domain.ErrCorruptArtifact)
		})
	}
}

func TestSidecarFormat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveDir(dir, makeSnapshot(t, "b", domain.IndexStrategyFlat, 2, time.Now())))

	data, err := os.ReadFile(filepath.Join(dir, ChunksFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		`{"chunk_id":0,"source_document":"canada/study/doc-0.pdf","pages":[1],"country":"canada","visa_type":"study","position":0,"text":"chunk 0 text with \"quotes\" & <tags>"}`,
		lines[0])
}

func TestListAndPrune(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		snap := makeSnapshot(t, fmt.Sprintf("b%d", i), domain.IndexStrategyFlat, 3, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, s.Save(ctx, snap))
	}
	stale := filepath.Join(s.Root(), buildsDir, "stale"+tmpSuffix)
	require.NoError(t, os.MkdirAll(stale, 0755))
	old := time.Now().Add(-2 * staleStagingAge)
	require.NoError(t, os.Chtimes(stale, old, old))

	// Point CURRENT back at an older build; it must survive pruning.
	require.NoError(t, s.setCurrent("b2"))

	manifests, err := s.List(ctx)
	require.NoError(t, err)
	ids := make([]string, len(manifests))
	for i, m := range manifests {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"b5", "b4", "b3", "b2", "b1"}, ids)

	require.NoError(t, s.Prune(ctx, 2))

	manifests, err = s.List(ctx)
	require.NoError(t, err)
	ids = ids[:0]
	for _, m := range manifests {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"b5", "b2"}, ids)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b2", loaded.Manifest.ID)
}

func TestPrune_KeepsStagingOfConcurrentBuild(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Save(ctx, makeSnapshot(t, "b1", domain.IndexStrategyFlat, 3, time.Now())))

	// Another process is still writing this build.
	inFlight := filepath.Join(s.Root(), buildsDir, "b2"+tmpSuffix)
	require.NoError(t, os.MkdirAll(inFlight, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(inFlight, "metadata.jsonl"), []byte("{}\n"), 0644))

	require.NoError(t, s.Prune(ctx, 1))

	_, err := os.Stat(inFlight)
	assert.NoError(t, err)

	// Once it finishes it publishes normally.
	require.NoError(t, os.RemoveAll(inFlight))
	require.NoError(t, s.Save(ctx, makeSnapshot(t, "b2", domain.IndexStrategyFlat, 3, time.Now())))
	id, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, "b2", id)
}

func TestWatcher_NotifiesOnNewBuild(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newStore(t)
	require.NoError(t, s.Save(ctx, makeSnapshot(t, "first", domain.IndexStrategyFlat, 3, time.Now())))

	w, err := NewWatcher(s)
	require.NoError(t, err)
	defer w.Close()

	got := make(chan string, 4)
	w.OnChange(func(id string) { got <- id })
	w.Start(ctx)

	require.NoError(t, s.Save(ctx, makeSnapshot(t, "second", domain.IndexStrategyFlat, 3, time.Now())))

	select {
	case id := <-got:
		assert.Equal(t, "second", id)
	case <-time.After(5 * time.Second):
		t.Fatal("expected change notification")
	}
}
