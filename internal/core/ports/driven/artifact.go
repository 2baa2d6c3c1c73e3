package driven

import (
	"context"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// Snapshot is one immutable, servable index build: the vector index and
// the metadata store that is index-aligned with it.
type Snapshot struct {
	Manifest domain.BuildManifest
	Index    VectorIndex
	Metadata *domain.MetadataStore
}

// ArtifactStore persists snapshots.
// The index blob and metadata sidecar are always written and read as a pair.
type ArtifactStore interface {
	// Save writes the snapshot as a new build and makes it current.
	// A build is only visible once fully written.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Load reads the current build.
	// Returns ErrNotFound if no build has been published.
	Load(ctx context.Context) (*Snapshot, error)

	// Current returns the id of the current build.
	Current() (string, error)

	// List returns manifests of builds on disk, newest first.
	List(ctx context.Context) ([]domain.BuildManifest, error)

	// Prune removes old builds, keeping the newest retain including the current one.
	Prune(ctx context.Context, retain int) error

	// Root returns the store directory.
	Root() string
}

// BuildStore records build history.
type BuildStore interface {
	// Save records a build.
	Save(ctx context.Context, record domain.BuildRecord) error

	// Get retrieves a build by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.BuildRecord, error)

	// List returns the most recent builds, newest first.
	List(ctx context.Context, limit int) ([]domain.BuildRecord, error)
}
