package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
	"github.com/swiftvisa/visarag/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.ArtifactStore = (*Store)(nil)

const (
	buildsDir   = "builds"
	currentFile = "CURRENT"
	tmpSuffix   = ".tmp"

	// staleStagingAge is how long a staging directory must sit untouched
	// before Prune treats it as left over from a crashed build. Younger ones
	// may belong to a build running in another process.
	staleStagingAge = time.Hour
)

// Store keeps versioned builds under a root directory.
type Store struct {
	root    string
	factory driven.IndexFactory
}

// NewStore opens or creates a store at root.
// If root is empty, defaults to ~/.visarag/store.
func NewStore(root string, factory driven.IndexFactory) (*Store, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		root = filepath.Join(home, ".visarag", "store")
	}
	if err := os.MkdirAll(filepath.Join(root, buildsDir), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &Store{root: root, factory: factory}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// CurrentPath returns the path of the CURRENT pointer file.
func (s *Store) CurrentPath() string {
	return filepath.Join(s.root, currentFile)
}

// BuildDir returns the directory of a build.
func (s *Store) BuildDir(id string) string {
	return filepath.Join(s.root, buildsDir, id)
}

// Save writes the snapshot as a new build and points CURRENT at it.
// A snapshot without a build id is given a fresh one.
func (s *Store) Save(ctx context.Context, snap *driven.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.Manifest.ID == "" {
		snap.Manifest.ID = uuid.NewString()
	}
	id := snap.Manifest.ID
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: build id %q", domain.ErrInvalidInput, id)
	}

	final := s.BuildDir(id)
	if exists(final) {
		return fmt.Errorf("%w: build %s already exists", domain.ErrInvalidInput, id)
	}
	tmp := final + tmpSuffix
	if err := os.RemoveAll(tmp); err != nil {
		return fmt.Errorf("clearing staging directory: %w", err)
	}

	if err := SaveDir(tmp, snap); err != nil {
		os.RemoveAll(tmp)
		return err
	}
	if err := ctx.Err(); err != nil {
		os.RemoveAll(tmp)
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		os.RemoveAll(tmp)
		return fmt.Errorf("publishing build directory: %w", err)
	}
	if err := s.setCurrent(id); err != nil {
		return err
	}

	logger.Info("Published build %s (%s, %d chunks)", id, snap.Manifest.Strategy, snap.Metadata.Len())
	return nil
}

// setCurrent replaces CURRENT through a temporary file and rename.
func (s *Store) setCurrent(id string) error {
	tmp := s.CurrentPath() + tmpSuffix
	if err := writeFile(tmp, func(w io.Writer) error {
		_, err := io.WriteString(w, id+"\n")
		return err
	}); err != nil {
		return fmt.Errorf("writing %s: %w", currentFile, err)
	}
	if err := os.Rename(tmp, s.CurrentPath()); err != nil {
		return fmt.Errorf("replacing %s: %w", currentFile, err)
	}
	return nil
}

// Current returns the id of the serving build.
// Returns ErrNotFound if nothing has been published.
func (s *Store) Current() (string, error) {
	data, err := os.ReadFile(s.CurrentPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: no build has been published in %s", domain.ErrNotFound, s.root)
		}
		return "", fmt.Errorf("reading %s: %w", currentFile, err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("%w: empty %s", domain.ErrCorruptArtifact, currentFile)
	}
	return id, nil
}

// Load reads the build named by CURRENT.
func (s *Store) Load(ctx context.Context) (*driven.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := s.Current()
	if err != nil {
		return nil, err
	}
	return s.LoadBuild(ctx, id)
}

// LoadBuild reads a specific build.
func (s *Store) LoadBuild(ctx context.Context, id string) (*driven.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := LoadDir(s.BuildDir(id), s.factory)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// CURRENT names a build that is not on disk.
			return nil, fmt.Errorf("%w: build %s is missing", domain.ErrPartialArtifact, id)
		}
		return nil, fmt.Errorf("loading build %s: %w", id, err)
	}
	if snap.Manifest.ID != id {
		return nil, fmt.Errorf("%w: directory %s holds build %s", domain.ErrCorruptArtifact, id, snap.Manifest.ID)
	}
	logger.Debug("Loaded build %s (%s, %d chunks)", id, snap.Manifest.Strategy, snap.Metadata.Len())
	return snap, nil
}

// List returns manifests of published builds, newest first.
// Directories without a readable manifest are skipped.
func (s *Store) List(ctx context.Context) ([]domain.BuildManifest, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, buildsDir))
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}

	var manifests []domain.BuildManifest
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() || strings.HasSuffix(e.Name(), tmpSuffix) {
			continue
		}
		m, err := ReadManifest(filepath.Join(s.root, buildsDir, e.Name()))
		if err != nil {
			logger.Warn("Skipping build %s: %v", e.Name(), err)
			continue
		}
		manifests = append(manifests, m)
	}

	sort.Slice(manifests, func(i, j int) bool {
		if !manifests[i].CreatedAt.Equal(manifests[j].CreatedAt) {
			return manifests[i].CreatedAt.After(manifests[j].CreatedAt)
		}
		return manifests[i].ID > manifests[j].ID
	})
	return manifests, nil
}

// Prune removes all but the newest retain builds along with abandoned
// staging directories. The current build is never removed.
func (s *Store) Prune(ctx context.Context, retain int) error {
	if retain < 1 {
		retain = 1
	}
	current, err := s.Current()
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	manifests, err := s.List(ctx)
	if err != nil {
		return err
	}

	kept := 0
	if current != "" {
		kept = 1
	}
	for _, m := range manifests {
		if m.ID == current {
			continue
		}
		if kept < retain {
			kept++
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.RemoveAll(s.BuildDir(m.ID)); err != nil {
			return fmt.Errorf("removing build %s: %w", m.ID, err)
		}
		logger.Debug("Pruned build %s", m.ID)
	}

	staging, _ := filepath.Glob(filepath.Join(s.root, buildsDir, "*"+tmpSuffix))
	for _, dir := range staging {
		info, err := os.Stat(dir)
		if err != nil || time.Since(info.ModTime()) < staleStagingAge {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("Could not remove staging directory %s: %v", dir, err)
		}
	}
	return nil
}
