// Package artifact persists index builds on local disk.
//
// A build directory holds three files written and read as a unit:
//
//   - index.bin: magic, format version, build id, strategy, index body
//   - chunks.jsonl: one chunk record per line in chunk id order
//   - manifest.json: the build manifest
//
// The store root keeps builds under builds/<id>/ and names the serving build
// in a CURRENT file. A build becomes visible only when CURRENT is replaced,
// which happens after its directory has been fully written and renamed into
// place.
package artifact

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/swiftvisa/visarag/internal/adapters/driven/vectorindex/binio"
	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

// File names inside a build directory.
const (
	IndexFile    = "index.bin"
	ChunksFile   = "chunks.jsonl"
	ManifestFile = "manifest.json"
)

// FormatVersion is the index.bin layout version.
const FormatVersion uint32 = 1

var magic = [8]byte{'V', 'R', 'A', 'G', 'I', 'D', 'X', 0}

// maxLine bounds one chunks.jsonl record.
const maxLine = 16 << 20

// SaveDir writes a snapshot into dir, creating it if needed.
func SaveDir(dir string, snap *driven.Snapshot) error {
	if snap == nil || snap.Index == nil || snap.Metadata == nil {
		return fmt.Errorf("%w: incomplete snapshot", domain.ErrInvalidInput)
	}
	if snap.Manifest.ID == "" {
		return fmt.Errorf("%w: snapshot has no build id", domain.ErrInvalidInput)
	}
	if snap.Index.Len() != snap.Metadata.Len() {
		return fmt.Errorf("%w: index holds %d vectors but metadata holds %d chunks",
			domain.ErrCorruptArtifact, snap.Index.Len(), snap.Metadata.Len())
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating build directory: %w", err)
	}

	if err := writeFile(filepath.Join(dir, IndexFile), func(w io.Writer) error {
		return writeIndex(w, snap.Manifest.ID, snap.Index)
	}); err != nil {
		return fmt.Errorf("writing %s: %w", IndexFile, err)
	}

	if err := writeFile(filepath.Join(dir, ChunksFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, c := range snap.Metadata.Chunks() {
			if err := enc.Encode(c); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("writing %s: %w", ChunksFile, err)
	}

	if err := writeFile(filepath.Join(dir, ManifestFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Manifest)
	}); err != nil {
		return fmt.Errorf("writing %s: %w", ManifestFile, err)
	}
	return nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := fill(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeIndex(w io.Writer, buildID string, idx driven.VectorIndex) error {
	hw := binio.NewWriter(w)
	hw.Raw(magic[:])
	hw.Uint32(FormatVersion)
	hw.String(buildID)
	hw.String(string(idx.Strategy()))
	if err := hw.Flush(); err != nil {
		return err
	}
	return idx.Encode(w)
}

// readHeader checks the index.bin preamble and returns its build id and
// strategy.
func readHeader(r io.Reader) (string, domain.IndexStrategy, error) {
	hr := binio.NewReader(r)
	if got := hr.Raw(len(magic)); hr.Err() == nil && string(got) != string(magic[:]) {
		hr.Fail("not an index file")
	}
	if v := hr.Uint32(); hr.Err() == nil && v != FormatVersion {
		hr.Fail("unsupported index format version %d", v)
	}
	buildID := hr.String()
	strategy := domain.IndexStrategy(hr.String())
	if err := hr.Err(); err != nil {
		return "", "", err
	}
	return buildID, strategy, nil
}

// LoadDir reads a snapshot written by SaveDir. The index file and the chunk
// sidecar must both be present, and the manifest, index header, index and
// sidecar must agree on build id and chunk count.
func LoadDir(dir string, factory driven.IndexFactory) (*driven.Snapshot, error) {
	indexPath := filepath.Join(dir, IndexFile)
	chunksPath := filepath.Join(dir, ChunksFile)
	manifestPath := filepath.Join(dir, ManifestFile)

	hasIndex, hasChunks := exists(indexPath), exists(chunksPath)
	switch {
	case !hasIndex && !hasChunks:
		return nil, fmt.Errorf("%w: no build in %s", domain.ErrNotFound, dir)
	case !hasIndex:
		return nil, fmt.Errorf("%w: %s has no %s", domain.ErrPartialArtifact, dir, IndexFile)
	case !hasChunks:
		return nil, fmt.Errorf("%w: %s has no %s", domain.ErrPartialArtifact, dir, ChunksFile)
	case !exists(manifestPath):
		return nil, fmt.Errorf("%w: %s has no %s", domain.ErrPartialArtifact, dir, ManifestFile)
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	idx, err := readIndex(indexPath, manifest, factory)
	if err != nil {
		return nil, err
	}

	meta, err := readChunks(chunksPath)
	if err != nil {
		return nil, err
	}

	if idx.Len() != meta.Len() || (manifest.Chunks != 0 && manifest.Chunks != meta.Len()) {
		return nil, fmt.Errorf("%w: index holds %d vectors, sidecar %d chunks, manifest %d",
			domain.ErrCorruptArtifact, idx.Len(), meta.Len(), manifest.Chunks)
	}
	if manifest.Dimension != 0 && manifest.Dimension != idx.Dimension() {
		return nil, fmt.Errorf("%w: manifest dimension %d, index dimension %d",
			domain.ErrCorruptArtifact, manifest.Dimension, idx.Dimension())
	}

	return &driven.Snapshot{Manifest: manifest, Index: idx, Metadata: meta}, nil
}

// ReadManifest reads manifest.json from a build directory.
func ReadManifest(dir string) (domain.BuildManifest, error) {
	var m domain.BuildManifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, fmt.Errorf("%w: %s has no %s", domain.ErrPartialArtifact, dir, ManifestFile)
		}
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: manifest: %v", domain.ErrCorruptArtifact, err)
	}
	if m.ID == "" {
		return m, fmt.Errorf("%w: manifest has no build id", domain.ErrCorruptArtifact)
	}
	return m, nil
}

func readIndex(path string, manifest domain.BuildManifest, factory driven.IndexFactory) (driven.VectorIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", IndexFile, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)
	buildID, strategy, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", IndexFile, err)
	}
	if buildID != manifest.ID {
		return nil, fmt.Errorf("%w: index belongs to build %s, manifest to %s",
			domain.ErrCorruptArtifact, buildID, manifest.ID)
	}
	if manifest.Strategy != "" && strategy != manifest.Strategy {
		return nil, fmt.Errorf("%w: index strategy %s, manifest strategy %s",
			domain.ErrCorruptArtifact, strategy, manifest.Strategy)
	}

	idx, err := factory.Decode(strategy, r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", IndexFile, err)
	}
	if _, err := r.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after index body", domain.ErrCorruptArtifact)
	}
	return idx, nil
}

func readChunks(path string) (*domain.MetadataStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", ChunksFile, err)
	}
	defer f.Close()

	meta, err := domain.NewMetadataStore(nil)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var c domain.Chunk
		if err := json.Unmarshal(scanner.Bytes(), &c); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", domain.ErrCorruptArtifact, ChunksFile, line, err)
		}
		if err := meta.Append(c); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", domain.ErrCorruptArtifact, ChunksFile, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrCorruptArtifact, ChunksFile, err)
	}
	return meta, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
