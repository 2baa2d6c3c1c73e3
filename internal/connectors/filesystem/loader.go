// Package filesystem discovers corpus documents on local disk.
//
// The corpus is laid out as <root>/<country>/<visa_type>/<file>. Country and
// visa type come from the first two directory levels below the root; a file
// with fewer levels gets UNKNOWN for the missing ones and deeper levels are
// ignored. Hidden files and directories are skipped.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
	"github.com/swiftvisa/visarag/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.CorpusLoader = (*Loader)(nil)

// Loader walks a corpus directory.
type Loader struct {
	extensions map[string]bool
}

// New creates a loader that keeps files with the given extensions.
// With no extensions every regular file is kept.
func New(extensions []string) *Loader {
	l := &Loader{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		l.extensions[strings.ToLower(ext)] = true
	}
	return l
}

// Validate checks that root exists and is a directory.
func (l *Loader) Validate(ctx context.Context, root string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: corpus directory %s", domain.ErrNotFound, root)
		}
		return fmt.Errorf("stat corpus directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, root)
	}
	return nil
}

// Discover lists documents under root ordered by Source.
func (l *Loader) Discover(ctx context.Context, root string) ([]domain.Document, error) {
	if err := l.Validate(ctx, root); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving corpus directory: %w", err)
	}

	var docs []domain.Document
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			logger.Warn("Skipping unreadable path %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == abs {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if len(l.extensions) > 0 && !l.extensions[strings.ToLower(filepath.Ext(path))] {
			logger.Debug("Ignoring %s: unsupported extension", path)
			return nil
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		country, visaType := Infer(rel)
		docs = append(docs, domain.Document{
			Source:   rel,
			Path:     path,
			Country:  country,
			VisaType: visaType,
		}.WithDefaults())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking corpus: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Source < docs[j].Source })
	logger.Debug("Discovered %d documents under %s", len(docs), abs)
	return docs, nil
}

// Infer returns country and visa type from a slash-separated path relative
// to the corpus root. Missing levels come back empty.
func Infer(rel string) (country, visaType string) {
	parts := strings.Split(strings.Trim(rel, "/"), "/")
	dirs := parts[:len(parts)-1]
	if len(dirs) > 0 {
		country = dirs[0]
	}
	if len(dirs) > 1 {
		visaType = dirs[1]
	}
	return country, visaType
}

// isHidden reports whether a single path element is a dot file.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
