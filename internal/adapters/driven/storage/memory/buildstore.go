package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

// Ensure BuildStore implements the interface.
var _ driven.BuildStore = (*BuildStore)(nil)

// BuildStore is an in-memory implementation of driven.BuildStore.
type BuildStore struct {
	mu     sync.RWMutex
	builds map[string]domain.BuildRecord
}

// NewBuildStore creates a new in-memory build store.
func NewBuildStore() *BuildStore {
	return &BuildStore{
		builds: make(map[string]domain.BuildRecord),
	}
}

// Save stores or replaces a build record.
func (s *BuildStore) Save(_ context.Context, record domain.BuildRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: build record has no id", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds[record.ID] = record
	return nil
}

// Get retrieves a build record.
func (s *BuildStore) Get(_ context.Context, id string) (*domain.BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.builds[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// List returns up to limit records, newest first.
func (s *BuildStore) List(_ context.Context, limit int) ([]domain.BuildRecord, error) {
	s.mu.RLock()
	records := make([]domain.BuildRecord, 0, len(s.builds))
	for _, r := range s.builds {
		records = append(records, r)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
