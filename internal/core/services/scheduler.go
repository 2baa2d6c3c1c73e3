package services

import (
	"context"
	"sync"
	"time"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driving"
	"github.com/swiftvisa/visarag/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// SchedulerConfig configures background rebuilds.
type SchedulerConfig struct {
	// DataDir is the corpus root passed to every build.
	DataDir string

	// Interval rebuilds periodically. Zero disables periodic builds.
	Interval time.Duration

	// Triggers requests a build on every receive, typically from a corpus watcher.
	Triggers <-chan struct{}

	// RunAtStart builds once before waiting for triggers.
	RunAtStart bool

	// OnBuilt is called after every successful build.
	OnBuilt func(*domain.BuildRecord)
}

// Scheduler runs index builds in the background, one at a time.
// Triggers that arrive during a build are coalesced into the next one.
type Scheduler struct {
	config SchedulerConfig
	index  driving.IndexService

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	status  domain.RebuildStatus
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(config SchedulerConfig, index driving.IndexService) *Scheduler {
	return &Scheduler{
		config: config,
		index:  index,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.stopCh == stopCh {
			s.running = false
		}
		s.mu.Unlock()
	}()

	if s.config.RunAtStart {
		s.build(ctx)
	}

	var tick <-chan time.Time
	if s.config.Interval > 0 {
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	triggers := s.config.Triggers

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-tick:
			s.build(ctx)
		case _, ok := <-triggers:
			if !ok {
				triggers = nil
				continue
			}
			logger.Info("Corpus changed, rebuilding")
			s.build(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler. A build in progress finishes first.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopCh)
	return nil
}

// Status returns a copy of the rebuild status.
func (s *Scheduler) Status() domain.RebuildStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) build(ctx context.Context) {
	s.mu.Lock()
	s.status.Running = true
	s.status.LastRun = time.Now()
	s.mu.Unlock()

	record, err := s.index.Build(ctx, s.config.DataDir)

	s.mu.Lock()
	s.status.Running = false
	if err != nil {
		s.status.Failures++
		s.status.LastError = err.Error()
	} else {
		s.status.Builds++
		s.status.LastError = ""
		s.status.LastBuildID = record.ID
	}
	s.mu.Unlock()

	if err != nil {
		logger.Error(err, "Rebuild failed")
		return
	}
	if s.config.OnBuilt != nil {
		s.config.OnBuilt(record)
	}
}
