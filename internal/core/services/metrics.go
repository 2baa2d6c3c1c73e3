package services

import (
	"time"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

var _ driven.Metrics = nopMetrics{}

// nopMetrics is used when no metrics adapter is wired.
type nopMetrics struct{}

func (nopMetrics) ObserveRetrieval(domain.IndexStrategy, bool, int, time.Duration, error) {}
func (nopMetrics) ObserveEmbedding(string, int, time.Duration, error)                     {}
func (nopMetrics) ObserveBuild(domain.BuildRecord)                                        {}
