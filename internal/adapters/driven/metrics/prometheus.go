// Package metrics exports pipeline instrumentation to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

const namespace = "visarag"

// Ensure Prometheus implements the interface.
var _ driven.Metrics = (*Prometheus)(nil)

// Prometheus records pipeline metrics on its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	retrievals       *prometheus.CounterVec
	retrievalLatency *prometheus.HistogramVec
	retrievalResults prometheus.Histogram

	embedBatches *prometheus.CounterVec
	embedTexts   *prometheus.CounterVec
	embedLatency *prometheus.HistogramVec

	builds        prometheus.Counter
	buildDuration prometheus.Histogram
	indexChunks   prometheus.Gauge
	indexDocs     prometheus.Gauge
	skippedDocs   prometheus.Counter
	lastBuild     prometheus.Gauge
}

// New creates the collectors and registers them, along with the Go
// runtime and process collectors.
func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Retrieve calls by index strategy, filter use and outcome.",
		}, []string{"strategy", "filtered", "outcome"}),
		retrievalLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Retrieve latency, query embedding included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"strategy", "filtered"}),
		retrievalResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_results",
			Help:      "Chunks returned per successful retrieve call.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		embedBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_batches_total",
			Help:      "Embedding backend calls by model and outcome.",
		}, []string{"model", "outcome"}),
		embedTexts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_texts_total",
			Help:      "Texts sent to the embedding backend.",
		}, []string{"model"}),
		embedLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_batch_duration_seconds",
			Help:      "Embedding backend call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"model"}),
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Published index builds.",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Wall time of published builds.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		indexChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_chunks",
			Help:      "Chunks in the most recent build.",
		}),
		indexDocs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_documents",
			Help:      "Documents in the most recent build.",
		}),
		skippedDocs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_documents_total",
			Help:      "Documents dropped by ingestion errors.",
		}),
		lastBuild: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_build_timestamp_seconds",
			Help:      "Creation time of the most recent build.",
		}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.retrievals,
		p.retrievalLatency,
		p.retrievalResults,
		p.embedBatches,
		p.embedTexts,
		p.embedLatency,
		p.builds,
		p.buildDuration,
		p.indexChunks,
		p.indexDocs,
		p.skippedDocs,
		p.lastBuild,
	)
	return p
}

// Registry returns the registry the collectors live on.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// ObserveRetrieval records one retrieve call.
func (p *Prometheus) ObserveRetrieval(strategy domain.IndexStrategy, filtered bool, results int, elapsed time.Duration, err error) {
	labels := []string{strategy.String(), strconv.FormatBool(filtered)}
	p.retrievals.WithLabelValues(append(labels, outcome(err))...).Inc()
	p.retrievalLatency.WithLabelValues(labels...).Observe(elapsed.Seconds())
	if err == nil {
		p.retrievalResults.Observe(float64(results))
	}
}

// ObserveEmbedding records one backend embedding batch.
func (p *Prometheus) ObserveEmbedding(model string, size int, elapsed time.Duration, err error) {
	p.embedBatches.WithLabelValues(model, outcome(err)).Inc()
	p.embedTexts.WithLabelValues(model).Add(float64(size))
	p.embedLatency.WithLabelValues(model).Observe(elapsed.Seconds())
}

// ObserveBuild records a completed build.
func (p *Prometheus) ObserveBuild(record domain.BuildRecord) {
	p.builds.Inc()
	p.buildDuration.Observe(record.Duration.Seconds())
	p.indexChunks.Set(float64(record.Chunks))
	p.indexDocs.Set(float64(record.Documents))
	p.skippedDocs.Add(float64(len(record.Skipped)))
	if !record.CreatedAt.IsZero() {
		p.lastBuild.Set(float64(record.CreatedAt.Unix()))
	}
}

// outcome maps an error to a low-cardinality label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrIndexUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return "embedding_unavailable"
	default:
		return "error"
	}
}
