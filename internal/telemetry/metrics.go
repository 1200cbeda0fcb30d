// Package telemetry exposes pipeline counters scraped from /metrics.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	queriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "legalai_queries_total",
		Help: "Queries handled, by operation (search, follow_up)",
	}, []string{"operation"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "legalai_cache_lookups_total",
		Help: "Semantic cache lookups by outcome (hit, miss, error)",
	}, []string{"outcome"})

	corpusFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "legalai_corpus_failures_total",
		Help: "Per-corpus retrieval failures degraded to empty results",
	}, []string{"corpus"})

	verdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "legalai_verifier_verdicts_total",
		Help: "Verifier outcomes (accept, refuse)",
	}, []string{"verdict"})

	redrafts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "legalai_redrafts_total",
		Help: "Answers replaced by a drafter rewrite",
	})

	pipelineLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "legalai_pipeline_seconds",
		Help:    "End-to-end query resolution latency in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
	})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(queriesTotal, cacheLookups, corpusFailures, verdicts, redrafts, pipelineLatency)
	})
}

// IncQuery counts one handled query by operation name.
func IncQuery(operation string) {
	ensureRegistered()
	queriesTotal.WithLabelValues(operation).Inc()
}

// IncCacheLookup records a cache lookup outcome.
func IncCacheLookup(outcome string) {
	ensureRegistered()
	cacheLookups.WithLabelValues(outcome).Inc()
}

// IncCorpusFailure records a retrieval failure degraded to an empty result.
func IncCorpusFailure(corpus string) {
	ensureRegistered()
	corpusFailures.WithLabelValues(corpus).Inc()
}

// IncVerdict records a verifier outcome.
func IncVerdict(verdict string) {
	ensureRegistered()
	verdicts.WithLabelValues(verdict).Inc()
}

// IncRedraft counts an answer replaced by a drafter rewrite.
func IncRedraft() {
	ensureRegistered()
	redrafts.Inc()
}

// ObservePipeline records end-to-end query latency.
func ObservePipeline(start time.Time) {
	ensureRegistered()
	pipelineLatency.Observe(time.Since(start).Seconds())
}
