// Package metrics exports assistant runtime metrics in Prometheus format:
// chat turns, tool calls, cache traffic, LLM usage, and circuit breaker
// transitions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter owns a registry-scoped set of collectors. A nil *Exporter is a
// valid no-op receiver, so optional wiring stays branch-free at call sites.
type Exporter struct {
	registry *prometheus.Registry

	// Chat turn metrics
	turnLatency *prometheus.HistogramVec
	turns       *prometheus.CounterVec
	turnsActive prometheus.Gauge

	// Tool call metrics
	toolCalls   *prometheus.CounterVec
	toolLatency *prometheus.HistogramVec

	// Cache metrics, labelled by namespace
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// LLM usage
	llmTokens  *prometheus.CounterVec
	llmLatency *prometheus.HistogramVec

	// Circuit breaker transitions
	breakerTransitions *prometheus.CounterVec
}

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one).
	Registry *prometheus.Registry

	// Buckets for latency histograms, in seconds.
	LatencyBuckets []float64
}

// DefaultConfig returns the default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewExporter creates an Exporter and registers its collectors.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.turnLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartshop",
			Subsystem: "assistant",
			Name:      "turn_latency_seconds",
			Help:      "Full chat turn latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"intent", "agent"},
	)

	e.turns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartshop",
			Subsystem: "assistant",
			Name:      "turns_total",
			Help:      "Total number of chat turns",
		},
		[]string{"intent", "agent", "status"},
	)

	e.turnsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "smartshop",
			Subsystem: "assistant",
			Name:      "turns_active",
			Help:      "Number of chat turns currently in flight",
		},
	)

	e.toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartshop",
			Subsystem: "assistant",
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls",
		},
		[]string{"tool", "status"},
	)

	e.toolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartshop",
			Subsystem: "assistant",
			Name:      "tool_latency_seconds",
			Help:      "Tool call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"tool"},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartshop",
			Subsystem: "assistant",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"namespace"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartshop",
			Subsystem: "assistant",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"namespace"},
	)

	e.llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartshop",
			Subsystem: "assistant",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"agent", "token_type"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartshop",
			Subsystem: "assistant",
			Name:      "llm_latency_seconds",
			Help:      "LLM round-trip latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"agent"},
	)

	e.breakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartshop",
			Subsystem: "assistant",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions",
		},
		[]string{"agent", "transition"},
	)

	registry.MustRegister(
		e.turnLatency,
		e.turns,
		e.turnsActive,
		e.toolCalls,
		e.toolLatency,
		e.cacheHits,
		e.cacheMisses,
		e.llmTokens,
		e.llmLatency,
		e.breakerTransitions,
	)

	return e
}

// RecordTurn records one completed chat turn.
func (e *Exporter) RecordTurn(intent, agent string, latency time.Duration, success bool) {
	if e == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	e.turns.WithLabelValues(intent, agent, status).Inc()
	e.turnLatency.WithLabelValues(intent, agent).Observe(latency.Seconds())
}

// TurnStarted increments the in-flight gauge; TurnFinished decrements it.
func (e *Exporter) TurnStarted() {
	if e == nil {
		return
	}
	e.turnsActive.Inc()
}

func (e *Exporter) TurnFinished() {
	if e == nil {
		return
	}
	e.turnsActive.Dec()
}

// RecordToolCall records one tool invocation.
func (e *Exporter) RecordToolCall(tool string, latency time.Duration, success bool) {
	if e == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	e.toolCalls.WithLabelValues(tool, status).Inc()
	e.toolLatency.WithLabelValues(tool).Observe(latency.Seconds())
}

// RecordCacheHit records a hit in a cache namespace.
func (e *Exporter) RecordCacheHit(namespace string) {
	if e == nil {
		return
	}
	e.cacheHits.WithLabelValues(namespace).Inc()
}

// RecordCacheMiss records a miss in a cache namespace.
func (e *Exporter) RecordCacheMiss(namespace string) {
	if e == nil {
		return
	}
	e.cacheMisses.WithLabelValues(namespace).Inc()
}

// RecordLLMCall records token usage and latency for one completion call.
func (e *Exporter) RecordLLMCall(agent string, promptTokens, completionTokens int, latency time.Duration) {
	if e == nil {
		return
	}
	e.llmTokens.WithLabelValues(agent, "prompt").Add(float64(promptTokens))
	e.llmTokens.WithLabelValues(agent, "completion").Add(float64(completionTokens))
	e.llmLatency.WithLabelValues(agent).Observe(latency.Seconds())
}

// RecordBreakerTransition records a circuit breaker state change.
func (e *Exporter) RecordBreakerTransition(agent, from, to string) {
	if e == nil {
		return
	}
	e.breakerTransitions.WithLabelValues(agent, from+"->"+to).Inc()
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
