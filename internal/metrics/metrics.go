// Package metrics holds the Prometheus collectors for ontotree.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "ontotree"

// Outcome labels for mutations.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
)

// Collector holds all Prometheus metrics for the application.
// A nil *Collector is valid and records nothing.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// Graph metrics
	Mutations *prometheus.CounterVec
	Nodes     prometheus.Gauge
	Links     prometheus.Gauge

	// Import metrics
	ImportedTriples prometheus.Counter
	SkippedTriples  prometheus.Counter
	ImportDuration  prometheus.Histogram

	// Projection metrics
	ProjectionDuration prometheus.Histogram
	ProjectionTooLarge prometheus.Counter

	// Storage metrics
	Saves        *prometheus.CounterVec
	NodeChanges  *prometheus.CounterVec
	SaveDuration prometheus.Histogram
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_mutations_total",
				Help:      "Total number of graph store mutations",
			},
			[]string{"operation", "outcome"},
		),
		Nodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Number of nodes in the graph store",
			},
		),
		Links: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_links",
				Help:      "Number of links in the graph store",
			},
		),
		ImportedTriples: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imported_triples_total",
				Help:      "Total number of triples accepted by the hierarchy builder",
			},
		),
		SkippedTriples: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_triples_total",
				Help:      "Total number of triples rejected by the hierarchy builder",
			},
		),
		ImportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "import_duration_seconds",
				Help:      "Import duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ProjectionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "projection_duration_seconds",
				Help:      "Tree projection duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		ProjectionTooLarge: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "projection_too_large_total",
				Help:      "Total number of projections refused for exceeding the node cap",
			},
		),
		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_saves_total",
				Help:      "Total number of graph saves",
			},
			[]string{"status"},
		),
		NodeChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_node_changes_total",
				Help:      "Total number of recorded node changes",
			},
			[]string{"type"},
		),
		SaveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_save_duration_seconds",
				Help:      "Graph save duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		c.Mutations,
		c.Nodes,
		c.Links,
		c.ImportedTriples,
		c.SkippedTriples,
		c.ImportDuration,
		c.ProjectionDuration,
		c.ProjectionTooLarge,
		c.Saves,
		c.NodeChanges,
		c.SaveDuration,
	)

	return c
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordMutation counts one store mutation.
func (c *Collector) RecordMutation(operation string, applied bool) {
	if c == nil {
		return
	}
	outcome := OutcomeRejected
	if applied {
		outcome = OutcomeApplied
	}
	c.Mutations.WithLabelValues(operation, outcome).Inc()
}

// SetGraphSize updates the node and link gauges.
func (c *Collector) SetGraphSize(nodes, links int) {
	if c == nil {
		return
	}
	c.Nodes.Set(float64(nodes))
	c.Links.Set(float64(links))
}

// RecordImport records the outcome of one import run.
func (c *Collector) RecordImport(triples, skipped int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.ImportedTriples.Add(float64(triples))
	c.SkippedTriples.Add(float64(skipped))
	c.ImportDuration.Observe(elapsed.Seconds())
}

// RecordProjection records one tree projection.
func (c *Collector) RecordProjection(elapsed time.Duration, tooLarge bool) {
	if c == nil {
		return
	}
	c.ProjectionDuration.Observe(elapsed.Seconds())
	if tooLarge {
		c.ProjectionTooLarge.Inc()
	}
}

// RecordSave records one graph save and the node changes it produced.
func (c *Collector) RecordSave(created, updated, deleted int, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	c.SaveDuration.Observe(elapsed.Seconds())
	if err != nil {
		c.Saves.WithLabelValues("error").Inc()
		return
	}
	c.Saves.WithLabelValues("ok").Inc()
	c.NodeChanges.WithLabelValues("create").Add(float64(created))
	c.NodeChanges.WithLabelValues("update").Add(float64(updated))
	c.NodeChanges.WithLabelValues("delete").Add(float64(deleted))
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving metrics: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving metrics: %w", err)
		}
		return nil
	}
}
