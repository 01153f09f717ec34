package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions for the resolution-and-cycle pipeline.
var (
	FilesDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tscircular_files_discovered_total",
		Help: "Total number of source files admitted into the working set.",
	})

	ExtractDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tscircular_extract_duration_seconds",
		Help:    "Time spent extracting imports from a single file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	EdgesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tscircular_edges_extracted_total",
		Help: "Total number of raw import edges emitted by the extractor.",
	})

	UnresolvedSpecifiersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tscircular_unresolved_specifiers_total",
		Help: "Total number of specifiers that did not resolve inside the working set.",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tscircular_graph_nodes_total",
		Help: "Total number of files present in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tscircular_graph_edges_total",
		Help: "Total number of resolved edges present in the dependency graph.",
	})

	CyclesFoundTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tscircular_cycles_found_total",
		Help: "Number of comprehensive cycles reported by the most recent run.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tscircular_analysis_seconds",
		Help:    "Time spent in each named pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tscircular_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherRunsCoalescedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tscircular_watcher_runs_coalesced_total",
		Help: "Total number of file system events folded into an already-scheduled run.",
	})
)
