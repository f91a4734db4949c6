package treesync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// persistDuration tracks replace-all transaction latency by result
	persistDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mindmap_persist_duration_seconds",
		Help:    "Replace-all persist duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"result"})

	// persistNodes tracks how many rows each successful persist wrote
	persistNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mindmap_persist_nodes",
		Help:    "Number of node rows written per persist",
		Buckets: []float64{1, 10, 100, 1000, 10000},
	})

	// persistFailures counts persists that rolled back
	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindmap_persist_failures_total",
		Help: "Total persists that rolled back",
	})

	// reconcileRepairs counts edges and nodes dropped while deriving a tree
	reconcileRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindmap_reconcile_repairs_total",
		Help: "Structural repairs applied while deriving a tree, by kind",
	}, []string{"kind"})

	// protectedDeletes counts refused deletes of the main node
	protectedDeletes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindmap_protected_delete_total",
		Help: "Deletes refused because the target is the main node",
	})
)

const (
	repairDanglingEdge  = "dangling_edge"
	repairSelfEdge      = "self_edge"
	repairExtraParent   = "extra_parent"
	repairCycleEdge     = "cycle_edge"
	repairDuplicateNode = "duplicate_node"
	repairEmptyID       = "empty_id"
)
