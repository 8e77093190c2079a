// Package telemetry provides business-level Prometheus metrics for the tax
// subsystem.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TaxMetrics holds Prometheus metrics for tax calculation and snapshot
// locking. Labels stay low-cardinality: jurisdiction, regime, and source
// type only — never tenant-supplied identifiers.
type TaxMetrics struct {
	// Calculations
	CalculationsTotal   *prometheus.CounterVec // jurisdiction, regime
	CalculationFailures *prometheus.CounterVec // code

	// Snapshot locking
	SnapshotsLocked     *prometheus.CounterVec // source_type, jurisdiction
	SnapshotLockReplays *prometheus.CounterVec // source_type
	SnapshotLockRaces   prometheus.Counter

	// Amounts
	TaxTotalCents *prometheus.HistogramVec // jurisdiction
}

// NewTaxMetrics creates and registers all tax metrics.
func NewTaxMetrics(namespace string) *TaxMetrics {
	if namespace == "" {
		namespace = "kerniflow"
	}

	subsystem := "tax"

	return &TaxMetrics{
		CalculationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculations_total",
				Help:      "Total tax calculations performed",
			},
			[]string{"jurisdiction", "regime"},
		),
		CalculationFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculation_failures_total",
				Help:      "Total failed tax calculations by error code",
			},
			[]string{"code"},
		),
		SnapshotsLocked: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "snapshots_locked_total",
				Help:      "Total tax snapshots created",
			},
			[]string{"source_type", "jurisdiction"},
		),
		SnapshotLockReplays: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "snapshot_lock_replays_total",
				Help:      "Total idempotent lock requests that returned an existing snapshot",
			},
			[]string{"source_type"},
		),
		SnapshotLockRaces: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "snapshot_lock_races_total",
				Help:      "Total concurrent lock requests resolved by the storage uniqueness constraint",
			},
		),
		TaxTotalCents: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "snapshot_tax_total_cents",
				Help:      "Tax totals of locked snapshots in minor currency units",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"jurisdiction"},
		),
	}
}
