// Package metrics defines and registers all custom Prometheus metrics for the
// order manager. It is the single source of truth for metric names, labels,
// and help strings.
//
// The process has no HTTP listener: metrics are written once at shutdown in
// the node-exporter textfile format with WriteTextfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ordermanager"

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts newly created orders.
// Label:
//   - kind: the order kind (e.g. "Logo")
var OrdersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders created, by kind.",
	},
	[]string{"kind"},
)

// OrderStatusChangesTotal counts status changes applied by editors.
// Label:
//   - status: the new status
var OrderStatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_changes_total",
		Help:      "Total number of order status changes, by resulting status.",
	},
	[]string{"status"},
)

// OrdersDeletedTotal counts deleted orders.
// Label:
//   - role: role of the user who deleted it
var OrdersDeletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_deleted_total",
		Help:      "Total number of orders deleted, by acting role.",
	},
	[]string{"role"},
)

// OrderRejectionsTotal counts mutations refused by the data layer.
// Label:
//   - reason: "locked", "forbidden", "not_found", "invalid_transition", "validation", "assigned"
var OrderRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_rejections_total",
		Help:      "Total number of rejected order operations, by reason.",
	},
	[]string{"reason"},
)

// ── User metrics ──────────────────────────────────────────────────────────────

// UsersRegisteredTotal counts successful registrations.
var UsersRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of registered users, by role.",
	},
	[]string{"role"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Persistence metrics ───────────────────────────────────────────────────────

// PersistenceDuration measures a full save or load pass.
// Labels:
//   - operation: "save" or "load"
//   - backend: "csv" or "sqlite"
var PersistenceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "persistence_duration_seconds",
		Help:      "Duration of a full snapshot save or load.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation", "backend"},
)

// PersistenceErrorsTotal counts failed save or load passes.
var PersistenceErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persistence_errors_total",
		Help:      "Total number of failed snapshot saves or loads.",
	},
	[]string{"operation", "backend"},
)

// RecordsSkippedTotal counts persisted rows ignored while loading.
// Label:
//   - reason: "short_row", "bad_id", "bad_date", "duplicate", "section_mismatch", "unknown_type"
var RecordsSkippedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_skipped_total",
		Help:      "Total number of persisted records skipped while loading, by reason.",
	},
	[]string{"reason"},
)

// WriteTextfile writes every registered metric to path, atomically, in the
// Prometheus text exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
