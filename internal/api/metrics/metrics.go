// Package metrics defines and registers the custom Prometheus metrics of the
// VetSystem API. It is the single source of truth for metric names, labels
// and help strings.
//
// Metrics register themselves with the default registry through promauto,
// which is what the /metrics endpoint of the ops router serves.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vetsystem"

// ── Access metrics ────────────────────────────────────────────────────────────

// AccessDecisionsTotal counts module permission checks.
// Labels:
//   - module: the module that was checked (e.g. "finance")
//   - result: "allow" or "deny"
var AccessDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Total number of module access decisions, by module and result.",
	},
	[]string{"module", "result"},
)

// SessionSwitchesTotal counts tenant and branch switches.
// Labels:
//   - kind: "branch" or "tenant"
//   - result: "changed", "noop" or the rejection reason
var SessionSwitchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_switches_total",
		Help:      "Total number of session context switch attempts.",
	},
	[]string{"kind", "result"},
)

// LoginsTotal counts login attempts by result ("success" or the failure reason).
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts.",
	},
	[]string{"result"},
)

// ── Call metrics ──────────────────────────────────────────────────────────────

// CallEventsTotal counts telephony webhooks.
// Label:
//   - result: "accepted", "rejected_signature", "invalid" or "queue_full"
var CallEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "call_events_total",
		Help:      "Total number of telephony webhook events received.",
	},
	[]string{"result"},
)

// CallsProcessedTotal counts dispatcher results.
// Label:
//   - result: "ok" or "error"
var CallsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calls_processed_total",
		Help:      "Total number of call events processed by the dispatcher.",
	},
	[]string{"result"},
)

// CallQueueDepth tracks the events waiting in each dispatcher shard.
// Label:
//   - worker_id: numeric shard index (e.g. "0", "1", …)
var CallQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "call_queue_depth",
		Help:      "Current number of call events pending in each dispatcher shard.",
	},
	[]string{"worker_id"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts notification deliveries.
// Labels:
//   - channel: "email", "telegram" or "sms"
//   - result: "delivered" or "failed"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notification deliveries, by channel and result.",
	},
	[]string{"channel", "result"},
)

// RecordDelivery counts one notification delivery.
func RecordDelivery(channel string, success bool) {
	result := "failed"
	if success {
		result = "delivered"
	}
	NotificationsTotal.WithLabelValues(channel, result).Inc()
}

// RecordAccess counts one access decision.
func RecordAccess(module string, allowed bool) {
	result := "deny"
	if allowed {
		result = "allow"
	}
	if module == "" {
		module = "none"
	}
	AccessDecisionsTotal.WithLabelValues(module, result).Inc()
}

// DispatcherObserver feeds the call queue metrics from the dispatcher.
type DispatcherObserver struct{}

func (DispatcherObserver) Enqueued(shard int) {
	CallQueueDepth.WithLabelValues(strconv.Itoa(shard)).Inc()
}

func (DispatcherObserver) Processed(shard int, err error) {
	CallQueueDepth.WithLabelValues(strconv.Itoa(shard)).Dec()
	result := "ok"
	if err != nil {
		result = "error"
	}
	CallsProcessedTotal.WithLabelValues(result).Inc()
}
