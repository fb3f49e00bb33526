// Package metrics defines and registers all custom Prometheus metrics for
// the hospital management API. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register with the default Prometheus registry at init time via
// promauto; mount promhttp.Handler() on /metrics to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hms"

// HTTPRequestsTotal counts handled HTTP requests.
// Labels:
//   - method: HTTP method
//   - path: route template (e.g. "/api/v1/patients/:id")
//   - status: numeric response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled.",
	},
	[]string{"method", "path", "status"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP request handling.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"method", "path"},
)

// AuthResolutionsTotal counts bearer credential resolutions.
// Label:
//   - result: "ok", "invalid_token", "session_revoked", "subject_inactive",
//     "subject_not_found", or "role_misconfigured"
var AuthResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_resolutions_total",
		Help:      "Total number of bearer credential resolutions, by result.",
	},
	[]string{"result"},
)

// AuthzDecisionsTotal counts authorization decisions.
// Labels:
//   - resource: resource kind (e.g. "patient", "bill")
//   - action: "read", "list", "create", "update", or "delete"
//   - decision: "allow" or "deny"
var AuthzDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_decisions_total",
		Help:      "Total number of access policy decisions, by resource, action, and outcome.",
	},
	[]string{"resource", "action", "decision"},
)

// SessionsActive tracks sessions believed active (created minus revoked)
// since process start.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Sessions created minus sessions revoked since process start.",
	},
)

// AppointmentsBookedTotal counts appointment creations.
// Label:
//   - status: initial status, normally "SCHEDULED"
var AppointmentsBookedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointments_booked_total",
		Help:      "Total number of appointments booked.",
	},
	[]string{"status"},
)

// PaymentsRecordedTotal counts recorded bill payments.
// Label:
//   - bill_status: the bill status after the payment ("PAID" or "PARTIAL")
var PaymentsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_recorded_total",
		Help:      "Total number of bill payments recorded, by resulting bill status.",
	},
	[]string{"bill_status"},
)

// AdmissionsTotal counts bed admissions and discharges.
// Label:
//   - event: "admit", "discharge", or "transfer"
var AdmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admissions_total",
		Help:      "Total number of admission lifecycle events.",
	},
	[]string{"event"},
)

// LabResultsRecordedTotal counts recorded lab results.
// Label:
//   - flag: the result status ("NORMAL", "ABNORMAL", "CRITICAL", "PENDING")
var LabResultsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lab_results_recorded_total",
		Help:      "Total number of lab results recorded, by result flag.",
	},
	[]string{"flag"},
)

// NotificationsSentTotal counts in-app notifications created.
// Label:
//   - type: the notification type ("APPOINTMENT_REMINDER", "BILL_DUE", ...)
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of in-app notifications created, by type.",
	},
	[]string{"type"},
)
