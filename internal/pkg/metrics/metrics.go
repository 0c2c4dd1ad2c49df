// Package metrics defines and registers the custom Prometheus metrics of the
// portfolio API. It is the single source of truth for metric names, labels
// and help strings.
//
// Metrics are registered with the default registry at package init through
// promauto; HTTP request metrics are added separately by the echoprometheus
// middleware in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portfolio"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthRequestsTotal counts register and login attempts.
// Labels:
//   - operation: "register" or "login"
//   - result: "success", "conflict", "invalid_credentials" or "error"
var AuthRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_requests_total",
		Help:      "Total number of register and login attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// PrincipalLookupsTotal counts principal resolutions for bearer tokens.
// Label:
//   - source: "cache", "store" or "none" (user could not be resolved)
var PrincipalLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "principal_lookups_total",
		Help:      "Total number of principal resolutions, by where the principal came from.",
	},
	[]string{"source"},
)

// ── User directory metrics ───────────────────────────────────────────────────

// UserOperationsTotal counts directory operations.
// Labels:
//   - operation: "create", "list", "get", "update", "update_password", "delete", "stats"
//   - result: "success", "forbidden", "not_found", "conflict", "bad_request" or "error"
var UserOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_operations_total",
		Help:      "Total number of user directory operations, by outcome.",
	},
	[]string{"operation", "result"},
)

// SideEffectFailuresTotal counts best-effort calls that failed and were
// swallowed after the primary operation succeeded.
// Label:
//   - operation: "mirror_password", "delete_account", "rollback_account", "reconcile_hash", "cache"
var SideEffectFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "side_effect_failures_total",
		Help:      "Total number of best-effort side effects that failed without failing the request.",
	},
	[]string{"operation"},
)

// IdentityProviderDuration measures identity provider round trips.
// Labels:
//   - operation: "create_account", "authenticate", "update_password", "delete_account"
//   - status: HTTP status code, or "transport_error"
var IdentityProviderDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "identity_provider_request_duration_seconds",
		Help:      "Duration of identity provider HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation", "status"},
)
