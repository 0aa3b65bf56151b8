// Package metrics defines and registers all custom Prometheus metrics for the
// tours API. It is the single source of truth for metric names, labels, and
// help strings. Everything is registered through promauto at package load;
// core services never import this package, counters are incremented at the
// API boundary and in the repair dispatcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tours"

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

// TokenVerificationsTotal counts access-token checks in the session guard.
// Label:
//   - result: "ok", "expired", "invalid", "stale", "gone"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of access token verifications, by result.",
	},
	[]string{"result"},
)

// ResetTokensIssuedTotal counts password-reset tokens issued and delivered.
var ResetTokensIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reset_tokens_issued_total",
		Help:      "Total number of password reset tokens issued.",
	},
)

// ReviewsWrittenTotal counts review mutations that reached the store.
// Label:
//   - op: "create", "update", "delete"
var ReviewsWrittenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reviews_written_total",
		Help:      "Total number of review mutations, by operation.",
	},
	[]string{"op"},
)

// RatingRecomputeTotal counts repair recomputations of the denormalized
// rating summary.
// Label:
//   - result: "ok" or "error"
var RatingRecomputeTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rating_recompute_total",
		Help:      "Total number of rating summary recomputations, by result.",
	},
	[]string{"result"},
)

// RatingRecomputeDuration measures how long one summary recompute takes.
var RatingRecomputeDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rating_recompute_duration_seconds",
		Help:      "Duration of a single rating summary recompute.",
		Buckets:   prometheus.DefBuckets,
	},
)

// RateLimitedTotal counts requests rejected by the credential rate limiter.
// Label:
//   - scope: "login" or "forgot"
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"scope"},
)
