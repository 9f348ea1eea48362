// Package metrics defines the custom Prometheus metrics of the Celan IA
// server. HTTP request metrics come from echoprometheus; everything here is
// domain level.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/celanai/celan/internal/core/domain"
)

const namespace = "celan"

// ── Edge gate ─────────────────────────────────────────────────────────────────

// GateDecisionsTotal counts gate outcomes.
// Label:
//   - decision: "continue", "redirect_login" or "redirect_dashboard"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of edge gate decisions, by decision.",
	},
	[]string{"decision"},
)

// ── Accounts ──────────────────────────────────────────────────────────────────

// AuthOperationsTotal counts account operations.
// Labels:
//   - operation: "signup", "login", "logout", "update_plan"
//   - result: see Result
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of account operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// ── Agents ────────────────────────────────────────────────────────────────────

// AgentOperationsTotal counts agent list mutations and reads.
// Labels:
//   - operation: "create", "list", "update_status", "toggle", "run", "delete"
//   - result: see Result
var AgentOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "agent_operations_total",
		Help:      "Total number of agent operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// ── Chat ──────────────────────────────────────────────────────────────────────

// ChatRequestsTotal counts chat proxy requests.
// Label:
//   - result: "ok", "invalid", "unconfigured", "upstream_auth", "rate_limited", "error"
var ChatRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_requests_total",
		Help:      "Total number of chat proxy requests, by result.",
	},
	[]string{"result"},
)

// ChatCompletionDuration measures the upstream completion call.
var ChatCompletionDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chat_completion_duration_seconds",
		Help:      "Duration of completion calls made by the chat proxy.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	},
)

// Result collapses an operation error into a low-cardinality label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAgentNotFound), errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "unauthorized"
	case errors.Is(err, domain.ErrEmptyAgentName),
		errors.Is(err, domain.ErrInvalidAgentType),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPlan),
		errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrUserExists):
		return "invalid"
	default:
		return "error"
	}
}

// ObserveAgentOp records one agent operation.
func ObserveAgentOp(operation string, err error) {
	AgentOperationsTotal.WithLabelValues(operation, Result(err)).Inc()
}

// ObserveAuthOp records one account operation.
func ObserveAuthOp(operation string, err error) {
	AuthOperationsTotal.WithLabelValues(operation, Result(err)).Inc()
}

// ChatResult maps a chat error to the chat_requests_total label.
func ChatResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidMessages):
		return "invalid"
	case errors.Is(err, domain.ErrMissingCredential):
		return "unconfigured"
	case errors.Is(err, domain.ErrUpstreamAuth):
		return "upstream_auth"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return "rate_limited"
	default:
		return "error"
	}
}
