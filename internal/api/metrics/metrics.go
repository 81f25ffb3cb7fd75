// Package metrics defines and registers the custom Prometheus metrics for the
// messagely API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on import and
// served by the /metrics route alongside echoprometheus' HTTP metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "messagely"

// ── Account metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts accounts created successfully.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts registered.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// ── Message metrics ───────────────────────────────────────────────────────────

// MessagesSentTotal counts messages accepted by POST /messages, including
// idempotent replays.
var MessagesSentTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Total number of messages sent.",
	},
)

// MessagesReadTotal counts successful mark-read requests.
var MessagesReadTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_read_total",
		Help:      "Total number of mark-read requests that succeeded.",
	},
)

// PolicyDenialsTotal counts requests rejected by the access policy.
// Label:
//   - action: "read_message", "mark_read", "send_as" or "view_mailbox"
var PolicyDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_denials_total",
		Help:      "Total number of requests denied by the access policy, by action.",
	},
	[]string{"action"},
)

const (
	ActionReadMessage = "read_message"
	ActionMarkRead    = "mark_read"
	ActionSendAs      = "send_as"
	ActionViewMailbox = "view_mailbox"
)
