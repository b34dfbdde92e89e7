// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginTotal counts login attempts by result.
	LoginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_total",
		Help: "Login attempts partitioned by result.",
	}, []string{"result"})

	// VerificationCodesIssued counts codes issued by purpose.
	VerificationCodesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_verification_codes_issued_total",
		Help: "Verification codes issued, by purpose.",
	}, []string{"purpose"})

	// ThrottledTotal counts requests rejected by the code throttle.
	ThrottledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_throttled_total",
		Help: "Requests rejected by throttling, by action.",
	}, []string{"action"})

	// MailDispatchFailures counts emails that could not be handed off or sent.
	MailDispatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mail_dispatch_failures_total",
		Help: "Emails that failed to send or enqueue.",
	})

	// FederatedLogins counts external identity logins by outcome.
	FederatedLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_federated_logins_total",
		Help: "Federated logins, by provider and whether a user was created.",
	}, []string{"provider", "created"})
)

// Login result labels.
const (
	LoginSuccess     = "success"
	LoginNotFound    = "not_found"
	LoginBadPassword = "bad_password"
	LoginUnverified  = "unverified"
	LoginBanned      = "banned"
	LoginError       = "error"
)
