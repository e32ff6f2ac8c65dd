package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	securityEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_security_events_total",
		Help: "Total number of security events logged, by type and severity",
	}, []string{"type", "severity"})
	accountsFlaggedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_accounts_flagged_total",
		Help: "Total number of account flag upserts, by reason",
	}, []string{"reason"})
	verificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_screenshot_verifications_total",
		Help: "Total number of screenshot submissions, by automatic-check outcome",
	}, []string{"status"})
	bansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_account_bans_total",
		Help: "Total number of ban actions applied, by ban type",
	}, []string{"ban_type"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(securityEventsTotal, accountsFlaggedTotal, verificationsTotal, bansTotal)
}

// IncSecurityEvent increments the event counter for one logged event.
func IncSecurityEvent(eventType, severity string) {
	securityEventsTotal.WithLabelValues(eventType, severity).Inc()
}

// IncAccountFlagged increments the flag counter.
func IncAccountFlagged(reason string) { accountsFlaggedTotal.WithLabelValues(reason).Inc() }

// IncVerification increments the submission counter.
func IncVerification(status string) { verificationsTotal.WithLabelValues(status).Inc() }

// IncBan increments the ban counter.
func IncBan(banType string) { bansTotal.WithLabelValues(banType).Inc() }
