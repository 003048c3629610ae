package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReferralClicks counts tracked affiliate link clicks
	ReferralClicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliate_api",
		Name:      "referral_clicks_total",
		Help:      "Number of tracked affiliate link clicks",
	}, []string{"result"})

	// ReferralSignups counts attributed signups
	ReferralSignups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliate_api",
		Name:      "referral_signups_total",
		Help:      "Number of attributed signups",
	}, []string{"result"})

	// CommissionsCreated counts commissions created from paid invoices
	CommissionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "affiliate_api",
		Name:      "commissions_created_total",
		Help:      "Number of commissions created from paid invoices",
	})

	// CommissionsReversed counts commissions reversed on refund
	CommissionsReversed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "affiliate_api",
		Name:      "commissions_reversed_total",
		Help:      "Number of commissions reversed on refund",
	})

	// WebhookEvents counts payment processor events by type and outcome
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affiliate_api",
		Name:      "webhook_events_total",
		Help:      "Number of payment processor webhook events received",
	}, []string{"type", "result"})

	// ExpiredReferrals counts referrals flipped to expired by the sweep
	ExpiredReferrals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "affiliate_api",
		Name:      "expired_referrals_total",
		Help:      "Number of referrals expired by the sweep",
	})
)
