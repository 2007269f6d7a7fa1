// Package metrics defines and registers the custom Prometheus metrics of the
// EcosRev API. It is the single source of truth for metric names, labels and
// help strings. HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ecosrev"

// ── Points metrics ────────────────────────────────────────────────────────────

// CouponsRedeemedTotal counts coupons credited to a user.
var CouponsRedeemedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupons_redeemed_total",
		Help:      "Total number of coupons redeemed for points.",
	},
)

// DuplicateCouponsTotal counts redemptions rejected because the coupon was already used.
var DuplicateCouponsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupons_duplicate_total",
		Help:      "Total number of coupon redemptions rejected as duplicates.",
	},
)

// BenefitsRedeemedTotal counts benefit redemptions that changed a stored quantity.
var BenefitsRedeemedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "benefits_redeemed_total",
		Help:      "Total number of benefit redemptions.",
	},
)

// ── Account metrics ───────────────────────────────────────────────────────────

// PasswordRecoveryTotal counts forgot-password requests.
// Label:
//   - result: "ok" or "error"
var PasswordRecoveryTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_recovery_requests_total",
		Help:      "Total number of password recovery requests, by result.",
	},
	[]string{"result"},
)

// PasswordResetEmailsTotal counts temporary-password emails handed to the SMTP server.
// Label:
//   - result: "sent" or "failed"
var PasswordResetEmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_reset_emails_total",
		Help:      "Total number of password reset emails, by delivery result.",
	},
	[]string{"result"},
)

// ImageUploadsTotal counts profile picture uploads.
// Label:
//   - result: "created", "replaced", "rejected" or "error"
var ImageUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_uploads_total",
		Help:      "Total number of profile picture uploads, by result.",
	},
	[]string{"result"},
)
