// Package metrics exposes the auth-api Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrationsTotal counts user registrations.
	RegistrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_api_registrations_total",
		Help: "Number of users registered.",
	})

	// LoginsTotal counts login attempts by outcome.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_api_logins_total",
		Help: "Number of login attempts by outcome.",
	}, []string{"outcome"})

	// TokenVerificationsTotal counts service-to-service token checks by outcome.
	TokenVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_api_token_verifications_total",
		Help: "Number of token verification requests by outcome.",
	}, []string{"outcome"})

	// OTPMailsTotal counts OTP mail deliveries by outcome.
	OTPMailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_api_otp_mails_total",
		Help: "Number of OTP mails by delivery outcome.",
	}, []string{"outcome"})

	// SweepsTotal counts maintenance sweeps of expired OTPs and denylist rows.
	SweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_api_sweeps_total",
		Help: "Number of expiry sweep runs.",
	})
)
