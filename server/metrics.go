package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts the security-relevant outcomes the API produces. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Logins         *prometheus.CounterVec
	Registrations  *prometheus.CounterVec
	AuthRejections *prometheus.CounterVec
	RateLimited    prometheus.Counter
}

// NewMetrics registers the devconnect collectors on reg. Pass
// prometheus.DefaultRegisterer outside of tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "devconnect_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "devconnect_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		AuthRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "devconnect_auth_rejections_total",
			Help: "Requests rejected by the token gate, by reason.",
		}, []string{"reason"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "devconnect_login_rate_limited_total",
			Help: "Login requests refused by the per-client rate limiter.",
		}),
	}
}

func (m *Metrics) login(outcome string) {
	if m != nil {
		m.Logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) registration(outcome string) {
	if m != nil {
		m.Registrations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) authRejection(reason string) {
	if m != nil {
		m.AuthRejections.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) rateLimited() {
	if m != nil {
		m.RateLimited.Inc()
	}
}
