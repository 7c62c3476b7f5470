package server

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.login("success")
	m.login("success")
	m.login("failure")
	m.registration("duplicate")
	m.authRejection("missing")
	m.rateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Logins.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthRejections.WithLabelValues("missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics

	// all recorders must be safe on a nil receiver
	m.login("success")
	m.registration("success")
	m.authRejection("missing")
	m.rateLimited()
}
