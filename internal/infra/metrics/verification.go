package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		verificationRequests,
		verificationDuration,
	)
}

var (
	// result: ok|rejected|transport|malformed
	verificationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_verification_requests_total",
			Help: "Backend verification calls by result.",
		},
		[]string{"result"},
	)

	verificationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_verification_duration_seconds",
			Help:    "Duration of backend verification calls in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)
)

func ObserveVerification(result string, seconds float64) {
	verificationRequests.WithLabelValues(norm(result)).Inc()
	verificationDuration.WithLabelValues(norm(result)).Observe(seconds)
}
