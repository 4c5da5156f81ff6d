package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		checkoutSessionsTotal,
		activationTotal,
		gatewayBootstrapFailures,
	)
}

var (
	checkoutSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Terminal gateway session outcomes (succeeded/cancelled).",
		},
		[]string{"outcome"},
	)

	activationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_activations_total",
			Help: "Activation commits by path (confirmed/overridden/fallback).",
		},
		[]string{"path"},
	)

	gatewayBootstrapFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_gateway_bootstrap_failures_total",
			Help: "Failed attempts to bootstrap the hosted checkout gateway.",
		},
	)
)

func IncSessionOutcome(outcome string) {
	checkoutSessionsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncActivation(path string) {
	activationTotal.WithLabelValues(norm(path)).Inc()
}

func IncGatewayBootstrapFailure() {
	gatewayBootstrapFailures.Inc()
}
