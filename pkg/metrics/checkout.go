package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout outcomes and best-effort step failures.
type CheckoutMetrics struct {
	outcomes           *prometheus.CounterVec
	bestEffortFailures *prometheus.CounterVec
	paymentDuration    *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Checkout requests by outcome code.",
	}, []string{"outcome"})
	bestEffort := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_best_effort_failures_total",
		Help: "Post-commit checkout steps that failed and were only logged.",
	}, []string{"step"})
	paymentDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_payment_verification_seconds",
		Help:    "Latency of payment provider verification.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	reg.MustRegister(outcomes, bestEffort, paymentDuration)
	return &CheckoutMetrics{
		outcomes:           outcomes,
		bestEffortFailures: bestEffort,
		paymentDuration:    paymentDuration,
	}
}

// IncOutcome counts a finished checkout; "ok" for success or the error code.
func (c *CheckoutMetrics) IncOutcome(outcome string) {
	if c == nil || c.outcomes == nil {
		return
	}
	c.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (c *CheckoutMetrics) IncBestEffortFailure(step string) {
	if c == nil || c.bestEffortFailures == nil {
		return
	}
	c.bestEffortFailures.WithLabelValues(normalizeLabel(step)).Inc()
}

func (c *CheckoutMetrics) ObservePayment(result string, d time.Duration) {
	if c == nil || c.paymentDuration == nil {
		return
	}
	c.paymentDuration.WithLabelValues(normalizeLabel(result)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
