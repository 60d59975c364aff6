package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sweetdelights"

// Storefront records cart, checkout and auth activity.
type Storefront struct {
	cartMutations *prometheus.CounterVec
	checkoutSteps *prometheus.CounterVec
	payments      *prometheus.HistogramVec
	logins        *prometheus.CounterVec
	inquiries     prometheus.Counter
}

// NewStorefront registers the storefront metrics on reg. A nil registerer yields a no-op recorder.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	s := &Storefront{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart state transitions by operation.",
		}, []string{"op"}),
		checkoutSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_steps_total",
			Help:      "Checkout step submissions by step and outcome.",
		}, []string{"step", "outcome"}),
		payments: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_processing_seconds",
			Help:      "Time spent in simulated payment processing.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"shipping_method"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Login and registration attempts by kind and outcome.",
		}, []string{"kind", "outcome"}),
		inquiries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_inquiries_total",
			Help:      "Contact inquiries accepted.",
		}),
	}
	reg.MustRegister(s.cartMutations, s.checkoutSteps, s.payments, s.logins, s.inquiries)
	return s
}

func (s *Storefront) IncCartMutation(op string) {
	if s == nil || s.cartMutations == nil {
		return
	}
	s.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncCheckoutStep counts a step submission; outcome is "accepted" or "rejected".
func (s *Storefront) IncCheckoutStep(step, outcome string) {
	if s == nil || s.checkoutSteps == nil {
		return
	}
	s.checkoutSteps.WithLabelValues(normalizeLabel(step), normalizeLabel(outcome)).Inc()
}

func (s *Storefront) ObservePayment(method string, d time.Duration) {
	if s == nil || s.payments == nil {
		return
	}
	s.payments.WithLabelValues(normalizeLabel(method)).Observe(d.Seconds())
}

func (s *Storefront) IncAuthAttempt(kind, outcome string) {
	if s == nil || s.logins == nil {
		return
	}
	s.logins.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

func (s *Storefront) IncContactInquiry() {
	if s == nil || s.inquiries == nil {
		return
	}
	s.inquiries.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
