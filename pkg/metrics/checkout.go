package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records cart, stock and payment events.
type CheckoutMetrics struct {
	cartsCreated        prometheus.Counter
	cartRacesRecovered  prometheus.Counter
	referenceCollisions prometheus.Counter
	paymentsProcessed   *prometheus.CounterVec
	paymentDuration     *prometheus.HistogramVec
	stockChecks         *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	m := &CheckoutMetrics{
		cartsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_carts_created_total",
			Help: "Carts inserted for identities without one.",
		}),
		cartRacesRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_create_races_recovered_total",
			Help: "Cart inserts that lost a concurrent race and re-read the winner.",
		}),
		referenceCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_payment_reference_collisions_total",
			Help: "Payment reference tokens discarded because they were already taken.",
		}),
		paymentsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_payments_processed_total",
			Help: "Payments persisted, by payment type.",
		}, []string{"payment_type"}),
		paymentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_payment_processing_duration_seconds",
			Help:    "Duration of payment processing in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		stockChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_stock_checks_total",
			Help: "Cart stock checks, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.cartsCreated,
		m.cartRacesRecovered,
		m.referenceCollisions,
		m.paymentsProcessed,
		m.paymentDuration,
		m.stockChecks,
	)
	return m
}

func (m *CheckoutMetrics) IncCartCreated() {
	if m == nil || m.cartsCreated == nil {
		return
	}
	m.cartsCreated.Inc()
}

func (m *CheckoutMetrics) IncCartRaceRecovered() {
	if m == nil || m.cartRacesRecovered == nil {
		return
	}
	m.cartRacesRecovered.Inc()
}

func (m *CheckoutMetrics) IncReferenceCollision() {
	if m == nil || m.referenceCollisions == nil {
		return
	}
	m.referenceCollisions.Inc()
}

func (m *CheckoutMetrics) IncPaymentProcessed(paymentType string) {
	if m == nil || m.paymentsProcessed == nil {
		return
	}
	m.paymentsProcessed.WithLabelValues(normalizeLabel(paymentType)).Inc()
}

// ObservePayment records how long a payment attempt took and whether it succeeded.
func (m *CheckoutMetrics) ObservePayment(outcome string, duration time.Duration) {
	if m == nil || m.paymentDuration == nil {
		return
	}
	m.paymentDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

func (m *CheckoutMetrics) IncStockCheck(outcome string) {
	if m == nil || m.stockChecks == nil {
		return
	}
	m.stockChecks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
