package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Storefront records cart, checkout and geocoding activity.
type Storefront struct {
	cartMutations  *prometheus.CounterVec
	checkouts      *prometheus.CounterVec
	deliveryPolls  *prometheus.CounterVec
	geocodes       *prometheus.CounterVec
	submitDuration prometheus.Histogram
}

// NewStorefront registers the storefront metrics on the provided registerer.
// A nil registerer yields a recorder whose methods are no-ops.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Checkout attempts by final state.",
	}, []string{"state"})
	deliveryPolls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_polls_total",
		Help: "Delivery status polls by result.",
	}, []string{"result"})
	geocodes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocode_requests_total",
		Help: "Geocoding lookups by kind and result.",
	}, []string{"kind", "result"})
	submitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_submit_duration_seconds",
		Help:    "Duration of order submission calls in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(cartMutations, checkouts, deliveryPolls, geocodes, submitDuration)
	return &Storefront{
		cartMutations:  cartMutations,
		checkouts:      checkouts,
		deliveryPolls:  deliveryPolls,
		geocodes:       geocodes,
		submitDuration: submitDuration,
	}
}

// CartMutation counts a cart operation outcome.
func (s *Storefront) CartMutation(op, result string) {
	if s == nil || s.cartMutations == nil {
		return
	}
	s.cartMutations.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

// CheckoutOutcome counts a checkout attempt reaching state.
func (s *Storefront) CheckoutOutcome(state string) {
	if s == nil || s.checkouts == nil {
		return
	}
	s.checkouts.WithLabelValues(normalizeLabel(state)).Inc()
}

// DeliveryPoll counts one delivery status poll.
func (s *Storefront) DeliveryPoll(result string) {
	if s == nil || s.deliveryPolls == nil {
		return
	}
	s.deliveryPolls.WithLabelValues(normalizeLabel(result)).Inc()
}

// Geocode counts one forward or reverse lookup.
func (s *Storefront) Geocode(kind, result string) {
	if s == nil || s.geocodes == nil {
		return
	}
	s.geocodes.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)).Inc()
}

// ObserveSubmit records how long order creation took.
func (s *Storefront) ObserveSubmit(d time.Duration) {
	if s == nil || s.submitDuration == nil {
		return
	}
	s.submitDuration.Observe(d.Seconds())
}

// Result maps an error to the result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
