// Package metrics exports user agent statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ghettovoice/sipua/sip"
	"github.com/ghettovoice/sipua/ua"
)

// DefaultNamespace is the metric namespace used when none is given.
const DefaultNamespace = "sipua"

var states = []ua.RegistrationState{
	ua.StateUnregistered,
	ua.StateRegistering,
	ua.StateRegistered,
	ua.StateDeregistering,
}

// Collector implements [ua.Metrics] with Prometheus metrics.
type Collector struct {
	registrations *prometheus.CounterVec
	authRetries   *prometheus.CounterVec
	subscriptions *prometheus.CounterVec
	mwiUpdates    prometheus.Counter
	regState      *prometheus.GaugeVec
	mwiWaiting    prometheus.Gauge
}

var _ ua.Metrics = (*Collector)(nil)

// New creates a collector and registers its metrics with reg.
// If reg is nil, [prometheus.DefaultRegisterer] is used.
func New(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	f := promauto.With(reg)

	c := &Collector{
		registrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Total number of completed REGISTER cycles.",
		}, []string{"operation", "outcome"}),
		authRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_retries_total",
			Help:      "Total number of requests resent with digest credentials.",
		}, []string{"method"}),
		subscriptions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_total",
			Help:      "Total number of MWI subscription outcomes.",
		}, []string{"outcome"}),
		mwiUpdates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mwi_updates_total",
			Help:      "Total number of delivered message summaries.",
		}),
		regState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registration_state",
			Help:      "Current registration state, 1 for the active state.",
		}, []string{"state"}),
		mwiWaiting: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mwi_messages_waiting",
			Help:      "Number of new voice messages from the last message summary.",
		}),
	}
	c.StateChanged(ua.StateUnregistered)
	return c
}

func (c *Collector) RegistrationCompleted(op, outcome string) {
	c.registrations.WithLabelValues(op, outcome).Inc()
}

func (c *Collector) AuthRetried(method sip.RequestMethod) {
	c.authRetries.WithLabelValues(string(method.ToUpper())).Inc()
}

func (c *Collector) SubscriptionCompleted(outcome string) {
	c.subscriptions.WithLabelValues(outcome).Inc()
}

func (c *Collector) MWIUpdated(sum ua.MessageSummary) {
	c.mwiUpdates.Inc()
	c.mwiWaiting.Set(float64(sum.Messages))
}

func (c *Collector) StateChanged(state ua.RegistrationState) {
	for _, st := range states {
		var v float64
		if st == state {
			v = 1
		}
		c.regState.WithLabelValues(string(st)).Set(v)
	}
}
