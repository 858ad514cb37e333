package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "confsync"

// Metrics holds the collectors of one daemon instance
type Metrics struct {
	registry *prometheus.Registry

	notifiesSent       *prometheus.CounterVec
	notifiesReceived   *prometheus.CounterVec
	resyncs            *prometheus.CounterVec
	registrationStates *prometheus.CounterVec
	accounts           *prometheus.GaugeVec
	subscribers        *prometheus.GaugeVec
	participants       *prometheus.GaugeVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		notifiesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifies_sent_total",
			Help:      "Conference-info documents sent by local conferences.",
		}, []string{"conference", "kind"}),
		notifiesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifies_received_total",
			Help:      "Conference-info documents received for remote conferences.",
		}, []string{"conference", "result"}),
		resyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resyncs_total",
			Help:      "Resubscriptions caused by a notify version gap.",
		}, []string{"conference"}),
		registrationStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_state_changes_total",
			Help:      "Registration states reported by proxy accounts.",
		}, []string{"state"}),
		accounts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts",
			Help:      "Proxy accounts by registration state.",
		}, []string{"state"}),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conference_subscribers",
			Help:      "Subscribers of a local conference.",
		}, []string{"conference"}),
		participants: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conference_participants",
			Help:      "Participants known for a conference.",
		}, []string{"conference", "side"}),
	}
	m.registry.MustRegister(
		m.notifiesSent,
		m.notifiesReceived,
		m.resyncs,
		m.registrationStates,
		m.accounts,
		m.subscribers,
		m.participants,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the private registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NotifySent counts a document sent to subscribers. kind is "full" or "partial".
func (m *Metrics) NotifySent(conference, kind string) {
	m.notifiesSent.WithLabelValues(conference, kind).Inc()
}

// NotifyReceived counts a document by how the remote handler took it
func (m *Metrics) NotifyReceived(conference, result string) {
	m.notifiesReceived.WithLabelValues(conference, result).Inc()
}

func (m *Metrics) Resync(conference string) {
	m.resyncs.WithLabelValues(conference).Inc()
}

func (m *Metrics) RegistrationState(state string) {
	m.registrationStates.WithLabelValues(state).Inc()
}

// SetAccounts replaces the per-state account gauge
func (m *Metrics) SetAccounts(byState map[string]int) {
	m.accounts.Reset()
	for state, n := range byState {
		m.accounts.WithLabelValues(state).Set(float64(n))
	}
}

func (m *Metrics) SetSubscribers(conference string, n int) {
	m.subscribers.WithLabelValues(conference).Set(float64(n))
}

// SetParticipants records the model size. side is "local" or "remote".
func (m *Metrics) SetParticipants(conference, side string, n int) {
	m.participants.WithLabelValues(conference, side).Set(float64(n))
}

// ForgetConference drops the series of a conference that was removed
func (m *Metrics) ForgetConference(conference string) {
	m.subscribers.DeleteLabelValues(conference)
	m.participants.DeletePartialMatch(prometheus.Labels{"conference": conference})
	m.notifiesSent.DeletePartialMatch(prometheus.Labels{"conference": conference})
	m.notifiesReceived.DeletePartialMatch(prometheus.Labels{"conference": conference})
	m.resyncs.DeleteLabelValues(conference)
}
