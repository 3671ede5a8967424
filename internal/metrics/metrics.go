// Package metrics exposes Prometheus counters for organisation, invitation and
// notification activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so services may be constructed without one in tests.
type Metrics struct {
	OrganisationsCreated prometheus.Counter
	InvitationEvents     *prometheus.CounterVec
	QuotaRejections      *prometheus.CounterVec
	NotificationResults  *prometheus.CounterVec
	NotificationQueueLen prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		OrganisationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "axis",
			Name:      "organisations_created_total",
			Help:      "Organisations created.",
		}),
		InvitationEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axis",
			Name:      "invitation_events_total",
			Help:      "Invitation lifecycle transitions by event.",
		}, []string{"event"}),
		QuotaRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axis",
			Name:      "quota_rejections_total",
			Help:      "Operations rejected because a tier limit was reached.",
		}, []string{"resource", "tier"}),
		NotificationResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axis",
			Name:      "notifications_total",
			Help:      "Notification delivery attempts by kind and result.",
		}, []string{"kind", "result"}),
		NotificationQueueLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "axis",
			Name:      "notification_queue_length",
			Help:      "Notifications waiting in the delivery queue at the last sweep.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.OrganisationsCreated,
		m.InvitationEvents,
		m.QuotaRejections,
		m.NotificationResults,
		m.NotificationQueueLen,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) RecordOrganisationCreated() {
	if m == nil {
		return
	}
	m.OrganisationsCreated.Inc()
}

// RecordInvitation counts an invitation event: sent, resent, accepted or revoked.
func (m *Metrics) RecordInvitation(event string) {
	if m == nil {
		return
	}
	m.InvitationEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordQuotaRejection(resource, tier string) {
	if m == nil {
		return
	}
	m.QuotaRejections.WithLabelValues(resource, tier).Inc()
}

// RecordNotification counts a delivery attempt; result is sent, retry or failed.
func (m *Metrics) RecordNotification(kind, result string) {
	if m == nil {
		return
	}
	m.NotificationResults.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) SetQueueLength(n int64) {
	if m == nil {
		return
	}
	m.NotificationQueueLen.Set(float64(n))
}
