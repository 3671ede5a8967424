package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.(prometheus.Metric).Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordOrganisationCreated()
	m.RecordInvitation("sent")
	m.RecordInvitation("sent")
	m.RecordInvitation("accepted")
	m.RecordQuotaRejection("departments", "free")
	m.RecordNotification("invitation", "sent")

	assert.Equal(t, 1.0, counterValue(t, m.OrganisationsCreated))
	assert.Equal(t, 2.0, counterValue(t, m.InvitationEvents.WithLabelValues("sent")))
	assert.Equal(t, 1.0, counterValue(t, m.InvitationEvents.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, counterValue(t, m.QuotaRejections.WithLabelValues("departments", "free")))
	assert.Equal(t, 1.0, counterValue(t, m.NotificationResults.WithLabelValues("invitation", "sent")))
}

func TestMetrics_QueueGauge(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.SetQueueLength(7)
	var out dto.Metric
	require.NoError(t, m.NotificationQueueLen.Write(&out))
	assert.Equal(t, 7.0, out.GetGauge().GetValue())
}

func TestMetrics_DoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOrganisationCreated()
		m.RecordInvitation("sent")
		m.RecordQuotaRejection("employees", "pro")
		m.RecordNotification("invitation", "failed")
		m.SetQueueLength(1)
	})
}
