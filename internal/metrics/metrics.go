package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the reminder domain collectors.
type Metrics struct {
	CallsCreated   *prometheus.CounterVec
	CallStatus     *prometheus.CounterVec
	ActiveStreams  prometheus.Gauge
	AnalysisSynced *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		CallsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminder_calls_created_total",
				Help: "Outbound reminder calls requested, by result.",
			},
			[]string{"result"},
		),
		CallStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminder_call_status_total",
				Help: "Call status callbacks received, by status.",
			},
			[]string{"status"},
		),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reminder_media_streams_active",
			Help: "Media streams currently bridged to an agent.",
		}),
		AnalysisSynced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminder_analysis_synced_total",
				Help: "Conversation analyses merged into call records, by result.",
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{m.CallsCreated, m.CallStatus, m.ActiveStreams, m.AnalysisSynced} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
