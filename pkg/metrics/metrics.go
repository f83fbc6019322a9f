package metrics

import (
	"github.com/NotCoffee418/p1plus_monitor/pkg/checksum"
	"github.com/NotCoffee418/p1plus_monitor/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics observes telegrams and display updates.
type Metrics struct {
	telegrams    *prometheus.CounterVec
	curtailed    prometheus.Gauge
	activeLimits prometheus.Gauge
	current      *prometheus.GaugeVec
	lastUpdate   prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		telegrams: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p1plus_telegrams_total",
				Help: "Framed telegrams by checksum result",
			},
			[]string{"result"},
		),
		curtailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "p1plus_congestion_curtailed",
			Help: "1 when at least one congestion limit is active",
		}),
		activeLimits: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "p1plus_congestion_active_limits",
			Help: "Number of congestion limits present in the last message",
		}),
		current: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "p1plus_phase_current_amperes",
				Help: "Instantaneous current per phase",
			},
			[]string{"phase"},
		),
		lastUpdate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "p1plus_last_update_timestamp_seconds",
			Help: "Time of the last validated telegram",
		}),
	}
	reg.MustRegister(m.telegrams, m.curtailed, m.activeLimits, m.current, m.lastUpdate)
	return m
}

func (m *Metrics) ObserveTelegram(result checksum.Result) {
	m.telegrams.WithLabelValues(result.Status.String()).Inc()
}

func (m *Metrics) Show(update session.Update) {
	if update.Curtailed {
		m.curtailed.Set(1)
	} else {
		m.curtailed.Set(0)
	}
	m.activeLimits.Set(float64(update.Limits.ActiveLimits()))
	m.current.WithLabelValues("l1").Set(float64(update.CurrentL1))
	m.current.WithLabelValues("l2").Set(float64(update.CurrentL2))
	m.current.WithLabelValues("l3").Set(float64(update.CurrentL3))
	m.lastUpdate.Set(float64(update.ReceivedAt.Unix()))
}
