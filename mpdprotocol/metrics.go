package mpdprotocol

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Command results used as the "result" label.
const (
	resultOK    = "ok"
	resultAck   = "ack"
	resultError = "error"
)

// Metrics holds the Prometheus collectors updated by a Client. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	CommandsTotal      *prometheus.CounterVec
	CommandDuration    *prometheus.HistogramVec
	NotificationsTotal *prometheus.CounterVec
	Connected          prometheus.Gauge
}

// NewMetrics creates the collectors under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "commands_total",
				Help:      "Total number of commands completed, by result (ok, ack, error)",
			},
			[]string{"command", "result"},
		),

		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "command_duration_seconds",
				Help:      "Time from enqueueing a command to receiving its response",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command"},
		),

		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "notifications_total",
				Help:      "Total number of idle change notifications, by subsystem",
			},
			[]string{"subsystem"},
		),

		Connected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "connected",
				Help:      "Connection status (0=closed, 1=open)",
			},
		),
	}
}

// Collectors returns every collector for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CommandsTotal,
		m.CommandDuration,
		m.NotificationsTotal,
		m.Connected,
	}
}

// Register registers the collectors with reg. Collectors that are already
// registered are accepted so several clients can share one Metrics.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func (m *Metrics) observeCommand(name string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := resultOK
	switch {
	case errors.Is(err, ErrProtocol):
		result = resultAck
	case err != nil:
		result = resultError
	}
	m.CommandsTotal.WithLabelValues(name, result).Inc()
	m.CommandDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeChanges(changes Changes) {
	if m == nil {
		return
	}
	for _, s := range changes {
		m.NotificationsTotal.WithLabelValues(s).Inc()
	}
}

func (m *Metrics) setConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.Connected.Set(1)
		return
	}
	m.Connected.Set(0)
}
