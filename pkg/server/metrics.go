package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the server's prometheus collectors. A nil *Metrics is
// valid and turns every recording method into a no-op, so wiring metrics is
// optional.
type Metrics struct {
	activeRooms       prometheus.Gauge
	connectedSessions prometheus.Gauge
	gamesStarted      prometheus.Counter
	gamesCompleted    prometheus.Counter
	eventsSent        *prometheus.CounterVec
}

// NewMetrics builds and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		activeRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "powuno",
			Name:      "active_rooms",
			Help:      "Number of rooms currently registered.",
		}),
		connectedSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "powuno",
			Name:      "connected_sessions",
			Help:      "Number of open websocket sessions.",
		}),
		gamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "powuno",
			Name:      "games_started_total",
			Help:      "Games started since process start.",
		}),
		gamesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "powuno",
			Name:      "games_completed_total",
			Help:      "Games that reached a winner since process start.",
		}),
		eventsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "powuno",
			Name:      "events_broadcast_total",
			Help:      "Events broadcast to rooms, by event type.",
		}, []string{"type"}),
	}
	reg.MustRegister(
		m.activeRooms,
		m.connectedSessions,
		m.gamesStarted,
		m.gamesCompleted,
		m.eventsSent,
	)
	return m
}

func (m *Metrics) roomOpened() {
	if m != nil {
		m.activeRooms.Inc()
	}
}

func (m *Metrics) roomClosed() {
	if m != nil {
		m.activeRooms.Dec()
	}
}

func (m *Metrics) sessionOpened() {
	if m != nil {
		m.connectedSessions.Inc()
	}
}

func (m *Metrics) sessionClosed() {
	if m != nil {
		m.connectedSessions.Dec()
	}
}

func (m *Metrics) gameStarted() {
	if m != nil {
		m.gamesStarted.Inc()
	}
}

func (m *Metrics) gameCompleted() {
	if m != nil {
		m.gamesCompleted.Inc()
	}
}

func (m *Metrics) eventSent(t EventType) {
	if m != nil {
		m.eventsSent.WithLabelValues(string(t)).Inc()
	}
}
