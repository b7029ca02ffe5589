// Package metrics bundles the Prometheus instruments the server exports.
// A nil *Metrics is valid and records nothing, which keeps tests and
// embedded uses free of registry plumbing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "minevox"

// Metrics holds the broker and transport instruments.
type Metrics struct {
	sessionsActive  prometheus.Gauge
	joinsTotal      prometheus.Counter
	leavesTotal     prometheus.Counter
	broadcastsTotal prometheus.Counter
	framesTotal     *prometheus.CounterVec
	decodeErrors    prometheus.Counter
}

// New registers the instrument set against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Live client sessions.",
		}),
		joinsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "world_joins_total",
			Help:      "Members inserted into worlds.",
		}),
		leavesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "world_leaves_total",
			Help:      "Members removed from worlds.",
		}),
		broadcastsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Messages fanned out to world members.",
		}),
		framesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Inbound wire frames by message type.",
		}, []string{"type"}),
		decodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_decode_errors_total",
			Help:      "Inbound frames that failed to decode.",
		}),
	}
}

// SessionOpened increments the live session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

// SessionClosed decrements the live session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

// JoinRecorded counts one world join.
func (m *Metrics) JoinRecorded() {
	if m == nil {
		return
	}
	m.joinsTotal.Inc()
}

// LeaveRecorded counts one world leave.
func (m *Metrics) LeaveRecorded() {
	if m == nil {
		return
	}
	m.leavesTotal.Inc()
}

// BroadcastRecorded counts copies handed off during one fan-out.
func (m *Metrics) BroadcastRecorded(copies int) {
	if m == nil {
		return
	}
	m.broadcastsTotal.Add(float64(copies))
}

// FrameRecorded counts one inbound frame of the given message type.
func (m *Metrics) FrameRecorded(messageType string) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(messageType).Inc()
}

// DecodeErrorRecorded counts one undecodable inbound frame.
func (m *Metrics) DecodeErrorRecorded() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}
