// Package metrics provides Prometheus metrics for the chat-api service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks the number of open WebSocket connections.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_connections",
			Help: "Number of currently open WebSocket connections",
		},
	)

	// ConnectionsTotal tracks the total number of accepted WebSocket connections.
	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_connections_total",
			Help: "Total number of accepted WebSocket connections",
		},
	)

	// ActiveGroups tracks the number of room groups with at least one subscriber.
	ActiveGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_groups",
			Help: "Number of room groups with at least one live session",
		},
	)

	// MessagesPersisted tracks messages written to the store.
	MessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_persisted_total",
			Help: "Total number of chat messages persisted",
		},
	)

	// BroadcastsTotal tracks fan-out events by frame type.
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_broadcasts_total",
			Help: "Total number of group broadcasts by frame type",
		},
		[]string{"type"},
	)

	// FrameErrors tracks protocol error frames sent to clients by error code.
	FrameErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_frame_errors_total",
			Help: "Total number of error frames sent to clients by code",
		},
		[]string{"code"},
	)

	// RoomsCreated tracks rooms created through the HTTP surface.
	RoomsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_rooms_created_total",
			Help: "Total number of rooms created by kind",
		},
		[]string{"kind"},
	)

	// AuthVerifyDuration tracks the latency of auth service token verification.
	AuthVerifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_auth_verify_duration_seconds",
			Help:    "Duration of auth service token verification calls",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordConnectionOpened increments connection metrics.
func RecordConnectionOpened() {
	ConnectionsTotal.Inc()
	ActiveConnections.Inc()
}

// RecordConnectionClosed decrements the active connection gauge.
func RecordConnectionClosed() {
	ActiveConnections.Dec()
}
