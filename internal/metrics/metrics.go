// Package metrics holds the prometheus collectors shared by the transport,
// hub and session packages. They are registered on the default registry and
// served by the HTTP side server on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_connections_total",
		Help: "Total TCP connections accepted",
	})

	RegisteredClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parley_registered_clients",
		Help: "Number of clients currently holding a name",
	})

	ActivePairings = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parley_active_pairings",
		Help: "Number of chats currently in progress",
	})

	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_commands_total",
		Help: "Total client commands processed by kind and outcome",
	}, []string{"kind", "outcome"})

	RelayedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_relayed_messages_total",
		Help: "Total messages forwarded to a chat partner",
	})

	DroppedSendsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_dropped_sends_total",
		Help: "Lines that could not be delivered to a peer",
	})

	CommandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parley_command_duration_seconds",
		Help:    "Time to process each command kind",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(ConnectionsTotal)
	prometheus.MustRegister(RegisteredClients)
	prometheus.MustRegister(ActivePairings)
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(RelayedTotal)
	prometheus.MustRegister(DroppedSendsTotal)
	prometheus.MustRegister(CommandDuration)
}
