// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes Prometheus collectors for the load-balancer
// controller.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every collector the controller updates.
type Metrics struct {
	FlowsInstalled *prometheus.CounterVec
	FlowsExpired   prometheus.Counter
	ProbesSent     prometheus.Counter
	ARPReplies     prometheus.Counter
	Drops          *prometheus.CounterVec
	UpdateCommands prometheus.Counter

	LiveBackends       prometheus.Gauge
	NonUpdatedBackends prometheus.Gauge
	UpdatedBackends    prometheus.Gauge
}

// New constructs a Metrics bundle and registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		FlowsInstalled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lb_flows_installed_total",
			Help: "Flow-mods installed, partitioned by direction.",
		}, []string{"direction"}),
		FlowsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lb_flows_expired_total",
			Help: "Flow-memory entries removed by the expiry sweep.",
		}),
		ProbesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lb_arp_probes_sent_total",
			Help: "ARP probe requests emitted by the probe engine.",
		}),
		ARPReplies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lb_arp_replies_total",
			Help: "ARP replies matched to an outstanding probe.",
		}),
		Drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lb_drops_total",
			Help: "Packets dropped by the dispatcher, partitioned by reason.",
		}, []string{"reason"}),
		UpdateCommands: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lb_update_commands_total",
			Help: "mark_updated operator commands received.",
		}),
		LiveBackends: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lb_live_backends",
			Help: "Backends currently present in the live-set.",
		}),
		NonUpdatedBackends: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lb_non_updated_backends",
			Help: "Backends currently in the non_updated partition.",
		}),
		UpdatedBackends: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lb_updated_backends",
			Help: "Backends currently in the updated partition.",
		}),
	}

	reg.MustRegister(
		m.FlowsInstalled, m.FlowsExpired, m.ProbesSent, m.ARPReplies,
		m.Drops, m.UpdateCommands, m.LiveBackends, m.NonUpdatedBackends, m.UpdatedBackends,
	)
	return m
}
