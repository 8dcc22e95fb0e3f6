// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package dispatcher implements the C8 packet-in dispatcher: the
// state machine that classifies inbound traffic and drives the
// flow-memory, live-set, selector, and generation components to
// install rewriting flow-mods.
package dispatcher

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"grimm.is/sdnlb/internal/clock"
	"grimm.is/sdnlb/internal/errors"
	"grimm.is/sdnlb/internal/flowmemory"
	"grimm.is/sdnlb/internal/generation"
	"grimm.is/sdnlb/internal/lbmodel"
	"grimm.is/sdnlb/internal/liveset"
	"grimm.is/sdnlb/internal/logging"
	"grimm.is/sdnlb/internal/metrics"
	"grimm.is/sdnlb/internal/ofswitch"
	"grimm.is/sdnlb/internal/probe"
	"grimm.is/sdnlb/internal/selector"
)

// Config bundles the dispatcher's construction parameters.
type Config struct {
	S1, S2            lbmodel.Backend
	FlowIdleTimeout   time.Duration
	FlowMemoryTimeout time.Duration
}

// Dispatcher drives the same flow-memory, live-set, generation, and
// outstanding-probe state the probe engine and operator channel touch
// from their own goroutines; mu is the single lock shared across all
// three entry points so those accesses stay serialized.
type Dispatcher struct {
	channel ofswitch.Channel
	memory  *flowmemory.Memory
	live    *liveset.Set
	gen     *generation.Model
	sel     *selector.Selector
	probe   *probe.Engine
	clock   clock.Clock
	mu      *sync.Mutex
	metrics *metrics.Metrics
	log     *logging.Logger
	cfg     Config
}

func New(ch ofswitch.Channel, mem *flowmemory.Memory, live *liveset.Set, gen *generation.Model, sel *selector.Selector, pe *probe.Engine, c clock.Clock, mu *sync.Mutex, m *metrics.Metrics, cfg Config) *Dispatcher {
	return &Dispatcher{
		channel: ch, memory: mem, live: live, gen: gen, sel: sel, probe: pe, clock: c, mu: mu, metrics: m,
		log: logging.Default().With("component", "dispatcher"),
		cfg: cfg,
	}
}

// Dispatch processes one packet-in event. The returned error, if
// non-nil, is always one of internal/errors' typed Kind values and has
// already been logged/counted at the appropriate level; callers need
// not log again.
func (d *Dispatcher) Dispatch(pi ofswitch.PacketIn) error {
	if d.mu != nil {
		d.mu.Lock()
		defer d.mu.Unlock()
	}

	switch pi.Packet.Kind {
	case ofswitch.KindARP:
		return d.dispatchARP(pi)
	case ofswitch.KindTCP:
		return d.dispatchTCP(pi)
	default:
		d.drop(pi)
		return errors.New(errors.KindUnknownProtocol, "packet is neither TCP nor ARP")
	}
}

func (d *Dispatcher) dispatchARP(pi ofswitch.PacketIn) error {
	pkt := pi.Packet
	switch pkt.ARPOpcode {
	case ofswitch.ARPReply:
		d.probe.HandleARPReply(lbmodel.Backend(pkt.ARPSrcIP.String()), pkt.ARPSrcMAC, pi.InPort)
		return nil

	case ofswitch.ARPRequest:
		// Answer ARP requests for either service IP on the switch's own
		// behalf.
		dst := lbmodel.Backend(pkt.ARPDstIP.String())
		if dst == d.cfg.S1 || dst == d.cfg.S2 {
			raw, err := ofswitch.BuildARPReply(d.channel.SwitchMAC(), pkt.ARPSrcMAC, pkt.ARPDstIP, pkt.ARPSrcIP)
			if err != nil {
				d.log.Error("failed to build ARP reply for service IP", "err", err)
				return nil
			}
			d.channel.SendPacketOut(ofswitch.PacketOut{Raw: raw, OutPort: pi.InPort})
			return nil
		}
		d.drop(pi)
		return nil

	default:
		d.drop(pi)
		return nil
	}
}

func (d *Dispatcher) dispatchTCP(pi ofswitch.PacketIn) error {
	pkt := pi.Packet
	src := lbmodel.Backend(pkt.SrcIP.String())
	dst := lbmodel.Backend(pkt.DstIP.String())

	if d.gen.IsKnown(src) {
		return d.dispatchReturn(pi)
	}
	if dst == d.cfg.S1 || dst == d.cfg.S2 {
		return d.dispatchForward(pi, dst)
	}

	d.drop(pi)
	return nil
}

// dispatchReturn handles server-to-client return traffic.
func (d *Dispatcher) dispatchReturn(pi ofswitch.PacketIn) error {
	pkt := pi.Packet
	key := lbmodel.FlowKey{
		SrcIP: pkt.SrcIP.String(), DstIP: pkt.DstIP.String(),
		SrcPort: pkt.SrcPort, DstPort: pkt.DstPort,
	}
	entry, ok := d.memory.Lookup(key)
	if !ok {
		d.countDrop("unmatched_return")
		d.log.Debug("no client for key", "key", key)
		return errors.New(errors.KindUnmatchedReturn, "server->client packet with no flow-memory entry")
	}

	now := d.clock.Now()
	d.memory.Refresh(entry, now, d.cfg.FlowMemoryTimeout)

	serviceIP := d.cfg.S2
	if d.gen.SourceIsS1(entry.Backend) {
		serviceIP = d.cfg.S1
	}
	if entry.InstallServiceIP != "" && entry.InstallServiceIP != serviceIP {
		// A long-lived flow can see its apparent service IP flip
		// mid-connection as the generation partition shifts underneath it.
		d.log.Debug("reverse-path service IP diverged from install time", "backend", entry.Backend, "installed_as", entry.InstallServiceIP, "now", serviceIP, "correlation_id", entry.CorrelationID)
	}

	switchMAC := d.channel.SwitchMAC()
	fm := ofswitch.FlowMod{
		Match: matchFromPacket(pi, pkt),
		Actions: []ofswitch.Action{
			{Kind: ofswitch.ActionSetDLSrc, MAC: switchMAC},
			{Kind: ofswitch.ActionSetNWSrc, IP: serviceIP.IP()},
			{Kind: ofswitch.ActionOutput, Port: entry.ClientPort},
		},
		IdleTimeout: int(d.cfg.FlowIdleTimeout.Seconds()),
		HardTimeout: ofswitch.PermanentTimeout,
		BufferID:    pi.BufferID,
		Raw:         pi.Raw,
	}
	d.channel.SendFlowMod(fm)
	d.countInstall("reverse")
	d.log.Info("directing return flow", "backend", entry.Backend, "service_ip", serviceIP, "correlation_id", entry.CorrelationID)
	return nil
}

// dispatchForward handles client-to-service-IP forward traffic.
func (d *Dispatcher) dispatchForward(pi ofswitch.PacketIn, dst lbmodel.Backend) error {
	pkt := pi.Packet
	keyFwd := lbmodel.FlowKey{
		SrcIP: pkt.SrcIP.String(), DstIP: pkt.DstIP.String(),
		SrcPort: pkt.SrcPort, DstPort: pkt.DstPort,
	}

	entry, ok := d.memory.Lookup(keyFwd)
	if ok {
		if _, live := d.live.Get(entry.Backend); !live {
			ok = false // stale binding to a now-dead backend; re-select below
		}
	}

	if !ok {
		if d.live.Len() == 0 {
			d.countDrop("no_backends")
			d.log.Warn("no servers live for forward flow", "dst", dst)
			return errors.New(errors.KindNoBackends, "service-IP packet arrived with an empty live-set")
		}

		backend, err := d.pickFor(dst, keyFwd, pi.InPort)
		if err != nil {
			d.countDrop("no_eligible_backend")
			d.log.Warn("no eligible backend for partition", "dst", dst)
			return errors.New(errors.KindNoEligibleBackend, "live-set disjoint from the required partition")
		}

		entry = &flowmemory.Entry{
			Backend:          backend,
			Trigger:          pkt,
			ClientPort:       pi.InPort,
			CorrelationID:    uuid.NewString(),
			InstallServiceIP: dst,
		}
		d.memory.Install(entry)
		d.log.Info("directing forward flow to new backend", "backend", backend, "dst", dst, "correlation_id", entry.CorrelationID)
	}

	now := d.clock.Now()
	d.memory.Refresh(entry, now, d.cfg.FlowMemoryTimeout)

	live, _ := d.live.Get(entry.Backend)
	fm := ofswitch.FlowMod{
		Match: matchFromPacket(pi, pkt),
		Actions: []ofswitch.Action{
			{Kind: ofswitch.ActionSetDLDst, MAC: live.MAC},
			{Kind: ofswitch.ActionSetNWDst, IP: entry.Backend.IP()},
			{Kind: ofswitch.ActionOutput, Port: live.Port},
		},
		IdleTimeout: int(d.cfg.FlowIdleTimeout.Seconds()),
		HardTimeout: ofswitch.PermanentTimeout,
		BufferID:    pi.BufferID,
		Raw:         pi.Raw,
	}
	d.channel.SendFlowMod(fm)
	d.countInstall("forward")
	return nil
}

func (d *Dispatcher) pickFor(dst lbmodel.Backend, key lbmodel.FlowKey, inport int) (lbmodel.Backend, error) {
	if dst == d.cfg.S1 {
		return d.sel.PickForS1(key, inport)
	}
	return d.sel.PickForS2(key, inport)
}

func (d *Dispatcher) drop(pi ofswitch.PacketIn) {
	d.channel.SendPacketOut(ofswitch.PacketOut{BufferID: pi.BufferID, Raw: pi.Raw})
}

func (d *Dispatcher) countDrop(reason string) {
	if d.metrics != nil {
		d.metrics.Drops.WithLabelValues(reason).Inc()
	}
}

func (d *Dispatcher) countInstall(direction string) {
	if d.metrics != nil {
		d.metrics.FlowsInstalled.WithLabelValues(direction).Inc()
	}
}

func matchFromPacket(pi ofswitch.PacketIn, pkt ofswitch.Packet) ofswitch.Match {
	return ofswitch.Match{
		InPort: pi.InPort,
		SrcMAC: pkt.SrcMAC, DstMAC: pkt.DstMAC,
		SrcIP: pkt.SrcIP, DstIP: pkt.DstIP,
		SrcPort: pkt.SrcPort, DstPort: pkt.DstPort,
	}
}
