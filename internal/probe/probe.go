// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package probe implements the C3 probe engine: round-robin ARP
// liveness probing of the backend pool.
package probe

import (
	"net"
	"sync"
	"time"

	"grimm.is/sdnlb/internal/clock"
	"grimm.is/sdnlb/internal/flowmemory"
	"grimm.is/sdnlb/internal/generation"
	"grimm.is/sdnlb/internal/lbmodel"
	"grimm.is/sdnlb/internal/liveset"
	"grimm.is/sdnlb/internal/logging"
	"grimm.is/sdnlb/internal/metrics"
	"grimm.is/sdnlb/internal/ofswitch"
)

// ServiceIPs supplies the two service addresses a probe's proto_src
// is chosen between, driven by which generation currently holds the
// majority of the backend pool.
type ServiceIPs struct {
	S1, S2 lbmodel.Backend
}

// Engine drives the probe cycle. Every tick also sweeps flow memory
// for expired entries, matching the reference implementation's single
// combined probe/expire cycle. mu guards live, gen, and mem against
// the operator channel's handlers and the packet-in dispatcher, which
// share the same structures from other goroutines.
type Engine struct {
	clock   clock.Clock
	channel ofswitch.Channel
	live    *liveset.Set
	gen     *generation.Model
	mem     *flowmemory.Memory
	mu      *sync.Mutex
	metrics *metrics.Metrics
	log     *logging.Logger
	ips     ServiceIPs

	cycle       time.Duration
	deadline    time.Duration
	minGap      time.Duration

	cursor      []lbmodel.Backend
	outstanding map[lbmodel.Backend]time.Time
}

// Config bundles the probe engine's tunable timers, overridable from
// the on-disk configuration.
type Config struct {
	ProbeCycle  time.Duration
	ARPDeadline time.Duration
	MinProbeGap time.Duration
}

func New(backends []lbmodel.Backend, ch ofswitch.Channel, live *liveset.Set, gen *generation.Model, mem *flowmemory.Memory, mu *sync.Mutex, m *metrics.Metrics, c clock.Clock, ips ServiceIPs, cfg Config) *Engine {
	cursor := make([]lbmodel.Backend, len(backends))
	copy(cursor, backends)

	return &Engine{
		clock: c, channel: ch, live: live, gen: gen, mem: mem, mu: mu, metrics: m,
		log: logging.Default().With("component", "probe"),
		ips: ips, cycle: cfg.ProbeCycle, deadline: cfg.ARPDeadline, minGap: cfg.MinProbeGap,
		cursor:      cursor,
		outstanding: make(map[lbmodel.Backend]time.Time),
	}
}

// Start arms the first tick; each tick reschedules itself.
func (e *Engine) Start() {
	e.tick()
}

func (e *Engine) tick() {
	if e.mu != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
	}

	now := e.clock.Now()
	e.expirySweep(now)
	e.expireFlows(now)

	if len(e.cursor) > 0 {
		b := e.cursor[0]
		e.cursor = append(e.cursor[1:], b)

		// Don't re-probe a backend whose previous probe is still
		// outstanding.
		if _, pending := e.outstanding[b]; !pending {
			e.sendProbe(b, now)
		}
	}

	gap := e.cycle
	if n := len(e.cursor); n > 0 {
		gap = e.cycle / time.Duration(n)
	}
	if gap < e.minGap {
		gap = e.minGap
	}
	e.clock.AfterFunc(gap, e.tick)
}

func (e *Engine) sendProbe(b lbmodel.Backend, now time.Time) {
	srcIP := e.ips.S2
	if e.gen.SourceIsS1(b) {
		srcIP = e.ips.S1
	}

	raw, err := ofswitch.BuildARPRequest(e.channel.SwitchMAC(), srcIP.IP(), b.IP())
	if err != nil {
		e.log.Error("failed to build ARP probe", "backend", b, "err", err)
		return
	}

	e.channel.SendPacketOut(ofswitch.PacketOut{Flood: true, Raw: raw})
	e.outstanding[b] = now.Add(e.deadline)
	if e.metrics != nil {
		e.metrics.ProbesSent.Inc()
	}
}

// HandleARPReply processes an inbound ARP reply: clears the
// outstanding probe and updates the live-set, logging "server up" if
// the (MAC, port) pair is new or changed.
func (e *Engine) HandleARPReply(srcIP lbmodel.Backend, mac []byte, port int) {
	if _, ok := e.outstanding[srcIP]; !ok {
		return // not an answer to an outstanding probe; ignore
	}
	delete(e.outstanding, srcIP)

	entry := lbmodel.LiveEntry{MAC: net.HardwareAddr(cloneMAC(mac)), Port: port}
	_, changed := e.live.Put(srcIP, entry)
	if e.metrics != nil {
		e.metrics.ARPReplies.Inc()
		e.metrics.LiveBackends.Set(float64(e.live.Len()))
	}
	if changed {
		e.log.Info("server up", "backend", srcIP, "mac", entry.MAC, "port", port)
	}
}

func (e *Engine) expirySweep(now time.Time) {
	for b, deadline := range e.outstanding {
		if now.After(deadline) {
			delete(e.outstanding, b)
			if e.live.Remove(b) {
				e.log.Info("server down", "backend", b)
				if e.metrics != nil {
					e.metrics.LiveBackends.Set(float64(e.live.Len()))
				}
			}
		}
	}
}

// expireFlows sweeps flow memory for entries past their deadline, on
// the same cadence as the outstanding-probe sweep above.
func (e *Engine) expireFlows(now time.Time) {
	if e.mem == nil {
		return
	}
	n := e.mem.ExpireSweep(now)
	if n == 0 {
		return
	}
	e.log.Debug("expired flows", "count", n)
	if e.metrics != nil {
		e.metrics.FlowsExpired.Add(float64(n))
	}
}

func cloneMAC(mac []byte) []byte {
	out := make([]byte, len(mac))
	copy(out, mac)
	return out
}
