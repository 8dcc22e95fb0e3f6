// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package probe

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"grimm.is/sdnlb/internal/clock"
	"grimm.is/sdnlb/internal/flowmemory"
	"grimm.is/sdnlb/internal/generation"
	"grimm.is/sdnlb/internal/lbmodel"
	"grimm.is/sdnlb/internal/liveset"
	"grimm.is/sdnlb/internal/ofswitch"
)

func newTestEngine(t *testing.T, ips ...string) (*Engine, *ofswitch.Simulator, *clock.Mock, []lbmodel.Backend) {
	t.Helper()
	bs := make([]lbmodel.Backend, len(ips))
	for i, ip := range ips {
		b, err := lbmodel.NewBackend(ip)
		require.NoError(t, err)
		bs[i] = b
	}
	switchMAC, _ := net.ParseMAC("00:11:22:33:44:55")
	sim := ofswitch.NewSimulator(switchMAC)
	live := liveset.New()
	gen := generation.New(bs)
	mem := flowmemory.New()
	var mu sync.Mutex
	c := clock.NewMock(time.Unix(0, 0))

	s1, _ := lbmodel.NewBackend("10.0.1.1")
	s2, _ := lbmodel.NewBackend("10.0.2.1")

	e := New(bs, sim, live, gen, mem, &mu, nil, c, ServiceIPs{S1: s1, S2: s2}, Config{
		ProbeCycle:  5 * time.Second,
		ARPDeadline: 3 * time.Second,
		MinProbeGap: 250 * time.Millisecond,
	})
	return e, sim, c, bs
}

// TestColdProbeEmitsOnePerBackend covers a cold start with five
// backends, all non_updated, where every probe's proto_src is S1.
func TestColdProbeEmitsOnePerBackend(t *testing.T) {
	e, sim, c, bs := newTestEngine(t, "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5", "10.0.0.6")
	e.Start()

	// The inter-probe gap is max(MinProbeGap, ProbeCycle / N_backends)
	// = max(0.25s, 1s) = 1s.
	gap := 1 * time.Second

	seenTargets := map[string]bool{}
	for i := 0; i < len(bs); i++ {
		require.Lenf(t, sim.PacketOuts, i+1, "expected %d probes emitted by step %d", i+1, i)
		po := sim.PacketOuts[len(sim.PacketOuts)-1]
		pkt := ofswitch.ParseFrame(po.Raw)
		require.Equal(t, ofswitch.KindARP, pkt.Kind)
		require.Equal(t, ofswitch.ARPRequest, pkt.ARPOpcode)
		require.Equal(t, "10.0.1.1", pkt.ARPSrcIP.String(), "expected proto_src S1 for all-non_updated pool")
		seenTargets[pkt.ARPDstIP.String()] = true
		if i < len(bs)-1 {
			c.Advance(gap)
		}
	}
	require.Len(t, seenTargets, len(bs), "expected distinct probe targets")

	elapsed := time.Duration(len(bs)-1) * gap
	require.GreaterOrEqual(t, elapsed, 5*250*time.Millisecond)
	require.LessOrEqual(t, elapsed, 5*time.Second)
}

func TestARPReplyMarksServerUpAndLive(t *testing.T) {
	e, sim, _, bs := newTestEngine(t, "10.0.0.2")
	e.Start()
	require.Len(t, sim.PacketOuts, 1)

	mac, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	e.HandleARPReply(bs[0], mac, 5)

	entry, ok := liveSetOf(e).Get(bs[0])
	require.True(t, ok, "expected backend to be live after ARP reply")
	require.Equal(t, 5, entry.Port)
	require.Equal(t, mac.String(), entry.MAC.String())
}

func TestBackendDeathEvictsAfterDeadline(t *testing.T) {
	e, _, c, bs := newTestEngine(t, "10.0.0.2")
	e.Start()

	mac, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	e.HandleARPReply(bs[0], mac, 5)
	_, ok := liveSetOf(e).Get(bs[0])
	require.True(t, ok, "expected backend live before death")

	// The next tick (at t=5s, one full probe cycle later) re-arms
	// outstanding[.2] with a fresh 3s deadline; the tick after that
	// (t=10s) runs the expiry sweep that finds it overdue.
	c.Advance(5 * time.Second)
	c.Advance(5 * time.Second)

	_, ok = liveSetOf(e).Get(bs[0])
	require.False(t, ok, "expected backend to be evicted after missed ARP deadline")
}

func TestTickExpiresFlowMemory(t *testing.T) {
	e, _, c, bs := newTestEngine(t, "10.0.0.2")
	e.Start()

	trigger := ofswitch.Packet{
		SrcIP: net.ParseIP("10.0.0.100"), DstIP: net.ParseIP("10.0.1.1"),
		SrcPort: 51000, DstPort: 80,
	}
	entry := &flowmemory.Entry{Backend: bs[0], Trigger: trigger, ClientPort: 3}
	e.mem.Install(entry)
	e.mem.Refresh(entry, c.Now(), 2*time.Second)
	require.Equal(t, 2, e.mem.Len())

	c.Advance(5 * time.Second) // past the flow's deadline; tick sweeps it
	require.Equal(t, 0, e.mem.Len(), "expected the tick to expire the flow-memory entry")
}

func liveSetOf(e *Engine) *liveset.Set { return e.live }
