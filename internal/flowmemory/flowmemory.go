// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package flowmemory is the C5 flow-memory: a controller-resident
// recall of client<->backend bindings that outlives the switch's
// short, idle-timeout-bound flow-table entries.
package flowmemory

import (
	"time"

	"grimm.is/sdnlb/internal/lbmodel"
	"grimm.is/sdnlb/internal/ofswitch"
)

// Entry holds everything the dispatcher needs to re-derive the
// reverse-direction flow and to re-install the forward one: the
// chosen backend, the triggering packet (for rederiving key_rev), the
// client-side ingress port, and the absolute expiry deadline.
type Entry struct {
	Backend     lbmodel.Backend
	Trigger     ofswitch.Packet
	ClientPort  int
	Deadline    time.Time
	CorrelationID string

	// InstallServiceIP records which service IP the forward flow was
	// installed under. It has no effect on the reverse-path rewrite,
	// which always recomputes the service IP from the *current*
	// partition sizes — it exists only so the dispatcher can log when
	// the two have diverged.
	InstallServiceIP lbmodel.Backend
}

// KeyFwd is (client_ip, service_ip, client_port, service_port).
func KeyFwd(e *Entry) lbmodel.FlowKey {
	return lbmodel.FlowKey{
		SrcIP: e.Trigger.SrcIP.String(), DstIP: e.Trigger.DstIP.String(),
		SrcPort: e.Trigger.SrcPort, DstPort: e.Trigger.DstPort,
	}
}

// KeyRev is (backend_ip, client_ip, service_port, client_port).
func KeyRev(e *Entry) lbmodel.FlowKey {
	return lbmodel.FlowKey{
		SrcIP: string(e.Backend), DstIP: e.Trigger.SrcIP.String(),
		SrcPort: e.Trigger.DstPort, DstPort: e.Trigger.SrcPort,
	}
}

// Memory is the dual-keyed store. Both keys of a live entry resolve
// to the same *Entry value. Not safe for concurrent use; see package
// liveset's note on the shared mutex covering this state.
type Memory struct {
	byKey map[lbmodel.FlowKey]*Entry
}

func New() *Memory {
	return &Memory{byKey: make(map[lbmodel.FlowKey]*Entry)}
}

// Install inserts e under both its forward and reverse keys.
func (m *Memory) Install(e *Entry) {
	m.byKey[KeyFwd(e)] = e
	m.byKey[KeyRev(e)] = e
}

// Lookup resolves a key to its entry, if live.
func (m *Memory) Lookup(k lbmodel.FlowKey) (*Entry, bool) {
	e, ok := m.byKey[k]
	return e, ok
}

// Refresh extends e's deadline to now + ttl.
func (m *Memory) Refresh(e *Entry, now time.Time, ttl time.Duration) {
	e.Deadline = now.Add(ttl)
}

// ExpireSweep removes every entry whose deadline has passed, removing
// both its keys atomically (within this single-threaded call), and
// returns the count of distinct entries removed for the debug log.
func (m *Memory) ExpireSweep(now time.Time) int {
	seen := make(map[*Entry]struct{})
	removedKeys := make([]lbmodel.FlowKey, 0)

	for k, e := range m.byKey {
		if now.After(e.Deadline) {
			removedKeys = append(removedKeys, k)
			seen[e] = struct{}{}
		}
	}
	for _, k := range removedKeys {
		delete(m.byKey, k)
	}
	return len(seen)
}

// Len reports the number of keys currently stored (each live entry
// accounts for two keys).
func (m *Memory) Len() int { return len(m.byKey) }
