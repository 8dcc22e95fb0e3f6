// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package generation implements the non_updated/updated backend
// partition (C6) that backs rolling-upgrade / canary steering: service
// IP S1 and S2 each preferentially route to one generation, and that
// binding shifts as an upgrade wave progresses.
package generation

import "grimm.is/sdnlb/internal/lbmodel"

// Model tracks the generation partition over a fixed backend set.
// Not safe for concurrent use without external synchronization: the
// probe engine, packet-in dispatcher, and operator channel each touch
// it from their own goroutine and rely on a shared mutex at their call
// boundaries to serialize access.
type Model struct {
	all         map[lbmodel.Backend]struct{}
	nonUpdated  map[lbmodel.Backend]struct{}
	updated     map[lbmodel.Backend]struct{}
}

// New creates a Model with every backend starting in non_updated.
func New(backends []lbmodel.Backend) *Model {
	m := &Model{
		all:        make(map[lbmodel.Backend]struct{}, len(backends)),
		nonUpdated: make(map[lbmodel.Backend]struct{}, len(backends)),
		updated:    make(map[lbmodel.Backend]struct{}),
	}
	for _, b := range backends {
		m.all[b] = struct{}{}
		m.nonUpdated[b] = struct{}{}
	}
	return m
}

// IsKnown reports whether b was registered at construction.
func (m *Model) IsKnown(b lbmodel.Backend) bool {
	_, ok := m.all[b]
	return ok
}

// NonUpdated returns the current non_updated partition.
func (m *Model) NonUpdated() []lbmodel.Backend { return keys(m.nonUpdated) }

// Updated returns the current updated partition.
func (m *Model) Updated() []lbmodel.Backend { return keys(m.updated) }

// InNonUpdated reports whether b is currently in the non_updated set.
func (m *Model) InNonUpdated(b lbmodel.Backend) bool {
	_, ok := m.nonUpdated[b]
	return ok
}

// InUpdated reports whether b is currently in the updated set.
func (m *Model) InUpdated(b lbmodel.Backend) bool {
	_, ok := m.updated[b]
	return ok
}

// MoreNonUpdated is the derived boolean |non_updated| > |updated|
// that drives every generation-aware routing decision.
func (m *Model) MoreNonUpdated() bool {
	return len(m.nonUpdated) > len(m.updated)
}

// MarkUpdated implements the mark_updated(b) operator command,
// including the atomic-swap rule that makes the previously "updated"
// generation the new baseline once non_updated would otherwise become
// empty.
//
// Returns false if b is not a known backend; the caller is responsible
// for the warning log.
func (m *Model) MarkUpdated(b lbmodel.Backend) bool {
	if !m.IsKnown(b) {
		return false
	}
	if _, already := m.updated[b]; already {
		return true // idempotent, no state change
	}

	delete(m.nonUpdated, b)
	m.updated[b] = struct{}{}

	if len(m.nonUpdated) == 0 {
		m.nonUpdated, m.updated = m.updated, make(map[lbmodel.Backend]struct{})
	}
	return true
}

// Partition names the two generations, used as the return value of
// the forward-selection rules below.
type Partition int

const (
	PartitionNonUpdated Partition = iota
	PartitionUpdated
)

// SourceIsS1 decides the source IP to use for a probe or reverse-path
// rewrite addressed from backend b: both call sites share the same
// rule, so one function serves them.
func (m *Model) SourceIsS1(b lbmodel.Backend) bool {
	return m.InNonUpdated(b) == m.MoreNonUpdated()
}

// ForwardPartitionForS1 answers "Forward-path selection when dst = S1".
func (m *Model) ForwardPartitionForS1() Partition {
	if len(m.updated) > len(m.nonUpdated) {
		return PartitionUpdated
	}
	return PartitionNonUpdated
}

// ForwardPartitionForS2 answers "Forward-path selection when dst = S2".
func (m *Model) ForwardPartitionForS2() Partition {
	if len(m.updated) < len(m.nonUpdated) {
		return PartitionUpdated
	}
	return PartitionNonUpdated
}

// Members returns the backend set named by p.
func (m *Model) Members(p Partition) []lbmodel.Backend {
	if p == PartitionUpdated {
		return m.Updated()
	}
	return m.NonUpdated()
}

func keys(set map[lbmodel.Backend]struct{}) []lbmodel.Backend {
	out := make([]lbmodel.Backend, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	return out
}
