// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package liveset is the C4 live-set: the mapping from backend IP to
// the (MAC, switch ingress port) learned from ARP, read by the
// selector and dispatcher and mutated only by the probe engine.
package liveset

import "grimm.is/sdnlb/internal/lbmodel"

// Set is not safe for concurrent use; callers (the probe engine and
// packet-in dispatcher, each on its own goroutine) must hold the
// shared mutex covering it, flow memory, generation, and outstanding
// probes before touching it.
type Set struct {
	entries map[lbmodel.Backend]lbmodel.LiveEntry
}

func New() *Set {
	return &Set{entries: make(map[lbmodel.Backend]lbmodel.LiveEntry)}
}

// Put records or replaces the entry for b, reporting whether an entry
// already existed and, if so, whether it changed (the trigger for the
// "server up" log).
func (s *Set) Put(b lbmodel.Backend, e lbmodel.LiveEntry) (existed bool, changed bool) {
	prev, existed := s.entries[b]
	s.entries[b] = e
	changed = !existed || !prev.Equal(e)
	return existed, changed
}

// Remove evicts b from the live-set (the trigger for "server down").
// Reports whether b was present.
func (s *Set) Remove(b lbmodel.Backend) bool {
	_, ok := s.entries[b]
	delete(s.entries, b)
	return ok
}

// Get returns b's live entry, if any.
func (s *Set) Get(b lbmodel.Backend) (lbmodel.LiveEntry, bool) {
	e, ok := s.entries[b]
	return e, ok
}

// Len reports the number of live backends.
func (s *Set) Len() int { return len(s.entries) }

// Backends returns the set of currently live backends.
func (s *Set) Backends() []lbmodel.Backend {
	out := make([]lbmodel.Backend, 0, len(s.entries))
	for b := range s.entries {
		out = append(out, b)
	}
	return out
}
