// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package clock

import (
	"sort"
	"sync"
	"time"
)

// Mock is a manually-advanced Clock for deterministic tests, letting
// a test drive time forward to captured or synthetic timestamps
// without real wall-clock delay.
type Mock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*mockTimer
	seq     int
}

type mockTimer struct {
	deadline time.Time
	f        func()
	seq      int
	stopped  bool
}

func (t *mockTimer) Stop() bool {
	wasPending := !t.stopped
	t.stopped = true
	return wasPending
}

// NewMock creates a Mock clock starting at t0.
func NewMock(t0 time.Time) *Mock {
	return &Mock{now: t0}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to an absolute time without firing timers. Used
// to seed the clock at a specific starting timestamp.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

func (m *Mock) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &mockTimer{deadline: m.now.Add(d), f: f, seq: m.seq}
	m.pending = append(m.pending, t)
	return t
}

// Advance moves the clock forward by d, firing (in deadline order) any
// timer whose deadline has elapsed. Callbacks run synchronously on the
// calling goroutine, matching the controller's cooperative single-task
// model.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	due := m.dueLocked()
	m.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (m *Mock) dueLocked() []*mockTimer {
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].deadline.Equal(m.pending[j].deadline) {
			return m.pending[i].seq < m.pending[j].seq
		}
		return m.pending[i].deadline.Before(m.pending[j].deadline)
	})

	var due []*mockTimer
	var remaining []*mockTimer
	for _, t := range m.pending {
		if t.stopped {
			continue
		}
		if !t.deadline.After(m.now) {
			due = append(due, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	m.pending = remaining
	return due
}
