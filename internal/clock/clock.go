// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package clock abstracts monotonic time and deferred callbacks so the
// controller's timing-sensitive components (probe engine, flow memory,
// live-set expiry) can be driven deterministically under test.
package clock

import "time"

// Timer is a handle to a scheduled callback. The controller never
// cancels a timer (see spec §5: "No cancellation primitive is
// required"), but Stop is provided for orderly shutdown of the real
// implementation.
type Timer interface {
	Stop() bool
}

// Clock is the C1 clock & timer scheduler collaborator.
type Clock interface {
	// Now returns the current monotonic time.
	Now() time.Time
	// AfterFunc invokes f exactly once after d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is a Clock backed by the runtime's monotonic clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
