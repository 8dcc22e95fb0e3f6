// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package clock

import (
	"testing"
	"time"
)

func TestMockAdvanceFiresDueTimers(t *testing.T) {
	m := NewMock(time.Unix(0, 0))
	var fired []string

	m.AfterFunc(5*time.Second, func() { fired = append(fired, "a") })
	m.AfterFunc(10*time.Second, func() { fired = append(fired, "b") })

	m.Advance(5 * time.Second)
	if len(fired) != 1 || fired[0] != "a" {
		t.Fatalf("expected only 'a' to fire, got %v", fired)
	}

	m.Advance(5 * time.Second)
	if len(fired) != 2 || fired[1] != "b" {
		t.Fatalf("expected 'b' to fire next, got %v", fired)
	}
}

func TestMockTimerStopPreventsFiring(t *testing.T) {
	m := NewMock(time.Unix(0, 0))
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("expected Stop to report the timer was pending")
	}
	m.Advance(time.Minute)
	if fired {
		t.Fatal("stopped timer should not fire")
	}
}

func TestMockSetDoesNotFireTimers(t *testing.T) {
	m := NewMock(time.Unix(0, 0))
	fired := false
	m.AfterFunc(time.Second, func() { fired = true })

	m.Set(time.Unix(100, 0))
	if fired {
		t.Fatal("Set must not fire timers; only Advance does")
	}
}
