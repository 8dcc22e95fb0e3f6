// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package selector

import (
	"net"
	"testing"

	"grimm.is/sdnlb/internal/generation"
	"grimm.is/sdnlb/internal/lbmodel"
	"grimm.is/sdnlb/internal/liveset"
)

func setup(t *testing.T, ips ...string) (*generation.Model, *liveset.Set, []lbmodel.Backend) {
	t.Helper()
	bs := make([]lbmodel.Backend, len(ips))
	for i, ip := range ips {
		b, err := lbmodel.NewBackend(ip)
		if err != nil {
			t.Fatal(err)
		}
		bs[i] = b
	}
	return generation.New(bs), liveset.New(), bs
}

func TestPickForS1OnlyFromNonUpdatedWhenMajority(t *testing.T) {
	gen, live, bs := setup(t, "10.0.0.2", "10.0.0.3", "10.0.0.4")
	mac, _ := net.ParseMAC("aa:bb:cc:dd:ee:01")
	for _, b := range bs {
		live.Put(b, lbmodel.LiveEntry{MAC: mac, Port: 1})
	}
	sel := New(gen, live)

	backend, err := sel.PickForS1(lbmodel.FlowKey{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.InUpdated(backend) {
		t.Fatalf("expected non_updated backend for S1 with all-non_updated pool, got %s", backend)
	}
}

func TestPickFailsFastWhenPartitionDisjointFromLiveSet(t *testing.T) {
	gen, live, bs := setup(t, "10.0.0.2", "10.0.0.3", "10.0.0.4")
	gen.MarkUpdated(bs[0]) // updated={.2} (1), non_updated={.3,.4} (2)
	if gen.ForwardPartitionForS2() != generation.PartitionUpdated {
		t.Fatal("test setup invariant broken: expected S2 to target the updated partition")
	}

	// Only the non_updated backends are live; the updated partition
	// (what S2 requires here) is entirely dead.
	mac, _ := net.ParseMAC("aa:bb:cc:dd:ee:01")
	live.Put(bs[1], lbmodel.LiveEntry{MAC: mac, Port: 1})
	live.Put(bs[2], lbmodel.LiveEntry{MAC: mac, Port: 2})
	sel := New(gen, live)

	_, err := sel.PickForS2(lbmodel.FlowKey{}, 0)
	if err != ErrNoEligibleBackend {
		t.Fatalf("expected ErrNoEligibleBackend, got %v", err)
	}

	// S1 still succeeds since its partition (non_updated) is live.
	backend, err := sel.PickForS1(lbmodel.FlowKey{}, 0)
	if err != nil {
		t.Fatalf("unexpected error for S1: %v", err)
	}
	if gen.InUpdated(backend) {
		t.Fatalf("expected non_updated backend for S1, got %s", backend)
	}
}
