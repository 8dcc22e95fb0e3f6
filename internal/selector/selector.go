// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package selector is the C7 server selector: chooses a backend for a
// new flow given the target service IP and the generation partition.
// This implementation precomputes the live∩partition intersection
// instead of rejection-sampling, so a disjoint partition fails fast
// rather than spinning.
package selector

import (
	"errors"
	"math/rand/v2"

	"grimm.is/sdnlb/internal/generation"
	"grimm.is/sdnlb/internal/lbmodel"
	"grimm.is/sdnlb/internal/liveset"
)

// ErrNoEligibleBackend is returned when the live-set is non-empty but
// disjoint from the partition the target service IP requires.
var ErrNoEligibleBackend = errors.New("no eligible backend")

// Selector draws uniformly at random from the eligible backends for a
// flow. inport and key are accepted for a future affinity-hash variant
// and are otherwise unused.
type Selector struct {
	gen    *generation.Model
	live   *liveset.Set
	rnd    *rand.Rand
}

// New creates a Selector backed by gen and live, seeded per-process.
func New(gen *generation.Model, live *liveset.Set) *Selector {
	return &Selector{gen: gen, live: live, rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// PickForS1 selects a backend for a new flow whose destination is S1.
// key and inport are reserved, unused parameters.
func (s *Selector) PickForS1(key lbmodel.FlowKey, inport int) (lbmodel.Backend, error) {
	return s.pick(s.gen.ForwardPartitionForS1())
}

// PickForS2 selects a backend for a new flow whose destination is S2.
func (s *Selector) PickForS2(key lbmodel.FlowKey, inport int) (lbmodel.Backend, error) {
	return s.pick(s.gen.ForwardPartitionForS2())
}

func (s *Selector) pick(partition generation.Partition) (lbmodel.Backend, error) {
	members := s.gen.Members(partition)
	eligible := make([]lbmodel.Backend, 0, len(members))
	for _, b := range members {
		if _, live := s.live.Get(b); live {
			eligible = append(eligible, b)
		}
	}
	if len(eligible) == 0 {
		return "", ErrNoEligibleBackend
	}
	return eligible[s.rnd.IntN(len(eligible))], nil
}
