// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config loads the controller's construction parameters from
// a single HCL file, using hclsimple to decode straight into one flat
// struct rather than a full round-trip/diff/migration system.
package config

import (
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"grimm.is/sdnlb/internal/errors"
	"grimm.is/sdnlb/internal/lbmodel"
)

// Default timer values, applied when the config file omits them.
const (
	DefaultProbeCycle        = 5 * time.Second
	DefaultARPDeadline       = 3 * time.Second
	DefaultMinProbeGap       = 250 * time.Millisecond
	DefaultFlowIdleTimeout   = 10 * time.Second
	DefaultFlowMemoryTimeout = 5 * time.Minute
	DefaultDatapathID        = uint64(1)
)

// raw is the HCL wire shape; durations are decoded as strings and
// parsed explicitly since hclsimple has no native duration type.
type raw struct {
	ServiceIP1        string   `hcl:"service_ip_1"`
	ServiceIP2        string   `hcl:"service_ip_2"`
	Servers           []string `hcl:"servers"`
	DatapathID        *uint64  `hcl:"datapath_id,optional"`
	ProbeCycle        *string  `hcl:"probe_cycle,optional"`
	ARPDeadline       *string  `hcl:"arp_deadline,optional"`
	MinProbeGap       *string  `hcl:"min_probe_gap,optional"`
	FlowIdleTimeout   *string  `hcl:"flow_idle_timeout,optional"`
	FlowMemoryTimeout *string  `hcl:"flow_memory_timeout,optional"`
}

// Config is the validated, ready-to-use controller configuration.
type Config struct {
	S1, S2   lbmodel.Backend
	Servers  []lbmodel.Backend
	DatapathID uint64

	ProbeCycle        time.Duration
	ARPDeadline       time.Duration
	MinProbeGap       time.Duration
	FlowIdleTimeout   time.Duration
	FlowMemoryTimeout time.Duration
}

// Load reads and validates an HCL config file at path.
func Load(path string) (*Config, error) {
	var r raw
	if err := hclsimple.DecodeFile(path, nil, &r); err != nil {
		return nil, errors.Wrap(err, errors.KindValidation, "failed to decode config file")
	}
	return fromRaw(&r)
}

func fromRaw(r *raw) (*Config, error) {
	s1, err := lbmodel.NewBackend(r.ServiceIP1)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindValidation, "service_ip_1 is not a valid IPv4 address")
	}
	s2, err := lbmodel.NewBackend(r.ServiceIP2)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindValidation, "service_ip_2 is not a valid IPv4 address")
	}
	if len(r.Servers) == 0 {
		return nil, errors.New(errors.KindValidation, "servers list must not be empty")
	}

	servers := make([]lbmodel.Backend, len(r.Servers))
	for i, s := range r.Servers {
		b, err := lbmodel.NewBackend(s)
		if err != nil {
			return nil, errors.Wrap(err, errors.KindValidation, "servers entry is not a valid IPv4 address")
		}
		servers[i] = b
	}

	cfg := &Config{
		S1: s1, S2: s2, Servers: servers,
		DatapathID:        DefaultDatapathID,
		ProbeCycle:        DefaultProbeCycle,
		ARPDeadline:       DefaultARPDeadline,
		MinProbeGap:       DefaultMinProbeGap,
		FlowIdleTimeout:   DefaultFlowIdleTimeout,
		FlowMemoryTimeout: DefaultFlowMemoryTimeout,
	}
	if r.DatapathID != nil {
		cfg.DatapathID = *r.DatapathID
	}

	durations := []struct {
		field *time.Duration
		raw   *string
		name  string
	}{
		{&cfg.ProbeCycle, r.ProbeCycle, "probe_cycle"},
		{&cfg.ARPDeadline, r.ARPDeadline, "arp_deadline"},
		{&cfg.MinProbeGap, r.MinProbeGap, "min_probe_gap"},
		{&cfg.FlowIdleTimeout, r.FlowIdleTimeout, "flow_idle_timeout"},
		{&cfg.FlowMemoryTimeout, r.FlowMemoryTimeout, "flow_memory_timeout"},
	}
	for _, d := range durations {
		if d.raw == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.KindValidation, d.name+" is not a valid duration")
		}
		*d.field = parsed
	}

	return cfg, nil
}
