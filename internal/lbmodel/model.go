// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package lbmodel holds the data types shared across the load
// balancer's components: backends, flow keys, and the live-entry
// records the liveness subsystem tracks.
package lbmodel

import (
	"fmt"
	"net"
)

// Backend is a permanent-for-process-lifetime TCP server IP.
type Backend string

// NewBackend normalizes an IPv4 string into a Backend, rejecting
// anything that doesn't parse as IPv4.
func NewBackend(ipStr string) (Backend, error) {
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("not an IPv4 address: %q", ipStr)
	}
	return Backend(ip.To4().String()), nil
}

func (b Backend) IP() net.IP { return net.ParseIP(string(b)) }

// LiveEntry is the (MAC, switch ingress port) learned from a
// backend's most recent ARP reply.
type LiveEntry struct {
	MAC  net.HardwareAddr
	Port int
}

func (e LiveEntry) Equal(o LiveEntry) bool {
	return e.Port == o.Port && e.MAC.String() == o.MAC.String()
}

// FlowKey is the 4-tuple identifying a directed TCP flow.
type FlowKey struct {
	SrcIP, DstIP     string
	SrcPort, DstPort int
}

func (k FlowKey) String() string {
	return fmt.Sprintf("%s:%d->%s:%d", k.SrcIP, k.SrcPort, k.DstIP, k.DstPort)
}
