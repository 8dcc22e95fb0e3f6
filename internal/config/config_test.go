// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lbctl.hcl")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
service_ip_1 = "10.0.1.1"
service_ip_2 = "10.0.2.1"
servers      = ["10.0.0.2", "10.0.0.3", "10.0.0.4"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ProbeCycle != DefaultProbeCycle || cfg.ARPDeadline != DefaultARPDeadline {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.DatapathID != DefaultDatapathID {
		t.Fatalf("expected default datapath_id %d, got %d", DefaultDatapathID, cfg.DatapathID)
	}
	if len(cfg.Servers) != 3 {
		t.Fatalf("expected 3 servers, got %d", len(cfg.Servers))
	}
}

func TestLoadOverridesTimers(t *testing.T) {
	path := writeTempConfig(t, `
service_ip_1  = "10.0.1.1"
service_ip_2  = "10.0.2.1"
servers       = ["10.0.0.2"]
probe_cycle   = "10s"
arp_deadline  = "1s"
datapath_id   = 42
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ProbeCycle != 10*time.Second {
		t.Fatalf("expected overridden probe_cycle, got %v", cfg.ProbeCycle)
	}
	if cfg.ARPDeadline != 1*time.Second {
		t.Fatalf("expected overridden arp_deadline, got %v", cfg.ARPDeadline)
	}
	if cfg.DatapathID != 42 {
		t.Fatalf("expected datapath_id 42, got %d", cfg.DatapathID)
	}
}

func TestLoadRejectsEmptyServerList(t *testing.T) {
	path := writeTempConfig(t, `
service_ip_1 = "10.0.1.1"
service_ip_2 = "10.0.2.1"
servers      = []
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for empty server list")
	}
}

func TestLoadRejectsBadServiceIP(t *testing.T) {
	path := writeTempConfig(t, `
service_ip_1 = "not-an-ip"
service_ip_2 = "10.0.2.1"
servers      = ["10.0.0.2"]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for bad service_ip_1")
	}
}
