// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command lbctl runs the stateful L4 load-balancer controller:
// it loads an HCL config, wires an in-memory switch simulator as the
// switch channel, and drives the packet-in dispatcher, probe engine, and operator
// HTTP surface, serialized against each other by a shared mutex
// since probe ticks and operator commands arrive on separate
// goroutines.
package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"grimm.is/sdnlb/internal/clock"
	"grimm.is/sdnlb/internal/config"
	"grimm.is/sdnlb/internal/dispatcher"
	"grimm.is/sdnlb/internal/errors"
	"grimm.is/sdnlb/internal/flowmemory"
	"grimm.is/sdnlb/internal/generation"
	"grimm.is/sdnlb/internal/liveset"
	"grimm.is/sdnlb/internal/logging"
	"grimm.is/sdnlb/internal/metrics"
	"grimm.is/sdnlb/internal/ofswitch"
	"grimm.is/sdnlb/internal/opchannel"
	"grimm.is/sdnlb/internal/probe"
	"grimm.is/sdnlb/internal/selector"
)

func main() {
	configPath := flag.String("config", "lbctl.hcl", "path to HCL config file")
	httpAddr := flag.String("http", ":8080", "operator channel / metrics listen address")
	flag.Parse()

	log := logging.Default().With("component", "main")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "err", err)
		return
	}

	// A real deployment attaches over an OpenFlow TCP connection; this
	// entry point wires an in-memory simulator as the C2 channel until
	// that transport is built.
	switchMAC := net.HardwareAddr{0x00, 0x16, 0x3e, 0x00, 0x00, 0x01}
	channel := ofswitch.NewSimulator(switchMAC)

	clk := clock.Real{}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	live := liveset.New()
	gen := generation.New(cfg.Servers)
	mem := flowmemory.New()
	sel := selector.New(gen, live)

	// Timer-fired probe ticks and operator-channel HTTP handlers run on
	// separate goroutines but touch the same flow memory, live-set, and
	// generation state; mu is the single lock serializing all three.
	mu := &sync.Mutex{}

	probeEngine := probe.New(cfg.Servers, channel, live, gen, mem, mu, m, clk, probe.ServiceIPs{S1: cfg.S1, S2: cfg.S2}, probe.Config{
		ProbeCycle:  cfg.ProbeCycle,
		ARPDeadline: cfg.ARPDeadline,
		MinProbeGap: cfg.MinProbeGap,
	})

	disp := dispatcher.New(channel, mem, live, gen, sel, probeEngine, clk, mu, m, dispatcher.Config{
		S1: cfg.S1, S2: cfg.S2,
		FlowIdleTimeout:   cfg.FlowIdleTimeout,
		FlowMemoryTimeout: cfg.FlowMemoryTimeout,
	})
	_ = disp // wired to the switch channel's packet-in feed by the transport, once attached

	router := mux.NewRouter()
	opchannel.New(gen, mu, m).RegisterRoutes(router)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: *httpAddr, Handler: router}
	go func() {
		log.Info("operator channel listening", "addr", *httpAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("operator channel failed", "err", errors.Wrap(err, errors.KindInternal, "http server"))
		}
	}()

	probeEngine.Start()
	log.Info("controller attached", "datapath_id", cfg.DatapathID, "servers", len(cfg.Servers))

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
