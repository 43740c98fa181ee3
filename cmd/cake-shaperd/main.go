// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main provides the entry point for the CAKE shaper daemon: a
// demo host process that manages one cake.Scheduler per interface, drains
// them on their watchdog schedule, serves a JSON control plane, and
// commits periodic stats snapshots to a configurable persistence adapter.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cake/internal/qdisc/api"
	"cake/internal/qdisc/core"
	"cake/internal/qdisc/persistence"
	"cake/internal/qdisc/telemetry"
	"cake/pkg/cake"
)

// stdoutSink prints every released packet's length and DSCP; a real host
// integration would hand the packet to the interface's transmit path.
type stdoutSink struct{ verbose bool }

func (s stdoutSink) Transmit(iface string, pkt cake.Packet) {
	if !s.verbose {
		return
	}
	fmt.Printf("[%s] tx len=%d dscp=%d\n", iface, pkt.Len(), pkt.DSCP())
}

func main() {
	httpAddr := flag.String("http_addr", ":8080", "HTTP control-plane listen address")
	baseRate := flag.Uint64("base_rate", 0, "Default shaping rate in bytes/sec for new instances; 0 = unlimited")
	diffservMode := flag.Int("diffserv_mode", int(cake.ModeDiffserv4), "Default diffserv mode: 0=besteffort 1=precedence 2=diffserv4 3=diffserv8")
	pumpInterval := flag.Duration("pump_interval", time.Millisecond, "How often the watchdog pump checks for armed deadlines")
	commitInterval := flag.Duration("commit_interval", 5*time.Second, "How often to persist a stats snapshot per instance")
	evictionAge := flag.Duration("eviction_age", time.Hour, "Evict instances idle longer than this")
	evictionInterval := flag.Duration("eviction_interval", 10*time.Minute, "How often to scan for idle instances")
	persistAdapter := flag.String("persist_adapter", "mock", "Persistence adapter: mock|redis|kafka")
	redisAddr := flag.String("redis_addr", "", "Redis address for the redis adapter; empty uses a logging fallback")
	kafkaTopic := flag.String("kafka_topic", "", "Kafka topic for the kafka adapter")
	metricsEnabled := flag.Bool("metrics", false, "Enable Prometheus telemetry (opt-in)")
	metricsAddr := flag.String("metrics_addr", "", "If non-empty, expose Prometheus /metrics on this address (e.g., :9090)")
	logInterval := flag.Duration("telemetry_log_interval", 15*time.Second, "Periodic busiest-tin summary log interval; 0 disables")
	verboseSink := flag.Bool("verbose_sink", false, "Log every transmitted packet")
	flag.Parse()

	telemetry.Enable(telemetry.Config{
		Enabled:     *metricsEnabled,
		MetricsAddr: *metricsAddr,
		LogInterval: *logInterval,
	})

	defaultCfg := cake.DefaultConfig()
	defaultCfg.BaseRate = *baseRate
	defaultCfg.DiffservMode = cake.Mode(*diffservMode)

	store := core.NewStore(defaultCfg)

	persister, err := persistence.BuildPersister(*persistAdapter, persistence.DemoOptions{
		RedisAddr:  *redisAddr,
		KafkaTopic: *kafkaTopic,
	})
	if err != nil {
		log.Fatalf("building persister: %v", err)
	}

	worker := core.NewWorker(store, stdoutSink{verbose: *verboseSink}, persister,
		*pumpInterval, *commitInterval, *evictionAge, *evictionInterval)
	worker.Start()

	apiServer := api.NewServer(store)
	mux := http.NewServeMux()
	apiServer.RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:         *httpAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("cake-shaperd control plane listening on %s\n", *httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("could not listen on %s: %v\n", *httpAddr, err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\nShutting down cake-shaperd...")
	worker.Stop()
	store.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}
	fmt.Println("cake-shaperd gracefully stopped.")
}
