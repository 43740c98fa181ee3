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

// Package telemetry provides opt-in Prometheus metrics and a periodic
// human-readable snapshot logger for CAKE instances. Every exported
// function is a no-op when the module hasn't been Enabled, so it is safe
// to call from the scheduler's hot path.
package telemetry

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls telemetry behavior.
type Config struct {
	Enabled     bool
	MetricsAddr string        // e.g. ":9090"; empty disables the standalone /metrics server
	LogInterval time.Duration // 0 disables the periodic snapshot logger
}

var modEnabled atomic.Bool

// packetsTotal/bytesTotal/dropsTotal/ecnMarksTotal are GaugeVecs, not
// CounterVecs: ObserveSnapshot is fed cake.TinStats' own cumulative
// counters from a periodic DumpStats, so the right operation is Set, not
// repeated Add (which would double-count every commit cycle). The "_total"
// naming still reflects their cumulative-since-Init meaning.
var (
	packetsTotal = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cake_packets_total",
		Help: "Total packets sent per tin",
	}, []string{"iface", "tin"})
	bytesTotal = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cake_bytes_total",
		Help: "Total bytes sent per tin",
	}, []string{"iface", "tin"})
	dropsTotal = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cake_drops_total",
		Help: "Total packets dropped per tin",
	}, []string{"iface", "tin"})
	ecnMarksTotal = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cake_ecn_marks_total",
		Help: "Total packets ECN-marked per tin",
	}, []string{"iface", "tin"})
	backlogBytes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cake_backlog_bytes",
		Help: "Current backlog in bytes per tin",
	}, []string{"iface", "tin"})
	memoryUsedBytes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cake_memory_used_bytes",
		Help: "Current total memory used by a scheduler instance",
	}, []string{"iface"})
	memoryLimitBytes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cake_memory_limit_bytes",
		Help: "Configured memory budget for a scheduler instance",
	}, []string{"iface"})
)

func init() {
	prometheus.MustRegister(packetsTotal, bytesTotal, dropsTotal, ecnMarksTotal, backlogBytes, memoryUsedBytes, memoryLimitBytes)
}

// Enable configures the module. Safe to call multiple times.
func Enable(cfg Config) {
	modEnabled.Store(cfg.Enabled)
	startOrUpdateExporter(cfg)
	if cfg.MetricsAddr != "" {
		startMetricsEndpoint(cfg.MetricsAddr)
	}
}

// Enabled reports whether telemetry is active.
func Enabled() bool { return modEnabled.Load() }

// ObserveSnapshot records one instance's tin counters and memory state.
// Called by the worker's commit cycle, not the packet hot path, so the
// label cardinality stays bounded by (interfaces × tins) rather than by
// packet rate.
func ObserveSnapshot(iface string, tinIdx int, sent, bytes, dropped, marks uint64, backlog int64) {
	if !modEnabled.Load() {
		return
	}
	tin := tinLabel(tinIdx)
	packetsTotal.WithLabelValues(iface, tin).Set(float64(sent))
	bytesTotal.WithLabelValues(iface, tin).Set(float64(bytes))
	dropsTotal.WithLabelValues(iface, tin).Set(float64(dropped))
	ecnMarksTotal.WithLabelValues(iface, tin).Set(float64(marks))
	backlogBytes.WithLabelValues(iface, tin).Set(float64(backlog))
}

// ObserveMemory records an instance's current memory budget usage.
func ObserveMemory(iface string, used, limit int64) {
	if !modEnabled.Load() {
		return
	}
	memoryUsedBytes.WithLabelValues(iface).Set(float64(used))
	memoryLimitBytes.WithLabelValues(iface).Set(float64(limit))
}

func tinLabel(idx int) string {
	const digits = "01234567"
	if idx < 0 || idx >= len(digits) {
		return "?"
	}
	return digits[idx : idx+1]
}

func startMetricsEndpoint(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
}
