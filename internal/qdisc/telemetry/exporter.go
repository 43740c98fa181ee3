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

package telemetry

import (
	"fmt"
	"sync"
	"time"
)

type busiestTin struct {
	iface     string
	tin       int
	dropped   uint64
	backlog   int64
}

var (
	exporterMu   sync.Mutex
	exporterStop chan struct{}
	exporterDone chan struct{}

	latestMu sync.Mutex
	latest   busiestTin
)

// ReportBusiest lets a caller that already walked every instance's stats
// (the worker's commit cycle) tell the exporter which tin currently has
// the highest drop count, without the telemetry package needing its own
// handle to the Store.
func ReportBusiest(iface string, tinIdx int, dropped uint64, backlog int64) {
	if !modEnabled.Load() {
		return
	}
	latestMu.Lock()
	if dropped >= latest.dropped {
		latest = busiestTin{iface: iface, tin: tinIdx, dropped: dropped, backlog: backlog}
	}
	latestMu.Unlock()
}

func startOrUpdateExporter(cfg Config) {
	exporterMu.Lock()
	defer exporterMu.Unlock()

	if exporterStop != nil {
		close(exporterStop)
		<-exporterDone
		exporterStop, exporterDone = nil, nil
	}

	if !cfg.Enabled || cfg.LogInterval <= 0 {
		return
	}

	exporterStop = make(chan struct{})
	exporterDone = make(chan struct{})
	go runExporter(cfg.LogInterval, exporterStop, exporterDone)
}

func runExporter(interval time.Duration, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			logBusiest()
		case <-stop:
			return
		}
	}
}

func logBusiest() {
	latestMu.Lock()
	b := latest
	latestMu.Unlock()
	if b.iface == "" {
		return
	}
	fmt.Printf("[%s] cake telemetry: busiest tin iface=%s tin=%d dropped=%d backlog_bytes=%d\n",
		time.Now().Format(time.RFC3339), b.iface, b.tin, b.dropped, b.backlog)
}
