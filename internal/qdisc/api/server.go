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

// Package api implements the public-facing HTTP control plane for CAKE
// instances: pushing config changes, forcing resets, pulling stats, and a
// demo enqueue endpoint for exercising the dataplane without a real NIC.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cake/internal/qdisc/core"
	"cake/pkg/cake"
)

// Server handles the HTTP control plane for a Store of named instances.
type Server struct {
	store *core.Store
}

// NewServer creates and configures a new API server over store.
func NewServer(store *core.Store) *Server {
	return &Server{store: store}
}

// RegisterRoutes sets up the HTTP routes for the server on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/instances/", s.routeInstance)
}

// routeInstance dispatches /instances/{iface}/{action} to the right
// handler. This Go version's net/http ServeMux has no wildcard path
// segments, so the iface/action split is done by hand.
func (s *Server) routeInstance(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/instances/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		http.Error(w, "expected /instances/{iface}/{action}", http.StatusBadRequest)
		return
	}
	iface, action := parts[0], parts[1]

	switch action {
	case "config":
		s.handleConfig(w, r, iface)
	case "reset":
		s.handleReset(w, r, iface)
	case "stats":
		s.handleStats(w, r, iface)
	case "enqueue":
		s.handleEnqueue(w, r, iface)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request, iface string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var cfg cake.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("bad config body: %v", err), http.StatusBadRequest)
		return
	}
	m, err := s.store.GetOrCreate(iface)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := m.Change(cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, iface string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m, err := s.store.GetOrCreate(iface)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	m.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, iface string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m, err := s.store.GetOrCreate(iface)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// ?tin=N narrows the response to a single tin instead of the full
	// snapshot, e.g. for a dashboard that only watches the latency tin.
	if raw := r.URL.Query().Get("tin"); raw != "" {
		idx, convErr := strconv.Atoi(raw)
		if convErr != nil {
			http.Error(w, "tin must be an integer index", http.StatusBadRequest)
			return
		}
		ts, err := m.TinStats(idx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ts)
		return
	}

	snap := m.DumpStats()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

// enqueueRequest is a synthetic packet descriptor for exercising the
// dataplane without a real NIC.
type enqueueRequest struct {
	Length  int    `json:"length"`
	DSCP    uint8  `json:"dscp"`
	SrcIP   string `json:"src_ip"`
	DstIP   string `json:"dst_ip"`
	SrcPort uint16 `json:"src_port"`
	DstPort uint16 `json:"dst_port"`
	Proto   uint8  `json:"proto"`
}

type enqueueResponse struct {
	Accepted bool `json:"accepted"`
	Dropped  bool `json:"dropped"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request, iface string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("bad enqueue body: %v", err), http.StatusBadRequest)
		return
	}
	m, err := s.store.GetOrCreate(iface)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pkt := &syntheticPacket{length: req.Length, dscp: req.DSCP}
	var key cake.FlowKey
	copy(key.SrcIP[12:], net4(req.SrcIP))
	copy(key.DstIP[12:], net4(req.DstIP))
	key.SrcPort, key.DstPort, key.Proto = req.SrcPort, req.DstPort, req.Proto

	accepted, dropped := m.Enqueue(pkt, key)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(enqueueResponse{Accepted: accepted, Dropped: dropped})
}

// ListenAndServe starts the HTTP server on addr with read, write and idle
// timeouts; it does not perform a graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	fmt.Printf("cake control-plane API listening on %s\n", addr)
	return httpServer.ListenAndServe()
}
