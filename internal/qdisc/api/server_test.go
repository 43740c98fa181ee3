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

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cake/internal/qdisc/core"
	"cake/pkg/cake"
)

func newTestServer() (*httptest.Server, func()) {
	store := core.NewStore(cake.DefaultConfig())
	srv := NewServer(store)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	return ts, ts.Close
}

func TestServer_StatsTinQuery_ReturnsSingleTin(t *testing.T) {
	ts, closeFn := newTestServer()
	defer closeFn()
	client := ts.Client()

	resp, err := client.Get(ts.URL + "/instances/eth0/stats?tin=0")
	if err != nil {
		t.Fatalf("GET /stats?tin=0: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestServer_StatsTinQuery_OutOfRangeReturns404(t *testing.T) {
	ts, closeFn := newTestServer()
	defer closeFn()
	client := ts.Client()

	resp, err := client.Get(ts.URL + "/instances/eth0/stats?tin=99")
	if err != nil {
		t.Fatalf("GET /stats?tin=99: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for an out-of-range tin, got %d", resp.StatusCode)
	}
}

func TestServer_StatsTinQuery_NonIntegerReturns400(t *testing.T) {
	ts, closeFn := newTestServer()
	defer closeFn()
	client := ts.Client()

	resp, err := client.Get(ts.URL + "/instances/eth0/stats?tin=notanumber")
	if err != nil {
		t.Fatalf("GET /stats?tin=notanumber: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-integer tin, got %d", resp.StatusCode)
	}
}

func TestServer_StatsWithoutTinQuery_ReturnsFullSnapshot(t *testing.T) {
	ts, closeFn := newTestServer()
	defer closeFn()
	client := ts.Client()

	resp, err := client.Get(ts.URL + "/instances/eth0/stats")
	if err != nil {
		t.Fatalf("GET /stats: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
