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

package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RedisEvaler abstracts the minimal surface needed from a Redis client.
type RedisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// RedisPersister commits snapshots idempotently using a Lua script:
//  1. SETNX cake:commit:<iface>:<commit_id> 1
//  2. If set -> SET cake:stats:<iface> <json snapshot>
//  3. EXPIRE the marker (TTL) for leak protection
type RedisPersister struct {
	client    RedisEvaler
	markerTTL time.Duration
}

// NewRedisPersister returns a persister with the given client and marker
// TTL. markerTTL guards against unbounded growth of commit markers.
func NewRedisPersister(client RedisEvaler, markerTTL time.Duration) *RedisPersister {
	if markerTTL <= 0 {
		markerTTL = 24 * time.Hour
	}
	return &RedisPersister{client: client, markerTTL: markerTTL}
}

const redisLuaScript = `
local statsKey = KEYS[1]
local markerKey = KEYS[2]
local payload = ARGV[1]
local ttlSeconds = tonumber(ARGV[2])
local set = redis.call('SETNX', markerKey, 1)
if set == 1 then
  redis.call('SET', statsKey, payload)
  if ttlSeconds and ttlSeconds > 0 then
    redis.call('EXPIRE', markerKey, ttlSeconds)
  end
  return 1
else
  return 0
end
`

func RedisStatsKey(iface string) string { return fmt.Sprintf("cake:stats:%s", iface) }
func RedisCommitMarkerKey(iface, commitID string) string {
	return fmt.Sprintf("cake:commit:%s:%s", iface, commitID)
}

// CommitBatch applies entries one EVAL at a time; callers wanting
// pipelining can wrap the RedisEvaler implementation.
func (r *RedisPersister) CommitBatch(ctx context.Context, entries []CommitEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e.CommitID == "" {
			return errors.New("CommitEntry.CommitID must be set")
		}
		payload, err := marshalSnapshot(e.Snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot for %s: %w", e.Iface, err)
		}
		keys := []string{RedisStatsKey(e.Iface), RedisCommitMarkerKey(e.Iface, e.CommitID)}
		args := []interface{}{string(payload), int(r.markerTTL.Seconds())}
		if _, err := r.client.Eval(ctx, redisLuaScript, keys, args...); err != nil {
			return fmt.Errorf("redis eval iface=%s commit=%s: %w", e.Iface, e.CommitID, err)
		}
	}
	return nil
}
