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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cake/pkg/cake"
)

// KafkaProducer is a minimal abstraction over a Kafka client. Implementations
// should enable an idempotent producer and use CommitID as the message key
// so broker-side dedup and per-iface ordering are preserved.
type KafkaProducer interface {
	Produce(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error
}

// KafkaPersister publishes snapshots as Kafka messages; it does not apply
// state locally, it delegates materialization to downstream consumers that
// track the last-applied CommitID per iface.
type KafkaPersister struct {
	producer       KafkaProducer
	topic          string
	defaultTimeout time.Duration
}

func NewKafkaPersister(p KafkaProducer, topic string) *KafkaPersister {
	return &KafkaPersister{producer: p, topic: topic, defaultTimeout: 10 * time.Second}
}

// CommitMessage is the serialized payload sent to Kafka. Message key is
// CommitID (bytes); the payload carries the interface name and snapshot.
type CommitMessage struct {
	Iface    string             `json:"iface"`
	Snapshot cake.StatsSnapshot `json:"snapshot"`
	CommitID string             `json:"commit_id"`
	TsUnixMs int64              `json:"ts_unix_ms"`
}

func (k *KafkaPersister) CommitBatch(ctx context.Context, entries []CommitEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && k.defaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.defaultTimeout)
		defer cancel()
	}
	nowMs := time.Now().UnixMilli()
	for _, e := range entries {
		if e.CommitID == "" {
			return errors.New("CommitEntry.CommitID must be set")
		}
		msg := CommitMessage{Iface: e.Iface, Snapshot: e.Snapshot, CommitID: e.CommitID, TsUnixMs: nowMs}
		b, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal kafka message: %w", err)
		}
		headers := map[string]string{"content-type": "application/json"}
		if err := k.producer.Produce(ctx, k.topic, []byte(e.CommitID), b, headers); err != nil {
			return fmt.Errorf("kafka produce iface=%s commit=%s: %w", e.Iface, e.CommitID, err)
		}
	}
	return nil
}
