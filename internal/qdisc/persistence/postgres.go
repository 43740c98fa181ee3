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
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Postgres schema (reference):
//
// CREATE TABLE IF NOT EXISTS cake_stats (
//   iface TEXT PRIMARY KEY,
//   snapshot JSONB NOT NULL,
//   updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
// );
//
// CREATE TABLE IF NOT EXISTS applied_commits (
//   commit_id TEXT PRIMARY KEY,
//   iface TEXT NOT NULL,
//   ts TIMESTAMPTZ NOT NULL DEFAULT now()
// );
// CREATE INDEX IF NOT EXISTS idx_applied_commits_iface ON applied_commits(iface);

// PostgresPersister applies snapshot commits idempotently: the applied_commits
// marker is inserted first, and the stats upsert is skipped if the commit
// already existed before this transaction began.
type PostgresPersister struct {
	db             *sql.DB
	defaultTimeout time.Duration
}

func NewPostgresPersister(db *sql.DB) *PostgresPersister {
	return &PostgresPersister{db: db, defaultTimeout: 10 * time.Second}
}

func (p *PostgresPersister) CommitBatch(ctx context.Context, entries []CommitEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && p.defaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.defaultTimeout)
		defer cancel()
	}

	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, e := range entries {
		if e.CommitID == "" {
			return errors.New("CommitEntry.CommitID must be set")
		}
		var alreadyApplied bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM applied_commits WHERE commit_id = $1)`, e.CommitID,
		).Scan(&alreadyApplied); err != nil {
			return fmt.Errorf("check applied_commits(%s): %w", e.CommitID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO applied_commits(commit_id, iface) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			e.CommitID, e.Iface); err != nil {
			return fmt.Errorf("insert applied_commits(%s): %w", e.CommitID, err)
		}
		if alreadyApplied {
			continue
		}
		payload, err := marshalSnapshot(e.Snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot for %s: %w", e.Iface, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cake_stats(iface, snapshot, updated_at) VALUES ($1,$2,now())
			   ON CONFLICT (iface) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = now()`,
			e.Iface, payload); err != nil {
			return fmt.Errorf("upsert cake_stats(%s): %w", e.Iface, err)
		}
	}

	return tx.Commit()
}
