/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package store implements the result store: pooled PostgreSQL
// persistence for scan sessions, share records and the pattern registry's
// backing table.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/pkg/errors"
	"github.com/stratastor/shareaudit/pkg/scan"
)

// Column limits enforced by the sensitive_files CHECK constraints
// (schema.go). Values are truncated rather than rejected so a single
// over-limit field never costs a record.
const (
	maxFilePathLen      = 4096
	maxNameLen          = 255
	maxDetectionTypeLen = 50
)

// Config describes how to reach the result store.
type Config struct {
	Host           string
	Port           int
	Name           string
	User           string
	Password       string
	MinConnections int
	MaxConnections int
}

// Store is a pooled, retrying PostgreSQL-backed result store.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

// Open connects to the database and initializes the schema. Pool sizing
// defaults to 10/100 when unset.
func Open(ctx context.Context, cfg Config, l logger.Logger) (*Store, error) {
	if cfg.MinConnections <= 0 {
		cfg.MinConnections = 10
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 100
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Name, cfg.User, cfg.Password,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.StoreConnectFailed)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MinConnections)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.StoreConnectFailed)
	}

	s := &Store{db: db, logger: l}
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Init creates the schema if absent. Safe to call repeatedly.
func (s *Store) Init(ctx context.Context) error {
	err := withRetry(ctx, s.logger, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, schemaDDL)
		return err
	})
	if err != nil {
		return errors.Wrap(err, errors.StoreInitFailed)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginSession inserts a new running ScanSession row and returns its id.
func (s *Store) BeginSession(ctx context.Context, domain string) (int64, error) {
	var id int64
	err := withRetry(ctx, s.logger, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx,
			`INSERT INTO scan_sessions (domain, status) VALUES ($1, 'running') RETURNING id`,
			domain,
		).Scan(&id)
	})
	if err != nil {
		return 0, errors.Wrap(err, errors.StoreBeginSessionFailed)
	}
	return id, nil
}

// EndSession finalizes a session row with its terminal status and totals.
func (s *Store) EndSession(ctx context.Context, sessionID int64, status scan.SessionStatus, totals scan.Totals) error {
	err := withRetry(ctx, s.logger, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE scan_sessions
			SET end_time = now(), status = $2, total_hosts = $3, total_shares = $4, total_sensitive = $5
			WHERE id = $1`,
			sessionID, string(status), totals.Hosts, totals.Shares, totals.Sensitive,
		)
		return err
	})
	if err != nil {
		return errors.Wrap(err, errors.StoreEndSessionFailed)
	}
	return nil
}

// StoreBatch persists a batch of ShareRecords, along with their root and
// sensitive-file children, inside a single transaction. The whole batch
// is retried together on a transient failure; a caller unwinding the
// batch to per-record writes gains nothing, since uniqueness on
// (hostname, share_name, scan_time) already makes each insert idempotent
// under retry.
//
// Each record is wrapped in its own savepoint: a per-record failure (bad
// data tripping a CHECK constraint, a malformed value) rolls back to the
// savepoint and is logged, but never aborts the rest of the batch.
func (s *Store) StoreBatch(ctx context.Context, sessionID int64, records []scan.ShareRecord) error {
	if len(records) == 0 {
		return nil
	}

	err := withRetry(ctx, s.logger, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, "SAVEPOINT record"); err != nil {
				return err
			}
			if err := storeOne(ctx, tx, sessionID, rec); err != nil {
				s.logger.Warn("dropping share record after store failure",
					"hostname", rec.Hostname, "share", rec.ShareName, "err", err)
				if _, rerr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT record"); rerr != nil {
					return rerr
				}
				continue
			}
			if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT record"); err != nil {
				return err
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return errors.Wrap(err, errors.StoreBatchFailed).WithMetadata("batch_size", fmt.Sprintf("%d", len(records)))
	}
	return nil
}

// truncateRunes cuts s down to at most max runes, leaving shorter strings
// untouched.
func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// clampNonNeg floors a persisted count at 0; negative counts never occur
// in a well-formed walk, and the clamp keeps a bad value from being
// persisted.
func clampNonNeg(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clampNonNeg64(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func storeOne(ctx context.Context, tx *sql.Tx, sessionID int64, rec scan.ShareRecord) error {
	var recordID int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO share_records
			(session_id, hostname, share_name, access_level, error_message,
			 total_files, total_dirs, hidden_files, scan_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (hostname, share_name, scan_time) DO UPDATE SET
			access_level = EXCLUDED.access_level,
			error_message = EXCLUDED.error_message,
			total_files = EXCLUDED.total_files,
			total_dirs = EXCLUDED.total_dirs,
			hidden_files = EXCLUDED.hidden_files
		RETURNING id`,
		sessionID, rec.Hostname, rec.ShareName, string(rec.AccessLevel), rec.ErrorMessage,
		clampNonNeg(rec.TotalFiles), clampNonNeg(rec.TotalDirs), clampNonNeg(rec.HiddenFiles), rec.ScanTime,
	).Scan(&recordID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO share_permissions (share_record_id, can_list, can_write, denied_reason)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (share_record_id) DO UPDATE SET
			can_list = EXCLUDED.can_list, can_write = EXCLUDED.can_write, denied_reason = EXCLUDED.denied_reason`,
		recordID, rec.Probe.CanList, rec.Probe.CanWrite, rec.Probe.DeniedReason,
	); err != nil {
		return err
	}

	for _, rf := range rec.RootFiles {
		attrs := make([]string, len(rf.Attributes))
		for i, a := range rf.Attributes {
			attrs[i] = string(a)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO root_files (share_record_id, name, kind, size_bytes, attributes, created_at, modified_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			recordID, rf.Name, string(rf.Kind), clampNonNeg64(rf.SizeBytes), attrs, rf.CreatedAt, rf.ModifiedAt,
		); err != nil {
			return err
		}
	}

	for _, sf := range rec.SensitiveFiles {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sensitive_files (share_record_id, file_path, name, detection_type, description)
			VALUES ($1, $2, $3, $4, $5)`,
			recordID,
			truncateRunes(sf.Path, maxFilePathLen),
			truncateRunes(sf.Name, maxNameLen),
			truncateRunes(sf.DetectionType, maxDetectionTypeLen),
			sf.Description,
		); err != nil {
			return err
		}
	}

	return nil
}
