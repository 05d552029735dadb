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

package store

import (
	"context"

	"github.com/stratastor/shareaudit/pkg/errors"
	"github.com/stratastor/shareaudit/pkg/patterns"
)

// ListPatterns satisfies patterns.Source, making *Store a valid pattern
// registry backing store.
func (s *Store) ListPatterns(ctx context.Context) ([]patterns.Pattern, error) {
	var out []patterns.Pattern
	err := withRetry(ctx, s.logger, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `SELECT id, regex, category, description, enabled FROM patterns`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var p patterns.Pattern
			if err := rows.Scan(&p.ID, &p.Regex, &p.Category, &p.Description, &p.Enabled); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.PatternLoadFailed)
	}
	return out, nil
}

// SeedDefaults inserts the default pattern table when the patterns table
// is empty. Safe to call on every startup.
func (s *Store) SeedDefaults(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM patterns`).Scan(&count); err != nil {
		return errors.Wrap(err, errors.StorePatternCRUDFailed)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.StorePatternCRUDFailed)
	}
	defer tx.Rollback()

	for _, d := range patterns.Defaults {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO patterns (regex, category, description, enabled) VALUES ($1, $2, $3, true)`,
			d.Regex, d.Category, d.Description,
		); err != nil {
			return errors.Wrap(err, errors.StorePatternCRUDFailed)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.StorePatternCRUDFailed)
	}
	return nil
}

// CreatePattern adds a new pattern rule.
func (s *Store) CreatePattern(ctx context.Context, p patterns.Pattern) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO patterns (regex, category, description, enabled) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Regex, p.Category, p.Description, p.Enabled,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, errors.StorePatternCRUDFailed)
	}
	return id, nil
}

// UpdatePattern overwrites an existing pattern rule by id.
func (s *Store) UpdatePattern(ctx context.Context, p patterns.Pattern) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE patterns SET regex = $2, category = $3, description = $4, enabled = $5 WHERE id = $1`,
		p.ID, p.Regex, p.Category, p.Description, p.Enabled,
	)
	if err != nil {
		return errors.Wrap(err, errors.StorePatternCRUDFailed)
	}
	return nil
}

// DeletePattern removes a pattern rule by id.
func (s *Store) DeletePattern(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM patterns WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.StorePatternCRUDFailed)
	}
	return nil
}
