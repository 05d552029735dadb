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
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/pkg/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "test.store")
	require.NoError(t, err)

	return &Store{db: db, logger: l}, mock
}

func TestInitIsIdempotent(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.Init(context.Background()))

	// A second Init against an already-initialized schema issues the same
	// idempotent DDL and must still succeed.
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.Init(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginSession(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("INSERT INTO scan_sessions").
		WithArgs("example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := s.BeginSession(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEndSession(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("UPDATE scan_sessions").
		WithArgs(int64(7), "completed", 3, 9, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.EndSession(context.Background(), 7, scan.SessionCompleted, scan.Totals{Hosts: 3, Shares: 9, Sensitive: 1})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestStoreBatchRetriesOnTransientFailure confirms that after a failed
// attempt a subsequent attempt within retryAttempts succeeds, matching
// the "whole batch retried together" contract. The failure here is at
// BeginTx, before any per-record savepoint exists, so it is the kind of
// failure that must retry the whole batch rather than being swallowed as
// a per-record drop.
func TestStoreBatchRetriesOnTransientFailure(t *testing.T) {
	s, mock := newTestStore(t)

	rec := scan.ShareRecord{
		Hostname:  "host1",
		ShareName: "data",
		ScanTime:  time.Now().UTC(),
	}

	// First attempt: BeginTx itself fails.
	mock.ExpectBegin().WillReturnError(fmt.Errorf("connection reset"))

	// Second attempt succeeds end to end.
	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT record").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO share_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec("INSERT INTO share_permissions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("RELEASE SAVEPOINT record").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.StoreBatch(context.Background(), 1, []scan.ShareRecord{rec})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestStoreBatchIsolatesPerRecordFailures confirms a single record's store
// failure is rolled back to its savepoint and dropped, without aborting
// the records around it or the transaction as a whole.
func TestStoreBatchIsolatesPerRecordFailures(t *testing.T) {
	s, mock := newTestStore(t)

	bad := scan.ShareRecord{Hostname: "host1", ShareName: "bad", ScanTime: time.Now().UTC()}
	good := scan.ShareRecord{Hostname: "host2", ShareName: "good", ScanTime: time.Now().UTC()}

	mock.ExpectBegin()

	mock.ExpectExec("SAVEPOINT record").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO share_records").WillReturnError(fmt.Errorf("check constraint violation"))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT record").WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectExec("SAVEPOINT record").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO share_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectExec("INSERT INTO share_permissions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("RELEASE SAVEPOINT record").WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectCommit()

	err := s.StoreBatch(context.Background(), 1, []scan.ShareRecord{bad, good})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreBatchEmptyIsNoop(t *testing.T) {
	s, mock := newTestStore(t)
	require.NoError(t, s.StoreBatch(context.Background(), 1, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestStoreBatchTruncatesOverLimitFields confirms a sensitive_files record
// with an oversized file_path/name/detection_type is truncated to the
// schema's CHECK limits before insert, rather than tripping the
// constraint.
func TestStoreBatchTruncatesOverLimitFields(t *testing.T) {
	s, mock := newTestStore(t)

	rec := scan.ShareRecord{
		Hostname:  "host1",
		ShareName: "data",
		ScanTime:  time.Now().UTC(),
		SensitiveFiles: []scan.SensitiveFile{
			{
				Path:          string(make([]byte, maxFilePathLen+50)),
				Name:          string(make([]byte, maxNameLen+50)),
				DetectionType: string(make([]byte, maxDetectionTypeLen+50)),
				Description:   "oversized",
			},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT record").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO share_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec("INSERT INTO share_permissions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sensitive_files").
		WithArgs(int64(1), truncateRunes(rec.SensitiveFiles[0].Path, maxFilePathLen),
			truncateRunes(rec.SensitiveFiles[0].Name, maxNameLen),
			truncateRunes(rec.SensitiveFiles[0].DetectionType, maxDetectionTypeLen),
			"oversized").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("RELEASE SAVEPOINT record").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.StoreBatch(context.Background(), 1, []scan.ShareRecord{rec})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPatterns(t *testing.T) {
	s, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"id", "regex", "category", "description", "enabled"}).
		AddRow(int64(1), `password`, "credential", "filename containing 'password'", true).
		AddRow(int64(2), `\.pem$`, "configuration", "PEM-encoded key/certificate", true)
	mock.ExpectQuery("SELECT id, regex, category, description, enabled FROM patterns").WillReturnRows(rows)

	out, err := s.ListPatterns(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "credential", out[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedDefaultsSkipsWhenNotEmpty(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM patterns").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	require.NoError(t, s.SeedDefaults(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
