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

package scan

import (
	"context"
	"sync"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu          sync.Mutex
	sessionID   int64
	batches     [][]ShareRecord
	endedStatus SessionStatus
	endedTotals Totals
	beginErr    error
}

func (f *fakeStore) BeginSession(ctx context.Context, domain string) (int64, error) {
	if f.beginErr != nil {
		return 0, f.beginErr
	}
	return f.sessionID, nil
}

func (f *fakeStore) StoreBatch(ctx context.Context, sessionID int64, records []ShareRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]ShareRecord(nil), records...)
	f.batches = append(f.batches, cp)
	return nil
}

func (f *fakeStore) EndSession(ctx context.Context, sessionID int64, status SessionStatus, totals Totals) error {
	f.endedStatus = status
	f.endedTotals = totals
	return nil
}

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "test.scan")
	require.NoError(t, err)
	return l
}

func TestOrchestratorRunWithNoHostsCompletesImmediately(t *testing.T) {
	st := &fakeStore{sessionID: 1}
	orch := New(st, nil, nil, testLogger(t))

	res := orch.Run(context.Background(), Config{Domain: "example.com"})

	require.NoError(t, res.Err)
	assert.Equal(t, SessionCompleted, res.Session.Status)
	assert.Equal(t, 0, res.Session.TotalHosts)
	assert.Equal(t, SessionCompleted, st.endedStatus)
}

func TestOrchestratorRunPropagatesBeginSessionFailure(t *testing.T) {
	st := &fakeStore{beginErr: assertErr("unreachable")}
	orch := New(st, nil, nil, testLogger(t))

	res := orch.Run(context.Background(), Config{Domain: "example.com"})
	assert.Error(t, res.Err)
}

func TestOrchestratorCancelBeforeRunMarksSessionFailed(t *testing.T) {
	st := &fakeStore{sessionID: 2}
	orch := New(st, nil, nil, testLogger(t))
	orch.Cancel()

	res := orch.Run(context.Background(), Config{Domain: "example.com", Hosts: []string{"host1", "host2"}})

	assert.Equal(t, SessionFailed, res.Session.Status)
	assert.Error(t, res.Err)
}

func TestNewDefaultsToNoopSinkWhenNil(t *testing.T) {
	st := &fakeStore{sessionID: 3}
	orch := New(st, nil, nil, testLogger(t))
	assert.IsType(t, NoopSink{}, orch.sink)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
