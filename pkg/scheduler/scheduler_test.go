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

package scheduler

import (
	"context"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/pkg/scan"
	"github.com/stretchr/testify/require"
)

func noopRun(ctx context.Context, cfg scan.Config) scan.Result {
	return scan.Result{}
}

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "test.scheduler")
	require.NoError(t, err)
	return l
}

func TestGetReturnsSingleton(t *testing.T) {
	s1, err := Get(noopRun, testLogger(t))
	require.NoError(t, err)
	s2, err := Get(noopRun, testLogger(t))
	require.NoError(t, err)
	require.Same(t, s1, s2)
}

func TestScheduleAndCancel(t *testing.T) {
	s, err := Get(noopRun, testLogger(t))
	require.NoError(t, err)

	id, err := s.Schedule("@every 1h", scan.Config{Domain: "example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, s.Cancel(id))
}

func TestScheduleRejectsInvalidCron(t *testing.T) {
	s, err := Get(noopRun, testLogger(t))
	require.NoError(t, err)

	_, err = s.Schedule("not a cron expression", scan.Config{})
	require.Error(t, err)
}

func TestCancelUnknownIDFails(t *testing.T) {
	s, err := Get(noopRun, testLogger(t))
	require.NoError(t, err)

	err = s.Cancel("does-not-exist")
	require.Error(t, err)
}
