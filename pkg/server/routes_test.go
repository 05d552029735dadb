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

package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/pkg/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "test.server")
	require.NoError(t, err)
	return l
}

func newTestManager(t *testing.T) *scanManager {
	return newScanManager(nil, testLogger(t))
}

func TestErrString(t *testing.T) {
	assert.Equal(t, "", errString(nil))
	assert.Equal(t, "boom", errString(errors.New("boom")))
}

func TestPollScanUnknownID(t *testing.T) {
	mgr := newTestManager(t)
	engine := gin.New()
	registerScanRoutes(engine, mgr)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scans/does-not-exist", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPollScanRunning(t *testing.T) {
	mgr := newTestManager(t)
	mgr.runs["running-id"] = &runState{sink: scan.NewChanSink(1)}

	engine := gin.New()
	registerScanRoutes(engine, mgr)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scans/running-id", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"running"`)
}

func TestPollScanDone(t *testing.T) {
	mgr := newTestManager(t)
	mgr.runs["done-id"] = &runState{
		done: true,
		result: scan.Result{
			Session: scan.ScanSession{Status: scan.SessionCompleted, TotalHosts: 3},
		},
	}

	engine := gin.New()
	registerScanRoutes(engine, mgr)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scans/done-id", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"TotalHosts":3`)
}

func TestStreamScanUnknownID(t *testing.T) {
	mgr := newTestManager(t)
	engine := gin.New()
	registerScanRoutes(engine, mgr)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scans/does-not-exist/events", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamScanEmitsEvents(t *testing.T) {
	mgr := newTestManager(t)
	sink := scan.NewChanSink(4)
	mgr.runs["stream-id"] = &runState{sink: sink}

	sink.Notify(context.Background(), scan.ProgressEvent{Kind: "host_complete", Host: "h1"})
	sink.Close()

	engine := gin.New()
	registerScanRoutes(engine, mgr)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scans/stream-id/events", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(rec.Body.String(), "host_complete"))
	assert.True(t, strings.Contains(rec.Body.String(), `"host":"h1"`))
}

func TestSubmitScanRejectsMissingDomain(t *testing.T) {
	mgr := newTestManager(t)
	engine := gin.New()
	registerScanRoutes(engine, mgr)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateScheduleRejectsMissingCron(t *testing.T) {
	mgr := newTestManager(t)
	engine := gin.New()
	registerScanRoutes(engine, mgr)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules", strings.NewReader(`{"scan":{"domain":"example.com"}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
