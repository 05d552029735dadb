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

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "test.notify")
	require.NoError(t, err)
	return l
}

func TestNilWebhookNotifyIsNoop(t *testing.T) {
	var w *Webhook
	w.Notify(context.Background(), SessionSummary{Domain: "example.com"})
}

func TestEmptyURLWebhookNotifyIsNoop(t *testing.T) {
	w := NewWebhook("", 0, testLogger(t))
	w.Notify(context.Background(), SessionSummary{Domain: "example.com"})
}

func TestWebhookNotifyPostsSummary(t *testing.T) {
	var received int32
	var body SessionSummary

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&received, 1)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second, testLogger(t))
	w.Notify(context.Background(), SessionSummary{
		SessionID:   7,
		Domain:      "example.com",
		Status:      "completed",
		TotalHosts:  2,
		TotalShares: 5,
	})

	assert.Equal(t, int32(1), atomic.LoadInt32(&received))
	assert.Equal(t, int64(7), body.SessionID)
	assert.Equal(t, "example.com", body.Domain)
	assert.Equal(t, "completed", body.Status)
}

func TestWebhookNotifySurvivesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second, testLogger(t))
	w.Notify(context.Background(), SessionSummary{Domain: "example.com"})
}

func TestWebhookNotifySurvivesUnreachableHost(t *testing.T) {
	w := NewWebhook("http://127.0.0.1:1", 50*time.Millisecond, testLogger(t))
	w.Notify(context.Background(), SessionSummary{Domain: "example.com"})
}
