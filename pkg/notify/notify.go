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
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/pkg/httpclient"
)

// SessionSummary is the payload posted to a configured webhook when a scan
// session finishes.
type SessionSummary struct {
	SessionID      int64  `json:"sessionId"`
	Domain         string `json:"domain"`
	Status         string `json:"status"`
	TotalHosts     int    `json:"totalHosts"`
	TotalShares    int    `json:"totalShares"`
	TotalSensitive int    `json:"totalSensitive"`
	Error          string `json:"error,omitempty"`
}

// Webhook posts SessionSummary payloads to a single configured endpoint. A
// nil *Webhook, or one built with an empty URL, is a valid no-op so callers
// never need to branch on whether a webhook was configured.
type Webhook struct {
	url    string
	client *httpclient.Client
	logger logger.Logger
}

// NewWebhook builds a Webhook targeting url. Pass an empty url to get a
// no-op notifier.
func NewWebhook(url string, timeout time.Duration, l logger.Logger) *Webhook {
	cfg := httpclient.NewClientConfig()
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	return &Webhook{url: url, client: httpclient.NewClient(cfg), logger: l}
}

// Notify posts summary to the webhook URL, if any. Delivery failures are
// logged, never returned: a flaky external collaborator must not affect
// session finalization.
func (w *Webhook) Notify(ctx context.Context, summary SessionSummary) {
	if w == nil || w.url == "" {
		return
	}

	resp, err := w.client.NewRequest(httpclient.RequestConfig{
		Path:    w.url,
		Body:    summary,
		Context: ctx,
	}).Post()
	if err != nil {
		w.logger.Warn("webhook notify failed", "url", w.url, "err", err)
		return
	}
	if resp.IsError() {
		w.logger.Warn("webhook notify rejected", "url", w.url, "status", resp.StatusCode())
	}
}
