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
	"sync/atomic"
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/pkg/errors"
	"github.com/stratastor/shareaudit/pkg/notify"
	"github.com/stratastor/shareaudit/pkg/patterns"
)

// Totals summarizes a finished or cancelled session for EndSession.
type Totals struct {
	Hosts     int
	Shares    int
	Sensitive int
}

// Store is the persistence boundary the orchestrator depends on. A
// *store.Store satisfies it; tests may substitute a fake.
type Store interface {
	BeginSession(ctx context.Context, domain string) (int64, error)
	StoreBatch(ctx context.Context, sessionID int64, records []ShareRecord) error
	EndSession(ctx context.Context, sessionID int64, status SessionStatus, totals Totals) error
}

// Orchestrator is the top-level scan driver: chunking, worker pool, batch
// buffering, progress, session lifecycle.
type Orchestrator struct {
	store   Store
	reg     *patterns.Registry
	sink    ProgressSink
	webhook *notify.Webhook
	logger  logger.Logger

	cancelled atomic.Bool
}

// New builds an Orchestrator. reg is frozen for the run's lifetime; sink
// may be nil (defaults to NoopSink).
func New(store Store, reg *patterns.Registry, sink ProgressSink, l logger.Logger) *Orchestrator {
	if sink == nil {
		sink = NoopSink{}
	}
	return &Orchestrator{store: store, reg: reg, sink: sink, logger: l}
}

// SetWebhook attaches an external-notification collaborator fired once the
// run's session row is finalized. A nil webhook disables notification.
func (o *Orchestrator) SetWebhook(w *notify.Webhook) {
	o.webhook = w
}

// Cancel makes the run stop submitting new hosts. Hosts already in flight
// are not interrupted: they run until they finish or reach their own
// deadlines. Safe to call more than once.
func (o *Orchestrator) Cancel() {
	o.cancelled.Store(true)
}

// Run begins a scan session, fans cfg.Hosts out across cfg.Threads
// workers in cfg.BatchSize chunks, buffers ShareRecords and flushes every
// cfg.StorageBatch (plus a residual flush at the end), and finalizes the
// session row. Host completion order is unspecified; StoreBatch calls are
// serialized, never issued concurrently.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) Result {
	if cfg.Threads <= 0 {
		cfg.Threads = 10
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.StorageBatch <= 0 {
		cfg.StorageBatch = 1000
	}
	if cfg.MaxScanDepth <= 0 {
		cfg.MaxScanDepth = 5
	}

	sessionID, err := o.store.BeginSession(ctx, cfg.Domain)
	if err != nil {
		return Result{Err: errors.Wrap(err, errors.StoreBeginSessionFailed)}
	}

	var (
		mu        sync.Mutex
		storeMu   sync.Mutex
		pending   []ShareRecord
		totals    Totals
		remaining = int32(len(cfg.Hosts))
	)

	// flush persists the pending batch and only then folds its share/
	// sensitive-file counts into totals, so a dropped batch never inflates
	// the session's persisted-row counts. A failed batch is logged and
	// its records are dropped; it never fails the run.
	flush := func() {
		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		batch := pending
		pending = nil
		mu.Unlock()

		storeMu.Lock()
		defer storeMu.Unlock()
		if err := o.store.StoreBatch(ctx, sessionID, batch); err != nil {
			o.logger.Error("dropping share batch after store failure", "session_id", sessionID, "records", len(batch), "err", err)
			return
		}

		var shares, sensitive int
		for _, rec := range batch {
			shares++
			sensitive += len(rec.SensitiveFiles)
		}
		mu.Lock()
		totals.Shares += shares
		totals.Sensitive += sensitive
		mu.Unlock()
	}

	sem := make(chan struct{}, cfg.Threads)
	var wg sync.WaitGroup

	for i := 0; i < len(cfg.Hosts); i += cfg.BatchSize {
		if o.cancelled.Load() {
			break
		}
		end := i + cfg.BatchSize
		if end > len(cfg.Hosts) {
			end = len(cfg.Hosts)
		}
		chunk := cfg.Hosts[i:end]

		for _, host := range chunk {
			if o.cancelled.Load() {
				break
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(host string) {
				defer wg.Done()
				defer func() { <-sem }()

				hostCtx, cancel := context.WithTimeout(ctx, cfg.HostScanTimeout)
				res := scanHost(hostCtx, host, cfg, o.reg, o.logger)
				cancel()

				if res.Err != nil {
					o.logger.Warn("host scan failed", "host", host, "err", res.Err)
				}

				mu.Lock()
				totals.Hosts++
				pending = append(pending, res.Shares...)
				shouldFlush := len(pending) >= cfg.StorageBatch
				mu.Unlock()

				if shouldFlush {
					flush()
				}

				left := atomic.AddInt32(&remaining, -1)
				o.sink.Notify(ctx, ProgressEvent{
					Kind:           "host_complete",
					Host:           host,
					SharesScanned:  len(res.Shares),
					HostsRemaining: int(left),
					Err:            res.Err,
				})
			}(host)
		}
	}

	wg.Wait()
	flush()

	status := SessionCompleted
	var runErr error
	if o.cancelled.Load() {
		status = SessionFailed
		runErr = errors.New(errors.OrchestratorCancelled, "scan cancelled")
	}

	if err := o.store.EndSession(ctx, sessionID, status, totals); err != nil {
		o.logger.Error("failed to finalize scan session", "session_id", sessionID, "err", err)
	}

	now := time.Now().UTC()
	session := ScanSession{
		ID:             sessionID,
		Domain:         cfg.Domain,
		EndTime:        &now,
		TotalHosts:     totals.Hosts,
		TotalShares:    totals.Shares,
		TotalSensitive: totals.Sensitive,
		Status:         status,
	}

	if runErr != nil {
		o.sink.Notify(ctx, ProgressEvent{Kind: "scan_error", Err: runErr})
	} else {
		o.sink.Notify(ctx, ProgressEvent{Kind: "scan_complete"})
	}

	summary := notify.SessionSummary{
		SessionID:      sessionID,
		Domain:         cfg.Domain,
		Status:         string(status),
		TotalHosts:     totals.Hosts,
		TotalShares:    totals.Shares,
		TotalSensitive: totals.Sensitive,
	}
	if runErr != nil {
		summary.Error = runErr.Error()
	}
	o.webhook.Notify(ctx, summary)

	return Result{Session: session, Err: runErr}
}
