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

	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/pkg/patterns"
)

// hostResult is everything scanHost produced for one host.
type hostResult struct {
	Host   string
	Shares []ShareRecord
	Err    error
}

// scanHost resolves and connects to host, enumerates its shares (skipping
// the configured exclusion set) and dispatches each to scanShare in turn.
// It respects cfg.HostScanTimeout cooperatively via ctx: on expiry it
// returns whatever shares already completed rather than an error.
func scanHost(ctx context.Context, host string, cfg Config, reg *patterns.Registry, l logger.Logger) hostResult {
	conn, err := dialSMB(host, cfg.Domain, cfg.Username, cfg.Password, cfg.ScanTimeout)
	if err != nil {
		return hostResult{Host: host, Err: err}
	}
	defer conn.close()

	shareNames, err := conn.listShares()
	if err != nil {
		return hostResult{Host: host, Err: err}
	}

	excluded := make(map[string]struct{}, len(cfg.ExcludedShares))
	for _, s := range cfg.ExcludedShares {
		excluded[s] = struct{}{}
	}

	result := hostResult{Host: host}
	for _, name := range shareNames {
		select {
		case <-ctx.Done():
			return result
		default:
		}
		if _, skip := excluded[name]; skip {
			continue
		}

		shareCtx, cancel := context.WithTimeout(ctx, cfg.ScanTimeout)
		rec := scanShare(shareCtx, conn, host, name, cfg, reg, l)
		cancel()
		rec.SessionID = 0 // set by the orchestrator before persistence
		result.Shares = append(result.Shares, rec)
	}

	return result
}
