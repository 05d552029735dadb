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
	"time"

	"github.com/stratastor/logger"
)

const (
	retryAttempts = 3
	retryWait     = 2 * time.Second
	stmtTimeout   = 30 * time.Second
)

// withRetry runs op up to retryAttempts times with a linear backoff,
// wrapping each attempt in its own statement-level deadline. Mirrors the
// directory source's bind-retry shape, generalized for store operations.
func withRetry(ctx context.Context, l logger.Logger, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, stmtTimeout)
		err := op(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if l != nil {
			l.Warn("store operation failed, retrying", "attempt", attempt, "err", err)
		}
		if attempt < retryAttempts {
			select {
			case <-time.After(time.Duration(attempt) * retryWait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}
