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

import "context"

// NoopSink discards every event. The default when no ProgressSink is
// supplied.
type NoopSink struct{}

func (NoopSink) Notify(context.Context, ProgressEvent) {}

// ChanSink fans progress events out over a buffered channel, dropping
// (not blocking) when the channel is full, matching the "lossy-tolerant
// under load" progress contract. Used by the HTTP control surface's SSE
// stream.
type ChanSink struct {
	ch chan ProgressEvent
}

// NewChanSink creates a ChanSink with the given buffer size.
func NewChanSink(buffer int) *ChanSink {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChanSink{ch: make(chan ProgressEvent, buffer)}
}

func (s *ChanSink) Notify(_ context.Context, ev ProgressEvent) {
	select {
	case s.ch <- ev:
	default:
		// Drop the event; a lagging subscriber must not stall the scan.
	}
}

// Events returns the read side of the sink's channel.
func (s *ChanSink) Events() <-chan ProgressEvent {
	return s.ch
}

// Close closes the underlying channel. Call only after the orchestrator
// run that owns this sink has returned.
func (s *ChanSink) Close() {
	close(s.ch)
}
