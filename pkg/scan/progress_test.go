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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopSinkDiscardsEvents(t *testing.T) {
	var s NoopSink
	s.Notify(context.Background(), ProgressEvent{Kind: "host_complete"})
}

func TestChanSinkDeliversWithinBuffer(t *testing.T) {
	sink := NewChanSink(2)
	sink.Notify(context.Background(), ProgressEvent{Kind: "host_complete", Host: "h1"})

	select {
	case ev := <-sink.Events():
		assert.Equal(t, "h1", ev.Host)
	default:
		t.Fatal("expected buffered event")
	}
}

func TestChanSinkDropsWhenFull(t *testing.T) {
	sink := NewChanSink(1)
	sink.Notify(context.Background(), ProgressEvent{Kind: "host_complete", Host: "first"})
	// Buffer is full; this Notify must drop rather than block.
	sink.Notify(context.Background(), ProgressEvent{Kind: "host_complete", Host: "second"})

	ev := <-sink.Events()
	assert.Equal(t, "first", ev.Host)

	select {
	case <-sink.Events():
		t.Fatal("expected no further buffered event")
	default:
	}
}

func TestNewChanSinkDefaultsBufferSize(t *testing.T) {
	sink := NewChanSink(0)
	require.NotNil(t, sink)
	assert.Equal(t, 64, cap(sink.ch))
}
