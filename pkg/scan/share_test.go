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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeAttributeBits(t *testing.T) {
	tests := []struct {
		name  string
		bits  uint32
		isDir bool
		want  []FileAttribute
	}{
		{name: "plain file", bits: 0, isDir: false, want: nil},
		{name: "directory", bits: fileAttrDirectory, isDir: true, want: []FileAttribute{AttrDirectory}},
		{name: "hidden file", bits: fileAttrHidden, isDir: false, want: []FileAttribute{AttrHidden}},
		{name: "readonly hidden file", bits: fileAttrReadonly | fileAttrHidden, isDir: false,
			want: []FileAttribute{AttrReadOnly, AttrHidden}},
		{name: "hidden directory", bits: fileAttrHidden | fileAttrDirectory, isDir: true,
			want: []FileAttribute{AttrDirectory, AttrHidden}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeAttributeBits(tt.bits, tt.isDir)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProbeWriteNameFormat(t *testing.T) {
	name := probeWriteName()
	assert.Contains(t, name, "test_")
	assert.Contains(t, name, ".tmp")
}
