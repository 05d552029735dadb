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

package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDomainUser(t *testing.T) {
	tests := []struct {
		name   string
		user   string
		domain string
		want   string
	}{
		{name: "bare user", user: "jdoe", domain: "corp.example.com", want: `CORP\jdoe`},
		{name: "upn", user: "jdoe@corp.example.com", domain: "corp.example.com", want: `CORP\jdoe`},
		{name: "already qualified", user: `CORP\jdoe`, domain: "corp.example.com", want: `CORP\jdoe`},
		{name: "single-label domain", user: "jdoe", domain: "corp", want: `CORP\jdoe`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDomainUser(tt.user, tt.domain))
		})
	}
}
