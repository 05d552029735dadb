// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainToBaseDN(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		want   string
	}{
		{name: "two labels", domain: "example.com", want: "DC=example,DC=com"},
		{name: "three labels", domain: "corp.example.com", want: "DC=corp,DC=example,DC=com"},
		{name: "single label", domain: "corp", want: "DC=corp"},
		{name: "empty", domain: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domainToBaseDN(tt.domain))
		})
	}
}

func TestNewLoggerConfigHandlesNilConfig(t *testing.T) {
	lc := NewLoggerConfig(nil)
	assert.Equal(t, "info", lc.LogLevel)
	assert.False(t, lc.EnableSentry)
}
