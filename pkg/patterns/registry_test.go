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

package patterns

import (
	"context"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	patterns []Pattern
	err      error
}

func (f fakeSource) ListPatterns(context.Context) ([]Pattern, error) {
	return f.patterns, f.err
}

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "test.patterns")
	require.NoError(t, err)
	return l
}

func TestLoadSkipsInvalidRegex(t *testing.T) {
	src := fakeSource{patterns: []Pattern{
		{ID: 1, Regex: `password`, Category: "credential", Enabled: true},
		{ID: 2, Regex: `(unterminated`, Category: "broken", Enabled: true},
		{ID: 3, Regex: `\.pem$`, Category: "configuration", Enabled: true},
		{ID: 4, Regex: `disabled`, Category: "credential", Enabled: false},
	}}

	reg, err := Load(context.Background(), src, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	src := fakeSource{patterns: []Pattern{
		{ID: 1, Regex: `password`, Category: "credential", Description: "credential file", Enabled: true},
	}}
	reg, err := Load(context.Background(), src, testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []Match{{Category: "credential", Description: "credential file"}}, reg.Classify("MyPASSWORD.txt"))
	assert.Nil(t, reg.Classify("report.pdf"))
}

func TestClassifyReturnsOneMatchPerCategory(t *testing.T) {
	src := fakeSource{patterns: []Pattern{
		{ID: 1, Regex: `password`, Category: "credential", Description: "filename containing 'password'", Enabled: true},
		{ID: 2, Regex: `secrets?`, Category: "credential", Description: "filename containing 'secret(s)'", Enabled: true},
	}}
	reg, err := Load(context.Background(), src, testLogger(t))
	require.NoError(t, err)

	matches := reg.Classify("password_and_secret.txt")
	assert.ElementsMatch(t, []Match{
		{Category: "credential", Description: "filename containing 'password'"},
	}, matches)
}

func TestClassifyMultipleCategories(t *testing.T) {
	src := fakeSource{patterns: []Pattern{
		{ID: 1, Regex: `password`, Category: "credential", Description: "credential file", Enabled: true},
		{ID: 2, Regex: `\bbackup\b`, Category: "backup", Description: "backup artifact", Enabled: true},
	}}
	reg, err := Load(context.Background(), src, testLogger(t))
	require.NoError(t, err)

	matches := reg.Classify("password-backup.txt")
	assert.ElementsMatch(t, []Match{
		{Category: "credential", Description: "credential file"},
		{Category: "backup", Description: "backup artifact"},
	}, matches)
}

func TestClassifyOnNilOrEmptyRegistry(t *testing.T) {
	var nilReg *Registry
	assert.Nil(t, nilReg.Classify("password.txt"))
	assert.Equal(t, 0, nilReg.Len())

	empty, err := Load(context.Background(), fakeSource{}, testLogger(t))
	require.NoError(t, err)
	assert.Nil(t, empty.Classify("password.txt"))
}

func TestLoadPropagatesSourceError(t *testing.T) {
	src := fakeSource{err: assertError("boom")}
	_, err := Load(context.Background(), src, testLogger(t))
	assert.Error(t, err)
}

type assertError string

func (e assertError) Error() string { return string(e) }
