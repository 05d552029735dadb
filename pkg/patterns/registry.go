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
	"regexp"
	"strings"

	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/pkg/errors"
)

// Pattern is a single enabled sensitivity rule.
type Pattern struct {
	ID          int64
	Regex       string
	Category    string
	Description string
	Enabled     bool
}

// Source loads the current pattern set, e.g. the Result Store.
type Source interface {
	ListPatterns(ctx context.Context) ([]Pattern, error)
}

type compiled struct {
	re          *regexp.Regexp
	category    string
	description string
}

// Match is a single pattern hit against a filename: the category it was
// seeded/configured under and that pattern's description.
type Match struct {
	Category    string
	Description string
}

// Registry is an immutable-once-loaded set of compiled patterns. A Registry
// is frozen for the lifetime of a scan run: Load is called once at
// orchestrator start and the result is shared read-only across every
// worker, matching the "no locking required once frozen" resource
// discipline.
type Registry struct {
	patterns []compiled
	// prefilter is a single alternation of every pattern, used to reject
	// non-matching filenames in one regexp evaluation before running the
	// full per-category set.
	prefilter *regexp.Regexp
}

// Load replaces the active set with every enabled pattern returned by src.
// Patterns with an invalid regex are logged and skipped; Load never fails
// a scan over a single bad pattern.
func Load(ctx context.Context, src Source, l logger.Logger) (*Registry, error) {
	raw, err := src.ListPatterns(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.PatternLoadFailed)
	}

	reg := &Registry{}
	alternatives := make([]string, 0, len(raw))

	for _, p := range raw {
		if !p.Enabled {
			continue
		}
		re, err := regexp.Compile("(?i)" + p.Regex)
		if err != nil {
			if l != nil {
				l.Warn("skipping invalid pattern regex", "id", p.ID, "regex", p.Regex, "err", err)
			}
			continue
		}
		reg.patterns = append(reg.patterns, compiled{re: re, category: p.Category, description: p.Description})
		alternatives = append(alternatives, "(?i)"+p.Regex)
	}

	if len(alternatives) > 0 {
		if pre, err := regexp.Compile(strings.Join(alternatives, "|")); err == nil {
			reg.prefilter = pre
		}
	}

	return reg, nil
}

// Classify returns one Match per distinct category that matches name, in
// pattern order; when several patterns of the same category match, the
// first one's description is reported. Matching is substring,
// case-insensitive. An empty, nil Registry never matches anything.
func (r *Registry) Classify(name string) []Match {
	if r == nil || len(r.patterns) == 0 {
		return nil
	}
	if r.prefilter != nil && !r.prefilter.MatchString(name) {
		return nil
	}

	var matches []Match
	seen := make(map[string]struct{})
	for _, p := range r.patterns {
		if _, dup := seen[p.category]; dup {
			continue
		}
		if p.re.MatchString(name) {
			seen[p.category] = struct{}{}
			matches = append(matches, Match{Category: p.category, Description: p.description})
		}
	}
	return matches
}

// Len reports how many patterns were successfully compiled.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.patterns)
}
