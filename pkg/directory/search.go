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
	"context"
	"fmt"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stratastor/shareaudit/pkg/errors"
)

// SearchOptions bounds a computer-object enumeration.
type SearchOptions struct {
	// OU, if set, is prefixed to the client's configured BaseDN ("OU,BaseDN")
	// to scope the search to a single organizational unit.
	OU string
	// PageSize is the LDAP paged-search page size (default 5000).
	PageSize uint32
	// MaxComputers caps the number of results returned; the search stops
	// as soon as this many computer names have been collected, returning
	// a partial (not erroneous) result.
	MaxComputers int
	// Timeout bounds the whole paged search; exceeding it returns
	// whatever was collected so far, not an error.
	Timeout time.Duration
}

// SearchComputers enumerates computer objects' DNS names (falling back to
// "name.domain" when dNSHostName is absent) using a paged search against
// (objectClass=computer). It never returns an error solely because
// MaxComputers or Timeout was reached; those are accepted limits, not
// failures.
func (c *Client) SearchComputers(ctx context.Context, opts SearchOptions) ([]string, error) {
	if opts.PageSize == 0 {
		opts.PageSize = 5000
	}

	baseDN := c.cfg.BaseDN
	if opts.OU != "" {
		baseDN = fmt.Sprintf("%s,%s", opts.OU, c.cfg.BaseDN)
	}
	if baseDN == "" {
		return nil, errors.New(errors.DirectoryInvalidBaseDN, "no base DN configured")
	}

	deadline := time.Now().Add(opts.Timeout)
	if opts.Timeout <= 0 {
		deadline = time.Now().Add(300 * time.Second)
	}

	req := ldap.NewSearchRequest(
		baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		"(objectClass=computer)",
		[]string{"dNSHostName", "name"},
		nil,
	)

	var hosts []string
	pager := ldap.NewPagingControl(opts.PageSize)

	for {
		select {
		case <-ctx.Done():
			return hosts, nil
		default:
		}
		if time.Now().After(deadline) {
			return hosts, nil
		}

		req.Controls = []ldap.Control{pager}
		res, err := c.conn.Search(req)
		if err != nil {
			if len(hosts) > 0 {
				return hosts, nil
			}
			return nil, errors.Wrap(err, errors.DirectorySearchFailed)
		}

		for _, entry := range res.Entries {
			host := entry.GetAttributeValue("dNSHostName")
			if host == "" {
				if name := entry.GetAttributeValue("name"); name != "" {
					host = fmt.Sprintf("%s.%s", name, c.cfg.Domain)
				}
			}
			if host == "" {
				continue
			}
			hosts = append(hosts, host)
			if opts.MaxComputers > 0 && len(hosts) >= opts.MaxComputers {
				return hosts, nil
			}
		}

		next := ldap.FindControl(res.Controls, ldap.ControlTypePaging)
		if next == nil {
			break
		}
		pagingControl, ok := next.(*ldap.ControlPaging)
		if !ok || len(pagingControl.Cookie) == 0 {
			break
		}
		pager.SetCookie(pagingControl.Cookie)
	}

	return hosts, nil
}
