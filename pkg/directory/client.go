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
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/pkg/errors"
)

const (
	bindRetries   = 3
	bindRetryWait = 2 * time.Second
)

// Config describes how to reach and authenticate against the directory
// server.
type Config struct {
	Server        string
	Port          int
	Domain        string
	BaseDN        string
	BindUser      string
	BindPass      string
	UseSimpleBind bool
}

// Client wraps a bound LDAP connection.
type Client struct {
	conn   *ldap.Conn
	cfg    Config
	logger logger.Logger
}

// Dial connects and binds to the directory server, retrying up to
// bindRetries times with a linear backoff. NTLM pass-through
// authentication is attempted first; when UseSimpleBind is set, or the
// server doesn't support NTLM, a simple bind with "DOMAIN\user" is used
// instead. A lightweight test query (root DSE) is required to succeed
// before Dial returns, matching the "test query required before
// returning" bind contract.
func Dial(cfg Config, l logger.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Server, cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= bindRetries; attempt++ {
		conn, err := ldap.DialURL("ldap://" + addr)
		if err != nil {
			lastErr = err
			l.Warn("directory dial failed, retrying", "attempt", attempt, "addr", addr, "err", err)
			time.Sleep(time.Duration(attempt) * bindRetryWait)
			continue
		}

		if err := bind(conn, cfg); err != nil {
			conn.Close()
			lastErr = err
			l.Warn("directory bind failed, retrying", "attempt", attempt, "err", err)
			time.Sleep(time.Duration(attempt) * bindRetryWait)
			continue
		}

		if _, err := conn.Search(ldap.NewSearchRequest(
			"", ldap.ScopeBaseObject, ldap.NeverDerefAliases, 0, 5, false,
			"(objectClass=*)", []string{"defaultNamingContext"}, nil,
		)); err != nil {
			conn.Close()
			lastErr = err
			l.Warn("directory post-bind test query failed, retrying", "attempt", attempt, "err", err)
			time.Sleep(time.Duration(attempt) * bindRetryWait)
			continue
		}

		return &Client{conn: conn, cfg: cfg, logger: l}, nil
	}

	return nil, errors.Wrap(lastErr, errors.DirectoryBindFailed).WithMetadata("server", cfg.Server)
}

func bind(conn *ldap.Conn, cfg Config) error {
	user := formatDomainUser(cfg.BindUser, cfg.Domain)

	if cfg.UseSimpleBind {
		return conn.Bind(user, cfg.BindPass)
	}

	if err := conn.NTLMBind(cfg.Domain, cfg.BindUser, cfg.BindPass); err != nil {
		return conn.Bind(user, cfg.BindPass)
	}
	return nil
}

// formatDomainUser normalizes "user@domain.tld" or a bare "user" into
// "DOMAIN\user", matching the directory's simple-bind expectations.
func formatDomainUser(user, domain string) string {
	if strings.Contains(user, `\`) {
		return user
	}
	if at := strings.Index(user, "@"); at >= 0 {
		return strings.ToUpper(strings.SplitN(domain, ".", 2)[0]) + `\` + user[:at]
	}
	short := domain
	if dot := strings.Index(domain, "."); dot >= 0 {
		short = domain[:dot]
	}
	return strings.ToUpper(short) + `\` + user
}

// Close releases the underlying connection.
func (c *Client) Close() {
	if c != nil && c.conn != nil {
		c.conn.Close()
	}
}
