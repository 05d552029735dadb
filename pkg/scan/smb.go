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
	"fmt"
	"net"
	"time"

	smb2 "github.com/hirochachacha/go-smb2"
	"github.com/stratastor/shareaudit/pkg/errors"
)

// smbConn owns the TCP connection and SMB2/3 session for one host, and is
// shared across every share dispatched for that host.
type smbConn struct {
	tcp     net.Conn
	session *smb2.Session
}

// dialSMB resolves host (an IP literal passes through unresolved), opens a
// TCP connection on 445 and negotiates an SMB2/3 session, trying an
// anonymous bind first and falling back to the supplied domain
// credentials.
func dialSMB(host, domain, username, password string, timeout time.Duration) (*smbConn, error) {
	if host == "" || host == "[]" {
		return nil, errors.New(errors.SMBUnresolvableHost, "empty or sentinel hostname").WithMetadata("host", host)
	}

	addr := net.JoinHostPort(host, "445")
	tcp, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, errors.Wrap(err, errors.SMBConnectFailed).WithMetadata("host", host)
	}
	tcp.SetDeadline(time.Now().Add(timeout))

	// Anonymous bind first.
	d := &smb2.Dialer{Initiator: &smb2.NTLMInitiator{}}
	session, err := d.Dial(tcp)
	if err != nil && username != "" {
		tcp.Close()
		tcp, err = net.DialTimeout("tcp", addr, timeout)
		if err != nil {
			return nil, errors.Wrap(err, errors.SMBConnectFailed).WithMetadata("host", host)
		}
		tcp.SetDeadline(time.Now().Add(timeout))
		d = &smb2.Dialer{Initiator: &smb2.NTLMInitiator{User: username, Password: password, Domain: domain}}
		session, err = d.Dial(tcp)
	}
	if err != nil {
		tcp.Close()
		return nil, errors.Wrap(err, errors.SMBAuthFailed).WithMetadata("host", host)
	}

	return &smbConn{tcp: tcp, session: session}, nil
}

func (c *smbConn) listShares() ([]string, error) {
	names, err := c.session.ListSharenames()
	if err != nil {
		return nil, errors.Wrap(err, errors.SMBListSharesFailed)
	}
	return names, nil
}

func (c *smbConn) mount(share string) (*smb2.Share, error) {
	s, err := c.session.Mount(share)
	if err != nil {
		return nil, errors.Wrap(err, errors.SMBTreeConnectFailed).WithMetadata("share", share)
	}
	return s, nil
}

func (c *smbConn) close() {
	if c == nil {
		return
	}
	if c.session != nil {
		c.session.Logoff()
	}
	if c.tcp != nil {
		c.tcp.Close()
	}
}

// probeWriteName returns a unique probe filename for a write-access check.
func probeWriteName() string {
	return fmt.Sprintf("test_%d.tmp", time.Now().UnixNano())
}
