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

// Package scan implements the share-scanning engine: host discovery
// dispatch, per-share access probing, sensitive-file classification and
// batched result hand-off. It has no transport dependency of its own; a
// caller drives it with a Config and an optional ProgressSink.
package scan

import (
	"context"
	"time"
)

// AccessLevel is the outcome of a share's access-level probe.
type AccessLevel string

const (
	AccessFullAccess AccessLevel = "FullAccess"
	AccessReadOnly   AccessLevel = "ReadOnly"
	AccessDenied     AccessLevel = "Denied"
	AccessError      AccessLevel = "Error"
)

// FileKind distinguishes root inventory entries.
type FileKind string

const (
	KindFile      FileKind = "File"
	KindDirectory FileKind = "Directory"
)

// FileAttribute is a single bit of an inventoried entry's attribute set.
type FileAttribute string

const (
	AttrReadOnly  FileAttribute = "ReadOnly"
	AttrHidden    FileAttribute = "Hidden"
	AttrDirectory FileAttribute = "Directory"
)

// SessionStatus is the lifecycle state of a ScanSession row.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// ScanSession is the top-level row tying every ShareRecord of a run
// together.
type ScanSession struct {
	ID             int64
	Domain         string
	StartTime      time.Time
	EndTime        *time.Time
	TotalHosts     int
	TotalShares    int
	TotalSensitive int
	Status         SessionStatus
}

// RootFile is a single entry inventoried at a share's root, capped at the
// first 20 in listing order.
type RootFile struct {
	Name       string
	Kind       FileKind
	SizeBytes  int64
	Attributes []FileAttribute
	CreatedAt  *time.Time
	ModifiedAt *time.Time
}

// SensitiveFile is a filename match against the Pattern Registry found
// during the recursive walk.
type SensitiveFile struct {
	Path         string
	Name         string
	DetectionType string
	Description  string
}

// ProbeDetail records the raw access-probe outcome behind the reduced
// AccessLevel enum: whether the share could be listed, whether a
// create+delete write succeeded, and why access was denied, when known.
// Additive detail on ShareRecord, not a first-class row.
type ProbeDetail struct {
	CanList      bool
	CanWrite     bool
	DeniedReason string
}

// ShareRecord is one share, as scanned during one session. Uniqueness is
// (Hostname, ShareName, ScanTime).
type ShareRecord struct {
	SessionID      int64
	Hostname       string
	ShareName      string
	AccessLevel    AccessLevel
	ErrorMessage   string
	TotalFiles     int
	TotalDirs      int
	HiddenFiles    int
	ScanTime       time.Time
	RootFiles      []RootFile
	SensitiveFiles []SensitiveFile
	Probe          ProbeDetail
}

// Config bounds a single orchestrated run.
type Config struct {
	Domain           string
	Hosts            []string
	Threads          int
	BatchSize        int
	StorageBatch     int
	MaxScanDepth     int
	ScanTimeout      time.Duration
	HostScanTimeout  time.Duration
	ExcludedShares   []string
	ScanForSensitive bool

	// SMB credentials. Anonymous is tried first; these are the fallback.
	Username string
	Password string
}

// ProgressEvent is delivered to a ProgressSink once per completed host,
// plus a final terminal event.
type ProgressEvent struct {
	Kind           string // "host_complete" | "scan_complete" | "scan_error"
	Host           string
	SharesScanned  int
	HostsRemaining int
	Err            error
}

// ProgressSink receives scan progress. Implementations must be safe for
// concurrent use and must tolerate dropped/coalesced events under load;
// Notify should never block the scanner.
type ProgressSink interface {
	Notify(ctx context.Context, ev ProgressEvent)
}

// Result is the terminal outcome of Orchestrator.Run.
type Result struct {
	Session ScanSession
	Err     error
}
