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
	"os"
	"path"
	"time"

	smb2 "github.com/hirochachacha/go-smb2"
	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/pkg/patterns"
)

// SMB2 on-wire file attribute bits (MS-FSCC 2.6), used to decode the
// FileAttributes field go-smb2 surfaces on a stat result's Sys() value.
const (
	fileAttrReadonly  = 0x00000001
	fileAttrHidden    = 0x00000002
	fileAttrDirectory = 0x00000010
)

// rootFileCap is the number of root-level entries persisted on a
// ShareRecord; full counts still reflect the entire root.
const rootFileCap = 20

// scanShare probes access, inventories the root and, when enabled, walks
// the tree for sensitive filenames. It always returns a ShareRecord, even
// on probe failure or mid-walk cancellation: partial results persist.
func scanShare(
	ctx context.Context,
	conn *smbConn,
	host, shareName string,
	cfg Config,
	reg *patterns.Registry,
	l logger.Logger,
) ShareRecord {
	rec := ShareRecord{
		Hostname:  host,
		ShareName: shareName,
		ScanTime:  time.Now().UTC(),
	}

	share, err := conn.mount(shareName)
	if err != nil {
		rec.AccessLevel = AccessError
		rec.ErrorMessage = err.Error()
		rec.Probe.DeniedReason = err.Error()
		return rec
	}
	defer share.Umount()

	entries, err := share.ReadDir(".")
	if err != nil {
		rec.AccessLevel = AccessDenied
		rec.ErrorMessage = err.Error()
		rec.Probe.DeniedReason = err.Error()
		return rec
	}
	rec.Probe.CanList = true

	probeName := probeWriteName()
	if f, err := share.Create(probeName); err == nil {
		f.Close()
		share.Remove(probeName)
		rec.Probe.CanWrite = true
		rec.AccessLevel = AccessFullAccess
	} else {
		rec.AccessLevel = AccessReadOnly
	}

	for _, info := range entries {
		name := info.Name()
		if name == "." || name == ".." {
			continue
		}

		kind := KindFile
		if info.IsDir() {
			kind = KindDirectory
			rec.TotalDirs++
		} else {
			rec.TotalFiles++
		}

		attrs := decodeAttributes(info)
		for _, a := range attrs {
			if a == AttrHidden {
				rec.HiddenFiles++
			}
		}

		if len(rec.RootFiles) < rootFileCap {
			rf := RootFile{
				Name:       name,
				Kind:       kind,
				SizeBytes:  info.Size(),
				Attributes: attrs,
			}
			mt := info.ModTime()
			rf.ModifiedAt = &mt
			rec.RootFiles = append(rec.RootFiles, rf)
		}
	}

	if cfg.ScanForSensitive {
		walkSensitive(ctx, share, ".", 0, cfg.MaxScanDepth, reg, &rec, l)
	}

	return rec
}

// walkSensitive depth-first walks share starting at dir, classifying
// every filename against reg. depth 0 is the share root; descent stops
// once depth == maxDepth. A permission error on a subdirectory silently
// abandons that subtree rather than failing the whole walk. Cancellation
// is checked before descending into each directory and before visiting
// each child.
func walkSensitive(
	ctx context.Context,
	share *smb2.Share,
	dir string,
	depth, maxDepth int,
	reg *patterns.Registry,
	rec *ShareRecord,
	l logger.Logger,
) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	entries, err := share.ReadDir(dir)
	if err != nil {
		if l != nil {
			l.Debug("abandoning subtree after permission error", "dir", dir, "err", err)
		}
		return
	}

	for _, info := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		name := info.Name()
		if name == "." || name == ".." {
			continue
		}
		full := path.Join(dir, name)

		for _, m := range reg.Classify(name) {
			rec.SensitiveFiles = append(rec.SensitiveFiles, SensitiveFile{
				Path:          full,
				Name:          name,
				DetectionType: m.Category,
				Description:   m.Description,
			})
		}

		if info.IsDir() && depth < maxDepth {
			walkSensitive(ctx, share, full, depth+1, maxDepth, reg, rec, l)
		}
	}
}

func decodeAttributes(info os.FileInfo) []FileAttribute {
	var bits uint32
	if stat, ok := info.Sys().(*smb2.FileStat); ok && stat != nil {
		bits = stat.FileAttributes
	}
	return decodeAttributeBits(bits, info.IsDir())
}

// decodeAttributeBits maps a raw MS-FSCC FileAttributes bitmask to the
// reduced FileAttribute set this system persists. Split out from
// decodeAttributes so the bit logic can be exercised without a real SMB2
// stat result.
func decodeAttributeBits(bits uint32, isDir bool) []FileAttribute {
	var attrs []FileAttribute
	if isDir {
		attrs = append(attrs, AttrDirectory)
	}
	if bits&fileAttrReadonly != 0 {
		attrs = append(attrs, AttrReadOnly)
	}
	if bits&fileAttrHidden != 0 {
		attrs = append(attrs, AttrHidden)
	}
	return attrs
}
