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

package store

// schemaDDL is idempotent: every statement is a CREATE ... IF NOT EXISTS,
// so re-running Init against an already-initialized database is a no-op.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS scan_sessions (
	id              BIGSERIAL PRIMARY KEY,
	domain          TEXT NOT NULL,
	start_time      TIMESTAMPTZ NOT NULL DEFAULT now(),
	end_time        TIMESTAMPTZ,
	total_hosts     INTEGER NOT NULL DEFAULT 0,
	total_shares    INTEGER NOT NULL DEFAULT 0,
	total_sensitive INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'running'
);

CREATE TABLE IF NOT EXISTS share_records (
	id            BIGSERIAL PRIMARY KEY,
	session_id    BIGINT NOT NULL REFERENCES scan_sessions(id) ON DELETE CASCADE,
	hostname      TEXT NOT NULL,
	share_name    TEXT NOT NULL,
	access_level  TEXT NOT NULL,
	error_message TEXT,
	total_files   INTEGER NOT NULL DEFAULT 0,
	total_dirs    INTEGER NOT NULL DEFAULT 0,
	hidden_files  INTEGER NOT NULL DEFAULT 0,
	scan_time     TIMESTAMPTZ NOT NULL,
	UNIQUE (hostname, share_name, scan_time)
);

CREATE INDEX IF NOT EXISTS idx_share_records_hostname ON share_records (hostname);
CREATE INDEX IF NOT EXISTS idx_share_records_scan_time ON share_records (scan_time);
CREATE INDEX IF NOT EXISTS idx_share_records_session_id ON share_records (session_id);

CREATE TABLE IF NOT EXISTS share_permissions (
	share_record_id BIGINT PRIMARY KEY REFERENCES share_records(id) ON DELETE CASCADE,
	can_list        BOOLEAN NOT NULL DEFAULT false,
	can_write       BOOLEAN NOT NULL DEFAULT false,
	denied_reason   TEXT
);

CREATE TABLE IF NOT EXISTS root_files (
	id              BIGSERIAL PRIMARY KEY,
	share_record_id BIGINT NOT NULL REFERENCES share_records(id) ON DELETE CASCADE,
	name            TEXT NOT NULL,
	kind            TEXT NOT NULL,
	size_bytes      BIGINT NOT NULL DEFAULT 0,
	attributes      TEXT[],
	created_at      TIMESTAMPTZ,
	modified_at     TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS sensitive_files (
	id              BIGSERIAL PRIMARY KEY,
	share_record_id BIGINT NOT NULL REFERENCES share_records(id) ON DELETE CASCADE,
	file_path       TEXT NOT NULL CHECK (length(file_path) <= 4096),
	name            TEXT NOT NULL CHECK (length(name) <= 255),
	detection_type  TEXT NOT NULL CHECK (length(detection_type) <= 50),
	description     TEXT
);

CREATE INDEX IF NOT EXISTS idx_sensitive_files_share_record_id ON sensitive_files (share_record_id);
CREATE INDEX IF NOT EXISTS idx_sensitive_files_detection_type ON sensitive_files (detection_type);

CREATE TABLE IF NOT EXISTS patterns (
	id          BIGSERIAL PRIMARY KEY,
	regex       TEXT NOT NULL,
	category    TEXT NOT NULL,
	description TEXT,
	enabled     BOOLEAN NOT NULL DEFAULT true
);

CREATE INDEX IF NOT EXISTS idx_patterns_category ON patterns (category);
`
