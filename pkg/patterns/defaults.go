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

// Default is a pattern seeded at first store initialization. Regex is
// matched case-insensitively against a bare filename.
type Default struct {
	Regex       string
	Category    string
	Description string
}

// Defaults is the seed table for a fresh Result Store: common credential,
// PII, financial, HR, health, identity, classification, legal and backup
// filename conventions, plus a handful of sensitive key/cert extensions.
var Defaults = []Default{
	{`password`, "credential", "filename containing 'password'"},
	{`passwd`, "credential", "filename containing 'passwd'"},
	{`credentials?`, "credential", "filename containing 'credential(s)'"},
	{`secrets?`, "credential", "filename containing 'secret(s)'"},
	{`api[_-]?key`, "credential", "filename containing an API key reference"},
	{`\.pgp$`, "credential", "PGP-encrypted file"},

	{`ssn|social[_-]?security`, "pii", "social security number reference"},
	{`passport`, "pii", "passport reference"},
	{`driver[_-]?licen[sc]e`, "pii", "driver's license reference"},
	{`date[_-]?of[_-]?birth|\bdob\b`, "pii", "date of birth reference"},

	{`invoice`, "financial", "invoice document"},
	{`bank[_-]?(account|statement)`, "financial", "bank account/statement reference"},
	{`routing[_-]?number`, "financial", "bank routing number reference"},
	{`\bw-?2\b|\b1099\b`, "financial", "tax form reference"},
	{`payroll`, "financial", "payroll document"},

	{`\bhr[_-]?(confidential|review)\b`, "hr", "HR confidential document"},
	{`performance[_-]?review`, "hr", "performance review document"},
	{`termination`, "hr", "termination document"},

	{`medical[_-]?record`, "health", "medical record reference"},
	{`\bhipaa\b`, "health", "HIPAA-covered document"},
	{`diagnosis`, "health", "diagnosis reference"},

	{`\bssn\b|national[_-]?id`, "identity", "national identifier reference"},

	{`\b(confidential|classified|restricted|top[_-]?secret)\b`, "classification", "explicit sensitivity marking"},

	{`\b(nda|non[_-]?disclosure)\b`, "legal", "non-disclosure agreement"},
	{`contract`, "legal", "contract document"},
	{`litigation`, "legal", "litigation document"},

	{`\bbackup\b|\.bak$`, "backup", "backup artifact"},

	{`\.key$`, "security", "private key file"},
	{`\.pem$`, "security", "PEM-encoded key/certificate"},
	{`\.pfx$`, "security", "PKCS#12 certificate bundle"},
	{`\.p12$`, "security", "PKCS#12 certificate bundle"},
	{`\.kdb$`, "security", "KeePass database"},
	{`\.kdbx$`, "security", "KeePass database"},

	{`config|settings|\benv\b|properties`, "configuration", "configuration file reference"},
}
