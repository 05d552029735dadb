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

package errors

import "net/http"

const (
	DomainConfig       Domain = "CONFIG"
	DomainServer       Domain = "SERVER"
	DomainLifecycle    Domain = "LIFECYCLE"
	DomainDirectory    Domain = "DIRECTORY"
	DomainSMB          Domain = "SMB"
	DomainStore        Domain = "STORE"
	DomainPattern      Domain = "PATTERN"
	DomainValidation   Domain = "VALIDATION"
	DomainOrchestrator Domain = "ORCHESTRATOR"
	DomainScheduler    Domain = "SCHEDULER"
)

// ErrorCode represents unique error identifiers
type ErrorCode int

// Domain represents the subsystem where the error originated
type Domain string

type ScanError struct {
	Code    ErrorCode `json:"code"`
	Domain  Domain    `json:"domain"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`

	HTTPStatus int `json:"-"`

	// Metadata carries structured context (host, share, query, retry
	// count, ...) used by logging and API responses. Not included in
	// Error() to keep log lines concise.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Error code ranges:
// 1000-1099: Configuration errors
// 1100-1199: Server errors
// 1200-1299: Lifecycle management
// 1300-1399: Directory source (LDAP)
// 1400-1499: SMB / share scanning
// 1500-1599: Result store
// 1600-1699: Pattern registry
// 1700-1799: Validation
// 1800-1899: Orchestrator
// 1900-1999: Scheduler
const (
	ConfigNotFound = 1000 + iota
	ConfigInvalid
	ConfigLoadFailed
	ConfigWriteFailed
	ConfigPermissionDenied
	ConfigDirectoryError
)

const (
	ServerStart = 1100 + iota
	ServerShutdown
	ServerBind
	ServerRequestValidation
	ServerInternalError
	ServerBadRequest
	ServerNotFound
)

const (
	LifecycleSingleInstance = 1200 + iota
	LifecyclePIDFile
)

const (
	// Directory Source errors (1300-1399)
	DirectoryBindFailed = 1300 + iota
	DirectoryInvalidCredentials
	DirectorySearchFailed
	DirectoryInvalidBaseDN
	DirectoryConnectionLost
	DirectoryTestQueryFailed
)

const (
	// SMB / scan errors (1400-1499)
	SMBConnectFailed = 1400 + iota
	SMBAuthFailed
	SMBListSharesFailed
	SMBTreeConnectFailed
	SMBListPathFailed
	SMBAccessDenied
	SMBProbeFailed
	SMBUnresolvableHost
	SMBHostDeadlineExceeded
	SMBShareDeadlineExceeded
)

const (
	// Result store errors (1500-1599)
	StoreConnectFailed = 1500 + iota
	StoreInitFailed
	StoreBeginSessionFailed
	StoreEndSessionFailed
	StoreBatchFailed
	StoreQueryTimeout
	StoreTransientFailure
	StorePatternCRUDFailed
)

const (
	// Pattern registry errors (1600-1699)
	PatternInvalidRegex = 1600 + iota
	PatternLoadFailed
)

const (
	// Validation errors (1700-1799)
	ValidationMissingField = 1700 + iota
	ValidationInvalidValue
)

const (
	// Orchestrator errors (1800-1899)
	OrchestratorStartFailed = 1800 + iota
	OrchestratorCancelled
	OrchestratorDirectoryFailed
)

const (
	// Scheduler errors (1900-1999)
	SchedulerJobFailed = 1900 + iota
	SchedulerInvalidCron
)

var errorDefinitions = map[ErrorCode]struct {
	message    string
	domain     Domain
	httpStatus int
}{
	ConfigNotFound:         {"Config file not found", DomainConfig, http.StatusInternalServerError},
	ConfigInvalid:          {"Invalid config format", DomainConfig, http.StatusInternalServerError},
	ConfigLoadFailed:       {"Failed to load config", DomainConfig, http.StatusInternalServerError},
	ConfigWriteFailed:      {"Failed to write config", DomainConfig, http.StatusInternalServerError},
	ConfigPermissionDenied: {"Permission denied accessing config", DomainConfig, http.StatusForbidden},
	ConfigDirectoryError:   {"Config directory error", DomainConfig, http.StatusInternalServerError},

	ServerStart:             {"Failed to start server", DomainServer, http.StatusInternalServerError},
	ServerShutdown:          {"Error during shutdown", DomainServer, http.StatusInternalServerError},
	ServerBind:              {"Failed to bind port", DomainServer, http.StatusInternalServerError},
	ServerRequestValidation: {"Request validation failed", DomainServer, http.StatusBadRequest},
	ServerInternalError:     {"Internal server error", DomainServer, http.StatusInternalServerError},
	ServerBadRequest:        {"Bad request", DomainServer, http.StatusBadRequest},
	ServerNotFound:          {"Not found", DomainServer, http.StatusNotFound},

	LifecycleSingleInstance: {"Another instance is already running", DomainLifecycle, http.StatusInternalServerError},
	LifecyclePIDFile:        {"PID file error", DomainLifecycle, http.StatusInternalServerError},

	DirectoryBindFailed:         {"Failed to bind to directory server", DomainDirectory, http.StatusInternalServerError},
	DirectoryInvalidCredentials: {"Invalid directory credentials", DomainDirectory, http.StatusUnauthorized},
	DirectorySearchFailed:       {"Directory search failed", DomainDirectory, http.StatusInternalServerError},
	DirectoryInvalidBaseDN:      {"Invalid base DN", DomainDirectory, http.StatusBadRequest},
	DirectoryConnectionLost:     {"Directory connection lost", DomainDirectory, http.StatusInternalServerError},
	DirectoryTestQueryFailed:    {"Post-bind test query failed", DomainDirectory, http.StatusInternalServerError},

	SMBConnectFailed:        {"Failed to connect over SMB", DomainSMB, http.StatusInternalServerError},
	SMBAuthFailed:           {"SMB authentication failed", DomainSMB, http.StatusUnauthorized},
	SMBListSharesFailed:     {"Failed to list shares", DomainSMB, http.StatusInternalServerError},
	SMBTreeConnectFailed:    {"Failed to connect to share", DomainSMB, http.StatusInternalServerError},
	SMBListPathFailed:       {"Failed to list share path", DomainSMB, http.StatusInternalServerError},
	SMBAccessDenied:         {"Access denied", DomainSMB, http.StatusForbidden},
	SMBProbeFailed:          {"Access-level probe failed", DomainSMB, http.StatusInternalServerError},
	SMBUnresolvableHost:     {"Host name could not be resolved", DomainSMB, http.StatusBadRequest},
	SMBHostDeadlineExceeded: {"Host scan deadline exceeded", DomainSMB, http.StatusRequestTimeout},
	SMBShareDeadlineExceeded: {"Share scan deadline exceeded", DomainSMB, http.StatusRequestTimeout},

	StoreConnectFailed:      {"Failed to connect to result store", DomainStore, http.StatusInternalServerError},
	StoreInitFailed:         {"Failed to initialize schema", DomainStore, http.StatusInternalServerError},
	StoreBeginSessionFailed: {"Failed to begin scan session", DomainStore, http.StatusInternalServerError},
	StoreEndSessionFailed:   {"Failed to finalize scan session", DomainStore, http.StatusInternalServerError},
	StoreBatchFailed:        {"Failed to store result batch", DomainStore, http.StatusInternalServerError},
	StoreQueryTimeout:       {"Store operation exceeded its deadline", DomainStore, http.StatusGatewayTimeout},
	StoreTransientFailure:   {"Transient store failure", DomainStore, http.StatusServiceUnavailable},
	StorePatternCRUDFailed:  {"Pattern CRUD operation failed", DomainStore, http.StatusInternalServerError},

	PatternInvalidRegex: {"Invalid pattern regex", DomainPattern, http.StatusBadRequest},
	PatternLoadFailed:   {"Failed to load patterns", DomainPattern, http.StatusInternalServerError},

	ValidationMissingField: {"Missing required field", DomainValidation, http.StatusBadRequest},
	ValidationInvalidValue: {"Invalid field value", DomainValidation, http.StatusBadRequest},

	OrchestratorStartFailed:     {"Failed to start scan", DomainOrchestrator, http.StatusInternalServerError},
	OrchestratorCancelled:       {"Scan cancelled", DomainOrchestrator, http.StatusOK},
	OrchestratorDirectoryFailed: {"Directory source failed", DomainOrchestrator, http.StatusInternalServerError},

	SchedulerJobFailed:   {"Scheduled scan failed", DomainScheduler, http.StatusInternalServerError},
	SchedulerInvalidCron: {"Invalid cron expression", DomainScheduler, http.StatusBadRequest},
}
