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

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

func (e *ScanError) Error() string {
	// Metadata is excluded from Error() deliberately: it's for structured
	// consumption (API responses, logging), not one-line log messages.
	msg := fmt.Sprintf("[%s-%d] %s", e.Domain, e.Code, e.Message)
	if e.Details != "" {
		msg += " - " + e.Details
	}
	return msg
}

func (e *ScanError) WithMetadata(key, value string) *ScanError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// MarshalJSON customizes JSON serialization
func (e *ScanError) MarshalJSON() ([]byte, error) {
	type Alias ScanError
	return json.Marshal(&struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias:     (*Alias)(e),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// New creates a new ScanError from a known code.
func New(code ErrorCode, details string) *ScanError {
	def, ok := errorDefinitions[code]
	if !ok {
		return &ScanError{
			Code:       code,
			Domain:     "UNKNOWN",
			Message:    "Unknown error",
			Details:    details,
			HTTPStatus: http.StatusInternalServerError,
		}
	}

	return &ScanError{
		Code:       code,
		Domain:     def.domain,
		Message:    def.message,
		Details:    details,
		HTTPStatus: def.httpStatus,
	}
}

// Is implements the interface for errors.Is
func (e *ScanError) Is(target error) bool {
	if t, ok := target.(*ScanError); ok {
		return e.Code == t.Code && e.Domain == t.Domain
	}
	return false
}

// Is checks if an error matches a sentinel error
func Is(err, target error) bool {
	re, ok := err.(*ScanError)
	if !ok {
		return false
	}
	if t, ok := target.(*ScanError); ok {
		return re.Code == t.Code && re.Domain == t.Domain
	}
	return false
}

// Wrap wraps an existing error with additional context, preserving
// metadata and recording the original code/domain/message for the chain.
func Wrap(err error, code ErrorCode) *ScanError {
	if re, ok := err.(*ScanError); ok {
		newErr := New(code, re.Details)
		if re.Metadata != nil {
			for k, v := range re.Metadata {
				newErr.WithMetadata(k, v)
			}
		}
		newErr.WithMetadata("wrapped_code", fmt.Sprintf("%d", re.Code))
		newErr.WithMetadata("wrapped_domain", string(re.Domain))
		newErr.WithMetadata("wrapped_message", re.Message)
		return newErr
	}
	return New(code, err.Error())
}

// Unwrap implements the interface for errors.Unwrap
func (e *ScanError) Unwrap() error {
	if e.Metadata != nil {
		if originalErr, ok := e.Metadata["wrapped_error"]; ok {
			return fmt.Errorf("%s", originalErr)
		}
	}
	return nil
}

// IsScanError checks if an error is a ScanError
func IsScanError(err error) bool {
	_, ok := err.(*ScanError)
	return ok
}

// GetCode extracts the error code from an error if it's a ScanError
// (directly or wrapped). Returns 0, false otherwise.
func GetCode(err error) (ErrorCode, bool) {
	if err == nil {
		return 0, false
	}
	if re, ok := err.(*ScanError); ok {
		return re.Code, true
	}
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Code, true
	}
	return 0, false
}

// GetErrorWithCode returns the first ScanError in the error chain with the
// given code, or nil if none matches.
func GetErrorWithCode(err error, code ErrorCode) *ScanError {
	if err == nil {
		return nil
	}
	if re, ok := err.(*ScanError); ok && re.Code == code {
		return re
	}
	var scanErr *ScanError
	if errors.As(err, &scanErr) && scanErr.Code == code {
		return scanErr
	}
	return nil
}
