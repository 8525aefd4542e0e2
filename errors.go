// errors.go: Error codes and wire status mapping
//
// Validation failures are modeled as coded errors rather than sentinel
// values; callers branch on the code. The protocol layer collapses codes
// into the four-value wire status via StatusOf.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"github.com/agilira/go-errors"
)

// Error codes for chancfg operations
const (
	ErrCodeInvalidFieldRequest = "CHANCFG_INVALID_FIELD_REQUEST"
	ErrCodeActionNotSupported  = "CHANCFG_ACTION_NOT_SUPPORTED"
	ErrCodeUnspecifiedError    = "CHANCFG_UNSPECIFIED_ERROR"
	ErrCodeCorruptedConfig     = "CHANCFG_CORRUPTED_CONFIG"
	ErrCodeIOError             = "CHANCFG_IO_ERROR"
	ErrCodeInvalidConfig       = "CHANCFG_INVALID_CONFIG"
	ErrCodeLockError           = "CHANCFG_LOCK_ERROR"
	ErrCodeInvalidAuditConfig  = "CHANCFG_INVALID_AUDIT_CONFIG"
)

// Status is the consumer-facing completion code of an access-data operation,
// matching the wire protocol's taxonomy.
type Status uint8

const (
	StatusOK Status = iota
	StatusInvalidFieldRequest
	StatusActionNotSupported
	StatusUnspecifiedError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidFieldRequest:
		return "invalid-field-request"
	case StatusActionNotSupported:
		return "action-not-supported-for-channel"
	default:
		return "unspecified-error"
	}
}

// StatusOf maps an error returned by Store operations to its wire status.
// Unknown or wrapped I/O, parse, and lock failures all collapse into
// StatusUnspecifiedError.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	coder, ok := err.(errors.ErrorCoder)
	if !ok {
		return StatusUnspecifiedError
	}
	switch string(coder.ErrorCode()) {
	case ErrCodeInvalidFieldRequest:
		return StatusInvalidFieldRequest
	case ErrCodeActionNotSupported:
		return StatusActionNotSupported
	default:
		return StatusUnspecifiedError
	}
}

// errorCode extracts the chancfg error code from err, or "" when the error
// carries none.
func errorCode(err error) string {
	if coder, ok := err.(errors.ErrorCoder); ok {
		return string(coder.ErrorCode())
	}
	return ""
}
