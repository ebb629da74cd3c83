/**
 * Error types for the watchdog
 *
 * Two classes: fatal run errors abort the process (unset ROI, rejected
 * license, unusable capture backend); everything else is recoverable and is
 * logged before the loop moves on. The code travels with the error so the
 * entrypoint can pick an exit path without string matching.
 */

package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a watchdog error.
type ErrorCode string

const (
	// Fatal setup errors
	ErrorROIInvalid      ErrorCode = "ROI_INVALID"
	ErrorLicenseRejected ErrorCode = "LICENSE_REJECTED"
	ErrorCaptureBackend  ErrorCode = "CAPTURE_BACKEND"

	// Recoverable per-cycle errors
	ErrorCaptureFailed ErrorCode = "CAPTURE_FAILED"
	ErrorOCRFailed     ErrorCode = "OCR_FAILED"
	ErrorEncodeFailed  ErrorCode = "ENCODE_FAILED"
	ErrorNotifyFailed  ErrorCode = "NOTIFY_FAILED"
	ErrorStorageFailed ErrorCode = "STORAGE_FAILED"
)

// RunError is a coded watchdog error.
type RunError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *RunError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RunError) Unwrap() error { return e.Cause }

// New creates a coded error.
func New(code ErrorCode, message string, cause error) *RunError {
	return &RunError{Code: code, Message: message, Cause: cause}
}

// Fatal reports whether err carries a code that must abort the run.
func Fatal(err error) bool {
	var re *RunError
	if !errors.As(err, &re) {
		return false
	}
	switch re.Code {
	case ErrorROIInvalid, ErrorLicenseRejected, ErrorCaptureBackend:
		return true
	}
	return false
}
