// File: api/errors.go
// Author: momentics <momentics@gmail.com>
//
// Stable error taxonomy: NET / PROTO / CAL / IO categories, each with a
// stable code and a suggested recovery action, per spec error handling
// design.

package api

import "fmt"

// RecoveryAction is the fixed set of suggested recovery actions surfaced
// alongside an error code.
type RecoveryAction string

const (
	RecoveryRetry           RecoveryAction = "Retry"
	RecoveryReconnect       RecoveryAction = "Reconnect"
	RecoveryFallback        RecoveryAction = "Fallback"
	RecoveryChooseDirectory RecoveryAction = "ChooseDirectory"
	RecoveryManual          RecoveryAction = "Manual"
)

// Category is the top-level error taxonomy bucket.
type Category string

const (
	CategoryNet   Category = "NET"
	CategoryProto Category = "PROTO"
	CategoryCal   Category = "CAL"
	CategoryIO    Category = "IO"
)

// CoreError is the stable, user-facing error shape: a category, a stable
// code, a suggested recovery action, and the wrapped underlying cause.
type CoreError struct {
	Category Category
	Code     string
	Recovery RecoveryAction
	Message  string
	Cause    error
}

func (e *CoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CoreError) Unwrap() error { return e.Cause }

func newErr(cat Category, code, msg string, recovery RecoveryAction, cause error) *CoreError {
	return &CoreError{Category: cat, Code: code, Recovery: recovery, Message: msg, Cause: cause}
}

// Stable error constructors referenced by spec.md §7.
func NetConnectRefused(cause error) *CoreError {
	return newErr(CategoryNet, "NET-001", "connection refused", RecoveryRetry, cause)
}

func NetConnectTimeout(cause error) *CoreError {
	return newErr(CategoryNet, "NET-002", "connection timeout", RecoveryRetry, cause)
}

func NetSocket(cause error) *CoreError {
	return newErr(CategoryNet, "NET-003", "socket error", RecoveryReconnect, cause)
}

func NetDisconnected(cause error) *CoreError {
	return newErr(CategoryNet, "NET-004", "disconnected mid-stream", RecoveryReconnect, cause)
}

func ProtoMalformed(cause error) *CoreError {
	return newErr(CategoryProto, "PROTO-001", "malformed datagram", RecoveryRetry, cause)
}

func ProtoWrongLength(cause error) *CoreError {
	return newErr(CategoryProto, "PROTO-002", "unexpected response length", RecoveryRetry, cause)
}

func ProtoUnexpectedResponse(cause error) *CoreError {
	return newErr(CategoryProto, "PROTO-003", "unexpected TCP response", RecoveryRetry, cause)
}

func CalHTTPFailed(cause error) *CoreError {
	return newErr(CategoryCal, "CAL-001", "calibration HTTP request failed", RecoveryFallback, cause)
}

func CalTCPFailed(cause error) *CoreError {
	return newErr(CategoryCal, "CAL-002", "calibration TCP request failed", RecoveryManual, cause)
}

func CalParseFailed(cause error) *CoreError {
	return newErr(CategoryCal, "CAL-003", "calibration document parse failed", RecoveryFallback, cause)
}

func CalUnavailable(cause error) *CoreError {
	return newErr(CategoryCal, "CAL-004", "calibration unavailable", RecoveryManual, cause)
}

func CalBiasFailed(cause error) *CoreError {
	return newErr(CategoryCal, "CAL-005", "bias operation failed", RecoveryRetry, cause)
}

func IODirectoryNotWritable(cause error) *CoreError {
	return newErr(CategoryIO, "IO-001", "output directory not writable", RecoveryChooseDirectory, cause)
}

func IODiskFull(cause error) *CoreError {
	return newErr(CategoryIO, "IO-002", "disk full", RecoveryChooseDirectory, cause)
}

func IORotationFailed(cause error) *CoreError {
	return newErr(CategoryIO, "IO-003", "log rotation failed", RecoveryManual, cause)
}

func IOWriteFailed(cause error) *CoreError {
	return newErr(CategoryIO, "IO-004", "write failed", RecoveryRetry, cause)
}

func IOCloseFailed(cause error) *CoreError {
	return newErr(CategoryIO, "IO-005", "close failed", RecoveryManual, cause)
}
