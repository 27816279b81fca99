// Package errors provides dcmfetch-specific error types for better error handling
package errors

import (
	"errors"
	"fmt"

	"github.com/openrad/dcmfetch/types"
)

// Common errors
var (
	ErrUnknownServer     = errors.New("dcmfetch: server not in node table")
	ErrUnsupportedServer = errors.New("dcmfetch: server advertises no usable facility")
	ErrUnsupportedLevel  = errors.New("dcmfetch: hierarchy level not supported by backend")
	ErrQueryFailed       = errors.New("dcmfetch: query failed")
	ErrRetrieveFailed    = errors.New("dcmfetch: retrieve failed")
	ErrToolkitNotFound   = errors.New("dcmfetch: dcm4che toolkit not found")
)

// UnknownServerError indicates a server name that is not present in the
// node table.
type UnknownServerError struct {
	Server string
}

func (e *UnknownServerError) Error() string {
	return fmt.Sprintf("%s is not in dicom node table", e.Server)
}

func (e *UnknownServerError) Unwrap() error { return ErrUnknownServer }

// NewUnknownServerError creates a new unknown server error
func NewUnknownServerError(server string) *UnknownServerError {
	return &UnknownServerError{Server: server}
}

// UnsupportedServerError indicates a server that advertises no facility
// usable for the requested operation.
type UnsupportedServerError struct {
	Server    string
	Operation string // "query" or "fetch"
}

func (e *UnsupportedServerError) Error() string {
	if e.Operation == "fetch" {
		return fmt.Sprintf("%s supports neither direct (c-get) retrieve operations nor a web rest api", e.Server)
	}
	return fmt.Sprintf("%s supports neither dicom query (c-find) operations nor a web rest api", e.Server)
}

func (e *UnsupportedServerError) Unwrap() error { return ErrUnsupportedServer }

// NewUnsupportedServerError creates a new unsupported server error
func NewUnsupportedServerError(server, operation string) *UnsupportedServerError {
	return &UnsupportedServerError{Server: server, Operation: operation}
}

// UnsupportedLevelError indicates a hierarchy level outside the selected
// backend's capability matrix.
type UnsupportedLevelError struct {
	Backend   string
	Level     types.Level
	Supported []types.Level
}

func (e *UnsupportedLevelError) Error() string {
	return fmt.Sprintf("level %s not supported by %s backend, the supported choices are %v",
		e.Level, e.Backend, e.Supported)
}

func (e *UnsupportedLevelError) Unwrap() error { return ErrUnsupportedLevel }

// NewUnsupportedLevelError creates a new unsupported level error
func NewUnsupportedLevelError(backend string, level types.Level, supported []types.Level) *UnsupportedLevelError {
	return &UnsupportedLevelError{Backend: backend, Level: level, Supported: supported}
}

// QueryFailedError indicates a query whose backend exited non-zero or
// produced output that could not be parsed.
type QueryFailedError struct {
	Server string
	Output string
	Err    error
}

func (e *QueryFailedError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("query to %s failed: %s", e.Server, e.Output)
	}
	return fmt.Sprintf("query to %s failed: %v", e.Server, e.Err)
}

func (e *QueryFailedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrQueryFailed
}

// Is reports whether target matches the query-failed sentinel.
func (e *QueryFailedError) Is(target error) bool { return target == ErrQueryFailed }

// NewQueryFailedError creates a new query failed error
func NewQueryFailedError(server, output string, err error) *QueryFailedError {
	return &QueryFailedError{Server: server, Output: output, Err: err}
}

// RetrieveFailedError indicates a fetch whose terminal progress status was
// non-zero, or whose backend exited non-zero with no terminal status seen.
type RetrieveFailedError struct {
	Server string
	Status int // terminal DIMSE status, -1 when none was observed
	Err    error
}

func (e *RetrieveFailedError) Error() string {
	if e.Status >= 0 {
		return fmt.Sprintf("retrieve from %s failed: final response status non zero (%x)", e.Server, e.Status)
	}
	return fmt.Sprintf("retrieve from %s failed: %v", e.Server, e.Err)
}

func (e *RetrieveFailedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrRetrieveFailed
}

// Is reports whether target matches the retrieve-failed sentinel.
func (e *RetrieveFailedError) Is(target error) bool { return target == ErrRetrieveFailed }

// NewRetrieveFailedError creates a retrieve error for a non-zero terminal status.
func NewRetrieveFailedError(server string, status int) *RetrieveFailedError {
	return &RetrieveFailedError{Server: server, Status: status}
}

// NewRetrieveProcessError creates a retrieve error for a backend process
// failure observed without any terminal status.
func NewRetrieveProcessError(server string, err error) *RetrieveFailedError {
	return &RetrieveFailedError{Server: server, Status: -1, Err: err}
}
