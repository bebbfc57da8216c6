// SPDX-License-Identifier: EPL-2.0

package tonearm

import "errors"

var (
	// ErrNullHandle is returned when the zero handle is passed to any
	// operation.
	ErrNullHandle = errors.New("null engine handle")

	// ErrInvalidHandle is returned for a handle that was never issued or
	// was already destroyed.
	ErrInvalidHandle = errors.New("invalid engine handle")

	// ErrInvalidArgument is returned for out-of-domain parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a referenced file or track does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrInternal wraps failures that are not the caller's fault:
	// decode, device and I/O errors.
	ErrInternal = errors.New("internal error")
)

// Integer codes for hosts that cannot consume Go errors across the
// embedding boundary.
const (
	CodeOK              = 0
	CodeNullHandle      = -1
	CodeInvalidArgument = -2
	CodeOutOfMemory     = -3
	CodeInternalError   = -4
	CodeNotFound        = -5
)

// Code maps an error from this package to its boundary code. Unknown
// errors are internal by definition: the boundary never invents caller
// mistakes.
func Code(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrNullHandle):
		return CodeNullHandle
	case errors.Is(err, ErrInvalidHandle), errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternalError
	}
}
