// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidSampleCount = errors.New("sample count must be multiple of channels")
	ErrInvalidCapacity    = errors.New("ring buffer capacity must be positive")
	ErrInvalidFormat      = errors.New("invalid audio format")
)
