// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize    = errors.New("dst size must be multiple of channels")
	ErrInvalidRate       = errors.New("sample rate must be positive")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrTooLong           = errors.New("audio exceeds the length limit")
)
