// SPDX-License-Identifier: EPL-2.0

package dsp

import "errors"

var (
	ErrInvalidOrder     = errors.New("filter order must be between 1 and 8")
	ErrInvalidCutoff    = errors.New("cutoff must be between 0 and the Nyquist frequency")
	ErrInvalidThreshold = errors.New("threshold must be in [0, 1)")
)
