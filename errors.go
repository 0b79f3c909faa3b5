// SPDX-License-Identifier: EPL-2.0

package squarew

import "errors"

var (
	ErrNoSamples      = errors.New("no audio samples decoded")
	ErrInvalidOptions = errors.New("invalid options")
	ErrInvalidMode    = errors.New("unknown clipping mode")
)
