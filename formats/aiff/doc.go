// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF uploads (8, 16, 24 and 32-bit PCM) using
// github.com/go-audio/aiff.
//
// go-audio needs an io.ReadSeeker. Readers that cannot seek are buffered in
// memory first, which is fine for upload-sized files.
//
//	src, err := aiff.Decoder{}.Decode(f)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // not a FORM/AIFF container
//	}
package aiff
