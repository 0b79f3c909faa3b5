// SPDX-License-Identifier: EPL-2.0

// Package flac decodes FLAC uploads with github.com/mewkiz/flac.
//
// Frames are decoded one at a time and handed out as interleaved float32, so
// memory use does not grow with the file length.
package flac
