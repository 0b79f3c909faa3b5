// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis uploads through
// github.com/jfreymuth/oggvorbis. Channel count and sample rate are taken from
// the stream; samples are float32 in [-1.0, 1.0].
package vorbis
