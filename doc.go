// SPDX-License-Identifier: EPL-2.0

// Package squarew turns audio into square waves.
//
// An input file is decoded, resampled to one rate, mixed to mono and
// normalized by its peak. The signal can then be smoothed by a Butterworth
// low-pass before it is clipped to the levels -1, 0 and +1 and written as a
// 16-bit mono WAV.
//
// # Supported Formats
//
// NewRegistry knows every decoder in formats/:
//   - MP3 via formats/mp3
//   - WAV (8/16/24/32-bit PCM) via formats/wav
//   - Ogg Vorbis via formats/vorbis
//   - AIFF via formats/aiff
//   - FLAC via formats/flac
//
// # Quick Start
//
//	registry := squarew.NewRegistry()
//	dec, _ := registry.ForFile("song.mp3")
//
//	in, _ := os.Open("song.mp3")
//	out, _ := os.Create(squarew.OutputName("song.mp3"))
//
//	opts := squarew.DefaultOptions()
//	opts.LowPass = true
//	err := squarew.Convert(dec, in, out, opts)
//
// # Clipping Modes
//
// ModeSign keeps only the sign of each sample. ModeThreshold adds a dead
// zone: samples whose magnitude does not exceed Options.Threshold become 0.
//
// # Working With Samples
//
// SquareWave16 returns the PCM instead of writing it:
//
//	pcm, rate, err := squarew.SquareWave16(src, opts)
//
// Every sample is one of -32767, 0 or 32767.
//
// The HTTP service lives in internal/server and is started by cmd/squarewd.
// cmd/squarew converts files from the command line.
package squarew
