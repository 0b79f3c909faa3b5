// SPDX-License-Identifier: EPL-2.0

// Package wav reads WAV uploads and writes the square-wave output.
//
// Decoding goes through github.com/go-audio/wav, so files with extra chunks
// (LIST, fact, ...) and 8/24/32-bit integer PCM are accepted. Floating-point
// and compressed WAV are rejected with ErrUnsupportedEncoding.
//
// Two writers produce mono 16-bit PCM:
//
//	// stream to any io.Writer (HTTP response, zip entry)
//	wav.WriteWAV16(w, 44100, samples)
//
//	// create a file through the go-audio encoder
//	wav.WriteFile("out_square_wave.wav", 44100, samples)
package wav
