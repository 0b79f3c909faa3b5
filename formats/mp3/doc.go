// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 uploads into an audio.Source.
//
// Decoding is done by github.com/hajimehoshi/go-mp3, which always produces
// interleaved stereo 16-bit PCM at the file's own sample rate. The source
// converts that to float32 in [-1.0, 1.0):
//
//	src, err := mp3.Decoder{}.Decode(upload)
//	if err != nil {
//	    // errors.Is(err, mp3.ErrInvalidMP3)
//	}
//	samples, err := audio.ReadMono(src, 44100, 4096)
//
// Mono MP3 files come out with both channels equal, so MonoMixer returns the
// original signal.
//
// MP3 writing is not supported.
package mp3
