// SPDX-License-Identifier: EPL-2.0

// Package audio provides the streaming primitives the square-wave pipeline
// is built from.
//
// This package contains:
//   - Source interface for decoded audio input
//   - Resampler for sample rate conversion
//   - MonoMixer for channel mixing
//   - ReadMono, which drains a Source into a mono float64 slice
//   - Registry for picking a decoder by format or file name
//
// # Source Interface
//
// Every decoder in formats/ returns a Source:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Resampler and MonoMixer wrap a Source and are Sources themselves, so they
// chain.
//
// # Collecting Mono Samples
//
// Uploads arrive at arbitrary rates and channel layouts. ReadMono brings
// them to one rate and one channel:
//
//	samples, err := audio.ReadMono(src, 44100, 4096)
//
// # Registry
//
//	registry := audio.NewRegistry()
//	registry.Register("mp3", mp3.Decoder{})
//	dec, err := registry.ForFile("song.MP3")
//
// Format keys are case-insensitive and may be given with or without the
// leading dot.
//
// # Sample Format
//
// Samples are float32 in [-1.0, 1.0]. ReadMono widens them to float64.
//
// # Error Handling
//
// io.EOF marks the normal end of a stream:
//
//	for {
//	    n, err := source.ReadSamples(buf)
//	    // use buf[:n] first, a final chunk may come with io.EOF
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
package audio
