// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/tucommenceapousser/squarew/audio"
)

var (
	// ErrInvalidFLAC wraps every failure to open a FLAC stream.
	ErrInvalidFLAC = errors.New("invalid FLAC stream")

	// ErrChannelMismatch is returned when a frame carries a different
	// channel count than the stream header announced.
	ErrChannelMismatch = errors.New("FLAC frame channel count mismatch")
)

// frameReader is the part of flac.Stream the source needs, split out for tests.
type frameReader interface {
	ParseNext() (*frame.Frame, error)
}

type source struct {
	dec        frameReader
	closer     io.Closer
	sampleRate int
	channels   int
	scale      float32

	// interleaved samples of the current frame not yet handed out
	pending []float32
	pos     int
	eof     bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) BufSize() int    { return 4096 }

func (s *source) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("flac: %w", err)
	}
	return nil
}

// nextFrame decodes one FLAC frame into pending.
func (s *source) nextFrame() error {
	f, err := s.dec.ParseNext()
	if err == io.EOF {
		s.eof = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("flac: %w", err)
	}
	if len(f.Subframes) != s.channels {
		return fmt.Errorf("%w: got %d, want %d", ErrChannelMismatch, len(f.Subframes), s.channels)
	}

	frames := len(f.Subframes[0].Samples)
	need := frames * s.channels
	if cap(s.pending) < need {
		s.pending = make([]float32, need)
	}
	s.pending = s.pending[:need]
	s.pos = 0

	for c, sub := range f.Subframes {
		for i, v := range sub.Samples[:min(frames, len(sub.Samples))] {
			s.pending[i*s.channels+c] = float32(v) / s.scale
		}
	}

	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	written := 0
	for written < len(dst) {
		if s.pos >= len(s.pending) {
			if s.eof {
				break
			}
			if err := s.nextFrame(); err != nil {
				return written, err
			}
			continue
		}

		n := copy(dst[written:], s.pending[s.pos:])
		s.pos += n
		written += n
	}

	if s.eof && s.pos >= len(s.pending) {
		return written, io.EOF
	}

	return written, nil
}

// Decoder decodes FLAC streams of any bit depth through github.com/mewkiz/flac.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFLAC, err)
	}

	info := stream.Info
	if info == nil || info.NChannels == 0 || info.SampleRate == 0 || info.BitsPerSample == 0 {
		return nil, ErrInvalidFLAC
	}

	return &source{
		dec:        stream,
		closer:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		scale:      float32(int64(1) << (info.BitsPerSample - 1)),
	}, nil
}
