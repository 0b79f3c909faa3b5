// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides synthetic audio sources for tests.
package audiotest

import (
	"errors"
	"io"
	"math"
)

// ErrInjected is returned by sources built with NewFailingSource.
var ErrInjected = errors.New("audiotest: injected read failure")

// MockSource generates audio from a waveform function.
// It implements audio.Source without importing it to avoid cycles.
type MockSource struct {
	sampleRate   int
	channels     int
	totalSamples int // frames to generate
	generated    int
	waveform     func(sample int, channel int) float32
	failAfter    int // frames before ReadSamples fails; <0 disables
	closed       bool
}

// NewMockSource creates a source of totalSamples frames whose values come from waveform.
func NewMockSource(sampleRate, channels, totalSamples int, waveform func(sample int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:   sampleRate,
		channels:     channels,
		totalSamples: totalSamples,
		waveform:     waveform,
		failAfter:    -1,
	}
}

// NewSilentSource creates a source that generates silence.
func NewSilentSource(sampleRate, channels, totalSamples int) *MockSource {
	return NewConstantSource(sampleRate, channels, totalSamples, 0)
}

// NewSineSource creates a source that generates a full-scale sine wave on every channel.
func NewSineSource(sampleRate, channels, totalSamples int, frequency float64) *MockSource {
	return NewScaledSineSource(sampleRate, channels, totalSamples, frequency, 1)
}

// NewScaledSineSource is NewSineSource with a peak amplitude.
func NewScaledSineSource(sampleRate, channels, totalSamples int, frequency float64, amplitude float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		t := float64(sample) / float64(sampleRate)
		return amplitude * float32(math.Sin(2*math.Pi*frequency*t))
	})
}

// NewConstantSource creates a source with a constant value.
func NewConstantSource(sampleRate, channels, totalSamples int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(int, int) float32 {
		return value
	})
}

// NewSamplesSource plays back mono samples verbatim.
func NewSamplesSource(sampleRate int, samples []float32) *MockSource {
	return NewMockSource(sampleRate, 1, len(samples), func(sample int, _ int) float32 {
		return samples[sample]
	})
}

// NewFailingSource generates silence for frames frames and then fails with ErrInjected.
func NewFailingSource(sampleRate, channels, frames int) *MockSource {
	m := NewSilentSource(sampleRate, channels, frames+1)
	m.failAfter = frames
	return m
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

// Reset rewinds the source.
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.failAfter >= 0 && m.generated >= m.failAfter {
		return 0, ErrInjected
	}
	if m.generated >= m.totalSamples {
		return 0, io.EOF
	}

	frames := min(len(dst)/m.channels, m.totalSamples-m.generated)
	if m.failAfter >= 0 {
		frames = min(frames, m.failAfter-m.generated)
	}

	for frame := range frames {
		idx := m.generated + frame
		for ch := range m.channels {
			dst[frame*m.channels+ch] = m.waveform(idx, ch)
		}
	}

	m.generated += frames
	written := frames * m.channels

	if m.generated >= m.totalSamples {
		return written, io.EOF
	}

	return written, nil
}

// ChunkedSource plays back interleaved samples, returning at most chunk
// values per read regardless of frame boundaries.
type ChunkedSource struct {
	sampleRate int
	channels   int
	samples    []float32
	chunk      int
	pos        int
}

// NewChunkedSource creates a source over interleaved samples. chunk <= 0
// returns as much as dst can hold.
func NewChunkedSource(sampleRate, channels int, samples []float32, chunk int) *ChunkedSource {
	return &ChunkedSource{
		sampleRate: sampleRate,
		channels:   channels,
		samples:    samples,
		chunk:      chunk,
	}
}

func (c *ChunkedSource) SampleRate() int { return c.sampleRate }
func (c *ChunkedSource) Channels() int   { return c.channels }
func (c *ChunkedSource) BufSize() int    { return 4096 }
func (c *ChunkedSource) Close() error    { return nil }

func (c *ChunkedSource) ReadSamples(dst []float32) (int, error) {
	if c.pos >= len(c.samples) {
		return 0, io.EOF
	}

	limit := len(dst)
	if c.chunk > 0 {
		limit = min(limit, c.chunk)
	}
	n := copy(dst[:limit], c.samples[c.pos:])
	c.pos += n

	if c.pos >= len(c.samples) {
		return n, io.EOF
	}
	return n, nil
}
