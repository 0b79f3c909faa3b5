// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// MonoMixer folds interleaved multi-channel audio into one channel by
// averaging every frame. A read that ends mid-frame is completed by the next
// one; an incomplete frame at end of stream is dropped.
type MonoMixer struct {
	src   Source
	tmp   []float32
	carry []float32 // leading values of a frame split across reads
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{
		src: src,
		tmp: make([]float32, 4096),
	}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) BufSize() int    { return m.src.BufSize() }

func (m *MonoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("mono mixer: %w", err)
	}
	return nil
}

func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	if channels <= 1 {
		return m.src.ReadSamples(dst)
	}

	samplesNeeded := len(dst) * channels
	if cap(m.tmp) < samplesNeeded {
		m.tmp = make([]float32, max(samplesNeeded, 8192))
	}
	m.tmp = m.tmp[:samplesNeeded]

	carried := copy(m.tmp, m.carry)
	n, err := m.src.ReadSamples(m.tmp[carried:])
	total := carried + n
	frames := total / channels

	m.carry = append(m.carry[:0], m.tmp[frames*channels:total]...)
	if err == io.EOF {
		m.carry = m.carry[:0]
	}
	if frames == 0 {
		return 0, err
	}

	switch channels {
	case 2:
		for f := range frames {
			idx := f << 1
			dst[f] = (m.tmp[idx] + m.tmp[idx+1]) * 0.5
		}
	case 4:
		for f := range frames {
			idx := f << 2
			dst[f] = (m.tmp[idx] + m.tmp[idx+1] + m.tmp[idx+2] + m.tmp[idx+3]) * 0.25
		}
	default:
		inv := float32(1.0) / float32(channels)
		for f := range frames {
			var sum float32
			base := f * channels
			for c := range channels {
				sum += m.tmp[base+c]
			}
			dst[f] = sum * inv
		}
	}

	return frames, err
}
