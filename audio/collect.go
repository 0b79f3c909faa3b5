// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// ReadMono drains src through a resampler (when the rates differ) and a
// mono mixer, returning every sample as float64 at targetRate.
//
// The pipeline is:
//  1. Resample to targetRate using cubic interpolation (skipped when src already runs at targetRate)
//  2. Average channels down to mono
//  3. Widen float32 samples to float64 for the numeric stages that follow
//
// bufferSize is the read chunk in samples; values <= 0 fall back to 4096.
// ReadMono does not close src.
func ReadMono(src Source, targetRate int, bufferSize int) ([]float64, error) {
	return ReadMonoLimit(src, targetRate, bufferSize, 0)
}

// ReadMonoLimit is ReadMono with a cap on the number of output samples.
// Once more than maxSamples have been produced it stops reading and returns
// ErrTooLong. maxSamples <= 0 means no limit.
func ReadMonoLimit(src Source, targetRate, bufferSize, maxSamples int) ([]float64, error) {
	if targetRate <= 0 || src.SampleRate() <= 0 {
		return nil, ErrInvalidRate
	}
	if bufferSize <= 0 {
		bufferSize = 4096
	}

	stage := src
	if src.SampleRate() != targetRate {
		stage = NewResampler(stage, targetRate)
	}
	mono := NewMonoMixer(stage)

	initial := targetRate
	if maxSamples > 0 {
		initial = min(initial, maxSamples+1)
	}
	out := make([]float64, 0, initial)
	buf := make([]float32, bufferSize)
	empty := 0

	for {
		n, err := mono.ReadSamples(buf)
		for _, x := range buf[:n] {
			out = append(out, float64(x))
		}
		if maxSamples > 0 && len(out) > maxSamples {
			return nil, fmt.Errorf("%w: more than %d samples", ErrTooLong, maxSamples)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read mono: %w", err)
		}

		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return nil, io.ErrNoProgress
			}
			continue
		}
		empty = 0
	}

	return out, nil
}
