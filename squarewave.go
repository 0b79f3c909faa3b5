// SPDX-License-Identifier: EPL-2.0

package squarew

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tucommenceapousser/squarew/audio"
	"github.com/tucommenceapousser/squarew/dsp"
	"github.com/tucommenceapousser/squarew/formats/wav"
)

// OutputSuffix is appended to the input's base name to form the output name.
const OutputSuffix = "_square_wave.wav"

// SquareWave16 runs src through the whole pipeline and returns 16-bit mono
// PCM at opts.SampleRate:
//  1. resample to opts.SampleRate and mix to mono
//  2. normalize by the peak magnitude
//  3. low-pass (when opts.LowPass is set)
//  4. clip to -1/0/+1 per opts.Mode
//  5. scale to ±32767
//
// The sample count after step 1 is kept through every later step. Silent
// input produces all-zero output. Input longer than opts.MaxDuration fails
// with audio.ErrTooLong. SquareWave16 does not close src.
func SquareWave16(src audio.Source, opts Options) ([]int16, int, error) {
	if err := opts.Validate(); err != nil {
		return nil, 0, err
	}

	x, err := audio.ReadMonoLimit(src, opts.SampleRate, opts.BufferSize, opts.maxSamples())
	if err != nil {
		return nil, 0, err
	}
	if len(x) == 0 {
		return nil, 0, ErrNoSamples
	}

	dsp.Normalize(x)

	if opts.LowPass {
		lp, err := dsp.NewLowPass(opts.FilterOrder, opts.CutoffHz, float64(opts.SampleRate))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
		}
		lp.ProcessBlock(x)
	}

	switch opts.Mode {
	case ModeThreshold:
		if err := dsp.Threshold(x, opts.Threshold); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
		}
	default:
		dsp.Sign(x)
	}

	return dsp.Quantize16(x), opts.SampleRate, nil
}

// Convert decodes r with dec and writes the square-wave WAV to w. The
// decoded source is closed before Convert returns.
func Convert(dec audio.Decoder, r io.Reader, w io.Writer, opts Options) (err error) {
	if err := opts.Validate(); err != nil {
		return err
	}

	src, err := dec.Decode(r)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close source: %w", cerr)
		}
	}()

	pcm, rate, err := SquareWave16(src, opts)
	if err != nil {
		return err
	}

	return wav.WriteWAV16(w, rate, pcm)
}

// OutputName derives the output file name for an uploaded file name.
// Directory parts are dropped (both / and \ count as separators) so the
// result is always a bare file name.
func OutputName(upload string) string {
	base := upload
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == ".." {
		stem = "audio"
	}

	return stem + OutputSuffix
}
