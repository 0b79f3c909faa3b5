// SPDX-License-Identifier: EPL-2.0

package squarew

import (
	"fmt"
	"strings"
	"time"

	"github.com/tucommenceapousser/squarew/dsp"
)

// Mode selects how the normalized signal is reduced to discrete levels.
type Mode int

const (
	// ModeSign maps every sample to its sign: +1, -1, or 0 for exact zeros.
	ModeSign Mode = iota
	// ModeThreshold maps samples above the threshold to +1, below its
	// negative to -1 and everything in between to 0.
	ModeThreshold
)

func (m Mode) String() string {
	switch m {
	case ModeSign:
		return "sign"
	case ModeThreshold:
		return "threshold"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "sign" or "threshold", ignoring case and surrounding
// whitespace.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sign":
		return ModeSign, nil
	case "threshold":
		return ModeThreshold, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	if m != ModeSign && m != ModeThreshold {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Options controls one conversion.
type Options struct {
	// SampleRate of the output WAV in Hz.
	SampleRate int
	Mode       Mode
	// Threshold is the half-width of the dead zone used by ModeThreshold.
	Threshold float64
	// LowPass enables the Butterworth filter between normalization and
	// clipping.
	LowPass     bool
	CutoffHz    float64
	FilterOrder int
	// BufferSize is the decode chunk in samples; 0 picks a default.
	BufferSize int
	// MaxDuration rejects inputs longer than this once decoded; 0 means no
	// limit. Decoding stops as soon as the limit is passed.
	MaxDuration time.Duration
}

const (
	DefaultSampleRate  = 44100
	DefaultThreshold   = 0.1
	DefaultCutoffHz    = 3000
	DefaultFilterOrder = 5
	DefaultBufferSize  = 4096
)

func DefaultOptions() Options {
	return Options{
		SampleRate:  DefaultSampleRate,
		Mode:        ModeSign,
		Threshold:   DefaultThreshold,
		CutoffHz:    DefaultCutoffHz,
		FilterOrder: DefaultFilterOrder,
		BufferSize:  DefaultBufferSize,
	}
}

// maxSamples converts MaxDuration to an output sample count, 0 meaning no
// limit.
func (o Options) maxSamples() int {
	if o.MaxDuration <= 0 {
		return 0
	}
	return max(int(int64(o.MaxDuration)*int64(o.SampleRate)/int64(time.Second)), 1)
}

// Validate reports the first problem with o. Filter settings are only
// checked when LowPass is set.
func (o Options) Validate() error {
	if o.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidOptions, o.SampleRate)
	}
	if o.BufferSize < 0 {
		return fmt.Errorf("%w: buffer size %d", ErrInvalidOptions, o.BufferSize)
	}
	if o.MaxDuration < 0 {
		return fmt.Errorf("%w: max duration %v", ErrInvalidOptions, o.MaxDuration)
	}

	switch o.Mode {
	case ModeSign:
	case ModeThreshold:
		if o.Threshold < 0 || o.Threshold >= 1 || o.Threshold != o.Threshold {
			return fmt.Errorf("%w: %w: %g", ErrInvalidOptions, dsp.ErrInvalidThreshold, o.Threshold)
		}
	default:
		return fmt.Errorf("%w: %w: %d", ErrInvalidOptions, ErrInvalidMode, int(o.Mode))
	}

	if o.LowPass {
		if _, err := dsp.NewLowPass(o.FilterOrder, o.CutoffHz, float64(o.SampleRate)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
		}
	}

	return nil
}
