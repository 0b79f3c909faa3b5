// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"
	"math"
)

// MaxOrder is the highest Butterworth order NewLowPass accepts.
const MaxOrder = 8

// biquad is one second-order section in Direct Form II Transposed.
// First-order sections have B2 = A2 = 0.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	d0, d1     float64
}

func (s *biquad) process(buf []float64) {
	b0, b1, b2, a1, a2 := s.b0, s.b1, s.b2, s.a1, s.a2
	d0, d1 := s.d0, s.d1

	for i, x := range buf {
		y := b0*x + d0
		d0 = b1*x - a1*y + d1
		d1 = b2*x - a2*y
		buf[i] = y
	}

	s.d0, s.d1 = d0, d1
}

// LowPass is a Butterworth low-pass filter built as a cascade of biquads.
// It keeps state between ProcessBlock calls, so a long signal may be fed in
// pieces.
type LowPass struct {
	sections []biquad
}

// NewLowPass designs an order-th Butterworth low-pass at cutoffHz for a
// signal sampled at sampleRate. Odd orders end with a first-order section.
func NewLowPass(order int, cutoffHz, sampleRate float64) (*LowPass, error) {
	if order < 1 || order > MaxOrder {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}
	if sampleRate <= 0 || cutoffHz <= 0 || cutoffHz >= sampleRate/2 || cutoffHz != cutoffHz {
		return nil, fmt.Errorf("%w: %g Hz at %g Hz", ErrInvalidCutoff, cutoffHz, sampleRate)
	}

	lp := &LowPass{
		sections: make([]biquad, 0, (order+1)/2),
	}

	for i := order/2 - 1; i >= 0; i-- {
		lp.sections = append(lp.sections, lowpassSection(cutoffHz, butterworthQ(order, i), sampleRate))
	}
	if order%2 != 0 {
		lp.sections = append(lp.sections, firstOrderSection(cutoffHz, sampleRate))
	}

	return lp, nil
}

// ProcessBlock filters buf in place.
func (lp *LowPass) ProcessBlock(buf []float64) {
	for i := range lp.sections {
		lp.sections[i].process(buf)
	}
}

// Reset clears the filter memory.
func (lp *LowPass) Reset() {
	for i := range lp.sections {
		lp.sections[i].d0, lp.sections[i].d1 = 0, 0
	}
}

// butterworthQ is the quality factor of pole pair index of an order-th
// Butterworth prototype.
func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))
	return 1 / (2 * math.Sin(theta))
}

// lowpassSection is the RBJ cookbook low-pass biquad normalized by a0.
func lowpassSection(freq, q, sampleRate float64) biquad {
	w0 := 2 * math.Pi * freq / sampleRate
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)
	a0 := 1 + alpha

	return biquad{
		b0: (1 - cw) / 2 / a0,
		b1: (1 - cw) / a0,
		b2: (1 - cw) / 2 / a0,
		a1: -2 * cw / a0,
		a2: (1 - alpha) / a0,
	}
}

// firstOrderSection is the bilinear-transformed one-pole low-pass.
func firstOrderSection(freq, sampleRate float64) biquad {
	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k)

	return biquad{
		b0: k * norm,
		b1: k * norm,
		a1: (k - 1) * norm,
	}
}
