// SPDX-License-Identifier: EPL-2.0

package dsp

// Sign hard-clips x in place to -1, 0 or +1. Only exact zeros stay 0.
func Sign(x []float64) {
	for i, v := range x {
		switch {
		case v > 0:
			x[i] = 1
		case v < 0:
			x[i] = -1
		default:
			x[i] = 0 // also maps NaN to silence
		}
	}
}

// Threshold clips x in place to three levels: +1 above t, -1 below -t and 0
// inside the dead zone [-t, t].
func Threshold(x []float64, t float64) error {
	if t < 0 || t >= 1 || t != t {
		return ErrInvalidThreshold
	}

	for i, v := range x {
		switch {
		case v > t:
			x[i] = 1
		case v < -t:
			x[i] = -1
		default:
			x[i] = 0
		}
	}
	return nil
}
