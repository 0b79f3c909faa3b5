// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Peak returns the largest absolute value in x, or 0 for an empty slice.
// NaN samples are ignored.
func Peak(x []float64) float64 {
	var peak float64
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// Normalize scales x in place so its peak magnitude becomes 1 and returns the
// original peak. Silent input (peak 0) is left untouched.
func Normalize(x []float64) float64 {
	peak := Peak(x)
	if peak == 0 || math.IsInf(peak, 0) {
		return peak
	}

	Scale(x, 1/peak)
	return peak
}

// Scale multiplies every sample by g in place.
func Scale(x []float64, g float64) {
	vecmath.ScaleBlock(x, x, g)
}
