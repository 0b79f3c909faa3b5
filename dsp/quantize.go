// SPDX-License-Identifier: EPL-2.0

package dsp

import "github.com/tucommenceapousser/squarew/utils"

// Quantize16 converts samples in [-1, 1] to 16-bit PCM, mapping ±1 to ±32767.
// Values outside the range are clamped.
func Quantize16(x []float64) []int16 {
	out := make([]int16, len(x))
	for i, v := range x {
		out[i] = utils.FloatToInt16(v)
	}
	return out
}
