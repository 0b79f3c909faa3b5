// SPDX-License-Identifier: EPL-2.0

package utils

// FullScale16 is the magnitude a sample of ±1.0 maps to in 16-bit PCM.
const FullScale16 = 32767

// FloatToInt16 scales x from [-1,1] to the int16 range, truncating toward zero.
// Out-of-range input is clamped and NaN becomes 0.
func FloatToInt16[T ~float32 | ~float64](x T) int16 {
	if x != x {
		return 0
	}
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 on both sides keeps +1 and -1 symmetric.
	return int16(x * FullScale16)
}
