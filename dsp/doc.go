// SPDX-License-Identifier: EPL-2.0

// Package dsp holds the numeric stages that turn a mono signal into a
// square wave.
//
// All functions work in place on []float64 and never change the slice
// length:
//
//	dsp.Normalize(x)                  // peak -> 1.0
//	lp, _ := dsp.NewLowPass(5, 3000, 44100)
//	lp.ProcessBlock(x)                // optional smoothing
//	dsp.Sign(x)                       // or dsp.Threshold(x, 0.1)
//	pcm := dsp.Quantize16(x)          // ±1 -> ±32767
package dsp
