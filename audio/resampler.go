// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/tucommenceapousser/squarew/utils"
)

// maxEmptyReads bounds how many consecutive (0, nil) reads a source may
// return before the resampler gives up with io.ErrNoProgress.
const maxEmptyReads = 100

// Resampler streams from src to target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// Includes basic anti-aliasing filtering when downsampling.
//
// Output sample k sits at source position k*ratio, so a source of N frames
// yields floor((N-1)/ratio)+1 frames.
type Resampler struct {
	src      Source
	dstRate  int
	ratio    float64 // source frames per output frame
	channels int

	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2
	frames   [4][]float32
	hasFrame [4]bool
	primed   bool
	done     bool

	base int64 // source index of frames[1]
	out  int64 // output frames produced so far

	// block buffers reads from src; a partial trailing frame is carried over.
	block      []float32
	blockPos   int
	blockLen   int
	srcEOF     bool
	emptyReads int

	useFilter   bool
	filterAlpha float32
	filterState []float32
	filterInit  bool
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := max(src.Channels(), 1)

	var ratio float64
	if dstRate > 0 {
		ratio = float64(src.SampleRate()) / float64(dstRate)
	}

	blockSize := max(src.BufSize(), 1024)
	blockSize -= blockSize % channels

	r := &Resampler{
		src:         src,
		dstRate:     dstRate,
		ratio:       ratio,
		channels:    channels,
		block:       make([]float32, blockSize),
		useFilter:   ratio > 1.0,
		filterAlpha: 0.5, // one-pole low-pass, roughly half band
		filterState: make([]float32, channels),
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("resampler: %w", err)
	}
	return nil
}

// refill moves any unread tail of the block to its start and reads more
// samples from the source behind it.
func (r *Resampler) refill() error {
	rest := copy(r.block, r.block[r.blockPos:r.blockLen])
	r.blockPos = 0
	r.blockLen = rest

	n, err := r.src.ReadSamples(r.block[rest:])
	r.blockLen += n

	switch {
	case err == io.EOF:
		r.srcEOF = true
	case err != nil:
		return fmt.Errorf("resampler: %w", err)
	case n == 0:
		r.emptyReads++
		if r.emptyReads >= maxEmptyReads {
			return io.ErrNoProgress
		}
	default:
		r.emptyReads = 0
	}

	return nil
}

// nextFrame copies the next source frame into dst. It reports false once
// the source is exhausted.
func (r *Resampler) nextFrame(dst []float32) (bool, error) {
	for r.blockLen-r.blockPos < r.channels {
		if r.srcEOF {
			return false, nil
		}
		if err := r.refill(); err != nil {
			return false, err
		}
	}

	copy(dst, r.block[r.blockPos:r.blockPos+r.channels])
	r.blockPos += r.channels

	if r.useFilter {
		if !r.filterInit {
			// seed with the first frame so the filter does not ramp up from zero
			copy(r.filterState, dst)
			r.filterInit = true
		}
		// y[n] = alpha * x[n] + (1-alpha) * y[n-1]
		for c := range r.channels {
			dst[c] = r.filterAlpha*dst[c] + (1-r.filterAlpha)*r.filterState[c]
			r.filterState[c] = dst[c]
		}
	}

	return true, nil
}

func (r *Resampler) prime() error {
	ok, err := r.nextFrame(r.frames[1])
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	r.hasFrame[1] = true

	for i := 2; i < 4; i++ {
		ok, err := r.nextFrame(r.frames[i])
		if err != nil {
			return err
		}
		r.hasFrame[i] = ok
		if !ok {
			break
		}
	}

	r.primed = true
	return nil
}

// advance slides the window one source frame forward. It reports false
// when frames[1] is already the last frame.
func (r *Resampler) advance() (bool, error) {
	if !r.hasFrame[2] {
		return false, nil
	}

	r.frames[0], r.frames[1], r.frames[2], r.frames[3] = r.frames[1], r.frames[2], r.frames[3], r.frames[0]
	r.hasFrame[0], r.hasFrame[1], r.hasFrame[2] = true, true, r.hasFrame[3]
	r.base++

	r.hasFrame[3] = false
	if r.hasFrame[2] {
		ok, err := r.nextFrame(r.frames[3])
		if err != nil {
			return false, err
		}
		r.hasFrame[3] = ok
	}

	return true, nil
}

// ReadSamples produces dst samples at the target rate.
// dst length should be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.dstRate <= 0 || r.src.SampleRate() <= 0 {
		return 0, ErrInvalidRate
	}
	if r.done {
		return 0, io.EOF
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			if err == io.EOF {
				r.done = true
			}
			return 0, err
		}
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded {
		pos := float64(r.out)*r.ratio - float64(r.base)
		for pos >= 1.0 {
			ok, err := r.advance()
			if err != nil {
				return written * r.channels, err
			}
			if !ok {
				r.done = true
				return written * r.channels, io.EOF
			}
			pos -= 1.0
		}

		// Past the last frame: nothing to interpolate towards.
		if !r.hasFrame[2] && pos > 0 {
			r.done = true
			return written * r.channels, io.EOF
		}

		alpha := float32(pos)
		for c := range r.channels {
			y1 := r.frames[1][c]

			y0 := y1
			if r.hasFrame[0] {
				y0 = r.frames[0][c]
			}

			y2 := y1
			if r.hasFrame[2] {
				y2 = r.frames[2][c]
			}

			y3 := y2
			if r.hasFrame[3] {
				y3 = r.frames[3][c]
			}

			dst[written*r.channels+c] = utils.CubicInterpolate(y0, y1, y2, y3, alpha)
		}

		written++
		r.out++
	}

	return written * r.channels, nil
}
