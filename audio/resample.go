// audio/resample.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package audio

// Resampler performs linear-interpolated sample-rate conversion between
// an arbitrary input rate and an arbitrary output rate, tracked with a
// fractional phase accumulator so frame boundaries never drift.
type Resampler struct {
	inRate, outRate float64
	ratio           float64 // input frames consumed per output frame
	pos             float64 // fractional read position into the pending window
	prevL, prevR    float64
	haveFirst       bool
}

// NewResampler builds a Resampler converting from inRate to outRate.
func NewResampler(inRate, outRate float64) *Resampler {
	if inRate <= 0 {
		inRate = outRate
	}
	if outRate <= 0 {
		outRate = inRate
	}
	return &Resampler{inRate: inRate, outRate: outRate, ratio: inRate / outRate}
}

// Stream pulls one input stereo frame at a time out of next (which should
// return io.EOF-style false once exhausted) and calls emit once per
// output frame. It runs until next returns ok=false and the last input
// frame has been fully consumed.
func (r *Resampler) Stream(next func() (l, r float64, ok bool), emit func(l, r float64)) {
	curL, curR, ok := next()
	if !ok {
		return
	}
	if !r.haveFirst {
		r.prevL, r.prevR = curL, curR
		r.haveFirst = true
	}

	for {
		for r.pos < 1.0 {
			l := r.prevL + (curL-r.prevL)*r.pos
			rr := r.prevR + (curR-r.prevR)*r.pos
			emit(l, rr)
			r.pos += r.ratio
		}
		r.pos -= 1.0
		r.prevL, r.prevR = curL, curR
		curL, curR, ok = next()
		if !ok {
			return
		}
	}
}

// MonoResampler is the single-channel analogue of Resampler, used to
// convert the 228 kHz MPX composite stream down to the 192 kHz device
// output rate one sample at a time, pulled by the output callback.
type MonoResampler struct {
	ratio     float64 // input samples consumed per output sample (inRate/outRate)
	pos       float64
	prev, cur float64
	haveFirst bool
}

// NewMonoResampler builds a MonoResampler converting from inRate to
// outRate.
func NewMonoResampler(inRate, outRate float64) *MonoResampler {
	if inRate <= 0 {
		inRate = outRate
	}
	if outRate <= 0 {
		outRate = inRate
	}
	return &MonoResampler{ratio: inRate / outRate}
}

// StepOutput produces exactly one output-rate sample: it advances the
// fractional phase accumulator by ratio, pulls as many more input
// samples from next as the phase demands, and linearly interpolates
// between the last two. The phase stays in [0, 1) after every step.
func (r *MonoResampler) StepOutput(next func() float64) float64 {
	if !r.haveFirst {
		r.cur = next()
		r.prev = r.cur
		r.haveFirst = true
	}

	r.pos += r.ratio
	for r.pos >= 1.0 {
		r.pos -= 1.0
		r.prev = r.cur
		r.cur = next()
	}

	return r.prev + (r.cur-r.prev)*r.pos
}

// InputCaptureResampler converts captured audio from the device's
// native rate up or down to the engine's fixed internal rate using the
// same linear interpolation as the output path, fed incrementally as
// frames arrive from the capture callback. Without it, one device frame
// would be consumed per engine tick regardless of the capture rate and
// the ring would drain.
type InputCaptureResampler struct {
	*Resampler
	pending []float32 // interleaved stereo backlog awaiting consumption by next()
	idx     int
}

// NewInputCaptureResampler builds a capture-side resampler from a
// device's native sample rate to the engine's internal rate.
func NewInputCaptureResampler(deviceRate, engineRate float64) *InputCaptureResampler {
	return &InputCaptureResampler{Resampler: NewResampler(deviceRate, engineRate)}
}

// Feed appends newly captured interleaved stereo frames to the backlog
// and resamples as many complete output frames as are now available,
// calling emit for each.
func (c *InputCaptureResampler) Feed(frames []float32, emit func(l, r float64)) {
	c.pending = append(c.pending, frames...)

	next := func() (l, r float64, ok bool) {
		if c.idx+1 >= len(c.pending) {
			return 0, 0, false
		}
		l, r = float64(c.pending[c.idx]), float64(c.pending[c.idx+1])
		c.idx += 2
		return l, r, true
	}
	c.Resampler.Stream(next, emit)

	if c.idx > 0 {
		c.pending = c.pending[c.idx:]
		c.idx = 0
	}
}
