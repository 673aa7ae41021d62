// File: process/filter.go
// Author: momentics <momentics@gmail.com>
//
// Per-channel second-order Butterworth low-pass biquad, derived via the
// bilinear transform with prewarping, per spec §4.4 and §9. Implemented
// directly on math.* — no DSP/filter-design library appears anywhere in
// the retrieved corpus (see DESIGN.md), so this stays dependency-free.
//
// Direct-Form-II-Transposed realization, so only two state words are
// needed per channel (spec §3 FilterState).

package process

import "math"

// BiquadCoeffs holds the normalized transfer-function coefficients for
// one second-order IIR section: b0,b1,b2 / a1,a2 (a0 is normalized to 1).
type BiquadCoeffs struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// DesignButterworthLowPass derives second-order Butterworth low-pass
// biquad coefficients for the given cutoff (Hz) and sample rate (Hz),
// using the bilinear transform with frequency prewarping.
func DesignButterworthLowPass(cutoffHz, sampleRateHz float64) BiquadCoeffs {
	// Prewarp the cutoff to the analog frequency the bilinear transform
	// will map back to the correct discrete cutoff.
	wa := 2 * sampleRateHz * math.Tan(math.Pi*cutoffHz/sampleRateHz)

	// Analog 2nd-order Butterworth low-pass: H(s) = wa^2 / (s^2 + sqrt(2)*wa*s + wa^2)
	const q = math.Sqrt2 // s-term coefficient 1/Q = 2*zeta, with Butterworth Q = 1/sqrt(2)

	k := 2 * sampleRateHz
	k2 := k * k
	wa2 := wa * wa

	a0 := k2 + q*wa*k + wa2
	b0 := wa2 / a0
	b1 := 2 * wa2 / a0
	b2 := wa2 / a0
	a1 := (2*wa2 - 2*k2) / a0
	a2 := (k2 - q*wa*k + wa2) / a0

	return BiquadCoeffs{B0: b0, B1: b1, B2: b2, A1: a1, A2: a2}
}

// BiquadState holds the two Direct-Form-II-Transposed delay words for one
// channel. The zero value is the correct reset state (spec §4.4: "Filter
// state is reset whenever streaming (re)starts").
type BiquadState struct {
	z1, z2 float64
}

// Reset clears the delay state, avoiding unbounded initial transients on
// a bumpless restart.
func (s *BiquadState) Reset() {
	s.z1, s.z2 = 0, 0
}

// Step pushes one input sample through the biquad and returns the
// filtered output, using the Direct-Form-II-Transposed recurrence:
//
//	y[n]  = b0*x[n] + z1
//	z1'   = b1*x[n] - a1*y[n] + z2
//	z2'   = b2*x[n] - a2*y[n]
func (s *BiquadState) Step(c BiquadCoeffs, x float64) float64 {
	y := c.B0*x + s.z1
	s.z1 = c.B1*x - c.A1*y + s.z2
	s.z2 = c.B2*x - c.A2*y
	return y
}

// SixChannelFilter bundles one BiquadState per channel, sharing one set
// of coefficients (the cutoff is configured once per stream).
type SixChannelFilter struct {
	Coeffs BiquadCoeffs
	states [6]BiquadState
}

// NewSixChannelFilter designs coefficients for the given cutoff/sample rate.
func NewSixChannelFilter(cutoffHz, sampleRateHz float64) *SixChannelFilter {
	return &SixChannelFilter{Coeffs: DesignButterworthLowPass(cutoffHz, sampleRateHz)}
}

// Reset clears every channel's delay state.
func (f *SixChannelFilter) Reset() {
	for i := range f.states {
		f.states[i].Reset()
	}
}

// Apply filters all six channel values in place, returning the filtered
// values.
func (f *SixChannelFilter) Apply(vals [6]float64) [6]float64 {
	var out [6]float64
	for i, x := range vals {
		out[i] = f.states[i].Step(f.Coeffs, x)
	}
	return out
}
