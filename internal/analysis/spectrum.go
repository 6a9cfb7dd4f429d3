// Package analysis extracts oscillation characteristics from recorded
// telemetry, e.g. the pendulum frequency of the kite on its lines.
package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform of data, whose length
// must be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// PowerSpectrum pads data to a power of two, removes the mean so the
// DC bin does not swamp the physical oscillation, and returns bin
// magnitudes up to the Nyquist frequency.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	n := 1
	for n < len(data) {
		n *= 2
	}
	padded := make([]float64, n)
	for i, v := range data {
		padded[i] = v - mean
	}

	fft := FFT(padded)
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

// Oscillation summarizes a telemetry column.
type Oscillation struct {
	DominantHz float64
	PeriodSec  float64
	Spectrum   []float64
}

// Analyze finds the dominant oscillation of a uniformly sampled
// series. dt is the sampling interval in seconds.
func Analyze(values []float64, dt float64) Oscillation {
	ps := PowerSpectrum(values)
	if len(ps) < 2 || dt <= 0 {
		return Oscillation{Spectrum: ps}
	}

	// Bin 0 is residual DC after mean removal; skip it.
	maxIdx := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[maxIdx] {
			maxIdx = i
		}
	}

	// The padded FFT length is twice the spectrum length.
	n := 2 * len(ps)
	freq := float64(maxIdx) / (float64(n) * dt)

	out := Oscillation{DominantHz: freq, Spectrum: ps}
	if freq > 0 {
		out.PeriodSec = 1 / freq
	}
	return out
}
