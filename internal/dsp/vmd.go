// Package dsp holds the signal-processing stages of the EMG pipeline:
// variational mode decomposition, SNR based mode selection and the
// time/wavelet/spectral feature extractor.
package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// floorEps guards every division whose denominator can reach zero
const floorEps = 1e-10

// VMDConfig holds variational mode decomposition parameters
type VMDConfig struct {
	Modes     int     // K, number of band-limited modes
	Alpha     float64 // bandwidth penalty
	Tolerance float64 // relative change that ends the iteration
	MaxIter   int     // hard iteration cap
}

// DefaultVMDConfig returns K=5, alpha=1000, tol=1e-7, 500 iterations
func DefaultVMDConfig() VMDConfig {
	return VMDConfig{
		Modes:     5,
		Alpha:     1000,
		Tolerance: 1e-7,
		MaxIter:   500,
	}
}

// Validate checks the parameters are usable
func (c VMDConfig) Validate() error {
	if c.Modes < 1 {
		return fmt.Errorf("mode count must be at least 1, got %d", c.Modes)
	}
	if c.Alpha < 0 || math.IsNaN(c.Alpha) || math.IsInf(c.Alpha, 0) {
		return fmt.Errorf("alpha must be a finite non-negative number, got %v", c.Alpha)
	}
	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
		return fmt.Errorf("tolerance must be non-negative, got %v", c.Tolerance)
	}
	if c.MaxIter < 1 {
		return fmt.Errorf("iteration cap must be at least 1, got %d", c.MaxIter)
	}
	return nil
}

// Decomposition is the result of one VMD run
type Decomposition struct {
	Modes      [][]float64 // K sequences, each as long as the input window
	Centers    []float64   // center frequency per mode, cycles/sample in [0, 0.5]
	Iterations int         // iterations actually run
	Converged  bool        // false when the cap cut the iteration short
}

// Decomposer runs VMD on windows of a fixed length. The FFT plan is built
// once and reused, so a Decomposer must not be shared between goroutines.
type Decomposer struct {
	cfg     VMDConfig
	n       int
	fft     *fourier.CmplxFFT
	omega   []float64 // frequency of each coefficient of the mirrored signal
	absOm   []float64
	scratch []complex128
}

// NewDecomposer creates a decomposer for windows of n samples
func NewDecomposer(n int, cfg VMDConfig) (*Decomposer, error) {
	if n < 1 {
		return nil, fmt.Errorf("window length must be positive, got %d", n)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := 3 * n
	omega := make([]float64, t)
	absOm := make([]float64, t)
	for i := range omega {
		// Same ordering as an unshifted FFT: 0, 1/T, ..., then negatives.
		if i < (t+1)/2 {
			omega[i] = float64(i) / float64(t)
		} else {
			omega[i] = float64(i-t) / float64(t)
		}
		absOm[i] = math.Abs(omega[i])
	}

	return &Decomposer{
		cfg:     cfg,
		n:       n,
		fft:     fourier.NewCmplxFFT(t),
		omega:   omega,
		absOm:   absOm,
		scratch: make([]complex128, t),
	}, nil
}

// Config returns the decomposition parameters
func (d *Decomposer) Config() VMDConfig { return d.cfg }

// Decompose splits window into K band-limited modes.
// The result is deterministic for identical input and parameters.
func (d *Decomposer) Decompose(window []float64) (*Decomposition, error) {
	if len(window) != d.n {
		return nil, fmt.Errorf("window has %d samples, decomposer expects %d", len(window), d.n)
	}

	n, t, k := d.n, 3*d.n, d.cfg.Modes

	// Mirror-extend: reversed | signal | reversed.
	mirrored := make([]complex128, t)
	for i, v := range window {
		mirrored[n-1-i] = complex(v, 0)
		mirrored[n+i] = complex(v, 0)
		mirrored[3*n-1-i] = complex(v, 0)
	}
	fHat := d.fft.Coefficients(nil, mirrored)

	uHat := make([][]complex128, k)
	prev := make([][]complex128, k)
	for i := range uHat {
		uHat[i] = make([]complex128, t)
		prev[i] = make([]complex128, t)
	}
	lambda := make([]complex128, t)
	sum := d.scratch
	for i := range sum {
		sum[i] = 0
	}

	centers := make([]float64, k)
	for i := range centers {
		if k > 1 {
			centers[i] = 0.5 * float64(i) / float64(k-1)
		}
	}

	alpha := d.cfg.Alpha
	iterations := 0
	converged := false

	for it := 0; it < d.cfg.MaxIter; it++ {
		iterations++
		for m := 0; m < k; m++ {
			copy(prev[m], uHat[m])
		}

		for m := 0; m < k; m++ {
			u := uHat[m]
			center := centers[m]
			var weighted, power float64
			for i := 0; i < t; i++ {
				others := sum[i] - u[i]
				rhs := fHat[i] - others - lambda[i]/2
				diff := d.omega[i] - center
				nu := rhs / complex(1+2*alpha*diff*diff, 0)
				sum[i] = others + nu
				u[i] = nu

				p := real(nu)*real(nu) + imag(nu)*imag(nu)
				weighted += d.absOm[i] * p
				power += p
			}
			centers[m] = weighted / (power + floorEps)
		}

		for i := 0; i < t; i++ {
			lambda[i] += 2 * (sum[i] - fHat[i])
		}

		var diffNorm, prevNorm float64
		for m := 0; m < k; m++ {
			for i := 0; i < t; i++ {
				dv := uHat[m][i] - prev[m][i]
				diffNorm += real(dv)*real(dv) + imag(dv)*imag(dv)
				pv := prev[m][i]
				prevNorm += real(pv)*real(pv) + imag(pv)*imag(pv)
			}
		}
		if math.Sqrt(diffNorm)/(math.Sqrt(prevNorm)+floorEps) < d.cfg.Tolerance {
			converged = true
			break
		}
	}

	modes := make([][]float64, k)
	seq := make([]complex128, t)
	scale := 1 / float64(t)
	for m := 0; m < k; m++ {
		d.fft.Sequence(seq, uHat[m])
		mode := make([]float64, n)
		for i := 0; i < n; i++ {
			v := real(seq[n+i]) * scale
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			mode[i] = v
		}
		modes[m] = mode
	}

	return &Decomposition{
		Modes:      modes,
		Centers:    centers,
		Iterations: iterations,
		Converged:  converged,
	}, nil
}

// Reconstruct sums the modes sample by sample
func (dc *Decomposition) Reconstruct() []float64 {
	if len(dc.Modes) == 0 {
		return nil
	}
	out := make([]float64, len(dc.Modes[0]))
	for _, mode := range dc.Modes {
		for i, v := range mode {
			out[i] += v
		}
	}
	return out
}
