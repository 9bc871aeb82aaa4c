package dsp

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// Morlet wavelet psi(t) = exp(-t^2/2) * cos(5t), sampled on [-8, 8]
const (
	morletLower     = -8.0
	morletUpper     = 8.0
	morletPrecision = 10 // 2^10 points
	morletCenter    = 0.8125
)

// MorletCWT computes continuous wavelet transform coefficients of
// fixed-length signals with the real Morlet wavelet. Coefficients at scale s
// are -sqrt(s) times the derivative of the signal convolved with the
// integrated wavelet stretched to s, trimmed back to the signal length.
type MorletCWT struct {
	n              int
	scales         []float64
	samplingPeriod float64

	padded  int            // linear-convolution FFT length, a power of two
	kernels [][]complex128 // spectrum of each reversed, stretched kernel
	lengths []int          // kernel length per scale
}

// NewMorletCWT prepares the transform for signals of n samples
func NewMorletCWT(n int, scales []float64, samplingPeriod float64) (*MorletCWT, error) {
	if n < 1 {
		return nil, fmt.Errorf("signal length must be positive, got %d", n)
	}
	if len(scales) == 0 {
		return nil, fmt.Errorf("at least one scale is required")
	}
	if samplingPeriod <= 0 {
		return nil, fmt.Errorf("sampling period must be positive, got %v", samplingPeriod)
	}

	intPsi, step := integratedMorlet()

	stretched := make([][]float64, len(scales))
	longest := 0
	for i, s := range scales {
		if s <= 0 {
			return nil, fmt.Errorf("scale %d must be positive, got %v", i, s)
		}
		stretched[i] = stretchKernel(intPsi, step, s)
		if len(stretched[i]) > longest {
			longest = len(stretched[i])
		}
	}

	padded := 1
	for padded < n+longest-1 {
		padded <<= 1
	}

	c := &MorletCWT{
		n:              n,
		scales:         append([]float64(nil), scales...),
		samplingPeriod: samplingPeriod,
		padded:         padded,
		kernels:        make([][]complex128, len(scales)),
		lengths:        make([]int, len(scales)),
	}
	for i, k := range stretched {
		buf := make([]complex128, padded)
		for j, v := range k {
			buf[j] = complex(v, 0)
		}
		c.kernels[i] = fft.FFT(buf)
		c.lengths[i] = len(k)
	}
	return c, nil
}

// integratedMorlet returns the running integral of the sampled wavelet and
// the sample spacing
func integratedMorlet() ([]float64, float64) {
	points := 1 << morletPrecision
	step := (morletUpper - morletLower) / float64(points-1)
	out := make([]float64, points)
	var acc float64
	for i := range out {
		x := morletLower + float64(i)*step
		acc += math.Exp(-x*x/2) * math.Cos(5*x)
		out[i] = acc * step
	}
	return out, step
}

// stretchKernel resamples the integrated wavelet to scale s and reverses it
func stretchKernel(intPsi []float64, step, s float64) []float64 {
	width := morletUpper - morletLower
	count := int(math.Ceil(s*width + 1))
	idx := make([]int, 0, count)
	for k := 0; k < count; k++ {
		j := int(float64(k) / (s * step))
		if j >= len(intPsi) {
			continue
		}
		idx = append(idx, j)
	}

	kernel := make([]float64, len(idx))
	for i, j := range idx {
		kernel[len(idx)-1-i] = intPsi[j]
	}
	return kernel
}

// Scales returns the configured scales
func (c *MorletCWT) Scales() []float64 { return c.scales }

// Frequencies returns the pseudo-frequency in Hz of each scale
func (c *MorletCWT) Frequencies() []float64 {
	out := make([]float64, len(c.scales))
	for i, s := range c.scales {
		out[i] = morletCenter / s / c.samplingPeriod
	}
	return out
}

// Coefficients returns one row of n coefficients per scale
func (c *MorletCWT) Coefficients(signal []float64) ([][]float64, error) {
	if len(signal) != c.n {
		return nil, fmt.Errorf("signal has %d samples, transform expects %d", len(signal), c.n)
	}

	buf := make([]complex128, c.padded)
	for i, v := range signal {
		buf[i] = complex(v, 0)
	}
	signalHat := fft.FFT(buf)

	out := make([][]float64, len(c.scales))
	product := make([]complex128, c.padded)
	for si, s := range c.scales {
		kernel := c.kernels[si]
		for i := range product {
			product[i] = signalHat[i] * kernel[i]
		}
		conv := fft.IFFT(product)

		// Full convolution has n+L-1 samples; its first difference n+L-2.
		full := c.n + c.lengths[si] - 1
		diffLen := full - 1
		trim := float64(diffLen-c.n) / 2
		start := 0
		if trim > 0 {
			start = int(math.Floor(trim))
		}

		row := make([]float64, c.n)
		gain := -math.Sqrt(s)
		for i := 0; i < c.n; i++ {
			j := start + i
			row[i] = gain * (real(conv[j+1]) - real(conv[j]))
		}
		out[si] = row
	}
	return out, nil
}

// Energies returns the sum of squared coefficients per scale
func (c *MorletCWT) Energies(signal []float64) ([]float64, error) {
	coeffs, err := c.Coefficients(signal)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(coeffs))
	for i, row := range coeffs {
		var e float64
		for _, v := range row {
			e += v * v
		}
		out[i] = e
	}
	return out, nil
}
