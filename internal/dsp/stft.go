package dsp

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// STFT computes the frame-averaged power spectrum of a signal using a
// Hamming-windowed short-time Fourier transform. Frames are zero-padded at
// both boundaries by half a window and at the end up to a whole frame, each
// FFT is nfft long, and spectra are scaled by the window sum.
type STFT struct {
	window  []float64
	winSum  float64
	overlap int
	nfft    int
}

// NewSTFT creates an STFT with a Hamming window of windowLen samples,
// overlap samples shared by consecutive frames, and an FFT of
// max(minNFFT, windowLen) points
func NewSTFT(windowLen, overlap, minNFFT int) (*STFT, error) {
	if windowLen < 1 {
		return nil, fmt.Errorf("window length must be positive, got %d", windowLen)
	}
	if overlap < 0 || overlap >= windowLen {
		return nil, fmt.Errorf("frame overlap must be in [0, %d), got %d", windowLen, overlap)
	}

	nfft := minNFFT
	if windowLen > nfft {
		nfft = windowLen
	}

	w := window.Hamming(windowLen)
	var sum float64
	for _, v := range w {
		sum += v
	}

	return &STFT{
		window:  w,
		winSum:  sum,
		overlap: overlap,
		nfft:    nfft,
	}, nil
}

// Bins returns the number of one-sided frequency bins, nfft/2+1
func (s *STFT) Bins() int { return s.nfft/2 + 1 }

// NFFT returns the FFT length
func (s *STFT) NFFT() int { return s.nfft }

// WindowLen returns the analysis window length
func (s *STFT) WindowLen() int { return len(s.window) }

// Frequencies returns the center frequency in Hz of each bin
func (s *STFT) Frequencies(sampleRate float64) []float64 {
	out := make([]float64, s.Bins())
	for i := range out {
		out[i] = float64(i) * sampleRate / float64(s.nfft)
	}
	return out
}

// frames splits the boundary-padded signal into overlapping frames
func (s *STFT) frames(signal []float64) [][]float64 {
	seg := len(s.window)
	step := seg - s.overlap
	half := seg / 2

	padded := make([]float64, len(signal)+2*half)
	copy(padded[half:], signal)

	extra := ((-(len(padded) - seg) % step) + step) % step % seg
	if extra > 0 {
		padded = append(padded, make([]float64, extra)...)
	}

	count := (len(padded) - s.overlap) / step
	out := make([][]float64, 0, count)
	for f := 0; f < count; f++ {
		start := f * step
		out = append(out, padded[start:start+seg])
	}
	return out
}

// MeanPower returns |Z|^2 per one-sided bin averaged over all frames
func (s *STFT) MeanPower(signal []float64) []float64 {
	bins := s.Bins()
	power := make([]float64, bins)

	frames := s.frames(signal)
	if len(frames) == 0 {
		return power
	}

	buf := make([]float64, s.nfft)
	for _, frame := range frames {
		for i := range buf {
			buf[i] = 0
		}
		for i, v := range frame {
			buf[i] = v * s.window[i]
		}
		spectrum := fft.FFTReal(buf)
		for b := 0; b < bins; b++ {
			c := spectrum[b]
			re := real(c) / s.winSum
			im := imag(c) / s.winSum
			power[b] += re*re + im*im
		}
	}

	n := float64(len(frames))
	for b := range power {
		power[b] /= n
	}
	return power
}
