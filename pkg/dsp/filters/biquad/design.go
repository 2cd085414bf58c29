package biquad

import (
	"fmt"
	"math"
)

// butterworthQs returns the Q of each second-order section of a butterworth
// filter of the given order, pole pairs taken in increasing angle.
func butterworthQs(order int) []float64 {
	qs := make([]float64, 0, order/2)
	for k := 1; k <= order/2; k++ {
		qs = append(qs, 1/(2*math.Sin(float64(2*k-1)*math.Pi/float64(2*order))))
	}
	return qs
}

func checkCutoff(sampleRate, cutoff float64, order int) error {
	if order < 1 {
		return fmt.Errorf("biquad: order %d < 1", order)
	}
	if cutoff <= 0 || cutoff >= sampleRate/2 {
		return fmt.Errorf("biquad: cutoff %g Hz outside (0, %g)", cutoff, sampleRate/2)
	}
	return nil
}

// Lowpass designs a butterworth lowpass as a cascade of bilinear-transformed
// sections: one first-order section for odd orders plus a biquad per pole pair.
func Lowpass(sampleRate, cutoff float64, order int) ([]Coefficients, error) {
	if err := checkCutoff(sampleRate, cutoff, order); err != nil {
		return nil, err
	}
	var coeffs []Coefficients
	if order%2 == 1 {
		k := math.Tan(math.Pi * cutoff / sampleRate)
		coeffs = append(coeffs, Coefficients{
			B0: k / (k + 1),
			B1: k / (k + 1),
			A1: (k - 1) / (k + 1),
		})
	}
	w0 := 2 * math.Pi * cutoff / sampleRate
	cosw0, sinw0 := math.Cos(w0), math.Sin(w0)
	for _, q := range butterworthQs(order) {
		alpha := sinw0 / (2 * q)
		a0 := 1 + alpha
		coeffs = append(coeffs, Coefficients{
			B0: (1 - cosw0) / 2 / a0,
			B1: (1 - cosw0) / a0,
			B2: (1 - cosw0) / 2 / a0,
			A1: -2 * cosw0 / a0,
			A2: (1 - alpha) / a0,
		})
	}
	return coeffs, nil
}

// Highpass designs a butterworth highpass, same decomposition as Lowpass.
func Highpass(sampleRate, cutoff float64, order int) ([]Coefficients, error) {
	if err := checkCutoff(sampleRate, cutoff, order); err != nil {
		return nil, err
	}
	var coeffs []Coefficients
	if order%2 == 1 {
		k := math.Tan(math.Pi * cutoff / sampleRate)
		coeffs = append(coeffs, Coefficients{
			B0: 1 / (k + 1),
			B1: -1 / (k + 1),
			A1: (k - 1) / (k + 1),
		})
	}
	w0 := 2 * math.Pi * cutoff / sampleRate
	cosw0, sinw0 := math.Cos(w0), math.Sin(w0)
	for _, q := range butterworthQs(order) {
		alpha := sinw0 / (2 * q)
		a0 := 1 + alpha
		coeffs = append(coeffs, Coefficients{
			B0: (1 + cosw0) / 2 / a0,
			B1: -(1 + cosw0) / a0,
			B2: (1 + cosw0) / 2 / a0,
			A1: -2 * cosw0 / a0,
			A2: (1 - alpha) / a0,
		})
	}
	return coeffs, nil
}

// Notch designs a narrow band-reject section centered on freq. Q sets the
// rejection bandwidth (freq/Q).
func Notch(sampleRate, freq, q float64) (Coefficients, error) {
	if err := checkCutoff(sampleRate, freq, 1); err != nil {
		return Coefficients{}, err
	}
	if q <= 0 {
		return Coefficients{}, fmt.Errorf("biquad: notch Q %g <= 0", q)
	}
	w0 := 2 * math.Pi * freq / sampleRate
	cosw0, sinw0 := math.Cos(w0), math.Sin(w0)
	alpha := sinw0 / (2 * q)
	a0 := 1 + alpha
	return Coefficients{
		B0: 1 / a0,
		B1: -2 * cosw0 / a0,
		B2: 1 / a0,
		A1: -2 * cosw0 / a0,
		A2: (1 - alpha) / a0,
	}, nil
}
