// Package biquad implements cascaded second-order IIR filter sections with
// butterworth and notch designs, used for band-limiting EEG channels.
package biquad

// Coefficients holds one section's transfer function with a0 normalized to 1.
// A first-order section sets B2 and A2 to zero.
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Section is a single biquad in transposed direct form II.
type Section struct {
	Coefficients
	z1, z2 float64
}

func (s *Section) Process(x float64) float64 {
	y := s.B0*x + s.z1
	s.z1 = s.B1*x - s.A1*y + s.z2
	s.z2 = s.B2*x - s.A2*y
	return y
}

func (s *Section) Reset() {
	s.z1, s.z2 = 0, 0
}

// Chain is an ordered cascade of sections, each feeding the next.
type Chain struct {
	sections []Section
}

func NewChain(coeffs ...Coefficients) *Chain {
	c := &Chain{sections: make([]Section, len(coeffs))}
	for i := range coeffs {
		c.sections[i].Coefficients = coeffs[i]
	}
	return c
}

func (c *Chain) Process(x float64) float64 {
	for i := range c.sections {
		x = c.sections[i].Process(x)
	}
	return x
}

func (c *Chain) Reset() {
	for i := range c.sections {
		c.sections[i].Reset()
	}
}

// Apply filters src into dst from cleared state. dst and src may alias.
func (c *Chain) Apply(dst, src []float64) {
	c.Reset()
	for i, x := range src {
		dst[i] = c.Process(x)
	}
}
