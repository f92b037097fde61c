package qstate

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Epsilon is the tolerance used both for amplitude equality and for pruning
// negligible basis entries.
const Epsilon = 1e-10

// Amplitude is the complex amplitude of one basis state.
type Amplitude complex128

// Real returns the real part.
func (a Amplitude) Real() float64 { return real(a) }

// Imag returns the imaginary part.
func (a Amplitude) Imag() float64 { return imag(a) }

// Abs returns the magnitude |a|.
func (a Amplitude) Abs() float64 { return cmplx.Abs(complex128(a)) }

// Prob returns the magnitude squared |a|², the probability of the basis state.
func (a Amplitude) Prob() float64 { return real(a)*real(a) + imag(a)*imag(a) }

// Conj returns the complex conjugate.
func (a Amplitude) Conj() Amplitude { return Amplitude(cmplx.Conj(complex128(a))) }

// IsZero reports whether the amplitude is negligible.
func (a Amplitude) IsZero() bool { return a.Abs() < Epsilon }

// Equal compares both components within Epsilon.
func (a Amplitude) Equal(b Amplitude) bool {
	return math.Abs(real(a)-real(b)) < Epsilon && math.Abs(imag(a)-imag(b)) < Epsilon
}

func (a Amplitude) String() string {
	re, im := real(a), imag(a)
	if math.Abs(im) < Epsilon {
		return fmt.Sprintf("%.4f", re)
	}
	if math.Abs(re) < Epsilon {
		return fmt.Sprintf("%.4fi", im)
	}
	sign := "+"
	if im < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%.4f%s%.4fi", re, sign, math.Abs(im))
}
