package circuit

import (
	"fmt"
	"math"
	"math/cmplx"
)

var paramCounts = map[string]int{
	I: 0, X: 0, Y: 0, Z: 0, H: 0, S: 0, T: 0, SX: 0,
	RX: 1, RY: 1, RZ: 1, P: 1, U2: 2, U3: 3,
}

// Matrix returns the 2×2 unitary (row-major) the gate applies to its target.
// Controls are not part of the matrix.
func (g Gate) Matrix() ([4]complex128, error) {
	n, ok := paramCounts[g.Type]
	if !ok {
		return [4]complex128{}, fmt.Errorf("%w: no matrix for %s", ErrUnsupportedGate, g.Type)
	}
	if len(g.Params) != n {
		return [4]complex128{}, fmt.Errorf("%w: %s takes %d parameters, got %d", ErrMalformedGate, g.Type, n, len(g.Params))
	}

	var m [4]complex128
	switch g.Type {
	case I:
		m = [4]complex128{1, 0, 0, 1}
	case X:
		m = [4]complex128{0, 1, 1, 0}
	case Y:
		m = [4]complex128{0, -1i, 1i, 0}
	case Z:
		m = [4]complex128{1, 0, 0, -1}
	case H:
		h := complex(1/math.Sqrt2, 0)
		m = [4]complex128{h, h, h, -h}
	case S:
		m = [4]complex128{1, 0, 0, 1i}
	case T:
		m = [4]complex128{1, 0, 0, cmplx.Exp(complex(0, math.Pi/4))}
	case SX:
		a, b := complex(0.5, 0.5), complex(0.5, -0.5)
		m = [4]complex128{a, b, b, a}
	case RX:
		c, s := math.Cos(g.Params[0]/2), math.Sin(g.Params[0]/2)
		m = [4]complex128{complex(c, 0), complex(0, -s), complex(0, -s), complex(c, 0)}
	case RY:
		c, s := math.Cos(g.Params[0]/2), math.Sin(g.Params[0]/2)
		m = [4]complex128{complex(c, 0), complex(-s, 0), complex(s, 0), complex(c, 0)}
	case RZ:
		phase := cmplx.Exp(complex(0, g.Params[0]/2))
		m = [4]complex128{cmplx.Conj(phase), 0, 0, phase}
	case P:
		m = [4]complex128{1, 0, 0, cmplx.Exp(complex(0, g.Params[0]))}
	case U2:
		m = u3(math.Pi/2, g.Params[0], g.Params[1])
	case U3:
		m = u3(g.Params[0], g.Params[1], g.Params[2])
	}

	if g.IsDagger {
		m = [4]complex128{cmplx.Conj(m[0]), cmplx.Conj(m[2]), cmplx.Conj(m[1]), cmplx.Conj(m[3])}
	}
	return m, nil
}

func u3(theta, phi, lambda float64) [4]complex128 {
	c, s := math.Cos(theta/2), math.Sin(theta/2)
	return [4]complex128{
		complex(c, 0),
		-cmplx.Exp(complex(0, lambda)) * complex(s, 0),
		cmplx.Exp(complex(0, phi)) * complex(s, 0),
		cmplx.Exp(complex(0, phi+lambda)) * complex(c, 0),
	}
}
