// Package statevector is a dense reference simulator used to check that
// the propagation pass preserves circuit semantics.
package statevector

import (
	"errors"
	"fmt"
	"math/cmplx"

	"qcprop/circuit"
)

// MaxQubits bounds the dense vector to 2^MaxQubits amplitudes.
const MaxQubits = 24

var (
	ErrNonUnitary = errors.New("statevector: circuit is not unitary")
	ErrTooLarge   = errors.New("statevector: too many qubits")
)

type StateVector struct {
	Amplitudes []complex128
	NumQubits  int
}

func New(numQubits int) *StateVector {
	n := 1 << numQubits
	amps := make([]complex128, n)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

func (s *StateVector) Clone() *StateVector {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// Apply applies one unitary gate. Barriers are no-ops.
func (s *StateVector) Apply(g circuit.Gate) error {
	if g.Conditioned() {
		return fmt.Errorf("%w: %v is classically conditioned", ErrNonUnitary, g)
	}
	mask := 0
	for _, c := range g.Controls {
		mask |= 1 << c
	}

	switch g.Type {
	case circuit.BARRIER:
		return nil
	case circuit.MEASURE, circuit.RESET:
		return fmt.Errorf("%w: %v", ErrNonUnitary, g)
	case circuit.SWAP:
		s.applySWAP(g.Target, g.Target2, mask)
		return nil
	}

	m, err := g.Matrix()
	if err != nil {
		return err
	}
	s.applyMatrix(g.Target, mask, m)
	return nil
}

func (s *StateVector) applyMatrix(q, mask int, m [4]complex128) {
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit == 0 && i&mask == mask {
			j := i | bit
			a0, a1 := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = m[0]*a0 + m[1]*a1
			s.Amplitudes[j] = m[2]*a0 + m[3]*a1
		}
	}
}

func (s *StateVector) applySWAP(q1, q2, mask int) {
	n := len(s.Amplitudes)
	bit1 := 1 << q1
	bit2 := 1 << q2
	for i := 0; i < n; i++ {
		if i&bit1 != 0 && i&bit2 == 0 && i&mask == mask {
			j := (i & ^bit1) | bit2
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// Simulate runs c from |0…0⟩. Circuits with measurements, resets or
// classical conditions are rejected.
func Simulate(c *circuit.Circuit) (*StateVector, error) {
	if c.NumQubits > MaxQubits {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, c.NumQubits, MaxQubits)
	}
	state := New(max(c.NumQubits, 1))
	for i, g := range c.Gates {
		if err := state.Apply(g); err != nil {
			return nil, fmt.Errorf("gate %d: %w", i, err)
		}
	}
	return state, nil
}

// Equivalent reports whether a and b produce the same state from |0…0⟩,
// global phase included.
func Equivalent(a, b *circuit.Circuit, eps float64) (bool, error) {
	if a.NumQubits != b.NumQubits {
		return false, nil
	}
	sa, err := Simulate(a)
	if err != nil {
		return false, err
	}
	sb, err := Simulate(b)
	if err != nil {
		return false, err
	}
	return sa.Equal(sb, eps), nil
}

func (s *StateVector) Equal(o *StateVector, eps float64) bool {
	if s.NumQubits != o.NumQubits {
		return false
	}
	for i := range s.Amplitudes {
		if cmplx.Abs(s.Amplitudes[i]-o.Amplitudes[i]) > eps {
			return false
		}
	}
	return true
}

// HasFactor reports whether the state is a product of a state on qubits
// (given by amp, with bit j of its key standing for qubits[j]) and some
// state on the remaining qubits.
func (s *StateVector) HasFactor(qubits []int, amp func(key uint64) complex128, eps float64) bool {
	local := func(i int) (uint64, int) {
		var k uint64
		rest := i
		for j, q := range qubits {
			if i&(1<<q) != 0 {
				k |= 1 << j
				rest &^= 1 << q
			}
		}
		return k, rest
	}

	// Contract with the conjugate factor to recover the remainder.
	rest := make(map[int]complex128)
	for i, a := range s.Amplitudes {
		k, r := local(i)
		rest[r] += cmplx.Conj(amp(k)) * a
	}
	for i, a := range s.Amplitudes {
		k, r := local(i)
		if cmplx.Abs(amp(k)*rest[r]-a) > eps {
			return false
		}
	}
	return true
}

// Marginals returns, for every qubit, the probability of measuring 1.
func (s *StateVector) Marginals() []float64 {
	p1 := make([]float64, s.NumQubits)
	for i, a := range s.Amplitudes {
		p := real(a)*real(a) + imag(a)*imag(a)
		if p == 0 {
			continue
		}
		for q := range p1 {
			if i>>q&1 == 1 {
				p1[q] += p
			}
		}
	}
	return p1
}
