package qstate

import "math"

// Factor splits the qubit at index out of s. It succeeds when s is a product
// state with respect to that qubit, returning the single-qubit factor and the
// remaining state, whose higher bits are shifted down by one. The tensor
// product of the two factors reproduces s. The single factor has a real,
// non-negative |0⟩ amplitude, so a global phase ends up in rest. s itself is
// not modified.
func (s *State) Factor(index int) (single, rest *State, ok bool) {
	s.checkIndex(index)

	zero := make(map[BasisKey]Amplitude)
	one := make(map[BasisKey]Amplitude)
	var p0 float64
	for k, a := range s.amps {
		r := k.Remove(index)
		if k.Bit(index) {
			one[r] = a
		} else {
			zero[r] = a
			p0 += a.Prob()
		}
	}

	single = &State{width: 1, amps: make(map[BasisKey]Amplitude, 2)}
	rest = &State{width: s.width - 1}

	switch {
	case len(one) == 0:
		single.amps[0] = 1
		rest.amps = zero
		return single, rest, true
	case len(zero) == 0:
		single.amps[1] = 1
		rest.amps = one
		return single, rest, true
	}

	// The pair (zero, one) factors iff one == ratio·zero for a single ratio.
	var pivot BasisKey
	best := -1.0
	for r, a := range zero {
		if p := a.Prob(); p > best || (p == best && r < pivot) {
			pivot, best = r, p
		}
	}
	ratio := one[pivot] / zero[pivot]
	for r, a := range zero {
		if !(ratio * a).Equal(one[r]) {
			return nil, nil, false
		}
	}
	for r, b := range one {
		if _, ok := zero[r]; !ok && !b.IsZero() {
			return nil, nil, false
		}
	}

	norm := Amplitude(complex(math.Sqrt(p0), 0))
	rest.amps = make(map[BasisKey]Amplitude, len(zero))
	for r, a := range zero {
		rest.amps[r] = a / norm
	}
	single.amps[0] = norm
	single.amps[1] = ratio * norm
	single.removeZeroEntries()
	rest.removeZeroEntries()
	return single, rest, true
}
