// Package qstate holds the exact joint state of a group of entangled qubits
// as a sparse map from basis keys to complex amplitudes.
package qstate

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// State is the exact joint state of one group of qubits.
type State struct {
	width int
	amps  map[BasisKey]Amplitude
}

// Entry is one stored basis state and its amplitude.
type Entry struct {
	Key BasisKey
	Amp Amplitude
}

// New returns the state |0…0⟩ over width qubits.
func New(width int) *State {
	if width < 0 || width > MaxWidth {
		panic(fmt.Sprintf("qstate: width %d out of range [0,%d]", width, MaxWidth))
	}
	return &State{
		width: width,
		amps:  map[BasisKey]Amplitude{0: 1},
	}
}

// Size returns the number of stored non-negligible entries.
func (s *State) Size() int { return len(s.amps) }

// Width returns the number of qubits the state spans.
func (s *State) Width() int { return s.width }

// Clear removes every entry.
func (s *State) Clear() {
	clear(s.amps)
}

// Get returns the amplitude of key, zero when absent.
func (s *State) Get(key BasisKey) Amplitude { return s.amps[key] }

// Set stores amp for key. Negligible amplitudes delete the entry.
func (s *State) Set(key BasisKey, amp Amplitude) {
	if s.width < MaxWidth && key>>uint(s.width) != 0 {
		panic(fmt.Sprintf("qstate: key %d does not fit width %d", key, s.width))
	}
	if amp.IsZero() {
		delete(s.amps, key)
		return
	}
	s.amps[key] = amp
}

// Entries returns the stored entries in ascending key order.
func (s *State) Entries() []Entry {
	keys := make([]BasisKey, 0, len(s.amps))
	for k := range s.amps {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	entries := make([]Entry, len(keys))
	for i, k := range keys {
		entries[i] = Entry{Key: k, Amp: s.amps[k]}
	}
	return entries
}

// Clone returns an independent deep copy.
func (s *State) Clone() *State {
	amps := make(map[BasisKey]Amplitude, len(s.amps))
	for k, a := range s.amps {
		amps[k] = a
	}
	return &State{width: s.width, amps: amps}
}

// Norm returns the sum of all probabilities. A valid state has norm 1.
func (s *State) Norm() float64 {
	var sum float64
	for _, a := range s.amps {
		sum += a.Prob()
	}
	return sum
}

// Normalize rescales the amplitudes so that Norm is 1. Empty states are left
// untouched.
func (s *State) Normalize() {
	n := s.Norm()
	if len(s.amps) == 0 || n == 0 {
		return
	}
	scale := Amplitude(complex(1/math.Sqrt(n), 0))
	for k, a := range s.amps {
		s.amps[k] = a * scale
	}
	s.removeZeroEntries()
}

// CanActivate reports whether some stored entry has every given bit set.
func (s *State) CanActivate(indices ...int) bool {
	s.checkIndices(indices)
	for k := range s.amps {
		if k.AllSet(indices) {
			return true
		}
	}
	return false
}

// AlwaysActivated reports whether every stored entry has every given bit set.
func (s *State) AlwaysActivated(indices ...int) bool {
	s.checkIndices(indices)
	for k := range s.amps {
		if !k.AllSet(indices) {
			return false
		}
	}
	return true
}

// CountActivations returns how many entries have all controls set, and the
// total number of entries.
func (s *State) CountActivations(controls ...int) (active, total int) {
	s.checkIndices(controls)
	for k := range s.amps {
		if k.AllSet(controls) {
			active++
		}
	}
	return active, len(s.amps)
}

// ProbOne returns the probability that the qubit at index measures 1.
func (s *State) ProbOne(index int) float64 {
	s.checkIndex(index)
	var p float64
	for k, a := range s.amps {
		if k.Bit(index) {
			p += a.Prob()
		}
	}
	return p
}

// ApplyGate applies the 2×2 matrix m (row-major) to the qubit at target.
func (s *State) ApplyGate(target int, m [4]complex128) {
	s.ApplyControlledGate(target, nil, m)
}

// ApplyControlledGate applies m to target on the entries where every control
// bit is set; the other entries are left unchanged.
func (s *State) ApplyControlledGate(target int, controls []int, m [4]complex128) {
	s.checkIndex(target)
	s.checkIndices(controls)
	if slices.Contains(controls, target) {
		panic(fmt.Sprintf("qstate: target %d is also a control", target))
	}

	bit := BasisKey(1) << uint(target)
	m00, m01 := Amplitude(m[0]), Amplitude(m[1])
	m10, m11 := Amplitude(m[2]), Amplitude(m[3])

	next := make(map[BasisKey]Amplitude, len(s.amps))
	for key, amp := range s.amps {
		if !key.AllSet(controls) {
			next[key] = amp
			continue
		}
		k0, k1 := key&^bit, key|bit
		if key == k1 {
			if _, paired := s.amps[k0]; paired {
				continue
			}
		}
		a0, a1 := s.amps[k0], s.amps[k1]
		next[k0] = m00*a0 + m01*a1
		next[k1] = m10*a0 + m11*a1
	}
	s.amps = next
	s.removeZeroEntries()
}

// Combine returns the tensor product of a and b. Bit j of a lands at
// position indicesA[j] of the result and bit j of b at indicesB[j]; together
// the index lists must be a permutation of 0..width-1.
func Combine(a *State, indicesA []int, b *State, indicesB []int) *State {
	if len(indicesA) != a.width || len(indicesB) != b.width {
		panic(fmt.Sprintf("qstate: combine index lists %v/%v do not match widths %d/%d",
			indicesA, indicesB, a.width, b.width))
	}
	width := a.width + b.width
	if width > MaxWidth {
		panic(fmt.Sprintf("qstate: combined width %d exceeds %d", width, MaxWidth))
	}
	used := make([]bool, width)
	for _, pos := range slices.Concat(indicesA, indicesB) {
		if pos < 0 || pos >= width || used[pos] {
			panic(fmt.Sprintf("qstate: combine positions %v/%v are not a permutation", indicesA, indicesB))
		}
		used[pos] = true
	}

	out := &State{width: width, amps: make(map[BasisKey]Amplitude, len(a.amps)*len(b.amps))}
	for ka, va := range a.amps {
		base := ka.scatter(indicesA)
		for kb, vb := range b.amps {
			out.amps[base|kb.scatter(indicesB)] = va * vb
		}
	}
	out.removeZeroEntries()
	return out
}

// Equal reports whether both states have the same width and the same
// amplitudes within Epsilon.
func (s *State) Equal(o *State) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || s.width != o.width {
		return false
	}
	for k, a := range s.amps {
		if !a.Equal(o.amps[k]) {
			return false
		}
	}
	for k, b := range o.amps {
		if _, ok := s.amps[k]; !ok && !b.IsZero() {
			return false
		}
	}
	return true
}

func (s *State) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, e := range s.Entries() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", e.Key.Ket(s.width), e.Amp)
	}
	sb.WriteString("}")
	return sb.String()
}

func (s *State) removeZeroEntries() {
	for k, a := range s.amps {
		if a.IsZero() {
			delete(s.amps, k)
		}
	}
}

func (s *State) checkIndex(i int) {
	if i < 0 || i >= s.width {
		panic(fmt.Sprintf("qstate: index %d out of range [0,%d)", i, s.width))
	}
}

func (s *State) checkIndices(indices []int) {
	for _, i := range indices {
		s.checkIndex(i)
	}
}
