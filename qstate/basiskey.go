package qstate

import "strings"

// MaxWidth is the largest number of qubits a single State can span.
const MaxWidth = 64

// BasisKey identifies one computational basis state of a group. Bit i is the
// value of the qubit at local index i.
type BasisKey uint64

// Bit reports whether the bit at index i is set.
func (k BasisKey) Bit(i int) bool { return k&(1<<uint(i)) != 0 }

// With returns k with the bit at index i set to v.
func (k BasisKey) With(i int, v bool) BasisKey {
	if v {
		return k | 1<<uint(i)
	}
	return k &^ (1 << uint(i))
}

// AllSet reports whether every listed bit is set.
func (k BasisKey) AllSet(indices []int) bool {
	for _, i := range indices {
		if !k.Bit(i) {
			return false
		}
	}
	return true
}

// Remove drops the bit at index i and shifts the higher bits down by one.
func (k BasisKey) Remove(i int) BasisKey {
	low := k & (1<<uint(i) - 1)
	high := (k >> uint(i+1)) << uint(i)
	return high | low
}

// scatter places bit j of k at position positions[j].
func (k BasisKey) scatter(positions []int) BasisKey {
	var out BasisKey
	for j, pos := range positions {
		if k.Bit(j) {
			out |= 1 << uint(pos)
		}
	}
	return out
}

// Ket renders the key as a ket of the given width, most significant bit first.
func (k BasisKey) Ket(width int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i := width - 1; i >= 0; i-- {
		if k.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	sb.WriteString("⟩")
	return sb.String()
}
