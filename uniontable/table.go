// Package uniontable tracks, for every qubit of a circuit, whether its exact
// state is known and which other qubits share that state.
package uniontable

import (
	"fmt"
	"slices"
	"strings"

	"qcprop/qstate"
)

type slot struct {
	value qstate.StateOrTop
	index int
}

// Table holds one slot per qubit. Qubits entangled with each other share a
// single *qstate.State; each slot records the bit position of its qubit in
// that state.
type Table struct {
	slots []slot
}

// Group is one known state together with the qubits it spans, listed by bit
// position.
type Group struct {
	State  *qstate.State
	Qubits []int
}

// New returns a table of n qubits, each in its own fresh |0⟩ state.
func New(n int) *Table {
	if n < 0 {
		panic(fmt.Sprintf("uniontable: negative size %d", n))
	}
	t := &Table{slots: make([]slot, n)}
	for q := range t.slots {
		t.slots[q] = slot{value: qstate.Known(qstate.New(1))}
	}
	return t
}

// Size returns the number of qubits.
func (t *Table) Size() int { return len(t.slots) }

// Slot returns what is known about qubit q.
func (t *Table) Slot(q int) qstate.StateOrTop {
	t.check(q)
	return t.slots[q].value
}

// IsTop reports whether nothing is known about qubit q.
func (t *Table) IsTop(q int) bool {
	t.check(q)
	return t.slots[q].value.IsTop()
}

// AllTop reports whether every qubit is Top.
func (t *Table) AllTop() bool {
	for _, s := range t.slots {
		if s.value.IsState() {
			return false
		}
	}
	return true
}

// IndexInState returns the bit position of q within its state.
func (t *Table) IndexInState(q int) int {
	t.check(q)
	if t.slots[q].value.IsTop() {
		panic(fmt.Sprintf("uniontable: qubit %d is TOP", q))
	}
	return t.slots[q].index
}

// IndicesInState maps each qubit to its bit position.
func (t *Table) IndicesInState(qubits []int) []int {
	out := make([]int, len(qubits))
	for i, q := range qubits {
		out[i] = t.IndexInState(q)
	}
	return out
}

// QubitsInState returns, in ascending order, the qubits referencing s.
func (t *Table) QubitsInState(s *qstate.State) []int {
	var out []int
	for q, sl := range t.slots {
		if sl.value.IsState() && sl.value.State() == s {
			out = append(out, q)
		}
	}
	return out
}

// owners returns the qubits of s indexed by bit position.
func (t *Table) owners(s *qstate.State) []int {
	out := make([]int, s.Width())
	for q, sl := range t.slots {
		if sl.value.IsState() && sl.value.State() == s {
			out[sl.index] = q
		}
	}
	return out
}

// Combine merges the states of all listed qubits into one. Bits of the
// merged state follow ascending qubit order. If any participant is Top,
// every participant is promoted to Top.
func (t *Table) Combine(qubits ...int) {
	for _, q := range qubits {
		t.check(q)
	}
	for _, q := range qubits {
		if t.slots[q].value.IsTop() {
			for _, p := range qubits {
				t.SetTop(p)
			}
			return
		}
	}

	var states []*qstate.State
	for _, q := range qubits {
		s := t.slots[q].value.State()
		if !slices.Contains(states, s) {
			states = append(states, s)
		}
	}
	if len(states) < 2 {
		return
	}

	acc, accOwners := states[0], t.owners(states[0])
	for _, s := range states[1:] {
		owners := t.owners(s)
		merged := slices.Concat(accOwners, owners)
		slices.Sort(merged)
		acc = qstate.Combine(acc, positions(merged, accOwners), s, positions(merged, owners))
		accOwners = merged
	}
	for i, q := range accOwners {
		t.slots[q] = slot{value: qstate.Known(acc), index: i}
	}
}

// CombineWith merges the state of q with the states of others.
func (t *Table) CombineWith(q int, others ...int) {
	t.Combine(append([]int{q}, others...)...)
}

func positions(sorted, qubits []int) []int {
	out := make([]int, len(qubits))
	for i, q := range qubits {
		out[i], _ = slices.BinarySearch(sorted, q)
	}
	return out
}

// PurityTest reports whether q can be separated from its state.
func (t *Table) PurityTest(q int) bool {
	t.check(q)
	v := t.slots[q].value
	if v.IsTop() {
		return false
	}
	if v.State().Width() == 1 {
		return true
	}
	_, _, ok := v.State().Factor(t.slots[q].index)
	return ok
}

// Separate splits q out of its state into a state of its own. The state
// must be a product with respect to q; check PurityTest first.
func (t *Table) Separate(q int) {
	t.check(q)
	v := t.slots[q].value
	if v.IsTop() {
		panic(fmt.Sprintf("uniontable: separate TOP qubit %d", q))
	}
	s := v.State()
	if s.Width() == 1 {
		return
	}
	idx := t.slots[q].index
	single, rest, ok := s.Factor(idx)
	if !ok {
		panic(fmt.Sprintf("uniontable: qubit %d is entangled and cannot be separated", q))
	}
	for p, sl := range t.slots {
		if p == q || !sl.value.IsState() || sl.value.State() != s {
			continue
		}
		i := sl.index
		if i > idx {
			i--
		}
		t.slots[p] = slot{value: qstate.Known(rest), index: i}
	}
	t.slots[q] = slot{value: qstate.Known(single)}
}

// SetTop promotes q and every qubit sharing its state to Top.
func (t *Table) SetTop(q int) {
	t.check(q)
	v := t.slots[q].value
	if v.IsTop() {
		return
	}
	s := v.State()
	for p, sl := range t.slots {
		if sl.value.IsState() && sl.value.State() == s {
			t.slots[p] = slot{}
		}
	}
}

// ResetState makes q a fresh |0⟩. A separable q is split out first; when q
// is entangled its former partners are promoted to Top.
func (t *Table) ResetState(q int) {
	t.check(q)
	if v := t.slots[q].value; v.IsState() && v.State().Width() > 1 {
		if t.PurityTest(q) {
			t.Separate(q)
		} else {
			t.SetTop(q)
		}
	}
	t.slots[q] = slot{value: qstate.Known(qstate.New(1))}
}

// Swap exchanges the slots of q1 and q2.
func (t *Table) Swap(q1, q2 int) {
	t.check(q1)
	t.check(q2)
	t.slots[q1], t.slots[q2] = t.slots[q2], t.slots[q1]
}

// IsAlwaysOne reports whether q is known to measure 1 with certainty.
func (t *Table) IsAlwaysOne(q int) bool {
	t.check(q)
	v := t.slots[q].value
	return v.IsState() && v.State().AlwaysActivated(t.slots[q].index)
}

// IsAlwaysZero reports whether q is known to measure 0 with certainty.
func (t *Table) IsAlwaysZero(q int) bool {
	t.check(q)
	v := t.slots[q].value
	return v.IsState() && !v.State().CanActivate(t.slots[q].index)
}

// Groups returns every known state once, ordered by its lowest qubit.
func (t *Table) Groups() []Group {
	var out []Group
	seen := make(map[*qstate.State]bool)
	for _, sl := range t.slots {
		if sl.value.IsTop() {
			continue
		}
		s := sl.value.State()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, Group{State: s, Qubits: t.owners(s)})
	}
	return out
}

// Clone returns a deep copy. Qubits that share a state in t share the
// corresponding copy.
func (t *Table) Clone() *Table {
	copies := make(map[*qstate.State]*qstate.State)
	out := &Table{slots: make([]slot, len(t.slots))}
	for q, sl := range t.slots {
		if sl.value.IsTop() {
			continue
		}
		s := sl.value.State()
		c, ok := copies[s]
		if !ok {
			c = s.Clone()
			copies[s] = c
		}
		out.slots[q] = slot{value: qstate.Known(c), index: sl.index}
	}
	return out
}

// Equal reports whether both tables have the same grouping, bit positions
// and states.
func (t *Table) Equal(o *Table) bool {
	if len(t.slots) != len(o.slots) {
		return false
	}
	for q := range t.slots {
		a, b := t.slots[q], o.slots[q]
		if a.value.IsTop() != b.value.IsTop() {
			return false
		}
		if a.value.IsTop() {
			continue
		}
		if a.index != b.index || !a.value.State().Equal(b.value.State()) {
			return false
		}
		if !slices.Equal(t.QubitsInState(a.value.State()), o.QubitsInState(b.value.State())) {
			return false
		}
	}
	return true
}

func (t *Table) String() string {
	var sb strings.Builder
	for q, sl := range t.slots {
		if sl.value.IsTop() {
			fmt.Fprintf(&sb, "q%d: TOP\n", q)
			continue
		}
		s := sl.value.State()
		owners := t.owners(s)
		if slices.Min(owners) != q {
			continue
		}
		fmt.Fprintf(&sb, "q%v: %s\n", owners, s)
	}
	return sb.String()
}

func (t *Table) check(q int) {
	if q < 0 || q >= len(t.slots) {
		panic(fmt.Sprintf("uniontable: qubit %d out of range [0,%d)", q, len(t.slots)))
	}
}
