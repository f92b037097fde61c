package uniontable

import (
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	. "github.com/smartystreets/goconvey/convey"

	"qcprop/qstate"
)

var (
	hadamard = [4]complex128{
		complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0),
		complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0),
	}
	pauliX = [4]complex128{0, 1, 1, 0}
)

// bell entangles a and b into (|00⟩+|11⟩)/√2.
func bell(t *Table, a, b int) {
	t.Combine(a, b)
	s := t.Slot(a).State()
	s.ApplyGate(t.IndexInState(a), hadamard)
	s.ApplyControlledGate(t.IndexInState(b), []int{t.IndexInState(a)}, pauliX)
}

// flip applies X to q in place.
func flip(t *Table, q int) {
	t.Slot(q).State().ApplyGate(t.IndexInState(q), pauliX)
}

func shouldBeConsistent(actual any, _ ...any) string {
	t := actual.(*Table)
	for _, g := range t.Groups() {
		if len(g.Qubits) != g.State.Width() {
			return "group width mismatch:\n" + spew.Sdump(g)
		}
		for i, q := range g.Qubits {
			if t.IndexInState(q) != i {
				return "bit position mismatch:\n" + t.String()
			}
		}
	}
	return ""
}

func TestNew(t *testing.T) {
	Convey("Given a fresh table of three qubits", t, func() {
		table := New(3)

		Convey("Then every qubit is its own |0⟩", func() {
			So(table.Size(), ShouldEqual, 3)
			So(table.AllTop(), ShouldBeFalse)
			for q := range 3 {
				So(table.IsTop(q), ShouldBeFalse)
				So(table.IsAlwaysZero(q), ShouldBeTrue)
				So(table.QubitsInState(table.Slot(q).State()), ShouldResemble, []int{q})
			}
			So(len(table.Groups()), ShouldEqual, 3)
		})

		Convey("Then out-of-range access panics", func() {
			So(func() { table.IsTop(3) }, ShouldPanic)
			So(func() { table.IsTop(-1) }, ShouldPanic)
		})
	})
}

func TestCombine(t *testing.T) {
	Convey("Given qubits 2 and 0 combined in that order", t, func() {
		table := New(4)
		flip(table, 2)
		table.Combine(2, 0)

		Convey("Then the merged state is ordered by qubit index", func() {
			s := table.Slot(0).State()
			So(table.Slot(2).State(), ShouldPointTo, s)
			So(s.Width(), ShouldEqual, 2)
			So(table.IndexInState(0), ShouldEqual, 0)
			So(table.IndexInState(2), ShouldEqual, 1)
			So(s.Get(0b10).Equal(1), ShouldBeTrue)
			So(table.QubitsInState(s), ShouldResemble, []int{0, 2})
			So(table, shouldBeConsistent)
		})

		Convey("When qubit 1 joins the group", func() {
			table.CombineWith(1, 2)

			Convey("Then the three bits follow qubit order", func() {
				s := table.Slot(1).State()
				So(s.Width(), ShouldEqual, 3)
				So(table.IndicesInState([]int{0, 1, 2}), ShouldResemble, []int{0, 1, 2})
				So(s.Get(0b100).Equal(1), ShouldBeTrue)
				So(table, shouldBeConsistent)
			})
		})

		Convey("When the same group is combined again", func() {
			before := table.Slot(0).State()
			table.Combine(0, 2)

			Convey("Then nothing changes", func() {
				So(table.Slot(0).State(), ShouldPointTo, before)
			})
		})
	})

	Convey("Given one Top qubit", t, func() {
		table := New(4)
		bell(table, 1, 3)
		table.SetTop(0)

		Convey("When it is combined with a known group", func() {
			table.Combine(0, 1)

			Convey("Then the whole merged set becomes Top", func() {
				So(table.IsTop(0), ShouldBeTrue)
				So(table.IsTop(1), ShouldBeTrue)
				So(table.IsTop(3), ShouldBeTrue)
				So(table.IsTop(2), ShouldBeFalse)
			})
		})
	})

	Convey("Given independent qubits whose marginals are known", t, func() {
		table := New(3)
		table.Slot(0).State().ApplyGate(0, hadamard)
		flip(table, 1)
		table.Combine(0, 1, 2)

		Convey("Then each marginal survives the merge", func() {
			s := table.Slot(0).State()
			So(s.ProbOne(table.IndexInState(0)), ShouldAlmostEqual, 0.5, 1e-9)
			So(s.ProbOne(table.IndexInState(1)), ShouldAlmostEqual, 1.0, 1e-9)
			So(s.ProbOne(table.IndexInState(2)), ShouldAlmostEqual, 0.0, 1e-9)
		})
	})
}

func TestSeparate(t *testing.T) {
	Convey("Given two independent qubits merged into one group", t, func() {
		table := New(2)
		table.Slot(0).State().ApplyGate(0, hadamard)
		flip(table, 1)
		original := table.Slot(0).State().Clone()
		table.Combine(0, 1)

		Convey("Then both pass the purity test", func() {
			So(table.PurityTest(0), ShouldBeTrue)
			So(table.PurityTest(1), ShouldBeTrue)
		})

		Convey("When qubit 0 is separated", func() {
			table.Separate(0)

			Convey("Then its original state is reproduced", func() {
				So(table.Slot(0).State().Equal(original), ShouldBeTrue)
				So(table.Slot(1).State().Width(), ShouldEqual, 1)
				So(table.IsAlwaysOne(1), ShouldBeTrue)
				So(table, shouldBeConsistent)
			})
		})
	})

	Convey("Given a three qubit group with an entangled pair on qubits 0 and 2", t, func() {
		table := New(3)
		bell(table, 0, 2)
		flip(table, 1)
		table.Combine(0, 1, 2)

		Convey("Then only qubit 1 is pure", func() {
			So(table.PurityTest(0), ShouldBeFalse)
			So(table.PurityTest(1), ShouldBeTrue)
			So(table.PurityTest(2), ShouldBeFalse)
		})

		Convey("When qubit 1 is separated", func() {
			table.Separate(1)

			Convey("Then the pair is shifted down to bits 0 and 1", func() {
				So(table.IndexInState(0), ShouldEqual, 0)
				So(table.IndexInState(2), ShouldEqual, 1)
				So(table.Slot(0).State().Width(), ShouldEqual, 2)
				So(table, shouldBeConsistent)
			})
		})

		Convey("Then separating an entangled qubit panics", func() {
			So(func() { table.Separate(0) }, ShouldPanic)
		})
	})

	Convey("Given a Top qubit", t, func() {
		table := New(1)
		table.SetTop(0)

		So(table.PurityTest(0), ShouldBeFalse)
		So(func() { table.Separate(0) }, ShouldPanic)
		So(func() { table.IndexInState(0) }, ShouldPanic)
	})
}

func TestSetTopAndReset(t *testing.T) {
	Convey("Given a Bell pair and a spectator", t, func() {
		table := New(3)
		bell(table, 0, 1)

		Convey("When one member is set to Top", func() {
			table.SetTop(1)

			Convey("Then the whole group is Top", func() {
				So(table.IsTop(0), ShouldBeTrue)
				So(table.IsTop(1), ShouldBeTrue)
				So(table.IsTop(2), ShouldBeFalse)
				So(table.AllTop(), ShouldBeFalse)
			})

			Convey("When the last qubit follows", func() {
				table.SetTop(2)
				So(table.AllTop(), ShouldBeTrue)
			})
		})

		Convey("When an entangled member is reset", func() {
			table.ResetState(0)

			Convey("Then it is a fresh |0⟩ and its partner is Top", func() {
				So(table.IsAlwaysZero(0), ShouldBeTrue)
				So(table.Slot(0).State().Width(), ShouldEqual, 1)
				So(table.IsTop(1), ShouldBeTrue)
			})
		})
	})

	Convey("Given a separable group", t, func() {
		table := New(2)
		flip(table, 0)
		flip(table, 1)
		table.Combine(0, 1)

		Convey("When qubit 1 is reset", func() {
			table.ResetState(1)

			Convey("Then qubit 0 keeps its state", func() {
				So(table.IsAlwaysOne(0), ShouldBeTrue)
				So(table.IsAlwaysZero(1), ShouldBeTrue)
				So(table, shouldBeConsistent)
			})
		})
	})

	Convey("Given a Top qubit", t, func() {
		table := New(1)
		table.SetTop(0)
		table.ResetState(0)

		So(table.IsTop(0), ShouldBeFalse)
		So(table.IsAlwaysZero(0), ShouldBeTrue)
	})
}

func TestMinimizeControls(t *testing.T) {
	Convey("Given qubit 0 in |1⟩, qubit 1 in |0⟩, a Bell pair on 2,3 and Top qubit 4", t, func() {
		table := New(6)
		flip(table, 0)
		bell(table, 2, 3)
		table.SetTop(4)
		table.Slot(5).State().ApplyGate(0, hadamard)

		Convey("Then an always-one control is dropped", func() {
			state, kept := table.MinimizeControls([]int{0})
			So(state, ShouldEqual, Always)
			So(kept, ShouldBeEmpty)
		})

		Convey("Then a zero control never fires", func() {
			state, _ := table.MinimizeControls([]int{0, 1})
			So(state, ShouldEqual, Never)
		})

		Convey("Then Top and superposed controls are kept in order", func() {
			state, kept := table.MinimizeControls([]int{5, 0, 4})
			So(state, ShouldEqual, Sometimes)
			So(kept, ShouldResemble, []int{5, 4})
		})

		Convey("Then a Bell pair fires on both controls together", func() {
			state, kept := table.MinimizeControls([]int{2, 3})
			So(state, ShouldEqual, Sometimes)
			So(kept, ShouldResemble, []int{2, 3})
		})

		Convey("When the pair is anti-correlated", func() {
			flip(table, 3)

			Convey("Then the joint controls never fire", func() {
				state, kept := table.MinimizeControls([]int{2, 3})
				So(state, ShouldEqual, Never)
				So(kept, ShouldBeNil)
			})
		})

		Convey("Then no controls always fire", func() {
			state, _ := table.MinimizeControls(nil)
			So(state, ShouldEqual, Always)
		})
	})

	Convey("Given the activation states", t, func() {
		So(Never.String(), ShouldEqual, "never")
		So(Always.String(), ShouldEqual, "always")
		So(Sometimes.String(), ShouldEqual, "sometimes")
	})
}

func TestSwap(t *testing.T) {
	Convey("Given a Bell pair on qubits 0,1 and qubit 2 in |1⟩", t, func() {
		table := New(3)
		bell(table, 0, 1)
		flip(table, 2)
		pair := table.Slot(0).State()

		Convey("When qubits 1 and 2 are swapped", func() {
			table.Swap(1, 2)

			Convey("Then the pair moves to qubits 0 and 2 without new amplitudes", func() {
				So(table.Slot(2).State(), ShouldPointTo, pair)
				So(table.QubitsInState(pair), ShouldResemble, []int{0, 2})
				So(table.IsAlwaysOne(1), ShouldBeTrue)
				So(pair.Size(), ShouldEqual, 2)
				So(table, shouldBeConsistent)
			})
		})
	})
}

func TestCloneAndEqual(t *testing.T) {
	Convey("Given a table with a shared group and a Top qubit", t, func() {
		table := New(4)
		bell(table, 0, 2)
		table.SetTop(3)

		Convey("When it is cloned", func() {
			clone := table.Clone()

			Convey("Then the clone is equal and keeps its sharing", func() {
				So(clone.Equal(table), ShouldBeTrue)
				So(clone.Slot(0).State(), ShouldPointTo, clone.Slot(2).State())
				So(clone.Slot(0).State(), ShouldNotPointTo, table.Slot(0).State())
				So(clone.String(), ShouldEqual, table.String())
			})

			Convey("Then mutating the clone leaves the original alone", func() {
				flip(clone, 1)
				So(table.IsAlwaysZero(1), ShouldBeTrue)
				So(clone.Equal(table), ShouldBeFalse)
			})
		})

		Convey("Then it renders each group once", func() {
			So(table.String(), ShouldEqual,
				"q[0 2]: {|00⟩: 0.7071, |11⟩: 0.7071}\nq[1]: {|0⟩: 1.0000}\nq3: TOP\n")
		})
	})

	Convey("Given tables of different sizes", t, func() {
		So(New(2).Equal(New(3)), ShouldBeFalse)
	})

	Convey("Given equal states grouped differently", t, func() {
		a, b := New(2), New(2)
		b.Combine(0, 1)
		So(a.Equal(b), ShouldBeFalse)
	})

	Convey("Given a table and a state it does not hold", t, func() {
		So(New(2).QubitsInState(qstate.New(1)), ShouldBeEmpty)
	})
}
