package qstate

// StateOrTop is what is known about one qubit: either a shared reference to
// the State of its group, or Top (nothing is known). The zero value is Top.
type StateOrTop struct {
	state *State
}

// Top returns the unknown value.
func Top() StateOrTop { return StateOrTop{} }

// Known wraps a concrete state.
func Known(s *State) StateOrTop {
	if s == nil {
		panic("qstate: Known(nil)")
	}
	return StateOrTop{state: s}
}

// IsTop reports whether nothing is known.
func (v StateOrTop) IsTop() bool { return v.state == nil }

// IsState reports whether a concrete state is held.
func (v StateOrTop) IsState() bool { return v.state != nil }

// State returns the concrete state. Calling it on Top is a programming error.
func (v StateOrTop) State() *State {
	if v.state == nil {
		panic("qstate: State() called on TOP")
	}
	return v.state
}

// Equal reports whether both values are Top or refer to the same State.
func (v StateOrTop) Equal(o StateOrTop) bool { return v.state == o.state }

func (v StateOrTop) String() string {
	if v.IsTop() {
		return "TOP"
	}
	return v.state.String()
}
