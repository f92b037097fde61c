package uniontable

import "qcprop/qstate"

// ActivationState classifies when a controlled operation fires.
type ActivationState int

const (
	Never ActivationState = iota
	Always
	Sometimes
)

func (a ActivationState) String() string {
	switch a {
	case Never:
		return "never"
	case Always:
		return "always"
	case Sometimes:
		return "sometimes"
	}
	return "unknown"
}

// MinimizeControls classifies a control set against the table and returns
// the controls that still matter, in input order. Top controls are always
// kept. Known controls are checked jointly per state: a state in which they
// can never all be 1 makes the operation Never fire. A control that is 1 in
// every entry of its state is redundant.
func (t *Table) MinimizeControls(controls []int) (ActivationState, []int) {
	byState := make(map[*qstate.State][]int)
	var order []*qstate.State
	for _, c := range controls {
		t.check(c)
		v := t.slots[c].value
		if v.IsTop() {
			continue
		}
		s := v.State()
		if _, ok := byState[s]; !ok {
			order = append(order, s)
		}
		byState[s] = append(byState[s], t.slots[c].index)
	}

	for _, s := range order {
		if !s.CanActivate(byState[s]...) {
			return Never, nil
		}
	}

	var kept []int
	for _, c := range controls {
		v := t.slots[c].value
		if v.IsState() && v.State().AlwaysActivated(t.slots[c].index) {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return Always, nil
	}
	return Sometimes, kept
}
