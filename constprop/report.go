package constprop

import (
	"fmt"
	"slices"
)

// Outcome is what the pass did with one gate.
type Outcome int

const (
	Kept          Outcome = iota // unchanged
	Removed                      // controls can never all be 1
	Unconditional                // controls are always 1 and were dropped
	Reduced                      // some controls were dropped
)

func (o Outcome) String() string {
	switch o {
	case Kept:
		return "kept"
	case Removed:
		return "removed"
	case Unconditional:
		return "unconditional"
	case Reduced:
		return "reduced"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Report summarises a pass.
type Report struct {
	Outcomes []Outcome // one per processed gate

	Removed       int
	Unconditional int
	Reduced       int

	GroupSizeExceeded  int // merges refused by the group size budget
	AmplitudesExceeded int // groups abandoned by the amplitude budget
	Degraded           int // gates that turned at least one known qubit into Top
	Separations        int // qubits split out of a group after a gate
}

func (r *Report) record(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o {
	case Removed:
		r.Removed++
	case Unconditional:
		r.Unconditional++
	case Reduced:
		r.Reduced++
	}
}

func (r Report) clone() Report {
	r.Outcomes = slices.Clone(r.Outcomes)
	return r
}

func (r Report) String() string {
	return fmt.Sprintf("%d gates: %d removed, %d unconditional, %d reduced; %d degraded (%d group size, %d amplitudes), %d separations",
		len(r.Outcomes), r.Removed, r.Unconditional, r.Reduced,
		r.Degraded, r.GroupSizeExceeded, r.AmplitudesExceeded, r.Separations)
}
