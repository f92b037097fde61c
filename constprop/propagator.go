// Package constprop is a constant-propagation pass for quantum circuits. It
// walks the gate stream with a union table of exactly known qubit states,
// removes controlled gates that can never fire, drops controls that are
// always 1, and abandons exact tracking (Top) once a group outgrows its
// budgets.
package constprop

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"qcprop/circuit"
	"qcprop/qstate"
	"qcprop/uniontable"
)

var pauliX = [4]complex128{0, 1, 1, 0}

// Propagator runs the pass one gate at a time over a table it owns.
type Propagator struct {
	cfg    config
	log    *log.Logger
	table  *uniontable.Table
	report Report
}

// New returns a propagator over numQubits fresh |0⟩ qubits.
func New(numQubits int, opts ...Option) *Propagator {
	return newPropagator(uniontable.New(numQubits), opts)
}

func newPropagator(table *uniontable.Table, opts []Option) *Propagator {
	cfg := newConfig(opts)
	return &Propagator{
		cfg:   cfg,
		log:   cfg.logger.WithPrefix("constprop"),
		table: table,
	}
}

// Table returns the current table. It is owned by the propagator while a
// pass is running.
func (p *Propagator) Table() *uniontable.Table { return p.table }

// Report returns a snapshot of the counters so far.
func (p *Propagator) Report() Report { return p.report.clone() }

// Propagate runs the pass over c from a fresh table, rewrites c and returns
// the final table.
func Propagate(c *circuit.Circuit, opts ...Option) (*uniontable.Table, error) {
	p := New(c.NumQubits, opts...)
	if err := p.Run(c); err != nil {
		return nil, err
	}
	return p.Table(), nil
}

// PropagateInto continues the pass from table, which is mutated in place.
// On error the table is in an intermediate state and must be discarded.
func PropagateInto(c *circuit.Circuit, table *uniontable.Table, opts ...Option) error {
	return newPropagator(table, opts).Run(c)
}

// Optimize rewrites c in place and discards the table.
func Optimize(c *circuit.Circuit, opts ...Option) error {
	_, err := Propagate(c, opts...)
	return err
}

// Run steps through every gate of c and replaces c.Gates with the rewritten
// list. On error c is left unchanged.
func (p *Propagator) Run(c *circuit.Circuit) error {
	if p.table.Size() != c.NumQubits {
		return fmt.Errorf("constprop: %w: table has %d qubits, circuit %d", ErrTableSize, p.table.Size(), c.NumQubits)
	}

	p.checkAmplitudes()
	gates := make([]circuit.Gate, 0, len(c.Gates))
	for i, g := range c.Gates {
		out, outcome, err := p.Step(g)
		if err != nil {
			return fmt.Errorf("constprop: gate %d (%v): %w", i, g, err)
		}
		if outcome != Removed {
			gates = append(gates, out)
		}
	}

	p.log.Debug("pass finished", "before", len(c.Gates), "after", len(gates), "allTop", p.table.AllTop())
	c.Gates = gates
	return nil
}

// Step processes one gate and returns it as it should appear in the output
// circuit together with what happened to it. Removed gates must be dropped
// by the caller.
func (p *Propagator) Step(g circuit.Gate) (circuit.Gate, Outcome, error) {
	if err := p.validate(g); err != nil {
		return g, Kept, err
	}
	g = g.Clone()
	index := len(p.report.Outcomes)

	switch {
	case g.Type == circuit.BARRIER:
		p.report.record(Kept)
		return g, Kept, nil
	case g.Conditioned():
		p.degrade(index, "classical condition", g.Operands()...)
		p.report.record(Kept)
		return g, Kept, nil
	case g.Type == circuit.RESET:
		p.table.ResetState(g.Target)
		p.report.record(Kept)
		return g, Kept, nil
	case g.Type == circuit.MEASURE:
		if !p.table.IsAlwaysZero(g.Target) && !p.table.IsAlwaysOne(g.Target) {
			p.degrade(index, "measurement", g.Target)
		}
		p.report.record(Kept)
		return g, Kept, nil
	}

	outcome := Kept
	if len(g.Controls) > 0 {
		activation, kept := p.table.MinimizeControls(g.Controls)
		switch activation {
		case uniontable.Never:
			p.log.Debug("gate removed", "index", index, "gate", g)
			p.report.record(Removed)
			return g, Removed, nil
		case uniontable.Always:
			g.Controls = nil
			outcome = Unconditional
		case uniontable.Sometimes:
			if len(kept) < len(g.Controls) {
				g.Controls = kept
				outcome = Reduced
			}
		}
		if outcome != Kept {
			p.log.Debug("controls simplified", "index", index, "gate", g, "outcome", outcome)
		}
	}

	if g.Type == circuit.SWAP && len(g.Controls) == 0 {
		p.table.Swap(g.Target, g.Target2)
	} else {
		p.apply(index, g)
	}
	p.report.record(outcome)
	return g, outcome, nil
}

func (p *Propagator) validate(g circuit.Gate) error {
	ops := g.Operands()
	for _, q := range ops {
		if q < 0 || q >= p.table.Size() {
			return fmt.Errorf("%w: qubit %d, circuit has %d", ErrQubitRange, q, p.table.Size())
		}
	}
	for i, q := range ops {
		if slices.Contains(ops[i+1:], q) {
			return fmt.Errorf("%w: qubit %d used twice", ErrMalformedGate, q)
		}
	}

	switch g.Type {
	case circuit.BARRIER:
		return nil
	case circuit.MEASURE, circuit.RESET:
		if len(g.Controls) > 0 {
			return fmt.Errorf("%w: %s cannot be controlled", ErrMalformedGate, g.Type)
		}
		return nil
	case circuit.SWAP:
		return nil
	}
	_, err := g.Matrix()
	return err
}

// apply merges the groups of the gate's operands and applies it exactly,
// or promotes the operands to Top when that is impossible or too costly.
func (p *Propagator) apply(index int, g circuit.Gate) {
	qubits := g.Operands()

	for _, q := range qubits {
		if p.table.IsTop(q) {
			if p.anyKnown(qubits) {
				p.report.Degraded++
				p.log.Debug("unknown operand", "index", index, "gate", g)
			}
			p.table.Combine(qubits...)
			return
		}
	}

	if width := p.mergedWidth(qubits); width > p.cfg.maxEntGroupSize {
		p.report.GroupSizeExceeded++
		p.report.Degraded++
		p.log.Debug("group size budget exceeded", "index", index, "gate", g, "width", width)
		for _, q := range qubits {
			p.table.SetTop(q)
		}
		return
	}

	p.table.Combine(qubits...)
	s := p.table.Slot(g.Target).State()
	target := p.table.IndexInState(g.Target)
	controls := p.table.IndicesInState(g.Controls)

	if g.Type == circuit.SWAP {
		// Controlled swap as three controlled X gates.
		other := p.table.IndexInState(g.Target2)
		s.ApplyControlledGate(target, append(slices.Clone(controls), other), pauliX)
		s.ApplyControlledGate(other, append(slices.Clone(controls), target), pauliX)
		s.ApplyControlledGate(target, append(slices.Clone(controls), other), pauliX)
	} else {
		m, _ := g.Matrix()
		s.ApplyControlledGate(target, controls, m)
	}

	if !p.checkAmplitude(index, g.Target) {
		return
	}
	p.separateAll(g.Target)
}

// checkAmplitude promotes the group of q to Top when it holds more entries
// than the budget allows. It reports whether the group survived.
func (p *Propagator) checkAmplitude(index, q int) bool {
	s := p.table.Slot(q).State()
	if s.Size() <= p.cfg.maxAmplitudes {
		return true
	}
	p.report.AmplitudesExceeded++
	p.report.Degraded++
	p.log.Debug("amplitude budget exceeded", "index", index, "qubits", p.table.QubitsInState(s), "size", s.Size())
	p.table.SetTop(q)
	return false
}

// checkAmplitudes applies the amplitude budget to every group of the table.
func (p *Propagator) checkAmplitudes() {
	for _, g := range p.table.Groups() {
		p.checkAmplitude(-1, g.Qubits[0])
	}
}

// separateAll splits every qubit that factors out of the group of q.
func (p *Propagator) separateAll(q int) {
	for _, m := range p.table.QubitsInState(p.table.Slot(q).State()) {
		if p.table.Slot(m).State().Width() > 1 && p.table.PurityTest(m) {
			p.table.Separate(m)
			p.report.Separations++
		}
	}
}

// degrade promotes qubits to Top, splitting each one out of its group first
// when it factors so that its partners keep their state.
func (p *Propagator) degrade(index int, reason string, qubits ...int) {
	if !p.anyKnown(qubits) {
		return
	}
	p.report.Degraded++
	p.log.Debug("degraded", "index", index, "reason", reason, "qubits", qubits)
	for _, q := range qubits {
		if p.table.IsTop(q) {
			continue
		}
		if p.table.PurityTest(q) {
			p.table.Separate(q)
		}
		p.table.SetTop(q)
	}
}

func (p *Propagator) anyKnown(qubits []int) bool {
	for _, q := range qubits {
		if !p.table.IsTop(q) {
			return true
		}
	}
	return false
}

func (p *Propagator) mergedWidth(qubits []int) int {
	seen := make(map[*qstate.State]bool)
	width := 0
	for _, q := range qubits {
		s := p.table.Slot(q).State()
		if !seen[s] {
			seen[s] = true
			width += s.Width()
		}
	}
	return width
}
