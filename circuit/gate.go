// Package circuit is the gate-level representation of a quantum circuit with
// OpenQASM 2.0 parsing and emission.
package circuit

import (
	"fmt"
	"slices"
	"strings"
)

// Base gate kinds. Controlled forms are a base kind plus Controls.
const (
	I       = "I"
	X       = "X"
	Y       = "Y"
	Z       = "Z"
	H       = "H"
	S       = "S"
	T       = "T"
	SX      = "SX"
	RX      = "RX"
	RY      = "RY"
	RZ      = "RZ"
	P       = "P"
	U2      = "U2"
	U3      = "U3"
	SWAP    = "SWAP"
	MEASURE = "MEASURE"
	RESET   = "RESET"
	BARRIER = "BARRIER"

	// COMPOUND is a call of a user-defined gate. Flatten replaces it with
	// the gates of its body.
	COMPOUND = "COMPOUND"
)

// Gate is one operation of the circuit.
type Gate struct {
	Type     string
	Target   int
	Target2  int       // second SWAP qubit, -1 otherwise
	Controls []int     // quantum controls
	Params   []float64 // rotation angles
	IsDagger bool      // adjoint (sdg, tdg, sxdg)

	// Classical condition `if (Creg==ClassicalValue)`, or on a single bit
	// when ClassicalControl >= 0. Creg is empty for unconditioned gates.
	Creg             string
	ClassicalControl int
	ClassicalValue   int

	Qubits []int       // barrier and compound operands
	Cbit   int         // measurement destination, -1 otherwise
	Def    *Definition // called definition of a COMPOUND gate
}

// NewGate returns a gate of the given kind on target with no second target,
// no measurement destination and no condition.
func NewGate(typ string, target int, controls ...int) Gate {
	return Gate{
		Type:             typ,
		Target:           target,
		Target2:          -1,
		Controls:         controls,
		ClassicalControl: -1,
		Cbit:             -1,
	}
}

// Clone returns a copy that shares no slices with g.
func (g Gate) Clone() Gate {
	g.Controls = slices.Clone(g.Controls)
	g.Params = slices.Clone(g.Params)
	g.Qubits = slices.Clone(g.Qubits)
	return g
}

// Conditioned reports whether the gate depends on a classical register.
func (g Gate) Conditioned() bool { return g.Creg != "" }

// Operands returns every qubit the gate touches: controls first, then
// targets. For barriers and compound gates it returns Qubits.
func (g Gate) Operands() []int {
	if g.Type == BARRIER || g.Type == COMPOUND {
		return slices.Clone(g.Qubits)
	}
	out := append(slices.Clone(g.Controls), g.Target)
	if g.Type == SWAP {
		out = append(out, g.Target2)
	}
	return out
}

// Name returns the OpenQASM name of the gate.
func (g Gate) Name() string {
	if g.Type == COMPOUND && g.Def != nil {
		return g.Def.Name
	}
	base := baseName(g.Type)
	if g.IsDagger {
		base += "dg"
	}
	switch n := len(g.Controls); {
	case n == 0:
		return base
	case n == 1 && g.Type == P:
		return "cu1"
	case n == 1:
		return "c" + base
	case n == 2:
		return "cc" + base
	default:
		return "mc" + base
	}
}

func baseName(typ string) string {
	switch typ {
	case I:
		return "id"
	default:
		return strings.ToLower(typ)
	}
}

// Label is the short display form of the gate, e.g. "RZ(pi/2)" or "S†".
func (g Gate) Label() string {
	label := g.Type
	switch g.Type {
	case MEASURE:
		return "M"
	case RESET:
		return "|0⟩"
	case SWAP:
		return "×"
	case COMPOUND:
		if g.Def != nil {
			label = g.Def.Name
		}
	}
	if g.IsDagger {
		label += "†"
	}
	if len(g.Params) > 0 {
		ps := make([]string, len(g.Params))
		for i, p := range g.Params {
			ps[i] = FormatParam(p)
		}
		label += "(" + strings.Join(ps, ",") + ")"
	}
	return label
}

func (g Gate) String() string {
	var sb strings.Builder
	if g.Conditioned() {
		sb.WriteString(g.conditionString())
		sb.WriteByte(' ')
	}
	sb.WriteString(g.Name())
	if len(g.Params) > 0 {
		ps := make([]string, len(g.Params))
		for i, p := range g.Params {
			ps[i] = FormatParam(p)
		}
		fmt.Fprintf(&sb, "(%s)", strings.Join(ps, ", "))
	}
	ops := g.Operands()
	for i, q := range ops {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "q%d", q)
	}
	if g.Type == MEASURE {
		fmt.Fprintf(&sb, " -> c%d", g.Cbit)
	}
	return sb.String()
}

func (g Gate) conditionString() string {
	if g.ClassicalControl >= 0 {
		return fmt.Sprintf("if (%s[%d]==%d)", g.Creg, g.ClassicalControl, g.ClassicalValue)
	}
	return fmt.Sprintf("if (%s==%d)", g.Creg, g.ClassicalValue)
}
