package circuit

import (
	"fmt"
	"os"
	"slices"
)

// Register is a named slice of the flattened qubit or classical bit space.
type Register struct {
	Name   string
	Size   int
	Offset int
}

// Circuit is an ordered list of gates over NumQubits qubits.
type Circuit struct {
	NumQubits int
	Qregs     []Register
	Cregs     []Register
	Gates     []Gate
	Defs      []*Definition // gate definitions, until Flatten
}

// New returns an empty circuit with a single quantum register q.
func New(numQubits int) *Circuit {
	return &Circuit{
		NumQubits: numQubits,
		Qregs:     []Register{{Name: "q", Size: numQubits}},
	}
}

// Parse builds a circuit from OpenQASM 2.0 source with every call of a
// user-defined gate inlined.
func Parse(src string) (*Circuit, error) {
	c, err := ParseCompound(src)
	if err != nil {
		return nil, err
	}
	if err := c.Flatten(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseCompound is Parse without inlining. Calls of user-defined gates stay
// COMPOUND gates until Flatten.
func ParseCompound(src string) (*Circuit, error) {
	c := &Circuit{}
	if err := c.ParseQASM(src); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadFile parses the OpenQASM file at path.
func ReadFile(path string) (*Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Clone returns a deep copy.
func (c *Circuit) Clone() *Circuit {
	gates := make([]Gate, len(c.Gates))
	for i, g := range c.Gates {
		gates[i] = g.Clone()
	}
	return &Circuit{
		NumQubits: c.NumQubits,
		Qregs:     slices.Clone(c.Qregs),
		Cregs:     slices.Clone(c.Cregs),
		Gates:     gates,
		Defs:      slices.Clone(c.Defs),
	}
}

// NumOps returns the number of gates.
func (c *Circuit) NumOps() int { return len(c.Gates) }

// NumCbits returns the size of the classical bit space: the declared
// registers, or enough bits for every measurement when none are declared.
func (c *Circuit) NumCbits() int {
	n := 0
	for _, r := range c.Cregs {
		n = max(n, r.Offset+r.Size)
	}
	for _, g := range c.Gates {
		if g.Type == MEASURE {
			n = max(n, g.Cbit+1)
		}
	}
	return n
}

// AddGate appends a gate of the given kind.
func (c *Circuit) AddGate(typ string, target int, controls ...int) {
	c.Gates = append(c.Gates, NewGate(typ, target, controls...))
}

// AddParameterizedGate appends a rotation or phase gate.
func (c *Circuit) AddParameterizedGate(typ string, target int, params []float64, controls ...int) {
	g := NewGate(typ, target, controls...)
	g.Params = params
	c.Gates = append(c.Gates, g)
}

// AddDaggerGate appends the adjoint of a gate.
func (c *Circuit) AddDaggerGate(typ string, target int, controls ...int) {
	g := NewGate(typ, target, controls...)
	g.IsDagger = true
	c.Gates = append(c.Gates, g)
}

// AddSwap appends a (possibly controlled) swap of a and b.
func (c *Circuit) AddSwap(a, b int, controls ...int) {
	g := NewGate(SWAP, a, controls...)
	g.Target2 = b
	c.Gates = append(c.Gates, g)
}

// AddMeasure appends a measurement of q into classical bit cbit.
func (c *Circuit) AddMeasure(q, cbit int) {
	g := NewGate(MEASURE, q)
	g.Cbit = cbit
	c.Gates = append(c.Gates, g)
}

// AddReset appends a reset of q.
func (c *Circuit) AddReset(q int) {
	c.Gates = append(c.Gates, NewGate(RESET, q))
}

// AddBarrier appends a barrier over qubits, or over all qubits when none
// are given.
func (c *Circuit) AddBarrier(qubits ...int) {
	if len(qubits) == 0 {
		for q := range c.NumQubits {
			qubits = append(qubits, q)
		}
	}
	g := NewGate(BARRIER, -1)
	g.Qubits = qubits
	c.Gates = append(c.Gates, g)
}

func (c *Circuit) qregs() []Register {
	if len(c.Qregs) == 0 {
		return []Register{{Name: "q", Size: c.NumQubits}}
	}
	return c.Qregs
}

func (c *Circuit) cregs() []Register {
	if len(c.Cregs) == 0 {
		if n := c.NumCbits(); n > 0 {
			return []Register{{Name: "c", Size: n}}
		}
	}
	return c.Cregs
}

func ref(regs []Register, i int) string {
	for _, r := range regs {
		if i >= r.Offset && i < r.Offset+r.Size {
			return fmt.Sprintf("%s[%d]", r.Name, i-r.Offset)
		}
	}
	return fmt.Sprintf("q[%d]", i)
}

func lookup(regs []Register, name string) (Register, bool) {
	for _, r := range regs {
		if r.Name == name {
			return r, true
		}
	}
	return Register{}, false
}
