package circuit

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	gateDefRegex = regexp.MustCompile(`^gate\s+([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?\s*([^{]*?)\s*\{(.*)\}$`)
	identRegex   = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

// Definition is a gate declared in the source as
// `gate name(params) args { body }`.
type Definition struct {
	Name   string
	Params []string
	Args   []string
	Body   string // statements as written, without braces

	ops []defOp
}

// defOp is one body statement. Operands are positions in Args.
type defOp struct {
	name     string
	builtin  gateDef
	controls int
	variadic bool
	call     *Definition // body calls an earlier definition
	barrier  bool
	params   []string // expressions over the definition's parameters
	args     []int
}

func (d *Definition) String() string {
	params := ""
	if len(d.Params) > 0 {
		params = "(" + strings.Join(d.Params, ", ") + ")"
	}
	return fmt.Sprintf("gate %s%s %s { %s }", d.Name, params, strings.Join(d.Args, ", "), d.Body)
}

func (c *Circuit) definition(name string) *Definition {
	for _, d := range c.Defs {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// parseDefinition compiles a gate definition. Bodies may use built-in gates,
// barriers and gates defined earlier in the source.
func (c *Circuit) parseDefinition(stmt string) error {
	m := gateDefRegex.FindStringSubmatch(stmt)
	if m == nil {
		return fmt.Errorf("%w: bad gate definition", ErrSyntax)
	}
	d := &Definition{Name: m[1], Body: strings.TrimSpace(m[4])}
	if c.definition(d.Name) != nil {
		return fmt.Errorf("%w: gate %s defined twice", ErrSyntax, d.Name)
	}

	var err error
	if d.Params, err = identList(m[2]); err != nil {
		return err
	}
	if d.Args, err = identList(m[3]); err != nil {
		return err
	}
	if len(d.Args) == 0 {
		return fmt.Errorf("%w: gate %s has no qubit arguments", ErrMalformedGate, d.Name)
	}

	for _, s := range strings.Split(d.Body, ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		op, err := c.compileOp(d, s)
		if err != nil {
			return fmt.Errorf("gate %s: %w", d.Name, err)
		}
		d.ops = append(d.ops, op)
	}
	c.Defs = append(c.Defs, d)
	return nil
}

func identList(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	names := splitArgs(s)
	for i, n := range names {
		if !identRegex.MatchString(n) {
			return nil, fmt.Errorf("%w: bad identifier %q", ErrSyntax, n)
		}
		if slices.ContainsFunc(names[:i], func(o string) bool { return strings.EqualFold(o, n) }) {
			return nil, fmt.Errorf("%w: %s declared twice", ErrSyntax, n)
		}
	}
	return names, nil
}

func (c *Circuit) compileOp(d *Definition, stmt string) (defOp, error) {
	var op defOp
	var argText string
	arity := -1

	if m := barrierRegex.FindStringSubmatch(stmt); m != nil {
		op.barrier = true
		argText = m[1]
	} else {
		m := gateRegex.FindStringSubmatch(stmt)
		if m == nil {
			return op, ErrSyntax
		}
		op.name, argText = m[1], m[3]
		if strings.TrimSpace(m[2]) != "" {
			op.params = splitArgs(m[2])
		}

		want := 0
		if call := c.definition(op.name); call != nil {
			op.call = call
			want, arity = len(call.Params), len(call.Args)
		} else {
			def, n, variadic, err := resolveGate(strings.ToLower(op.name))
			if err != nil {
				return op, err
			}
			op.builtin, op.controls, op.variadic = def, n, variadic
			want = def.params
			if !variadic {
				arity = n + def.targets
			}
		}
		if len(op.params) != want {
			return op, fmt.Errorf("%w: %s takes %d parameters, got %d", ErrMalformedGate, op.name, want, len(op.params))
		}
	}

	for _, a := range splitArgs(argText) {
		i := slices.Index(d.Args, a)
		if i < 0 {
			return op, fmt.Errorf("%w: %q is not an argument of %s", ErrRegister, a, d.Name)
		}
		op.args = append(op.args, i)
	}
	if hasDuplicate(op.args) {
		return op, fmt.Errorf("%w: repeated qubit in %s", ErrMalformedGate, stmt)
	}
	switch {
	case op.barrier:
	case op.variadic && len(op.args) <= op.builtin.targets:
		return op, fmt.Errorf("%w: %s needs at least one control", ErrMalformedGate, op.name)
	case arity >= 0 && len(op.args) != arity:
		return op, fmt.Errorf("%w: %s takes %d qubits, got %d", ErrMalformedGate, op.name, arity, len(op.args))
	}
	return op, nil
}

// expand appends the gates of d applied to qubits with the given parameter
// values.
func (d *Definition) expand(params []float64, qubits []int, out []Gate) ([]Gate, error) {
	if len(params) != len(d.Params) || len(qubits) != len(d.Args) {
		return nil, fmt.Errorf("%w: %s takes %d parameters and %d qubits, got %d and %d",
			ErrMalformedGate, d.Name, len(d.Params), len(d.Args), len(params), len(qubits))
	}
	vars := make(map[string]float64, len(params))
	for i, name := range d.Params {
		vars[strings.ToLower(name)] = params[i]
	}

	for _, op := range d.ops {
		row := make([]int, len(op.args))
		for i, a := range op.args {
			row[i] = qubits[a]
		}
		if op.barrier {
			g := NewGate(BARRIER, -1)
			g.Qubits = row
			out = append(out, g)
			continue
		}

		vals := make([]float64, len(op.params))
		for i, expr := range op.params {
			v, err := evalParam(expr, vars)
			if err != nil {
				return nil, fmt.Errorf("gate %s: %w", d.Name, err)
			}
			vals[i] = v
		}
		if op.call != nil {
			var err error
			if out, err = op.call.expand(vals, row, out); err != nil {
				return nil, err
			}
			continue
		}
		g, err := newGate(op.name, op.builtin, op.controls, op.variadic, vals, row)
		if err != nil {
			return nil, fmt.Errorf("gate %s: %w", d.Name, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Flatten replaces every COMPOUND gate with the gates of its definition,
// recursively, and drops the definitions. A classical condition on a call
// carries over to every inlined gate. On error c is left unchanged.
func (c *Circuit) Flatten() error {
	gates := make([]Gate, 0, len(c.Gates))
	for i, g := range c.Gates {
		if g.Type != COMPOUND {
			gates = append(gates, g)
			continue
		}
		if g.Def == nil {
			return fmt.Errorf("gate %d: %w: no definition", i, ErrMalformedGate)
		}
		start := len(gates)
		var err error
		if gates, err = g.Def.expand(g.Params, g.Qubits, gates); err != nil {
			return fmt.Errorf("gate %d (%s): %w", i, g.Def.Name, err)
		}
		for j := start; j < len(gates); j++ {
			if gates[j].Type != BARRIER {
				gates[j].Creg = g.Creg
				gates[j].ClassicalControl = g.ClassicalControl
				gates[j].ClassicalValue = g.ClassicalValue
			}
		}
	}
	c.Gates = gates
	c.Defs = nil
	return nil
}
