package circuit

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Pre-compiled regexps for QASM parsing.
var (
	regDeclRegex = regexp.MustCompile(`^(qreg|creg)\s+([A-Za-z_]\w*)\s*\[\s*(\d+)\s*\]$`)
	ifRegex      = regexp.MustCompile(`^if\s*\(\s*([A-Za-z_]\w*)\s*(?:\[\s*(\d+)\s*\])?\s*==\s*(\d+)\s*\)\s*(.+)$`)
	measureRegex = regexp.MustCompile(`^measure\s+(.+?)\s*->\s*(.+)$`)
	resetRegex   = regexp.MustCompile(`^reset\s+(.+)$`)
	barrierRegex = regexp.MustCompile(`^barrier\s+(.+)$`)
	gateRegex    = regexp.MustCompile(`^([A-Za-z_]\w*)(?:\s*\((.*)\))?\s+(.+)$`)
	operandRegex = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?:\[\s*(\d+)\s*\])?$`)
)

type gateDef struct {
	typ     string
	params  int
	dagger  bool
	targets int
}

var gateDefs = map[string]gateDef{
	"id":   {typ: I, targets: 1},
	"x":    {typ: X, targets: 1},
	"y":    {typ: Y, targets: 1},
	"z":    {typ: Z, targets: 1},
	"h":    {typ: H, targets: 1},
	"s":    {typ: S, targets: 1},
	"sdg":  {typ: S, dagger: true, targets: 1},
	"t":    {typ: T, targets: 1},
	"tdg":  {typ: T, dagger: true, targets: 1},
	"sx":   {typ: SX, targets: 1},
	"sxdg": {typ: SX, dagger: true, targets: 1},
	"rx":   {typ: RX, params: 1, targets: 1},
	"ry":   {typ: RY, params: 1, targets: 1},
	"rz":   {typ: RZ, params: 1, targets: 1},
	"p":    {typ: P, params: 1, targets: 1},
	"u1":   {typ: P, params: 1, targets: 1},
	"u2":   {typ: U2, params: 2, targets: 1},
	"u3":   {typ: U3, params: 3, targets: 1},
	"u":    {typ: U3, params: 3, targets: 1},
	"swap": {typ: SWAP, targets: 2},
}

var gateAliases = map[string]string{
	"cnot":    "cx",
	"toffoli": "ccx",
	"fredkin": "cswap",
}

// resolveGate maps a QASM gate name to its base definition and control
// count. Names are a base gate with leading c's ("ccx"), a count ("c3x") or
// the mc prefix ("mcx"), which takes every operand but the targets as a
// control.
func resolveGate(name string) (def gateDef, controls int, variadic bool, err error) {
	if alias, ok := gateAliases[name]; ok {
		name = alias
	}
	if d, ok := gateDefs[name]; ok {
		return d, 0, false, nil
	}
	if rest, ok := strings.CutPrefix(name, "mc"); ok {
		if d, ok := gateDefs[rest]; ok {
			return d, 0, true, nil
		}
	}

	rest, n := name, 0
	for strings.HasPrefix(rest, "c") {
		rest = rest[1:]
		n++
	}
	if n == 1 {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i > 0 {
			n, _ = strconv.Atoi(rest[:i])
			rest = rest[i:]
		}
	}
	if d, ok := gateDefs[rest]; ok && n > 0 {
		return d, n, false, nil
	}
	return gateDef{}, 0, false, fmt.Errorf("%w: %s", ErrUnsupportedGate, name)
}

// ParseQASM parses QASM text and rebuilds the circuit from it. Quantum
// registers are flattened into one index space in declaration order, as are
// classical registers. Gate definitions are kept in Defs and their calls are
// COMPOUND gates.
func (c *Circuit) ParseQASM(qasm string) error {
	c.NumQubits = 0
	c.Qregs = nil
	c.Cregs = nil
	c.Gates = nil
	c.Defs = nil

	for _, st := range statements(qasm) {
		if err := c.parseStatement(st.text); err != nil {
			return &ParseError{Line: st.line, Text: st.text, Err: err}
		}
	}
	return nil
}

type statement struct {
	line int // where the statement starts
	text string
}

// statements splits source into statements with // comments removed and
// whitespace collapsed. A gate definition is one statement ending at its
// closing brace.
func statements(src string) []statement {
	var out []statement
	var sb strings.Builder
	start, depth := 0, 0
	flush := func() {
		if text := strings.Join(strings.Fields(sb.String()), " "); text != "" {
			out = append(out, statement{line: start, text: text})
		}
		sb.Reset()
		start = 0
	}

	for i, line := range strings.Split(src, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		for _, r := range line {
			if start == 0 && !unicode.IsSpace(r) {
				start = i + 1
			}
			switch r {
			case ';':
				if depth == 0 {
					flush()
					continue
				}
			case '{':
				depth++
			case '}':
				sb.WriteRune(r)
				depth = max(depth-1, 0)
				if depth == 0 {
					flush()
				}
				continue
			}
			sb.WriteRune(r)
		}
		sb.WriteByte(' ')
	}
	flush()
	return out
}

func (c *Circuit) parseStatement(stmt string) error {
	switch {
	case strings.HasPrefix(stmt, "OPENQASM"), strings.HasPrefix(stmt, "include"):
		return nil
	case strings.HasPrefix(stmt, "gate "):
		return c.parseDefinition(stmt)
	case strings.HasPrefix(stmt, "opaque "):
		return fmt.Errorf("%w: opaque gate declarations", ErrUnsupportedGate)
	}

	if m := regDeclRegex.FindStringSubmatch(stmt); m != nil {
		size, _ := strconv.Atoi(m[3])
		if m[1] == "qreg" {
			if _, ok := lookup(c.Qregs, m[2]); ok {
				return fmt.Errorf("%w: qreg %s declared twice", ErrSyntax, m[2])
			}
			c.Qregs = append(c.Qregs, Register{Name: m[2], Size: size, Offset: c.NumQubits})
			c.NumQubits += size
		} else {
			if _, ok := lookup(c.Cregs, m[2]); ok {
				return fmt.Errorf("%w: creg %s declared twice", ErrSyntax, m[2])
			}
			offset := 0
			if n := len(c.Cregs); n > 0 {
				offset = c.Cregs[n-1].Offset + c.Cregs[n-1].Size
			}
			c.Cregs = append(c.Cregs, Register{Name: m[2], Size: size, Offset: offset})
		}
		return nil
	}

	if m := ifRegex.FindStringSubmatch(stmt); m != nil {
		creg, ok := lookup(c.Cregs, m[1])
		if !ok {
			return fmt.Errorf("%w: %s", ErrRegister, m[1])
		}
		bit := -1
		if m[2] != "" {
			bit, _ = strconv.Atoi(m[2])
			if bit >= creg.Size {
				return fmt.Errorf("%w: %s[%d]", ErrRegister, m[1], bit)
			}
		}
		value, _ := strconv.Atoi(m[3])
		gates, err := c.parseOp(m[4])
		if err != nil {
			return err
		}
		for i := range gates {
			gates[i].Creg = creg.Name
			gates[i].ClassicalControl = bit
			gates[i].ClassicalValue = value
		}
		c.Gates = append(c.Gates, gates...)
		return nil
	}

	gates, err := c.parseOp(stmt)
	if err != nil {
		return err
	}
	c.Gates = append(c.Gates, gates...)
	return nil
}

func (c *Circuit) parseOp(stmt string) ([]Gate, error) {
	if m := measureRegex.FindStringSubmatch(stmt); m != nil {
		rows, err := c.broadcast([]string{m[1]}, []string{m[2]})
		if err != nil {
			return nil, err
		}
		gates := make([]Gate, len(rows))
		for i, row := range rows {
			gates[i] = NewGate(MEASURE, row[0])
			gates[i].Cbit = row[1]
		}
		return gates, nil
	}

	if m := resetRegex.FindStringSubmatch(stmt); m != nil {
		rows, err := c.broadcast(splitArgs(m[1]), nil)
		if err != nil {
			return nil, err
		}
		gates := make([]Gate, len(rows))
		for i, row := range rows {
			if len(row) != 1 {
				return nil, fmt.Errorf("%w: reset takes one operand", ErrMalformedGate)
			}
			gates[i] = NewGate(RESET, row[0])
		}
		return gates, nil
	}

	if m := barrierRegex.FindStringSubmatch(stmt); m != nil {
		var qubits []int
		for _, arg := range splitArgs(m[1]) {
			qs, err := c.operand(c.Qregs, arg)
			if err != nil {
				return nil, err
			}
			qubits = append(qubits, qs...)
		}
		g := NewGate(BARRIER, -1)
		g.Qubits = qubits
		return []Gate{g}, nil
	}

	m := gateRegex.FindStringSubmatch(stmt)
	if m == nil {
		return nil, ErrSyntax
	}

	var params []float64
	if strings.TrimSpace(m[2]) != "" {
		for _, expr := range splitArgs(m[2]) {
			v, err := ParseParam(expr)
			if err != nil {
				return nil, err
			}
			params = append(params, v)
		}
	}
	rows, err := c.broadcast(splitArgs(m[3]), nil)
	if err != nil {
		return nil, err
	}

	if d := c.definition(m[1]); d != nil {
		return compoundGates(d, params, rows)
	}

	def, nControls, variadic, err := resolveGate(strings.ToLower(m[1]))
	if err != nil {
		return nil, err
	}
	if len(params) != def.params {
		return nil, fmt.Errorf("%w: %s takes %d parameters, got %d", ErrMalformedGate, m[1], def.params, len(params))
	}
	gates := make([]Gate, 0, len(rows))
	for _, row := range rows {
		g, err := newGate(m[1], def, nControls, variadic, params, row)
		if err != nil {
			return nil, err
		}
		gates = append(gates, g)
	}
	return gates, nil
}

func compoundGates(d *Definition, params []float64, rows [][]int) ([]Gate, error) {
	if len(params) != len(d.Params) {
		return nil, fmt.Errorf("%w: %s takes %d parameters, got %d", ErrMalformedGate, d.Name, len(d.Params), len(params))
	}
	gates := make([]Gate, 0, len(rows))
	for _, row := range rows {
		if len(row) != len(d.Args) {
			return nil, fmt.Errorf("%w: %s takes %d qubits, got %d", ErrMalformedGate, d.Name, len(d.Args), len(row))
		}
		if hasDuplicate(row) {
			return nil, fmt.Errorf("%w: repeated qubit in %s", ErrMalformedGate, d.Name)
		}
		g := NewGate(COMPOUND, -1)
		g.Def = d
		g.Qubits = row
		g.Params = slices.Clone(params)
		gates = append(gates, g)
	}
	return gates, nil
}

// newGate builds the gate the built-in QASM name applies to one operand row.
func newGate(name string, def gateDef, nControls int, variadic bool, params []float64, row []int) (Gate, error) {
	n := nControls
	if variadic {
		n = len(row) - def.targets
		if n < 1 {
			return Gate{}, fmt.Errorf("%w: %s needs at least one control", ErrMalformedGate, name)
		}
	}
	if len(row) != n+def.targets {
		return Gate{}, fmt.Errorf("%w: %s takes %d qubits, got %d", ErrMalformedGate, name, n+def.targets, len(row))
	}
	if hasDuplicate(row) {
		return Gate{}, fmt.Errorf("%w: repeated qubit in %s", ErrMalformedGate, name)
	}
	g := NewGate(def.typ, row[n], slices.Clone(row[:n])...)
	if len(g.Controls) == 0 {
		g.Controls = nil
	}
	if def.targets == 2 {
		g.Target2 = row[n+1]
	}
	g.Params = slices.Clone(params)
	g.IsDagger = def.dagger
	return g, nil
}

// broadcast resolves quantum operands qargs and classical operands cargs
// into rows of flattened indices. A whole-register operand expands to one
// row per bit; every such register must have the same size.
func (c *Circuit) broadcast(qargs, cargs []string) ([][]int, error) {
	var cols [][]int
	for _, a := range qargs {
		idx, err := c.operand(c.Qregs, a)
		if err != nil {
			return nil, err
		}
		cols = append(cols, idx)
	}
	for _, a := range cargs {
		idx, err := c.operand(c.Cregs, a)
		if err != nil {
			return nil, err
		}
		cols = append(cols, idx)
	}

	n := 1
	for _, col := range cols {
		if len(col) != 1 {
			if n != 1 && n != len(col) {
				return nil, fmt.Errorf("%w: register sizes differ", ErrMalformedGate)
			}
			n = len(col)
		}
	}
	rows := make([][]int, n)
	for i := range rows {
		rows[i] = make([]int, len(cols))
		for j, col := range cols {
			if len(col) == 1 {
				rows[i][j] = col[0]
			} else {
				rows[i][j] = col[i]
			}
		}
	}
	return rows, nil
}

func (c *Circuit) operand(regs []Register, arg string) ([]int, error) {
	m := operandRegex.FindStringSubmatch(strings.TrimSpace(arg))
	if m == nil {
		return nil, fmt.Errorf("%w: bad operand %q", ErrSyntax, arg)
	}
	r, ok := lookup(regs, m[1])
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegister, m[1])
	}
	if m[2] == "" {
		out := make([]int, r.Size)
		for i := range out {
			out[i] = r.Offset + i
		}
		return out, nil
	}
	i, _ := strconv.Atoi(m[2])
	if i >= r.Size {
		return nil, fmt.Errorf("%w: %s[%d]", ErrRegister, m[1], i)
	}
	return []int{r.Offset + i}, nil
}

// splitArgs splits on commas outside parentheses.
func splitArgs(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

func hasDuplicate(qs []int) bool {
	for i, q := range qs {
		if slices.Contains(qs[i+1:], q) {
			return true
		}
	}
	return false
}

// ToQASM generates QASM 2.0 output from the circuit, definitions first.
// Gates with more controls than qelib1.inc covers are written under the
// names this package parses (ccrz, ccp, mcx, ...), which other tools may not
// know.
func (c *Circuit) ToQASM() string {
	qregs, cregs := c.qregs(), c.cregs()

	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	for _, d := range c.Defs {
		sb.WriteString(d.String())
		sb.WriteString("\n")
	}
	for _, r := range qregs {
		fmt.Fprintf(&sb, "qreg %s[%d];\n", r.Name, r.Size)
	}
	for _, r := range cregs {
		fmt.Fprintf(&sb, "creg %s[%d];\n", r.Name, r.Size)
	}
	sb.WriteString("\n")

	for _, g := range c.Gates {
		if g.Conditioned() {
			sb.WriteString(g.conditionString())
			sb.WriteByte(' ')
		}
		switch g.Type {
		case BARRIER:
			refs := make([]string, len(g.Qubits))
			for i, q := range g.Qubits {
				refs[i] = ref(qregs, q)
			}
			fmt.Fprintf(&sb, "barrier %s;\n", strings.Join(refs, ", "))
		case MEASURE:
			fmt.Fprintf(&sb, "measure %s -> %s;\n", ref(qregs, g.Target), ref(cregs, g.Cbit))
		case RESET:
			fmt.Fprintf(&sb, "reset %s;\n", ref(qregs, g.Target))
		default:
			sb.WriteString(g.Name())
			if len(g.Params) > 0 {
				ps := make([]string, len(g.Params))
				for i, p := range g.Params {
					ps[i] = FormatParam(p)
				}
				fmt.Fprintf(&sb, "(%s)", strings.Join(ps, ", "))
			}
			ops := g.Operands()
			refs := make([]string, len(ops))
			for i, q := range ops {
				refs[i] = ref(qregs, q)
			}
			fmt.Fprintf(&sb, " %s;\n", strings.Join(refs, ", "))
		}
	}

	return sb.String()
}
