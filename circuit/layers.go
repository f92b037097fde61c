package circuit

// Span returns the lowest and highest qubit the gate touches.
func (g Gate) Span() (lo, hi int) {
	ops := g.Operands()
	if len(ops) == 0 {
		return -1, -1
	}
	lo, hi = ops[0], ops[0]
	for _, q := range ops[1:] {
		lo, hi = min(lo, q), max(hi, q)
	}
	return lo, hi
}

// Layers assigns every gate to the earliest column after all earlier gates
// that share a wire with it. A gate occupies every wire between its lowest
// and highest qubit, so gates in one column never overlap when drawn.
// Measurements and classically conditioned gates also share the classical
// wire, which keeps them in program order. It returns the column of each
// gate and the number of columns.
func (c *Circuit) Layers() (cols []int, depth int) {
	next := make([]int, c.NumQubits)
	classical := 0
	cols = make([]int, len(c.Gates))

	for i, g := range c.Gates {
		lo, hi := g.Span()
		col := 0
		if lo >= 0 {
			for q := lo; q <= hi && q < len(next); q++ {
				col = max(col, next[q])
			}
		}
		usesClassical := g.Type == MEASURE || g.Conditioned()
		if usesClassical {
			col = max(col, classical)
		}

		cols[i] = col
		if lo >= 0 {
			for q := lo; q <= hi && q < len(next); q++ {
				next[q] = col + 1
			}
		}
		if usesClassical {
			classical = col + 1
		}
		depth = max(depth, col+1)
	}
	return cols, depth
}
