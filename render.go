package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"qcprop/circuit"
	"qcprop/constprop"
	"qcprop/statevector"
	"qcprop/uniontable"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given display width, truncating
// labels that do not fit.
func padCenter(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	total := width - runewidth.StringWidth(s)
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// wireSymbol returns the symbol drawn on a wire for a multi-qubit gate, or
// "" when the gate is drawn as a box.
func wireSymbol(g *circuit.Gate, isControl bool) string {
	switch {
	case isControl:
		return "●"
	case g.Type == circuit.SWAP:
		return "×"
	case len(g.Controls) > 0 && g.Type == circuit.X && !g.IsDagger:
		return "⊕"
	case len(g.Controls) > 0 && g.Type == circuit.Z:
		return "●"
	}
	return ""
}

func outcomeStyle(o constprop.Outcome) lipgloss.Style {
	switch o {
	case constprop.Removed:
		return removedStyle
	case constprop.Unconditional:
		return unconditionalStyle
	case constprop.Reduced:
		return reducedStyle
	}
	return gateStyle
}

// ──────────────────────────── Cell rendering ────────────────────────────

type cellInfo struct {
	gate        *circuit.Gate
	index       int
	isControl   bool
	isTarget    bool
	isBarrier   bool
	passThrough bool
	vertAbove   bool
	vertBelow   bool
}

// cellGrid lays the circuit out as [column][qubit] using the circuit's
// layering.
func cellGrid(c *circuit.Circuit) [][]cellInfo {
	cols, depth := c.Layers()
	grid := make([][]cellInfo, depth)
	for i := range grid {
		grid[i] = make([]cellInfo, c.NumQubits)
	}

	for i := range c.Gates {
		g := &c.Gates[i]
		col := grid[cols[i]]
		if g.Type == circuit.BARRIER {
			for _, q := range g.Qubits {
				if q >= 0 && q < c.NumQubits {
					col[q] = cellInfo{gate: g, index: i, isBarrier: true}
				}
			}
			continue
		}
		lo, hi := g.Span()
		for q := max(lo, 0); q <= hi && q < c.NumQubits; q++ {
			info := cellInfo{gate: g, index: i, vertAbove: q > lo, vertBelow: q < hi}
			switch {
			case slices.Contains(g.Controls, q):
				info.isControl = true
			case q == g.Target || (g.Type == circuit.SWAP && q == g.Target2):
				info.isTarget = true
			default:
				info.passThrough = true
			}
			col[q] = info
		}
	}
	return grid
}

// renderCell returns 3 lines (top, mid, bot) for a single cell.
// Each line is exactly cellW visual characters wide.
func renderCell(info cellInfo, style lipgloss.Style, highlight bool) (top, mid, bot string) {
	emptyRow := strings.Repeat(" ", cellW)
	halfW := cellW / 2
	vertRow := strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cellW-halfW-1)
	dashL := (cellW - 1) / 2
	dashR := cellW - dashL - 1

	// ── Highlighted cell (the gate just applied) ──
	if highlight && info.gate != nil && !info.isBarrier && !info.passThrough {
		innerW := cellW - 2
		l := (innerW - 1) / 2
		r := innerW - l - 1
		top = cursorBoxStyle.Render("╔" + strings.Repeat("═", innerW) + "╗")
		bot = cursorBoxStyle.Render("╚" + strings.Repeat("═", innerW) + "╝")
		if sym := wireSymbol(info.gate, info.isControl); sym != "" && (info.isControl || info.vertAbove || info.vertBelow) {
			mid = cursorBoxStyle.Render("║") + strings.Repeat("─", l) + style.Render(sym) + strings.Repeat("─", r) + cursorBoxStyle.Render("║")
		} else {
			name := padCenter(info.gate.Label(), gateNameW)
			mid = cursorBoxStyle.Render("║") + "─┤" + style.Render(name) + "├─" + cursorBoxStyle.Render("║")
		}
		return
	}

	switch {
	case info.isBarrier:
		top = vertRow
		mid = strings.Repeat("─", dashL) + dimStyle.Render("│") + strings.Repeat("─", dashR)
		bot = vertRow

	case info.gate == nil:
		top = emptyRow
		mid = strings.Repeat("─", cellW)
		bot = emptyRow

	case info.passThrough:
		top = vertRow
		mid = strings.Repeat("─", dashL) + "┼" + strings.Repeat("─", dashR)
		bot = vertRow

	default:
		sym := wireSymbol(info.gate, info.isControl)
		multi := info.vertAbove || info.vertBelow
		if sym != "" && (info.isControl || multi) {
			top = emptyRow
			if info.vertAbove {
				top = vertRow
			}
			mid = strings.Repeat("─", dashL) + style.Render(sym) + strings.Repeat("─", dashR)
			bot = emptyRow
			if info.vertBelow {
				bot = vertRow
			}
			return
		}

		margin := (cellW - gateBoxW) / 2
		rightMargin := cellW - margin - gateBoxW
		name := padCenter(info.gate.Label(), gateNameW)
		top = strings.Repeat(" ", margin) + style.Render("┌"+strings.Repeat("─", gateNameW)+"┐") + strings.Repeat(" ", rightMargin)
		mid = strings.Repeat("─", margin) + style.Render("┤"+name+"├") + strings.Repeat("─", rightMargin)
		bot = strings.Repeat(" ", margin) + style.Render("└"+strings.Repeat("─", gateNameW)+"┘") + strings.Repeat(" ", rightMargin)
		if info.vertAbove {
			top = strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cellW-halfW-1)
		}
		if info.vertBelow {
			bot = strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cellW-halfW-1)
		}
	}
	return
}

// ──────────────────────────── Panel rendering ────────────────────────────

// visibleColumns returns the first column to draw and how many fit so that
// the column of the current gate stays on screen.
func (m Model) visibleColumns(width int) (start, n int) {
	n = max((width-labelVisualW-4)/cellW, 1)
	current := 0
	if m.cursor > 0 {
		current = m.cols[m.cursor-1]
	}
	if current >= n {
		start = current - n + 1
	}
	return start, min(n, max(m.depth-start, 0))
}

// gateStyleFor styles a gate by what the pass did with it. Gates past the
// cursor are not applied yet.
func (m Model) gateStyleFor(index int) lipgloss.Style {
	if index >= m.cursor || index >= len(m.report.Outcomes) {
		return dimStyle
	}
	return outcomeStyle(m.report.Outcomes[index])
}

// renderCircuitPanel renders the circuit grid panel.
func (m Model) renderCircuitPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Circuit " + m.path))
	sb.WriteString("\n\n")

	start, n := m.visibleColumns(width)
	if start > 0 {
		fmt.Fprintf(&sb, "  ◀ showing columns %d–%d\n", start, start+n-1)
	}

	header := strings.Repeat(" ", labelVisualW)
	for col := start; col < start+n; col++ {
		header += dimStyle.Render(padCenter(fmt.Sprintf("%d", col), cellW))
	}
	sb.WriteString(header + "\n")

	table := m.steps[min(m.cursor, len(m.steps)-1)]
	for qubit := range m.circuit.NumQubits {
		topLine := strings.Repeat(" ", labelVisualW)
		label := qubitLabelStyle.Render(runewidth.FillRight(fmt.Sprintf("q%d", qubit), 5))
		if table.IsTop(qubit) {
			label = topStyle.Render(runewidth.FillRight(fmt.Sprintf("q%d⊤", qubit), 5))
		}
		midLine := label + "──"
		botLine := strings.Repeat(" ", labelVisualW)

		for col := start; col < start+n; col++ {
			info := m.grid[col][qubit]
			style := gateStyle
			highlight := false
			if info.gate != nil {
				style = m.gateStyleFor(info.index)
				highlight = info.index == m.cursor-1
			}
			top, mid, bot := renderCell(info, style, highlight)
			topLine += top
			midLine += mid
			botLine += bot
		}

		sb.WriteString(topLine + "\n")
		sb.WriteString(midLine + "\n")
		sb.WriteString(botLine + "\n")
	}

	fmt.Fprintf(&sb, "\n  Gate %d/%d", m.cursor, len(m.circuit.Gates))
	if m.cursor > 0 && m.cursor <= len(m.report.Outcomes) {
		o := m.report.Outcomes[m.cursor-1]
		fmt.Fprintf(&sb, "  │  %s → %s", m.circuit.Gates[m.cursor-1], outcomeStyle(o).Render(o.String()))
	}
	if m.err != nil {
		fmt.Fprintf(&sb, "\n  %s", errorStyle.Render(m.err.Error()))
	}

	return circuitStyle.Width(width).Height(height).Render(sb.String())
}

// stateText describes the table after the current gate.
func (m Model) stateText() string {
	t := m.steps[min(m.cursor, len(m.steps)-1)]
	ref := m.referenceMarginals()
	var sb strings.Builder
	for q := range t.Size() {
		sb.WriteString(qubitSummary(t, q, ref))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	sb.WriteString(t.String())
	return sb.String()
}

// referenceMarginals simulates the input up to the cursor and returns P(1)
// for every qubit. It is nil when the circuit is wider than the verify limit
// or the prefix is not unitary.
func (m Model) referenceMarginals() []float64 {
	if m.circuit.NumQubits > m.cfg.VerifyMaxQubits {
		return nil
	}
	prefix := &circuit.Circuit{
		NumQubits: m.circuit.NumQubits,
		Gates:     m.circuit.Gates[:min(m.cursor, len(m.circuit.Gates))],
	}
	sv, err := statevector.Simulate(prefix)
	if err != nil {
		return nil
	}
	return sv.Marginals()
}

// qubitSummary describes q in t. Unknown qubits show the simulated P(1)
// from ref when there is one.
func qubitSummary(t *uniontable.Table, q int, ref []float64) string {
	switch {
	case t.IsTop(q) && q < len(ref):
		return fmt.Sprintf("q%-3d %s  sim P(1)=%.4f", q, topStyle.Render("unknown"), ref[q])
	case t.IsTop(q):
		return fmt.Sprintf("q%-3d %s", q, topStyle.Render("unknown"))
	case t.IsAlwaysZero(q):
		return fmt.Sprintf("q%-3d |0⟩", q)
	case t.IsAlwaysOne(q):
		return fmt.Sprintf("q%-3d |1⟩", q)
	}
	s := t.Slot(q).State()
	return fmt.Sprintf("q%-3d P(1)=%.4f  group of %d", q, s.ProbOne(t.IndexInState(q)), s.Width())
}

func (m Model) renderPanel(title string, f focus, body string, width, height int) string {
	if m.focus == f {
		title += " [ACTIVE]"
	}
	return stateStyle.Width(width).Height(height).Render(titleStyle.Render(title) + "\n" + body)
}

// renderStatusPanel renders the bottom bar: budgets, pass summary and help.
func (m Model) renderStatusPanel(width int) string {
	var sb strings.Builder
	sb.WriteString(activeGateStyle.Render("Budgets: "))
	fmt.Fprintf(&sb, "%d amplitudes, %d qubits per group", m.cfg.MaxAmplitudes, m.cfg.MaxEntGroupSize)
	sb.WriteString("    ")
	sb.WriteString(activeGateStyle.Render("Pass: "))
	sb.WriteString(m.report.String())
	if m.statusMsg != "" {
		fmt.Fprintf(&sb, "\n%s", activeGateStyle.Render(m.statusMsg))
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return controlsStyle.Width(width).Render(sb.String())
}
