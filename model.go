package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"qcprop/circuit"
	"qcprop/constprop"
	"qcprop/qstate"
	"qcprop/uniontable"
)

// focus represents which panel has keyboard input.
type focus int

const (
	focusCircuit focus = iota
	focusState
	focusQASM
	numFocus
)

// Model is the inspector: it replays the pass over a circuit and lets the
// user step through the table gate by gate.
type Model struct {
	path    string
	circuit *circuit.Circuit // input, never rewritten
	cfg     Config
	log     *log.Logger

	steps     []*uniontable.Table // steps[i] is the table after i gates
	report    constprop.Report
	optimized *circuit.Circuit
	err       error // pass error; steps stop at the failing gate

	grid  [][]cellInfo
	cols  []int
	depth int

	cursor int // number of gates applied
	focus  focus
	width  int
	height int

	stateView viewport.Model
	qasmView  viewport.Model
	keys      keyMap
	help      help.Model
	statusMsg string
}

type savedMsg struct {
	path string
	err  error
}

type verifiedMsg struct {
	err error
}

func newModel(c *circuit.Circuit, cfg Config, logger *log.Logger) (Model, error) {
	if c.NumQubits == 0 {
		return Model{}, errors.New("circuit has no qubits")
	}
	m := Model{
		path:      cfg.Path,
		circuit:   c,
		cfg:       cfg,
		log:       logger,
		grid:      cellGrid(c),
		stateView: viewport.New(40, 20),
		qasmView:  viewport.New(40, 10),
		keys:      defaultKeyMap(),
		help:      help.New(),
	}
	m.cols, m.depth = c.Layers()
	m.propagate()
	return m, nil
}

// propagate replays the pass with the current budgets, keeping a table
// snapshot after every gate.
func (m *Model) propagate() {
	opts := append(m.cfg.options(), constprop.WithLogger(m.log))
	p := constprop.New(m.circuit.NumQubits, opts...)

	m.steps = []*uniontable.Table{p.Table().Clone()}
	m.err = nil
	opt := m.circuit.Clone()
	opt.Gates = nil
	for i, g := range m.circuit.Gates {
		out, outcome, err := p.Step(g)
		if err != nil {
			m.err = fmt.Errorf("gate %d (%v): %w", i, g, err)
			break
		}
		if outcome != constprop.Removed {
			opt.Gates = append(opt.Gates, out)
		}
		m.steps = append(m.steps, p.Table().Clone())
	}
	m.report = p.Report()
	m.optimized = opt
	m.cursor = min(m.cursor, len(m.steps)-1)
	m.log.Debug("replayed", "gates", len(m.circuit.Gates), "report", m.report.String())
	m.refresh()
}

func (m *Model) refresh() {
	m.stateView.SetContent(m.stateText())
	m.qasmView.SetContent(m.optimized.ToQASM())
}

func (m *Model) setCursor(c int) {
	c = max(0, min(c, len(m.steps)-1))
	if c != m.cursor {
		m.cursor = c
		m.stateView.SetContent(m.stateText())
	}
}

func (m Model) outputPath() string {
	return strings.TrimSuffix(m.path, ".qasm") + ".opt.qasm"
}

func writeCmd(path, qasm string) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{path: path, err: os.WriteFile(path, []byte(qasm), 0o644)}
	}
}

func verifyCmd(orig, opt *circuit.Circuit, table *uniontable.Table, maxQubits int) tea.Cmd {
	return func() tea.Msg {
		return verifiedMsg{err: verify(orig, opt, table, maxQubits)}
	}
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width - 4
		sideW := max(msg.Width/3-4, 20)
		bodyH := max(msg.Height-10, 8)
		m.stateView.Width = sideW
		m.stateView.Height = max(bodyH/2-3, 3)
		m.qasmView.Width = sideW
		m.qasmView.Height = max(bodyH-bodyH/2-3, 3)
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Save error: %v", msg.err)
		} else {
			m.statusMsg = "Saved " + msg.path
		}
		return m, nil

	case verifiedMsg:
		switch {
		case msg.err == nil:
			m.statusMsg = "Verified: optimized circuit matches the reference simulator"
		case errors.Is(msg.err, errVerifySkipped):
			m.statusMsg = "Not verified: " + msg.err.Error()
		default:
			m.statusMsg = "Verification failed: " + msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Focus):
			m.focus = (m.focus + 1) % numFocus
		case key.Matches(msg, m.keys.Prev):
			m.setCursor(m.cursor - 1)
		case key.Matches(msg, m.keys.Next):
			m.setCursor(m.cursor + 1)
		case key.Matches(msg, m.keys.Start):
			m.setCursor(0)
		case key.Matches(msg, m.keys.End):
			m.setCursor(len(m.steps) - 1)
		case key.Matches(msg, m.keys.MoreAmplitudes):
			m.cfg.MaxAmplitudes *= 2
			m.propagate()
		case key.Matches(msg, m.keys.LessAmplitudes):
			m.cfg.MaxAmplitudes = max(m.cfg.MaxAmplitudes/2, 1)
			m.propagate()
		case key.Matches(msg, m.keys.WiderGroups):
			m.cfg.MaxEntGroupSize = min(m.cfg.MaxEntGroupSize+1, qstate.MaxWidth)
			m.propagate()
		case key.Matches(msg, m.keys.NarrowerGroups):
			m.cfg.MaxEntGroupSize = max(m.cfg.MaxEntGroupSize-1, 1)
			m.propagate()
		case key.Matches(msg, m.keys.Write):
			if m.err != nil {
				m.statusMsg = "Cannot write: the pass failed"
				break
			}
			return m, writeCmd(m.outputPath(), m.optimized.ToQASM())
		case key.Matches(msg, m.keys.Verify):
			if m.err != nil {
				m.statusMsg = "Cannot verify: the pass failed"
				break
			}
			m.statusMsg = "Verifying…"
			return m, verifyCmd(m.circuit, m.optimized, m.steps[len(m.steps)-1], m.cfg.VerifyMaxQubits)
		default:
			var cmd tea.Cmd
			switch m.focus {
			case focusState:
				m.stateView, cmd = m.stateView.Update(msg)
			case focusQASM:
				m.qasmView, cmd = m.qasmView.Update(msg)
			}
			return m, cmd
		}
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sideWidth := m.width / 3
	circuitWidth := m.width - sideWidth - 4
	status := m.renderStatusPanel(m.width - 4)
	bodyHeight := max(m.height-lipgloss.Height(status)-2, 8)

	circuitPanel := m.renderCircuitPanel(circuitWidth, bodyHeight)
	statePanel := m.renderPanel("Table", focusState, m.stateView.View(), sideWidth, bodyHeight/2-2)
	qasmPanel := m.renderPanel("Optimized QASM", focusQASM, m.qasmView.View(), sideWidth, bodyHeight-bodyHeight/2-2)

	side := lipgloss.JoinVertical(lipgloss.Left, statePanel, qasmPanel)
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, circuitPanel, side)
	return lipgloss.JoinVertical(lipgloss.Left, topRow, status)
}
