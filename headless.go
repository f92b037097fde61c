package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"qcprop/circuit"
	"qcprop/constprop"
	"qcprop/qstate"
	"qcprop/statevector"
	"qcprop/uniontable"
)

const verifyEpsilon = 1e-6

var (
	errNotEquivalent = errors.New("optimized circuit is not equivalent to the input")
	errUnsound       = errors.New("tracked state disagrees with the reference simulator")
	errVerifySkipped = errors.New("verification skipped")
)

func runHeadless(cfg Config, logger *log.Logger, stdout io.Writer) error {
	c, err := circuit.ReadFile(cfg.Path)
	if err != nil {
		return err
	}
	orig := c.Clone()

	p := constprop.New(c.NumQubits, append(cfg.options(), constprop.WithLogger(logger))...)
	if err := p.Run(c); err != nil {
		return err
	}
	report := p.Report()
	logger.Info("optimized", "file", cfg.Path, "before", orig.NumOps(), "after", c.NumOps(),
		"removed", report.Removed, "unconditional", report.Unconditional, "reduced", report.Reduced,
		"degraded", report.Degraded)

	if cfg.Output != "" {
		if err := os.WriteFile(cfg.Output, []byte(c.ToQASM()), 0o644); err != nil {
			return err
		}
		logger.Info("written", "file", cfg.Output)
	} else if _, err := io.WriteString(stdout, c.ToQASM()); err != nil {
		return err
	}

	if !cfg.Verify {
		return nil
	}
	err = verify(orig, c, p.Table(), cfg.VerifyMaxQubits)
	if errors.Is(err, errVerifySkipped) {
		logger.Warn("not verified", "reason", err)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("verified", "qubits", c.NumQubits)
	return nil
}

// verify simulates both circuits densely. It also checks that every tracked
// group of table is a factor of the simulated state.
func verify(orig, opt *circuit.Circuit, table *uniontable.Table, maxQubits int) error {
	if orig.NumQubits > maxQubits {
		return fmt.Errorf("%w: %d qubits exceeds %d", errVerifySkipped, orig.NumQubits, maxQubits)
	}
	sv, err := statevector.Simulate(orig)
	if errors.Is(err, statevector.ErrNonUnitary) {
		return fmt.Errorf("%w: %v", errVerifySkipped, err)
	}
	if err != nil {
		return err
	}
	ok, err := statevector.Equivalent(orig, opt, verifyEpsilon)
	if err != nil {
		return err
	}
	if !ok {
		return errNotEquivalent
	}

	if table == nil {
		return nil
	}
	for _, g := range table.Groups() {
		amp := func(k uint64) complex128 { return complex128(g.State.Get(qstate.BasisKey(k))) }
		if !sv.HasFactor(g.Qubits, amp, verifyEpsilon) {
			return fmt.Errorf("%w: qubits %v", errUnsound, g.Qubits)
		}
	}
	return nil
}
