package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"qcprop/circuit"
)

const ghzWithDeadCode = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[3];
cx q[0], q[1];
x q[2];
h q[0];
cx q[0], q[1];
ccx q[2], q[0], q[1];
`

const bellDefinitions = `OPENQASM 2.0;
include "qelib1.inc";
gate bell a, b { h a; cx a, b; }
gate unbell a, b {
  cx a, b;
  h a;
}
qreg q[2];
bell q[0], q[1];
unbell q[0], q[1];
cx q[0], q[1];
`

func writeQASM(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestRunHeadless(t *testing.T) {
	path := writeQASM(t, t.TempDir(), "ghz.qasm", ghzWithDeadCode)
	cfg, err := loadConfig([]string{"-headless", "-verify", path}, getenvFrom(nil), io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(cfg, quietLogger(), &out); err != nil {
		t.Fatal(err)
	}
	c, err := circuit.Parse(out.String())
	if err != nil {
		t.Fatalf("output is not valid QASM: %v\n%s", err, out.String())
	}
	// The first CX is dead and the Toffoli loses its certain control.
	if c.NumOps() != 4 {
		t.Fatalf("got %d gates, want 4:\n%s", c.NumOps(), out.String())
	}
	last := c.Gates[3]
	if last.Name() != "cx" || last.Controls[0] != 0 || last.Target != 1 {
		t.Errorf("last gate = %v, want cx q0, q1", last)
	}
}

func TestRunHeadlessOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := writeQASM(t, dir, "ghz.qasm", ghzWithDeadCode)
	outPath := filepath.Join(dir, "out.qasm")
	cfg, err := loadConfig([]string{"-headless", "-o", outPath, path}, getenvFrom(nil), io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	if err := run(cfg, quietLogger(), &stdout); err != nil {
		t.Fatal(err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should be empty when -o is set, got %q", stdout.String())
	}
	if _, err := circuit.ReadFile(outPath); err != nil {
		t.Errorf("written file: %v", err)
	}
}

func TestRunHeadlessDefinitions(t *testing.T) {
	path := writeQASM(t, t.TempDir(), "bell.qasm", bellDefinitions)
	cfg, err := loadConfig([]string{"-headless", "-verify", path}, getenvFrom(nil), io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(cfg, quietLogger(), &out); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "gate ") {
		t.Errorf("definitions should be inlined:\n%s", out.String())
	}
	c, err := circuit.Parse(out.String())
	if err != nil {
		t.Fatal(err)
	}
	// The trailing CX sees q0 back in |0⟩.
	if c.NumOps() != 4 {
		t.Errorf("got %d gates, want 4:\n%s", c.NumOps(), out.String())
	}
}

func TestRunHeadlessErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeQASM(t, dir, "bad.qasm", "qreg q[1];\nfoo q[0];\n")
	cfg := Config{Path: bad, Headless: true, MaxAmplitudes: 4, MaxEntGroupSize: 2}
	err := run(cfg, quietLogger(), io.Discard)
	if !errors.Is(err, circuit.ErrUnsupportedGate) {
		t.Errorf("error = %v, want unsupported gate", err)
	}
	var perr *circuit.ParseError
	if !errors.As(err, &perr) || perr.Line != 2 {
		t.Errorf("error = %v, want a parse error on line 2", err)
	}

	cfg.Path = filepath.Join(dir, "missing.qasm")
	if err := run(cfg, quietLogger(), io.Discard); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want not exist", err)
	}
}

func TestVerifySkips(t *testing.T) {
	measured, err := circuit.Parse("qreg q[1]; creg c[1]; h q[0]; measure q[0] -> c[0];")
	if err != nil {
		t.Fatal(err)
	}
	if err := verify(measured, measured, nil, 14); !errors.Is(err, errVerifySkipped) {
		t.Errorf("non-unitary circuit: %v, want skipped", err)
	}

	wide := circuit.New(20)
	if err := verify(wide, wide, nil, 14); !errors.Is(err, errVerifySkipped) {
		t.Errorf("wide circuit: %v, want skipped", err)
	}

	a, _ := circuit.Parse("qreg q[1]; x q[0];")
	b, _ := circuit.Parse("qreg q[1]; z q[0];")
	if err := verify(a, b, nil, 14); !errors.Is(err, errNotEquivalent) {
		t.Errorf("different circuits: %v, want not equivalent", err)
	}
}

func TestRunBench(t *testing.T) {
	dir := t.TempDir()
	writeQASM(t, dir, "a/ghz.qasm", ghzWithDeadCode)
	writeQASM(t, dir, "b/plus.qasm", "qreg q[2]; h q[0]; h q[1]; cx q[0], q[1];")
	writeQASM(t, dir, "b/broken.qasm", "qreg q[1]; opaque foo a; foo q[0];")
	writeQASM(t, dir, "c/bell.qasm", bellDefinitions)
	writeQASM(t, dir, "notes.txt", "not a circuit")

	cfg := Config{Bench: dir, MaxAmplitudes: 2, MaxEntGroupSize: 5}
	var out bytes.Buffer
	if err := run(cfg, quietLogger(), &out); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header and three files:\n%v", len(rows), rows)
	}
	if strings.Join(rows[0], ",") != "file,maxAmplitudes,parseMicros,nQubits,nOpsStart,flattenMicros,nOpsAfterInline,propagateMicros,nOpsAfter,wasTop" {
		t.Errorf("header = %v", rows[0])
	}

	ghz := rows[1]
	if !strings.HasSuffix(ghz[0], "ghz.qasm") || ghz[1] != "2" || ghz[3] != "3" || ghz[4] != "5" || ghz[6] != "5" || ghz[8] != "4" {
		t.Errorf("ghz row = %v", ghz)
	}
	// |++⟩ needs four amplitudes once merged, over the budget of two.
	plus := rows[2]
	if !strings.HasSuffix(plus[0], "plus.qasm") || plus[9] != "2" {
		t.Errorf("plus row = %v", plus)
	}
	// Two calls and a CX inline to five gates; the last CX is dead.
	bell := rows[3]
	if !strings.HasSuffix(bell[0], "bell.qasm") || bell[4] != "3" || bell[6] != "5" || bell[8] != "4" || bell[9] != "0" {
		t.Errorf("bell row = %v", bell)
	}
}
