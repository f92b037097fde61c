package main

import (
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"qcprop/circuit"
	"qcprop/constprop"
)

var benchHeader = []string{
	"file", "maxAmplitudes", "parseMicros", "nQubits", "nOpsStart",
	"flattenMicros", "nOpsAfterInline", "propagateMicros", "nOpsAfter", "wasTop",
}

// runBench propagates every .qasm file under cfg.Bench, one CSV row per
// file. Files that fail to parse or propagate are logged and skipped.
func runBench(cfg Config, logger *log.Logger, stdout io.Writer) error {
	w := csv.NewWriter(stdout)
	if err := w.Write(benchHeader); err != nil {
		return err
	}

	err := filepath.WalkDir(cfg.Bench, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".qasm") {
			return nil
		}
		row, err := benchFile(path, cfg)
		if err != nil {
			logger.Warn("skipped", "file", path, "err", err)
			return nil
		}
		return w.Write(row)
	})
	if err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func benchFile(path string, cfg Config) ([]string, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := circuit.ParseCompound(string(data))
	if err != nil {
		return nil, err
	}
	parse := time.Since(start)
	nOpsStart := c.NumOps()

	start = time.Now()
	if err := c.Flatten(); err != nil {
		return nil, err
	}
	flatten := time.Since(start)
	nOpsInlined := c.NumOps()

	start = time.Now()
	table, err := constprop.Propagate(c, cfg.options()...)
	if err != nil {
		return nil, err
	}
	propagate := time.Since(start)

	wasTop := 0
	for q := range table.Size() {
		if table.IsTop(q) {
			wasTop++
		}
	}

	return []string{
		path,
		strconv.Itoa(cfg.MaxAmplitudes),
		strconv.FormatInt(parse.Microseconds(), 10),
		strconv.Itoa(c.NumQubits),
		strconv.Itoa(nOpsStart),
		strconv.FormatInt(flatten.Microseconds(), 10),
		strconv.Itoa(nOpsInlined),
		strconv.FormatInt(propagate.Microseconds(), 10),
		strconv.Itoa(c.NumOps()),
		strconv.Itoa(wasTop),
	}, nil
}
