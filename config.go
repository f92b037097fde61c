package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"qcprop/constprop"
)

// Config holds everything a run needs. Environment variables (optionally
// loaded from .env) provide defaults; flags override them.
type Config struct {
	Path string

	Headless        bool
	Output          string
	Verify          bool
	VerifyMaxQubits int
	Bench           string

	MaxAmplitudes   int
	MaxEntGroupSize int

	LogLevel string
	LogFile  string
}

const (
	envMaxAmplitudes   = "QCPROP_MAX_AMPLITUDES"
	envMaxEntGroupSize = "QCPROP_MAX_ENT_GROUP_SIZE"
	envLogLevel        = "QCPROP_LOG_LEVEL"
	envLogFile         = "QCPROP_LOG_FILE"
)

var errUsage = errors.New("usage: qcprop [flags] file.qasm | qcprop -bench dir")

func loadConfig(args []string, getenv func(string) string, stderr io.Writer) (Config, error) {
	cfg := Config{
		VerifyMaxQubits: 14,
		MaxAmplitudes:   constprop.DefaultMaxAmplitudes,
		MaxEntGroupSize: constprop.DefaultMaxEntGroupSize,
		LogLevel:        "info",
		LogFile:         getenv(envLogFile),
	}
	if v := getenv(envLogLevel); v != "" {
		cfg.LogLevel = v
	}
	var err error
	if cfg.MaxAmplitudes, err = envInt(getenv, envMaxAmplitudes, cfg.MaxAmplitudes); err != nil {
		return cfg, err
	}
	if cfg.MaxEntGroupSize, err = envInt(getenv, envMaxEntGroupSize, cfg.MaxEntGroupSize); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("qcprop", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&cfg.Headless, "headless", false, "optimize without the inspector and print QASM")
	fs.StringVar(&cfg.Output, "o", "", "write optimized QASM to `file` instead of stdout")
	fs.BoolVar(&cfg.Verify, "verify", false, "check the optimized circuit against the reference simulator")
	fs.IntVar(&cfg.VerifyMaxQubits, "verify-max-qubits", cfg.VerifyMaxQubits, "largest circuit to verify")
	fs.StringVar(&cfg.Bench, "bench", "", "benchmark every .qasm file under `dir` and print CSV")
	fs.IntVar(&cfg.MaxAmplitudes, "max-amplitudes", cfg.MaxAmplitudes, "amplitude budget per group")
	fs.IntVar(&cfg.MaxEntGroupSize, "max-ent-group-size", cfg.MaxEntGroupSize, "largest number of qubits per group")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "append logs to `file`")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	switch {
	case cfg.Bench != "" && fs.NArg() == 0:
	case cfg.Bench == "" && fs.NArg() == 1:
		cfg.Path = fs.Arg(0)
	default:
		return cfg, errUsage
	}
	if cfg.MaxAmplitudes < 1 || cfg.MaxEntGroupSize < 1 {
		return cfg, fmt.Errorf("budgets must be positive: max-amplitudes=%d max-ent-group-size=%d", cfg.MaxAmplitudes, cfg.MaxEntGroupSize)
	}
	return cfg, nil
}

func envInt(getenv func(string) string, name string, def int) (int, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func (c Config) options() []constprop.Option {
	return []constprop.Option{
		constprop.WithMaxAmplitudes(c.MaxAmplitudes),
		constprop.WithMaxEntGroupSize(c.MaxEntGroupSize),
	}
}
