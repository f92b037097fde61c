package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"qcprop/circuit"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg, err := loadConfig(os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer closeLog()

	if err := run(cfg, logger, os.Stdout); err != nil {
		logger.Error("run failed", "err", err)
		closeLog()
		os.Exit(1)
	}
}

// newLogger builds the run logger. The inspector owns the terminal, so it
// only logs when a log file is configured.
func newLogger(cfg Config, stderr io.Writer) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = stderr
	closeFn := func() {}
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	case !cfg.Headless && cfg.Bench == "":
		w = io.Discard
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "qcprop",
	})
	return logger.With("run", uuid.NewString()), closeFn, nil
}

func run(cfg Config, logger *log.Logger, stdout io.Writer) error {
	switch {
	case cfg.Bench != "":
		return runBench(cfg, logger, stdout)
	case cfg.Headless:
		return runHeadless(cfg, logger, stdout)
	}

	c, err := circuit.ReadFile(cfg.Path)
	if err != nil {
		return err
	}
	m, err := newModel(c, cfg, logger)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
