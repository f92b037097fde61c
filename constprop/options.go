package constprop

import (
	"io"

	"github.com/charmbracelet/log"

	"qcprop/qstate"
)

const (
	// DefaultMaxAmplitudes is the number of basis entries a group may hold
	// before it is abandoned.
	DefaultMaxAmplitudes = 1024
	// DefaultMaxEntGroupSize is the number of qubits a group may span.
	DefaultMaxEntGroupSize = 5
)

type config struct {
	maxAmplitudes   int
	maxEntGroupSize int
	logger          *log.Logger
}

// Option configures a propagation pass.
type Option func(*config)

// WithMaxAmplitudes sets the amplitude budget per group.
func WithMaxAmplitudes(n int) Option {
	return func(c *config) {
		c.maxAmplitudes = max(n, 1)
	}
}

// WithMaxEntGroupSize sets the largest number of qubits a group may span.
func WithMaxEntGroupSize(n int) Option {
	return func(c *config) {
		c.maxEntGroupSize = min(max(n, 1), qstate.MaxWidth)
	}
}

// WithLogger sends debug output of the pass to l.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		maxAmplitudes:   DefaultMaxAmplitudes,
		maxEntGroupSize: DefaultMaxEntGroupSize,
		logger:          log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
