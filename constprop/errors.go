package constprop

import (
	"errors"

	"qcprop/circuit"
)

var (
	ErrQubitRange      = errors.New("qubit out of range")
	ErrTableSize       = errors.New("table size does not match circuit")
	ErrUnsupportedGate = circuit.ErrUnsupportedGate
	ErrMalformedGate   = circuit.ErrMalformedGate
)
