package device

import (
	"github.com/Scruff-AI/PiEEG-16/pkg/ads1299"
)

// Conn is one chip's serial bus session. Tx runs a full-duplex transfer:
// w is clocked out while r fills, either side may be nil for one-way
// transactions.
type Conn interface {
	Tx(w, r []byte) error
	Close() error
}

// SelectLine is the digital select signal shared by every chip on the bus.
// Set(true) asserts it ahead of a transaction, Set(false) releases it.
type SelectLine interface {
	Set(asserted bool) error
	Close() error
}

// Chip pairs an open bus session with its place in the topology.
type Chip struct {
	Config ads1299.ChipConfig
	Conn   Conn
}
