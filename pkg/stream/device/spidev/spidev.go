// Package spidev drives the real PiEEG-16 front-end through the Linux SPI
// character devices and a GPIO chip-select line.
package spidev

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Bus parameters from the PiEEG-16 reference setup.
const (
	busSpeed = 4 * physic.MegaHertz
	busMode  = spi.Mode1
	busBits  = 8
)

var (
	hostOnce sync.Once
	hostErr  error
)

func initHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

// Port is one open /dev/spidevB.D session.
type Port struct {
	port spi.PortCloser
	conn spi.Conn
}

func Open(bus, device int) (*Port, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("spidev: host init: %w", err)
	}
	name := fmt.Sprintf("/dev/spidev%d.%d", bus, device)
	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("spidev: opening %s: %w", name, err)
	}
	conn, err := port.Connect(busSpeed, busMode, busBits)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("spidev: configuring %s: %w", name, err)
	}
	return &Port{port: port, conn: conn}, nil
}

func (p *Port) Tx(w, r []byte) error {
	if w == nil {
		// Full-duplex read: clock out zeros.
		w = make([]byte, len(r))
	}
	return p.conn.Tx(w, r)
}

func (p *Port) Close() error {
	return p.port.Close()
}
