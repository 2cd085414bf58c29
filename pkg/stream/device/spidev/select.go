package spidev

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Line is the shared chip-select GPIO. The hardware is active low, so
// asserting drives the pin low.
type Line struct {
	pin gpio.PinIO
}

func OpenSelectLine(line int) (*Line, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("spidev: host init: %w", err)
	}
	name := fmt.Sprintf("GPIO%d", line)
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("spidev: no pin %s", name)
	}
	if err := pin.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("spidev: releasing %s: %w", name, err)
	}
	return &Line{pin: pin}, nil
}

func (l *Line) Set(asserted bool) error {
	level := gpio.High
	if asserted {
		level = gpio.Low
	}
	return l.pin.Out(level)
}

func (l *Line) Close() error {
	if err := l.pin.Out(gpio.High); err != nil {
		return err
	}
	return l.pin.Halt()
}
