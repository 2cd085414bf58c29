package client

import (
	"gonum.org/v1/gonum/floats"

	"github.com/Scruff-AI/PiEEG-16/pkg/stream/output"
)

// Window is the client-side rolling display buffer: the most recent N
// seconds of samples per channel, sized from the first message's rate.
type Window struct {
	seconds float64
	rate    int
	data    [][]float64
}

func NewWindow(seconds float64) *Window {
	return &Window{seconds: seconds}
}

// Push appends one message's samples, trimming the oldest past capacity.
func (w *Window) Push(msg *output.Message) {
	if w.data == nil {
		w.rate = msg.SamplingRate
		w.data = make([][]float64, msg.Channels)
	}
	capacity := int(w.seconds * float64(w.rate))
	for ch := range w.data {
		if ch >= len(msg.Data) {
			break
		}
		row := append(w.data[ch], msg.Data[ch]...)
		if excess := len(row) - capacity; excess > 0 {
			row = row[excess:]
		}
		w.data[ch] = row
	}
}

func (w *Window) Channels() int { return len(w.data) }

// Samples is the per-channel fill level.
func (w *Window) Samples() int {
	if len(w.data) == 0 {
		return 0
	}
	return len(w.data[0])
}

// Seconds is the fill level in seconds of signal.
func (w *Window) Seconds() float64 {
	if w.rate == 0 {
		return 0
	}
	return float64(w.Samples()) / float64(w.rate)
}

// Range is the amplitude extent across the whole window.
func (w *Window) Range() (min, max float64) {
	if w.Samples() == 0 {
		return 0, 0
	}
	min = floats.Min(w.data[0])
	max = floats.Max(w.data[0])
	for _, row := range w.data[1:] {
		if len(row) == 0 {
			continue
		}
		if m := floats.Min(row); m < min {
			min = m
		}
		if m := floats.Max(row); m > max {
			max = m
		}
	}
	return min, max
}
