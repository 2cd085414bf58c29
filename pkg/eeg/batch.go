package eeg

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Batch is one block of multi-channel samples in microvolts, channel-major:
// Data[ch][i] is channel ch at sample index i. Column index is time index.
type Batch struct {
	Rate  int
	Start time.Time
	Data  [][]float64
}

func NewBatch(channels, rate int) *Batch {
	return &Batch{
		Rate:  rate,
		Start: time.Now(),
		Data:  make([][]float64, channels),
	}
}

func (b *Batch) Channels() int { return len(b.Data) }

func (b *Batch) Samples() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// AppendColumn appends one sample per channel. col must have one value
// per channel row.
func (b *Batch) AppendColumn(col []float64) {
	for ch := range b.Data {
		b.Data[ch] = append(b.Data[ch], col[ch])
	}
}

func (b *Batch) Min() float64 {
	if b.Samples() == 0 {
		return 0
	}
	min := floats.Min(b.Data[0])
	for _, row := range b.Data[1:] {
		if m := floats.Min(row); m < min {
			min = m
		}
	}
	return min
}

func (b *Batch) Max() float64 {
	if b.Samples() == 0 {
		return 0
	}
	max := floats.Max(b.Data[0])
	for _, row := range b.Data[1:] {
		if m := floats.Max(row); m > max {
			max = m
		}
	}
	return max
}

// Std is the population standard deviation over every sample in the batch.
func (b *Batch) Std() float64 {
	if b.Samples() == 0 {
		return 0
	}
	flat := make([]float64, 0, b.Channels()*b.Samples())
	for _, row := range b.Data {
		flat = append(flat, row...)
	}
	return stat.PopStdDev(flat, nil)
}
