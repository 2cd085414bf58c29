// Package filter is the per-channel cleanup stage: linear detrend, 1-40 Hz
// band-limiting, and a powerline notch. Channels are independent; a failure
// on one channel falls back to that channel's raw samples and never aborts
// the batch.
package filter

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/Scruff-AI/PiEEG-16/pkg/dsp/filters/biquad"
	"github.com/Scruff-AI/PiEEG-16/pkg/eeg"
)

// EEG band of interest and filter steepness.
const (
	lowCutHz  = 1.0
	highCutHz = 40.0
	order     = 5
	notchQ    = 30.0
)

type Stage struct {
	rate     int
	highpass *biquad.Chain
	lowpass  *biquad.Chain
	notch    *biquad.Chain
	logger   zerolog.Logger
}

// New designs the filter chains for the given sampling rate. A rate too low
// to carry the band or the notch is a construction error, caught at startup.
func New(rate int, powerlineHz float64, logger zerolog.Logger) (*Stage, error) {
	fs := float64(rate)
	hp, err := biquad.Highpass(fs, lowCutHz, order)
	if err != nil {
		return nil, fmt.Errorf("filter: highpass: %w", err)
	}
	lp, err := biquad.Lowpass(fs, highCutHz, order)
	if err != nil {
		return nil, fmt.Errorf("filter: lowpass: %w", err)
	}
	notch, err := biquad.Notch(fs, powerlineHz, notchQ)
	if err != nil {
		return nil, fmt.Errorf("filter: notch: %w", err)
	}
	return &Stage{
		rate:     rate,
		highpass: biquad.NewChain(hp...),
		lowpass:  biquad.NewChain(lp...),
		notch:    biquad.NewChain(notch),
		logger:   logger,
	}, nil
}

// Process returns a new batch with every channel filtered independently.
// Degenerate rows (constant, or fewer than 2 samples) pass through unchanged.
func (s *Stage) Process(b *eeg.Batch) *eeg.Batch {
	out := eeg.NewBatch(b.Channels(), b.Rate)
	out.Start = b.Start
	for ch, row := range b.Data {
		if degenerate(row) {
			s.logger.Warn().Int("channel", ch).Msg("skipping degenerate channel")
			out.Data[ch] = append([]float64(nil), row...)
			continue
		}
		filtered, err := s.processRow(row)
		if err != nil {
			s.logger.Warn().Int("channel", ch).Err(err).Msg("filtering failed, passing raw channel")
			out.Data[ch] = append([]float64(nil), row...)
			continue
		}
		out.Data[ch] = filtered
	}
	return out
}

func (s *Stage) processRow(row []float64) ([]float64, error) {
	dst := detrend(row)
	s.highpass.Apply(dst, dst)
	s.lowpass.Apply(dst, dst)
	s.notch.Apply(dst, dst)
	for _, x := range dst {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("filter: non-finite output")
		}
	}
	return dst, nil
}

// detrend removes the least-squares line through the row (order-1 polynomial
// detrend, dropping DC offset and linear drift).
func detrend(row []float64) []float64 {
	xs := make([]float64, len(row))
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, row, nil, false)
	out := make([]float64, len(row))
	for i, x := range row {
		out[i] = x - (alpha + beta*float64(i))
	}
	return out
}

func degenerate(row []float64) bool {
	if len(row) < 2 {
		return true
	}
	for _, x := range row[1:] {
		if x != row[0] {
			return false
		}
	}
	return true
}
