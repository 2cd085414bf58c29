// Package validate runs stateless quality checks on a decoded batch before
// it is forwarded to clients.
package validate

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/Scruff-AI/PiEEG-16/pkg/eeg"
)

var (
	// ErrNonFinite means the batch carries a NaN or Inf, which only a
	// hardware or wiring fault produces.
	ErrNonFinite = errors.New("validate: non-finite sample")
	// ErrNearConstant means the whole batch is close to a flat line, as a
	// disconnected front-end reports.
	ErrNearConstant = errors.New("validate: near-constant signal")
)

type Validator struct {
	minStd     float64
	minVoltage float64
	maxVoltage float64
	logger     zerolog.Logger
}

func New(minStd, minVoltage, maxVoltage float64, logger zerolog.Logger) *Validator {
	return &Validator{
		minStd:     minStd,
		minVoltage: minVoltage,
		maxVoltage: maxVoltage,
		logger:     logger,
	}
}

// Validate rejects batches with non-finite values or a near-constant signal.
// Out-of-range amplitude may be a real artifact, so it only warns; the batch
// still passes and reaches the viewer unclamped.
func (v *Validator) Validate(b *eeg.Batch) error {
	for ch, row := range b.Data {
		for _, x := range row {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("%w: channel %d", ErrNonFinite, ch)
			}
		}
	}
	if std := b.Std(); std < v.minStd {
		return fmt.Errorf("%w: std %.4f < %.4f", ErrNearConstant, std, v.minStd)
	}
	if min, max := b.Min(), b.Max(); min < v.minVoltage || max > v.maxVoltage {
		v.logger.Warn().
			Float64("min_uv", min).
			Float64("max_uv", max).
			Msg("batch amplitude out of expected range")
	}
	return nil
}
