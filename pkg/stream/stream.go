// Package stream drives the acquisition pipeline: timed batches from the
// device bank, quality validation, per-channel filtering, and TCP fan-out to
// visualization clients.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Scruff-AI/PiEEG-16/pkg/eeg"
	"github.com/Scruff-AI/PiEEG-16/pkg/stream/filter"
	"github.com/Scruff-AI/PiEEG-16/pkg/stream/output"
	"github.com/Scruff-AI/PiEEG-16/pkg/stream/validate"
	"github.com/Scruff-AI/PiEEG-16/pkg/util"
)

// acceptLoopSlack is subtracted from the broadcast cadence to cover the
// accept loop's poll interval and per-batch processing time.
const acceptLoopSlack = 100 * time.Millisecond

// rejectBackoff is how long the loop waits after a rejected batch before
// reading again.
const rejectBackoff = 100 * time.Millisecond

// Source produces timed sample batches from the acquisition hardware. It is
// touched only by the acquisition goroutine.
type Source interface {
	Init() error
	ReadBatch(samples int) (*eeg.Batch, error)
	Close() error
}

// Streamer is the top-level acquisition loop. Hardware is read continuously
// at its true rate inside ReadBatch; batches go out to the network on the
// coarser BufferSeconds cadence.
type Streamer struct {
	source    Source
	out       *output.TCPOutput
	validator *validate.Validator
	stage     *filter.Stage
	opts      Options
	writeAPI  api.WriteAPI
	logger    zerolog.Logger

	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error

	samplesTotal int
	lastBatch    time.Time
}

func New(source Source, out *output.TCPOutput, options Options, opts ...StreamerOption) (*Streamer, error) {
	if source == nil || out == nil {
		return nil, fmt.Errorf("stream: source and output are required")
	}
	if options.SamplingRate <= 0 || options.Channels <= 0 {
		return nil, fmt.Errorf("stream: must specify channels and sampling rate")
	}
	s := &Streamer{
		source:   source,
		out:      out,
		opts:     options,
		writeAPI: &util.MockWriteAPI{}, // overwritten with option
		logger:   log.Logger,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.validator = validate.New(options.MinStdThreshold, options.ExpectedMinVoltage, options.ExpectedMaxVoltage, s.logger)
	if options.ProcessFiltering {
		stage, err := filter.New(options.SamplingRate, options.PowerlineHz, s.logger)
		if err != nil {
			return nil, err
		}
		s.stage = stage
	}
	return s, nil
}

// Start initializes the hardware and the listener, then runs the accept and
// acquisition tasks until cancellation or an unrecoverable error. Teardown
// runs exactly once whichever path triggers it.
func (s *Streamer) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	if err := s.source.Init(); err != nil {
		s.close()
		return fmt.Errorf("device init: %w", err)
	}
	if err := s.out.Listen(); err != nil {
		s.close()
		return fmt.Errorf("tcp setup: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return s.out.Start(ctx)
	})
	eg.Go(func() error {
		return s.acquire(ctx)
	})

	s.logger.Info().
		Int("channels", s.opts.Channels).
		Int("sampling_rate", s.opts.SamplingRate).
		Float64("buffer_seconds", s.opts.BufferSeconds).
		Bool("filtering", s.stage != nil).
		Msg("streaming")

	err := eg.Wait()
	s.close()
	return err
}

// Stop cancels the running tasks and tears down. Safe to call at any point
// after New, more than once.
func (s *Streamer) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.close()
}

func (s *Streamer) close() error {
	s.closeOnce.Do(func() {
		err := s.out.Close()
		if serr := s.source.Close(); serr != nil && err == nil {
			err = serr
		}
		s.closeErr = err
		s.logger.Info().Msg("resources cleaned up")
	})
	return s.closeErr
}

func (s *Streamer) acquire(ctx context.Context) error {
	cadence := time.Duration(s.opts.BufferSeconds*float64(time.Second)) - acceptLoopSlack
	if cadence < 0 {
		cadence = 0
	}
	s.lastBatch = time.Now()

	for {
		// Cancellation is cooperative, checked between batches only.
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := s.source.ReadBatch(s.opts.SamplingRate)
		if err != nil {
			return fmt.Errorf("reading batch: %w", err)
		}

		if err := s.validator.Validate(batch); err != nil {
			s.logger.Warn().Err(err).Msg("no valid data, skipping broadcast")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(rejectBackoff):
			}
			continue
		}

		processed := batch
		if s.stage != nil {
			processed = s.stage.Process(batch)
		}

		s.out.Broadcast(processed)
		s.logThroughput(batch)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cadence):
		}
	}
}

func (s *Streamer) logThroughput(raw *eeg.Batch) {
	now := time.Now()
	delta := now.Sub(s.lastBatch).Seconds()
	s.lastBatch = now
	s.samplesTotal += raw.Samples()

	var effective float64
	if delta > 0 {
		effective = float64(raw.Samples()) / delta
	}
	min, max := raw.Min(), raw.Max()
	clients := s.out.ClientCount()

	s.logger.Info().
		Int("samples_total", s.samplesTotal).
		Float64("effective_hz", effective).
		Float64("raw_min_uv", min).
		Float64("raw_max_uv", max).
		Int("clients", clients).
		Msg("batch broadcast")

	go s.writeAPI.WritePoint(influxdb2.NewPoint("eeg.batch",
		map[string]string{},
		map[string]interface{}{
			"samples":      raw.Samples(),
			"effective_hz": effective,
			"min_uv":       min,
			"max_uv":       max,
			"clients":      clients,
		}, now))
}

// IsCanceled reports whether err is the normal cancellation exit.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
