package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Scruff-AI/PiEEG-16/pkg/ads1299"
	"github.com/Scruff-AI/PiEEG-16/pkg/eeg"
)

// settleDelay is how long a chip needs after reset before it accepts
// register writes.
const settleDelay = 100 * time.Millisecond

// Bank owns every chip session plus the shared select line and presents
// them as one multi-channel sample source. All bus traffic goes through the
// single acquisition goroutine, so select-line exclusion is structural and
// no lock guards the bus.
type Bank struct {
	chips    []Chip
	cs       SelectLine
	rate     int
	channels int
	logger   zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

func NewBank(chips []Chip, cs SelectLine, rate int, logger zerolog.Logger) (*Bank, error) {
	if len(chips) == 0 {
		return nil, fmt.Errorf("device: no chips configured")
	}
	if cs == nil {
		return nil, fmt.Errorf("device: no select line")
	}
	if rate <= 0 {
		return nil, fmt.Errorf("device: sampling rate %d <= 0", rate)
	}
	return &Bank{
		chips:    chips,
		cs:       cs,
		rate:     rate,
		channels: len(chips) * ads1299.ChannelsPerChip,
		logger:   logger,
	}, nil
}

func (b *Bank) Channels() int { return b.channels }

// Init runs the synchronized power-up sequence on every chip in turn: wake,
// stop, reset, leave continuous mode, settle, write the configuration table,
// then start continuous conversion. Any failure is fatal to startup.
func (b *Bank) Init() error {
	for _, chip := range b.chips {
		if err := b.command(chip.Conn, ads1299.CmdWakeup, ads1299.CmdStop, ads1299.CmdReset, ads1299.CmdSDATAC); err != nil {
			return fmt.Errorf("resetting %s: %w", chip.Config.Name, err)
		}
		time.Sleep(settleDelay)
		for _, rv := range ads1299.InitSequence() {
			if err := b.writeRegister(chip.Conn, rv.Reg, rv.Value); err != nil {
				return fmt.Errorf("configuring %s reg %#02x: %w", chip.Config.Name, rv.Reg, err)
			}
		}
		if err := b.command(chip.Conn, ads1299.CmdRDATAC, ads1299.CmdStart); err != nil {
			return fmt.Errorf("starting %s: %w", chip.Config.Name, err)
		}
		b.logger.Debug().Str("chip", chip.Config.Name).Msg("chip configured")
	}
	b.logger.Info().Int("chips", len(b.chips)).Int("channels", b.channels).Msg("device bank initialized")
	return nil
}

// ReadBatch reads samples frames from every chip in lock-step, paced to the
// configured sampling rate against the batch start time. Pacing is forward
// looking only: an iteration that overruns its slot is never caught up, the
// batch just takes a little longer. An iteration whose status bytes are wrong
// on any chip is dropped whole, so the batch can come back narrower than
// requested.
func (b *Bank) ReadBatch(samples int) (*eeg.Batch, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("device: batch of %d samples", samples)
	}
	period := time.Second / time.Duration(b.rate)
	batch := eeg.NewBatch(b.channels, b.rate)
	start := time.Now()
	batch.Start = start

	tx := make([]byte, ads1299.FrameSize)
	frames := make([][]byte, len(b.chips))
	for i := range frames {
		frames[i] = make([]byte, ads1299.FrameSize)
	}
	col := make([]float64, b.channels)

	for i := 0; i < samples; i++ {
		if err := b.readFrames(tx, frames); err != nil {
			return nil, err
		}

		ok := true
		for ci, chip := range b.chips {
			vals, err := ads1299.DecodeFrame(frames[ci])
			if err != nil {
				b.logger.Warn().Str("chip", chip.Config.Name).Err(err).Msg("dropping sample")
				ok = false
				break
			}
			copy(col[chip.Config.ChannelOffset:], vals[:])
		}
		if ok {
			batch.AppendColumn(col)
		}

		if d := time.Until(start.Add(time.Duration(i+1) * period)); d > 0 {
			time.Sleep(d)
		}
	}
	return batch, nil
}

// readFrames pulls one frame from every chip back to back under a single
// select assertion, per the shared-bus discipline.
func (b *Bank) readFrames(tx []byte, frames [][]byte) error {
	if err := b.cs.Set(true); err != nil {
		return fmt.Errorf("asserting select: %w", err)
	}
	var readErr error
	for ci, chip := range b.chips {
		if err := chip.Conn.Tx(tx, frames[ci]); err != nil {
			readErr = fmt.Errorf("reading %s: %w", chip.Config.Name, err)
			break
		}
	}
	if err := b.cs.Set(false); err != nil && readErr == nil {
		readErr = fmt.Errorf("releasing select: %w", err)
	}
	return readErr
}

// command sends single-byte opcodes under one select assertion.
func (b *Bank) command(c Conn, ops ...byte) error {
	if err := b.cs.Set(true); err != nil {
		return err
	}
	var txErr error
	for _, op := range ops {
		if err := c.Tx([]byte{op}, nil); err != nil {
			txErr = err
			break
		}
	}
	if err := b.cs.Set(false); err != nil && txErr == nil {
		txErr = err
	}
	return txErr
}

func (b *Bank) writeRegister(c Conn, reg, value byte) error {
	if err := b.cs.Set(true); err != nil {
		return err
	}
	txErr := c.Tx(ads1299.WriteRegisterFrame(reg, value), nil)
	if err := b.cs.Set(false); err != nil && txErr == nil {
		txErr = err
	}
	return txErr
}

// Close releases the select line and closes every bus session. Safe to call
// more than once; teardown runs exactly once.
func (b *Bank) Close() error {
	b.closeOnce.Do(func() {
		err := b.cs.Close()
		for _, chip := range b.chips {
			if cerr := chip.Conn.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		b.closeErr = err
	})
	return b.closeErr
}
