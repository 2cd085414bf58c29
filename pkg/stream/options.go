package stream

import (
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog"
)

type Options struct {
	Channels           int
	SamplingRate       int
	BufferSeconds      float64
	ProcessFiltering   bool
	PowerlineHz        float64
	MinStdThreshold    float64
	ExpectedMinVoltage float64
	ExpectedMaxVoltage float64
}

type StreamerOption func(s *Streamer) error

func WithLogger(logger zerolog.Logger) StreamerOption {
	return func(s *Streamer) error {
		s.logger = logger
		return nil
	}
}

func WithMetrics(writeAPI api.WriteAPI) StreamerOption {
	return func(s *Streamer) error {
		s.writeAPI = writeAPI
		return nil
	}
}
