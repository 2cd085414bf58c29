package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Scruff-AI/PiEEG-16/pkg/ads1299"
	"github.com/Scruff-AI/PiEEG-16/pkg/stream"
	"github.com/Scruff-AI/PiEEG-16/pkg/stream/config"
	"github.com/Scruff-AI/PiEEG-16/pkg/stream/device"
	"github.com/Scruff-AI/PiEEG-16/pkg/stream/device/sim"
	"github.com/Scruff-AI/PiEEG-16/pkg/stream/device/spidev"
	"github.com/Scruff-AI/PiEEG-16/pkg/stream/output"
	"github.com/Scruff-AI/PiEEG-16/pkg/util"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "pieeg.yaml", "YAML config file")
	deviceFlag := flag.String("device", "", "override acquisition backend (spidev or sim)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Warn().Err(err).Msg("config not loaded, using defaults")
	}
	if *deviceFlag != "" {
		cfg.Device = *deviceFlag
	}

	topology := ads1299.DefaultTopology(cfg.SPIBus, cfg.SPIDevice)

	var chips []device.Chip
	var cs device.SelectLine
	switch cfg.Device {
	case "sim":
		log.Info().Str("device", "sim").Msg("initializing device...")
		for _, cc := range topology {
			chips = append(chips, device.Chip{Config: cc, Conn: sim.NewConn(cc, cfg.SamplingRate)})
		}
		cs = sim.NewLine()
	default:
		log.Info().Str("device", "spidev").Msg("initializing device...")
		for _, cc := range topology {
			port, err := spidev.Open(cc.Bus, cc.Device)
			if err != nil {
				log.Fatal().Str("chip", cc.Name).Err(err).Msg("failed to open SPI device")
			}
			chips = append(chips, device.Chip{Config: cc, Conn: port})
		}
		cs, err = spidev.OpenSelectLine(cfg.ChipSelectLine)
		if err != nil {
			log.Fatal().Int("line", cfg.ChipSelectLine).Err(err).Msg("failed to open chip-select line")
		}
	}

	bank, err := device.NewBank(chips, cs, cfg.SamplingRate, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create device bank")
	}

	var writeAPI api.WriteAPI = &util.MockWriteAPI{}
	if cfg.InfluxDB.Host != "" {
		writeAPI = influxdb2.NewClient(cfg.InfluxDB.Host, "").WriteAPI(cfg.InfluxDB.Organization, cfg.InfluxDB.Bucket)
	}

	out := output.NewTCPOutput(cfg.TCPIP, cfg.TCPPort, log.Logger)

	streamer, err := stream.New(bank, out,
		stream.Options{
			Channels:           cfg.Channels,
			SamplingRate:       cfg.SamplingRate,
			BufferSeconds:      cfg.BufferSizeSeconds,
			ProcessFiltering:   cfg.ProcessFiltering,
			PowerlineHz:        cfg.PowerlineHz,
			MinStdThreshold:    cfg.MinStdThreshold,
			ExpectedMinVoltage: cfg.ExpectedMinVoltage,
			ExpectedMaxVoltage: cfg.ExpectedMaxVoltage,
		},
		stream.WithMetrics(writeAPI),
		stream.WithLogger(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create streamer")
	}

	eg, ctx := errgroup.WithContext(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
			log.Info().Msg("stopping streamer...")
		case <-ctx.Done():
		}
		return streamer.Stop()
	})

	eg.Go(func() error {
		return streamer.Start(ctx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("exited program")
	}
}
