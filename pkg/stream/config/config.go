package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the flat option set loaded once at startup. Every field has a
// documented default so the daemon runs with no config file at all.
type Config struct {
	Channels           int     `yaml:"channels"`
	SamplingRate       int     `yaml:"sampling_rate"`
	SPIBus             int     `yaml:"spi_bus"`
	SPIDevice          int     `yaml:"spi_device"`
	ChipSelectLine     int     `yaml:"chip_select_line"`
	BufferSizeSeconds  float64 `yaml:"buffer_size_seconds"`
	TCPIP              string  `yaml:"tcp_ip"`
	TCPPort            int     `yaml:"tcp_port"`
	ProcessFiltering   bool    `yaml:"process_filtering"`
	ExpectedMinVoltage float64 `yaml:"expected_min_voltage"`
	ExpectedMaxVoltage float64 `yaml:"expected_max_voltage"`
	MinStdThreshold    float64 `yaml:"min_std_threshold"`
	PowerlineHz        float64 `yaml:"powerline_hz"`

	// Device selects the acquisition backend: "spidev" for the real bus,
	// "sim" for the synthetic signal source.
	Device string `yaml:"device"`

	InfluxDB struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

func Default() Config {
	cfg := Config{
		Channels:           16,
		SamplingRate:       250,
		SPIBus:             0,
		SPIDevice:          0,
		ChipSelectLine:     19,
		BufferSizeSeconds:  2,
		TCPIP:              "0.0.0.0",
		TCPPort:            6677,
		ProcessFiltering:   true,
		ExpectedMinVoltage: -100,
		ExpectedMaxVoltage: 100,
		MinStdThreshold:    0.1,
		PowerlineHz:        50,
		Device:             "spidev",
	}
	return cfg
}

// Load reads a YAML config file. On a missing or unparseable file it returns
// the defaults along with the error so the caller can warn and keep going.
func Load(path string) (Config, error) {
	cfg := Default()
	contents, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Default(), fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}
