package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Channels != 16 || cfg.SamplingRate != 250 {
		t.Errorf("channels/rate = %d/%d, want 16/250", cfg.Channels, cfg.SamplingRate)
	}
	if cfg.TCPIP != "0.0.0.0" || cfg.TCPPort != 6677 {
		t.Errorf("bind = %s:%d, want 0.0.0.0:6677", cfg.TCPIP, cfg.TCPPort)
	}
	if !cfg.ProcessFiltering {
		t.Error("filtering disabled by default")
	}
	if cfg.BufferSizeSeconds != 2 || cfg.ChipSelectLine != 19 {
		t.Errorf("buffer/cs = %v/%d, want 2/19", cfg.BufferSizeSeconds, cfg.ChipSelectLine)
	}
	if cfg.MinStdThreshold != 0.1 || cfg.ExpectedMinVoltage != -100 || cfg.ExpectedMaxVoltage != 100 {
		t.Error("validation thresholds differ from documented defaults")
	}
	if cfg.PowerlineHz != 50 {
		t.Errorf("powerline = %v, want 50", cfg.PowerlineHz)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("missing file: want error alongside defaults")
	}
	if cfg.SamplingRate != 250 {
		t.Errorf("fallback rate = %d, want 250", cfg.SamplingRate)
	}
}

func TestLoadUnparseableFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- nonsense"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err == nil {
		t.Error("unparseable file: want error alongside defaults")
	}
	if cfg.TCPPort != 6677 {
		t.Errorf("fallback port = %d, want 6677", cfg.TCPPort)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pieeg.yaml")
	contents := `
sampling_rate: 500
tcp_port: 7000
process_filtering: false
device: sim
powerline_hz: 60
influxdb:
  host: http://localhost:8086
  organization: lab
  bucket: eeg
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SamplingRate != 500 || cfg.TCPPort != 7000 {
		t.Errorf("rate/port = %d/%d, want 500/7000", cfg.SamplingRate, cfg.TCPPort)
	}
	if cfg.ProcessFiltering {
		t.Error("process_filtering: false not honored")
	}
	if cfg.Device != "sim" || cfg.PowerlineHz != 60 {
		t.Errorf("device/powerline = %s/%v, want sim/60", cfg.Device, cfg.PowerlineHz)
	}
	if cfg.InfluxDB.Host != "http://localhost:8086" || cfg.InfluxDB.Bucket != "eeg" {
		t.Errorf("influxdb = %+v", cfg.InfluxDB)
	}
	// Untouched keys keep their defaults.
	if cfg.Channels != 16 || cfg.ChipSelectLine != 19 {
		t.Errorf("channels/cs = %d/%d, want defaults 16/19", cfg.Channels, cfg.ChipSelectLine)
	}
}
