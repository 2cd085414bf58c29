package filter

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"
	"github.com/rs/zerolog"

	"github.com/Scruff-AI/PiEEG-16/pkg/eeg"
)

func newStage(t *testing.T) *Stage {
	t.Helper()
	s, err := New(250, 50, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSingleSamplePassesThrough(t *testing.T) {
	s := newStage(t)
	b := eeg.NewBatch(16, 250)
	b.AppendColumn(func() []float64 {
		col := make([]float64, 16)
		for i := range col {
			col[i] = float64(i) * 1.5
		}
		return col
	}())
	out := s.Process(b)
	if out.Samples() != 1 {
		t.Fatalf("samples = %d, want 1", out.Samples())
	}
	for ch := 0; ch < 16; ch++ {
		if out.Data[ch][0] != b.Data[ch][0] {
			t.Errorf("channel %d = %v, want %v", ch, out.Data[ch][0], b.Data[ch][0])
		}
	}
}

func TestConstantChannelPassesThrough(t *testing.T) {
	s := newStage(t)
	b := eeg.NewBatch(1, 250)
	for i := 0; i < 100; i++ {
		b.AppendColumn([]float64{7.25})
	}
	out := s.Process(b)
	for i, v := range out.Data[0] {
		if v != 7.25 {
			t.Fatalf("sample %d = %v, want 7.25", i, v)
		}
	}
}

// binMagnitude is the FFT magnitude at freq over an integer number of cycles.
func binMagnitude(xs []float64, freq float64, rate int) float64 {
	spectrum := fft.FFTReal(xs)
	bin := int(freq * float64(len(xs)) / float64(rate))
	return cmplx.Abs(spectrum[bin])
}

func TestBandAndNotchResponse(t *testing.T) {
	const (
		rate   = 250
		n      = 500
		inBand = 10.0 // retained
		mains  = 50.0 // notched
		amp    = 20.0
	)
	s := newStage(t)
	b := eeg.NewBatch(1, rate)
	for i := 0; i < n; i++ {
		ts := float64(i) / rate
		v := 30 + 0.05*float64(i) + // offset and drift, removed by detrend
			amp*math.Sin(2*math.Pi*inBand*ts) +
			amp*math.Sin(2*math.Pi*mains*ts)
		b.AppendColumn([]float64{v})
	}
	out := s.Process(b)

	// Analyze the settled second half only.
	settled := out.Data[0][n/2:]
	magInBand := binMagnitude(settled, inBand, rate)
	magMains := binMagnitude(settled, mains, rate)

	if magInBand < amp*float64(len(settled))/2*0.5 {
		t.Errorf("in-band 10 Hz magnitude %v too low, band-limiting is eating the passband", magInBand)
	}
	if magMains > magInBand/10 {
		t.Errorf("mains residual %v vs in-band %v, want at least 10x rejection", magMains, magInBand)
	}

	var mean float64
	for _, v := range settled {
		mean += v
	}
	mean /= float64(len(settled))
	if math.Abs(mean) > 5 {
		t.Errorf("settled mean = %v, offset/drift not removed", mean)
	}
}

func TestLowSamplingRateFailsConstruction(t *testing.T) {
	// 60 Hz rate cannot carry a 40 Hz band edge plus a 50 Hz notch.
	if _, err := New(60, 50, zerolog.Nop()); err == nil {
		t.Error("New(60, 50): want error")
	}
}

func TestProcessDoesNotMutateInput(t *testing.T) {
	s := newStage(t)
	b := eeg.NewBatch(1, 250)
	for i := 0; i < 100; i++ {
		b.AppendColumn([]float64{math.Sin(float64(i) / 3)})
	}
	before := append([]float64(nil), b.Data[0]...)
	s.Process(b)
	for i := range before {
		if b.Data[0][i] != before[i] {
			t.Fatalf("input mutated at %d", i)
		}
	}
}
