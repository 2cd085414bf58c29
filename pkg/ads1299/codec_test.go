package ads1299

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func bytesForCode(code int) []byte {
	u := code
	if u < 0 {
		u += 1 << 24
	}
	return []byte{byte(u >> 16), byte(u >> 8), byte(u)}
}

func expectedMicrovolts(code int) float64 {
	return math.Round(1e6*4.5*float64(code)/16777215*100) / 100
}

func TestDecodeSampleRoundTrip(t *testing.T) {
	codes := []int{0, 1, -1, 255, -256, 100000, -100000, 8388607, -8388608}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		codes = append(codes, rng.Intn(1<<24)-(1<<23))
	}

	for _, code := range codes {
		got, err := DecodeSample(bytesForCode(code))
		if err != nil {
			t.Fatalf("DecodeSample(%d): %v", code, err)
		}
		if want := expectedMicrovolts(code); math.Abs(got-want) > 0.01 {
			t.Errorf("DecodeSample(%d) = %v, want %v", code, got, want)
		}

		enc := EncodeSample(got)
		back, err := DecodeSample(enc[:])
		if err != nil {
			t.Fatalf("DecodeSample(EncodeSample(%v)): %v", got, err)
		}
		if math.Abs(back-got) > 0.01 {
			t.Errorf("round trip of code %d: got %v, want %v", code, back, got)
		}
	}
}

func TestDecodeSampleShort(t *testing.T) {
	if _, err := DecodeSample([]byte{0x01, 0x02}); !errors.Is(err, ErrShortFrame) {
		t.Errorf("DecodeSample(2 bytes) err = %v, want ErrShortFrame", err)
	}
}

func goodFrame(values [ChannelsPerChip]float64) []byte {
	frame := make([]byte, FrameSize)
	copy(frame, StatusPattern[:])
	for ch, v := range values {
		enc := EncodeSample(v)
		copy(frame[3+ch*3:], enc[:])
	}
	return frame
}

func TestDecodeFrame(t *testing.T) {
	values := [ChannelsPerChip]float64{0, 10.5, -10.5, 99.99, -99.99, 1000, -1000, 0.27}
	got, err := DecodeFrame(goodFrame(values))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	for ch := range values {
		if math.Abs(got[ch]-values[ch]) > 0.3 {
			t.Errorf("channel %d = %v, want ~%v", ch, got[ch], values[ch])
		}
	}
}

func TestDecodeFrameBadStatus(t *testing.T) {
	frame := goodFrame([ChannelsPerChip]float64{})
	frame[0], frame[1], frame[2] = 0, 0, 0
	if _, err := DecodeFrame(frame); !errors.Is(err, ErrBadStatus) {
		t.Errorf("DecodeFrame(zero status) err = %v, want ErrBadStatus", err)
	}
}

func TestDecodeFrameShort(t *testing.T) {
	if _, err := DecodeFrame(make([]byte, FrameSize-1)); !errors.Is(err, ErrShortFrame) {
		t.Errorf("DecodeFrame(short) err = %v, want ErrShortFrame", err)
	}
}

func TestWriteRegisterFrame(t *testing.T) {
	frame := WriteRegisterFrame(RegConfig1, 0x96)
	want := []byte{0x41, 0x00, 0x96}
	for i := range want {
		if frame[i] != want[i] {
			t.Fatalf("WriteRegisterFrame = %#v, want %#v", frame, want)
		}
	}
}

func TestDefaultTopology(t *testing.T) {
	topo := DefaultTopology(0, 0)
	if len(topo) != 2 {
		t.Fatalf("got %d chips, want 2", len(topo))
	}
	if topo[0].ChannelOffset != 0 || topo[1].ChannelOffset != ChannelsPerChip {
		t.Errorf("channel offsets = %d,%d, want 0,%d", topo[0].ChannelOffset, topo[1].ChannelOffset, ChannelsPerChip)
	}
	if topo[1].Device != 1 {
		t.Errorf("secondary device = %d, want 1", topo[1].Device)
	}
}
