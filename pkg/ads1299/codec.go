package ads1299

import (
	"errors"
	"fmt"
	"math"
)

const (
	refMicrovolts = 1e6 * 4.5
	fullScale     = 1<<24 - 1
	signTest      = 0x7FFFFF
	signMask      = 0xFFFFFF
)

var (
	ErrShortFrame = errors.New("ads1299: short frame")
	ErrBadStatus  = errors.New("ads1299: bad status bytes")
)

// DecodeSample interprets three bytes as a 24-bit big-endian two's-complement
// code and scales it to microvolts against the 4.5 V reference, rounded to
// two decimal places.
func DecodeSample(b []byte) (float64, error) {
	if len(b) != 3 {
		return 0, fmt.Errorf("%w: sample is %d bytes, want 3", ErrShortFrame, len(b))
	}
	raw := int(b[0])<<16 | int(b[1])<<8 | int(b[2])
	if raw|signTest == signMask {
		raw -= 1 << 24
	}
	return round2(refMicrovolts * float64(raw) / fullScale), nil
}

// EncodeSample is the inverse of DecodeSample, clamped to the 24-bit signed
// range. Used by the simulated device and round-trip tests.
func EncodeSample(microvolts float64) [3]byte {
	code := int(math.Round(microvolts * fullScale / refMicrovolts))
	if code > signTest {
		code = signTest
	} else if code < -(1 << 23) {
		code = -(1 << 23)
	}
	if code < 0 {
		code += 1 << 24
	}
	return [3]byte{byte(code >> 16), byte(code >> 8), byte(code)}
}

// DecodeFrame decodes one continuous-read frame into 8 channel values after
// verifying the status-byte pattern. A malformed or short frame is an error,
// never a zero-filled result.
func DecodeFrame(frame []byte) ([ChannelsPerChip]float64, error) {
	var out [ChannelsPerChip]float64
	if len(frame) != FrameSize {
		return out, fmt.Errorf("%w: got %d bytes, want %d", ErrShortFrame, len(frame), FrameSize)
	}
	if frame[0] != StatusPattern[0] || frame[1] != StatusPattern[1] || frame[2] != StatusPattern[2] {
		return out, fmt.Errorf("%w: [%#02x %#02x %#02x]", ErrBadStatus, frame[0], frame[1], frame[2])
	}
	for ch := 0; ch < ChannelsPerChip; ch++ {
		v, err := DecodeSample(frame[3+ch*3 : 6+ch*3])
		if err != nil {
			return out, err
		}
		out[ch] = v
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
