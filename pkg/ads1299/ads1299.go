// Package ads1299 speaks the register-and-sample protocol of the TI ADS1299
// 8-channel EEG front-end: SPI opcodes, the power-up register table used by
// the PiEEG-16 board, and the continuous-read frame and 24-bit sample codecs.
package ads1299

// SPI opcodes.
const (
	CmdWakeup byte = 0x02
	CmdStop   byte = 0x0A
	CmdReset  byte = 0x06
	CmdStart  byte = 0x08
	CmdRDATAC byte = 0x10
	CmdSDATAC byte = 0x11

	cmdWriteReg byte = 0x40
)

// Register addresses.
const (
	RegConfig1  byte = 0x01
	RegConfig2  byte = 0x02
	RegConfig3  byte = 0x03
	RegLOff     byte = 0x04
	RegCh1Set   byte = 0x05
	RegCh2Set   byte = 0x06
	RegCh3Set   byte = 0x07
	RegCh4Set   byte = 0x08
	RegCh5Set   byte = 0x09
	RegCh6Set   byte = 0x0A
	RegCh7Set   byte = 0x0B
	RegCh8Set   byte = 0x0C
	RegBiasSenP byte = 0x0D
	RegBiasSenN byte = 0x0E
	RegLOffSenP byte = 0x0F
	RegLOffSenN byte = 0x10
	RegLOffFlip byte = 0x11
	RegGPIO     byte = 0x14
	RegMisc1    byte = 0x15
)

const (
	// ChannelsPerChip is fixed by the silicon.
	ChannelsPerChip = 8

	// FrameSize is one continuous-read frame: 3 status bytes followed by
	// 8 channels x 3 bytes.
	FrameSize = 3 + ChannelsPerChip*3
)

// StatusPattern is the status-byte triple every healthy frame starts with.
var StatusPattern = [3]byte{0xC0, 0x00, 0x08}

// RegisterValue is one entry of the power-up configuration table.
type RegisterValue struct {
	Reg   byte
	Value byte
}

// InitSequence is the register table written to each chip after reset:
// 250 SPS, internal reference and bias, every channel active at gain x1,
// lead-off detection disabled. Values match the PiEEG-16 reference setup.
func InitSequence() []RegisterValue {
	seq := []RegisterValue{
		{RegGPIO, 0x80},
		{RegConfig1, 0x96},
		{RegConfig2, 0xD4},
		{RegConfig3, 0xFF},
		{RegLOff, 0x00},
		{RegBiasSenP, 0x00},
		{RegBiasSenN, 0x00},
		{RegLOffSenP, 0x00},
		{RegLOffSenN, 0x00},
		{RegLOffFlip, 0x00},
		{RegMisc1, 0x20},
	}
	for reg := RegCh1Set; reg <= RegCh8Set; reg++ {
		seq = append(seq, RegisterValue{reg, 0x00})
	}
	return seq
}

// WriteRegisterFrame encodes a single-register write transaction: the write
// opcode OR'd with the register address, a count byte (registers minus one),
// and the value.
func WriteRegisterFrame(reg, value byte) []byte {
	return []byte{cmdWriteReg | reg, 0x00, value}
}

// ChipConfig addresses one physical chip and the batch rows it fills.
type ChipConfig struct {
	Name          string
	Bus           int
	Device        int
	ChannelOffset int
}

// DefaultTopology is the PiEEG-16 board layout: two chips on one SPI bus,
// the secondary on the next chip-select, covering 16 channels.
func DefaultTopology(bus, device int) []ChipConfig {
	return []ChipConfig{
		{Name: "primary", Bus: bus, Device: device, ChannelOffset: 0},
		{Name: "secondary", Bus: bus, Device: device + 1, ChannelOffset: ChannelsPerChip},
	}
}
