package vgm

import "encoding/binary"

// Command is one decoded element of the command stream. The set of
// implementations is closed: every opcode family in the grammar has
// exactly one variant, and unknown opcodes fail decoding rather than
// producing a catch-all value.
type Command interface {
	// appendTo serializes the command onto dst in wire form.
	appendTo(dst []byte) ([]byte, error)
}

// Dual-chip conventions. Method 1 families use a parallel opcode for the
// second chip; method1Opcode picks it. Method 2 families fold the chip
// index into bit 7 of the register (or first operand) byte; method2Reg
// builds that byte and decode masks it off again.

func method1Opcode(chip uint8, first, second byte) byte {
	if chip != 0 {
		return second
	}
	return first
}

func method2Reg(chip uint8, reg byte) byte {
	if chip != 0 {
		return reg&0x7F | 0x80
	}
	return reg & 0x7F
}

// PSGWrite writes one byte to an SN76489 PSG. Chip 1 uses the parallel
// opcode 0x30.
type PSGWrite struct {
	Chip  uint8
	Value byte
}

func (c PSGWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, method1Opcode(c.Chip, 0x50, 0x30), c.Value), nil
}

// GameGearStereoWrite sets the Game Gear PSG stereo byte. Chip 1 uses
// the parallel opcode 0x3F.
type GameGearStereoWrite struct {
	Chip  uint8
	Value byte
}

func (c GameGearStereoWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, method1Opcode(c.Chip, 0x4F, 0x3F), c.Value), nil
}

// AY8910StereoMask sets the AY8910 stereo routing mask.
type AY8910StereoMask struct {
	Value byte
}

func (c AY8910StereoMask) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0x31, c.Value), nil
}

// The 0x5X family: FM register writes addressed as register/value pairs,
// with the second chip reached through the 0xAX mirror range. Chips with
// two register ports carry a Port field selecting the low or high opcode
// of their pair.

type YM2413Write struct {
	Chip            uint8
	Register, Value byte
}

func (c YM2413Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, method1Opcode(c.Chip, 0x51, 0xA1), c.Register, c.Value), nil
}

type YM2612Write struct {
	Chip            uint8
	Port            uint8
	Register, Value byte
}

func (c YM2612Write) appendTo(dst []byte) ([]byte, error) {
	op := method1Opcode(c.Chip, 0x52, 0xA2)
	if c.Port != 0 {
		op++
	}
	return append(dst, op, c.Register, c.Value), nil
}

type YM2151Write struct {
	Chip            uint8
	Register, Value byte
}

func (c YM2151Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, method1Opcode(c.Chip, 0x54, 0xA4), c.Register, c.Value), nil
}

type YM2203Write struct {
	Chip            uint8
	Register, Value byte
}

func (c YM2203Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, method1Opcode(c.Chip, 0x55, 0xA5), c.Register, c.Value), nil
}

type YM2608Write struct {
	Chip            uint8
	Port            uint8
	Register, Value byte
}

func (c YM2608Write) appendTo(dst []byte) ([]byte, error) {
	op := method1Opcode(c.Chip, 0x56, 0xA6)
	if c.Port != 0 {
		op++
	}
	return append(dst, op, c.Register, c.Value), nil
}

type YM2610Write struct {
	Chip            uint8
	Port            uint8
	Register, Value byte
}

func (c YM2610Write) appendTo(dst []byte) ([]byte, error) {
	op := method1Opcode(c.Chip, 0x58, 0xA8)
	if c.Port != 0 {
		op++
	}
	return append(dst, op, c.Register, c.Value), nil
}

type YM3812Write struct {
	Chip            uint8
	Register, Value byte
}

func (c YM3812Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, method1Opcode(c.Chip, 0x5A, 0xAA), c.Register, c.Value), nil
}

type YM3526Write struct {
	Chip            uint8
	Register, Value byte
}

func (c YM3526Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, method1Opcode(c.Chip, 0x5B, 0xAB), c.Register, c.Value), nil
}

type Y8950Write struct {
	Chip            uint8
	Register, Value byte
}

func (c Y8950Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, method1Opcode(c.Chip, 0x5C, 0xAC), c.Register, c.Value), nil
}

type YMZ280BWrite struct {
	Chip            uint8
	Register, Value byte
}

func (c YMZ280BWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, method1Opcode(c.Chip, 0x5D, 0xAD), c.Register, c.Value), nil
}

type YMF262Write struct {
	Chip            uint8
	Port            uint8
	Register, Value byte
}

func (c YMF262Write) appendTo(dst []byte) ([]byte, error) {
	op := method1Opcode(c.Chip, 0x5E, 0xAE)
	if c.Port != 0 {
		op++
	}
	return append(dst, op, c.Register, c.Value), nil
}

// WaitNSamples pauses playback for Samples samples at 44100 Hz.
type WaitNSamples struct {
	Samples uint16
}

func (c WaitNSamples) appendTo(dst []byte) ([]byte, error) {
	dst = append(dst, 0x61)
	return binary.LittleEndian.AppendUint16(dst, c.Samples), nil
}

// Wait735Samples is the dedicated one-byte opcode for a 1/60 s wait. It
// is kept distinct from WaitNSamples{735} so re-encoding reproduces the
// original byte.
type Wait735Samples struct{}

func (c Wait735Samples) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0x62), nil
}

// Wait882Samples is the dedicated one-byte opcode for a 1/50 s wait.
type Wait882Samples struct{}

func (c Wait882Samples) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0x63), nil
}

// EndOfSoundData terminates the command stream. Every decoded stream
// ends with exactly one.
type EndOfSoundData struct{}

func (c EndOfSoundData) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0x66), nil
}

// DataBlock embeds a chunk of sample or ROM data in the stream.
type DataBlock struct {
	BlockType byte
	Content   DataBlockContent
}

func (c DataBlock) appendTo(dst []byte) ([]byte, error) {
	dst = append(dst, 0x67, 0x66, c.BlockType)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(c.Content.encodedSize()))
	return c.Content.appendTo(dst), nil
}

// PCMRAMWrite copies Size bytes from a previously loaded data block into
// chip RAM. A wire Size field of zero decodes as 0x01000000. The format
// does not define a stable reverse encoding for the zero/full-size
// ambiguity, so PCMRAMWrite values cannot be re-encoded.
type PCMRAMWrite struct {
	ChipType    byte
	ReadOffset  uint32
	WriteOffset uint32
	Size        uint32
}

func (c PCMRAMWrite) appendTo(dst []byte) ([]byte, error) {
	return dst, &UnsupportedEncodeError{Command: "PCMRAMWrite"}
}

// WaitNSamplesPlus1 is the 0x7n short wait: the actual wait is N+1
// samples, N in 0..15.
type WaitNSamplesPlus1 struct {
	N uint8
}

func (c WaitNSamplesPlus1) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0x70+c.N&0x0F), nil
}

// YM2612DataWait is the 0x8n opcode: write one byte from the PCM data
// bank to YM2612 port 0 register 0x2A, then wait Wait samples (0..15).
type YM2612DataWait struct {
	Wait uint8
}

func (c YM2612DataWait) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0x80+c.Wait&0x0F), nil
}

// DAC stream control (0x90-0x95): six fixed-shape sub-commands that set
// up streamed PCM playback from loaded data banks. The chip-type byte of
// DACStreamSetup carries the Method-2 chip bit.

type DACStreamSetup struct {
	StreamID byte
	Chip     uint8
	ChipType byte
	Port     byte
	Command  byte
}

func (c DACStreamSetup) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0x90, c.StreamID, method2Reg(c.Chip, c.ChipType), c.Port, c.Command), nil
}

type DACStreamSetData struct {
	StreamID   byte
	DataBankID byte
	StepSize   byte
	StepBase   byte
}

func (c DACStreamSetData) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0x91, c.StreamID, c.DataBankID, c.StepSize, c.StepBase), nil
}

type DACStreamSetFrequency struct {
	StreamID  byte
	Frequency uint32
}

func (c DACStreamSetFrequency) appendTo(dst []byte) ([]byte, error) {
	dst = append(dst, 0x92, c.StreamID)
	return binary.LittleEndian.AppendUint32(dst, c.Frequency), nil
}

type DACStreamStart struct {
	StreamID        byte
	DataStartOffset uint32
	LengthMode      byte
	DataLength      uint32
}

func (c DACStreamStart) appendTo(dst []byte) ([]byte, error) {
	dst = append(dst, 0x93, c.StreamID)
	dst = binary.LittleEndian.AppendUint32(dst, c.DataStartOffset)
	dst = append(dst, c.LengthMode)
	return binary.LittleEndian.AppendUint32(dst, c.DataLength), nil
}

type DACStreamStop struct {
	StreamID byte
}

func (c DACStreamStop) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0x94, c.StreamID), nil
}

type DACStreamStartFast struct {
	StreamID byte
	BlockID  uint16
	Flags    byte
}

func (c DACStreamStartFast) appendTo(dst []byte) ([]byte, error) {
	dst = append(dst, 0x95, c.StreamID)
	dst = binary.LittleEndian.AppendUint16(dst, c.BlockID)
	return append(dst, c.Flags), nil
}

// AY8910Write writes an AY8910 register. The chip index rides bit 7 of
// the register byte (Method 2); Register is always the masked 7-bit
// value.
type AY8910Write struct {
	Chip            uint8
	Register, Value byte
}

func (c AY8910Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xA0, method2Reg(c.Chip, c.Register), c.Value), nil
}

// The 0xBX family: register/value writes for chips added after the 0x5X
// range filled up. All carry the Method-2 chip bit in the register byte
// except PWMWrite, whose operands pack a 4-bit register and 12-bit value
// instead.

type RF5C68Write struct {
	Chip            uint8
	Register, Value byte
}

func (c RF5C68Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xB0, method2Reg(c.Chip, c.Register), c.Value), nil
}

type RF5C164Write struct {
	Chip            uint8
	Register, Value byte
}

func (c RF5C164Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xB1, method2Reg(c.Chip, c.Register), c.Value), nil
}

// PWMWrite writes a 12-bit value to one of the PWM chip's 16 registers.
type PWMWrite struct {
	Register uint8
	Value    uint16
}

func (c PWMWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xB2, c.Register<<4|byte(c.Value>>8)&0x0F, byte(c.Value)), nil
}

type GameBoyDMGWrite struct {
	Chip            uint8
	Register, Value byte
}

func (c GameBoyDMGWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xB3, method2Reg(c.Chip, c.Register), c.Value), nil
}

type NESAPUWrite struct {
	Chip            uint8
	Register, Value byte
}

func (c NESAPUWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xB4, method2Reg(c.Chip, c.Register), c.Value), nil
}

type MultiPCMWrite struct {
	Chip            uint8
	Register, Value byte
}

func (c MultiPCMWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xB5, method2Reg(c.Chip, c.Register), c.Value), nil
}

type UPD7759Write struct {
	Chip            uint8
	Register, Value byte
}

func (c UPD7759Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xB6, method2Reg(c.Chip, c.Register), c.Value), nil
}

type OKIM6258Write struct {
	Chip            uint8
	Register, Value byte
}

func (c OKIM6258Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xB7, method2Reg(c.Chip, c.Register), c.Value), nil
}

type OKIM6295Write struct {
	Chip            uint8
	Register, Value byte
}

func (c OKIM6295Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xB8, method2Reg(c.Chip, c.Register), c.Value), nil
}

type HuC6280Write struct {
	Chip            uint8
	Register, Value byte
}

func (c HuC6280Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xB9, method2Reg(c.Chip, c.Register), c.Value), nil
}

type K053260Write struct {
	Chip            uint8
	Register, Value byte
}

func (c K053260Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xBA, method2Reg(c.Chip, c.Register), c.Value), nil
}

type PokeyWrite struct {
	Chip            uint8
	Register, Value byte
}

func (c PokeyWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xBB, method2Reg(c.Chip, c.Register), c.Value), nil
}

type WonderSwanWrite struct {
	Chip            uint8
	Register, Value byte
}

func (c WonderSwanWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xBC, method2Reg(c.Chip, c.Register), c.Value), nil
}

type SAA1099Write struct {
	Chip            uint8
	Register, Value byte
}

func (c SAA1099Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xBD, method2Reg(c.Chip, c.Register), c.Value), nil
}

// ES5506Write is the 8-bit ES5506 register write; ES5506Write16 covers
// the 16-bit form at 0xD6.
type ES5506Write struct {
	Chip            uint8
	Register, Value byte
}

func (c ES5506Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xBE, method2Reg(c.Chip, c.Register), c.Value), nil
}

type GA20Write struct {
	Chip            uint8
	Register, Value byte
}

func (c GA20Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xBF, method2Reg(c.Chip, c.Register), c.Value), nil
}

// The 0xCX family: three-operand memory and bank writes. 0xC0-0xC3
// store their offsets little-endian, 0xC4-0xC8 high byte first.

type SegaPCMWrite struct {
	Offset uint16
	Value  byte
}

func (c SegaPCMWrite) appendTo(dst []byte) ([]byte, error) {
	dst = append(dst, 0xC0)
	dst = binary.LittleEndian.AppendUint16(dst, c.Offset)
	return append(dst, c.Value), nil
}

type RF5C68MemoryWrite struct {
	Offset uint16
	Value  byte
}

func (c RF5C68MemoryWrite) appendTo(dst []byte) ([]byte, error) {
	dst = append(dst, 0xC1)
	dst = binary.LittleEndian.AppendUint16(dst, c.Offset)
	return append(dst, c.Value), nil
}

type RF5C164MemoryWrite struct {
	Offset uint16
	Value  byte
}

func (c RF5C164MemoryWrite) appendTo(dst []byte) ([]byte, error) {
	dst = append(dst, 0xC2)
	dst = binary.LittleEndian.AppendUint16(dst, c.Offset)
	return append(dst, c.Value), nil
}

type MultiPCMSetBank struct {
	Channel byte
	Offset  uint16
}

func (c MultiPCMSetBank) appendTo(dst []byte) ([]byte, error) {
	dst = append(dst, 0xC3, c.Channel)
	return binary.LittleEndian.AppendUint16(dst, c.Offset), nil
}

type QSoundWrite struct {
	Register byte
	Value    uint16
}

func (c QSoundWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xC4, byte(c.Value>>8), byte(c.Value), c.Register), nil
}

type SCSPWrite struct {
	Offset uint16
	Value  byte
}

func (c SCSPWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xC5, byte(c.Offset>>8), byte(c.Offset), c.Value), nil
}

type WonderSwanMemoryWrite struct {
	Offset uint16
	Value  byte
}

func (c WonderSwanMemoryWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xC6, byte(c.Offset>>8), byte(c.Offset), c.Value), nil
}

type VSUWrite struct {
	Offset uint16
	Value  byte
}

func (c VSUWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xC7, byte(c.Offset>>8), byte(c.Offset), c.Value), nil
}

type X1010Write struct {
	Offset uint16
	Value  byte
}

func (c X1010Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xC8, byte(c.Offset>>8), byte(c.Offset), c.Value), nil
}

// The 0xDX family: port- or wide-register writes. The first operand byte
// carries the Method-2 chip bit; for K054539Write, C140Write and
// ES5503Write it is also the high byte of a big-endian register number,
// so Register holds 15 significant bits.

type YMF278BWrite struct {
	Chip                  uint8
	Port, Register, Value byte
}

func (c YMF278BWrite) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xD0, method2Reg(c.Chip, c.Port), c.Register, c.Value), nil
}

type YMF271Write struct {
	Chip                  uint8
	Port, Register, Value byte
}

func (c YMF271Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xD1, method2Reg(c.Chip, c.Port), c.Register, c.Value), nil
}

type SCC1Write struct {
	Chip                  uint8
	Port, Register, Value byte
}

func (c SCC1Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xD2, method2Reg(c.Chip, c.Port), c.Register, c.Value), nil
}

type K054539Write struct {
	Chip     uint8
	Register uint16
	Value    byte
}

func (c K054539Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xD3, method2Reg(c.Chip, byte(c.Register>>8)), byte(c.Register), c.Value), nil
}

type C140Write struct {
	Chip     uint8
	Register uint16
	Value    byte
}

func (c C140Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xD4, method2Reg(c.Chip, byte(c.Register>>8)), byte(c.Register), c.Value), nil
}

type ES5503Write struct {
	Chip     uint8
	Register uint16
	Value    byte
}

func (c ES5503Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xD5, method2Reg(c.Chip, byte(c.Register>>8)), byte(c.Register), c.Value), nil
}

type ES5506Write16 struct {
	Chip     uint8
	Register byte
	Value    uint16
}

func (c ES5506Write16) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xD6, method2Reg(c.Chip, c.Register), byte(c.Value>>8), byte(c.Value)), nil
}

// SeekPCM repositions the YM2612 PCM data bank cursor.
type SeekPCM struct {
	Offset uint32
}

func (c SeekPCM) appendTo(dst []byte) ([]byte, error) {
	dst = append(dst, 0xE0)
	return binary.LittleEndian.AppendUint32(dst, c.Offset), nil
}

// C352Write writes a 16-bit value to a 15-bit C352 register, both stored
// high byte first. Bit 7 of the register's high byte carries the chip
// index on the wire.
type C352Write struct {
	Chip     uint8
	Register uint16
	Value    uint16
}

func (c C352Write) appendTo(dst []byte) ([]byte, error) {
	return append(dst, 0xE1, method2Reg(c.Chip, byte(c.Register>>8)), byte(c.Register), byte(c.Value>>8), byte(c.Value)), nil
}
