package vgm

import (
	"errors"
	"reflect"
	"testing"
)

// roundTripCommands covers every encodable variant, both dual-chip
// methods, and both chip indices.
var roundTripCommands = []Command{
	PSGWrite{Chip: 0, Value: 0x9F},
	PSGWrite{Chip: 1, Value: 0x9F},
	GameGearStereoWrite{Chip: 0, Value: 0xFF},
	GameGearStereoWrite{Chip: 1, Value: 0xFF},
	AY8910StereoMask{Value: 0x55},
	YM2413Write{Chip: 0, Register: 0x30, Value: 0x12},
	YM2413Write{Chip: 1, Register: 0x30, Value: 0x12},
	YM2612Write{Chip: 0, Port: 0, Register: 0x2A, Value: 0x80},
	YM2612Write{Chip: 0, Port: 1, Register: 0xB0, Value: 0x07},
	YM2612Write{Chip: 1, Port: 0, Register: 0x2A, Value: 0x80},
	YM2612Write{Chip: 1, Port: 1, Register: 0xB0, Value: 0x07},
	YM2151Write{Chip: 0, Register: 0x08, Value: 0x01},
	YM2151Write{Chip: 1, Register: 0x08, Value: 0x01},
	YM2203Write{Chip: 0, Register: 0x28, Value: 0xF0},
	YM2608Write{Chip: 0, Port: 1, Register: 0x10, Value: 0x80},
	YM2610Write{Chip: 1, Port: 0, Register: 0x00, Value: 0x01},
	YM3812Write{Chip: 0, Register: 0xBD, Value: 0x20},
	YM3526Write{Chip: 1, Register: 0xBD, Value: 0x20},
	Y8950Write{Chip: 0, Register: 0x07, Value: 0x40},
	YMZ280BWrite{Chip: 1, Register: 0x01, Value: 0xFF},
	YMF262Write{Chip: 0, Port: 1, Register: 0x05, Value: 0x01},
	WaitNSamples{Samples: 44100},
	Wait735Samples{},
	Wait882Samples{},
	EndOfSoundData{},
	DataBlock{BlockType: 0x00, Content: &UncompressedStream{Data: []byte{1, 2, 3, 4}}},
	DataBlock{BlockType: 0x81, Content: &ROMDump{TotalSize: 0x200000, StartAddress: 0x1000, Data: []byte{0xAA}}},
	WaitNSamplesPlus1{N: 0},
	WaitNSamplesPlus1{N: 15},
	YM2612DataWait{Wait: 0},
	YM2612DataWait{Wait: 15},
	DACStreamSetup{StreamID: 1, Chip: 0, ChipType: 0x02, Port: 0, Command: 0x2A},
	DACStreamSetup{StreamID: 1, Chip: 1, ChipType: 0x02, Port: 0, Command: 0x2A},
	DACStreamSetData{StreamID: 1, DataBankID: 0, StepSize: 1, StepBase: 0},
	DACStreamSetFrequency{StreamID: 1, Frequency: 32000},
	DACStreamStart{StreamID: 1, DataStartOffset: 0x40, LengthMode: 0x01, DataLength: 0x1000},
	DACStreamStop{StreamID: 1},
	DACStreamStartFast{StreamID: 1, BlockID: 7, Flags: 0x01},
	AY8910Write{Chip: 0, Register: 0x0D, Value: 0x0E},
	AY8910Write{Chip: 1, Register: 0x0D, Value: 0x0E},
	RF5C68Write{Chip: 0, Register: 0x07, Value: 0xC0},
	RF5C164Write{Chip: 1, Register: 0x07, Value: 0xC0},
	PWMWrite{Register: 0x0F, Value: 0x0FFF},
	GameBoyDMGWrite{Chip: 0, Register: 0x16, Value: 0x80},
	NESAPUWrite{Chip: 1, Register: 0x15, Value: 0x0F},
	MultiPCMWrite{Chip: 0, Register: 0x1C, Value: 0x01},
	UPD7759Write{Chip: 1, Register: 0x00, Value: 0x01},
	OKIM6258Write{Chip: 0, Register: 0x01, Value: 0x02},
	OKIM6295Write{Chip: 1, Register: 0x00, Value: 0x78},
	HuC6280Write{Chip: 0, Register: 0x02, Value: 0x1F},
	K053260Write{Chip: 1, Register: 0x2F, Value: 0x01},
	PokeyWrite{Chip: 0, Register: 0x08, Value: 0x00},
	WonderSwanWrite{Chip: 1, Register: 0x10, Value: 0x5A},
	SAA1099Write{Chip: 0, Register: 0x1C, Value: 0x01},
	ES5506Write{Chip: 1, Register: 0x20, Value: 0x10},
	GA20Write{Chip: 0, Register: 0x00, Value: 0xFF},
	SegaPCMWrite{Offset: 0x1234, Value: 0x56},
	RF5C68MemoryWrite{Offset: 0x0800, Value: 0x12},
	RF5C164MemoryWrite{Offset: 0x0800, Value: 0x12},
	MultiPCMSetBank{Channel: 3, Offset: 0x4000},
	QSoundWrite{Register: 0x10, Value: 0xBEEF},
	SCSPWrite{Offset: 0x0400, Value: 0x7F},
	WonderSwanMemoryWrite{Offset: 0x0100, Value: 0x33},
	VSUWrite{Offset: 0x0580, Value: 0x44},
	X1010Write{Offset: 0x1000, Value: 0x55},
	YMF278BWrite{Chip: 0, Port: 2, Register: 0x10, Value: 0x20},
	YMF278BWrite{Chip: 1, Port: 2, Register: 0x10, Value: 0x20},
	YMF271Write{Chip: 0, Port: 1, Register: 0x04, Value: 0x08},
	SCC1Write{Chip: 1, Port: 0, Register: 0x02, Value: 0x40},
	K054539Write{Chip: 0, Register: 0x1234, Value: 0x56},
	K054539Write{Chip: 1, Register: 0x1234, Value: 0x56},
	C140Write{Chip: 0, Register: 0x01FF, Value: 0x7F},
	ES5503Write{Chip: 1, Register: 0x00A0, Value: 0x01},
	ES5506Write16{Chip: 0, Register: 0x40, Value: 0xCAFE},
	ES5506Write16{Chip: 1, Register: 0x40, Value: 0xCAFE},
	SeekPCM{Offset: 0xDEADBEEF},
	C352Write{Chip: 0, Register: 0x0123, Value: 0x4567},
	C352Write{Chip: 1, Register: 0x0123, Value: 0x4567},
}

func TestCommandRoundTrip(t *testing.T) {
	for _, cmd := range roundTripCommands {
		encoded, err := EncodeCommand(cmd)
		if err != nil {
			t.Fatalf("%T: encode: %v", cmd, err)
		}
		got, n, err := DecodeCommand(encoded, 0, nil)
		if err != nil {
			t.Fatalf("%T: decode: %v", cmd, err)
		}
		if n != len(encoded) {
			t.Fatalf("%T: consumed %d of %d bytes", cmd, n, len(encoded))
		}
		if !reflect.DeepEqual(got, cmd) {
			t.Fatalf("round trip: got %#v, want %#v", got, cmd)
		}
	}
}

func TestDualChipMethod2BitSeven(t *testing.T) {
	// For Method-2 opcodes the encoded register byte's bit 7 tracks the
	// chip index, and the decoded register never keeps that bit.
	for _, chip := range []uint8{0, 1} {
		encoded, err := EncodeCommand(AY8910Write{Chip: chip, Register: 0x0D, Value: 0x01})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if got := encoded[1]>>7 != 0; got != (chip == 1) {
			t.Fatalf("chip %d: register bit 7 = %v", chip, got)
		}
		decoded, _, err := DecodeCommand(encoded, 0, nil)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		w := decoded.(AY8910Write)
		if w.Register&0x80 != 0 {
			t.Fatalf("chip %d: decoded register keeps bit 7", chip)
		}
		if w.Chip != chip {
			t.Fatalf("decoded chip = %d, want %d", w.Chip, chip)
		}
	}
}

func TestDecodeC352DualChip(t *testing.T) {
	// The high register byte's bit 7 selects the second chip and never
	// reaches the decoded register.
	cmd, n, err := DecodeCommand([]byte{0xE1, 0x81, 0x23, 0x45, 0x67}, 0, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != 5 {
		t.Fatalf("consumed %d bytes, want 5", n)
	}
	w := cmd.(C352Write)
	want := C352Write{Chip: 1, Register: 0x0123, Value: 0x4567}
	if w != want {
		t.Fatalf("got %#v, want %#v", w, want)
	}
	encoded, err := EncodeCommand(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if encoded[1] != 0x81 {
		t.Fatalf("encoded register high byte = 0x%02X, want 0x81", encoded[1])
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	_, _, err := DecodeCommand([]byte{0xFF}, 42, nil)
	var unknownErr *UnknownCommandError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownCommandError, got %v", err)
	}
	if unknownErr.Opcode != 0xFF || unknownErr.Offset != 42 {
		t.Fatalf("got opcode 0x%02X at %d", unknownErr.Opcode, unknownErr.Offset)
	}
}

func TestDecodeBadCompatByte(t *testing.T) {
	_, _, err := DecodeCommand([]byte{0x67, 0x12, 0x00, 0x00, 0x00, 0x00, 0x00}, 0, nil)
	var compatErr *CompatByteError
	if !errors.As(err, &compatErr) {
		t.Fatalf("expected CompatByteError, got %v", err)
	}
	if compatErr.Found != 0x12 || compatErr.Opcode != 0x67 {
		t.Fatalf("got opcode 0x%02X found 0x%02X", compatErr.Opcode, compatErr.Found)
	}
}

func TestDecodePCMRAMWrite(t *testing.T) {
	data := []byte{0x68, 0x66, 0x01,
		0x10, 0x00, 0x00, // read offset
		0x00, 0x20, 0x00, // write offset
		0x00, 0x00, 0x00, // size 0 means 0x01000000
	}
	cmd, n, err := DecodeCommand(data, 0, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != 12 {
		t.Fatalf("consumed %d bytes, want 12", n)
	}
	w := cmd.(PCMRAMWrite)
	want := PCMRAMWrite{ChipType: 0x01, ReadOffset: 0x10, WriteOffset: 0x2000, Size: 0x01000000}
	if w != want {
		t.Fatalf("got %#v, want %#v", w, want)
	}

	_, err = EncodeCommand(w)
	var encErr *UnsupportedEncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected UnsupportedEncodeError, got %v", err)
	}
}

func TestDecodeDataBlockCommand(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	data := append([]byte{0x67, 0x66, 0x00, 0x04, 0x00, 0x00, 0x00}, payload...)
	cmd, n, err := DecodeCommand(data, 0, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(data) {
		t.Fatalf("consumed %d of %d bytes", n, len(data))
	}
	block := cmd.(DataBlock)
	if block.BlockType != 0x00 {
		t.Fatalf("BlockType = 0x%02X", block.BlockType)
	}
	stream := block.Content.(*UncompressedStream)
	if !reflect.DeepEqual(stream.Data, payload) {
		t.Fatalf("payload = % X", stream.Data)
	}
}

func TestDecodeCommandsStopsAtEnd(t *testing.T) {
	data := []byte{
		0x50, 0x9F, // PSG write
		0x62,       // wait 735
		0x66,       // end of sound data
		0x50, 0x00, // trailing garbage past the terminator
	}
	cmds, n, err := DecodeCommands(data, 0, nil)
	if err != nil {
		t.Fatalf("DecodeCommands: %v", err)
	}
	if n != 4 {
		t.Fatalf("consumed %d bytes, want 4", n)
	}
	want := []Command{PSGWrite{Value: 0x9F}, Wait735Samples{}, EndOfSoundData{}}
	if !reflect.DeepEqual(cmds, want) {
		t.Fatalf("got %#v", cmds)
	}
	if _, ok := cmds[len(cmds)-1].(EndOfSoundData); !ok {
		t.Fatal("stream must end with EndOfSoundData")
	}
}

func TestDecodeCommandsMissingTerminator(t *testing.T) {
	// Running out of input exactly at a command boundary is still an
	// error: the stream must contain an end-of-sound-data command.
	data := []byte{
		0x50, 0x9F, // PSG write
		0x62, // wait 735
	}
	_, _, err := DecodeCommands(data, 0, nil)
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestDecodeCommandsTruncatedMidCommand(t *testing.T) {
	_, _, err := DecodeCommands([]byte{0x61, 0x10}, 0, nil)
	var truncErr *TruncatedError
	if !errors.As(err, &truncErr) {
		t.Fatalf("expected TruncatedError, got %v", err)
	}
}
