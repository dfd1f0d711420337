package vgm

import (
	"encoding/binary"
	"fmt"
)

// DecodeCommand parses exactly one command from the front of data,
// returning the command and the number of bytes it consumed. offset is
// the absolute file position of data[0] and is used only for error
// context. A nil tracker disables resource guarding; the decode logic is
// the same either way.
func DecodeCommand(data []byte, offset int, tracker *ResourceTracker) (Command, int, error) {
	if len(data) == 0 {
		return nil, 0, &TruncatedError{Field: "command opcode", Offset: offset, Need: 1, Have: 0}
	}
	op := data[0]

	need := func(n int, field string) error {
		if len(data) < n {
			return &TruncatedError{Field: field, Offset: offset, Need: n, Have: len(data)}
		}
		return nil
	}

	switch {
	case op == 0x30:
		if err := need(2, "PSG write"); err != nil {
			return nil, 0, err
		}
		return PSGWrite{Chip: 1, Value: data[1]}, 2, nil
	case op == 0x31:
		if err := need(2, "AY8910 stereo mask"); err != nil {
			return nil, 0, err
		}
		return AY8910StereoMask{Value: data[1]}, 2, nil
	case op == 0x3F:
		if err := need(2, "Game Gear stereo write"); err != nil {
			return nil, 0, err
		}
		return GameGearStereoWrite{Chip: 1, Value: data[1]}, 2, nil
	case op == 0x4F:
		if err := need(2, "Game Gear stereo write"); err != nil {
			return nil, 0, err
		}
		return GameGearStereoWrite{Value: data[1]}, 2, nil
	case op == 0x50:
		if err := need(2, "PSG write"); err != nil {
			return nil, 0, err
		}
		return PSGWrite{Value: data[1]}, 2, nil

	case op >= 0x51 && op <= 0x5F, op >= 0xA1 && op <= 0xAF:
		if err := need(3, "FM register write"); err != nil {
			return nil, 0, err
		}
		var chip uint8
		fam := op
		if op >= 0xA1 {
			chip = 1
			fam = op - 0x50
		}
		cmd, err := decodeFMWrite(fam, chip, data[1], data[2], offset)
		if err != nil {
			return nil, 0, err
		}
		return cmd, 3, nil

	case op == 0x61:
		if err := need(3, "wait"); err != nil {
			return nil, 0, err
		}
		return WaitNSamples{Samples: binary.LittleEndian.Uint16(data[1:3])}, 3, nil
	case op == 0x62:
		return Wait735Samples{}, 1, nil
	case op == 0x63:
		return Wait882Samples{}, 1, nil
	case op == 0x66:
		return EndOfSoundData{}, 1, nil

	case op == 0x67:
		if err := need(2, "data block header"); err != nil {
			return nil, 0, err
		}
		if data[1] != 0x66 {
			return nil, 0, &CompatByteError{Opcode: 0x67, Found: data[1], Offset: offset + 1}
		}
		if err := need(7, "data block header"); err != nil {
			return nil, 0, err
		}
		blockType := data[2]
		size := binary.LittleEndian.Uint32(data[3:7])
		if err := tracker.TrackDataBlock(uint64(size)); err != nil {
			return nil, 0, err
		}
		if err := need(7+int(size), "data block payload"); err != nil {
			return nil, 0, err
		}
		if err := tracker.EnterParsingContext(); err != nil {
			return nil, 0, err
		}
		content, err := DecodeDataBlock(blockType, size, data[7:7+size])
		tracker.ExitParsingContext()
		if err != nil {
			return nil, 0, err
		}
		return DataBlock{BlockType: blockType, Content: content}, 7 + int(size), nil

	case op == 0x68:
		if err := need(2, "PCM RAM write"); err != nil {
			return nil, 0, err
		}
		if data[1] != 0x66 {
			return nil, 0, &CompatByteError{Opcode: 0x68, Found: data[1], Offset: offset + 1}
		}
		if err := need(12, "PCM RAM write"); err != nil {
			return nil, 0, err
		}
		size := uint24(data[9:12])
		if size == 0 {
			size = 0x01000000
		}
		if err := tracker.TrackDataBlock(uint64(size)); err != nil {
			return nil, 0, err
		}
		return PCMRAMWrite{
			ChipType:    data[2],
			ReadOffset:  uint24(data[3:6]),
			WriteOffset: uint24(data[6:9]),
			Size:        size,
		}, 12, nil

	case op >= 0x70 && op <= 0x7F:
		return WaitNSamplesPlus1{N: op - 0x70}, 1, nil
	case op >= 0x80 && op <= 0x8F:
		return YM2612DataWait{Wait: op - 0x80}, 1, nil

	case op == 0x90:
		if err := need(5, "DAC stream setup"); err != nil {
			return nil, 0, err
		}
		return DACStreamSetup{
			StreamID: data[1],
			Chip:     data[2] >> 7,
			ChipType: data[2] & 0x7F,
			Port:     data[3],
			Command:  data[4],
		}, 5, nil
	case op == 0x91:
		if err := need(5, "DAC stream set data"); err != nil {
			return nil, 0, err
		}
		return DACStreamSetData{
			StreamID:   data[1],
			DataBankID: data[2],
			StepSize:   data[3],
			StepBase:   data[4],
		}, 5, nil
	case op == 0x92:
		if err := need(6, "DAC stream set frequency"); err != nil {
			return nil, 0, err
		}
		return DACStreamSetFrequency{
			StreamID:  data[1],
			Frequency: binary.LittleEndian.Uint32(data[2:6]),
		}, 6, nil
	case op == 0x93:
		if err := need(11, "DAC stream start"); err != nil {
			return nil, 0, err
		}
		return DACStreamStart{
			StreamID:        data[1],
			DataStartOffset: binary.LittleEndian.Uint32(data[2:6]),
			LengthMode:      data[6],
			DataLength:      binary.LittleEndian.Uint32(data[7:11]),
		}, 11, nil
	case op == 0x94:
		if err := need(2, "DAC stream stop"); err != nil {
			return nil, 0, err
		}
		return DACStreamStop{StreamID: data[1]}, 2, nil
	case op == 0x95:
		if err := need(5, "DAC stream start fast"); err != nil {
			return nil, 0, err
		}
		return DACStreamStartFast{
			StreamID: data[1],
			BlockID:  binary.LittleEndian.Uint16(data[2:4]),
			Flags:    data[4],
		}, 5, nil

	case op == 0xA0:
		if err := need(3, "AY8910 write"); err != nil {
			return nil, 0, err
		}
		return AY8910Write{Chip: data[1] >> 7, Register: data[1] & 0x7F, Value: data[2]}, 3, nil

	case op >= 0xB0 && op <= 0xBF:
		if err := need(3, "register write"); err != nil {
			return nil, 0, err
		}
		if op == 0xB2 {
			return PWMWrite{
				Register: data[1] >> 4,
				Value:    uint16(data[1]&0x0F)<<8 | uint16(data[2]),
			}, 3, nil
		}
		chip := data[1] >> 7
		reg := data[1] & 0x7F
		val := data[2]
		var cmd Command
		switch op {
		case 0xB0:
			cmd = RF5C68Write{Chip: chip, Register: reg, Value: val}
		case 0xB1:
			cmd = RF5C164Write{Chip: chip, Register: reg, Value: val}
		case 0xB3:
			cmd = GameBoyDMGWrite{Chip: chip, Register: reg, Value: val}
		case 0xB4:
			cmd = NESAPUWrite{Chip: chip, Register: reg, Value: val}
		case 0xB5:
			cmd = MultiPCMWrite{Chip: chip, Register: reg, Value: val}
		case 0xB6:
			cmd = UPD7759Write{Chip: chip, Register: reg, Value: val}
		case 0xB7:
			cmd = OKIM6258Write{Chip: chip, Register: reg, Value: val}
		case 0xB8:
			cmd = OKIM6295Write{Chip: chip, Register: reg, Value: val}
		case 0xB9:
			cmd = HuC6280Write{Chip: chip, Register: reg, Value: val}
		case 0xBA:
			cmd = K053260Write{Chip: chip, Register: reg, Value: val}
		case 0xBB:
			cmd = PokeyWrite{Chip: chip, Register: reg, Value: val}
		case 0xBC:
			cmd = WonderSwanWrite{Chip: chip, Register: reg, Value: val}
		case 0xBD:
			cmd = SAA1099Write{Chip: chip, Register: reg, Value: val}
		case 0xBE:
			cmd = ES5506Write{Chip: chip, Register: reg, Value: val}
		default:
			cmd = GA20Write{Chip: chip, Register: reg, Value: val}
		}
		return cmd, 3, nil

	case op >= 0xC0 && op <= 0xC8:
		if err := need(4, "memory write"); err != nil {
			return nil, 0, err
		}
		switch op {
		case 0xC0:
			return SegaPCMWrite{Offset: binary.LittleEndian.Uint16(data[1:3]), Value: data[3]}, 4, nil
		case 0xC1:
			return RF5C68MemoryWrite{Offset: binary.LittleEndian.Uint16(data[1:3]), Value: data[3]}, 4, nil
		case 0xC2:
			return RF5C164MemoryWrite{Offset: binary.LittleEndian.Uint16(data[1:3]), Value: data[3]}, 4, nil
		case 0xC3:
			return MultiPCMSetBank{Channel: data[1], Offset: binary.LittleEndian.Uint16(data[2:4])}, 4, nil
		case 0xC4:
			return QSoundWrite{Value: uint16(data[1])<<8 | uint16(data[2]), Register: data[3]}, 4, nil
		case 0xC5:
			return SCSPWrite{Offset: uint16(data[1])<<8 | uint16(data[2]), Value: data[3]}, 4, nil
		case 0xC6:
			return WonderSwanMemoryWrite{Offset: uint16(data[1])<<8 | uint16(data[2]), Value: data[3]}, 4, nil
		case 0xC7:
			return VSUWrite{Offset: uint16(data[1])<<8 | uint16(data[2]), Value: data[3]}, 4, nil
		default:
			return X1010Write{Offset: uint16(data[1])<<8 | uint16(data[2]), Value: data[3]}, 4, nil
		}

	case op >= 0xD0 && op <= 0xD6:
		if err := need(4, "port write"); err != nil {
			return nil, 0, err
		}
		chip := data[1] >> 7
		switch op {
		case 0xD0:
			return YMF278BWrite{Chip: chip, Port: data[1] & 0x7F, Register: data[2], Value: data[3]}, 4, nil
		case 0xD1:
			return YMF271Write{Chip: chip, Port: data[1] & 0x7F, Register: data[2], Value: data[3]}, 4, nil
		case 0xD2:
			return SCC1Write{Chip: chip, Port: data[1] & 0x7F, Register: data[2], Value: data[3]}, 4, nil
		case 0xD3:
			return K054539Write{Chip: chip, Register: uint16(data[1]&0x7F)<<8 | uint16(data[2]), Value: data[3]}, 4, nil
		case 0xD4:
			return C140Write{Chip: chip, Register: uint16(data[1]&0x7F)<<8 | uint16(data[2]), Value: data[3]}, 4, nil
		case 0xD5:
			return ES5503Write{Chip: chip, Register: uint16(data[1]&0x7F)<<8 | uint16(data[2]), Value: data[3]}, 4, nil
		default:
			return ES5506Write16{Chip: chip, Register: data[1] & 0x7F, Value: uint16(data[2])<<8 | uint16(data[3])}, 4, nil
		}

	case op == 0xE0:
		if err := need(5, "PCM seek"); err != nil {
			return nil, 0, err
		}
		return SeekPCM{Offset: binary.LittleEndian.Uint32(data[1:5])}, 5, nil
	case op == 0xE1:
		if err := need(5, "C352 write"); err != nil {
			return nil, 0, err
		}
		return C352Write{
			Chip:     data[1] >> 7,
			Register: uint16(data[1]&0x7F)<<8 | uint16(data[2]),
			Value:    uint16(data[3])<<8 | uint16(data[4]),
		}, 5, nil
	}

	return nil, 0, &UnknownCommandError{Opcode: op, Offset: offset}
}

// decodeFMWrite dispatches the 0x51-0x5F register/value family after the
// 0xA1-0xAF mirror has been folded into the chip index.
func decodeFMWrite(fam byte, chip uint8, reg, val byte, offset int) (Command, error) {
	switch fam {
	case 0x51:
		return YM2413Write{Chip: chip, Register: reg, Value: val}, nil
	case 0x52:
		return YM2612Write{Chip: chip, Register: reg, Value: val}, nil
	case 0x53:
		return YM2612Write{Chip: chip, Port: 1, Register: reg, Value: val}, nil
	case 0x54:
		return YM2151Write{Chip: chip, Register: reg, Value: val}, nil
	case 0x55:
		return YM2203Write{Chip: chip, Register: reg, Value: val}, nil
	case 0x56:
		return YM2608Write{Chip: chip, Register: reg, Value: val}, nil
	case 0x57:
		return YM2608Write{Chip: chip, Port: 1, Register: reg, Value: val}, nil
	case 0x58:
		return YM2610Write{Chip: chip, Register: reg, Value: val}, nil
	case 0x59:
		return YM2610Write{Chip: chip, Port: 1, Register: reg, Value: val}, nil
	case 0x5A:
		return YM3812Write{Chip: chip, Register: reg, Value: val}, nil
	case 0x5B:
		return YM3526Write{Chip: chip, Register: reg, Value: val}, nil
	case 0x5C:
		return Y8950Write{Chip: chip, Register: reg, Value: val}, nil
	case 0x5D:
		return YMZ280BWrite{Chip: chip, Register: reg, Value: val}, nil
	case 0x5E:
		return YMF262Write{Chip: chip, Register: reg, Value: val}, nil
	case 0x5F:
		return YMF262Write{Chip: chip, Port: 1, Register: reg, Value: val}, nil
	}
	return nil, &UnknownCommandError{Opcode: fam, Offset: offset}
}

// DecodeCommands parses commands from the front of data until the
// end-of-sound-data command is produced (included in the result). offset
// is the absolute file position of data[0]. A stream that runs out of
// bytes before the terminator fails with ErrUnexpectedEOF, even when the
// last command ends exactly at the input boundary. Errors from
// mid-command truncation, unknown opcodes and the resource guard abort
// the whole decode.
func DecodeCommands(data []byte, offset int, tracker *ResourceTracker) ([]Command, int, error) {
	var cmds []Command
	pos := 0
	for pos < len(data) {
		if err := tracker.TrackCommand(); err != nil {
			return nil, pos, err
		}
		cmd, n, err := DecodeCommand(data[pos:], offset+pos, tracker)
		if err != nil {
			return nil, pos, err
		}
		cmds = append(cmds, cmd)
		pos += n
		if _, ok := cmd.(EndOfSoundData); ok {
			return cmds, pos, nil
		}
	}
	return nil, pos, fmt.Errorf("command stream at 0x%X: %w", offset+pos, ErrUnexpectedEOF)
}

// uint24 reads a 3-byte little-endian value.
func uint24(data []byte) uint32 {
	return uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
}
