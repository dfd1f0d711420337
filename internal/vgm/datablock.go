package vgm

import (
	"encoding/binary"
	"fmt"
)

// BlockShape classifies a data block's type byte into one of the six
// structural layouts. The classification is total: every byte value falls
// into exactly one shape.
type BlockShape int

const (
	ShapeUncompressedStream BlockShape = iota
	ShapeCompressedStream
	ShapeDecompressionTable
	ShapeROMDump
	ShapeRAMWriteSmall
	ShapeRAMWriteLarge
)

// ShapeOf returns the structural shape for a data block type byte.
func ShapeOf(blockType byte) BlockShape {
	switch {
	case blockType <= 0x3F:
		return ShapeUncompressedStream
	case blockType <= 0x7E:
		return ShapeCompressedStream
	case blockType == 0x7F:
		return ShapeDecompressionTable
	case blockType <= 0xBF:
		return ShapeROMDump
	case blockType <= 0xDF:
		return ShapeRAMWriteSmall
	default:
		return ShapeRAMWriteLarge
	}
}

// StreamChipType identifies the chip a streamed (0x00-0x7E) data block
// feeds. Unknown values are carried through as-is rather than rejected;
// they render as Reserved.
type StreamChipType byte

const (
	StreamYM2612PCM StreamChipType = 0x00
	StreamRF5C68    StreamChipType = 0x01
	StreamRF5C164   StreamChipType = 0x02
	StreamPWM       StreamChipType = 0x03
	StreamOKIM6258  StreamChipType = 0x04
	StreamHuC6280   StreamChipType = 0x05
	StreamSCSP      StreamChipType = 0x06
	StreamNESAPU    StreamChipType = 0x07
	StreamMikey     StreamChipType = 0x08
)

func (c StreamChipType) String() string {
	switch c {
	case StreamYM2612PCM:
		return "YM2612 PCM"
	case StreamRF5C68:
		return "RF5C68"
	case StreamRF5C164:
		return "RF5C164"
	case StreamPWM:
		return "PWM"
	case StreamOKIM6258:
		return "OKIM6258"
	case StreamHuC6280:
		return "HuC6280"
	case StreamSCSP:
		return "SCSP"
	case StreamNESAPU:
		return "NES APU"
	case StreamMikey:
		return "Mikey"
	}
	return fmt.Sprintf("Reserved(0x%02X)", byte(c))
}

// StreamChipFor maps an uncompressed or compressed stream block type to
// its chip. Compressed block types carry the same chip ids offset by
// 0x40.
func StreamChipFor(blockType byte) StreamChipType {
	if ShapeOf(blockType) == ShapeCompressedStream {
		return StreamChipType(blockType - 0x40)
	}
	return StreamChipType(blockType)
}

// ROMDumpChipType identifies the chip whose ROM image a 0x80-0xBF block
// carries.
type ROMDumpChipType byte

const (
	ROMSegaPCM      ROMDumpChipType = 0x80
	ROMYM2608DeltaT ROMDumpChipType = 0x81
	ROMYM2610ADPCM  ROMDumpChipType = 0x82
	ROMYM2610DeltaT ROMDumpChipType = 0x83
	ROMYMF278B      ROMDumpChipType = 0x84
	ROMYMF271       ROMDumpChipType = 0x85
	ROMYMZ280B      ROMDumpChipType = 0x86
	ROMYMF278BRAM   ROMDumpChipType = 0x87
	ROMY8950DeltaT  ROMDumpChipType = 0x88
	ROMMultiPCM     ROMDumpChipType = 0x89
	ROMuPD7759      ROMDumpChipType = 0x8A
	ROMOKIM6295     ROMDumpChipType = 0x8B
	ROMK054539      ROMDumpChipType = 0x8C
	ROMC140         ROMDumpChipType = 0x8D
	ROMK053260      ROMDumpChipType = 0x8E
	ROMQSound       ROMDumpChipType = 0x8F
	ROMES5505       ROMDumpChipType = 0x90
	ROMX1010        ROMDumpChipType = 0x91
	ROMC352         ROMDumpChipType = 0x92
	ROMGA20         ROMDumpChipType = 0x93
)

func (c ROMDumpChipType) String() string {
	switch c {
	case ROMSegaPCM:
		return "SegaPCM"
	case ROMYM2608DeltaT:
		return "YM2608 DELTA-T"
	case ROMYM2610ADPCM:
		return "YM2610 ADPCM"
	case ROMYM2610DeltaT:
		return "YM2610 DELTA-T"
	case ROMYMF278B:
		return "YMF278B"
	case ROMYMF271:
		return "YMF271"
	case ROMYMZ280B:
		return "YMZ280B"
	case ROMYMF278BRAM:
		return "YMF278B RAM"
	case ROMY8950DeltaT:
		return "Y8950 DELTA-T"
	case ROMMultiPCM:
		return "MultiPCM"
	case ROMuPD7759:
		return "uPD7759"
	case ROMOKIM6295:
		return "OKIM6295"
	case ROMK054539:
		return "K054539"
	case ROMC140:
		return "C140"
	case ROMK053260:
		return "K053260"
	case ROMQSound:
		return "QSound"
	case ROMES5505:
		return "ES5505/ES5506"
	case ROMX1010:
		return "X1-010"
	case ROMC352:
		return "C352"
	case ROMGA20:
		return "GA20"
	}
	return fmt.Sprintf("Reserved(0x%02X)", byte(c))
}

// ROMDumpChipFor maps a ROM dump block type to its chip.
func ROMDumpChipFor(blockType byte) ROMDumpChipType {
	return ROMDumpChipType(blockType)
}

// RAMWriteChipType identifies the chip a 0xC0-0xFF RAM write targets.
type RAMWriteChipType byte

const (
	RAMRF5C68  RAMWriteChipType = 0xC0
	RAMRF5C164 RAMWriteChipType = 0xC1
	RAMNESAPU  RAMWriteChipType = 0xC2
	RAMSCSP    RAMWriteChipType = 0xE0
	RAMES5503  RAMWriteChipType = 0xE1
)

func (c RAMWriteChipType) String() string {
	switch c {
	case RAMRF5C68:
		return "RF5C68"
	case RAMRF5C164:
		return "RF5C164"
	case RAMNESAPU:
		return "NES APU"
	case RAMSCSP:
		return "SCSP"
	case RAMES5503:
		return "ES5503"
	}
	return fmt.Sprintf("Reserved(0x%02X)", byte(c))
}

// RAMWriteChipFor maps a RAM write block type to its chip.
func RAMWriteChipFor(blockType byte) RAMWriteChipType {
	return RAMWriteChipType(blockType)
}

// DataBlockContent is the parsed body of one data block. Each shape
// serializes back to exactly the bytes it was decoded from.
type DataBlockContent interface {
	encodedSize() int
	appendTo(dst []byte) []byte
}

// UncompressedStream carries raw sample data with no block-local header.
type UncompressedStream struct {
	Data []byte
}

func (b *UncompressedStream) encodedSize() int { return len(b.Data) }
func (b *UncompressedStream) appendTo(dst []byte) []byte {
	return append(dst, b.Data...)
}

// CompressedStream carries sample data behind a nine-byte compression
// header. AddValue doubles as the DPCM start value.
type CompressedStream struct {
	CompressionType  byte
	UncompressedSize uint32
	BitsDecompressed byte
	BitsCompressed   byte
	SubType          byte
	AddValue         byte
	Data             []byte
}

func (b *CompressedStream) encodedSize() int { return 9 + len(b.Data) }
func (b *CompressedStream) appendTo(dst []byte) []byte {
	dst = append(dst, b.CompressionType)
	dst = binary.LittleEndian.AppendUint32(dst, b.UncompressedSize)
	dst = append(dst, b.BitsDecompressed, b.BitsCompressed, b.SubType, b.AddValue)
	return append(dst, b.Data...)
}

// DecompressionTable carries lookup values for table-mode bit packing and
// DPCM streams that follow it.
type DecompressionTable struct {
	CompressionType  byte
	SubType          byte
	BitsDecompressed byte
	BitsCompressed   byte
	ValueCount       uint16
	Data             []byte
}

func (b *DecompressionTable) encodedSize() int { return 6 + len(b.Data) }
func (b *DecompressionTable) appendTo(dst []byte) []byte {
	dst = append(dst, b.CompressionType, b.SubType, b.BitsDecompressed, b.BitsCompressed)
	dst = binary.LittleEndian.AppendUint16(dst, b.ValueCount)
	return append(dst, b.Data...)
}

// ROMDump carries a slice of a chip's ROM image: the chip's total ROM
// size, the slice's start address, then the image bytes.
type ROMDump struct {
	TotalSize    uint32
	StartAddress uint32
	Data         []byte
}

func (b *ROMDump) encodedSize() int { return 8 + len(b.Data) }
func (b *ROMDump) appendTo(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, b.TotalSize)
	dst = binary.LittleEndian.AppendUint32(dst, b.StartAddress)
	return append(dst, b.Data...)
}

// RAMWriteSmall targets chips whose RAM is addressed with 16 bits.
type RAMWriteSmall struct {
	StartAddress uint16
	Data         []byte
}

func (b *RAMWriteSmall) encodedSize() int { return 2 + len(b.Data) }
func (b *RAMWriteSmall) appendTo(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, b.StartAddress)
	return append(dst, b.Data...)
}

// RAMWriteLarge targets chips whose RAM is addressed with 32 bits.
type RAMWriteLarge struct {
	StartAddress uint32
	Data         []byte
}

func (b *RAMWriteLarge) encodedSize() int { return 4 + len(b.Data) }
func (b *RAMWriteLarge) appendTo(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, b.StartAddress)
	return append(dst, b.Data...)
}

// DecodeDataBlock parses the body of one data block. data must hold
// exactly dataSize bytes; the caller validates the declared size against
// the remaining input and the resource guard before slicing.
func DecodeDataBlock(blockType byte, dataSize uint32, data []byte) (DataBlockContent, error) {
	if uint32(len(data)) != dataSize {
		return nil, &TruncatedError{Field: "data block body", Offset: 0, Need: int(dataSize), Have: len(data)}
	}
	switch ShapeOf(blockType) {
	case ShapeUncompressedStream:
		return &UncompressedStream{Data: cloneBytes(data)}, nil

	case ShapeCompressedStream:
		if len(data) < 9 {
			return nil, &TruncatedError{Field: "compressed stream header", Offset: 0, Need: 9, Have: len(data)}
		}
		return &CompressedStream{
			CompressionType:  data[0],
			UncompressedSize: binary.LittleEndian.Uint32(data[1:5]),
			BitsDecompressed: data[5],
			BitsCompressed:   data[6],
			SubType:          data[7],
			AddValue:         data[8],
			Data:             cloneBytes(data[9:]),
		}, nil

	case ShapeDecompressionTable:
		if len(data) < 6 {
			return nil, &TruncatedError{Field: "decompression table header", Offset: 0, Need: 6, Have: len(data)}
		}
		return &DecompressionTable{
			CompressionType:  data[0],
			SubType:          data[1],
			BitsDecompressed: data[2],
			BitsCompressed:   data[3],
			ValueCount:       binary.LittleEndian.Uint16(data[4:6]),
			Data:             cloneBytes(data[6:]),
		}, nil

	case ShapeROMDump:
		if len(data) < 8 {
			return nil, &TruncatedError{Field: "ROM dump header", Offset: 0, Need: 8, Have: len(data)}
		}
		return &ROMDump{
			TotalSize:    binary.LittleEndian.Uint32(data[0:4]),
			StartAddress: binary.LittleEndian.Uint32(data[4:8]),
			Data:         cloneBytes(data[8:]),
		}, nil

	case ShapeRAMWriteSmall:
		if len(data) < 2 {
			return nil, &TruncatedError{Field: "RAM write header", Offset: 0, Need: 2, Have: len(data)}
		}
		return &RAMWriteSmall{
			StartAddress: binary.LittleEndian.Uint16(data[0:2]),
			Data:         cloneBytes(data[2:]),
		}, nil

	default:
		if len(data) < 4 {
			return nil, &TruncatedError{Field: "RAM write header", Offset: 0, Need: 4, Have: len(data)}
		}
		return &RAMWriteLarge{
			StartAddress: binary.LittleEndian.Uint32(data[0:4]),
			Data:         cloneBytes(data[4:]),
		}, nil
	}
}

// cloneBytes copies a slice so decoded blocks never alias the input
// buffer.
func cloneBytes(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
