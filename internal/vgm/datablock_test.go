package vgm

import (
	"errors"
	"reflect"
	"testing"
)

func TestShapeOf(t *testing.T) {
	tests := []struct {
		blockType byte
		want      BlockShape
	}{
		{0x00, ShapeUncompressedStream},
		{0x3F, ShapeUncompressedStream},
		{0x40, ShapeCompressedStream},
		{0x7E, ShapeCompressedStream},
		{0x7F, ShapeDecompressionTable},
		{0x80, ShapeROMDump},
		{0xBF, ShapeROMDump},
		{0xC0, ShapeRAMWriteSmall},
		{0xDF, ShapeRAMWriteSmall},
		{0xE0, ShapeRAMWriteLarge},
		{0xFF, ShapeRAMWriteLarge},
	}
	for _, tc := range tests {
		if got := ShapeOf(tc.blockType); got != tc.want {
			t.Fatalf("ShapeOf(0x%02X) = %v, want %v", tc.blockType, got, tc.want)
		}
	}
}

func TestChipTypeMappingsAreTotal(t *testing.T) {
	// Unknown chip ids render as Reserved rather than failing.
	if got := StreamChipFor(0x2A).String(); got != "Reserved(0x2A)" {
		t.Fatalf("StreamChipFor(0x2A) = %q", got)
	}
	if got := StreamChipFor(0x41); got != StreamRF5C68 {
		t.Fatalf("StreamChipFor(0x41) = %v, want RF5C68", got)
	}
	if got := ROMDumpChipFor(0x92); got != ROMC352 {
		t.Fatalf("ROMDumpChipFor(0x92) = %v, want C352", got)
	}
	if got := ROMDumpChipFor(0xB0).String(); got != "Reserved(0xB0)" {
		t.Fatalf("ROMDumpChipFor(0xB0) = %q", got)
	}
	if got := RAMWriteChipFor(0xE1); got != RAMES5503 {
		t.Fatalf("RAMWriteChipFor(0xE1) = %v, want ES5503", got)
	}
	if got := RAMWriteChipFor(0xD0).String(); got != "Reserved(0xD0)" {
		t.Fatalf("RAMWriteChipFor(0xD0) = %q", got)
	}
}

func TestDecodeDataBlockShapes(t *testing.T) {
	tests := []struct {
		name      string
		blockType byte
		data      []byte
		want      DataBlockContent
	}{
		{
			name:      "uncompressed stream",
			blockType: 0x00,
			data:      []byte{1, 2, 3},
			want:      &UncompressedStream{Data: []byte{1, 2, 3}},
		},
		{
			name:      "compressed stream",
			blockType: 0x40,
			data:      []byte{0x00, 0x04, 0x00, 0x00, 0x00, 16, 8, 0x00, 100, 0xAA, 0xCC},
			want: &CompressedStream{
				CompressionType:  CompressionBitPacking,
				UncompressedSize: 4,
				BitsDecompressed: 16,
				BitsCompressed:   8,
				SubType:          BitPackCopy,
				AddValue:         100,
				Data:             []byte{0xAA, 0xCC},
			},
		},
		{
			name:      "decompression table",
			blockType: 0x7F,
			data:      []byte{0x01, 0x00, 8, 2, 0x04, 0x00, 0x00, 0x01, 0xFF, 0x02},
			want: &DecompressionTable{
				CompressionType:  CompressionDPCM,
				BitsDecompressed: 8,
				BitsCompressed:   2,
				ValueCount:       4,
				Data:             []byte{0x00, 0x01, 0xFF, 0x02},
			},
		},
		{
			name:      "ROM dump",
			blockType: 0x80,
			data:      []byte{0x00, 0x00, 0x01, 0x00, 0x10, 0x00, 0x00, 0x00, 0xAB},
			want: &ROMDump{
				TotalSize:    0x10000,
				StartAddress: 0x10,
				Data:         []byte{0xAB},
			},
		},
		{
			name:      "RAM write small",
			blockType: 0xC0,
			data:      []byte{0x34, 0x12, 0xCD},
			want:      &RAMWriteSmall{StartAddress: 0x1234, Data: []byte{0xCD}},
		},
		{
			name:      "RAM write large",
			blockType: 0xE0,
			data:      []byte{0x78, 0x56, 0x34, 0x12, 0xEF},
			want:      &RAMWriteLarge{StartAddress: 0x12345678, Data: []byte{0xEF}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeDataBlock(tc.blockType, uint32(len(tc.data)), tc.data)
			if err != nil {
				t.Fatalf("DecodeDataBlock: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("DecodeDataBlock = %#v, want %#v", got, tc.want)
			}
			if got.encodedSize() != len(tc.data) {
				t.Fatalf("encodedSize = %d, want %d", got.encodedSize(), len(tc.data))
			}
			if back := got.appendTo(nil); !reflect.DeepEqual(back, tc.data) {
				t.Fatalf("appendTo = % X, want % X", back, tc.data)
			}
		})
	}
}

func TestDecodeDataBlockTruncatedHeader(t *testing.T) {
	tests := []struct {
		name      string
		blockType byte
		data      []byte
	}{
		{"compressed stream", 0x40, []byte{0x00, 0x01}},
		{"decompression table", 0x7F, []byte{0x00}},
		{"ROM dump", 0x80, []byte{0x00, 0x00, 0x00}},
		{"RAM write small", 0xC0, []byte{0x00}},
		{"RAM write large", 0xE0, []byte{0x00, 0x00}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeDataBlock(tc.blockType, uint32(len(tc.data)), tc.data)
			var truncErr *TruncatedError
			if !errors.As(err, &truncErr) {
				t.Fatalf("expected TruncatedError, got %v", err)
			}
		})
	}
}
