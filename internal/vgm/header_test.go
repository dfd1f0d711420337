package vgm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

// buildHeaderBytes returns a zeroed header image of the given length with
// the magic and data offset already set.
func buildHeaderBytes(t *testing.T, length int, dataOffset uint32) []byte {
	t.Helper()
	data := make([]byte, length)
	copy(data, magicWord)
	binary.LittleEndian.PutUint32(data[0x08:], 0x00000170)
	binary.LittleEndian.PutUint32(data[dataOffsetPos:], dataOffset)
	return data
}

func TestHeaderLegacyDataOffsetZero(t *testing.T) {
	h := &Header{
		Version:      0x00000101,
		SN76489Clock: 3579545,
		TotalSamples: 44100,
		Rate:         60,
	}
	if h.DataStart() != legacyDataStart {
		t.Fatalf("DataStart = 0x%X, want 0x40", h.DataStart())
	}
	encoded := h.EncodeHeader()
	if len(encoded) != legacyDataStart {
		t.Fatalf("encoded length = 0x%X, want 0x40", len(encoded))
	}
	decoded, err := DecodeHeader(encoded, nil)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	// The raw zero is preserved, not rewritten as 0x0C.
	if decoded.DataOffset != 0 {
		t.Fatalf("DataOffset = %d, want 0", decoded.DataOffset)
	}
	if !reflect.DeepEqual(decoded, h) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", decoded, h)
	}
}

func TestHeaderStopOffsetProperty(t *testing.T) {
	// Fields beyond the declared data start decode to zero, and the
	// serialized length always equals the data start.
	for _, dataStart := range []int{0x40, 0x80, 0xB8, 0xC0, 0xE4} {
		h := &Header{
			Version:      0x00000171,
			SN76489Clock: 3579545,
			YM2612Clock:  7670453,
			DataOffset:   uint32(dataStart - dataOffsetPos),
			SegaPCMClock: 4000000,
			AY8910Clock:  1789772,
			GA20Clock:    3579545,
		}
		encoded := h.EncodeHeader()
		if len(encoded) != dataStart {
			t.Fatalf("dataStart 0x%X: encoded length 0x%X", dataStart, len(encoded))
		}
		decoded, err := DecodeHeader(encoded, nil)
		if err != nil {
			t.Fatalf("dataStart 0x%X: DecodeHeader: %v", dataStart, err)
		}
		if int(decoded.DataOffset)+dataOffsetPos != len(encoded) {
			t.Fatalf("dataStart 0x%X: offset %d does not match length %d",
				dataStart, decoded.DataOffset, len(encoded))
		}
		if dataStart <= 0x74 && decoded.AY8910Clock != 0 {
			t.Fatalf("dataStart 0x%X: AY8910 clock decoded past stop offset", dataStart)
		}
		if dataStart <= 0xE0 && decoded.GA20Clock != 0 {
			t.Fatalf("dataStart 0x%X: GA20 clock decoded past stop offset", dataStart)
		}
		if reencoded := decoded.EncodeHeader(); !bytes.Equal(reencoded, encoded) {
			t.Fatalf("dataStart 0x%X: re-encode mismatch", dataStart)
		}
	}
}

func TestHeaderExtraHeaderClockFirst(t *testing.T) {
	data := buildHeaderBytes(t, 0xD8, 0xD8-dataOffsetPos)
	binary.LittleEndian.PutUint32(data[extraHeaderPos:], 0xC0-extraHeaderPos)
	// Prologue at 0xC0: clock section at 0xCC, volume section at 0xD2.
	binary.LittleEndian.PutUint32(data[0xC0:], extraPrologueSize)
	binary.LittleEndian.PutUint32(data[0xC4:], 0xCC-0xC4)
	binary.LittleEndian.PutUint32(data[0xC8:], 0xD2-0xC8)
	data[0xCC] = 1 // one clock entry
	data[0xCD] = 0x02
	binary.LittleEndian.PutUint32(data[0xCE:], 0x12345678)
	data[0xD2] = 1 // one volume entry
	data[0xD3] = 0x03
	data[0xD4] = 0x00
	binary.LittleEndian.PutUint16(data[0xD5:], 0x0100)

	h, err := DecodeHeader(data, nil)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	eh := h.ExtraHeader
	if eh == nil {
		t.Fatal("ExtraHeader missing")
	}
	if eh.VolumeFirst {
		t.Fatal("VolumeFirst = true for clock-first layout")
	}
	wantClock := []ChipClockEntry{{ChipID: 0x02, Clock: 0x12345678}}
	if !reflect.DeepEqual(eh.ClockEntries, wantClock) {
		t.Fatalf("ClockEntries = %#v", eh.ClockEntries)
	}
	wantVol := []ChipVolumeEntry{{ChipID: 0x03, Volume: 0x0100}}
	if !reflect.DeepEqual(eh.VolumeEntries, wantVol) {
		t.Fatalf("VolumeEntries = %#v", eh.VolumeEntries)
	}
	if reencoded := h.EncodeHeader(); !bytes.Equal(reencoded, data) {
		t.Fatalf("re-encode mismatch:\n got % X\nwant % X", reencoded, data)
	}
}

func TestHeaderExtraHeaderVolumeFirst(t *testing.T) {
	data := buildHeaderBytes(t, 0xD8, 0xD8-dataOffsetPos)
	binary.LittleEndian.PutUint32(data[extraHeaderPos:], 0xC0-extraHeaderPos)
	// Prologue at 0xC0: volume section at 0xCC, clock section at 0xD1.
	binary.LittleEndian.PutUint32(data[0xC0:], extraPrologueSize)
	binary.LittleEndian.PutUint32(data[0xC4:], 0xD1-0xC4)
	binary.LittleEndian.PutUint32(data[0xC8:], 0xCC-0xC8)
	data[0xCC] = 1
	data[0xCD] = 0x03
	data[0xCE] = 0x00
	binary.LittleEndian.PutUint16(data[0xCF:], 0x0100)
	data[0xD1] = 1
	data[0xD2] = 0x02
	binary.LittleEndian.PutUint32(data[0xD3:], 0x12345678)

	h, err := DecodeHeader(data, nil)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.ExtraHeader == nil || !h.ExtraHeader.VolumeFirst {
		t.Fatal("volume-first order not detected")
	}
	if reencoded := h.EncodeHeader(); !bytes.Equal(reencoded, data) {
		t.Fatalf("re-encode mismatch:\n got % X\nwant % X", reencoded, data)
	}
}

func TestHeaderExtraHeaderEntryLimit(t *testing.T) {
	data := buildHeaderBytes(t, 0x200, 0x200-dataOffsetPos)
	binary.LittleEndian.PutUint32(data[extraHeaderPos:], 0xC0-extraHeaderPos)
	binary.LittleEndian.PutUint32(data[0xC0:], extraPrologueSize)
	binary.LittleEndian.PutUint32(data[0xC4:], 0xCC-0xC4)
	data[0xCC] = 40 // entries

	cfg := DefaultConfig()
	cfg.MaxExtraHeaderEntries = 8
	_, err := DecodeHeader(data, NewTracker(cfg))
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}
}

func TestDecodeHeaderNoMagic(t *testing.T) {
	if _, err := DecodeHeader([]byte("not a vgm file at all......."), nil); !errors.Is(err, ErrNoMagic) {
		t.Fatalf("expected ErrNoMagic, got %v", err)
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	data := buildHeaderBytes(t, 0x50, 0xE4-dataOffsetPos)
	_, err := DecodeHeader(data, nil)
	var truncErr *TruncatedError
	if !errors.As(err, &truncErr) {
		t.Fatalf("expected TruncatedError, got %v", err)
	}
}
