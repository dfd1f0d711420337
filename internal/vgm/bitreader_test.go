package vgm

import "testing"

func TestBitReaderMSBFirst(t *testing.T) {
	br := newBitReader([]byte{0b10110011, 0b01000000})

	if got := br.read(3); got != 0b101 {
		t.Fatalf("read(3) = %#b, want 0b101", got)
	}
	if got := br.read(5); got != 0b10011 {
		t.Fatalf("read(5) = %#b, want 0b10011", got)
	}
	if got := br.read(4); got != 0b0100 {
		t.Fatalf("read(4) = %#b, want 0b0100", got)
	}
	if got := br.read(4); got != 0 {
		t.Fatalf("read(4) = %#b, want 0", got)
	}
	if !br.exhausted() {
		t.Fatal("reader should be exhausted")
	}
}

func TestBitReaderWideRead(t *testing.T) {
	br := newBitReader([]byte{0x12, 0x34, 0x56})
	if got := br.read(16); got != 0x1234 {
		t.Fatalf("read(16) = 0x%04X, want 0x1234", got)
	}
	if got := br.read(8); got != 0x56 {
		t.Fatalf("read(8) = 0x%02X, want 0x56", got)
	}
}

func TestBitReaderZeroExtendsPastEnd(t *testing.T) {
	br := newBitReader([]byte{0xFF})
	if got := br.read(4); got != 0xF {
		t.Fatalf("read(4) = 0x%X, want 0xF", got)
	}
	// Four real bits remain; the rest are zero fill.
	if got := br.read(8); got != 0xF0 {
		t.Fatalf("read(8) = 0x%02X, want 0xF0", got)
	}
	if got := br.read(16); got != 0 {
		t.Fatalf("read(16) past end = 0x%04X, want 0", got)
	}
}
