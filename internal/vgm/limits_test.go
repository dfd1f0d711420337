package vgm

import (
	"errors"
	"testing"
)

func TestTrackCommandCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCommands = 2
	tr := NewTracker(cfg)

	if err := tr.TrackCommand(); err != nil {
		t.Fatalf("first command: %v", err)
	}
	if err := tr.TrackCommand(); err != nil {
		t.Fatalf("second command: %v", err)
	}
	err := tr.TrackCommand()
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}
	// The failing call must not advance the counter.
	if tr.Commands() != 2 {
		t.Fatalf("Commands = %d, want 2", tr.Commands())
	}
}

func TestTrackDataBlockCeilings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDataBlockSize = 100
	cfg.MaxTotalDataBlockBytes = 150
	tr := NewTracker(cfg)

	if err := tr.TrackDataBlock(101); err == nil {
		t.Fatal("single block over MaxDataBlockSize must fail")
	}
	if tr.DataBlockBytes() != 0 {
		t.Fatalf("DataBlockBytes = %d after rejected block", tr.DataBlockBytes())
	}
	if err := tr.TrackDataBlock(100); err != nil {
		t.Fatalf("first block: %v", err)
	}
	err := tr.TrackDataBlock(100)
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError on cumulative ceiling, got %v", err)
	}
	if tr.DataBlockBytes() != 100 {
		t.Fatalf("DataBlockBytes = %d, want 100", tr.DataBlockBytes())
	}
}

func TestParsingDepth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDepth = 2
	tr := NewTracker(cfg)

	if err := tr.EnterParsingContext(); err != nil {
		t.Fatalf("depth 1: %v", err)
	}
	if err := tr.EnterParsingContext(); err != nil {
		t.Fatalf("depth 2: %v", err)
	}
	if err := tr.EnterParsingContext(); err == nil {
		t.Fatal("depth 3 must fail")
	}
	tr.ExitParsingContext()
	if err := tr.EnterParsingContext(); err != nil {
		t.Fatalf("re-enter after exit: %v", err)
	}
}

func TestNilTrackerDisablesGuarding(t *testing.T) {
	var tr *ResourceTracker
	if err := tr.TrackCommand(); err != nil {
		t.Fatalf("TrackCommand on nil tracker: %v", err)
	}
	if err := tr.TrackDataBlock(1 << 40); err != nil {
		t.Fatalf("TrackDataBlock on nil tracker: %v", err)
	}
	if err := tr.EnterParsingContext(); err != nil {
		t.Fatalf("EnterParsingContext on nil tracker: %v", err)
	}
	tr.ExitParsingContext()
}

func TestGuardedCommandStreamDecode(t *testing.T) {
	cfg := SecurityFocusedConfig()
	cfg.MaxCommands = 2
	tr := NewTracker(cfg)

	data := []byte{0x62, 0x62, 0x62, 0x66}
	_, _, err := DecodeCommands(data, 0, tr)
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}
}

func TestGuardedDataBlockDeclaredSize(t *testing.T) {
	cfg := SecurityFocusedConfig()
	cfg.MaxDataBlockSize = 8
	tr := NewTracker(cfg)

	// Declares a 16-byte block; the guard must reject it before the
	// payload is touched, using the declared size.
	data := []byte{0x67, 0x66, 0x00, 0x10, 0x00, 0x00, 0x00}
	_, _, err := DecodeCommand(data, 0, tr)
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}
}
