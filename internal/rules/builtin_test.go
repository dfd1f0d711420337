package rules

import (
	"encoding/binary"
	"testing"

	"example.com/vgmgate/internal/gd3"
	"example.com/vgmgate/internal/vgm"
)

// encodeTestVGM builds a small, fully consistent file and applies an
// optional mutation before encoding.
func encodeTestVGM(t *testing.T, mutate func(*vgm.File)) []byte {
	t.Helper()
	f := &vgm.File{
		Header: &vgm.Header{
			Version:           0x00000150,
			SN76489Clock:      3579545,
			SN76489Feedback:   0x0009,
			SN76489ShiftWidth: 16,
			TotalSamples:      1470,
			Rate:              60,
			DataOffset:        0x0C,
		},
		Commands: []vgm.Command{
			vgm.PSGWrite{Value: 0x8F},
			vgm.Wait735Samples{},
			vgm.PSGWrite{Value: 0x9F},
			vgm.Wait735Samples{},
			vgm.EndOfSoundData{},
		},
		GD3: &gd3.Tag{TrackNameEN: "Test Track", GameNameEN: "Test Game"},
	}
	if mutate != nil {
		mutate(f)
	}
	data, err := f.Encode()
	if err != nil {
		t.Fatalf("encode test file: %v", err)
	}
	return data
}

func evalDefault(t *testing.T, raw []byte) ([]Diagnostic, AcceptanceReport) {
	t.Helper()
	engine := NewEngine(DefaultRulePack("default"))
	engine.RegisterBuiltins()
	ctx := &Context{InputFile: "test.vgm", Raw: raw}
	diags, err := engine.Eval(ctx)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	return diags, engine.MakeAcceptance()
}

func diagFor(diags []Diagnostic, ruleID string) (Diagnostic, bool) {
	for _, d := range diags {
		if d.RuleId == ruleID {
			return d, true
		}
	}
	return Diagnostic{}, false
}

func TestCleanFilePasses(t *testing.T) {
	diags, rep := evalDefault(t, encodeTestVGM(t, nil))
	if !rep.Summary.Pass {
		t.Fatalf("expected pass, got %+v\ndiags: %#v", rep.Summary, diags)
	}
	if rep.Summary.Errors != 0 || rep.Summary.Warnings != 0 {
		t.Fatalf("unexpected findings: %+v", rep.Summary)
	}
	if len(rep.GateMatrix) != len(DefaultRulePack("default").Rules) {
		t.Fatalf("gate matrix rows = %d", len(rep.GateMatrix))
	}
	for _, row := range rep.GateMatrix {
		if !row.Pass {
			t.Fatalf("rule %s failed on clean input", row.RuleId)
		}
	}
}

func TestUnparseableInputFailsGate(t *testing.T) {
	diags, rep := evalDefault(t, []byte("definitely not a music file"))
	if rep.Summary.Pass {
		t.Fatal("garbage input must not pass")
	}
	d, ok := diagFor(diags, "VGM-001")
	if !ok || d.Severity != ERROR {
		t.Fatalf("VGM-001 = %#v", d)
	}
}

func TestEndOfFileOffsetMismatch(t *testing.T) {
	raw := encodeTestVGM(t, nil)
	binary.LittleEndian.PutUint32(raw[0x04:], uint32(len(raw)+100))
	diags, rep := evalDefault(t, raw)
	d, ok := diagFor(diags, "VGM-003")
	if !ok || d.Severity != ERROR {
		t.Fatalf("VGM-003 = %#v", d)
	}
	if !d.FixSuggested {
		t.Fatal("EoF mismatch is fixable by re-encoding")
	}
	if rep.Summary.Pass {
		t.Fatal("report must fail")
	}
}

func TestCommandClockCrossRef(t *testing.T) {
	raw := encodeTestVGM(t, func(f *vgm.File) {
		f.Header.SN76489Clock = 0
		f.Header.YM2612Clock = 7670453
	})
	diags, _ := evalDefault(t, raw)
	d, ok := diagFor(diags, "VGM-005")
	if !ok || d.Severity != WARN {
		t.Fatalf("VGM-005 = %#v", d)
	}
	if d.CommandIndex != 0 {
		t.Fatalf("CommandIndex = %d, want 0", d.CommandIndex)
	}
}

func TestClockRangeWarning(t *testing.T) {
	raw := encodeTestVGM(t, func(f *vgm.File) {
		f.Header.YM2612Clock = 500 // far below any real master clock
	})
	diags, _ := evalDefault(t, raw)
	d, ok := diagFor(diags, "VGM-004")
	if !ok || d.Severity != WARN {
		t.Fatalf("VGM-004 = %#v", d)
	}
}

func TestWaitTotalMismatch(t *testing.T) {
	raw := encodeTestVGM(t, func(f *vgm.File) {
		f.Header.TotalSamples = 9999
	})
	diags, _ := evalDefault(t, raw)
	d, ok := diagFor(diags, "VGM-007")
	if !ok || d.Severity != WARN {
		t.Fatalf("VGM-007 = %#v", d)
	}
	if d.SampleOffset == nil || *d.SampleOffset != 1470 {
		t.Fatalf("SampleOffset = %v, want 1470", d.SampleOffset)
	}
}

func TestLoopConsistency(t *testing.T) {
	t.Run("half-declared loop", func(t *testing.T) {
		raw := encodeTestVGM(t, func(f *vgm.File) {
			f.Header.LoopSamples = 735
		})
		diags, _ := evalDefault(t, raw)
		d, ok := diagFor(diags, "VGM-006")
		if !ok || d.Severity != WARN {
			t.Fatalf("VGM-006 = %#v", d)
		}
	})
	t.Run("loop longer than track", func(t *testing.T) {
		raw := encodeTestVGM(t, func(f *vgm.File) {
			f.Header.LoopOffset = 0x40 - 0x1C
			f.Header.LoopSamples = 99999
		})
		diags, _ := evalDefault(t, raw)
		d, ok := diagFor(diags, "VGM-006")
		if !ok || d.Severity != ERROR {
			t.Fatalf("VGM-006 = %#v", d)
		}
	})
	t.Run("valid loop", func(t *testing.T) {
		raw := encodeTestVGM(t, func(f *vgm.File) {
			f.Header.LoopOffset = 0x40 - 0x1C
			f.Header.LoopSamples = 735
		})
		diags, _ := evalDefault(t, raw)
		d, ok := diagFor(diags, "VGM-006")
		if !ok || d.Severity != INFO {
			t.Fatalf("VGM-006 = %#v", d)
		}
	})
}

func TestMissingGD3Warns(t *testing.T) {
	raw := encodeTestVGM(t, func(f *vgm.File) {
		f.GD3 = nil
	})
	diags, _ := evalDefault(t, raw)
	d, ok := diagFor(diags, "VGM-008")
	if !ok || d.Severity != WARN {
		t.Fatalf("VGM-008 = %#v", d)
	}
}

func TestDataBlockBudget(t *testing.T) {
	raw := encodeTestVGM(t, func(f *vgm.File) {
		f.Commands = append([]vgm.Command{
			vgm.DataBlock{BlockType: 0x00, Content: &vgm.UncompressedStream{Data: make([]byte, 256)}},
		}, f.Commands...)
	})
	diags, _ := evalDefault(t, raw)
	d, ok := diagFor(diags, "VGM-009")
	if !ok || d.Severity != INFO {
		t.Fatalf("VGM-009 = %#v", d)
	}
}

func TestRoundTripDetectsStaleBytes(t *testing.T) {
	raw := encodeTestVGM(t, nil)
	// A stale EoF offset survives parsing but not a canonical rewrite.
	binary.LittleEndian.PutUint32(raw[0x04:], uint32(len(raw)+8))
	diags, _ := evalDefault(t, raw)
	d, ok := diagFor(diags, "VGM-010")
	if !ok || d.Severity != WARN {
		t.Fatalf("VGM-010 = %#v", d)
	}
	if d.Offset != "0x4" {
		t.Fatalf("Offset = %s, want 0x4", d.Offset)
	}
}
