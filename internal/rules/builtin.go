package rules

import (
	"bytes"
	"fmt"
	"time"

	"example.com/vgmgate/internal/vgm"
)

func int64Ptr(v int64) *int64 { return &v }

func (e *Engine) RegisterBuiltins() {
	e.Register("CheckHeaderParse", CheckHeaderParse)
	e.Register("CheckVersionKnown", CheckVersionKnown)
	e.Register("CheckEndOfFileOffset", CheckEndOfFileOffset)
	e.Register("CheckClockRanges", CheckClockRanges)
	e.Register("CheckCommandClockCrossRef", CheckCommandClockCrossRef)
	e.Register("CheckLoopConsistency", CheckLoopConsistency)
	e.Register("CheckWaitTotal", CheckWaitTotal)
	e.Register("CheckGD3Tag", CheckGD3Tag)
	e.Register("CheckDataBlockBudget", CheckDataBlockBudget)
	e.Register("CheckRoundTrip", CheckRoundTrip)
}

func baseDiag(ctx *Context, rule Rule) Diagnostic {
	return Diagnostic{
		Ts: time.Now(), File: ctx.InputFile, RuleId: rule.RuleId,
		Severity: INFO, Refs: rule.Refs,
	}
}

// CheckHeaderParse confirms the container decodes under the configured
// resource limits. Every structural defect surfaces here first.
func CheckHeaderParse(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	diag := baseDiag(ctx, rule)
	if err := ctx.EnsureFile(); err != nil {
		diag.Severity = ERROR
		diag.Message = fmt.Sprintf("container does not parse: %v", err)
		return diag, false, nil
	}
	h := ctx.File.Header
	diag.Message = fmt.Sprintf("parsed version %d.%02d, %d commands",
		vgm.BCDToDecimal(h.Version)/100, vgm.BCDToDecimal(h.Version)%100, len(ctx.File.Commands))
	return diag, false, nil
}

// CheckVersionKnown flags version fields outside the published range.
func CheckVersionKnown(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	diag := baseDiag(ctx, rule)
	if err := ctx.EnsureFile(); err != nil {
		diag.Severity = ERROR
		diag.Message = "cannot parse input"
		return diag, false, err
	}
	ver := vgm.BCDToDecimal(ctx.File.Header.Version)
	switch {
	case ver < 100:
		diag.Severity = ERROR
		diag.Message = fmt.Sprintf("version %d.%02d predates the format", ver/100, ver%100)
	case ver > 171:
		diag.Severity = WARN
		diag.Message = fmt.Sprintf("version %d.%02d is newer than any published revision", ver/100, ver%100)
	default:
		diag.Message = fmt.Sprintf("version %d.%02d", ver/100, ver%100)
	}
	return diag, false, nil
}

// CheckEndOfFileOffset verifies the relative EoF offset covers the whole
// file. Re-encoding recomputes it, so a mismatch is always fixable.
func CheckEndOfFileOffset(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	diag := baseDiag(ctx, rule)
	if err := ctx.EnsureFile(); err != nil {
		diag.Severity = ERROR
		diag.Message = "cannot parse input"
		return diag, false, err
	}
	want := uint32(len(ctx.Raw) - 4)
	got := ctx.File.Header.EndOfFileOffset
	if got != want {
		diag.Severity = ERROR
		diag.Offset = "0x04"
		diag.Message = fmt.Sprintf("end-of-file offset is %d, file size implies %d", got, want)
		diag.FixSuggested = true
		return diag, false, nil
	}
	diag.Message = "end-of-file offset matches file size"
	return diag, false, nil
}

// Plausibility window for chip master clocks. The slowest chips in the wild
// run near 1 MHz and the fastest DSPs below 50 MHz; dual-chip and special
// flag bits in the upper byte are masked off before the comparison.
const (
	minPlausibleClock = 100_000
	maxPlausibleClock = 50_000_000
)

type namedClock struct {
	name  string
	value uint32
}

func headerClocks(h *vgm.Header) []namedClock {
	return []namedClock{
		{"SN76489", h.SN76489Clock},
		{"YM2413", h.YM2413Clock},
		{"YM2612", h.YM2612Clock},
		{"YM2151", h.YM2151Clock},
		{"SegaPCM", h.SegaPCMClock},
		{"RF5C68", h.RF5C68Clock},
		{"YM2203", h.YM2203Clock},
		{"YM2608", h.YM2608Clock},
		{"YM2610", h.YM2610Clock},
		{"YM3812", h.YM3812Clock},
		{"YM3526", h.YM3526Clock},
		{"Y8950", h.Y8950Clock},
		{"YMF262", h.YMF262Clock},
		{"YMF278B", h.YMF278BClock},
		{"YMF271", h.YMF271Clock},
		{"YMZ280B", h.YMZ280BClock},
		{"RF5C164", h.RF5C164Clock},
		{"PWM", h.PWMClock},
		{"AY8910", h.AY8910Clock},
		{"GameBoy DMG", h.GameBoyDMGClock},
		{"NES APU", h.NESAPUClock},
		{"MultiPCM", h.MultiPCMClock},
		{"uPD7759", h.UPD7759Clock},
		{"OKIM6258", h.OKIM6258Clock},
		{"OKIM6295", h.OKIM6295Clock},
		{"K051649", h.K051649Clock},
		{"K054539", h.K054539Clock},
		{"HuC6280", h.HuC6280Clock},
		{"C140", h.C140Clock},
		{"K053260", h.K053260Clock},
		{"Pokey", h.PokeyClock},
		{"QSound", h.QSoundClock},
		{"SCSP", h.SCSPClock},
		{"WonderSwan", h.WonderSwanClock},
		{"VSU", h.VSUClock},
		{"SAA1099", h.SAA1099Clock},
		{"ES5503", h.ES5503Clock},
		{"ES5505/6", h.ES5505Clock},
		{"X1-010", h.X1010Clock},
		{"C352", h.C352Clock},
		{"GA20", h.GA20Clock},
	}
}

// CheckClockRanges warns about configured chip clocks outside the plausible
// hardware window.
func CheckClockRanges(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	diag := baseDiag(ctx, rule)
	if err := ctx.EnsureFile(); err != nil {
		diag.Severity = ERROR
		diag.Message = "cannot parse input"
		return diag, false, err
	}
	var configured int
	for _, c := range headerClocks(ctx.File.Header) {
		// Bit 31 flags dual-chip use, bit 30 is chip-specific.
		hz := c.value & 0x3FFFFFFF
		if hz == 0 {
			continue
		}
		configured++
		if hz < minPlausibleClock || hz > maxPlausibleClock {
			diag.Severity = WARN
			diag.Message = fmt.Sprintf("%s clock %d Hz outside plausible range", c.name, hz)
			return diag, false, nil
		}
	}
	if configured == 0 {
		diag.Severity = WARN
		diag.Message = "no chip clocks configured"
		return diag, false, nil
	}
	diag.Message = fmt.Sprintf("%d chip clock(s) within plausible range", configured)
	return diag, false, nil
}

// commandChip maps a command to the header clock of the chip it addresses.
// Commands that do not target a specific chip return ok=false.
func commandChip(cmd vgm.Command, h *vgm.Header) (string, uint32, bool) {
	switch cmd.(type) {
	case vgm.PSGWrite, vgm.GameGearStereoWrite:
		return "SN76489", h.SN76489Clock, true
	case vgm.YM2413Write:
		return "YM2413", h.YM2413Clock, true
	case vgm.YM2612Write, vgm.YM2612DataWait, vgm.SeekPCM:
		return "YM2612", h.YM2612Clock, true
	case vgm.YM2151Write:
		return "YM2151", h.YM2151Clock, true
	case vgm.YM2203Write:
		return "YM2203", h.YM2203Clock, true
	case vgm.YM2608Write:
		return "YM2608", h.YM2608Clock, true
	case vgm.YM2610Write:
		return "YM2610", h.YM2610Clock, true
	case vgm.YM3812Write:
		return "YM3812", h.YM3812Clock, true
	case vgm.YM3526Write:
		return "YM3526", h.YM3526Clock, true
	case vgm.Y8950Write:
		return "Y8950", h.Y8950Clock, true
	case vgm.YMZ280BWrite:
		return "YMZ280B", h.YMZ280BClock, true
	case vgm.YMF262Write:
		return "YMF262", h.YMF262Clock, true
	case vgm.YMF278BWrite:
		return "YMF278B", h.YMF278BClock, true
	case vgm.YMF271Write:
		return "YMF271", h.YMF271Clock, true
	case vgm.AY8910Write, vgm.AY8910StereoMask:
		return "AY8910", h.AY8910Clock, true
	case vgm.RF5C68Write, vgm.RF5C68MemoryWrite:
		return "RF5C68", h.RF5C68Clock, true
	case vgm.RF5C164Write, vgm.RF5C164MemoryWrite:
		return "RF5C164", h.RF5C164Clock, true
	case vgm.PWMWrite:
		return "PWM", h.PWMClock, true
	case vgm.GameBoyDMGWrite:
		return "GameBoy DMG", h.GameBoyDMGClock, true
	case vgm.NESAPUWrite:
		return "NES APU", h.NESAPUClock, true
	case vgm.MultiPCMWrite, vgm.MultiPCMSetBank:
		return "MultiPCM", h.MultiPCMClock, true
	case vgm.UPD7759Write:
		return "uPD7759", h.UPD7759Clock, true
	case vgm.OKIM6258Write:
		return "OKIM6258", h.OKIM6258Clock, true
	case vgm.OKIM6295Write:
		return "OKIM6295", h.OKIM6295Clock, true
	case vgm.SCC1Write:
		return "K051649", h.K051649Clock, true
	case vgm.K054539Write:
		return "K054539", h.K054539Clock, true
	case vgm.HuC6280Write:
		return "HuC6280", h.HuC6280Clock, true
	case vgm.C140Write:
		return "C140", h.C140Clock, true
	case vgm.K053260Write:
		return "K053260", h.K053260Clock, true
	case vgm.PokeyWrite:
		return "Pokey", h.PokeyClock, true
	case vgm.QSoundWrite:
		return "QSound", h.QSoundClock, true
	case vgm.SCSPWrite:
		return "SCSP", h.SCSPClock, true
	case vgm.WonderSwanWrite, vgm.WonderSwanMemoryWrite:
		return "WonderSwan", h.WonderSwanClock, true
	case vgm.VSUWrite:
		return "VSU", h.VSUClock, true
	case vgm.SAA1099Write:
		return "SAA1099", h.SAA1099Clock, true
	case vgm.ES5503Write:
		return "ES5503", h.ES5503Clock, true
	case vgm.ES5506Write, vgm.ES5506Write16:
		return "ES5505/6", h.ES5505Clock, true
	case vgm.X1010Write:
		return "X1-010", h.X1010Clock, true
	case vgm.C352Write:
		return "C352", h.C352Clock, true
	case vgm.GA20Write:
		return "GA20", h.GA20Clock, true
	case vgm.SegaPCMWrite:
		return "SegaPCM", h.SegaPCMClock, true
	default:
		return "", 0, false
	}
}

// CheckCommandClockCrossRef flags commands addressing a chip whose header
// clock is zero. Players typically drop those writes on the floor.
func CheckCommandClockCrossRef(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	diag := baseDiag(ctx, rule)
	if err := ctx.EnsureFile(); err != nil {
		diag.Severity = ERROR
		diag.Message = "cannot parse input"
		return diag, false, err
	}
	h := ctx.File.Header
	for i, cmd := range ctx.File.Commands {
		name, clock, ok := commandChip(cmd, h)
		if !ok || clock != 0 {
			continue
		}
		diag.Severity = WARN
		diag.CommandIndex = i
		diag.Message = fmt.Sprintf("%s addressed by command %d but its clock is zero", name, i)
		return diag, false, nil
	}
	diag.Message = "every addressed chip has a configured clock"
	return diag, false, nil
}

// CheckLoopConsistency validates the loop offset/sample pair.
func CheckLoopConsistency(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	diag := baseDiag(ctx, rule)
	if err := ctx.EnsureFile(); err != nil {
		diag.Severity = ERROR
		diag.Message = "cannot parse input"
		return diag, false, err
	}
	h := ctx.File.Header
	if h.LoopOffset == 0 && h.LoopSamples == 0 {
		diag.Message = "no loop declared"
		return diag, false, nil
	}
	if (h.LoopOffset == 0) != (h.LoopSamples == 0) {
		diag.Severity = WARN
		diag.Offset = "0x1C"
		diag.Message = fmt.Sprintf("loop offset %d and loop samples %d must both be set or both zero",
			h.LoopOffset, h.LoopSamples)
		return diag, false, nil
	}
	if h.LoopSamples > h.TotalSamples {
		diag.Severity = ERROR
		diag.Offset = "0x20"
		diag.Message = fmt.Sprintf("loop samples %d exceed total samples %d", h.LoopSamples, h.TotalSamples)
		return diag, false, nil
	}
	loopStart := uint64(0x1C) + uint64(h.LoopOffset)
	if loopStart < uint64(h.DataStart()) || loopStart >= uint64(len(ctx.Raw)) {
		diag.Severity = ERROR
		diag.Offset = "0x1C"
		diag.Message = fmt.Sprintf("loop point 0x%X outside the command stream", loopStart)
		return diag, false, nil
	}
	diag.Message = fmt.Sprintf("loop of %d samples at 0x%X", h.LoopSamples, loopStart)
	return diag, false, nil
}

// CheckWaitTotal recomputes the stream's wait time and compares it against
// the declared total sample count.
func CheckWaitTotal(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	diag := baseDiag(ctx, rule)
	if err := ctx.EnsureFile(); err != nil {
		diag.Severity = ERROR
		diag.Message = "cannot parse input"
		return diag, false, err
	}
	var total int64
	for _, cmd := range ctx.File.Commands {
		switch c := cmd.(type) {
		case vgm.WaitNSamples:
			total += int64(c.Samples)
		case vgm.Wait735Samples:
			total += 735
		case vgm.Wait882Samples:
			total += 882
		case vgm.WaitNSamplesPlus1:
			total += int64(c.N) + 1
		case vgm.YM2612DataWait:
			total += int64(c.Wait)
		}
	}
	declared := int64(ctx.File.Header.TotalSamples)
	diag.SampleOffset = int64Ptr(total)
	if total != declared {
		diag.Severity = WARN
		diag.Offset = "0x18"
		diag.Message = fmt.Sprintf("commands wait %d samples, header declares %d", total, declared)
		diag.FixSuggested = true
		return diag, false, nil
	}
	diag.Message = fmt.Sprintf("wait commands account for all %d samples", declared)
	return diag, false, nil
}

// CheckGD3Tag reports on metadata presence.
func CheckGD3Tag(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	diag := baseDiag(ctx, rule)
	if err := ctx.EnsureFile(); err != nil {
		diag.Severity = ERROR
		diag.Message = "cannot parse input"
		return diag, false, err
	}
	tag := ctx.File.GD3
	if tag == nil {
		diag.Severity = WARN
		diag.Message = "no GD3 metadata tag"
		return diag, false, nil
	}
	if tag.TrackNameEN == "" && tag.TrackNameJP == "" {
		diag.Severity = WARN
		diag.Message = "GD3 tag present but has no track name"
		return diag, false, nil
	}
	diag.Message = fmt.Sprintf("GD3: %q from %q", tag.TrackNameEN, tag.GameNameEN)
	return diag, false, nil
}

// CheckDataBlockBudget totals data block payloads against the profile's
// cumulative ceiling.
func CheckDataBlockBudget(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	diag := baseDiag(ctx, rule)
	if err := ctx.EnsureFile(); err != nil {
		diag.Severity = ERROR
		diag.Message = "cannot parse input"
		return diag, false, err
	}
	var blocks int
	var payload uint64
	for _, cmd := range ctx.File.Commands {
		db, ok := cmd.(vgm.DataBlock)
		if !ok {
			continue
		}
		blocks++
		encoded, err := vgm.EncodeCommand(db)
		if err == nil && len(encoded) > 7 {
			payload += uint64(len(encoded) - 7)
		}
	}
	if blocks == 0 {
		diag.Message = "no data blocks"
		return diag, false, nil
	}
	budget := LimitsForProfile(ctx.Profile).MaxTotalDataBlockBytes
	if budget > 0 && payload > budget/2 {
		diag.Severity = WARN
		diag.Message = fmt.Sprintf("%d data block(s) carry %d bytes, over half the %d byte budget",
			blocks, payload, budget)
		return diag, false, nil
	}
	diag.Message = fmt.Sprintf("%d data block(s), %d payload bytes", blocks, payload)
	return diag, false, nil
}

// CheckRoundTrip re-encodes the parsed file and compares it byte for byte
// with the input. A mismatch means the file carries non-canonical padding
// or stale offsets that a rewrite would normalize.
func CheckRoundTrip(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	diag := baseDiag(ctx, rule)
	if err := ctx.EnsureFile(); err != nil {
		diag.Severity = ERROR
		diag.Message = "cannot parse input"
		return diag, false, err
	}
	encoded, err := ctx.File.Encode()
	if err != nil {
		diag.Severity = ERROR
		diag.Message = "re-encode failed"
		return diag, false, err
	}
	if !bytes.Equal(encoded, ctx.Raw) {
		limit := len(encoded)
		if len(ctx.Raw) < limit {
			limit = len(ctx.Raw)
		}
		at := limit
		for i := 0; i < limit; i++ {
			if encoded[i] != ctx.Raw[i] {
				at = i
				break
			}
		}
		diag.Severity = WARN
		diag.Offset = fmt.Sprintf("0x%X", at)
		diag.Message = fmt.Sprintf("re-encode differs from input (%d vs %d bytes, first at 0x%X)",
			len(encoded), len(ctx.Raw), at)
		diag.FixSuggested = true
		return diag, false, nil
	}
	diag.Message = "byte-exact round trip"
	return diag, false, nil
}
