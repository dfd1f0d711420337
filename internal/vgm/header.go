package vgm

import "encoding/binary"

// Header byte-layout anchors. The fixed prefix runs to 0x38 (through the
// data offset field); everything after is present only if the cursor
// reaches it before the data or extra-header stop offsets fire.
const (
	headerPrefixSize  = 0x38
	headerMaxSize     = 0xE4
	dataOffsetPos     = 0x34
	gd3OffsetPos      = 0x14
	loopOffsetPos     = 0x1C
	extraHeaderPos    = 0xBC
	legacyDataStart   = 0x40
	extraPrologueSize = 12
	eofOffsetPos      = 0x04
	magicWord         = "Vgm "
)

// Header is the flat field record of a VGM file header. Fields past the
// fixed prefix keep their zero value when the file's declared offsets cut
// the header short; a zero therefore means "absent or zero", which is how
// the format itself treats them.
type Header struct {
	EndOfFileOffset uint32
	Version         uint32
	SN76489Clock    uint32
	YM2413Clock     uint32
	GD3Offset       uint32
	TotalSamples    uint32
	LoopOffset      uint32
	LoopSamples     uint32
	Rate            uint32

	SN76489Feedback   uint16
	SN76489ShiftWidth uint8
	SN76489Flags      uint8

	YM2612Clock uint32
	YM2151Clock uint32
	DataOffset  uint32

	SegaPCMClock             uint32
	SegaPCMInterfaceRegister uint32
	RF5C68Clock              uint32
	YM2203Clock              uint32
	YM2608Clock              uint32
	YM2610Clock              uint32
	YM3812Clock              uint32
	YM3526Clock              uint32
	Y8950Clock               uint32
	YMF262Clock              uint32
	YMF278BClock             uint32
	YMF271Clock              uint32
	YMZ280BClock             uint32
	RF5C164Clock             uint32
	PWMClock                 uint32
	AY8910Clock              uint32

	AY8910Type        uint8
	AY8910Flags       uint8
	YM2203AY8910Flags uint8
	YM2608AY8910Flags uint8

	VolumeModifier uint8
	Reserved7D     uint8
	LoopBase       uint8
	LoopModifier   uint8

	GameBoyDMGClock uint32
	NESAPUClock     uint32
	MultiPCMClock   uint32
	UPD7759Clock    uint32
	OKIM6258Clock   uint32

	OKIM6258Flags uint8
	K054539Flags  uint8
	C140ChipType  uint8
	Reserved97    uint8

	OKIM6295Clock uint32
	K051649Clock  uint32
	K054539Clock  uint32
	HuC6280Clock  uint32
	C140Clock     uint32
	K053260Clock  uint32
	PokeyClock    uint32
	QSoundClock   uint32
	SCSPClock     uint32

	ExtraHeaderOffset uint32

	WonderSwanClock uint32
	VSUClock        uint32
	SAA1099Clock    uint32
	ES5503Clock     uint32
	ES5505Clock     uint32

	ES5503Channels   uint8
	ES5505Channels   uint8
	C352ClockDivider uint8
	ReservedD7       uint8

	X1010Clock uint32
	C352Clock  uint32
	GA20Clock  uint32

	// ExtraHeader is non-nil only when ExtraHeaderOffset was nonzero.
	ExtraHeader *ExtraHeader
}

// DataStart returns the absolute file position where the command stream
// begins. A zero data offset is the pre-1.50 legacy layout with data at
// 0x40; the raw zero is preserved in DataOffset so re-encoding keeps it.
func (h *Header) DataStart() int {
	if h.DataOffset == 0 {
		return legacyDataStart
	}
	return int(h.DataOffset) + dataOffsetPos
}

// extraStart returns the absolute position of the extra header region, or
// 0 when none is declared.
func (h *Header) extraStart() int {
	if h.ExtraHeaderOffset == 0 {
		return 0
	}
	return int(h.ExtraHeaderOffset) + extraHeaderPos
}

// ChipClockEntry overrides one chip's clock from the extra header.
type ChipClockEntry struct {
	ChipID byte
	Clock  uint32
}

// ChipVolumeEntry sets one chip's relative volume from the extra header.
type ChipVolumeEntry struct {
	ChipID byte
	Flags  byte
	Volume uint16
}

// ExtraHeader is the optional v1.70+ sub-region carrying chip clock and
// volume overrides. The two sections may appear in either order on the
// wire; VolumeFirst records the order seen at parse time so encoding
// replicates it.
type ExtraHeader struct {
	PrologueSize  uint32
	ClockEntries  []ChipClockEntry
	VolumeEntries []ChipVolumeEntry
	VolumeFirst   bool
}

// headerField describes one offset-gated header field: its byte width and
// accessors into Header. The walk over this table is the whole
// progressive-presence mechanism; encode and decode share it so the round
// trip is symmetric by construction.
type headerField struct {
	name  string
	width int
	get   func(h *Header) uint32
	set   func(h *Header, v uint32)
}

func fieldU32(name string, p func(h *Header) *uint32) headerField {
	return headerField{
		name:  name,
		width: 4,
		get:   func(h *Header) uint32 { return *p(h) },
		set:   func(h *Header, v uint32) { *p(h) = v },
	}
}

func fieldU8(name string, p func(h *Header) *uint8) headerField {
	return headerField{
		name:  name,
		width: 1,
		get:   func(h *Header) uint32 { return uint32(*p(h)) },
		set:   func(h *Header, v uint32) { *p(h) = uint8(v) },
	}
}

// gatedFields lists every header field from 0x38 through 0xE0 in wire
// order.
var gatedFields = []headerField{
	fieldU32("SegaPCM clock", func(h *Header) *uint32 { return &h.SegaPCMClock }),
	fieldU32("SegaPCM interface register", func(h *Header) *uint32 { return &h.SegaPCMInterfaceRegister }),
	fieldU32("RF5C68 clock", func(h *Header) *uint32 { return &h.RF5C68Clock }),
	fieldU32("YM2203 clock", func(h *Header) *uint32 { return &h.YM2203Clock }),
	fieldU32("YM2608 clock", func(h *Header) *uint32 { return &h.YM2608Clock }),
	fieldU32("YM2610 clock", func(h *Header) *uint32 { return &h.YM2610Clock }),
	fieldU32("YM3812 clock", func(h *Header) *uint32 { return &h.YM3812Clock }),
	fieldU32("YM3526 clock", func(h *Header) *uint32 { return &h.YM3526Clock }),
	fieldU32("Y8950 clock", func(h *Header) *uint32 { return &h.Y8950Clock }),
	fieldU32("YMF262 clock", func(h *Header) *uint32 { return &h.YMF262Clock }),
	fieldU32("YMF278B clock", func(h *Header) *uint32 { return &h.YMF278BClock }),
	fieldU32("YMF271 clock", func(h *Header) *uint32 { return &h.YMF271Clock }),
	fieldU32("YMZ280B clock", func(h *Header) *uint32 { return &h.YMZ280BClock }),
	fieldU32("RF5C164 clock", func(h *Header) *uint32 { return &h.RF5C164Clock }),
	fieldU32("PWM clock", func(h *Header) *uint32 { return &h.PWMClock }),
	fieldU32("AY8910 clock", func(h *Header) *uint32 { return &h.AY8910Clock }),
	fieldU8("AY8910 type", func(h *Header) *uint8 { return &h.AY8910Type }),
	fieldU8("AY8910 flags", func(h *Header) *uint8 { return &h.AY8910Flags }),
	fieldU8("YM2203/AY8910 flags", func(h *Header) *uint8 { return &h.YM2203AY8910Flags }),
	fieldU8("YM2608/AY8910 flags", func(h *Header) *uint8 { return &h.YM2608AY8910Flags }),
	fieldU8("volume modifier", func(h *Header) *uint8 { return &h.VolumeModifier }),
	fieldU8("reserved 0x7D", func(h *Header) *uint8 { return &h.Reserved7D }),
	fieldU8("loop base", func(h *Header) *uint8 { return &h.LoopBase }),
	fieldU8("loop modifier", func(h *Header) *uint8 { return &h.LoopModifier }),
	fieldU32("Game Boy DMG clock", func(h *Header) *uint32 { return &h.GameBoyDMGClock }),
	fieldU32("NES APU clock", func(h *Header) *uint32 { return &h.NESAPUClock }),
	fieldU32("MultiPCM clock", func(h *Header) *uint32 { return &h.MultiPCMClock }),
	fieldU32("uPD7759 clock", func(h *Header) *uint32 { return &h.UPD7759Clock }),
	fieldU32("OKIM6258 clock", func(h *Header) *uint32 { return &h.OKIM6258Clock }),
	fieldU8("OKIM6258 flags", func(h *Header) *uint8 { return &h.OKIM6258Flags }),
	fieldU8("K054539 flags", func(h *Header) *uint8 { return &h.K054539Flags }),
	fieldU8("C140 chip type", func(h *Header) *uint8 { return &h.C140ChipType }),
	fieldU8("reserved 0x97", func(h *Header) *uint8 { return &h.Reserved97 }),
	fieldU32("OKIM6295 clock", func(h *Header) *uint32 { return &h.OKIM6295Clock }),
	fieldU32("K051649 clock", func(h *Header) *uint32 { return &h.K051649Clock }),
	fieldU32("K054539 clock", func(h *Header) *uint32 { return &h.K054539Clock }),
	fieldU32("HuC6280 clock", func(h *Header) *uint32 { return &h.HuC6280Clock }),
	fieldU32("C140 clock", func(h *Header) *uint32 { return &h.C140Clock }),
	fieldU32("K053260 clock", func(h *Header) *uint32 { return &h.K053260Clock }),
	fieldU32("Pokey clock", func(h *Header) *uint32 { return &h.PokeyClock }),
	fieldU32("QSound clock", func(h *Header) *uint32 { return &h.QSoundClock }),
	fieldU32("SCSP clock", func(h *Header) *uint32 { return &h.SCSPClock }),
	fieldU32("extra header offset", func(h *Header) *uint32 { return &h.ExtraHeaderOffset }),
	fieldU32("WonderSwan clock", func(h *Header) *uint32 { return &h.WonderSwanClock }),
	fieldU32("VSU clock", func(h *Header) *uint32 { return &h.VSUClock }),
	fieldU32("SAA1099 clock", func(h *Header) *uint32 { return &h.SAA1099Clock }),
	fieldU32("ES5503 clock", func(h *Header) *uint32 { return &h.ES5503Clock }),
	fieldU32("ES5505 clock", func(h *Header) *uint32 { return &h.ES5505Clock }),
	fieldU8("ES5503 output channels", func(h *Header) *uint8 { return &h.ES5503Channels }),
	fieldU8("ES5505 output channels", func(h *Header) *uint8 { return &h.ES5505Channels }),
	fieldU8("C352 clock divider", func(h *Header) *uint8 { return &h.C352ClockDivider }),
	fieldU8("reserved 0xD7", func(h *Header) *uint8 { return &h.ReservedD7 }),
	fieldU32("X1-010 clock", func(h *Header) *uint32 { return &h.X1010Clock }),
	fieldU32("C352 clock", func(h *Header) *uint32 { return &h.C352Clock }),
	fieldU32("GA20 clock", func(h *Header) *uint32 { return &h.GA20Clock }),
}

// DecodeHeader parses a header from the start of data. data must hold at
// least the file's whole header region (normally the whole file). The
// tracker bounds extra-header entry counts; nil disables that check.
func DecodeHeader(data []byte, tracker *ResourceTracker) (*Header, error) {
	if len(data) < 4 || string(data[0:4]) != magicWord {
		return nil, ErrNoMagic
	}
	if len(data) < headerPrefixSize {
		return nil, &TruncatedError{Field: "header prefix", Offset: 0, Need: headerPrefixSize, Have: len(data)}
	}

	h := &Header{
		EndOfFileOffset:   binary.LittleEndian.Uint32(data[0x04:]),
		Version:           binary.LittleEndian.Uint32(data[0x08:]),
		SN76489Clock:      binary.LittleEndian.Uint32(data[0x0C:]),
		YM2413Clock:       binary.LittleEndian.Uint32(data[0x10:]),
		GD3Offset:         binary.LittleEndian.Uint32(data[0x14:]),
		TotalSamples:      binary.LittleEndian.Uint32(data[0x18:]),
		LoopOffset:        binary.LittleEndian.Uint32(data[0x1C:]),
		LoopSamples:       binary.LittleEndian.Uint32(data[0x20:]),
		Rate:              binary.LittleEndian.Uint32(data[0x24:]),
		SN76489Feedback:   binary.LittleEndian.Uint16(data[0x28:]),
		SN76489ShiftWidth: data[0x2A],
		SN76489Flags:      data[0x2B],
		YM2612Clock:       binary.LittleEndian.Uint32(data[0x2C:]),
		YM2151Clock:       binary.LittleEndian.Uint32(data[0x30:]),
		DataOffset:        binary.LittleEndian.Uint32(data[0x34:]),
	}

	dataStart := h.DataStart()
	pos := headerPrefixSize
	for _, f := range gatedFields {
		if pos >= dataStart {
			return h, nil
		}
		if es := h.extraStart(); es != 0 && pos >= es {
			return h, h.decodeExtraHeader(data, es, dataStart, tracker)
		}
		if pos+f.width > len(data) {
			return nil, &TruncatedError{Field: f.name, Offset: pos, Need: f.width, Have: len(data) - pos}
		}
		switch f.width {
		case 1:
			f.set(h, uint32(data[pos]))
		case 2:
			f.set(h, uint32(binary.LittleEndian.Uint16(data[pos:])))
		default:
			f.set(h, binary.LittleEndian.Uint32(data[pos:]))
		}
		pos += f.width
	}
	// The full 0xE4 layout was present; an extra header may still sit
	// between the header end and the command stream.
	if es := h.extraStart(); es != 0 && es >= pos {
		return h, h.decodeExtraHeader(data, es, dataStart, tracker)
	}
	return h, nil
}

func (h *Header) decodeExtraHeader(data []byte, start, dataStart int, tracker *ResourceTracker) error {
	if start+extraPrologueSize > len(data) {
		return &TruncatedError{Field: "extra header prologue", Offset: start, Need: extraPrologueSize, Have: len(data) - start}
	}
	eh := &ExtraHeader{
		PrologueSize: binary.LittleEndian.Uint32(data[start:]),
	}
	clockOff := binary.LittleEndian.Uint32(data[start+4:])
	volOff := binary.LittleEndian.Uint32(data[start+8:])

	clockPos, volPos := 0, 0
	if clockOff != 0 {
		clockPos = start + 4 + int(clockOff)
	}
	if volOff != 0 {
		volPos = start + 8 + int(volOff)
	}
	eh.VolumeFirst = volPos != 0 && (clockPos == 0 || volPos < clockPos)

	if clockPos != 0 {
		entries, err := decodeClockEntries(data, clockPos, tracker)
		if err != nil {
			return err
		}
		eh.ClockEntries = entries
	}
	if volPos != 0 {
		entries, err := decodeVolumeEntries(data, volPos, tracker)
		if err != nil {
			return err
		}
		eh.VolumeEntries = entries
	}
	_ = dataStart // region is zero-padded up to dataStart; padding carries no data
	h.ExtraHeader = eh
	return nil
}

func decodeClockEntries(data []byte, pos int, tracker *ResourceTracker) ([]ChipClockEntry, error) {
	if pos >= len(data) {
		return nil, &TruncatedError{Field: "chip clock entry count", Offset: pos, Need: 1, Have: 0}
	}
	count := int(data[pos])
	if err := tracker.TrackExtraHeaderEntries(uint64(count)); err != nil {
		return nil, err
	}
	pos++
	if pos+count*5 > len(data) {
		return nil, &TruncatedError{Field: "chip clock entries", Offset: pos, Need: count * 5, Have: len(data) - pos}
	}
	entries := make([]ChipClockEntry, count)
	for i := range entries {
		entries[i] = ChipClockEntry{
			ChipID: data[pos],
			Clock:  binary.LittleEndian.Uint32(data[pos+1:]),
		}
		pos += 5
	}
	return entries, nil
}

func decodeVolumeEntries(data []byte, pos int, tracker *ResourceTracker) ([]ChipVolumeEntry, error) {
	if pos >= len(data) {
		return nil, &TruncatedError{Field: "chip volume entry count", Offset: pos, Need: 1, Have: 0}
	}
	count := int(data[pos])
	if err := tracker.TrackExtraHeaderEntries(uint64(count)); err != nil {
		return nil, err
	}
	pos++
	if pos+count*4 > len(data) {
		return nil, &TruncatedError{Field: "chip volume entries", Offset: pos, Need: count * 4, Have: len(data) - pos}
	}
	entries := make([]ChipVolumeEntry, count)
	for i := range entries {
		entries[i] = ChipVolumeEntry{
			ChipID: data[pos],
			Flags:  data[pos+1],
			Volume: binary.LittleEndian.Uint16(data[pos+2:]),
		}
		pos += 4
	}
	return entries, nil
}

// AppendHeader serializes the header onto dst, mirroring the decode walk:
// fields are written until the data or extra-header stop offset fires, so
// a decoded header re-encodes to exactly its original length.
func (h *Header) AppendHeader(dst []byte) []byte {
	base := len(dst)

	dst = append(dst, magicWord...)
	dst = binary.LittleEndian.AppendUint32(dst, h.EndOfFileOffset)
	dst = binary.LittleEndian.AppendUint32(dst, h.Version)
	dst = binary.LittleEndian.AppendUint32(dst, h.SN76489Clock)
	dst = binary.LittleEndian.AppendUint32(dst, h.YM2413Clock)
	dst = binary.LittleEndian.AppendUint32(dst, h.GD3Offset)
	dst = binary.LittleEndian.AppendUint32(dst, h.TotalSamples)
	dst = binary.LittleEndian.AppendUint32(dst, h.LoopOffset)
	dst = binary.LittleEndian.AppendUint32(dst, h.LoopSamples)
	dst = binary.LittleEndian.AppendUint32(dst, h.Rate)
	dst = binary.LittleEndian.AppendUint16(dst, h.SN76489Feedback)
	dst = append(dst, h.SN76489ShiftWidth, h.SN76489Flags)
	dst = binary.LittleEndian.AppendUint32(dst, h.YM2612Clock)
	dst = binary.LittleEndian.AppendUint32(dst, h.YM2151Clock)
	dst = binary.LittleEndian.AppendUint32(dst, h.DataOffset)

	dataStart := h.DataStart()
	pos := headerPrefixSize
	for _, f := range gatedFields {
		if pos >= dataStart {
			return dst
		}
		if es := h.extraStart(); es != 0 && pos >= es {
			return h.appendExtraHeader(dst, base, dataStart)
		}
		v := f.get(h)
		switch f.width {
		case 1:
			dst = append(dst, byte(v))
		case 2:
			dst = binary.LittleEndian.AppendUint16(dst, uint16(v))
		default:
			dst = binary.LittleEndian.AppendUint32(dst, v)
		}
		pos += f.width
	}
	if es := h.extraStart(); es != 0 && es >= pos {
		dst = appendZeros(dst, es-pos)
		return h.appendExtraHeader(dst, base, dataStart)
	}
	if dataStart > pos {
		dst = appendZeros(dst, dataStart-pos)
	}
	return dst
}

func (h *Header) appendExtraHeader(dst []byte, base, dataStart int) []byte {
	eh := h.ExtraHeader
	if eh == nil {
		eh = &ExtraHeader{PrologueSize: extraPrologueSize}
	}
	start := len(dst) - base

	// Section positions: the first section follows the prologue, the
	// second follows the first, honoring the order seen at parse time.
	clockSize := 0
	if eh.ClockEntries != nil {
		clockSize = 1 + 5*len(eh.ClockEntries)
	}
	volSize := 0
	if eh.VolumeEntries != nil {
		volSize = 1 + 4*len(eh.VolumeEntries)
	}

	clockPos, volPos := 0, 0
	next := start + extraPrologueSize
	if eh.VolumeFirst {
		if volSize > 0 {
			volPos = next
			next += volSize
		}
		if clockSize > 0 {
			clockPos = next
		}
	} else {
		if clockSize > 0 {
			clockPos = next
			next += clockSize
		}
		if volSize > 0 {
			volPos = next
		}
	}

	dst = binary.LittleEndian.AppendUint32(dst, eh.PrologueSize)
	if clockPos != 0 {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(clockPos-(start+4)))
	} else {
		dst = binary.LittleEndian.AppendUint32(dst, 0)
	}
	if volPos != 0 {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(volPos-(start+8)))
	} else {
		dst = binary.LittleEndian.AppendUint32(dst, 0)
	}

	appendClock := func(dst []byte) []byte {
		dst = append(dst, byte(len(eh.ClockEntries)))
		for _, e := range eh.ClockEntries {
			dst = append(dst, e.ChipID)
			dst = binary.LittleEndian.AppendUint32(dst, e.Clock)
		}
		return dst
	}
	appendVolume := func(dst []byte) []byte {
		dst = append(dst, byte(len(eh.VolumeEntries)))
		for _, e := range eh.VolumeEntries {
			dst = append(dst, e.ChipID, e.Flags)
			dst = binary.LittleEndian.AppendUint16(dst, e.Volume)
		}
		return dst
	}
	if eh.VolumeFirst {
		if volSize > 0 {
			dst = appendVolume(dst)
		}
		if clockSize > 0 {
			dst = appendClock(dst)
		}
	} else {
		if clockSize > 0 {
			dst = appendClock(dst)
		}
		if volSize > 0 {
			dst = appendVolume(dst)
		}
	}

	if pad := dataStart - (len(dst) - base); pad > 0 {
		dst = appendZeros(dst, pad)
	}
	return dst
}

// EncodeHeader returns the header's wire form, from the magic through the
// byte before the command stream.
func (h *Header) EncodeHeader() []byte {
	return h.AppendHeader(nil)
}

func appendZeros(dst []byte, n int) []byte {
	return append(dst, make([]byte, n)...)
}
