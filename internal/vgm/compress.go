package vgm

// Compression types carried in the first byte of a compressed stream
// block, and the bit-packing sub-modes.
const (
	CompressionBitPacking byte = 0x00
	CompressionDPCM       byte = 0x01
)

const (
	BitPackCopy      byte = 0x00
	BitPackShiftLeft byte = 0x01
	BitPackTable     byte = 0x02
)

// Decompress expands the stream's payload to UncompressedSize bytes.
// BitPacking in table mode and DPCM both require the decompression table
// that preceded the stream in the file; the other modes ignore it. The
// stream itself is left untouched, so a payload that fails to decompress
// still round-trips structurally.
func (b *CompressedStream) Decompress(table *DecompressionTable) ([]byte, error) {
	switch b.CompressionType {
	case CompressionBitPacking:
		return b.decompressBitPacking(table)
	case CompressionDPCM:
		return b.decompressDPCM(table)
	default:
		return nil, &UnknownCompressionError{Type: b.CompressionType}
	}
}

func (b *CompressedStream) decompressBitPacking(table *DecompressionTable) ([]byte, error) {
	if err := checkBitWidths(b.BitsCompressed, b.BitsDecompressed); err != nil {
		return nil, err
	}
	width := bytesPerValue(b.BitsDecompressed)
	shift := int(b.BitsDecompressed) - int(b.BitsCompressed)
	if shift < 0 {
		shift = 0
	}
	if err := b.checkDeclaredSize(width); err != nil {
		return nil, err
	}
	br := newBitReader(b.Data)
	out := make([]byte, 0, b.UncompressedSize)
	for uint32(len(out)) < b.UncompressedSize {
		sym := br.read(int(b.BitsCompressed))
		switch b.SubType {
		case BitPackCopy:
			out = appendLEValue(out, uint32(sym)+uint32(b.AddValue), width)
		case BitPackShiftLeft:
			out = appendLEValue(out, (uint32(sym)<<shift)+uint32(b.AddValue), width)
		case BitPackTable:
			if table == nil {
				return nil, ErrMissingTable
			}
			idx := int(sym) * width
			if idx+width > len(table.Data) {
				return nil, &TruncatedError{Field: "decompression table", Offset: idx, Need: width, Have: len(table.Data) - idx}
			}
			out = append(out, table.Data[idx:idx+width]...)
		default:
			return nil, &UnknownCompressionError{Type: b.SubType}
		}
	}
	return out[:b.UncompressedSize], nil
}

func (b *CompressedStream) decompressDPCM(table *DecompressionTable) ([]byte, error) {
	if table == nil {
		return nil, ErrMissingTable
	}
	if err := checkBitWidths(b.BitsCompressed, b.BitsDecompressed); err != nil {
		return nil, err
	}
	width := bytesPerValue(b.BitsDecompressed)
	if err := b.checkDeclaredSize(width); err != nil {
		return nil, err
	}
	br := newBitReader(b.Data)
	state := int64(b.AddValue)
	out := make([]byte, 0, b.UncompressedSize)
	for uint32(len(out)) < b.UncompressedSize {
		sym := br.read(int(b.BitsCompressed))
		idx := int(sym) * width
		if idx+width > len(table.Data) {
			return nil, &TruncatedError{Field: "delta table", Offset: idx, Need: width, Have: len(table.Data) - idx}
		}
		state += signedLEValue(table.Data[idx:idx+width], width)
		out = appendLEValue(out, uint32(state), width)
	}
	return out[:b.UncompressedSize], nil
}

// checkDeclaredSize bounds the declared output size by what the payload
// bits can actually produce, so a forged 32-bit size field cannot force
// a multi-gigabyte allocation. Runs before the output buffer exists.
func (b *CompressedStream) checkDeclaredSize(width int) error {
	symbols := uint64(len(b.Data)) * 8 / uint64(b.BitsCompressed)
	producible := symbols * uint64(width)
	if uint64(b.UncompressedSize) > producible {
		return &LimitError{Limit: "declared uncompressed size", Max: producible, Observed: uint64(b.UncompressedSize)}
	}
	return nil
}

func checkBitWidths(compressed, decompressed byte) error {
	if compressed == 0 || compressed > 16 || decompressed == 0 || decompressed > 32 {
		return ErrBadBitWidth
	}
	return nil
}

// bytesPerValue returns how many bytes a decompressed value of the given
// bit width occupies in the output stream.
func bytesPerValue(bits byte) int {
	n := (int(bits) + 7) / 8
	if n < 1 {
		n = 1
	}
	return n
}

// appendLEValue writes the low width bytes of v, little-endian.
func appendLEValue(dst []byte, v uint32, width int) []byte {
	for i := 0; i < width; i++ {
		dst = append(dst, byte(v>>(8*i)))
	}
	return dst
}

// signedLEValue reads a little-endian value of the given byte width and
// sign-extends it.
func signedLEValue(data []byte, width int) int64 {
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(data[i]) << (8 * i)
	}
	signBit := uint64(1) << (8*width - 1)
	if v&signBit != 0 {
		v |= ^uint64(0) << (8 * width)
	}
	return int64(v)
}
