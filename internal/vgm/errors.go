package vgm

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMagic reports input that does not start with the "Vgm " ident.
	ErrNoMagic = errors.New(`magic "Vgm " not found at start of input`)
	// ErrNotGzip reports transport input with neither VGM nor gzip magic.
	ErrNotGzip = errors.New("input has neither VGM nor gzip magic")
	// ErrGzipNotVGM reports a gzip envelope whose payload is not a VGM file.
	ErrGzipNotVGM = errors.New("gzip payload does not start with VGM magic")
	// ErrMissingTable reports table-indexed decompression without a
	// decompression table in scope.
	ErrMissingTable = errors.New("decompression requires a table but none was supplied")
	// ErrBadBitWidth reports a compressed stream declaring symbol or value
	// widths outside what the bit reader supports.
	ErrBadBitWidth = errors.New("compressed bit width out of range (symbols 1..16 bits, values 1..32 bits)")
	// ErrUnexpectedEOF reports a command stream that ran out of bytes
	// before producing the end-of-sound-data terminator.
	ErrUnexpectedEOF = errors.New("command stream ended without end-of-sound-data")
)

// UnknownCommandError reports an opcode byte outside the command grammar.
// Unknown opcodes corrupt stream alignment, so they are always fatal.
type UnknownCommandError struct {
	Opcode byte
	Offset int
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command opcode 0x%02X at offset %d", e.Opcode, e.Offset)
}

// CompatByteError reports a missing 0x66 compatibility byte after one of
// the escaped opcodes (0x67 data block, 0x68 PCM RAM write).
type CompatByteError struct {
	Opcode byte
	Found  byte
	Offset int
}

func (e *CompatByteError) Error() string {
	return fmt.Sprintf("opcode 0x%02X at offset %d: compatibility byte must be 0x66, found 0x%02X",
		e.Opcode, e.Offset, e.Found)
}

// TruncatedError reports fewer remaining bytes than a field or payload
// declares.
type TruncatedError struct {
	Field  string
	Offset int
	Need   int
	Have   int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated %s at offset %d: need %d bytes, have %d",
		e.Field, e.Offset, e.Need, e.Have)
}

// UnknownCompressionError reports a compressed data block whose
// compression-type byte is outside the known set.
type UnknownCompressionError struct {
	Type byte
}

func (e *UnknownCompressionError) Error() string {
	return fmt.Sprintf("unknown compression type 0x%02X", e.Type)
}

// UnsupportedEncodeError reports a command that is structurally parseable
// but has no stable reverse encoding.
type UnsupportedEncodeError struct {
	Command string
}

func (e *UnsupportedEncodeError) Error() string {
	return fmt.Sprintf("encoding %s commands is not supported", e.Command)
}

// LimitError reports a resource guard ceiling breach. It is produced
// before the corresponding allocation, never after.
type LimitError struct {
	Limit    string
	Max      uint64
	Observed uint64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("resource limit %s exceeded: %d > %d", e.Limit, e.Observed, e.Max)
}
