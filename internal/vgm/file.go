package vgm

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"

	"example.com/vgmgate/internal/gd3"
)

// File is one fully decoded VGM file: header, command stream, and the
// optional GD3 tag.
type File struct {
	Header   *Header
	Commands []Command
	GD3      *gd3.Tag
}

// DecodeFile parses a whole VGM file from data. The tracker bounds every
// allocation-bearing step; nil disables guarding. Gzip-wrapped input must
// be unwrapped with DecompressTransport first.
func DecodeFile(data []byte, tracker *ResourceTracker) (*File, error) {
	header, err := DecodeHeader(data, tracker)
	if err != nil {
		return nil, err
	}

	dataStart := header.DataStart()
	if dataStart < headerPrefixSize || dataStart > len(data) {
		return nil, &TruncatedError{Field: "command stream start", Offset: dataStart, Need: dataStart, Have: len(data)}
	}

	// The command region normally ends at its own end-of-sound-data
	// command; a declared GD3 position additionally bounds it so a stream
	// missing its terminator cannot run into the tag.
	commandEnd := len(data)
	gd3Start := 0
	if header.GD3Offset != 0 {
		gd3Start = gd3OffsetPos + int(header.GD3Offset)
		if gd3Start >= dataStart && gd3Start <= len(data) {
			commandEnd = gd3Start
		}
	}

	commands, _, err := DecodeCommands(data[dataStart:commandEnd], dataStart, tracker)
	if err != nil {
		return nil, err
	}

	file := &File{Header: header, Commands: commands}
	if gd3Start != 0 {
		if gd3Start > len(data) {
			return nil, &TruncatedError{Field: "GD3 tag", Offset: gd3Start, Need: gd3Start, Have: len(data)}
		}
		tag, err := gd3.Decode(data[gd3Start:], tracker.Config().MaxMetadataBytes)
		if err != nil {
			return nil, err
		}
		file.GD3 = tag
	}
	return file, nil
}

// Encode serializes the file. The GD3 offset and end-of-file offset are
// recomputed from the assembled output, so files built programmatically
// serialize internally consistent without the caller fixing offsets by
// hand.
func (f *File) Encode() ([]byte, error) {
	dst := f.Header.AppendHeader(nil)

	dst, err := AppendCommands(dst, f.Commands)
	if err != nil {
		return nil, err
	}

	if f.GD3 != nil {
		gd3Pos := len(dst)
		dst, err = f.GD3.Append(dst)
		if err != nil {
			return nil, err
		}
		binary.LittleEndian.PutUint32(dst[gd3OffsetPos:], uint32(gd3Pos-gd3OffsetPos))
	} else if f.Header.GD3Offset == 0 {
		binary.LittleEndian.PutUint32(dst[gd3OffsetPos:], 0)
	}

	binary.LittleEndian.PutUint32(dst[eofOffsetPos:], uint32(len(dst)-4))
	return dst, nil
}

// DecompressTransport unwraps the optional gzip envelope around a VGM
// byte stream (the .vgz convention). Plain VGM data passes through
// untouched; gzip data must decompress to something that starts with the
// VGM magic.
func DecompressTransport(data []byte) ([]byte, error) {
	if len(data) >= 4 && string(data[0:4]) == magicWord {
		return data, nil
	}
	if len(data) < 2 || data[0] != 0x1F || data[1] != 0x8B {
		return nil, ErrNotGzip
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	if len(out) < 4 || string(out[0:4]) != magicWord {
		return nil, ErrGzipNotVGM
	}
	return out, nil
}
