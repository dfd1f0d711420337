// Package gd3 reads and writes the GD3 metadata tag appended after a VGM
// command stream: eleven NUL-terminated UTF-16LE strings in fixed order.
package gd3

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

const (
	magicWord  = "Gd3 "
	headerSize = 12
	fieldCount = 11
)

// The only GD3 version ever published.
var versionWord = [4]byte{0x00, 0x01, 0x00, 0x00}

var (
	// ErrNoMagic reports input that does not start with the "Gd3 " ident.
	ErrNoMagic = errors.New(`magic "Gd3 " not found at start of tag`)
)

// VersionError reports a GD3 version word other than 1.00.
type VersionError struct {
	Found [4]byte
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unsupported GD3 version bytes % X", e.Found[:])
}

// TooLargeError reports a declared tag length over the caller's ceiling.
type TooLargeError struct {
	Declared uint64
	Max      uint64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("GD3 tag declares %d bytes, limit is %d", e.Declared, e.Max)
}

// TruncatedError reports a tag body shorter than its header declares, or
// fewer strings than the format requires.
type TruncatedError struct {
	Need int
	Have int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated GD3 tag: need %d, have %d", e.Need, e.Have)
}

// Tag is one decoded GD3 block. Field order matches the wire order.
type Tag struct {
	TrackNameEN  string
	GameNameEN   string
	SystemNameEN string
	AuthorEN     string
	TrackNameJP  string
	GameNameJP   string
	SystemNameJP string
	AuthorJP     string
	ReleaseDate  string
	Creator      string
	Notes        string
}

func (t *Tag) fields() [fieldCount]*string {
	return [fieldCount]*string{
		&t.TrackNameEN, &t.GameNameEN, &t.SystemNameEN, &t.AuthorEN,
		&t.TrackNameJP, &t.GameNameJP, &t.SystemNameJP, &t.AuthorJP,
		&t.ReleaseDate, &t.Creator, &t.Notes,
	}
}

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Decode parses a tag from the front of data. maxBytes bounds the
// declared body length before any allocation; zero means unbounded.
func Decode(data []byte, maxBytes uint64) (*Tag, error) {
	if len(data) < 4 || string(data[0:4]) != magicWord {
		return nil, ErrNoMagic
	}
	if len(data) < headerSize {
		return nil, &TruncatedError{Need: headerSize, Have: len(data)}
	}
	var version [4]byte
	copy(version[:], data[4:8])
	if version != versionWord {
		return nil, &VersionError{Found: version}
	}
	length := binary.LittleEndian.Uint32(data[8:12])
	if maxBytes > 0 && uint64(length) > maxBytes {
		return nil, &TooLargeError{Declared: uint64(length), Max: maxBytes}
	}
	if headerSize+int(length) > len(data) {
		return nil, &TruncatedError{Need: headerSize + int(length), Have: len(data)}
	}
	body := data[headerSize : headerSize+int(length)]

	tag := &Tag{}
	dec := utf16LE.NewDecoder()
	pos := 0
	for _, field := range tag.fields() {
		start := pos
		for {
			if pos+2 > len(body) {
				return nil, &TruncatedError{Need: pos + 2, Have: len(body)}
			}
			if body[pos] == 0 && body[pos+1] == 0 {
				break
			}
			pos += 2
		}
		s, err := dec.Bytes(body[start:pos])
		if err != nil {
			return nil, fmt.Errorf("decode GD3 string: %w", err)
		}
		*field = string(s)
		pos += 2 // terminator
	}
	return tag, nil
}

// Append serializes the tag onto dst.
func (t *Tag) Append(dst []byte) ([]byte, error) {
	enc := utf16LE.NewEncoder()
	var body []byte
	for _, field := range t.fields() {
		b, err := enc.Bytes([]byte(*field))
		if err != nil {
			return nil, fmt.Errorf("encode GD3 string: %w", err)
		}
		body = append(body, b...)
		body = append(body, 0, 0)
	}
	dst = append(dst, magicWord...)
	dst = append(dst, versionWord[:]...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(body)))
	return append(dst, body...), nil
}

// Encode returns the tag's wire form.
func (t *Tag) Encode() ([]byte, error) {
	return t.Append(nil)
}

// EncodedSize returns the byte length Append would produce.
func (t *Tag) EncodedSize() (int, error) {
	b, err := t.Append(nil)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
