package gd3

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

func TestTagRoundTrip(t *testing.T) {
	tag := &Tag{
		TrackNameEN:  "Green Hill Zone",
		GameNameEN:   "Sonic The Hedgehog",
		SystemNameEN: "Sega Mega Drive / Genesis",
		AuthorEN:     "Masato Nakamura",
		TrackNameJP:  "グリーンヒルゾーン",
		GameNameJP:   "ソニック・ザ・ヘッジホッグ",
		SystemNameJP: "メガドライブ",
		AuthorJP:     "中村正人",
		ReleaseDate:  "1991/07/26",
		Creator:      "someone",
		Notes:        "line one\nline two",
	}
	encoded, err := tag.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(encoded, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, tag) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", decoded, tag)
	}
}

func TestTagEmptyFields(t *testing.T) {
	tag := &Tag{}
	encoded, err := tag.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Header plus eleven bare terminators.
	if want := headerSize + fieldCount*2; len(encoded) != want {
		t.Fatalf("encoded length = %d, want %d", len(encoded), want)
	}
	decoded, err := Decode(encoded, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, tag) {
		t.Fatalf("round trip mismatch: %#v", decoded)
	}
}

func TestDecodeBadMagic(t *testing.T) {
	if _, err := Decode([]byte("Vgm \x00\x01\x00\x00\x00\x00\x00\x00"), 0); !errors.Is(err, ErrNoMagic) {
		t.Fatalf("expected ErrNoMagic, got %v", err)
	}
}

func TestDecodeBadVersion(t *testing.T) {
	data := []byte("Gd3 \x00\x02\x00\x00\x00\x00\x00\x00")
	_, err := Decode(data, 0)
	var verErr *VersionError
	if !errors.As(err, &verErr) {
		t.Fatalf("expected VersionError, got %v", err)
	}
	if verErr.Found != [4]byte{0x00, 0x02, 0x00, 0x00} {
		t.Fatalf("Found = % X", verErr.Found[:])
	}
}

func TestDecodeDeclaredLengthOverLimit(t *testing.T) {
	tag := &Tag{TrackNameEN: "x"}
	encoded, err := tag.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, err = Decode(encoded, 4)
	var largeErr *TooLargeError
	if !errors.As(err, &largeErr) {
		t.Fatalf("expected TooLargeError, got %v", err)
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	tag := &Tag{TrackNameEN: "x"}
	encoded, err := tag.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Claim more bytes than are present.
	binary.LittleEndian.PutUint32(encoded[8:], uint32(len(encoded)))
	_, err = Decode(encoded, 0)
	var truncErr *TruncatedError
	if !errors.As(err, &truncErr) {
		t.Fatalf("expected TruncatedError, got %v", err)
	}
}

func TestDecodeMissingTerminators(t *testing.T) {
	// A body with only three strings must fail rather than return a
	// partial tag.
	body := []byte{'a', 0, 0, 0, 'b', 0, 0, 0, 'c', 0, 0, 0}
	data := append([]byte("Gd3 \x00\x01\x00\x00"), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(data[8:], uint32(len(body)))
	data = append(data, body...)
	_, err := Decode(data, 0)
	var truncErr *TruncatedError
	if !errors.As(err, &truncErr) {
		t.Fatalf("expected TruncatedError, got %v", err)
	}
}
