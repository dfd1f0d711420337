package vgm

// The VGM version field stores its value in binary-coded decimal: version
// 1.71 is 0x00000171. These helpers convert between BCD words and plain
// decimal values, one nibble per decimal digit.

// BCDToDecimal converts a binary-coded decimal word to its decimal value.
// Nibbles above 9 are clamped to 9, matching the permissive reading real
// players apply to malformed version fields.
func BCDToDecimal(bcd uint32) uint32 {
	var out uint32
	var scale uint32 = 1
	for i := 0; i < 8; i++ {
		digit := (bcd >> (4 * i)) & 0xF
		if digit > 9 {
			digit = 9
		}
		out += digit * scale
		scale *= 10
	}
	return out
}

// DecimalToBCD converts a decimal value to its binary-coded decimal
// representation. Values above 99999999 do not fit eight nibbles and are
// truncated to the low eight digits.
func DecimalToBCD(v uint32) uint32 {
	var out uint32
	for i := 0; i < 8; i++ {
		out |= (v % 10) << (4 * i)
		v /= 10
	}
	return out
}
