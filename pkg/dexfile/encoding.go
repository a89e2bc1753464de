package dexfile

import "unicode/utf16"

// appendULEB128 appends v in unsigned LEB128 form.
func appendULEB128(buf []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			return append(buf, b)
		}
	}
}

// utf16Length returns the number of UTF-16 code units in s, which is what
// a string_data_item's leading uleb128 counts.
func utf16Length(s string) int {
	n := 0
	for _, r := range s {
		n += len(utf16.Encode([]rune{r}))
	}
	return n
}

// appendMUTF8 appends s in Modified UTF-8: U+0000 becomes the two-byte
// sequence 0xC0 0x80 and supplementary characters are encoded as surrogate
// pairs, each surrogate in three-byte form.
func appendMUTF8(buf []byte, s string) []byte {
	for _, r := range s {
		switch {
		case r == 0:
			buf = append(buf, 0xC0, 0x80)
		case r < 0x80:
			buf = append(buf, byte(r))
		case r < 0x800:
			buf = append(buf, byte(0xC0|r>>6), byte(0x80|r&0x3F))
		case r < 0x10000:
			buf = append(buf, byte(0xE0|r>>12), byte(0x80|r>>6&0x3F), byte(0x80|r&0x3F))
		default:
			for _, u := range utf16.Encode([]rune{r}) {
				r16 := rune(u)
				buf = append(buf, byte(0xE0|r16>>12), byte(0x80|r16>>6&0x3F), byte(0x80|r16&0x3F))
			}
		}
	}
	return buf
}
