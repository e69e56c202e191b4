// Copyright (C) 2025 The rapi Authors. All Rights Reserved.

// Package escape handles the escape sequences of JSON strings.
//
// Decoding is split into two steps so a caller can copy a string into
// exactly-sized arena storage: DecodedLen computes the unescaped size of a
// string body without allocating, and AppendUnquote performs the decode.
// The two always agree on the number of bytes produced.
package escape

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"go4.org/mem"
)

// ErrIncomplete is reported when the input ends in the middle of an escape
// sequence.
var ErrIncomplete = errors.New("incomplete escape sequence")

// DecodedLen reports the number of bytes the decoded form of src occupies.
// src is the body of a JSON string with the enclosing quotation marks
// already removed. Unknown or truncated escapes are errors.
func DecodedLen(src mem.RO) (int, error) {
	var n int
	for src.Len() != 0 {
		i := mem.IndexByte(src, '\\')
		if i < 0 {
			return n + src.Len(), nil
		}
		n += i
		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return 0, ErrIncomplete
		}
		switch b := src.At(0); b {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
			n++
			src = src.SliceFrom(1)
		case 'u':
			r, rest, err := decodeHexRune(src.SliceFrom(1))
			if err != nil {
				return 0, err
			}
			n += encodedRuneLen(r)
			src = rest
		default:
			return 0, fmt.Errorf("invalid escape %q", b)
		}
	}
	return n, nil
}

// AppendUnquote decodes the JSON string body src and appends the result to
// dst. It produces exactly DecodedLen(src) bytes; when dst was reserved
// with that capacity the append never reallocates.
func AppendUnquote(dst []byte, src mem.RO) ([]byte, error) {
	for src.Len() != 0 {
		i := mem.IndexByte(src, '\\')
		if i < 0 {
			return mem.Append(dst, src), nil
		}
		dst = mem.Append(dst, src.SliceTo(i))
		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return dst, ErrIncomplete
		}
		switch b := src.At(0); b {
		case '"', '\\', '/':
			dst = append(dst, b)
			src = src.SliceFrom(1)
		case 'b':
			dst = append(dst, '\b')
			src = src.SliceFrom(1)
		case 'f':
			dst = append(dst, '\f')
			src = src.SliceFrom(1)
		case 'n':
			dst = append(dst, '\n')
			src = src.SliceFrom(1)
		case 'r':
			dst = append(dst, '\r')
			src = src.SliceFrom(1)
		case 't':
			dst = append(dst, '\t')
			src = src.SliceFrom(1)
		case 'u':
			r, rest, err := decodeHexRune(src.SliceFrom(1))
			if err != nil {
				return dst, err
			}
			dst = utf8.AppendRune(dst, r)
			src = rest
		default:
			return dst, fmt.Errorf("invalid escape %q", b)
		}
	}
	return dst, nil
}

// decodeHexRune consumes the four hex digits of a \uXXXX escape from the
// front of src. Unpaired surrogate halves decode as the replacement rune,
// matching what utf8.AppendRune produces for them.
func decodeHexRune(src mem.RO) (rune, mem.RO, error) {
	if src.Len() < 4 {
		return 0, src, ErrIncomplete
	}
	var v int
	for i := 0; i < 4; i++ {
		b := src.At(i)
		v <<= 4
		switch {
		case '0' <= b && b <= '9':
			v += int(b - '0')
		case 'a' <= b && b <= 'f':
			v += int(b - 'a' + 10)
		case 'A' <= b && b <= 'F':
			v += int(b - 'A' + 10)
		default:
			return 0, src, fmt.Errorf("invalid hex digit %q", b)
		}
	}
	return rune(v), src.SliceFrom(4), nil
}

// encodedRuneLen is utf8.RuneLen extended to invalid runes, which encode as
// the replacement rune.
func encodedRuneLen(r rune) int {
	if n := utf8.RuneLen(r); n >= 0 {
		return n
	}
	return utf8.RuneLen(utf8.RuneError)
}

var controlEsc = [...]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	' ':  ' ', // sentinel
}

var hexDigit = []byte("0123456789abcdef")

// Quote encodes src for inclusion in a JSON string, without the enclosing
// quotation marks.
func Quote(src mem.RO) []byte {
	dst := make([]byte, 0, src.Len())
	for src.Len() != 0 {
		r, n := mem.DecodeRune(src)
		switch {
		case r == '\\' || r == '"':
			dst = append(dst, '\\', byte(r))
		case r < ' ':
			if b := controlEsc[r]; b != 0 {
				dst = append(dst, '\\', b)
			} else {
				dst = append(dst, '\\', 'u', '0', '0', hexDigit[r>>4], hexDigit[r&15])
			}
		default:
			dst = utf8.AppendRune(dst, r)
		}
		src = src.SliceFrom(n)
	}
	return dst
}
