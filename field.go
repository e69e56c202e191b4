// Copyright (C) 2025 The rapi Authors. All Rights Reserved.

package rapi

import (
	"go4.org/mem"
)

// A Field describes one named value to extract from a JSON object. The
// caller registers the Name; a scan fills in the located value as a
// read-only span of the response buffer. A located Field is transient: it
// must not outlive the buffer the scan ran over.
type Field struct {
	// Name is the object key to match, compared case-sensitively against
	// the raw (still escaped) key text.
	Name string

	key   mem.RO // raw key text discovered by an Iterator
	value mem.RO // located raw value span, excluding surrounding whitespace
	found bool
	count int // element count, set by Array and UintArray
}

// Found reports whether the most recent scan located the field.
func (f *Field) Found() bool { return f.found }

// Key returns the raw (still escaped) key text discovered by an Iterator.
// For fields located by ScanFields it is the empty span.
func (f *Field) Key() mem.RO { return f.key }

// Raw returns the located value span. It is only valid while the scanned
// buffer is alive.
func (f *Field) Raw() mem.RO { return f.value }

func (f *Field) reset() {
	f.key = mem.RO{}
	f.value = mem.RO{}
	f.found = false
	f.count = 0
}

// ScanFields makes a single pass over the JSON object src and fills in
// every field whose name matches a key at the object's top level. Nested
// objects and arrays are skipped whole, never searched into. Key order in
// the input does not matter; the scan stops early once every field has
// been located. Fields absent from the object are left unlocated, which is
// not an error.
//
// src must be a complete object, including the enclosing braces. The end
// of src is a hard boundary: truncated or otherwise malformed input yields
// an error wrapping ErrMalformed.
func ScanFields(src mem.RO, fields ...*Field) error {
	for _, f := range fields {
		f.reset()
	}
	pos := skipSpace(src, 0)
	if pos >= src.Len() || src.At(pos) != '{' {
		return syntaxErr(pos, "expected object")
	}
	pos++
	remaining := len(fields)

	for {
		pos = skipSpace(src, pos)
		if pos >= src.Len() {
			return syntaxErr(pos, "unterminated object")
		}
		if src.At(pos) == '}' {
			return nil
		}
		if src.At(pos) != '"' {
			return syntaxErr(pos, "expected key")
		}

		keyStart := pos + 1
		end, err := skipString(src, pos)
		if err != nil {
			return err
		}
		key := sub(src, keyStart, end-1)

		pos = skipSpace(src, end)
		if pos >= src.Len() || src.At(pos) != ':' {
			return syntaxErr(pos, "expected colon")
		}
		pos = skipSpace(src, pos+1)

		valStart := pos
		pos, err = skipValue(src, pos)
		if err != nil {
			return err
		}

		if remaining > 0 {
			for _, f := range fields {
				if !f.found && key.EqualString(f.Name) {
					f.value = sub(src, valStart, pos)
					f.found = true
					remaining--
					break
				}
			}
			if remaining == 0 {
				return nil
			}
		}

		pos = skipSpace(src, pos)
		if pos >= src.Len() {
			return syntaxErr(pos, "unterminated object")
		}
		switch src.At(pos) {
		case ',':
			pos++
		case '}':
			return nil
		default:
			return syntaxErr(pos, "expected comma or close brace")
		}
	}
}

// An Iterator is a single-pass cursor over the entries of one JSON object
// or array. It is not restartable; construct a fresh Iterator to scan the
// same span again. After the iteration stops, Err reports whether it
// stopped on malformed input.
type Iterator struct {
	src     mem.RO
	pos     int
	close   byte // '}' or ']'
	started bool
	done    bool
	err     error
}

// NewIterator constructs an Iterator over span, which must be a complete
// JSON object or array including its enclosing delimiters.
func NewIterator(span mem.RO) *Iterator {
	it := &Iterator{src: span}
	pos := skipSpace(span, 0)
	if pos >= span.Len() {
		return it.fail(syntaxErr(pos, "expected object or array"))
	}
	switch span.At(pos) {
	case '{':
		it.close = '}'
	case '[':
		it.close = ']'
	default:
		return it.fail(syntaxErr(pos, "expected object or array"))
	}
	it.pos = pos + 1
	return it
}

// NextField advances the iterator one entry and fills in f, reporting
// whether an entry was produced. Over an object each entry is a key/value
// pair; over an array each entry is a bare element and f.Key is empty.
// The field's registered Name is ignored.
func (it *Iterator) NextField(f *Field) bool {
	if it.done {
		return false
	}
	f.reset()

	pos := skipSpace(it.src, it.pos)
	if pos >= it.src.Len() {
		it.fail(syntaxErr(pos, "unterminated entry list"))
		return false
	}
	if it.src.At(pos) == it.close {
		it.done = true
		return false
	}
	if it.started {
		if it.src.At(pos) != ',' {
			it.fail(syntaxErr(pos, "expected comma"))
			return false
		}
		pos = skipSpace(it.src, pos+1)
		if pos >= it.src.Len() {
			it.fail(syntaxErr(pos, "unterminated entry list"))
			return false
		}
	}

	if it.close == '}' {
		if it.src.At(pos) != '"' {
			it.fail(syntaxErr(pos, "expected key"))
			return false
		}
		end, err := skipString(it.src, pos)
		if err != nil {
			it.fail(err)
			return false
		}
		f.key = sub(it.src, pos+1, end-1)

		pos = skipSpace(it.src, end)
		if pos >= it.src.Len() || it.src.At(pos) != ':' {
			it.fail(syntaxErr(pos, "expected colon"))
			return false
		}
		pos = skipSpace(it.src, pos+1)
	}

	start := pos
	pos, err := skipValue(it.src, pos)
	if err != nil {
		it.fail(err)
		return false
	}
	f.value = sub(it.src, start, pos)
	f.found = true
	it.pos = pos
	it.started = true
	return true
}

// NextObject consumes the next array element, which must itself be an
// object, and scans the given fields from it, reporting whether an element
// was consumed. The fields are reset for each element, so absent keys do
// not inherit spans from earlier elements.
func (it *Iterator) NextObject(fields ...*Field) bool {
	var entry Field
	if !it.NextField(&entry) {
		return false
	}
	if err := ScanFields(entry.value, fields...); err != nil {
		it.fail(err)
		return false
	}
	return true
}

// Err reports the error that stopped the iteration, if any. A nil result
// means the enclosing delimiter was reached (or iteration is still in
// progress).
func (it *Iterator) Err() error { return it.err }

func (it *Iterator) fail(err error) *Iterator {
	if it.err == nil {
		it.err = err
	}
	it.done = true
	return it
}

// sub returns the subspan src[i:j].
func sub(src mem.RO, i, j int) mem.RO {
	return src.SliceFrom(i).SliceTo(j - i)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// isDelim reports whether b terminates a bare literal.
func isDelim(b byte) bool {
	return b == ',' || b == '}' || b == ']' || isSpace(b)
}

func skipSpace(src mem.RO, pos int) int {
	for pos < src.Len() && isSpace(src.At(pos)) {
		pos++
	}
	return pos
}

// skipString advances past the quoted string starting at pos and returns
// the offset just after the closing quote. Backslash escapes are honored
// but not validated here; decoding validates them.
func skipString(src mem.RO, pos int) (int, error) {
	pos++ // opening quote
	for pos < src.Len() {
		switch src.At(pos) {
		case '\\':
			pos += 2
		case '"':
			return pos + 1, nil
		default:
			pos++
		}
	}
	return pos, syntaxErr(pos, "unterminated string")
}

// skipValue advances past one JSON value of any type starting at pos and
// returns the offset just after its end. Nested objects and arrays are
// tracked with a depth counter; bare literals run to the next delimiter.
func skipValue(src mem.RO, pos int) (int, error) {
	pos = skipSpace(src, pos)
	if pos >= src.Len() {
		return pos, syntaxErr(pos, "missing value")
	}
	switch src.At(pos) {
	case '"':
		return skipString(src, pos)

	case '{', '[':
		depth := 0
		for pos < src.Len() {
			switch src.At(pos) {
			case '"':
				var err error
				pos, err = skipString(src, pos)
				if err != nil {
					return pos, err
				}
			case '{', '[':
				depth++
				pos++
			case '}', ']':
				depth--
				pos++
				if depth == 0 {
					return pos, nil
				}
				if depth < 0 {
					return pos, syntaxErr(pos, "unbalanced brackets")
				}
			default:
				pos++
			}
		}
		return pos, syntaxErr(pos, "unterminated value")

	case ',', ':', '}', ']':
		return pos, syntaxErr(pos, "missing value")

	default:
		start := pos
		for pos < src.Len() && !isDelim(src.At(pos)) {
			pos++
		}
		if pos == start {
			return pos, syntaxErr(pos, "missing value")
		}
		return pos, nil
	}
}
