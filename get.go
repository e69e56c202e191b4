// Copyright (C) 2025 The rapi Authors. All Rights Reserved.

package rapi

import (
	"fmt"
	"time"

	"go4.org/mem"

	"github.com/rcnet/rapi/buf"
	"github.com/rcnet/rapi/internal/escape"
)

// The typed accessors convert a located Field's raw span into a concrete
// value. Each reports one of three failures, wrapped in a *FieldError:
// ErrNotFound when the scan did not locate the field, ErrWrongType when
// the value has a different JSON type, and ErrMalformed when the value
// (or its surroundings) could not be parsed.

// Int parses the field as a signed decimal integer.
func (f *Field) Int() (int, error) {
	v, err := f.parseInt(0)
	return int(v), err
}

// Uint parses the field as an unsigned decimal integer.
func (f *Field) Uint() (uint32, error) {
	v, err := f.locate()
	if err != nil {
		return 0, f.wrap(err)
	}
	if k := classify(v); k != kindNumber {
		return 0, f.wrap(ErrWrongType)
	}
	u, err := mem.ParseUint(v, 10, 32)
	if err != nil {
		return 0, f.wrap(fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	return uint32(u), nil
}

// Bool parses the field as one of the bare literals true or false. Quoted
// or numeric truth values are rejected as the wrong type.
func (f *Field) Bool() (bool, error) {
	v, err := f.locate()
	if err != nil {
		return false, f.wrap(err)
	}
	switch {
	case v.EqualString("true"):
		return true, nil
	case v.EqualString("false"):
		return false, nil
	}
	if k := classify(v); k != kindLiteral {
		return false, f.wrap(ErrWrongType)
	}
	return false, f.wrap(fmt.Errorf("%w: not a boolean", ErrMalformed))
}

// Datetime parses the field as a Unix epoch in seconds. The wire format is
// a plain integer, not a formatted timestamp.
func (f *Field) Datetime() (time.Time, error) {
	v, err := f.parseInt(64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(v, 0), nil
}

// String decodes the field's escape sequences and copies the result into
// b. The returned string is backed by b's memory and shares its lifetime.
func (f *Field) String(b *buf.Buffer) (string, error) {
	v, err := f.locate()
	if err != nil {
		return "", f.wrap(err)
	}
	if classify(v) != kindString {
		return "", f.wrap(ErrWrongType)
	}
	if v.Len() < 2 || v.At(v.Len()-1) != '"' {
		return "", f.wrap(fmt.Errorf("%w: unterminated string", ErrMalformed))
	}
	body := sub(v, 1, v.Len()-1)

	// Pre-size the arena copy exactly, then decode straight into it.
	n, err := escape.DecodedLen(body)
	if err != nil {
		return "", f.wrap(fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	out, err := escape.AppendUnquote(b.Reserve(n), body)
	if err != nil {
		return "", f.wrap(fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	return buf.String(b.Consume(out)), nil
}

// Object re-enters field scanning on the field's own span, filling the
// given sub-fields.
func (f *Field) Object(fields ...*Field) error {
	v, err := f.locate()
	if err != nil {
		return f.wrap(err)
	}
	if classify(v) != kindObject {
		return f.wrap(ErrWrongType)
	}
	if err := ScanFields(v, fields...); err != nil {
		return f.wrap(err)
	}
	return nil
}

// Array validates that the field holds an array and returns its span
// together with the number of top-level elements. Iterate the elements
// with a NewIterator over the returned span; for arrays of objects use
// Iterator.NextObject.
func (f *Field) Array() (mem.RO, int, error) {
	v, err := f.locate()
	if err != nil {
		return mem.RO{}, 0, f.wrap(err)
	}
	if classify(v) != kindArray {
		return mem.RO{}, 0, f.wrap(ErrWrongType)
	}
	it := NewIterator(v)
	var elem Field
	n := 0
	for it.NextField(&elem) {
		n++
	}
	if err := it.Err(); err != nil {
		return mem.RO{}, 0, f.wrap(err)
	}
	f.count = n
	return v, n, nil
}

// Count reports the element count recorded by the most recent Array or
// UintArray call.
func (f *Field) Count() int { return f.count }

// UintArray parses the field as an array of unsigned integers into a
// contiguous slice allocated from b, preserving element order.
func (f *Field) UintArray(b *buf.Buffer) ([]uint32, error) {
	span, n, err := f.Array()
	if err != nil {
		return nil, err
	}
	out := b.AllocUints(n)
	it := NewIterator(span)
	var elem Field
	i := 0
	for it.NextField(&elem) {
		v, err := elem.Uint()
		if err != nil {
			return nil, f.wrap(fmt.Errorf("element %d: %w", i, unwrapField(err)))
		}
		out[i] = v
		i++
	}
	if err := it.Err(); err != nil {
		return nil, f.wrap(err)
	}
	return out, nil
}

func (f *Field) locate() (mem.RO, error) {
	if !f.found {
		return mem.RO{}, ErrNotFound
	}
	return f.value, nil
}

func (f *Field) parseInt(bitSize int) (int64, error) {
	v, err := f.locate()
	if err != nil {
		return 0, f.wrap(err)
	}
	if k := classify(v); k != kindNumber {
		return 0, f.wrap(ErrWrongType)
	}
	n, err := mem.ParseInt(v, 10, bitSize)
	if err != nil {
		return 0, f.wrap(fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	return n, nil
}

func (f *Field) wrap(err error) error {
	if err == nil {
		return nil
	}
	return &FieldError{Name: f.Name, Err: err}
}

// unwrapField strips one FieldError layer so nesting accessors do not
// stack field names.
func unwrapField(err error) error {
	if fe, ok := err.(*FieldError); ok {
		return fe.Err
	}
	return err
}

// JSON value kinds as judged from the first byte of a span.
type kind byte

const (
	kindEmpty kind = iota
	kindString
	kindObject
	kindArray
	kindNumber
	kindLiteral // true, false, null, or junk
)

func classify(v mem.RO) kind {
	if v.Len() == 0 {
		return kindEmpty
	}
	switch b := v.At(0); {
	case b == '"':
		return kindString
	case b == '{':
		return kindObject
	case b == '[':
		return kindArray
	case b == '-' || ('0' <= b && b <= '9'):
		return kindNumber
	default:
		return kindLiteral
	}
}
