// Copyright (C) 2025 The rapi Authors. All Rights Reserved.

package rapi

import (
	"errors"
	"fmt"
)

// Sentinel errors distinguishing the ways a field access can fail. Use
// errors.Is to test for them; accessors return them wrapped in a
// [*FieldError] naming the field.
var (
	// ErrNotFound reports that the field is absent at the scanned level.
	ErrNotFound = errors.New("not found")

	// ErrWrongType reports that the field is present but holds a value of
	// a different JSON type than the accessor expects.
	ErrWrongType = errors.New("wrong type")

	// ErrMalformed reports a value (or enclosing JSON) that could not be
	// scanned: an unterminated string, unbalanced brackets, truncated
	// input, or a literal that does not parse.
	ErrMalformed = errors.New("malformed value")
)

// ErrOverflow is reported by URLBuilder when an append exceeds the size
// estimate the builder was created with. It indicates a programming error
// in the caller's estimate, not a runtime condition.
var ErrOverflow = errors.New("url builder: estimated size exceeded")

// A FieldError describes a failure to access a named field.
type FieldError struct {
	Name string // the registered field name, or "" for array elements
	Err  error  // wraps ErrNotFound, ErrWrongType or ErrMalformed
}

func (e *FieldError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("array element: %v", e.Err)
	}
	return fmt.Sprintf("field %q: %v", e.Name, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// A StatusError reports a non-2xx HTTP status. It is returned before any
// JSON scanning takes place, so it never carries field information.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned HTTP status %d", e.Code)
}

// An APIError reports a response whose envelope carried Success=false. The
// message is the server-provided error string, if any.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "server reported failure"
	}
	return e.Message
}

// syntaxErr wraps ErrMalformed with the byte offset at which scanning
// stopped.
func syntaxErr(pos int, msg string) error {
	return fmt.Errorf("offset %d: %s: %w", pos, msg, ErrMalformed)
}
