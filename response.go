// Copyright (C) 2025 The rapi Authors. All Rights Reserved.

package rapi

import (
	"time"

	"go4.org/mem"

	"github.com/rcnet/rapi/buf"
)

// A ServerResponse carries the raw bytes and HTTP status handed back by
// the external transport. The body need not be null-terminated or even
// valid JSON; its length is the authoritative boundary for every scan.
type ServerResponse struct {
	Body       []byte
	StatusCode int
}

// A Response is the decoded envelope of one server reply. It owns the
// arena that all strings and arrays extracted from the reply are copied
// into; closing the response invalidates them all at once.
type Response struct {
	// Succeeded reports the envelope's success discriminator. It is true
	// after a successful parse of a response without a Success field.
	Succeeded bool

	// Message holds the server's error message on a discriminated
	// failure, or a description of the first required-field failure.
	Message string

	b *buf.Buffer
}

// NewResponse constructs an empty Response with its own arena.
func NewResponse() *Response {
	return &Response{b: buf.New(buf.DefaultHint)}
}

// Buffer returns the arena owned by the response.
func (r *Response) Buffer() *buf.Buffer { return r.b }

// Close releases the response's arena. Every string and array extracted
// into the response becomes invalid.
func (r *Response) Close() { r.b.Release() }

// envelope field names common to every endpoint.
const (
	fieldSuccess = "Success"
	fieldError   = "Error"
)

// ParseServerResponse decodes the common envelope of sr and then locates
// the caller's endpoint-specific fields.
//
// A non-2xx status is reported as a *StatusError before any scanning. A
// 2xx reply whose envelope carries Success=false yields an *APIError with
// the server's Error message, and the endpoint fields are never scanned,
// so a malformed payload on a failed call cannot mask the real error.
// Otherwise the caller's field table is filled by one pass over the
// top-level object, and the located fields stay valid while sr.Body does.
func (r *Response) ParseServerResponse(sr *ServerResponse, fields ...*Field) error {
	if sr.StatusCode < 200 || sr.StatusCode > 299 {
		return &StatusError{Code: sr.StatusCode}
	}

	body := mem.B(sr.Body)
	if pos := skipSpace(body, 0); pos >= body.Len() || body.At(pos) != '{' {
		return r.fail(syntaxErr(pos, "response is not a JSON object"))
	}

	// Envelope pass. ScanFields stops as soon as both fields are found,
	// which for a failed call is before the payload.
	success := Field{Name: fieldSuccess}
	errMsg := Field{Name: fieldError}
	if err := ScanFields(body, &success, &errMsg); err != nil {
		return r.fail(err)
	}

	r.Succeeded = true
	if success.Found() {
		ok, err := success.Bool()
		if err != nil {
			return r.fail(err)
		}
		if !ok {
			r.Succeeded = false
			msg, _ := errMsg.String(r.b) // optional; absent leaves it empty
			r.Message = msg
			return &APIError{Message: msg}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	if err := ScanFields(body, fields...); err != nil {
		return r.fail(err)
	}
	return nil
}

// fail stamps a schema failure into the response and returns it. A single
// required-field failure is grounds to abandon the whole decode; callers
// must not keep partial results.
func (r *Response) fail(err error) error {
	r.Message = err.Error()
	return err
}

// The Required accessors populate *out from a located field and treat any
// failure (absence included) as a schema failure: the error is stamped
// into the response's Message and returned. The Optional accessors never
// fail; they leave *out at the supplied default instead. Both variants
// share one parse path per type, so a value that a Required accessor
// would reject is exactly a value that sends its Optional counterpart to
// the default.

func (r *Response) RequiredInt(out *int, f *Field) error {
	v, err := f.Int()
	if err != nil {
		return r.fail(err)
	}
	*out = v
	return nil
}

func (r *Response) RequiredUint(out *uint32, f *Field) error {
	v, err := f.Uint()
	if err != nil {
		return r.fail(err)
	}
	*out = v
	return nil
}

func (r *Response) RequiredBool(out *bool, f *Field) error {
	v, err := f.Bool()
	if err != nil {
		return r.fail(err)
	}
	*out = v
	return nil
}

func (r *Response) RequiredDatetime(out *time.Time, f *Field) error {
	v, err := f.Datetime()
	if err != nil {
		return r.fail(err)
	}
	*out = v
	return nil
}

// RequiredString copies the decoded string into the response's arena.
func (r *Response) RequiredString(out *string, f *Field) error {
	v, err := f.String(r.b)
	if err != nil {
		return r.fail(err)
	}
	*out = v
	return nil
}

// RequiredObject scans the named sub-fields out of an object-valued field.
func (r *Response) RequiredObject(f *Field, fields ...*Field) error {
	if err := f.Object(fields...); err != nil {
		return r.fail(err)
	}
	return nil
}

// RequiredArray validates an array-valued field and returns its span and
// element count for element-by-element iteration.
func (r *Response) RequiredArray(f *Field) (mem.RO, int, error) {
	span, n, err := f.Array()
	if err != nil {
		return mem.RO{}, 0, r.fail(err)
	}
	return span, n, nil
}

// RequiredUintArray parses an array of unsigned integers into the
// response's arena.
func (r *Response) RequiredUintArray(out *[]uint32, f *Field) error {
	v, err := f.UintArray(r.b)
	if err != nil {
		return r.fail(err)
	}
	*out = v
	return nil
}

func (r *Response) OptionalInt(out *int, f *Field, def int) {
	if v, err := f.Int(); err == nil {
		*out = v
	} else {
		*out = def
	}
}

func (r *Response) OptionalUint(out *uint32, f *Field, def uint32) {
	if v, err := f.Uint(); err == nil {
		*out = v
	} else {
		*out = def
	}
}

func (r *Response) OptionalBool(out *bool, f *Field, def bool) {
	if v, err := f.Bool(); err == nil {
		*out = v
	} else {
		*out = def
	}
}

func (r *Response) OptionalDatetime(out *time.Time, f *Field, def time.Time) {
	if v, err := f.Datetime(); err == nil {
		*out = v
	} else {
		*out = def
	}
}

// OptionalString uses the default verbatim on failure; defaults are not
// copied into the arena.
func (r *Response) OptionalString(out *string, f *Field, def string) {
	if v, err := f.String(r.b); err == nil {
		*out = v
	} else {
		*out = def
	}
}
