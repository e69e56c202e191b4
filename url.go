// Copyright (C) 2025 The rapi Authors. All Rights Reserved.

package rapi

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/rcnet/rapi/buf"
)

// ContentTypeURLEncoded is the content type paired with a request whose
// parameters are submitted as a POST body.
const ContentTypeURLEncoded = "application/x-www-form-urlencoded"

// DefaultHost is the server requests are addressed to unless the caller
// overrides it with Request.SetHost.
const DefaultHost = "https://retroachievements.org"

// A Request is the outbound envelope handed to the transport. It owns the
// arena backing its URL and post data; both stay valid until Close.
type Request struct {
	// URL is the finalized request URL.
	URL string

	// PostData holds the form-encoded body for POST-style submission, and
	// ContentType its media type. Both are empty for plain GET requests.
	PostData    string
	ContentType string

	host string
	b    *buf.Buffer
}

// NewRequest constructs an empty Request with its own arena, addressed to
// DefaultHost.
func NewRequest() *Request {
	return &Request{host: DefaultHost, b: buf.New(buf.DefaultHint)}
}

// Buffer returns the arena owned by the request.
func (r *Request) Buffer() *buf.Buffer { return r.b }

// SetHost overrides the server the request is addressed to. A trailing
// slash is dropped.
func (r *Request) SetHost(host string) {
	r.host = strings.TrimSuffix(host, "/")
}

// Close releases the request's arena, invalidating URL and PostData.
func (r *Request) Close() { r.b.Release() }

// BuildAuthURL builds the standard authenticated call URL into the
// request's arena: the endpoint path followed by the u (username) and
// t (API token) parameters, credentials percent-encoded.
func (r *Request) BuildAuthURL(endpoint, username, token string) error {
	est := len(r.host) + 1 + len(endpoint) + 3*len(username) + 3*len(token) + len("?u=&t=")
	b := NewURLBuilder(r.b, est)
	b.AppendRaw(r.host)
	b.AppendRaw("/")
	b.AppendRaw(endpoint)
	b.AppendStrParam("u", username)
	b.AppendStrParam("t", token)
	url, err := b.Finalize()
	if err != nil {
		return err
	}
	r.URL = url
	return nil
}

// SetPostData records a form-encoded POST body for the request.
func (r *Request) SetPostData(data string) {
	r.PostData = data
	r.ContentType = ContentTypeURLEncoded
}

// A URLBuilder accumulates a percent-encoded URL in a region reserved from
// an arena. The builder is sized by an estimate supplied at construction;
// the first append that would exceed it records ErrOverflow, every later
// append is a no-op, and Finalize reports the error. Exceeding the
// estimate is a bug in the caller, not a runtime condition.
type URLBuilder struct {
	b      *buf.Buffer
	region []byte
	limit  int // write bound from the construction-time estimate
	params int
	err    error
}

// NewURLBuilder constructs a builder over a region of estimate bytes
// reserved from b. Until Finalize commits it, no other reservation may be
// taken from b.
func NewURLBuilder(b *buf.Buffer, estimate int) *URLBuilder {
	return &URLBuilder{b: b, region: b.Reserve(estimate), limit: estimate}
}

// Err reports the first append failure, if any.
func (u *URLBuilder) Err() error { return u.err }

// Finalize commits the accumulated bytes into the arena and returns the
// URL as a string backed by arena memory. If any append failed, Finalize
// returns the recorded error and commits nothing.
func (u *URLBuilder) Finalize() (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return buf.String(u.b.Consume(u.region)), nil
}

// AppendRaw appends s verbatim.
func (u *URLBuilder) AppendRaw(s string) {
	if u.err != nil {
		return
	}
	if len(u.region)+len(s) > u.limit {
		u.err = ErrOverflow
		return
	}
	u.region = append(u.region, s...)
}

// AppendEncoded appends s with every byte outside the unreserved set
// [A-Za-z0-9-_.~] percent-encoded as %XX with upper-case hex digits.
func (u *URLBuilder) AppendEncoded(s string) {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if isUnreserved(b) {
			u.appendByte(b)
		} else {
			u.appendByte('%', upperHex[b>>4], upperHex[b&15])
		}
	}
}

// AppendStrParam appends a name=value parameter with the value
// percent-encoded.
func (u *URLBuilder) AppendStrParam(name, value string) {
	u.appendParamName(name)
	u.AppendEncoded(value)
}

// AppendNumParam appends a name=value parameter with a signed decimal
// value.
func (u *URLBuilder) AppendNumParam(name string, value int) {
	var tmp [20]byte
	u.appendParamName(name)
	u.AppendRaw(string(strconv.AppendInt(tmp[:0], int64(value), 10)))
}

// AppendUnumParam appends a name=value parameter with an unsigned decimal
// value.
func (u *URLBuilder) AppendUnumParam(name string, value uint32) {
	var tmp [20]byte
	u.appendParamName(name)
	u.AppendRaw(string(strconv.AppendUint(tmp[:0], uint64(value), 10)))
}

// appendParamName writes the separator and "name=". The first parameter
// gets "?", later ones "&".
func (u *URLBuilder) appendParamName(name string) {
	if u.params == 0 {
		u.appendByte('?')
	} else {
		u.appendByte('&')
	}
	u.params++
	u.AppendRaw(name)
	u.appendByte('=')
}

func (u *URLBuilder) appendByte(bs ...byte) {
	if u.err != nil {
		return
	}
	if len(u.region)+len(bs) > u.limit {
		u.err = ErrOverflow
		return
	}
	u.region = append(u.region, bs...)
}

var upperHex = []byte("0123456789ABCDEF")

func isUnreserved(b byte) bool {
	switch {
	case 'A' <= b && b <= 'Z', 'a' <= b && b <= 'z', '0' <= b && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.' || b == '~':
		return true
	}
	return false
}

// FormatMD5 formats a 16-byte digest as 32 lower-case hexadecimal
// characters, the form used for content-checksum request parameters.
func FormatMD5(digest [16]byte) string {
	return hex.EncodeToString(digest[:])
}
