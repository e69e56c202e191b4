// Copyright (C) 2025 The rapi Authors. All Rights Reserved.

// Package rapi implements the request/response substrate of an
// achievements-tracking web API client: construction of percent-encoded
// request URLs, and single-pass extraction of typed fields from raw JSON
// response bodies.
//
// The package does not build a document tree and does not perform I/O. The
// transport is an external collaborator: it receives a finalized URL from a
// [Request] and hands back the raw response bytes together with the HTTP
// status code as a [ServerResponse].
//
// # Memory model
//
// All memory produced while building a request or decoding a response is
// owned by a [buf.Buffer] arena held by the enclosing [Request] or
// [Response]. Strings and arrays returned by accessors point into that
// arena and remain valid exactly until the envelope is closed.
//
// A [Field] locates a value as a read-only span of the raw response buffer
// itself. Spans are transient: they are only valid while the response
// buffer is alive, and are converted to owned values by the typed
// accessors.
//
// # Decoding
//
// Callers declare the fields an endpoint cares about, parse the envelope,
// and then convert each located field:
//
//	user := &rapi.Field{Name: "User"}
//	score := &rapi.Field{Name: "Score"}
//
//	resp := rapi.NewResponse()
//	defer resp.Close()
//	if err := resp.ParseServerResponse(sr, user, score); err != nil {
//	    return err
//	}
//	var out struct {
//	    User  string
//	    Score uint32
//	}
//	if err := resp.RequiredString(&out.User, user); err != nil {
//	    return err
//	}
//	if err := resp.RequiredUint(&out.Score, score); err != nil {
//	    return err
//	}
//
// Required accessors fail when the field is missing or malformed and stamp
// a message naming the field into the response; optional accessors fall
// back to a caller-supplied default and never fail.
package rapi
