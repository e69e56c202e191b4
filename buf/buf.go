// Copyright (C) 2025 The rapi Authors. All Rights Reserved.

// Package buf implements a chunked append-only buffer that owns every byte
// it hands out. Memory is allocated in chunks that grow geometrically from
// an initial size hint; a chunk, once allocated, never moves or shrinks, so
// any slice returned by a Buffer remains valid until the Buffer is released.
//
// A Buffer is created per request or per response and released as a unit;
// there is no individual deallocation. It is not safe for concurrent use.
package buf

import (
	"unsafe"

	"go4.org/mem"
)

// DefaultHint is the chunk size used when New is given a hint <= 0.
const DefaultHint = 256

// A Buffer is an append-only pool of memory chunks. The zero value is not
// usable; construct one with New.
type Buffer struct {
	chunks [][]byte // committed storage; len is the committed prefix
	hint   int      // size of the next chunk to allocate
}

// New constructs an empty Buffer whose first chunk will hold at least hint
// bytes. Subsequent chunks double in size.
func New(hint int) *Buffer {
	if hint <= 0 {
		hint = DefaultHint
	}
	return &Buffer{hint: hint}
}

// Reserve returns a writable region of at least n bytes with length 0. The
// caller may append into the region up to its capacity without the region
// moving, and must pass the written slice to Consume to commit it. Only the
// most recent reservation may be consumed.
func (b *Buffer) Reserve(n int) []byte {
	b.check()
	if n < 0 {
		panic("buf: negative reservation")
	}
	c := b.tail()
	if c == nil || cap(*c)-len(*c) < n {
		c = b.grow(n)
	}
	// Cap the region at the chunk boundary so an oversized append cannot
	// silently move it out of the arena.
	return (*c)[len(*c):len(*c):cap(*c)]
}

// Consume commits the written prefix of a region previously returned by
// Reserve, and returns the committed slice. region must begin at the start
// of the current reservation; Consume panics on a foreign slice.
func (b *Buffer) Consume(region []byte) []byte {
	b.check()
	c := b.tail()
	if len(region) == 0 {
		return nil
	}
	if c == nil || unsafe.SliceData(region) != unsafe.SliceData((*c)[len(*c):cap(*c)]) {
		panic("buf: consume of foreign region")
	}
	p := len(*c)
	*c = (*c)[:p+len(region)]
	return (*c)[p : p+len(region) : p+len(region)]
}

// Alloc returns a zeroed, committed region of n bytes.
func (b *Buffer) Alloc(n int) []byte {
	region := b.Reserve(n)[:n]
	clear(region)
	return b.Consume(region)
}

// Copy commits a copy of src and returns the owned slice.
func (b *Buffer) Copy(src mem.RO) []byte {
	region := b.Reserve(src.Len())
	return b.Consume(mem.Append(region, src))
}

// CopyString commits a copy of s and returns a string backed by the
// Buffer's own memory. The result is valid until the Buffer is released.
func (b *Buffer) CopyString(s string) string {
	return String(b.Copy(mem.S(s)))
}

// AllocUints returns a zeroed []uint32 of n elements carved from a chunk.
// The slice does not move and is valid until the Buffer is released.
func (b *Buffer) AllocUints(n int) []uint32 {
	if n <= 0 {
		return nil
	}
	b.align(4)
	raw := b.Alloc(4 * n)
	return unsafe.Slice((*uint32)(unsafe.Pointer(unsafe.SliceData(raw))), n)
}

// String returns a string aliasing bs without copying. bs must be memory
// owned by a Buffer; the result shares its lifetime.
func String(bs []byte) string {
	if len(bs) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(bs), len(bs))
}

// Reset forgets all committed data but keeps the allocated chunks for
// reuse. Slices handed out before the call must no longer be used.
func (b *Buffer) Reset() {
	b.check()
	for i := range b.chunks {
		b.chunks[i] = b.chunks[i][:0]
	}
}

// Release drops all chunks and makes the Buffer unusable. Any later
// operation panics.
func (b *Buffer) Release() {
	b.chunks = nil
	b.hint = 0
}

// Len reports the total number of committed bytes.
func (b *Buffer) Len() int {
	var n int
	for _, c := range b.chunks {
		n += len(c)
	}
	return n
}

// Cap reports the total capacity of all chunks.
func (b *Buffer) Cap() int {
	var n int
	for _, c := range b.chunks {
		n += cap(c)
	}
	return n
}

// NumChunks reports the number of chunks currently allocated.
func (b *Buffer) NumChunks() int { return len(b.chunks) }

func (b *Buffer) tail() *[]byte {
	if len(b.chunks) == 0 {
		return nil
	}
	return &b.chunks[len(b.chunks)-1]
}

// grow appends a fresh chunk with room for at least n bytes and doubles the
// hint for the next one.
func (b *Buffer) grow(n int) *[]byte {
	size := b.hint
	if n > size {
		size = n
	}
	b.chunks = append(b.chunks, make([]byte, 0, size))
	b.hint *= 2
	return &b.chunks[len(b.chunks)-1]
}

// align pads the current chunk so the next allocation starts at a multiple
// of a. Reserve may still start a new chunk, whose base is always aligned.
func (b *Buffer) align(a int) {
	c := b.tail()
	if c == nil {
		return
	}
	if pad := len(*c) % a; pad != 0 && cap(*c)-len(*c) >= a-pad {
		*c = append(*c, make([]byte, a-pad)...)
	}
}

func (b *Buffer) check() {
	if b.hint == 0 {
		panic("buf: use after Release")
	}
}
