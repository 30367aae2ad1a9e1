/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package streambuf is the data plane for async I/O: a growable byte
// region with streaming read/write cursors plus random peek/update at a
// given offset. It is not safe for concurrent use; callers that share a
// buffer across goroutines (as async/tcp's outbound buffer does) must
// guard it with their own mutex.
package streambuf

import (
	"bytes"
	"encoding/binary"

	liberr "github.com/nabbar/netb/errors"
)

const (
	// DefaultInitialCapacity is used by New when cap <= 0.
	DefaultInitialCapacity = 4096
	// DefaultLimit is used by New when limit <= 0.
	DefaultLimit = 1 << 20 // 1 MiB
)

// Buffer is a contiguous byte region with capacity <= limit, a read
// cursor r, and a write cursor w, maintaining 0 <= r <= w <= len(buf) <= limit.
type Buffer struct {
	buf   []byte
	r, w  int
	limit int
}

// New allocates a Buffer with the given initial capacity and upper-bound
// limit. A non-positive cap or limit falls back to the package defaults.
func New(initialCapacity, limit int) *Buffer {
	if initialCapacity <= 0 {
		initialCapacity = DefaultInitialCapacity
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if initialCapacity > limit {
		initialCapacity = limit
	}
	return &Buffer{buf: make([]byte, initialCapacity), limit: limit}
}

// NewFromBytes builds a Buffer that copies p in and sets w = len(p).
func NewFromBytes(p []byte, limit int) *Buffer {
	b := New(len(p), limit)
	if len(p) > len(b.buf) {
		b.buf = append(b.buf, make([]byte, len(p)-len(b.buf))...)
	}
	copy(b.buf, p)
	b.w = len(p)
	return b
}

// Readable returns the number of bytes available to Read/Peek.
func (b *Buffer) Readable() int { return b.w - b.r }

// Writable returns the number of bytes currently available to Write
// without growing or compacting the buffer.
func (b *Buffer) Writable() int { return len(b.buf) - b.w }

// Capacity returns the buffer's current allocated length.
func (b *Buffer) Capacity() int { return len(b.buf) }

// Limit returns the configured upper bound on Capacity.
func (b *Buffer) Limit() int { return b.limit }

// Reserve ensures at least n bytes are writable, compacting and/or
// growing as needed. It never mutates the buffer on failure.
func (b *Buffer) Reserve(n int) liberr.Error {
	if n <= 0 || b.Writable() >= n {
		return nil
	}
	readable := b.Readable()
	if readable+n > b.limit {
		return liberr.CodeBuffer.Error()
	}
	if b.w+n > b.limit {
		b.compact()
	}
	needed := b.w + n
	if needed > b.limit {
		needed = b.limit
	}
	if needed <= len(b.buf) {
		return nil
	}
	grown := make([]byte, needed)
	copy(grown, b.buf[:b.w])
	b.buf = grown
	return nil
}

// compact shifts the readable span [r, w) down to offset 0.
func (b *Buffer) compact() {
	if b.r == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.r:b.w])
	b.w = n
	b.r = 0
}

// Write appends p, reserving space first. Writing zero bytes is a no-op
// that never fails.
func (b *Buffer) Write(p []byte) liberr.Error {
	if len(p) == 0 {
		return nil
	}
	if e := b.Reserve(len(p)); e != nil {
		return e
	}
	copy(b.buf[b.w:], p)
	b.w += len(p)
	return nil
}

// WriteDelim writes p followed by the single byte delim.
func (b *Buffer) WriteDelim(p []byte, delim byte) liberr.Error {
	if e := b.Reserve(len(p) + 1); e != nil {
		return e
	}
	if e := b.Write(p); e != nil {
		return e
	}
	return b.Write([]byte{delim})
}

// WriteDelimString writes p followed by the byte sequence delim.
func (b *Buffer) WriteDelimString(p []byte, delim []byte) liberr.Error {
	if e := b.Reserve(len(p) + len(delim)); e != nil {
		return e
	}
	if e := b.Write(p); e != nil {
		return e
	}
	return b.Write(delim)
}

// Read copies n readable bytes into a new slice and advances r.
// It fails with underflow if fewer than n bytes are readable.
func (b *Buffer) Read(n int) ([]byte, liberr.Error) {
	if n > b.Readable() {
		return nil, liberr.CodeBufferUnderflow.Error()
	}
	out := make([]byte, n)
	copy(out, b.buf[b.r:b.r+n])
	b.advanceRead(n)
	return out, nil
}

// advanceRead moves r forward by n, snapping both cursors to 0 once
// r == w to minimize future compaction work.
func (b *Buffer) advanceRead(n int) {
	b.r += n
	if b.r == b.w {
		b.r, b.w = 0, 0
	}
}

// ReadableTo scans [r, w) for the first occurrence of delim and returns
// the number of bytes before it. ok is false if delim does not occur.
func (b *Buffer) ReadableTo(delim []byte) (n int, ok bool) {
	if len(delim) == 0 {
		return 0, false
	}
	idx := bytes.Index(b.buf[b.r:b.w], delim)
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// ReadTo reads and returns the bytes before the first occurrence of
// delim, consuming the delimiter too (but not counting it in the
// returned slice). Fails if delim is not present in the readable span.
func (b *Buffer) ReadTo(delim []byte) ([]byte, liberr.Error) {
	n, ok := b.ReadableTo(delim)
	if !ok {
		return nil, liberr.CodeBufferUnderflow.Error()
	}
	out := make([]byte, n)
	copy(out, b.buf[b.r:b.r+n])
	b.advanceRead(n + len(delim))
	return out, nil
}

// ReadableFrom scans starting at offset (relative to r) for delim,
// mirroring ReadableTo without consuming anything.
func (b *Buffer) ReadableFrom(offset int, delim []byte) (n int, ok bool) {
	start := b.r + offset
	if start > b.w || len(delim) == 0 {
		return 0, false
	}
	idx := bytes.Index(b.buf[start:b.w], delim)
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// Peek copies n bytes starting at offset (relative to r) without
// advancing r. Fails with underflow if the range exceeds the readable span.
func (b *Buffer) Peek(offset, n int) ([]byte, liberr.Error) {
	start := b.r + offset
	if offset < 0 || n < 0 || start+n > b.w {
		return nil, liberr.CodeBufferUnderflow.Error()
	}
	out := make([]byte, n)
	copy(out, b.buf[start:start+n])
	return out, nil
}

// Update overwrites n bytes starting at offset (relative to r) with p,
// without moving r or w. Fails if the range exceeds the readable span.
func (b *Buffer) Update(offset int, p []byte) liberr.Error {
	start := b.r + offset
	if offset < 0 || start+len(p) > b.w {
		return liberr.CodeBufferUnderflow.Error()
	}
	copy(b.buf[start:], p)
	return nil
}

// WriteCursor returns the slice at the write cursor, for handing to a
// syscall (recv/recvfrom) without an intermediate copy. The caller must
// call Advance(n) with however many bytes it actually wrote.
func (b *Buffer) WriteCursor() []byte { return b.buf[b.w:len(b.buf)] }

// ReadCursor returns the readable slice [r, w), for handing to a syscall
// (send/sendto) without an intermediate copy.
func (b *Buffer) ReadCursor() []byte { return b.buf[b.r:b.w] }

// Advance moves the write cursor forward by n bytes written directly
// into WriteCursor()'s slice.
func (b *Buffer) Advance(n int) { b.w += n }

// Drain moves the read cursor forward by n bytes consumed directly from
// ReadCursor()'s slice, snapping to 0 when fully drained.
func (b *Buffer) Drain(n int) { b.advanceRead(n) }

// Reset drops all readable and writable content, snapping both cursors
// to 0 without releasing the underlying array.
func (b *Buffer) Reset() { b.r, b.w = 0, 0 }

// Bytes returns a copy of the readable span, leaving cursors untouched.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, b.Readable())
	copy(out, b.buf[b.r:b.w])
	return out
}

// WriteUint16 appends v in network byte order. 64-bit integer
// serialization is intentionally not provided here (no fully-defined
// behavior to port).
func (b *Buffer) WriteUint16(v uint16) liberr.Error {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return b.Write(tmp[:])
}

// WriteUint32 appends v in network byte order.
func (b *Buffer) WriteUint32(v uint32) liberr.Error {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return b.Write(tmp[:])
}

// ReadUint16 consumes 2 bytes in network byte order.
func (b *Buffer) ReadUint16() (uint16, liberr.Error) {
	p, err := b.Read(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

// ReadUint32 consumes 4 bytes in network byte order.
func (b *Buffer) ReadUint32() (uint32, liberr.Error) {
	p, err := b.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p), nil
}
