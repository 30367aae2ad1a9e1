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

package streambuf_test

import (
	"testing"

	"github.com/nabbar/netb/internal/streambuf"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	b := streambuf.New(16, 1<<20)
	payload := []byte("hello, world")

	require.Nil(t, b.Write(payload))
	require.Equal(t, len(payload), b.Readable())

	out, err := b.Read(len(payload))
	require.Nil(t, err)
	require.Equal(t, payload, out)
	require.Equal(t, 0, b.Readable())
}

func TestDelimitedRead(t *testing.T) {
	b := streambuf.New(16, 1<<20)
	require.Nil(t, b.Write([]byte("XXX")))
	require.Nil(t, b.Write([]byte("\r\n")))
	require.Nil(t, b.Write([]byte("YYY")))

	out, err := b.ReadTo([]byte("\r\n"))
	require.Nil(t, err)
	require.Equal(t, []byte("XXX"), out)

	rest, err := b.Read(3)
	require.Nil(t, err)
	require.Equal(t, []byte("YYY"), rest)
}

func TestDelimitedReadNotFound(t *testing.T) {
	b := streambuf.New(16, 1<<20)
	require.Nil(t, b.Write([]byte("no delimiter here")))

	_, err := b.ReadTo([]byte("\r\n"))
	require.NotNil(t, err)
}

func TestZeroByteWriteIsNoop(t *testing.T) {
	b := streambuf.New(16, 1<<20)
	require.Nil(t, b.Write(nil))
	require.Equal(t, 0, b.Readable())
}

func TestBufferOverflowScenario(t *testing.T) {
	// spec.md testable scenario 6: limit=8, write(4), read(2), write(6)
	// compacts then succeeds leaving r=0,w=8; a further write(1) overflows
	// with the buffer left unchanged.
	b := streambuf.New(8, 8)

	require.Nil(t, b.Write([]byte{1, 2, 3, 4}))
	_, err := b.Read(2)
	require.Nil(t, err)

	require.Nil(t, b.Write([]byte{5, 6, 7, 8, 9, 10}))
	require.Equal(t, 8, b.Readable())
	require.Equal(t, 0, b.Writable())

	before := b.Bytes()
	require.NotNil(t, b.Write([]byte{11}))
	require.Equal(t, before, b.Bytes())
}

func TestPeekAndUpdate(t *testing.T) {
	b := streambuf.New(16, 1<<20)
	require.Nil(t, b.Write([]byte("abcdef")))

	got, err := b.Peek(2, 3)
	require.Nil(t, err)
	require.Equal(t, []byte("cde"), got)

	require.Nil(t, b.Update(0, []byte("XY")))
	out, err := b.Read(6)
	require.Nil(t, err)
	require.Equal(t, []byte("XYcdef"), out)
}

func TestUnderflow(t *testing.T) {
	b := streambuf.New(16, 1<<20)
	require.Nil(t, b.Write([]byte("ab")))

	_, err := b.Read(3)
	require.NotNil(t, err)
	require.Equal(t, 2, b.Readable())
}

func TestWriteCursorAdvance(t *testing.T) {
	b := streambuf.New(16, 1<<20)
	require.Nil(t, b.Reserve(4))

	cur := b.WriteCursor()
	copy(cur, []byte("data"))
	b.Advance(4)

	require.Equal(t, []byte("data"), b.Bytes())
}

func TestIntegerRoundTrip(t *testing.T) {
	b := streambuf.New(16, 1<<20)

	require.Nil(t, b.WriteUint16(0xCAFE))
	require.Nil(t, b.WriteUint32(0xDEADBEEF))

	v16, err := b.ReadUint16()
	require.Nil(t, err)
	require.Equal(t, uint16(0xCAFE), v16)

	v32, err := b.ReadUint32()
	require.Nil(t, err)
	require.Equal(t, uint32(0xDEADBEEF), v32)
	require.Equal(t, 0, b.Readable())
}
