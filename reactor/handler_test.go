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

package reactor_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/nabbar/netb/address"
	"github.com/nabbar/netb/internal/rawsock"
	"github.com/nabbar/netb/reactor"
)

// openTestFd returns a standalone, non-blocking UDP descriptor the
// tests can register a Handler against without needing a peer.
func openTestFd(t *testing.T) int {
	t.Helper()
	fd, err := rawsock.Open(rawsock.Domain(address.FamilyV4), unix.SOCK_DGRAM, 0)
	require.Nil(t, err)
	t.Cleanup(func() { _ = rawsock.Close(fd) })
	return fd
}

func waitStarted(t *testing.T, loop *reactor.Loop) {
	t.Helper()
	started := make(chan struct{})
	loop.Invoke(func() { close(started) })
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("loop never started running queued tasks")
	}
}

func TestHandlerRegisterUpdateRemove(t *testing.T) {
	loop, err := reactor.New(nil)
	require.Nil(t, err)
	go loop.Run()
	defer loop.Close()
	waitStarted(t, loop)

	fd := openTestFd(t)

	var readFired, writeFired int32
	h := reactor.NewHandler(loop, fd)
	h.SetReadCallback(func() { atomic.AddInt32(&readFired, 1) })
	h.SetWriteCallback(func() { atomic.AddInt32(&writeFired, 1) })

	h.EnableWrite()
	// A UDP socket with no pending writes is immediately write-ready.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&writeFired) > 0
	}, time.Second, time.Millisecond)

	h.DisableWrite()
	before := atomic.LoadInt32(&writeFired)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, before, atomic.LoadInt32(&writeFired))

	h.Detach()
	require.True(t, h.Detached())
}

func TestHandlerDetachIsIdempotentAndBlocksUntilAcked(t *testing.T) {
	loop, err := reactor.New(nil)
	require.Nil(t, err)
	go loop.Run()
	defer loop.Close()
	waitStarted(t, loop)

	fd := openTestFd(t)
	h := reactor.NewHandler(loop, fd)
	h.EnableRead()

	h.Detach()
	require.True(t, h.Detached())

	done := make(chan struct{})
	go func() {
		h.Detach()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Detach call did not return")
	}
}

func TestHandlerDetachFromOffThreadBlocksCaller(t *testing.T) {
	loop, err := reactor.New(nil)
	require.Nil(t, err)
	go loop.Run()
	defer loop.Close()
	waitStarted(t, loop)

	fd := openTestFd(t)
	h := reactor.NewHandler(loop, fd)

	done := make(chan struct{})
	go func() {
		h.Detach()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("off-thread Detach never returned")
	}
	require.True(t, h.Detached())
}
