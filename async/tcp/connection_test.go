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

package tcp_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nabbar/netb/address"
	"github.com/nabbar/netb/async/tcp"
	"github.com/nabbar/netb/internal/streambuf"
	"github.com/nabbar/netb/netcfg"
	"github.com/nabbar/netb/reactor"
)

func TestLoopbackEcho(t *testing.T) {
	loop, err := reactor.New(nil)
	require.Nil(t, err)
	go loop.Run()
	defer loop.Close()

	loopback, aerr := address.New("loopback", 0, address.FamilyV4)
	require.Nil(t, aerr)

	var (
		mu       sync.Mutex
		received []byte
		done     = make(chan struct{})
	)

	acc, err := tcp.Open(loop, nil, loopback, netcfg.AcceptorConfig{Backlog: 4})
	require.Nil(t, err)
	defer acc.Close()

	acc.SetAcceptedCallback(func(a *tcp.Acceptor, newFd int, peer address.Address) bool {
		c, cerr := tcp.FromAccepted(loop, nil, newFd, peer, netcfg.ConnectionConfig{})
		require.Nil(t, cerr)
		c.SetReceivedCallback(func(conn *tcp.Connection, buf *streambuf.Buffer) {
			_ = conn.Send(buf.Bytes())
			buf.Reset()
		})
		return true
	})

	bound, err := acc.LocalAddress()
	require.Nil(t, err)

	client, err := tcp.Connect(loop, nil, bound, netcfg.ConnectionConfig{})
	require.Nil(t, err)
	defer client.Close()

	client.SetConnectedCallback(func(conn *tcp.Connection, ok bool) {
		if ok {
			_ = conn.Send([]byte("hello"))
		}
	})
	client.SetReceivedCallback(func(conn *tcp.Connection, buf *streambuf.Buffer) {
		mu.Lock()
		received = buf.Bytes()
		mu.Unlock()
		buf.Reset()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echo")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "hello", string(received))
}

func TestConnectRefusedReportsTeardown(t *testing.T) {
	loop, err := reactor.New(nil)
	require.Nil(t, err)
	go loop.Run()
	defer loop.Close()

	// Bind and immediately close a listener to obtain a port nothing is
	// listening on, so the connect attempt is refused.
	probe, err := tcp.Open(loop, nil, mustLoopback(t), netcfg.AcceptorConfig{Backlog: 1})
	require.Nil(t, err)
	addr, err := probe.LocalAddress()
	require.Nil(t, err)
	require.Nil(t, probe.Close())

	done := make(chan bool, 1)
	client, err := tcp.Connect(loop, nil, addr, netcfg.ConnectionConfig{})
	require.Nil(t, err)
	client.SetConnectedCallback(func(conn *tcp.Connection, ok bool) {
		done <- ok
	})

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connection refusal")
	}
}

func mustLoopback(t *testing.T) address.Address {
	a, err := address.New("loopback", 0, address.FamilyV4)
	require.Nil(t, err)
	return a
}
