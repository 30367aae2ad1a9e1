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

package udp_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nabbar/netb/address"
	"github.com/nabbar/netb/async/udp"
	"github.com/nabbar/netb/netcfg"
	"github.com/nabbar/netb/reactor"
)

func TestSendToAfterOpen(t *testing.T) {
	loop, err := reactor.New(nil)
	require.Nil(t, err)
	go loop.Run()
	defer loop.Close()

	loopback, aerr := address.New("loopback", 0, address.FamilyV4)
	require.Nil(t, aerr)

	server, err := udp.Open(loop, nil, loopback, netcfg.UDPConfig{})
	require.Nil(t, err)
	defer server.Close()

	var (
		mu       sync.Mutex
		received string
		fromAddr address.Address
		done     = make(chan struct{})
	)
	server.SetReceivedCallback(func(ep *udp.Endpoint, payload []byte, from address.Address) {
		mu.Lock()
		received = string(payload)
		fromAddr = from
		mu.Unlock()
		close(done)
	})

	serverAddr, err := server.LocalAddress()
	require.Nil(t, err)

	client, err := udp.Open(loop, nil, loopback, netcfg.UDPConfig{})
	require.Nil(t, err)
	defer client.Close()

	clientAddr, err := client.LocalAddress()
	require.Nil(t, err)

	require.Nil(t, client.SendTo([]byte("ping"), serverAddr))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "ping", received)
	require.Equal(t, clientAddr.Port(), fromAddr.Port())
}

func TestAssociateThenSend(t *testing.T) {
	loop, err := reactor.New(nil)
	require.Nil(t, err)
	go loop.Run()
	defer loop.Close()

	loopback, _ := address.New("loopback", 0, address.FamilyV4)

	server, err := udp.Open(loop, nil, loopback, netcfg.UDPConfig{})
	require.Nil(t, err)
	defer server.Close()

	done := make(chan string, 1)
	server.SetReceivedCallback(func(ep *udp.Endpoint, payload []byte, from address.Address) {
		done <- string(payload)
	})

	serverAddr, err := server.LocalAddress()
	require.Nil(t, err)

	client, err := udp.Open(loop, nil, loopback, netcfg.UDPConfig{})
	require.Nil(t, err)
	defer client.Close()

	client.Associate(serverAddr)
	require.Nil(t, client.Send([]byte("assoc")))

	select {
	case payload := <-done:
		require.Equal(t, "assoc", payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}
}

func TestSendWithoutAssociateFails(t *testing.T) {
	loop, err := reactor.New(nil)
	require.Nil(t, err)
	go loop.Run()
	defer loop.Close()

	loopback, _ := address.New("loopback", 0, address.FamilyV4)
	ep, err := udp.Open(loop, nil, loopback, netcfg.UDPConfig{})
	require.Nil(t, err)
	defer ep.Close()

	require.NotNil(t, ep.Send([]byte("x")))
}
