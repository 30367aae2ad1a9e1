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

package e2e

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/netb/address"
	"github.com/nabbar/netb/async/tcp"
	"github.com/nabbar/netb/async/udp"
	"github.com/nabbar/netb/internal/streambuf"
	"github.com/nabbar/netb/netcfg"
	"github.com/nabbar/netb/reactor"
)

func mustLoopback() address.Address {
	a, err := address.New("loopback", 0, address.FamilyV4)
	Expect(err).To(BeNil())
	return a
}

func newRunningLoop() *reactor.Loop {
	loop, err := reactor.New(nil)
	Expect(err).To(BeNil())
	go loop.Run()
	started := make(chan struct{})
	loop.Invoke(func() { close(started) })
	Eventually(started, time.Second).Should(BeClosed())
	return loop
}

var _ = Describe("loopback echo", func() {
	It("delivers exactly one connected(true) and one echoed buffer", func() {
		loop := newRunningLoop()
		defer loop.Close()

		var (
			mu            sync.Mutex
			connectedSeen int
			received      string
			done          = make(chan struct{})
		)

		acc, err := tcp.Open(loop, nil, mustLoopback(), netcfg.AcceptorConfig{Backlog: 4})
		Expect(err).To(BeNil())
		defer acc.Close()

		acc.SetAcceptedCallback(func(a *tcp.Acceptor, newFd int, peer address.Address) bool {
			server, serr := tcp.FromAccepted(loop, nil, newFd, peer, netcfg.ConnectionConfig{})
			Expect(serr).To(BeNil())
			server.SetReceivedCallback(func(conn *tcp.Connection, buf *streambuf.Buffer) {
				_ = conn.Send(buf.Bytes())
				buf.Reset()
			})
			return true
		})

		bound, err := acc.LocalAddress()
		Expect(err).To(BeNil())

		client, err := tcp.Connect(loop, nil, bound, netcfg.ConnectionConfig{})
		Expect(err).To(BeNil())
		defer client.Close()

		client.SetConnectedCallback(func(conn *tcp.Connection, ok bool) {
			mu.Lock()
			if ok {
				connectedSeen++
			}
			mu.Unlock()
			if ok {
				Expect(conn.Send([]byte("hello"))).To(BeNil())
			}
		})
		client.SetReceivedCallback(func(conn *tcp.Connection, buf *streambuf.Buffer) {
			mu.Lock()
			received = string(buf.Bytes())
			mu.Unlock()
			buf.Reset()
			close(done)
		})

		Eventually(done, 2*time.Second).Should(BeClosed())

		mu.Lock()
		defer mu.Unlock()
		Expect(connectedSeen).To(Equal(1))
		Expect(received).To(Equal("hello"))
	})
})

var _ = Describe("cross-thread send ordering", func() {
	It("delivers the invoke_later send before a send issued after the barrier", func() {
		loop := newRunningLoop()
		defer loop.Close()

		acc, err := tcp.Open(loop, nil, mustLoopback(), netcfg.AcceptorConfig{Backlog: 4})
		Expect(err).To(BeNil())
		defer acc.Close()

		received := make(chan string, 1)
		acc.SetAcceptedCallback(func(a *tcp.Acceptor, newFd int, peer address.Address) bool {
			server, serr := tcp.FromAccepted(loop, nil, newFd, peer, netcfg.ConnectionConfig{})
			Expect(serr).To(BeNil())
			var buf []byte
			server.SetReceivedCallback(func(conn *tcp.Connection, b *streambuf.Buffer) {
				buf = append(buf, b.Bytes()...)
				b.Reset()
				if len(buf) >= 2 {
					received <- string(buf)
				}
			})
			return true
		})

		bound, err := acc.LocalAddress()
		Expect(err).To(BeNil())

		connected := make(chan *tcp.Connection, 1)
		client, err := tcp.Connect(loop, nil, bound, netcfg.ConnectionConfig{})
		Expect(err).To(BeNil())
		defer client.Close()
		client.SetConnectedCallback(func(conn *tcp.Connection, ok bool) {
			if ok {
				connected <- conn
			}
		})

		var conn *tcp.Connection
		Eventually(connected, 2*time.Second).Should(Receive(&conn))

		barrier := make(chan struct{})
		loop.InvokeLater(func() {
			<-barrier
			Expect(conn.Send([]byte("A"))).To(BeNil())
		})

		go func() {
			close(barrier)
			Expect(conn.Send([]byte("B"))).To(BeNil())
		}()

		var payload string
		Eventually(received, 2*time.Second).Should(Receive(&payload))
		Expect(payload).To(Equal("AB"))
	})
})

var _ = Describe("self-pipe wakeup", func() {
	It("returns Run promptly when Stop is called from another goroutine while idle", func() {
		loop, err := reactor.New(nil)
		Expect(err).To(BeNil())

		stopped := make(chan struct{})
		go func() {
			loop.Run()
			close(stopped)
		}()

		started := make(chan struct{})
		loop.Invoke(func() { close(started) })
		Eventually(started, time.Second).Should(BeClosed())

		start := time.Now()
		loop.Stop()

		Eventually(stopped, time.Second).Should(BeClosed())
		Expect(time.Since(start)).To(BeNumerically("<", time.Second))
	})
})

var _ = Describe("acceptor rejects", func() {
	It("closes the new connection without delivering data, and keeps listening", func() {
		loop := newRunningLoop()
		defer loop.Close()

		acc, err := tcp.Open(loop, nil, mustLoopback(), netcfg.AcceptorConfig{Backlog: 4})
		Expect(err).To(BeNil())
		defer acc.Close()

		acc.SetAcceptedCallback(func(a *tcp.Acceptor, newFd int, peer address.Address) bool {
			return false
		})

		bound, err := acc.LocalAddress()
		Expect(err).To(BeNil())

		rejected, err := tcp.Connect(loop, nil, bound, netcfg.ConnectionConfig{})
		Expect(err).To(BeNil())
		defer rejected.Close()

		closedSeen := make(chan struct{})
		rejected.SetConnectedCallback(func(conn *tcp.Connection, ok bool) {
			if !ok {
				close(closedSeen)
			}
		})
		receivedAny := false
		rejected.SetReceivedCallback(func(conn *tcp.Connection, b *streambuf.Buffer) {
			receivedAny = true
		})

		Eventually(closedSeen, 2*time.Second).Should(BeClosed())
		Expect(receivedAny).To(BeFalse())

		// The listener itself must still accept further connections.
		second, err := tcp.Connect(loop, nil, bound, netcfg.ConnectionConfig{})
		Expect(err).To(BeNil())
		defer second.Close()

		secondClosed := make(chan struct{})
		second.SetConnectedCallback(func(conn *tcp.Connection, ok bool) {
			if !ok {
				close(secondClosed)
			}
		})
		Eventually(secondClosed, 2*time.Second).Should(BeClosed())
	})
})

var _ = Describe("udp send-to after open", func() {
	It("delivers the datagram to the peer exactly once", func() {
		loop := newRunningLoop()
		defer loop.Close()

		v, err := udp.Open(loop, nil, mustLoopback(), netcfg.UDPConfig{})
		Expect(err).To(BeNil())
		defer v.Close()

		type delivery struct {
			payload string
			from    address.Address
		}
		deliveries := make(chan delivery, 4)
		v.SetReceivedCallback(func(ep *udp.Endpoint, payload []byte, from address.Address) {
			deliveries <- delivery{payload: string(payload), from: from}
		})

		vAddr, err := v.LocalAddress()
		Expect(err).To(BeNil())

		u, err := udp.Open(loop, nil, mustLoopback(), netcfg.UDPConfig{})
		Expect(err).To(BeNil())
		defer u.Close()

		uAddr, err := u.LocalAddress()
		Expect(err).To(BeNil())

		Expect(u.SendTo([]byte("ping"), vAddr)).To(BeNil())

		var got delivery
		Eventually(deliveries, 2*time.Second).Should(Receive(&got))
		Expect(got.payload).To(Equal("ping"))
		Expect(got.from.Port()).To(Equal(uAddr.Port()))

		Consistently(deliveries, 200*time.Millisecond).ShouldNot(Receive())
	})
})
