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

// Package udp is the async UDP endpoint: a non-blocking datagram socket
// driven entirely by the reactor, per spec.md §4.9.
package udp

import (
	"sync"

	"github.com/hashicorp/go-uuid"

	"github.com/nabbar/netb/address"
	liberr "github.com/nabbar/netb/errors"
	"github.com/nabbar/netb/logger"
	"github.com/nabbar/netb/netcfg"
	"github.com/nabbar/netb/reactor"
	"github.com/nabbar/netb/socket"
)

// datagramReserve is the size of the receive buffer handed to each
// recvfrom: the largest UDP payload over IPv4, so one datagram of any
// size fits without truncation.
const datagramReserve = 65507

// ReceivedFunc is invoked once per received datagram with its payload
// (valid only for the duration of the call) and source address.
type ReceivedFunc func(ep *Endpoint, payload []byte, from address.Address)

// SentFunc is the optional callback fired once a datagram actually left
// the socket, either from SendTo's immediate attempt or from the queue.
type SentFunc func(ep *Endpoint, n int, to address.Address)

// ErrorFunc is the optional terminal-error callback; if unset, errors
// are logged and the endpoint keeps running.
type ErrorFunc func(ep *Endpoint, err liberr.Error)

type outboundDatagram struct {
	payload []byte
	to      address.Address
}

// Endpoint wraps a non-blocking datagram socket. Unlike Connection,
// there is no per-destination backpressure: each queued datagram is
// either sent whole or queued whole, matching UDP's message-oriented
// semantics (spec.md §4.9's resolved Open Question on partial sendto).
type Endpoint struct {
	loop    *reactor.Loop
	log     logger.Logger
	id      string
	handle  *socket.Handle
	handler *reactor.Handler

	defaultPeer address.Address
	hasDefault  bool

	outMu sync.Mutex
	out   []outboundDatagram

	recvBuf []byte

	onReceived ReceivedFunc
	onSent     SentFunc
	onError    ErrorFunc
}

// Open binds a datagram socket to addr (use a wildcard/zero-port
// address to let the OS pick an ephemeral local port) and registers
// read-interest with loop.
func Open(loop *reactor.Loop, log logger.Logger, addr address.Address, cfg netcfg.UDPConfig) (*Endpoint, liberr.Error) {
	if log == nil {
		log = logger.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h, err := socket.Create(socket.KindUDP)
	if err != nil {
		return nil, err
	}
	if err := h.ReuseAddress(cfg.ReuseAddress); err != nil {
		h.Close()
		return nil, err
	}
	if err := h.ReusePort(cfg.ReusePort); err != nil {
		h.Close()
		return nil, err
	}
	if cfg.SendBuffer > 0 {
		if err := h.SendBuffer(cfg.SendBuffer); err != nil {
			h.Close()
			return nil, err
		}
	}
	if cfg.RecvBuffer > 0 {
		if err := h.RecvBuffer(cfg.RecvBuffer); err != nil {
			h.Close()
			return nil, err
		}
	}
	if err := h.Bind(addr); err != nil {
		h.Close()
		return nil, err
	}

	id, idErr := uuid.GenerateUUID()
	if idErr != nil {
		id = "unidentified"
	}

	ep := &Endpoint{
		loop:    loop,
		log:     log,
		id:      id,
		handle:  h,
		recvBuf: make([]byte, datagramReserve),
	}
	ep.handler = reactor.NewHandler(loop, h.Fd())
	ep.handler.SetReadCallback(ep.onReadable)
	ep.handler.SetWriteCallback(ep.onWritable)
	ep.handler.EnableRead()
	return ep, nil
}

// SetReceivedCallback sets the per-datagram inbound callback.
func (ep *Endpoint) SetReceivedCallback(cb ReceivedFunc) { ep.onReceived = cb }

// SetSentCallback sets the optional per-datagram flush callback.
func (ep *Endpoint) SetSentCallback(cb SentFunc) { ep.onSent = cb }

// SetErrorCallback sets the optional terminal-error callback.
func (ep *Endpoint) SetErrorCallback(cb ErrorFunc) { ep.onError = cb }

// LocalAddress returns the bound address.
func (ep *Endpoint) LocalAddress() (address.Address, liberr.Error) {
	return ep.handle.LocalAddress()
}

// Associate records a default peer for subsequent Send calls, without
// connecting the underlying socket (spec.md §4.9 keeps the socket
// unconnected; this is purely a convenience default).
func (ep *Endpoint) Associate(peer address.Address) {
	ep.defaultPeer = peer
	ep.hasDefault = true
}

// Send queues a datagram for the default peer set by Associate.
func (ep *Endpoint) Send(p []byte) liberr.Error {
	if !ep.hasDefault {
		return liberr.New(liberr.KindLogic, liberr.CodeUDP, "send requires an associated peer")
	}
	return ep.SendTo(p, ep.defaultPeer)
}

// SendTo queues one datagram for addr. Called on the loop thread with
// an empty outbound queue, it attempts one non-blocking sendto first;
// any nonzero result is treated as a complete send for that datagram
// (UDP has no partial-message semantics). Otherwise, or when called off
// the loop thread, the datagram is appended to the outbound queue and
// write-interest is enabled.
func (ep *Endpoint) SendTo(p []byte, addr address.Address) liberr.Error {
	if len(p) == 0 {
		return nil
	}
	payload := append([]byte(nil), p...)

	if ep.loop.IsInLoopThread() {
		ep.outMu.Lock()
		empty := len(ep.out) == 0
		ep.outMu.Unlock()

		if empty {
			n, transient, err := ep.handle.SendTo(payload, addr)
			if err != nil {
				ep.reportError(err)
				return err
			}
			if !transient && n > 0 {
				if ep.onSent != nil {
					ep.onSent(ep, n, addr)
				}
				return nil
			}
		}
	}

	ep.outMu.Lock()
	ep.out = append(ep.out, outboundDatagram{payload: payload, to: addr})
	ep.outMu.Unlock()
	ep.handler.EnableWrite()
	return nil
}

// Close detaches the handler and releases the socket.
func (ep *Endpoint) Close() liberr.Error {
	ep.handler.Detach()
	return ep.handle.Close()
}

func (ep *Endpoint) onReadable() {
	n, from, transient, err := ep.handle.ReceiveFrom(ep.recvBuf)
	if transient {
		return
	}
	if err != nil {
		ep.reportError(err)
		return
	}
	if ep.onReceived != nil {
		ep.onReceived(ep, ep.recvBuf[:n], from)
	}
}

func (ep *Endpoint) onWritable() {
	for {
		ep.outMu.Lock()
		if len(ep.out) == 0 {
			ep.outMu.Unlock()
			break
		}
		next := ep.out[0]
		ep.outMu.Unlock()

		n, transient, err := ep.handle.SendTo(next.payload, next.to)
		if transient {
			return
		}
		if err != nil {
			ep.outMu.Lock()
			ep.out = ep.out[1:]
			ep.outMu.Unlock()
			ep.reportError(err)
			continue
		}

		ep.outMu.Lock()
		ep.out = ep.out[1:]
		ep.outMu.Unlock()
		if ep.onSent != nil {
			ep.onSent(ep, n, next.to)
		}
	}

	ep.outMu.Lock()
	empty := len(ep.out) == 0
	ep.outMu.Unlock()
	if empty {
		ep.handler.DisableWrite()
	}
}

func (ep *Endpoint) reportError(err liberr.Error) {
	if ep.onError != nil {
		ep.onError(ep, err)
		return
	}
	ep.log.Warn("udp endpoint error", logger.NewFields().Add("endpoint_id", ep.id).Add("error", err.Error()))
}
