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

// Package socket is an owning wrapper over a single OS descriptor: bind,
// listen, accept, connect, send/recv, sendto/recvfrom, option setters,
// and shutdown/close, exposed with the dual error-handling API spec.md
// §7 requires (a non-throwing (value, error) form as the primary shape,
// plus a Must-prefixed panicking form generated from the same internal
// primitive).
package socket

import (
	"golang.org/x/sys/unix"

	"github.com/nabbar/netb/address"
	liberr "github.com/nabbar/netb/errors"
	"github.com/nabbar/netb/internal/rawsock"
)

// Kind distinguishes the two socket types this package opens.
type Kind uint8

const (
	KindTCP Kind = iota
	KindUDP
)

// State is the handle's lifecycle, per spec.md §4.2's state machines for
// stream and datagram sockets.
type State uint8

const (
	StateUnbound State = iota
	StateBound
	StateListening
	StateConnecting
	StateConnected // "associated" for datagram sockets
	StateHalfClosed
	StateClosed
)

// Handle owns zero or one OS descriptor. It closes the descriptor on
// Close if still open; at most one Handle ever owns a given descriptor.
// Handle is not safe for concurrent use beyond what the async/ packages
// already serialize (all mutating calls happen on the reactor loop
// thread).
type Handle struct {
	fd    int
	kind  Kind
	state State
}

// Empty returns a Handle with no open descriptor.
func Empty(kind Kind) *Handle {
	return &Handle{fd: rawsock.Invalid, kind: kind, state: StateUnbound}
}

// Create opens a new non-blocking descriptor for kind.
func Create(kind Kind) (*Handle, liberr.Error) {
	typ := unix.SOCK_STREAM
	if kind == KindUDP {
		typ = unix.SOCK_DGRAM
	}
	fd, err := rawsock.Open(rawsock.Domain(address.FamilyV4), typ, 0)
	if err != nil {
		return nil, err
	}
	return &Handle{fd: fd, kind: kind, state: StateUnbound}, nil
}

// Attach wraps an externally-opened, already non-blocking descriptor
// (e.g. one returned by an acceptor's Accept) in StateConnected.
func Attach(kind Kind, fd int) *Handle {
	return &Handle{fd: fd, kind: kind, state: StateConnected}
}

// Valid reports whether the handle owns an open descriptor.
func (h *Handle) Valid() bool { return h.fd != rawsock.Invalid }

// Fd returns the underlying descriptor, or rawsock.Invalid if none.
func (h *Handle) Fd() int { return h.fd }

// State returns the handle's current lifecycle state.
func (h *Handle) State() State { return h.state }

// Detach separates the descriptor from the handle without closing it;
// the caller takes over ownership.
func (h *Handle) Detach() int {
	fd := h.fd
	h.fd = rawsock.Invalid
	h.state = StateClosed
	return fd
}

// Close closes the descriptor if still open. The descriptor is
// considered closed even if the close() syscall itself errors.
func (h *Handle) Close() liberr.Error {
	if !h.Valid() {
		return nil
	}
	fd := h.fd
	h.fd = rawsock.Invalid
	h.state = StateClosed
	return rawsock.Close(fd)
}

// MustClose panics with the wrapped error on failure (the throwing form
// of Close, generated from the same primitive).
func (h *Handle) MustClose() {
	if err := h.Close(); err != nil {
		panic(err)
	}
}

func (h *Handle) requireValid() liberr.Error {
	if !h.Valid() {
		return liberr.New(liberr.KindLogic, liberr.CodeSocketClosed, "socket handle has no open descriptor")
	}
	return nil
}

// Shutdown directions.
const (
	ShutRead  = rawsock.ShutRead
	ShutWrite = rawsock.ShutWrite
	ShutBoth  = rawsock.ShutBoth
)

// Shutdown shuts down the given direction(s) of the connection.
func (h *Handle) Shutdown(how int) liberr.Error {
	if err := h.requireValid(); err != nil {
		return err
	}
	if err := rawsock.Shutdown(h.fd, how); err != nil {
		return err
	}
	if how == ShutBoth {
		h.state = StateClosed
	} else {
		h.state = StateHalfClosed
	}
	return nil
}

// Bind binds the handle to addr.
func (h *Handle) Bind(addr address.Address) liberr.Error {
	if err := h.requireValid(); err != nil {
		return err
	}
	if err := rawsock.Bind(h.fd, addr); err != nil {
		return err
	}
	h.state = StateBound
	return nil
}

// MustBind panics with the wrapped error on failure (the throwing form of
// Bind, generated from the same primitive).
func (h *Handle) MustBind(addr address.Address) {
	if err := h.Bind(addr); err != nil {
		panic(err)
	}
}

// Listen marks the handle as a passive listening socket.
func (h *Handle) Listen(backlog int) liberr.Error {
	if h.state != StateBound {
		return liberr.New(liberr.KindLogic, liberr.CodeSocketWrongState, "listen requires a bound socket")
	}
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err := rawsock.Listen(h.fd, backlog); err != nil {
		return err
	}
	h.state = StateListening
	return nil
}

// MustListen panics with the wrapped error on failure (the throwing form
// of Listen, generated from the same primitive).
func (h *Handle) MustListen(backlog int) {
	if err := h.Listen(backlog); err != nil {
		panic(err)
	}
}

// Accept result mirrors rawsock.Accept: transient means would-block.
func (h *Handle) Accept() (newFd int, peer address.Address, transient bool, err liberr.Error) {
	if h.state != StateListening {
		return rawsock.Invalid, address.Empty(), false, liberr.New(liberr.KindLogic, liberr.CodeSocketWrongState, "accept requires a listening socket")
	}
	return rawsock.Accept(h.fd)
}

// Connect starts (or continues) a non-blocking connect.
func (h *Handle) Connect(addr address.Address) (inProgress bool, err liberr.Error) {
	if err := h.requireValid(); err != nil {
		return false, err
	}
	inProgress, err = rawsock.Connect(h.fd, addr)
	if err != nil {
		return false, err
	}
	if inProgress {
		h.state = StateConnecting
	} else {
		h.state = StateConnected
	}
	return inProgress, nil
}

// MustConnect panics with the wrapped error on failure (the throwing form
// of Connect, generated from the same primitive).
func (h *Handle) MustConnect(addr address.Address) (inProgress bool) {
	inProgress, err := h.Connect(addr)
	if err != nil {
		panic(err)
	}
	return inProgress
}

// ConnectError resolves a pending non-blocking connect once the
// descriptor becomes writable.
func (h *Handle) ConnectError() liberr.Error {
	err := rawsock.ConnectError(h.fd)
	if err != nil {
		h.state = StateClosed
		return err
	}
	h.state = StateConnected
	return nil
}

// Send writes p to a connected socket.
func (h *Handle) Send(p []byte) (n int, transient bool, err liberr.Error) {
	return rawsock.Send(h.fd, p)
}

// MustSend panics with the wrapped error on failure (the throwing form of
// Send, generated from the same primitive).
func (h *Handle) MustSend(p []byte) (n int, transient bool) {
	n, transient, err := h.Send(p)
	if err != nil {
		panic(err)
	}
	return n, transient
}

// Receive reads into p from a connected socket.
func (h *Handle) Receive(p []byte) (n int, transient bool, err liberr.Error) {
	return rawsock.Receive(h.fd, p)
}

// MustReceive panics with the wrapped error on failure (the throwing form
// of Receive, generated from the same primitive).
func (h *Handle) MustReceive(p []byte) (n int, transient bool) {
	n, transient, err := h.Receive(p)
	if err != nil {
		panic(err)
	}
	return n, transient
}

// SendTo writes p to addr on a (possibly unconnected) datagram socket.
func (h *Handle) SendTo(p []byte, addr address.Address) (n int, transient bool, err liberr.Error) {
	return rawsock.SendTo(h.fd, p, addr)
}

// MustSendTo panics with the wrapped error on failure (the throwing form
// of SendTo, generated from the same primitive).
func (h *Handle) MustSendTo(p []byte, addr address.Address) (n int, transient bool) {
	n, transient, err := h.SendTo(p, addr)
	if err != nil {
		panic(err)
	}
	return n, transient
}

// ReceiveFrom reads one datagram into p, reporting its source address.
func (h *Handle) ReceiveFrom(p []byte) (n int, from address.Address, transient bool, err liberr.Error) {
	return rawsock.ReceiveFrom(h.fd, p)
}

// MustReceiveFrom panics with the wrapped error on failure (the throwing
// form of ReceiveFrom, generated from the same primitive).
func (h *Handle) MustReceiveFrom(p []byte) (n int, from address.Address, transient bool) {
	n, from, transient, err := h.ReceiveFrom(p)
	if err != nil {
		panic(err)
	}
	return n, from, transient
}

// LocalAddress returns the address the handle is bound to.
func (h *Handle) LocalAddress() (address.Address, liberr.Error) {
	return rawsock.LocalAddr(h.fd)
}

// PeerAddress returns the address the handle is connected to.
func (h *Handle) PeerAddress() (address.Address, liberr.Error) {
	return rawsock.PeerAddr(h.fd)
}

// ReuseAddress sets SO_REUSEADDR. Default is false.
func (h *Handle) ReuseAddress(reuse bool) liberr.Error { return rawsock.SetReuseAddr(h.fd, reuse) }

// ReusePort sets SO_REUSEPORT. Default is false.
func (h *Handle) ReusePort(reuse bool) liberr.Error { return rawsock.SetReusePort(h.fd, reuse) }

// KeepAlive sets SO_KEEPALIVE.
func (h *Handle) KeepAlive(on bool) liberr.Error { return rawsock.SetKeepAlive(h.fd, on) }

// NoDelay sets TCP_NODELAY (disables Nagle's algorithm).
func (h *Handle) NoDelay(on bool) liberr.Error { return rawsock.SetNoDelay(h.fd, on) }

// SendBuffer sets SO_SNDBUF.
func (h *Handle) SendBuffer(n int) liberr.Error { return rawsock.SetSendBuffer(h.fd, n) }

// RecvBuffer sets SO_RCVBUF.
func (h *Handle) RecvBuffer(n int) liberr.Error { return rawsock.SetRecvBuffer(h.fd, n) }
