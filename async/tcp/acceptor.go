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

// Package tcp is the async TCP acceptor and connection: non-blocking
// stream sockets driven entirely by the reactor, per spec.md §4.7/§4.8.
package tcp

import (
	"github.com/nabbar/netb/address"
	liberr "github.com/nabbar/netb/errors"
	"github.com/nabbar/netb/logger"
	"github.com/nabbar/netb/netcfg"
	"github.com/nabbar/netb/reactor"
	"github.com/nabbar/netb/socket"
)

// AcceptedFunc is invoked with the new descriptor and the peer address
// captured from accept. A false return instructs the acceptor to close
// the new descriptor immediately.
type AcceptedFunc func(acc *Acceptor, newFd int, peer address.Address) bool

// AcceptErrorFunc is the optional acceptor-error callback; if unset,
// terminal accept errors are logged and the loop continues.
type AcceptErrorFunc func(err liberr.Error)

// Acceptor wraps a listening socket + an event handler. Its listening
// socket is never closed automatically on an accept error.
type Acceptor struct {
	loop    *reactor.Loop
	log     logger.Logger
	handle  *socket.Handle
	handler *reactor.Handler

	accepted AcceptedFunc
	onError  AcceptErrorFunc
}

// Open creates (if absent) a socket, sets reuse options, binds, listens
// with the configured backlog, sets non-blocking (rawsock.Open already
// does), and registers read-interest with loop.
func Open(loop *reactor.Loop, log logger.Logger, addr address.Address, cfg netcfg.AcceptorConfig) (*Acceptor, liberr.Error) {
	if log == nil {
		log = logger.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h, err := socket.Create(socket.KindTCP)
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
	if err := h.Bind(addr); err != nil {
		h.Close()
		return nil, err
	}
	if err := h.Listen(cfg.Backlog); err != nil {
		h.Close()
		return nil, err
	}

	a := &Acceptor{loop: loop, log: log, handle: h}
	a.handler = reactor.NewHandler(loop, h.Fd())
	a.handler.SetReadCallback(a.onReadable)
	a.handler.EnableRead()
	return a, nil
}

// SetAcceptedCallback sets the callback invoked for each accepted peer.
func (a *Acceptor) SetAcceptedCallback(cb AcceptedFunc) { a.accepted = cb }

// SetErrorCallback sets the optional terminal-accept-error callback.
func (a *Acceptor) SetErrorCallback(cb AcceptErrorFunc) { a.onError = cb }

// LocalAddress returns the bound address (useful to learn the ephemeral
// port after binding to port 0).
func (a *Acceptor) LocalAddress() (address.Address, liberr.Error) {
	return a.handle.LocalAddress()
}

func (a *Acceptor) onReadable() {
	for {
		newFd, peer, transient, err := a.handle.Accept()
		if transient {
			return
		}
		if err != nil {
			if a.onError != nil {
				a.onError(err)
			} else {
				a.log.Warn("accept failed", logger.NewFields().Add("error", err.Error()))
			}
			return
		}

		if a.accepted != nil && !a.accepted(a, newFd, peer) {
			if cerr := socket.Attach(socket.KindTCP, newFd).Close(); cerr != nil {
				a.log.Warn("closing rejected connection failed", logger.NewFields().Add("error", cerr.Error()))
			}
		}
	}
}

// Close detaches the handler and closes the listening socket.
func (a *Acceptor) Close() liberr.Error {
	a.handler.Detach()
	return a.handle.Close()
}
