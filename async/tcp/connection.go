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

package tcp

import (
	"sync"

	"github.com/hashicorp/go-uuid"

	"github.com/nabbar/netb/address"
	liberr "github.com/nabbar/netb/errors"
	"github.com/nabbar/netb/internal/streambuf"
	"github.com/nabbar/netb/logger"
	"github.com/nabbar/netb/netcfg"
	"github.com/nabbar/netb/reactor"
	"github.com/nabbar/netb/socket"
)

// mtuReserve is the minimum writable space reserved in the inbound
// buffer before each recv, per spec.md §4.8's "at least one MTU".
const mtuReserve = 1500

// State is the connection's lifecycle, per spec.md §4.8.
type State uint8

const (
	StateIdle State = iota
	StateConnecting
	StateEstablished
	StateHalfClosed
	StateClosed
)

// ConnectedFunc reports connection establishment (ok=true) or teardown
// (ok=false, delivered exactly once per connection).
type ConnectedFunc func(conn *Connection, ok bool)

// ReceivedFunc is invoked with the inbound buffer after each successful
// recv; the callback is expected to drain it, or leave data for later.
type ReceivedFunc func(conn *Connection, buf *streambuf.Buffer)

// SentFunc is the optional callback fired after bytes actually left the
// socket, either from Send's immediate attempt or a write-readiness flush.
type SentFunc func(conn *Connection, n int)

// Connection wraps a non-blocking stream socket + event handler, with
// an inbound buffer and a mutex-guarded outbound buffer so Send can be
// called from any thread.
type Connection struct {
	loop    *reactor.Loop
	log     logger.Logger
	id      string
	handle  *socket.Handle
	handler *reactor.Handler

	cfg  netcfg.ConnectionConfig
	peer address.Address

	in *streambuf.Buffer

	outMu    sync.Mutex
	out      *streambuf.Buffer
	closing  bool

	state State
	torn  bool

	onConnected ConnectedFunc
	onReceived  ReceivedFunc
	onSent      SentFunc
}

func newConnection(loop *reactor.Loop, log logger.Logger, h *socket.Handle, cfg netcfg.ConnectionConfig) *Connection {
	if log == nil {
		log = logger.NewNop()
	}
	id, err := uuid.GenerateUUID()
	if err != nil {
		id = "unidentified"
	}
	buf := netcfg.DefaultBufferConfig()
	return &Connection{
		loop:   loop,
		log:    log,
		id:     id,
		handle: h,
		cfg:    cfg,
		in:     streambuf.New(buf.InitialCapacity, buf.Limit),
		out:    streambuf.New(buf.InitialCapacity, buf.Limit),
	}
}

// fields returns the base log fields every Connection log line carries,
// so two connections sharing a loop are distinguishable without exposing
// the raw descriptor as an identity.
func (c *Connection) fields() logger.Fields {
	return logger.NewFields().Add("connection_id", c.id)
}

func (c *Connection) applyOptions() liberr.Error {
	if err := c.handle.NoDelay(c.cfg.NoDelay); err != nil {
		return err
	}
	if err := c.handle.KeepAlive(c.cfg.KeepAlive); err != nil {
		return err
	}
	if c.cfg.SendBuffer > 0 {
		if err := c.handle.SendBuffer(c.cfg.SendBuffer); err != nil {
			return err
		}
	}
	if c.cfg.RecvBuffer > 0 {
		if err := c.handle.RecvBuffer(c.cfg.RecvBuffer); err != nil {
			return err
		}
	}
	return nil
}

// FromAccepted takes ownership of an already-connected descriptor (as
// delivered by an Acceptor's AcceptedFunc), transitioning straight to
// Established and registering read-interest.
func FromAccepted(loop *reactor.Loop, log logger.Logger, fd int, peer address.Address, cfg netcfg.ConnectionConfig) (*Connection, liberr.Error) {
	h := socket.Attach(socket.KindTCP, fd)
	c := newConnection(loop, log, h, cfg)
	c.peer = peer
	c.state = StateEstablished

	if err := c.applyOptions(); err != nil {
		h.Close()
		return nil, err
	}

	c.handler = reactor.NewHandler(loop, fd)
	c.handler.SetReadCallback(c.onReadable)
	c.handler.SetWriteCallback(c.onWritable)
	c.handler.EnableRead()
	return c, nil
}

// Connect starts a non-blocking connect to addr. If the OS reports the
// connect as in-progress, the connection transitions to Connecting and
// registers write-interest; success/failure is reported via the
// Connected callback from the first write-readiness.
func Connect(loop *reactor.Loop, log logger.Logger, addr address.Address, cfg netcfg.ConnectionConfig) (*Connection, liberr.Error) {
	h, err := socket.Create(socket.KindTCP)
	if err != nil {
		return nil, err
	}
	c := newConnection(loop, log, h, cfg)
	c.peer = addr

	if err := c.applyOptions(); err != nil {
		h.Close()
		return nil, err
	}

	c.handler = reactor.NewHandler(loop, h.Fd())
	c.handler.SetReadCallback(c.onReadable)
	c.handler.SetWriteCallback(c.onWritable)

	inProgress, cerr := h.Connect(addr)
	if cerr != nil {
		h.Close()
		return nil, cerr
	}
	if inProgress {
		c.state = StateConnecting
		c.handler.EnableWrite()
	} else {
		c.state = StateEstablished
		c.handler.EnableRead()
		// Deferred to the loop so a callback set right after Connect
		// returns still receives the notification.
		c.loop.InvokeLater(func() {
			if c.onConnected != nil {
				c.onConnected(c, true)
			}
		})
	}
	return c, nil
}

// SetConnectedCallback sets the connect/teardown notification callback.
func (c *Connection) SetConnectedCallback(cb ConnectedFunc) { c.onConnected = cb }

// SetReceivedCallback sets the inbound-data callback.
func (c *Connection) SetReceivedCallback(cb ReceivedFunc) { c.onReceived = cb }

// SetSentCallback sets the optional flush-progress callback.
func (c *Connection) SetSentCallback(cb SentFunc) { c.onSent = cb }

// State returns the connection's current lifecycle state.
func (c *Connection) State() State { return c.state }

// PeerAddress returns the remote address this connection targets or was
// accepted from.
func (c *Connection) PeerAddress() address.Address { return c.peer }

// Send enqueues bytes for transmission. It never blocks and never fails
// due to the peer being unready: called on the loop thread with an
// empty outbound buffer, it attempts one non-blocking send; any
// residual, and any off-thread call, is appended to the mutex-guarded
// outbound buffer and write-interest is enabled.
func (c *Connection) Send(p []byte) liberr.Error {
	if len(p) == 0 {
		return nil
	}

	if c.loop.IsInLoopThread() {
		c.outMu.Lock()
		empty := c.out.Readable() == 0
		c.outMu.Unlock()

		if empty {
			n, transient, err := c.handle.Send(p)
			if err != nil {
				c.teardown()
				return err
			}
			if c.onSent != nil && n > 0 {
				c.onSent(c, n)
			}
			if !transient && n == len(p) {
				return nil
			}
			p = p[n:]
		}
	}

	c.outMu.Lock()
	err := c.out.Write(p)
	c.outMu.Unlock()
	if err != nil {
		return err
	}

	c.handler.EnableWrite()
	return nil
}

// Close shuts down the write side; the handler detaches once the
// outbound buffer has fully drained.
func (c *Connection) Close() {
	c.outMu.Lock()
	c.closing = true
	empty := c.out.Readable() == 0
	c.outMu.Unlock()

	if empty {
		c.finish()
	}
}

func (c *Connection) onReadable() {
	if err := c.in.Reserve(mtuReserve); err != nil {
		c.teardown()
		return
	}
	n, transient, err := c.handle.Receive(c.in.WriteCursor())
	if transient {
		return
	}
	if err != nil {
		c.log.Warn("connection recv failed", c.fields().Add("error", err.Error()))
		c.teardown()
		return
	}
	if n == 0 {
		c.teardown()
		return
	}
	c.in.Advance(n)
	if c.onReceived != nil {
		c.onReceived(c, c.in)
	}
}

func (c *Connection) onWritable() {
	if c.state == StateConnecting {
		c.finishConnect()
		return
	}

	for {
		c.outMu.Lock()
		if c.out.Readable() == 0 {
			c.outMu.Unlock()
			break
		}
		chunk := c.out.ReadCursor()
		c.outMu.Unlock()

		n, transient, err := c.handle.Send(chunk)
		if err != nil {
			c.log.Warn("connection send failed", c.fields().Add("error", err.Error()))
			c.teardown()
			return
		}
		if n > 0 {
			c.outMu.Lock()
			c.out.Drain(n)
			c.outMu.Unlock()
			if c.onSent != nil {
				c.onSent(c, n)
			}
		}
		if transient || n < len(chunk) {
			return
		}
	}

	c.handler.DisableWrite()

	c.outMu.Lock()
	closing := c.closing
	c.outMu.Unlock()
	if closing {
		c.finish()
	}
}

func (c *Connection) finishConnect() {
	if err := c.handle.ConnectError(); err != nil {
		c.teardown()
		return
	}

	c.state = StateEstablished
	c.handler.DisableWrite()
	c.handler.SetReadCallback(c.onReadable)
	c.handler.EnableRead()
	if c.onConnected != nil {
		c.onConnected(c, true)
	}
}

// teardown delivers exactly one Connected(conn, false) notification and
// releases the socket, per spec.md §7's "user-visible behavior".
func (c *Connection) teardown() {
	if c.torn {
		return
	}
	c.torn = true
	c.state = StateClosed
	c.handler.Detach()
	c.handle.Close()
	if c.onConnected != nil {
		c.onConnected(c, false)
	}
}

func (c *Connection) finish() {
	c.handle.Shutdown(socket.ShutWrite)
	c.state = StateHalfClosed
	c.teardown()
}
