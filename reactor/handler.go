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

package reactor

import (
	"sync"

	"github.com/nabbar/netb/internal/poller"
)

// detachState is the handler's attach lifecycle, mutex+condvar guarded
// per spec.md's re-architecture of the source's bare-pointer/mutex
// design into an explicit state machine.
type detachState uint8

const (
	stateAttached detachState = iota
	stateDetaching
	stateDetached
)

// Handler is the per-descriptor object that carries interest flags and
// read/write callbacks, mediating between its owner's thread and the
// loop thread. Construction posts a registration task to the loop; the
// handler is not actually in the selector until that task runs.
type Handler struct {
	loop *Loop
	fd   int

	mu       sync.Mutex
	mask     poller.Mask
	readCB   func()
	writeCB  func()

	detachMu   sync.Mutex
	detachCond *sync.Cond
	state      detachState
}

// NewHandler binds a handler to (loop, fd) and schedules its
// registration with the loop. Both callbacks start nil and are set via
// SetReadCallback/SetWriteCallback.
func NewHandler(loop *Loop, fd int) *Handler {
	h := &Handler{loop: loop, fd: fd}
	h.detachCond = sync.NewCond(&h.detachMu)
	loop.Invoke(func() {
		loop.register(h)
	})
	return h
}

// Fd returns the descriptor this handler is bound to.
func (h *Handler) Fd() int { return h.fd }

// SetReadCallback is an idempotent setter; safe to call from any thread.
func (h *Handler) SetReadCallback(cb func()) {
	h.mu.Lock()
	h.readCB = cb
	h.mu.Unlock()
}

// SetWriteCallback is an idempotent setter; safe to call from any thread.
func (h *Handler) SetWriteCallback(cb func()) {
	h.mu.Lock()
	h.writeCB = cb
	h.mu.Unlock()
}

func (h *Handler) EnableRead()   { h.updateMask(poller.Readable, true) }
func (h *Handler) DisableRead()  { h.updateMask(poller.Readable, false) }
func (h *Handler) EnableWrite()  { h.updateMask(poller.Writable, true) }
func (h *Handler) DisableWrite() { h.updateMask(poller.Writable, false) }

func (h *Handler) updateMask(bit poller.Mask, on bool) {
	h.mu.Lock()
	if on {
		h.mask |= bit
	} else {
		h.mask &^= bit
	}
	h.mu.Unlock()

	if h.loop.IsInLoopThread() {
		h.loop.update(h)
		return
	}
	h.loop.Invoke(func() {
		h.loop.update(h)
	})
}

// interest returns the handler's current interest mask.
func (h *Handler) interest() poller.Mask {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mask
}

// Detach synchronously removes the handler from the selector and
// handler table. Off-thread callers block on a condition variable until
// the loop has acknowledged the removal; on the loop thread it runs
// inline. After Detach returns, no further callback of this handler
// will ever fire.
func (h *Handler) Detach() {
	h.detachMu.Lock()
	if h.state != stateAttached {
		h.detachMu.Unlock()
		h.waitDetached()
		return
	}
	h.state = stateDetaching
	h.detachMu.Unlock()

	if h.loop.IsInLoopThread() {
		h.loop.remove(h)
		h.markDetached()
		return
	}

	h.loop.Invoke(func() {
		h.loop.remove(h)
		h.markDetached()
	})
	h.waitDetached()
}

func (h *Handler) markDetached() {
	h.detachMu.Lock()
	h.state = stateDetached
	h.detachMu.Unlock()
	h.detachCond.Broadcast()
}

func (h *Handler) waitDetached() {
	h.detachMu.Lock()
	for h.state != stateDetached {
		h.detachCond.Wait()
	}
	h.detachMu.Unlock()
}

// Detached reports whether Detach has completed.
func (h *Handler) Detached() bool {
	h.detachMu.Lock()
	defer h.detachMu.Unlock()
	return h.state == stateDetached
}

// handleEvents is invoked by the loop with the ready mask: read before
// write, per spec.md's dispatch algorithm. It tolerates a read callback
// that detaches the handler mid-dispatch: the loop removes it at once,
// and the Detached check below skips the write callback.
func (h *Handler) handleEvents(mask poller.Mask) {
	if mask&poller.Readable != 0 {
		h.mu.Lock()
		cb := h.readCB
		h.mu.Unlock()
		if cb != nil {
			cb()
		}
	}
	if h.Detached() {
		return
	}
	if mask&poller.Writable != 0 {
		h.mu.Lock()
		cb := h.writeCB
		h.mu.Unlock()
		if cb != nil {
			cb()
		}
	}
}
