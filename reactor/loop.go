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

// Package reactor is the event dispatcher: it owns the readiness
// selector, the handler table, the self-pipe, and a cross-thread task
// queue, and runs the thread-bound dispatch loop described in
// spec.md §4.5/§4.6.
package reactor

import (
	"sync"
	"sync/atomic"

	liberr "github.com/nabbar/netb/errors"
	"github.com/nabbar/netb/internal/poller"
	"github.com/nabbar/netb/logger"
	"github.com/nabbar/netb/selfpipe"
)

// Functor is a function the loop can invoke, mirroring the source's
// EventLoop::Functor typedef.
type Functor func()

// Loop is the reactor. Only one goroutine may call Run; register,
// update, and remove must only be called from that goroutine (directly,
// or via Invoke/InvokeLater from elsewhere).
type Loop struct {
	log logger.Logger

	threadID uint64
	running  int32
	stopped  int32

	poller   *poller.Poller
	handlers map[int]*Handler
	current  *Handler

	queueMu    sync.Mutex
	queue      []Functor
	invoking   bool

	pipe        *selfpipe.Pipe
	pipeHandler *Handler
}

// New builds a Loop with its self-pipe wakeup already wired up. Returns
// a runtime error if the self-pipe could not be constructed, per
// spec.md's Design Notes resolution of that Open Question.
func New(log logger.Logger) (*Loop, liberr.Error) {
	if log == nil {
		log = logger.NewNop()
	}

	pipe, err := selfpipe.New()
	if err != nil {
		return nil, liberr.New(liberr.KindRuntime, liberr.CodeLoop, "could not build reactor", err)
	}

	l := &Loop{
		log:      log,
		poller:   poller.New(),
		handlers: make(map[int]*Handler),
		pipe:     pipe,
	}
	return l, nil
}

// IsInLoopThread reports whether the calling goroutine is the one
// currently executing Run.
func (l *Loop) IsInLoopThread() bool {
	return atomic.LoadInt32(&l.running) == 1 && goid() == atomic.LoadUint64(&l.threadID)
}

// Run executes the dispatch loop. Must be called from the goroutine
// that is to become the loop's owning thread; returns once Stop has
// been observed between iterations.
func (l *Loop) Run() {
	atomic.StoreUint64(&l.threadID, goid())
	atomic.StoreInt32(&l.running, 1)
	defer atomic.StoreInt32(&l.running, 0)

	l.pipeHandler = NewHandler(l, l.pipe.ReadFd())
	l.pipeHandler.SetReadCallback(func() {
		_ = l.pipe.Drain()
		l.log.Debug("selector woke on self-pipe", logger.NewFields())
	})
	l.pipeHandler.EnableRead()
	l.runQueuedTasksNow()

	for atomic.LoadInt32(&l.stopped) == 0 {
		ready, err := l.poller.Select(-1)
		if err != nil {
			l.log.Error("selector failed", logger.NewFields().Add("error", err.Error()))
			continue
		}
		for _, r := range ready {
			h, ok := l.handlers[r.Fd]
			if !ok {
				continue
			}
			l.current = h
			h.handleEvents(r.Mask)
			l.current = nil
		}
		l.drainQueue()
	}
}

// Stop requests termination. Callable from any thread; an off-thread
// call wakes the selector via the self-pipe.
func (l *Loop) Stop() {
	atomic.StoreInt32(&l.stopped, 1)
	if !l.IsInLoopThread() {
		_ = l.pipe.Write()
	}
}

// Invoke runs f inline if called from the loop thread, otherwise
// enqueues it and wakes the loop.
func (l *Loop) Invoke(f Functor) {
	if l.IsInLoopThread() {
		f()
		return
	}
	l.InvokeLater(f)
}

// InvokeLater always enqueues f, waking the loop if the caller is
// off-thread or the loop is currently draining its task queue. A task
// appended mid-drain is not run by that drain pass (the queue was already
// swapped out); the wakeup makes the next iteration's drain run it
// without waiting for unrelated readiness.
func (l *Loop) InvokeLater(f Functor) {
	l.queueMu.Lock()
	l.queue = append(l.queue, f)
	wasInvoking := l.invoking
	l.queueMu.Unlock()

	if !l.IsInLoopThread() || wasInvoking {
		_ = l.pipe.Write()
	}
}

func (l *Loop) drainQueue() {
	l.queueMu.Lock()
	tasks := l.queue
	l.queue = nil
	l.invoking = true
	l.queueMu.Unlock()

	for _, t := range tasks {
		t()
	}

	l.queueMu.Lock()
	l.invoking = false
	l.queueMu.Unlock()
}

// runQueuedTasksNow drains once before the first Select, so tasks
// enqueued between New and the first Run iteration (e.g. the initial
// handler registrations issued by component constructors) are not
// starved until a readiness event happens to occur.
func (l *Loop) runQueuedTasksNow() {
	l.drainQueue()
}

// register adds handler to the selector and handler table. Must run on
// the loop thread.
func (l *Loop) register(h *Handler) bool {
	l.handlers[h.fd] = h
	l.poller.Set(h.fd, h.interest())
	l.log.Debug("handler registered", logger.NewFields().Add("fd", h.fd))
	return true
}

// update refreshes the selector's recorded interest mask for handler.
// Must run on the loop thread. Returns false if h was never registered.
func (l *Loop) update(h *Handler) bool {
	if _, ok := l.handlers[h.fd]; !ok {
		return false
	}
	l.poller.Set(h.fd, h.interest())
	return true
}

// remove drops handler from the selector and handler table. Must run on
// the loop thread. Removing the handler currently being dispatched is
// allowed: handleEvents already re-checks Detached() between its read
// and write callback, so the deferred write never fires.
func (l *Loop) remove(h *Handler) bool {
	if _, ok := l.handlers[h.fd]; !ok {
		return false
	}
	delete(l.handlers, h.fd)
	l.poller.Remove(h.fd)
	l.log.Debug("handler detached", logger.NewFields().Add("fd", h.fd))
	return true
}

// Close stops the loop (if running) and releases the self-pipe.
func (l *Loop) Close() liberr.Error {
	l.Stop()
	return l.pipe.Close()
}
