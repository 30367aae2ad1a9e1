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

// Package poller is the readiness selector abstraction: a mapping from
// descriptor to interest mask, with Select blocking (or polling, or
// timing out) until one or more descriptors are ready. It wraps
// unix.Poll rather than epoll/kqueue, trading scalability for the one
// thing spec.md's contract actually requires — a portable, level-
// triggered, interruption-safe readiness primitive usable from a single
// loop thread.
package poller

import (
	"golang.org/x/sys/unix"

	liberr "github.com/nabbar/netb/errors"
)

// Mask is a bitset of readiness conditions.
type Mask uint8

const (
	Readable Mask = 1 << iota
	Writable
	Errored
)

// Poller is not safe for concurrent use; spec.md requires all mutation
// and Select calls to happen on the owning reactor's loop thread.
type Poller struct {
	order []int
	masks map[int]Mask
}

// New returns an empty Poller.
func New() *Poller {
	return &Poller{masks: make(map[int]Mask)}
}

// Set adds or replaces the interest mask for fd. Idempotent.
func (p *Poller) Set(fd int, mask Mask) {
	if _, ok := p.masks[fd]; !ok {
		p.order = append(p.order, fd)
	}
	p.masks[fd] = mask
}

// Remove drops fd from the interest set. Idempotent.
func (p *Poller) Remove(fd int) {
	if _, ok := p.masks[fd]; !ok {
		return
	}
	delete(p.masks, fd)
	for i, v := range p.order {
		if v == fd {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Ready is one (descriptor, ready-mask) result from Select.
type Ready struct {
	Fd   int
	Mask Mask
}

// Select waits up to timeoutMs milliseconds (-1 blocks indefinitely, 0
// polls) and returns the descriptors that became ready. System call
// interruption is retried transparently; a zero-length result is
// returned only on timeout.
func (p *Poller) Select(timeoutMs int) ([]Ready, liberr.Error) {
	if len(p.order) == 0 {
		if timeoutMs < 0 {
			// spec.md does not require blocking forever on an empty
			// interest set for the core selector itself (the reactor
			// always has at least the self-pipe registered); guard
			// against an accidental infinite block in unit tests.
			return nil, nil
		}
		return nil, nil
	}

	fds := make([]unix.PollFd, len(p.order))
	for i, fd := range p.order {
		fds[i] = unix.PollFd{Fd: int32(fd), Events: toPollEvents(p.masks[fd])}
	}

	n, err := unix.Poll(fds, timeoutMs)
	for err == unix.EINTR {
		n, err = unix.Poll(fds, timeoutMs)
	}
	if err != nil {
		return nil, liberr.CodeSelector.Error(err)
	}
	if n == 0 {
		return nil, nil
	}

	out := make([]Ready, 0, n)
	for _, pfd := range fds {
		m := fromPollEvents(pfd.Revents)
		if m != 0 {
			out = append(out, Ready{Fd: int(pfd.Fd), Mask: m})
		}
	}
	return out, nil
}

func toPollEvents(m Mask) int16 {
	var ev int16
	if m&Readable != 0 {
		ev |= unix.POLLIN
	}
	if m&Writable != 0 {
		ev |= unix.POLLOUT
	}
	return ev
}

func fromPollEvents(ev int16) Mask {
	var m Mask
	if ev&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
		m |= Readable
	}
	if ev&unix.POLLOUT != 0 {
		m |= Writable
	}
	if ev&unix.POLLERR != 0 {
		m |= Errored
	}
	return m
}
