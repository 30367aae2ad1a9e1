/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package errors

import "syscall"

// Kind classifies an Error the way spec.md §7 does: a caller deciding how to
// react needs to know whether this was its own fault (Logic), the OS's
// (Runtime), or not really an error at all (Transient, Interrupted).
type Kind uint8

const (
	// KindLogic is a contract violation by the caller: wrong-state object,
	// off-loop-thread call to a loop-thread-only API, invalid argument.
	KindLogic Kind = iota
	// KindRuntime is an OS-reported failure with no local recovery: bad
	// descriptor, ENOMEM, a non-reuse bind conflict, EACCES, EHOSTUNREACH.
	KindRuntime
	// KindTransient is would-block or in-progress: not an error to the
	// caller, only a signal to retry once the descriptor is ready.
	KindTransient
	// KindInterrupted is EINTR: retried transparently at the call site.
	KindInterrupted
)

func (k Kind) String() string {
	switch k {
	case KindLogic:
		return "logic"
	case KindRuntime:
		return "runtime"
	case KindTransient:
		return "transient"
	case KindInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// ClassifyErrno maps a raw syscall errno to the Kind the reactor core treats
// it as. send/recv/accept/connect all funnel through this single place so
// the errno is read once, right after the call, and never re-derived.
func ClassifyErrno(errno syscall.Errno) Kind {
	// EWOULDBLOCK equals EAGAIN on some platforms, so it cannot share a
	// switch case with it.
	if errno == syscall.EWOULDBLOCK {
		return KindTransient
	}
	switch errno {
	case syscall.EAGAIN, syscall.EINPROGRESS, syscall.EALREADY:
		return KindTransient
	case syscall.EINTR:
		return KindInterrupted
	default:
		return KindRuntime
	}
}

// IsTransient reports whether err (as returned by any reactor-core
// operation) is a KindTransient Error — "try again on readiness", not a
// failure to surface to the caller.
func IsTransient(err error) bool {
	e, ok := err.(Error)
	return ok && e.Kind() == KindTransient
}

// IsInterrupted reports whether err is a KindInterrupted Error.
func IsInterrupted(err error) bool {
	e, ok := err.(Error)
	return ok && e.Kind() == KindInterrupted
}

// IsLogic reports whether err is a KindLogic Error — a contract violation
// the caller should fix, not retry.
func IsLogic(err error) bool {
	e, ok := err.(Error)
	return ok && e.Kind() == KindLogic
}
