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

// Package errors is the reactor core's error model: every fallible
// operation returns (or panics with) a value satisfying Error, which adds a
// numeric CodeError, a Kind (spec.md §7: logic / runtime / transient /
// interrupted), an optional parent chain, and a captured call-site trace to
// Go's plain error.
//
// The dual API spec.md's design notes require — a throwing form and a
// boolean/out-parameter form for every operation — is generated from one
// internal fallible primitive per call site: the non-throwing form returns
// the *ers value directly, the throwing form (Must-prefixed in callers)
// panics with the same value. Both read the OS error exactly once.
package errors

import (
	"errors"
	"fmt"
)

// FuncMap is called for every error in a Map traversal; return false to
// stop early.
type FuncMap func(e error) bool

// Error extends Go's error with the code/kind/hierarchy machinery the
// reactor core's call sites rely on instead of string-matching messages.
type Error interface {
	error

	// Kind reports the spec.md §7 classification of this error.
	Kind() Kind
	// Code returns the numeric CodeError.
	Code() CodeError
	// IsCode reports whether this error's own code (not a parent's) matches.
	IsCode(code CodeError) bool
	// HasCode reports whether this error or any parent carries code.
	HasCode(code CodeError) bool

	// Add appends parent errors, flattening any *ers already present in
	// parent to avoid re-wrapping.
	Add(parent ...error)
	// HasParent reports whether any parent errors were added.
	HasParent() bool
	// GetParent returns the flattened parent chain; withSelf also includes
	// this error as the first element.
	GetParent(withSelf bool) []error
	// Unwrap exposes the parent chain to errors.Is/errors.As.
	Unwrap() []error
	// Is reports whether err is equivalent to this error (by trace, then
	// message, then code — the first discriminator that either side carries
	// decides).
	Is(err error) bool
	// Map walks this error and its parents depth-first, stopping early if
	// fct returns false.
	Map(fct FuncMap) bool

	// StringError returns only this error's own message, ignoring parents.
	StringError() string
	// GetTrace returns "file#line" (or "function#line") captured at
	// construction time, or "" if tracing was not available.
	GetTrace() string
}

// ers is the sole implementation of Error.
type ers struct {
	k Kind
	c CodeError
	e string
	p []Error
	t trace
}

var _ Error = (*ers)(nil)

// New builds an Error of the given kind/code/message, wrapping any non-nil
// parents. A nil parent is dropped silently (a common call pattern is
// `New(KindRuntime, CodeSocket, "send failed", rawErr)` where rawErr may be
// nil on the non-error path).
func New(k Kind, c CodeError, msg string, parent ...error) Error {
	e := &ers{k: k, c: c, e: msg, p: make([]Error, 0), t: getTrace()}
	e.Add(parent...)
	return e
}

// Newf is New with fmt.Sprintf-style formatting of msg.
func Newf(k Kind, c CodeError, msg string, args ...interface{}) Error {
	return New(k, c, fmt.Sprintf(msg, args...))
}

// IfError returns a KindRuntime Error for code/msg only if at least one
// non-nil parent is present; otherwise it returns nil. This is the shape
// call sites use right after a syscall: `if e := errors.IfError(CodeSocket,
// "accept", err); e != nil { return e }`.
func IfError(c CodeError, msg string, parent ...error) Error {
	any := false
	for _, p := range parent {
		if p != nil {
			any = true
			break
		}
	}
	if !any {
		return nil
	}
	return New(KindRuntime, c, msg, parent...)
}

func (e *ers) Kind() Kind        { return e.k }
func (e *ers) Code() CodeError   { return e.c }
func (e *ers) IsCode(c CodeError) bool { return e.c == c }

func (e *ers) HasCode(c CodeError) bool {
	if e.IsCode(c) {
		return true
	}
	for _, p := range e.p {
		if p.HasCode(c) {
			return true
		}
	}
	return false
}

func (e *ers) Add(parent ...error) {
	for _, v := range parent {
		if v == nil {
			continue
		}
		if er, ok := v.(*ers); ok {
			e.p = append(e.p, er)
		} else if er, ok := v.(Error); ok {
			e.p = append(e.p, er)
		} else {
			e.p = append(e.p, &ers{k: KindRuntime, e: v.Error()})
		}
	}
}

func (e *ers) HasParent() bool { return len(e.p) > 0 }

func (e *ers) GetParent(withSelf bool) []error {
	res := make([]error, 0, len(e.p)+1)
	if withSelf {
		res = append(res, &ers{k: e.k, c: e.c, e: e.e, t: e.t})
	}
	for _, p := range e.p {
		res = append(res, p.GetParent(true)...)
	}
	return res
}

func (e *ers) Unwrap() []error {
	if len(e.p) == 0 {
		return nil
	}
	res := make([]error, 0, len(e.p))
	for _, p := range e.p {
		res = append(res, p)
	}
	return res
}

func (e *ers) Is(err error) bool {
	if err == nil {
		return false
	}
	other, ok := err.(*ers)
	if !ok {
		return errors.Is(errors.New(e.e), err)
	}

	if ts, sd := e.GetTrace(), other.GetTrace(); ts != "" || sd != "" {
		return ts == sd
	}
	if e.e != "" || other.e != "" {
		return e.e == other.e
	}
	if e.c != 0 || other.c != 0 {
		return e.c == other.c
	}
	return false
}

func (e *ers) Map(fct FuncMap) bool {
	if !fct(e) {
		return false
	}
	for _, p := range e.p {
		if !p.Map(fct) {
			return false
		}
	}
	return true
}

func (e *ers) StringError() string { return e.e }

func (e *ers) Error() string {
	return formatError(e)
}

func (e *ers) GetTrace() string {
	return e.t.String()
}
