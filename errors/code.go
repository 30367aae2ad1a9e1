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

import (
	"math"
	"strconv"
)

// idMsgFct stores the mapping between error codes and their message functions.
var idMsgFct = make(map[CodeError]Message)

// Message generates the message string associated with a registered CodeError.
type Message func(code CodeError) (message string)

// CodeError is a numeric classification for an Error, in the same spirit as
// an HTTP status code: callers can match on the code without string-matching
// the message.
type CodeError uint16

const (
	// UnknownError is the fallback code when none was set explicitly.
	UnknownError CodeError = 0

	UnknownMessage = "unknown error"
	NullMessage    = ""
)

// Reactor-core code ranges. Each component of spec.md owns a contiguous
// block so a caller can tell, from the code alone, which layer raised it.
const (
	CodeBuffer      CodeError = 1000 + iota // stream buffer overflow/underflow
	CodeBufferUnderflow
)

const (
	CodeSocket CodeError = 1100 + iota // socket handle logic/runtime errors
	CodeSocketClosed
	CodeSocketWrongState
)

const (
	CodeSelector CodeError = 1200 + iota
	CodeSelfPipe
)

const (
	CodeLoop CodeError = 1300 + iota
	CodeLoopNotOwner
	CodeLoopStopped
)

const (
	CodeHandler CodeError = 1400 + iota
	CodeHandlerDetached
)

const (
	CodeAcceptor CodeError = 1500 + iota
)

const (
	CodeConnection CodeError = 1600 + iota
	CodeConnectionWrongState
)

const (
	CodeUDP CodeError = 1700 + iota
)

const (
	CodeAddress CodeError = 1800 + iota
)

// ParseCodeError clamps an arbitrary integer into the CodeError range.
func ParseCodeError(i int64) CodeError {
	if i < 0 {
		return UnknownError
	} else if i >= int64(math.MaxUint16) {
		return math.MaxUint16
	}
	return CodeError(i)
}

func (c CodeError) Uint16() uint16 {
	return uint16(c)
}

func (c CodeError) Int() int {
	return int(c)
}

func (c CodeError) String() string {
	return strconv.Itoa(c.Int())
}

// Message returns the registered message for this code, or UnknownMessage.
func (c CodeError) Message() string {
	if c == UnknownError {
		return UnknownMessage
	}
	if f, ok := idMsgFct[c]; ok {
		if m := f(c); m != "" {
			return m
		}
	}
	return UnknownMessage
}

// Error builds a KindRuntime Error carrying this code. Use New/Newf directly
// when a different Kind applies.
func (c CodeError) Error(p ...error) Error {
	return New(KindRuntime, c, c.Message(), p...)
}

// RegisterIdFctMessage associates a message function with a CodeError. Used
// once per block at package init time; see errors.go's init().
func RegisterIdFctMessage(code CodeError, fct Message) {
	idMsgFct[code] = fct
}

