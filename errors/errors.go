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

func init() {
	RegisterIdFctMessage(CodeBuffer, func(CodeError) string { return "reservation would exceed the configured limit" })
	RegisterIdFctMessage(CodeBufferUnderflow, func(CodeError) string { return "not enough readable bytes" })

	RegisterIdFctMessage(CodeSocket, func(CodeError) string { return "socket operation failed" })
	RegisterIdFctMessage(CodeSocketClosed, func(CodeError) string { return "socket is closed" })
	RegisterIdFctMessage(CodeSocketWrongState, func(CodeError) string { return "socket is in the wrong state for this operation" })

	RegisterIdFctMessage(CodeSelector, func(CodeError) string { return "readiness selector failed" })
	RegisterIdFctMessage(CodeSelfPipe, func(CodeError) string { return "could not build self-pipe wakeup" })

	RegisterIdFctMessage(CodeLoop, func(CodeError) string { return "event loop failure" })
	RegisterIdFctMessage(CodeLoopNotOwner, func(CodeError) string { return "call made off the loop's owning thread" })
	RegisterIdFctMessage(CodeLoopStopped, func(CodeError) string { return "event loop is stopped" })

	RegisterIdFctMessage(CodeHandler, func(CodeError) string { return "event handler failure" })
	RegisterIdFctMessage(CodeHandlerDetached, func(CodeError) string { return "event handler already detached" })

	RegisterIdFctMessage(CodeAcceptor, func(CodeError) string { return "tcp acceptor failure" })
	RegisterIdFctMessage(CodeConnection, func(CodeError) string { return "tcp connection failure" })
	RegisterIdFctMessage(CodeConnectionWrongState, func(CodeError) string { return "connection is in the wrong state for this operation" })
	RegisterIdFctMessage(CodeUDP, func(CodeError) string { return "udp endpoint failure" })
	RegisterIdFctMessage(CodeAddress, func(CodeError) string { return "invalid endpoint address" })
}
