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

package errors_test

import (
	goErr "errors"
	"syscall"
	"testing"

	liberr "github.com/nabbar/netb/errors"
)

func TestNewCarriesCodeAndKind(t *testing.T) {
	e := liberr.New(liberr.KindRuntime, liberr.CodeSocket, "boom")

	if e.Kind() != liberr.KindRuntime {
		t.Fatalf("expected KindRuntime, got %v", e.Kind())
	}
	if !e.IsCode(liberr.CodeSocket) {
		t.Fatalf("expected code %v, got %v", liberr.CodeSocket, e.Code())
	}
	if e.Error() != "boom" {
		t.Fatalf("expected message 'boom', got %q", e.Error())
	}
}

func TestAddFlattensParents(t *testing.T) {
	parent := liberr.New(liberr.KindRuntime, liberr.CodeSocket, "parent")
	child := liberr.New(liberr.KindLogic, liberr.CodeLoop, "child", parent)

	if !child.HasParent() {
		t.Fatal("expected child to have a parent")
	}
	if !child.HasCode(liberr.CodeSocket) {
		t.Fatal("expected child to inherit parent's code via HasCode")
	}
}

func TestIfErrorNilOnNoParent(t *testing.T) {
	if e := liberr.IfError(liberr.CodeSocket, "msg"); e != nil {
		t.Fatalf("expected nil, got %v", e)
	}
	if e := liberr.IfError(liberr.CodeSocket, "msg", goErr.New("x")); e == nil {
		t.Fatal("expected non-nil error")
	}
}

func TestClassifyErrno(t *testing.T) {
	cases := []struct {
		errno syscall.Errno
		kind  liberr.Kind
	}{
		{syscall.EAGAIN, liberr.KindTransient},
		{syscall.EINPROGRESS, liberr.KindTransient},
		{syscall.EINTR, liberr.KindInterrupted},
		{syscall.ECONNRESET, liberr.KindRuntime},
	}

	for _, c := range cases {
		if got := liberr.ClassifyErrno(c.errno); got != c.kind {
			t.Errorf("ClassifyErrno(%v) = %v, want %v", c.errno, got, c.kind)
		}
	}
}

func TestIsTransientIsInterrupted(t *testing.T) {
	transient := liberr.New(liberr.KindTransient, liberr.CodeSocket, "would block")
	interrupted := liberr.New(liberr.KindInterrupted, liberr.CodeSocket, "eintr")

	if !liberr.IsTransient(transient) {
		t.Error("expected IsTransient to be true")
	}
	if liberr.IsTransient(interrupted) {
		t.Error("expected IsTransient to be false for interrupted")
	}
	if !liberr.IsInterrupted(interrupted) {
		t.Error("expected IsInterrupted to be true")
	}
}
