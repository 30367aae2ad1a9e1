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

// Package rawsock is the BSD socket syscall surface: every operation the
// socket package's state machine needs, expressed directly over
// golang.org/x/sys/unix with no buffering or reactor awareness of its
// own. Interrupted calls are retried here immediately; would-block and
// in-progress are classified and returned to the caller (socket.Handle
// and the async/ packages), which retries on readiness.
package rawsock

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/nabbar/netb/address"
	liberr "github.com/nabbar/netb/errors"
)

// Invalid is the sentinel file descriptor value for "no socket open".
const Invalid = -1

// Domain returns the unix socket address family for an address.Family.
func Domain(f address.Family) int {
	if f == address.FamilyV6 {
		return unix.AF_INET6
	}
	return unix.AF_INET
}

// Open creates a non-blocking socket descriptor for the given domain,
// type and protocol (e.g. unix.SOCK_STREAM, unix.SOCK_DGRAM).
func Open(domain, typ, protocol int) (int, liberr.Error) {
	fd, err := unix.Socket(domain, typ|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, protocol)
	if err != nil {
		return Invalid, liberr.CodeSocket.Error(err)
	}
	return fd, nil
}

// Close closes fd. The descriptor is considered closed even if the
// close() syscall itself reports an error.
func Close(fd int) liberr.Error {
	if fd == Invalid {
		return nil
	}
	if err := unix.Close(fd); err != nil {
		return liberr.CodeSocket.Error(err)
	}
	return nil
}

// Shutdown directions, matching Socket.hpp's SHUT_READ/WRITE/BOTH enum.
const (
	ShutRead  = unix.SHUT_RD
	ShutWrite = unix.SHUT_WR
	ShutBoth  = unix.SHUT_RDWR
)

func Shutdown(fd int, how int) liberr.Error {
	if err := unix.Shutdown(fd, how); err != nil {
		return liberr.CodeSocket.Error(err)
	}
	return nil
}

func SetNonblock(fd int, nonblock bool) liberr.Error {
	if err := unix.SetNonblock(fd, nonblock); err != nil {
		return liberr.CodeSocket.Error(err)
	}
	return nil
}

func SetReuseAddr(fd int, reuse bool) liberr.Error {
	return setBoolOpt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, reuse)
}

func SetReusePort(fd int, reuse bool) liberr.Error {
	return setBoolOpt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, reuse)
}

func SetKeepAlive(fd int, keepAlive bool) liberr.Error {
	return setBoolOpt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, keepAlive)
}

func SetNoDelay(fd int, noDelay bool) liberr.Error {
	return setBoolOpt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, noDelay)
}

func SetSendBuffer(fd int, n int) liberr.Error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, n); err != nil {
		return liberr.CodeSocket.Error(err)
	}
	return nil
}

func SetRecvBuffer(fd int, n int) liberr.Error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, n); err != nil {
		return liberr.CodeSocket.Error(err)
	}
	return nil
}

func setBoolOpt(fd int, level, name int, on bool) liberr.Error {
	v := 0
	if on {
		v = 1
	}
	if err := unix.SetsockoptInt(fd, level, name, v); err != nil {
		return liberr.CodeSocket.Error(err)
	}
	return nil
}

// Bind binds fd to addr.
func Bind(fd int, addr address.Address) liberr.Error {
	if err := unix.Bind(fd, toSockaddr(addr)); err != nil {
		return liberr.CodeSocket.Error(err)
	}
	return nil
}

// Listen marks fd as a passive socket with the given backlog.
func Listen(fd int, backlog int) liberr.Error {
	if err := unix.Listen(fd, backlog); err != nil {
		return liberr.CodeSocket.Error(err)
	}
	return nil
}

// Accept result classification. callers branch on (fd, transient, err):
// transient true means "would-block, return to the loop"; err non-nil
// with transient false means a terminal accept failure.
func Accept(fd int) (newFd int, peer address.Address, transient bool, err liberr.Error) {
	nfd, sa, e := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if e != nil {
		if isInterrupted(e) {
			return Accept(fd)
		}
		if isWouldBlock(e) {
			return Invalid, address.Empty(), true, nil
		}
		return Invalid, address.Empty(), false, liberr.CodeSocket.Error(e)
	}
	return nfd, fromSockaddr(sa), false, nil
}

// Connect starts a non-blocking connect. inProgress is true when the OS
// reports the connect as still underway (the caller should await
// writability and then call ConnectError to learn the outcome).
func Connect(fd int, addr address.Address) (inProgress bool, err liberr.Error) {
	e := unix.Connect(fd, toSockaddr(addr))
	if e == nil {
		return false, nil
	}
	if e == unix.EINPROGRESS || e == unix.EALREADY {
		return true, nil
	}
	if isInterrupted(e) {
		return Connect(fd, addr)
	}
	return false, liberr.CodeSocket.Error(e)
}

// ConnectError reads and clears SO_ERROR to learn whether a non-blocking
// connect succeeded once the descriptor becomes writable.
func ConnectError(fd int) liberr.Error {
	errno, e := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if e != nil {
		return liberr.CodeSocket.Error(e)
	}
	if errno != 0 {
		return liberr.CodeSocket.Error(syscall.Errno(errno))
	}
	return nil
}

// Send classification mirrors Accept: transient means "0 bytes, retry on
// writability"; err non-nil with transient false is terminal.
func Send(fd int, p []byte) (n int, transient bool, err liberr.Error) {
	w, e := unix.Write(fd, p)
	if e != nil {
		if isInterrupted(e) {
			return Send(fd, p)
		}
		if isWouldBlock(e) {
			return 0, true, nil
		}
		return 0, false, liberr.CodeSocket.Error(e)
	}
	return w, false, nil
}

func Receive(fd int, p []byte) (n int, transient bool, err liberr.Error) {
	r, e := unix.Read(fd, p)
	if e != nil {
		if isInterrupted(e) {
			return Receive(fd, p)
		}
		if isWouldBlock(e) {
			return 0, true, nil
		}
		return 0, false, liberr.CodeSocket.Error(e)
	}
	return r, false, nil
}

func SendTo(fd int, p []byte, addr address.Address) (n int, transient bool, err liberr.Error) {
	e := unix.Sendto(fd, p, 0, toSockaddr(addr))
	if e != nil {
		if isInterrupted(e) {
			return SendTo(fd, p, addr)
		}
		if isWouldBlock(e) {
			return 0, true, nil
		}
		return 0, false, liberr.CodeSocket.Error(e)
	}
	// sendto has no byte-count return in the unix package; the source
	// treats any non-error result as "complete for this datagram" (see
	// spec.md's Open Question on partial UDP sends).
	return len(p), false, nil
}

func ReceiveFrom(fd int, p []byte) (n int, from address.Address, transient bool, err liberr.Error) {
	r, sa, e := unix.Recvfrom(fd, p, 0)
	if e != nil {
		if isInterrupted(e) {
			return ReceiveFrom(fd, p)
		}
		if isWouldBlock(e) {
			return 0, address.Empty(), true, nil
		}
		return 0, address.Empty(), false, liberr.CodeSocket.Error(e)
	}
	return r, fromSockaddr(sa), false, nil
}

// LocalAddr returns the address fd is bound to.
func LocalAddr(fd int) (address.Address, liberr.Error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return address.Empty(), liberr.CodeSocket.Error(err)
	}
	return fromSockaddr(sa), nil
}

// PeerAddr returns the address fd is connected to.
func PeerAddr(fd int) (address.Address, liberr.Error) {
	sa, err := unix.Getpeername(fd)
	if err != nil {
		return address.Empty(), liberr.CodeSocket.Error(err)
	}
	return fromSockaddr(sa), nil
}

// isWouldBlock and isInterrupted classify through liberr.ClassifyErrno,
// so the errno table is not re-derived ad hoc at a second call site.
func isWouldBlock(err error) bool {
	errno, ok := err.(syscall.Errno)
	return ok && liberr.ClassifyErrno(errno) == liberr.KindTransient
}

func isInterrupted(err error) bool {
	errno, ok := err.(syscall.Errno)
	return ok && liberr.ClassifyErrno(errno) == liberr.KindInterrupted
}

func toSockaddr(a address.Address) unix.Sockaddr {
	if a.Family() == address.FamilyV6 {
		var sa unix.SockaddrInet6
		sa.Port = int(a.Port())
		copy(sa.Addr[:], a.IP().To16())
		return &sa
	}
	var sa unix.SockaddrInet4
	sa.Port = int(a.Port())
	copy(sa.Addr[:], a.IP().To4())
	return &sa
}

func fromSockaddr(sa unix.Sockaddr) address.Address {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make([]byte, 4)
		copy(ip, v.Addr[:])
		return address.FromNetAddr(ip, uint16(v.Port))
	case *unix.SockaddrInet6:
		ip := make([]byte, 16)
		copy(ip, v.Addr[:])
		return address.FromNetAddr(ip, uint16(v.Port))
	default:
		return address.Empty()
	}
}
