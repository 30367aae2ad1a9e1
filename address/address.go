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

// Package address is a value type for a protocol-family-tagged socket
// address: family (v4/v6), numeric host, and port, with the textual
// parsing rules and special-address predicates a reactor core needs to
// bind/connect/accept against. It never resolves names: a hostname that
// is not one of the recognized sentinels or a numeric literal is rejected.
package address

import (
	"fmt"
	"net"

	liberr "github.com/nabbar/netb/errors"
)

// Family identifies the protocol family of an Address.
type Family uint8

const (
	// FamilyUnspec marks an empty Address (the zero value).
	FamilyUnspec Family = iota
	FamilyV4
	FamilyV6
)

func (f Family) String() string {
	switch f {
	case FamilyV4:
		return "ip4"
	case FamilyV6:
		return "ip6"
	default:
		return "unspec"
	}
}

// Address is a protocol-family-tagged (host, port) pair. It is a plain
// value type: copied freely, comparable with ==, and safe for use as a
// map key.
type Address struct {
	family Family
	ip     [16]byte
	port   uint16
}

// Empty returns the zero-value (unspecified family) Address.
func Empty() Address {
	return Address{}
}

// New builds an Address from a host string and a port. Recognized host
// sentinels (matched exactly, lower-case): "any"/"wildcard" -> unspecified-any,
// "loopback"/"localhost"/"" -> loopback, "none"/"broadcast" -> the v4
// broadcast sentinel (255.255.255.255; rejected for family v6). Anything
// else must parse as a dotted-quad or colon-separated numeric address.
func New(host string, port uint16, family Family) (Address, liberr.Error) {
	if family == FamilyUnspec {
		family = FamilyV4
	}

	switch normalizeHost(host) {
	case sentinelAny:
		return fromSentinel(family, port, true), nil
	case sentinelLoopback:
		return fromSentinel(family, port, false), nil
	case sentinelBroadcast:
		if family == FamilyV6 {
			return Address{}, liberr.New(liberr.KindLogic, liberr.CodeAddress, "broadcast address is not defined for ip6")
		}
		return Address{family: FamilyV4, ip: v4Mapped(net.IPv4bcast), port: port}, nil
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return Address{}, liberr.Newf(liberr.KindLogic, liberr.CodeAddress, "host %q is not a numeric address or recognized sentinel", host)
	}

	if v4 := ip.To4(); v4 != nil && family != FamilyV6 {
		return Address{family: FamilyV4, ip: v4Mapped(v4), port: port}, nil
	}
	if v6 := ip.To16(); v6 != nil {
		return Address{family: FamilyV6, ip: to16(v6), port: port}, nil
	}
	return Address{}, liberr.Newf(liberr.KindLogic, liberr.CodeAddress, "host %q could not be converted to family %s", host, family)
}

// FromNetAddr adapts a net.IP + port pair already resolved by the caller
// (e.g. from net.Listener.Addr()) without re-parsing its text form.
func FromNetAddr(ip net.IP, port uint16) Address {
	if v4 := ip.To4(); v4 != nil {
		return Address{family: FamilyV4, ip: v4Mapped(v4), port: port}
	}
	return Address{family: FamilyV6, ip: to16(ip.To16()), port: port}
}

const (
	sentinelAny       = "any"
	sentinelLoopback  = "loopback"
	sentinelBroadcast = "broadcast"
)

func normalizeHost(host string) string {
	switch host {
	case "", "localhost", "loopback":
		return sentinelLoopback
	case "any", "wildcard":
		return sentinelAny
	case "none", "broadcast":
		return sentinelBroadcast
	default:
		return host
	}
}

func fromSentinel(family Family, port uint16, wildcard bool) Address {
	a := Address{family: family, port: port}
	if family == FamilyV6 {
		if !wildcard {
			a.ip = to16(net.IPv6loopback)
		}
		// wildcard v6 is the all-zero address already
		return a
	}
	if wildcard {
		a.ip = v4Mapped(net.IPv4zero)
	} else {
		a.ip = v4Mapped(net.IPv4(127, 0, 0, 1))
	}
	return a
}

func v4Mapped(ip net.IP) [16]byte {
	var b [16]byte
	copy(b[:4], ip.To4())
	return b
}

func to16(ip net.IP) [16]byte {
	var b [16]byte
	copy(b[:], ip.To16())
	return b
}

// Family returns the address's protocol family.
func (a Address) Family() Family { return a.family }

// Port returns the address's port, 0 meaning "any port".
func (a Address) Port() uint16 { return a.port }

// WithPort returns a copy of a with the port replaced.
func (a Address) WithPort(port uint16) Address {
	a.port = port
	return a
}

// IP returns the address's host as a net.IP.
func (a Address) IP() net.IP {
	if a.family == FamilyV6 {
		ip := make(net.IP, 16)
		copy(ip, a.ip[:])
		return ip
	}
	ip := make(net.IP, 4)
	copy(ip, a.ip[:4])
	return ip
}

// Empty reports whether a is the zero-value (unspecified family) Address.
func (a Address) Empty() bool { return a.family == FamilyUnspec }

// String renders the address as "host:port" (host in bracket form for v6).
func (a Address) String() string {
	if a.Empty() {
		return ""
	}
	if a.family == FamilyV6 {
		return fmt.Sprintf("[%s]:%d", a.IP().String(), a.port)
	}
	return fmt.Sprintf("%s:%d", a.IP().String(), a.port)
}

// Wildcard reports whether the address is the unspecified-any host with
// port 0 (the fully-unbound sentinel).
func (a Address) Wildcard() bool { return a.AnyHost() && a.AnyPort() }

// AnyPort reports whether the port is 0 ("any port").
func (a Address) AnyPort() bool { return a.port == 0 }

// AnyHost reports whether the host is the unspecified-any address.
func (a Address) AnyHost() bool {
	if a.family == FamilyV6 {
		return a.ip == [16]byte{}
	}
	return a.ip[0] == 0 && a.ip[1] == 0 && a.ip[2] == 0 && a.ip[3] == 0
}

// Loopback reports whether the host is the family's loopback address.
func (a Address) Loopback() bool { return a.IP().IsLoopback() }

// Broadcast reports whether the host is the v4 broadcast sentinel
// (255.255.255.255). Never true for v6, which has no broadcast address.
func (a Address) Broadcast() bool {
	if a.family != FamilyV4 {
		return false
	}
	return a.ip[0] == 255 && a.ip[1] == 255 && a.ip[2] == 255 && a.ip[3] == 255
}

// Equal reports whether a and b denote the same family, host, and port.
func (a Address) Equal(b Address) bool {
	return a.family == b.family && a.ip == b.ip && a.port == b.port
}

// Less gives Address a total, consistent (but not otherwise meaningful)
// ordering, for use in sorted collections.
func (a Address) Less(b Address) bool {
	if a.family != b.family {
		return a.family < b.family
	}
	for i := range a.ip {
		if a.ip[i] != b.ip[i] {
			return a.ip[i] < b.ip[i]
		}
	}
	return a.port < b.port
}
